package filter

import (
	"testing"

	"github.com/mebooks-ai/mebooks/internal/domain"
)

func sampleEbook() domain.Ebook {
	return domain.Ebook{
		ID:            "1",
		Title:         "Machine Learning Fundamentals",
		Author:        "Dr. Sarah Chen",
		Category:      "Machine Learning",
		Complexity:    domain.ComplexityBeginner,
		Price:         domain.MustParsePrice("29.99"),
		FrameworkTags: []string{"scikit-learn", "pandas"},
	}
}

func pricePtr(s string) *domain.Price {
	p := domain.MustParsePrice(s)
	return &p
}

func TestIsEmpty(t *testing.T) {
	if !(Filters{}).IsEmpty() {
		t.Error("zero value should be empty")
	}
	if (Filters{Categories: []string{"NLP"}}).IsEmpty() {
		t.Error("filters with a category should not be empty")
	}
	if (Filters{MinPrice: pricePtr("10.00")}).IsEmpty() {
		t.Error("filters with a price bound should not be empty")
	}
}

func TestMatch(t *testing.T) {
	e := sampleEbook()

	tests := []struct {
		name string
		f    Filters
		want bool
	}{
		{"empty matches everything", Filters{}, true},
		{"category match is case-insensitive", Filters{Categories: []string{"machine learning"}}, true},
		{"category mismatch", Filters{Categories: []string{"NLP"}}, false},
		{"any category in list matches", Filters{Categories: []string{"NLP", "Machine Learning"}}, true},
		{"complexity match", Filters{Complexities: []string{"Beginner"}}, true},
		{"complexity mismatch", Filters{Complexities: []string{"advanced"}}, false},
		{"author match", Filters{Authors: []string{"dr. sarah chen"}}, true},
		{"framework tag match", Filters{Frameworks: []string{"pandas"}}, true},
		{"framework tag mismatch", Filters{Frameworks: []string{"pytorch"}}, false},
		{"price in range", Filters{MinPrice: pricePtr("20.00"), MaxPrice: pricePtr("40.00")}, true},
		{"price below min", Filters{MinPrice: pricePtr("30.00")}, false},
		{"price above max", Filters{MaxPrice: pricePtr("29.98")}, false},
		{"conditions are AND-combined", Filters{
			Categories: []string{"Machine Learning"},
			Authors:    []string{"Someone Else"},
		}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Match(e); got != tc.want {
				t.Errorf("Match() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestCacheKey_Canonical(t *testing.T) {
	a := Filters{
		Categories:   []string{"NLP", "Machine Learning"},
		Complexities: []string{"beginner"},
		MaxPrice:     pricePtr("50.00"),
	}
	b := Filters{
		Categories:   []string{"machine learning", "nlp"},
		Complexities: []string{"Beginner"},
		MaxPrice:     pricePtr("50.00"),
	}

	if a.CacheKey() != b.CacheKey() {
		t.Errorf("equivalent filters produced different keys: %q vs %q", a.CacheKey(), b.CacheKey())
	}
	if (Filters{}).CacheKey() != "" {
		t.Error("empty filters should serialize to an empty key")
	}
}

func TestCacheKey_DistinguishesFilters(t *testing.T) {
	a := Filters{Categories: []string{"NLP"}}
	b := Filters{Categories: []string{"NLP"}, MinPrice: pricePtr("10.00")}

	if a.CacheKey() == b.CacheKey() {
		t.Error("different filters must not collide")
	}
}
