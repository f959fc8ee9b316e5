// Package catalog holds the in-memory ebook collection and the keyword
// search fallback. It has no external dependencies and is always available.
package catalog

import (
	"context"
	"strings"
	"unicode"

	"github.com/mebooks-ai/mebooks/internal/domain"
)

// Catalog is an in-memory ebook store standing in for the relational
// database. Records are immutable; iteration order is insertion order.
type Catalog struct {
	ebooks []domain.Ebook
}

// New creates a catalog seeded with the development dataset.
func New() *Catalog {
	return NewWith(seedEbooks())
}

// NewWith creates a catalog over the given records.
func NewWith(ebooks []domain.Ebook) *Catalog {
	return &Catalog{ebooks: ebooks}
}

// All returns every ebook in storage order.
func (c *Catalog) All(_ context.Context) ([]domain.Ebook, error) {
	out := make([]domain.Ebook, len(c.ebooks))
	copy(out, c.ebooks)
	return out, nil
}

// Get returns the ebook with the given id.
func (c *Catalog) Get(_ context.Context, id string) (domain.Ebook, error) {
	for _, e := range c.ebooks {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.Ebook{}, domain.ErrEbookNotFound
}

// Search returns every ebook whose searchable text (title, description,
// category, framework tags) contains any query token as a substring.
// Ordering is storage order. A query with no usable tokens returns the
// full collection: browse-all semantics, never an error.
func (c *Catalog) Search(_ context.Context, query string) ([]domain.Ebook, error) {
	tokens := Tokenize(query)
	if len(tokens) == 0 {
		out := make([]domain.Ebook, len(c.ebooks))
		copy(out, c.ebooks)
		return out, nil
	}

	var out []domain.Ebook
	for _, e := range c.ebooks {
		text := searchableText(e)
		for _, tok := range tokens {
			if strings.Contains(text, tok) {
				out = append(out, e)
				break
			}
		}
	}
	return out, nil
}

// SimilarByCategory returns up to n other ebooks sharing the given ebook's
// category. This is the local fallback for the similar-ebooks endpoint.
func (c *Catalog) SimilarByCategory(ctx context.Context, id string, n int) ([]domain.Ebook, error) {
	current, err := c.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var out []domain.Ebook
	for _, e := range c.ebooks {
		if e.ID == current.ID || e.Category != current.Category {
			continue
		}
		out = append(out, e)
		if len(out) == n {
			break
		}
	}
	return out, nil
}

// Tokenize splits on whitespace, lowercases, and discards tokens with no
// letters or digits, so an all-punctuation query yields zero tokens.
func Tokenize(query string) []string {
	var tokens []string
	for _, tok := range strings.Fields(strings.ToLower(query)) {
		if hasAlnum(tok) {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func searchableText(e domain.Ebook) string {
	parts := []string{e.Title, e.Description, e.Category}
	parts = append(parts, e.FrameworkTags...)
	return strings.ToLower(strings.Join(parts, " "))
}
