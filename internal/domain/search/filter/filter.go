// Package filter holds the optional search constraints. All conditions are
// AND-combined; list-valued conditions match when any element matches.
package filter

import (
	"sort"
	"strings"

	"github.com/mebooks-ai/mebooks/internal/domain"
)

// Filters narrows a search to matching catalog records. The zero value
// matches everything.
type Filters struct {
	Categories   []string
	Complexities []string
	Authors      []string
	Frameworks   []string
	MinPrice     *domain.Price
	MaxPrice     *domain.Price
}

// IsEmpty reports whether no condition is set.
func (f Filters) IsEmpty() bool {
	return len(f.Categories) == 0 &&
		len(f.Complexities) == 0 &&
		len(f.Authors) == 0 &&
		len(f.Frameworks) == 0 &&
		f.MinPrice == nil &&
		f.MaxPrice == nil
}

// Match reports whether the ebook satisfies every set condition.
func (f Filters) Match(e domain.Ebook) bool {
	if len(f.Categories) > 0 && !containsFold(f.Categories, e.Category) {
		return false
	}
	if len(f.Complexities) > 0 && !containsFold(f.Complexities, string(e.Complexity)) {
		return false
	}
	if len(f.Authors) > 0 && !containsFold(f.Authors, e.Author) {
		return false
	}
	if len(f.Frameworks) > 0 && !anyFold(f.Frameworks, e.FrameworkTags) {
		return false
	}
	if f.MinPrice != nil && e.Price < *f.MinPrice {
		return false
	}
	if f.MaxPrice != nil && e.Price > *f.MaxPrice {
		return false
	}
	return true
}

// CacheKey returns a canonical serialization of the filters: identical
// filters always serialize identically regardless of list order.
func (f Filters) CacheKey() string {
	if f.IsEmpty() {
		return ""
	}

	var parts []string
	appendList := func(name string, vals []string) {
		if len(vals) == 0 {
			return
		}
		sorted := make([]string, len(vals))
		for i, v := range vals {
			sorted[i] = strings.ToLower(strings.TrimSpace(v))
		}
		sort.Strings(sorted)
		parts = append(parts, name+"="+strings.Join(sorted, ","))
	}

	appendList("cat", f.Categories)
	appendList("cpx", f.Complexities)
	appendList("aut", f.Authors)
	appendList("fw", f.Frameworks)
	if f.MinPrice != nil {
		parts = append(parts, "min="+f.MinPrice.String())
	}
	if f.MaxPrice != nil {
		parts = append(parts, "max="+f.MaxPrice.String())
	}
	return strings.Join(parts, ";")
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(strings.TrimSpace(h), needle) {
			return true
		}
	}
	return false
}

// anyFold reports whether any wanted value matches any tag.
func anyFold(wanted, tags []string) bool {
	for _, w := range wanted {
		if containsFold(tags, strings.TrimSpace(w)) {
			return true
		}
	}
	return false
}
