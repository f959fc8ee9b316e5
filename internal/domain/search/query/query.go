// Package query defines the per-request search query value type and the
// deterministic cache key derivation.
package query

import (
	"fmt"
	"strings"

	"github.com/mebooks-ai/mebooks/internal/domain"
	"github.com/mebooks-ai/mebooks/internal/domain/search/filter"
)

const (
	// DefaultNumResults is used when the caller does not set a result count.
	DefaultNumResults = 20
	// DefaultSimilarityThreshold is the semantic-search cutoff applied when
	// the caller does not set one.
	DefaultSimilarityThreshold = 0.1

	maxKeyLen = 50
)

// Query is an ephemeral, validated search request.
type Query struct {
	text       string
	filters    filter.Filters
	numResults int
	threshold  float64
	semantic   bool
}

// New builds a query. The raw text must be non-empty; defaults are applied
// for an unset result count and threshold. semantic forces the semantic
// backend to be attempted even if its last health probe failed.
func New(text string, f filter.Filters, numResults int, threshold float64, semantic bool) (Query, error) {
	if text == "" {
		return Query{}, domain.ErrInvalidQuery
	}
	if numResults <= 0 {
		numResults = DefaultNumResults
	}
	if threshold == 0 {
		threshold = DefaultSimilarityThreshold
	}
	if threshold < 0 || threshold > 1 {
		return Query{}, fmt.Errorf("similarity threshold must be in [0,1], got %g: %w", threshold, domain.ErrInvalidQuery)
	}
	return Query{
		text:       text,
		filters:    f,
		numResults: numResults,
		threshold:  threshold,
		semantic:   semantic,
	}, nil
}

// Text returns the raw query text as the caller supplied it.
func (q Query) Text() string { return q.text }

// Filters returns the optional AND-combined constraints.
func (q Query) Filters() filter.Filters { return q.filters }

// NumResults returns the requested result count.
func (q Query) NumResults() int { return q.numResults }

// SimilarityThreshold returns the semantic-search cutoff.
func (q Query) SimilarityThreshold() float64 { return q.threshold }

// Semantic reports whether the caller explicitly requested semantic search.
func (q Query) Semantic() bool { return q.semantic }

// CacheKey derives a deterministic key from the normalized query text and the
// canonical filter serialization. Two queries with identical trimmed text and
// identical filters always produce the same key.
func (q Query) CacheKey() string {
	key := NormalizeText(q.text)
	if fk := q.filters.CacheKey(); fk != "" {
		key += "_" + fk
	}
	return key
}

// NormalizeText lowercases and trims the text, collapses whitespace runs to
// underscores, strips everything outside [a-z0-9_], and caps the length.
func NormalizeText(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	lastUnderscore := false
	for _, r := range s {
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_':
			b.WriteRune(r)
			lastUnderscore = false
		}
	}
	out := b.String()
	if len(out) > maxKeyLen {
		out = out[:maxKeyLen]
	}
	return out
}
