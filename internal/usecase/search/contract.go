package search

import (
	"context"
	"time"

	"github.com/mebooks-ai/mebooks/internal/domain"
	"github.com/mebooks-ai/mebooks/internal/domain/search/query"
	"github.com/mebooks-ai/mebooks/internal/domain/search/result"
	"github.com/mebooks-ai/mebooks/internal/vector"
)

// ResultCache is the slice of the cache layer this service consumes. All
// methods degrade silently on backend failure.
type ResultCache interface {
	GetResults(ctx context.Context, key string, v any) bool
	SetResults(ctx context.Context, key string, v any, ttl time.Duration)
	GetJSON(ctx context.Context, key string, v any) bool
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration)
}

// SemanticSearcher is the slice of the vector service client this service
// consumes.
type SemanticSearcher interface {
	CheckHealth(ctx context.Context) bool
	Search(ctx context.Context, q query.Query) ([]result.Result, error)
	Similar(ctx context.Context, ebookID string, numResults int) ([]result.Result, error)
	Status(ctx context.Context) vector.Status
}

// Catalog is the local ebook store and keyword search backend.
type Catalog interface {
	All(ctx context.Context) ([]domain.Ebook, error)
	Get(ctx context.Context, id string) (domain.Ebook, error)
	Search(ctx context.Context, text string) ([]domain.Ebook, error)
	SimilarByCategory(ctx context.Context, id string, n int) ([]domain.Ebook, error)
}
