package health

import "context"

// CachePinger checks cache backend availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// VectorChecker checks semantic search service availability.
type VectorChecker interface {
	CheckHealth(ctx context.Context) bool
}
