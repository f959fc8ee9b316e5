// Package db defines the key-value store contract the cache layer consumes.
package db

import (
	"context"
	"time"
)

// Store is the key-value backend behind the cache layer.
type Store interface {
	Pinger
	KVStore
	AdminStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks backend connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides expiring key-value operations.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	Scan(ctx context.Context, pattern string) ([]string, error)
}

// AdminStore provides the observability and maintenance surface.
type AdminStore interface {
	FlushAll(ctx context.Context) error
	KeyCount(ctx context.Context) (int64, error)
	MemoryUsage(ctx context.Context) (string, error)
}
