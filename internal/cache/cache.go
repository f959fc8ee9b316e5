// Package cache is the search-result cache layer. The cache is an
// optimization, never a correctness dependency: every backend failure
// degrades silently into a miss or a no-op, logged at Warn in one place.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mebooks-ai/mebooks/internal/db"
	"github.com/mebooks-ai/mebooks/internal/domain/search/query"
)

// TTLs per cached value category.
const (
	TTLSearchResults = 5 * time.Minute
	TTLVectorSearch  = 10 * time.Minute
	TTLSimilarEbooks = 30 * time.Minute
	TTLEbookMetadata = time.Hour
	TTLServiceStatus = time.Minute
)

// store is the consumer interface for the cache backend (ISP).
type store interface {
	db.Pinger
	db.KVStore
	db.AdminStore
}

// Stats is the cache observability surface.
type Stats struct {
	Connected   bool   `json:"connected"`
	KeyCount    int64  `json:"keyCount"`
	MemoryUsage string `json:"memoryUsage,omitempty"`
}

// Cache is a typed facade over the key-value backend. A nil backend is a
// valid configuration: every read misses and every write is a no-op.
type Cache struct {
	store      store
	prefix     string
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a cache over the given backend. cacheTotal is a counter vec
// with label "result" ("hit"/"miss"), passed explicitly; it may be nil.
func New(s store, prefix string, cacheTotal *prometheus.CounterVec, logger *zap.Logger) *Cache {
	return &Cache{
		store:      s,
		prefix:     prefix,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// ResultsKey derives the cache key for a search query's result set. Both
// backends cache under the same key; only the TTL differs by source.
func ResultsKey(q query.Query) string {
	return "results:" + q.CacheKey()
}

// SimilarKey derives the cache key for a similar-ebooks lookup.
func SimilarKey(ebookID string, numResults int) string {
	return fmt.Sprintf("similar:%s:%d", ebookID, numResults)
}

// StatusKey derives the cache key for a service status probe.
func StatusKey(service string) string {
	return "status:" + service
}

// GetResults reads the cached result payload for a key into v, counting the
// outcome on the hit/miss metric. Backend failures and corrupt payloads count
// as misses.
func (c *Cache) GetResults(ctx context.Context, key string, v any) bool {
	data, ok := c.get(ctx, key)
	if !ok {
		c.incCache("miss")
		return false
	}

	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("Discarding corrupt cached results", zap.String("key", key), zap.Error(err))
		c.incCache("miss")
		return false
	}

	c.incCache("hit")
	return true
}

// SetResults stores a result payload wholesale, overwriting any previous value.
func (c *Cache) SetResults(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode results for cache", zap.String("key", key), zap.Error(err))
		return
	}
	c.set(ctx, key, data, ttl)
}

// GetJSON reads an arbitrary cached JSON value into v.
func (c *Cache) GetJSON(ctx context.Context, key string, v any) bool {
	data, ok := c.get(ctx, key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		c.logger.Warn("Discarding corrupt cached value", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

// SetJSON stores an arbitrary JSON value.
func (c *Cache) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) {
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.Warn("Failed to encode value for cache", zap.String("key", key), zap.Error(err))
		return
	}
	c.set(ctx, key, data, ttl)
}

// ClearPattern deletes all keys in this cache's namespace matching the glob
// pattern.
func (c *Cache) ClearPattern(ctx context.Context, pattern string) {
	if c.store == nil {
		return
	}
	keys, err := c.store.Scan(ctx, c.prefix+pattern)
	if err != nil {
		c.logger.Warn("Failed to scan cache keys", zap.String("pattern", pattern), zap.Error(err))
		return
	}
	if err := c.store.Del(ctx, keys...); err != nil {
		c.logger.Warn("Failed to delete cache keys", zap.String("pattern", pattern), zap.Error(err))
	}
}

// ClearAll empties the cache namespace.
func (c *Cache) ClearAll(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.FlushAll(ctx); err != nil {
		c.logger.Warn("Failed to clear cache", zap.Error(err))
	}
}

// Stats reports connectivity, key count, and memory usage.
func (c *Cache) Stats(ctx context.Context) Stats {
	if c.store == nil {
		return Stats{}
	}
	if err := c.store.Ping(ctx); err != nil {
		return Stats{}
	}

	stats := Stats{Connected: true}
	n, err := c.store.KeyCount(ctx)
	if err != nil {
		c.logger.Warn("Failed to read cache key count", zap.Error(err))
		return stats
	}
	stats.KeyCount = n

	if mem, err := c.store.MemoryUsage(ctx); err == nil {
		stats.MemoryUsage = mem
	}
	return stats
}

func (c *Cache) get(ctx context.Context, key string) ([]byte, bool) {
	if c.store == nil {
		return nil, false
	}
	data, err := c.store.Get(ctx, c.prefix+key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

func (c *Cache) set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if c.store == nil {
		return
	}
	if err := c.store.SetWithTTL(ctx, c.prefix+key, data, ttl); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (c *Cache) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}
