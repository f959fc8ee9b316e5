// Package search is the orchestrator: the single entry point that ties the
// result cache, the semantic search service, and the keyword fallback
// together with a fixed precedence. Failures below this layer are absorbed
// into fallback actions; only an invalid query or a total failure of the
// keyword path crosses the boundary as an error.
package search

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mebooks-ai/mebooks/internal/cache"
	"github.com/mebooks-ai/mebooks/internal/domain"
	"github.com/mebooks-ai/mebooks/internal/domain/search/query"
	"github.com/mebooks-ai/mebooks/internal/domain/search/result"
	"github.com/mebooks-ai/mebooks/internal/metrics"
)

// Serving backends, reported in the response and on metrics.
const (
	SourceSemantic = "semantic"
	SourceKeyword  = "keyword"
)

// Response is the outcome of one search: the normalized results, which
// backend produced them, and whether they were served from cache.
type Response struct {
	Results []result.Result `json:"results"`
	Count   int             `json:"count"`
	Source  string          `json:"source"`
	Cached  bool            `json:"cached"`
}

// StatusReport describes the search subsystem's current serving mode.
type StatusReport struct {
	SemanticSearchAvailable bool     `json:"semantic_search_available"`
	ServiceURL              string   `json:"service_url"`
	Version                 string   `json:"version,omitempty"`
	Features                []string `json:"features,omitempty"`
	FallbackMode            string   `json:"fallback_mode"`
}

// Service orchestrates searches across the cached, semantic, and keyword
// backends.
type Service struct {
	cache    ResultCache
	semantic SemanticSearcher
	catalog  Catalog
	logger   *zap.Logger
}

// NewService creates the orchestrator. All dependencies are required.
func NewService(c ResultCache, sem SemanticSearcher, cat Catalog, logger *zap.Logger) *Service {
	return &Service{
		cache:    c,
		semantic: sem,
		catalog:  cat,
		logger:   logger,
	}
}

// cachedResponse is the envelope persisted in the cache, so a hit can report
// which backend originally produced the results.
type cachedResponse struct {
	Source  string          `json:"source"`
	Results []result.Result `json:"results"`
}

// Perform runs one search: cache first, then the semantic service when it is
// healthy or explicitly requested, then the keyword fallback. A semantic
// failure is logged and absorbed, never surfaced.
func (s *Service) Perform(ctx context.Context, q query.Query) (Response, error) {
	key := cache.ResultsKey(q)

	var cached cachedResponse
	if s.cache.GetResults(ctx, key, &cached) {
		metrics.SearchesTotal.WithLabelValues("cache").Inc()
		return Response{
			Results: cached.Results,
			Count:   len(cached.Results),
			Source:  cached.Source,
			Cached:  true,
		}, nil
	}

	if q.Semantic() || s.semantic.CheckHealth(ctx) {
		results, err := s.semantic.Search(ctx, q)
		if err == nil {
			s.cache.SetResults(ctx, key, cachedResponse{Source: SourceSemantic, Results: results}, cache.TTLVectorSearch)
			metrics.SearchesTotal.WithLabelValues(SourceSemantic).Inc()
			return Response{Results: results, Count: len(results), Source: SourceSemantic}, nil
		}
		s.logger.Warn("Semantic search failed, falling back to keyword search",
			zap.String("query", q.Text()),
			zap.Error(err),
		)
		metrics.SearchFallbacksTotal.Inc()
	}

	results, err := s.keywordSearch(ctx, q)
	if err != nil {
		return Response{}, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	s.cache.SetResults(ctx, key, cachedResponse{Source: SourceKeyword, Results: results}, cache.TTLSearchResults)
	metrics.SearchesTotal.WithLabelValues(SourceKeyword).Inc()
	return Response{Results: results, Count: len(results), Source: SourceKeyword}, nil
}

// keywordSearch runs the local token match and applies the query's filters.
// Keyword matches carry a uniform synthetic score; ordering is storage order.
func (s *Service) keywordSearch(ctx context.Context, q query.Query) ([]result.Result, error) {
	ebooks, err := s.catalog.Search(ctx, q.Text())
	if err != nil {
		return nil, err
	}

	f := q.Filters()
	if !f.IsEmpty() {
		filtered := ebooks[:0]
		for _, e := range ebooks {
			if f.Match(e) {
				filtered = append(filtered, e)
			}
		}
		ebooks = filtered
	}
	return result.FromEbooks(ebooks, 1.0), nil
}

// Similar returns ebooks similar to the given one: semantic ranking when the
// service is available, same-category neighbors otherwise. Results are cached
// with a long TTL since similarity changes only on re-indexing.
func (s *Service) Similar(ctx context.Context, ebookID string, numResults int) ([]result.Result, error) {
	if numResults <= 0 {
		numResults = 5
	}

	// The id must exist regardless of which backend serves the neighbors.
	if _, err := s.catalog.Get(ctx, ebookID); err != nil {
		return nil, err
	}

	key := cache.SimilarKey(ebookID, numResults)
	var cached []result.Result
	if s.cache.GetResults(ctx, key, &cached) {
		return cached, nil
	}

	if s.semantic.CheckHealth(ctx) {
		results, err := s.semantic.Similar(ctx, ebookID, numResults)
		if err == nil {
			s.cache.SetResults(ctx, key, results, cache.TTLSimilarEbooks)
			return results, nil
		}
		s.logger.Warn("Similar-ebooks lookup failed, falling back to category match",
			zap.String("ebook_id", ebookID),
			zap.Error(err),
		)
		metrics.SearchFallbacksTotal.Inc()
	}

	ebooks, err := s.catalog.SimilarByCategory(ctx, ebookID, numResults)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrSearchUnavailable, err)
	}

	results := result.FromEbooks(ebooks, 1.0)
	s.cache.SetResults(ctx, key, results, cache.TTLSimilarEbooks)
	return results, nil
}

// Status reports the search subsystem's serving mode. The probe verdict is
// cached briefly so status polling does not hammer the service.
func (s *Service) Status(ctx context.Context) StatusReport {
	key := cache.StatusKey("vector-search")

	var report StatusReport
	if s.cache.GetJSON(ctx, key, &report) {
		return report
	}

	st := s.semantic.Status(ctx)
	report = StatusReport{
		SemanticSearchAvailable: st.Available,
		ServiceURL:              st.URL,
		Version:                 st.Version,
		Features:                st.Features,
		FallbackMode:            "keyword",
	}
	if st.Available {
		report.FallbackMode = "none"
	}

	s.cache.SetJSON(ctx, key, report, cache.TTLServiceStatus)
	return report
}
