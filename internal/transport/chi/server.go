// Package chi is the HTTP transport: route registration, request parsing,
// and the domain-error-to-status mapping.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mebooks-ai/mebooks/internal/cache"
	"github.com/mebooks-ai/mebooks/internal/domain"
	"github.com/mebooks-ai/mebooks/internal/domain/search/filter"
	"github.com/mebooks-ai/mebooks/internal/domain/search/query"
	healthuc "github.com/mebooks-ai/mebooks/internal/usecase/health"
	insightuc "github.com/mebooks-ai/mebooks/internal/usecase/insight"
	searchuc "github.com/mebooks-ai/mebooks/internal/usecase/search"
	"github.com/mebooks-ai/mebooks/internal/vector"
)

const maxUploadBytes = 32 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// errorResponse is the uniform error payload.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Indexer submits ebook files for vector indexing.
type Indexer interface {
	Index(ctx context.Context, file []byte, meta vector.IndexMetadata) (vector.IndexResult, error)
}

// Server is the HTTP API server.
type Server struct {
	search        *searchuc.Service
	insight       *insightuc.Service
	health        *healthuc.Service
	catalog       searchuc.Catalog
	cache         *cache.Cache
	indexer       Indexer
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	search *searchuc.Service,
	insight *insightuc.Service,
	health *healthuc.Service,
	catalog searchuc.Catalog,
	c *cache.Cache,
	indexer Indexer,
	logger *zap.Logger,
) *Server {
	s := &Server{
		search:  search,
		insight: insight,
		health:  health,
		catalog: catalog,
		cache:   c,
		indexer: indexer,
		logger:  logger,
	}
	s.errorHandlers = []errorHandler{
		invalidQueryHandler,
		sentinelHandler(domain.ErrEbookNotFound, http.StatusNotFound, "ebook_not_found"),
		searchUnavailableHandler,
	}
	return s
}

// Routes registers all API routes on the router.
func (s *Server) Routes(r chi.Router) {
	r.Get("/api/health", s.HealthCheck)
	r.Get("/api/search", s.Search)
	r.Get("/api/search/status", s.SearchStatus)
	r.Get("/api/search/analyze", s.AnalyzeQuery)
	r.Get("/api/ebooks", s.ListEbooks)
	r.Get("/api/ebooks/{id}", s.GetEbook)
	r.Get("/api/ebooks/{id}/similar", s.SimilarEbooks)
	r.Post("/api/ebooks/upload", s.UploadEbook)
	r.Get("/api/cache/stats", s.CacheStats)
	r.Delete("/api/cache/clear", s.ClearCache)
	r.Get("/metrics", s.Metrics)
}

// Search handles GET /api/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	q, err := queryFromRequest(r)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp, err := s.search.Perform(r.Context(), q)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Query:    q.Text(),
		Results:  resp.Results,
		Count:    resp.Count,
		Source:   resp.Source,
		Cached:   resp.Cached,
		Semantic: resp.Source == searchuc.SourceSemantic,
	})
}

type searchResponse struct {
	Query    string `json:"query"`
	Results  any    `json:"results"`
	Count    int    `json:"count"`
	Source   string `json:"source"`
	Cached   bool   `json:"cached"`
	Semantic bool   `json:"semantic_search_used"`
}

// SearchStatus handles GET /api/search/status.
func (s *Server) SearchStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.search.Status(r.Context()))
}

// AnalyzeQuery handles GET /api/search/analyze.
func (s *Server) AnalyzeQuery(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("query")
	if text == "" {
		s.handleDomainError(w, domain.ErrInvalidQuery)
		return
	}
	writeJSON(w, http.StatusOK, s.insight.Analyze(r.Context(), text))
}

// ListEbooks handles GET /api/ebooks.
func (s *Server) ListEbooks(w http.ResponseWriter, r *http.Request) {
	ebooks, err := s.catalog.All(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ebooks)
}

// GetEbook handles GET /api/ebooks/{id}.
func (s *Server) GetEbook(w http.ResponseWriter, r *http.Request) {
	e, err := s.catalog.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// SimilarEbooks handles GET /api/ebooks/{id}/similar.
func (s *Server) SimilarEbooks(w http.ResponseWriter, r *http.Request) {
	numResults, err := intParam(r, "num_results", 5)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	results, err := s.search.Similar(r.Context(), chi.URLParam(r, "id"), numResults)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

// UploadEbook handles POST /api/ebooks/upload: forwards the file and its
// metadata to the vector service for indexing. Best-effort by contract.
func (s *Server) UploadEbook(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Invalid multipart form: "+err.Error())
		return
	}

	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "File is required")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "Failed to read file: "+err.Error())
		return
	}

	var meta vector.IndexMetadata
	if raw := r.FormValue("metadata"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "Invalid metadata: "+err.Error())
			return
		}
	}

	res, err := s.indexer.Index(r.Context(), data, meta)
	if err != nil {
		s.logger.Warn("Ebook indexing failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "indexing_failed", "Indexing service unavailable")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// CacheStats handles GET /api/cache/stats.
func (s *Server) CacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.cache.Stats(r.Context()))
}

// ClearCache handles DELETE /api/cache/clear.
func (s *Server) ClearCache(w http.ResponseWriter, r *http.Request) {
	s.cache.ClearAll(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Cache cleared successfully",
	})
}

// HealthCheck handles GET /api/health. Always 200: the process can serve
// searches even with every optional dependency down.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	writeJSON(w, http.StatusOK, map[string]any{
		"status":    report.Status,
		"service":   "mebooks-ai",
		"checks":    report.Checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// queryFromRequest parses the search query string parameters.
func queryFromRequest(r *http.Request) (query.Query, error) {
	params := r.URL.Query()

	numResults, err := intParam(r, "num_results", 0)
	if err != nil {
		return query.Query{}, fmt.Errorf("%s: %w", err, domain.ErrInvalidQuery)
	}

	threshold := 0.0
	if raw := params.Get("similarity_threshold"); raw != "" {
		threshold, err = strconv.ParseFloat(raw, 64)
		if err != nil {
			return query.Query{}, fmt.Errorf("similarity_threshold must be a number: %w", domain.ErrInvalidQuery)
		}
	}

	f := filter.Filters{
		Categories:   params["category"],
		Complexities: params["complexity"],
		Authors:      params["author"],
		Frameworks:   params["framework"],
	}
	if f.MinPrice, err = priceParam(params.Get("min_price")); err != nil {
		return query.Query{}, err
	}
	if f.MaxPrice, err = priceParam(params.Get("max_price")); err != nil {
		return query.Query{}, err
	}

	semantic := params.Get("semantic") == "true"
	return query.New(params.Get("query"), f, numResults, threshold, semantic)
}

func priceParam(raw string) (*domain.Price, error) {
	if raw == "" {
		return nil, nil
	}
	p, err := domain.ParsePrice(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", err, domain.ErrInvalidQuery)
	}
	return &p, nil
}

func intParam(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("%s must be a non-negative integer", name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without
// exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidQuery,
		domain.ErrEbookNotFound,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// invalidQueryHandler maps a caller mistake to 400. The full error text is
// safe here: it only ever describes the caller's own parameters.
func invalidQueryHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrInvalidQuery) {
		return false
	}
	writeError(w, http.StatusBadRequest, "invalid_query", err.Error())
	return true
}

// searchUnavailableHandler maps a total search failure to 500 with a stable
// client-facing message.
func searchUnavailableHandler(w http.ResponseWriter, err error, _ string) bool {
	if !errors.Is(err, domain.ErrSearchUnavailable) {
		return false
	}
	writeError(w, http.StatusInternalServerError, "search_unavailable", "Search failed. Please try again.")
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
