// Package vector is the HTTP client for the external semantic search
// service. The service is a black box: this package owns the wire shape
// translation and the availability state machine, nothing else.
package vector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/mebooks-ai/mebooks/internal/domain/search/filter"
	"github.com/mebooks-ai/mebooks/internal/domain/search/query"
	"github.com/mebooks-ai/mebooks/internal/domain/search/result"
	"github.com/mebooks-ai/mebooks/internal/metrics"
)

const (
	defaultHealthTimeout  = 5 * time.Second
	defaultHealthTTL      = time.Minute
	defaultRequestTimeout = 30 * time.Second
)

// Status describes the service's availability and advertised capabilities.
type Status struct {
	Available bool     `json:"available"`
	URL       string   `json:"url"`
	Version   string   `json:"version,omitempty"`
	Features  []string `json:"features,omitempty"`
}

// IndexMetadata accompanies an ebook file submitted for indexing.
type IndexMetadata struct {
	Title       string   `json:"title"`
	Author      string   `json:"author"`
	Category    string   `json:"category"`
	Complexity  string   `json:"complexity"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
}

// IndexResult is the service's response to an indexing request.
type IndexResult struct {
	Success bool   `json:"success"`
	EbookID string `json:"ebook_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Client talks to the semantic search service.
type Client struct {
	baseURL       string
	httpClient    *http.Client
	health        *healthTracker
	healthTimeout time.Duration
	logger        *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithHealthTTL sets how long a health verdict is cached.
func WithHealthTTL(ttl time.Duration) Option {
	return func(c *Client) { c.health = newHealthTracker(ttl) }
}

// WithHealthTimeout bounds the health probe.
func WithHealthTimeout(d time.Duration) Option {
	return func(c *Client) { c.healthTimeout = d }
}

// NewClient creates a semantic search client.
func NewClient(baseURL string, logger *zap.Logger, opts ...Option) *Client {
	c := &Client{
		baseURL:       baseURL,
		httpClient:    &http.Client{Timeout: defaultRequestTimeout},
		health:        newHealthTracker(defaultHealthTTL),
		healthTimeout: defaultHealthTimeout,
		logger:        logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured service URL.
func (c *Client) BaseURL() string { return c.baseURL }

// CheckHealth reports service availability. A fresh cached verdict is served
// without probing; otherwise a bounded GET /health decides. Timeouts and
// connection failures count as unavailable.
func (c *Client) CheckHealth(ctx context.Context) bool {
	now := time.Now()
	if available, fresh := c.health.cached(now); fresh {
		return available
	}

	c.health.begin()
	available := c.probe(ctx)
	c.health.record(available, time.Now())
	return available
}

func (c *Client) probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, c.healthTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return false
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.VectorRequestDuration.WithLabelValues("health", "error").Observe(time.Since(start).Seconds())
		c.logger.Warn("Vector search service not available", zap.Error(err))
		return false
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	metrics.VectorRequestDuration.
		WithLabelValues("health", strconv.Itoa(resp.StatusCode)).
		Observe(time.Since(start).Seconds())
	return resp.StatusCode >= 200 && resp.StatusCode < 300
}

// searchRequest is the service's expected POST body.
type searchRequest struct {
	Query               string       `json:"query"`
	Filters             *wireFilters `json:"filters,omitempty"`
	NumResults          int          `json:"num_results,omitempty"`
	SimilarityThreshold float64      `json:"similarity_threshold,omitempty"`
}

type wireFilters struct {
	Category   []string `json:"category,omitempty"`
	Complexity []string `json:"complexity,omitempty"`
	Author     []string `json:"author,omitempty"`
	Framework  []string `json:"framework,omitempty"`
	MinPrice   *float64 `json:"min_price,omitempty"`
	MaxPrice   *float64 `json:"max_price,omitempty"`
}

// Search runs a semantic search. Transport and parse failures surface as a
// *ServiceError; a transport failure additionally marks the service
// unavailable so the next request within the health TTL skips it.
func (c *Client) Search(ctx context.Context, q query.Query) ([]result.Result, error) {
	body := searchRequest{
		Query:               q.Text(),
		Filters:             filtersToWire(q.Filters()),
		NumResults:          q.NumResults(),
		SimilarityThreshold: q.SimilarityThreshold(),
	}

	var raws []result.Raw
	if err := c.postJSON(ctx, "semantic_search", "/api/search/semantic", body, &raws); err != nil {
		return nil, err
	}
	return result.NormalizeAll(raws), nil
}

// Similar returns ebooks similar to the given one, in service ranking order.
func (c *Client) Similar(ctx context.Context, ebookID string, numResults int) ([]result.Result, error) {
	path := fmt.Sprintf("/api/ebooks/%s/similar?num_results=%d", ebookID, numResults)

	var raws []result.Raw
	if err := c.getJSON(ctx, "similar", path, &raws); err != nil {
		return nil, err
	}
	return result.NormalizeAll(raws), nil
}

// Index submits an ebook file for vector indexing. Best-effort: callers
// treat failures as non-fatal.
func (c *Client) Index(ctx context.Context, file []byte, meta IndexMetadata) (IndexResult, error) {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return IndexResult{}, fmt.Errorf("encode metadata: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", meta.Title+".pdf")
	if err != nil {
		return IndexResult{}, fmt.Errorf("build form: %w", err)
	}
	if _, err := fw.Write(file); err != nil {
		return IndexResult{}, fmt.Errorf("build form: %w", err)
	}
	if err := mw.WriteField("metadata", string(metaJSON)); err != nil {
		return IndexResult{}, fmt.Errorf("build form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return IndexResult{}, fmt.Errorf("build form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/ebooks/upload", &buf)
	if err != nil {
		return IndexResult{}, &ServiceError{Op: "index", Err: err}
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out IndexResult
	if err := c.do(req, "index", &out); err != nil {
		return IndexResult{}, err
	}
	return out, nil
}

// Info returns the service's advertised version and features.
func (c *Client) Info(ctx context.Context) (version string, features []string, err error) {
	var info struct {
		Version  string   `json:"version"`
		Features []string `json:"features"`
	}
	if err := c.getJSON(ctx, "info", "/api/info", &info); err != nil {
		return "", nil, err
	}
	return info.Version, info.Features, nil
}

// Status probes the service and assembles the status report. An available
// service with an unreachable info endpoint still reports available.
func (c *Client) Status(ctx context.Context) Status {
	st := Status{URL: c.baseURL}
	if !c.CheckHealth(ctx) {
		return st
	}

	st.Available = true
	if version, features, err := c.Info(ctx); err == nil {
		st.Version = version
		st.Features = features
	}
	return st
}

func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	return c.do(req, op, out)
}

func (c *Client) postJSON(ctx context.Context, op, path string, body, out any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, op, out)
}

func (c *Client) do(req *http.Request, op string, out any) error {
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.VectorRequestDuration.WithLabelValues(op, "error").Observe(time.Since(start).Seconds())
		// A dead transport means the next health check should not be trusted
		// to a stale Available verdict.
		c.health.record(false, time.Now())
		return &ServiceError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	metrics.VectorRequestDuration.
		WithLabelValues(op, strconv.Itoa(resp.StatusCode)).
		Observe(time.Since(start).Seconds())
	if err != nil {
		return &ServiceError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &ServiceError{Op: op, StatusCode: resp.StatusCode}
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return &ServiceError{Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
	}
	return nil
}

func filtersToWire(f filter.Filters) *wireFilters {
	if f.IsEmpty() {
		return nil
	}

	wf := &wireFilters{
		Category:   f.Categories,
		Complexity: f.Complexities,
		Author:     f.Authors,
		Framework:  f.Frameworks,
	}
	if f.MinPrice != nil {
		v := float64(*f.MinPrice) / 100
		wf.MinPrice = &v
	}
	if f.MaxPrice != nil {
		v := float64(*f.MaxPrice) / 100
		wf.MaxPrice = &v
	}
	return wf
}
