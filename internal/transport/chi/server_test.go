package chi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/mebooks-ai/mebooks/internal/cache"
	"github.com/mebooks-ai/mebooks/internal/catalog"
	"github.com/mebooks-ai/mebooks/internal/domain/search/query"
	"github.com/mebooks-ai/mebooks/internal/domain/search/result"
	healthuc "github.com/mebooks-ai/mebooks/internal/usecase/health"
	insightuc "github.com/mebooks-ai/mebooks/internal/usecase/insight"
	searchuc "github.com/mebooks-ai/mebooks/internal/usecase/search"
	"github.com/mebooks-ai/mebooks/internal/vector"
)

// --- Mocks ---

type stubSemantic struct {
	healthy bool
	results []result.Result
	err     error
}

func (s *stubSemantic) CheckHealth(_ context.Context) bool { return s.healthy }

func (s *stubSemantic) Search(_ context.Context, _ query.Query) ([]result.Result, error) {
	return s.results, s.err
}

func (s *stubSemantic) Similar(_ context.Context, _ string, _ int) ([]result.Result, error) {
	return s.results, s.err
}

func (s *stubSemantic) Status(_ context.Context) vector.Status {
	return vector.Status{Available: s.healthy, URL: "http://vector:8000"}
}

type stubIndexer struct {
	result vector.IndexResult
	err    error
}

func (s *stubIndexer) Index(_ context.Context, _ []byte, _ vector.IndexMetadata) (vector.IndexResult, error) {
	return s.result, s.err
}

func newTestServer(t *testing.T, sem *stubSemantic, idx Indexer) *httptest.Server {
	t.Helper()

	logger := zap.NewNop()
	c := cache.New(nil, "mebooks:", nil, logger)
	ebooks := catalog.New()
	searchSvc := searchuc.NewService(c, sem, ebooks, logger)
	insightSvc := insightuc.NewService(nil, logger)
	healthSvc := healthuc.New(nil, sem)

	srv := NewServer(searchSvc, insightSvc, healthSvc, ebooks, c, idx, logger)
	r := chi.NewRouter()
	srv.Routes(r)

	ts := httptest.NewServer(r)
	t.Cleanup(ts.Close)
	return ts
}

func getJSON(t *testing.T, url string, wantStatus int, out any) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != wantStatus {
		t.Fatalf("GET %s: status = %d, want %d", url, resp.StatusCode, wantStatus)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("GET %s: decode: %v", url, err)
		}
	}
}

// --- Tests ---

func TestSearch_KeywordFallback(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{healthy: false}, &stubIndexer{})

	var got struct {
		Query   string          `json:"query"`
		Results []result.Result `json:"results"`
		Count   int             `json:"count"`
		Source  string          `json:"source"`
		Cached  bool            `json:"cached"`
	}
	getJSON(t, ts.URL+"/api/search?query=machine+learning", http.StatusOK, &got)

	if got.Source != "keyword" {
		t.Errorf("source = %q, want keyword", got.Source)
	}
	if got.Count == 0 || got.Count != len(got.Results) {
		t.Errorf("count = %d, results = %d", got.Count, len(got.Results))
	}
}

func TestSearch_SemanticPath(t *testing.T) {
	sem := &stubSemantic{
		healthy: true,
		results: []result.Result{{EbookID: "2", Title: "Deep Learning with TensorFlow", SimilarityScore: 0.87}},
	}
	ts := newTestServer(t, sem, &stubIndexer{})

	var got struct {
		Source   string          `json:"source"`
		Results  []result.Result `json:"results"`
		Semantic bool            `json:"semantic_search_used"`
	}
	getJSON(t, ts.URL+"/api/search?query=neural+networks", http.StatusOK, &got)

	if got.Source != "semantic" || !got.Semantic {
		t.Errorf("source = %q, semantic_search_used = %v", got.Source, got.Semantic)
	}
	if len(got.Results) != 1 || got.Results[0].EbookID != "2" {
		t.Errorf("results = %+v", got.Results)
	}
}

func TestSearch_MissingQuery(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{})

	var got errorResponse
	getJSON(t, ts.URL+"/api/search", http.StatusBadRequest, &got)
	if got.Code != "invalid_query" {
		t.Errorf("code = %q", got.Code)
	}
}

func TestSearch_InvalidParams(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{})

	for _, u := range []string{
		"/api/search?query=q&similarity_threshold=abc",
		"/api/search?query=q&similarity_threshold=1.5",
		"/api/search?query=q&num_results=-1",
		"/api/search?query=q&min_price=abc",
	} {
		resp, err := http.Get(ts.URL + u)
		if err != nil {
			t.Fatalf("GET %s: %v", u, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("GET %s: status = %d, want 400", u, resp.StatusCode)
		}
	}
}

func TestSearch_WhitespaceQueryBrowsesAll(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{healthy: false}, &stubIndexer{})

	var got struct {
		Count int `json:"count"`
	}
	getJSON(t, ts.URL+"/api/search?query=+++", http.StatusOK, &got)
	if got.Count != 6 {
		t.Errorf("count = %d, want the full collection", got.Count)
	}
}

func TestListEbooks(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{})

	var got []json.RawMessage
	getJSON(t, ts.URL+"/api/ebooks", http.StatusOK, &got)
	if len(got) != 6 {
		t.Errorf("expected 6 ebooks, got %d", len(got))
	}
}

func TestGetEbook(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{})

	var got struct {
		ID    string `json:"id"`
		Title string `json:"title"`
		Price string `json:"price"`
	}
	getJSON(t, ts.URL+"/api/ebooks/2", http.StatusOK, &got)
	if got.Title != "Deep Learning with TensorFlow" {
		t.Errorf("title = %q", got.Title)
	}
	if got.Price != "49.99" {
		t.Errorf("price = %q", got.Price)
	}

	var notFound errorResponse
	getJSON(t, ts.URL+"/api/ebooks/99", http.StatusNotFound, &notFound)
	if notFound.Code != "ebook_not_found" {
		t.Errorf("code = %q", notFound.Code)
	}
}

func TestSimilarEbooks(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{healthy: false}, &stubIndexer{})

	var got []result.Result
	getJSON(t, ts.URL+"/api/ebooks/1/similar?num_results=3", http.StatusOK, &got)
	// Fallback is same-category; the seed catalog has no second ML ebook,
	// so an empty list is valid — the endpoint must still be 200.

	resp, err := http.Get(ts.URL + "/api/ebooks/99/similar")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown ebook: status = %d, want 404", resp.StatusCode)
	}
}

func TestSearchStatus(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{healthy: false}, &stubIndexer{})

	var got struct {
		Available    bool   `json:"semantic_search_available"`
		ServiceURL   string `json:"service_url"`
		FallbackMode string `json:"fallback_mode"`
	}
	getJSON(t, ts.URL+"/api/search/status", http.StatusOK, &got)
	if got.Available {
		t.Error("expected unavailable")
	}
	if got.FallbackMode != "keyword" {
		t.Errorf("fallback_mode = %q", got.FallbackMode)
	}
}

func TestAnalyzeQuery(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{})

	var got struct {
		Topics []string `json:"ebook_topics"`
	}
	getJSON(t, ts.URL+"/api/search/analyze?query=pytorch", http.StatusOK, &got)
	if len(got.Topics) != 1 || got.Topics[0] != "pytorch" {
		t.Errorf("topics = %v", got.Topics)
	}

	resp, err := http.Get(ts.URL + "/api/search/analyze")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("missing query: status = %d, want 400", resp.StatusCode)
	}
}

func TestCacheStats(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{})

	var got cache.Stats
	getJSON(t, ts.URL+"/api/cache/stats", http.StatusOK, &got)
	if got.Connected {
		t.Error("nil-store cache must report disconnected")
	}
}

func TestClearCache(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{})

	req, err := http.NewRequest(http.MethodDelete, ts.URL+"/api/cache/clear", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.Message != "Cache cleared successfully" {
		t.Errorf("body = %+v", got)
	}
}

func TestHealthCheck_Always200(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{healthy: false}, &stubIndexer{})

	var got struct {
		Status  string `json:"status"`
		Service string `json:"service"`
	}
	getJSON(t, ts.URL+"/api/health", http.StatusOK, &got)
	if got.Service != "mebooks-ai" {
		t.Errorf("service = %q", got.Service)
	}
	if got.Status != string(healthuc.Degraded) {
		t.Errorf("status = %q, want degraded with vector down", got.Status)
	}
}

func TestUploadEbook(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{
		result: vector.IndexResult{Success: true, EbookID: "7"},
	})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "book.pdf")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("pdf bytes")); err != nil {
		t.Fatal(err)
	}
	if err := mw.WriteField("metadata", `{"title":"New Book"}`); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	resp, err := http.Post(ts.URL+"/api/ebooks/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}

	var got vector.IndexResult
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if !got.Success || got.EbookID != "7" {
		t.Errorf("result = %+v", got)
	}
}

func TestUploadEbook_IndexerDown(t *testing.T) {
	ts := newTestServer(t, &stubSemantic{}, &stubIndexer{err: errors.New("connection refused")})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, _ := mw.CreateFormFile("file", "book.pdf")
	_, _ = fw.Write([]byte("x"))
	_ = mw.Close()

	resp, err := http.Post(ts.URL+"/api/ebooks/upload", mw.FormDataContentType(), &buf)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", resp.StatusCode)
	}
}
