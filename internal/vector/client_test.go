package vector

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/mebooks-ai/mebooks/internal/domain"
	"github.com/mebooks-ai/mebooks/internal/domain/search/filter"
	"github.com/mebooks-ai/mebooks/internal/domain/search/query"
)

func testClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, zap.NewNop(), opts...), srv
}

func mustQuery(t *testing.T, text string) query.Query {
	t.Helper()
	q, err := query.New(text, filter.Filters{}, 10, 0.3, false)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}
	return q
}

// --- CheckHealth ---

func TestCheckHealth_Success(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
	}))

	if !c.CheckHealth(context.Background()) {
		t.Fatal("expected healthy")
	}
}

func TestCheckHealth_Non2xxIsUnavailable(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	if c.CheckHealth(context.Background()) {
		t.Fatal("503 must count as unavailable")
	}
}

func TestCheckHealth_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	if c.CheckHealth(context.Background()) {
		t.Fatal("connection failure must count as unavailable")
	}
}

func TestCheckHealth_TimeoutIsUnavailable(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}), WithHealthTimeout(20*time.Millisecond))

	if c.CheckHealth(context.Background()) {
		t.Fatal("timed-out probe must count as unavailable")
	}
}

func TestCheckHealth_CachesVerdict(t *testing.T) {
	var probes atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusOK)
	}), WithHealthTTL(time.Minute))

	for i := 0; i < 5; i++ {
		if !c.CheckHealth(context.Background()) {
			t.Fatal("expected healthy")
		}
	}
	if n := probes.Load(); n != 1 {
		t.Fatalf("expected 1 probe within TTL, got %d", n)
	}
}

func TestCheckHealth_FailedVerdictIsAlsoCached(t *testing.T) {
	var probes atomic.Int32
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		probes.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}), WithHealthTTL(time.Minute))

	for i := 0; i < 3; i++ {
		if c.CheckHealth(context.Background()) {
			t.Fatal("expected unavailable")
		}
	}
	if n := probes.Load(); n != 1 {
		t.Fatalf("expected 1 probe within TTL, got %d", n)
	}
}

// --- Search ---

func TestSearch_TranslatesWireShapes(t *testing.T) {
	var gotBody map[string]any
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/search/semantic" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`[
			{"ebook_id":"2","title":"Deep Learning with TensorFlow","similarity_score":0.87},
			{"id":"5","title":"Data Science with Python"}
		]`))
	}))

	results, err := c.Search(context.Background(), mustQuery(t, "machine learning"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotBody["query"] != "machine learning" {
		t.Errorf("query = %v", gotBody["query"])
	}
	if gotBody["num_results"] != float64(10) {
		t.Errorf("num_results = %v", gotBody["num_results"])
	}
	if gotBody["similarity_threshold"] != 0.3 {
		t.Errorf("similarity_threshold = %v", gotBody["similarity_threshold"])
	}
	if _, ok := gotBody["filters"]; ok {
		t.Error("empty filters must be omitted")
	}

	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].EbookID != "2" || results[0].SimilarityScore != 0.87 {
		t.Errorf("result 0 = %+v", results[0])
	}
	// The loose "id" spelling is normalized.
	if results[1].EbookID != "5" || results[1].SimilarityScore != 0 {
		t.Errorf("result 1 = %+v", results[1])
	}
	if results[1].RelevantChunks == nil || results[1].Keywords == nil {
		t.Error("normalized results must have non-nil slices")
	}
}

func TestSearch_SendsFilters(t *testing.T) {
	var gotBody struct {
		Filters *struct {
			Category []string `json:"category"`
			MaxPrice *float64 `json:"max_price"`
		} `json:"filters"`
	}
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`[]`))
	}))

	maxPrice := domain.MustParsePrice("49.99")
	q, err := query.New("nlp", filter.Filters{
		Categories: []string{"NLP"},
		MaxPrice:   &maxPrice,
	}, 0, 0, false)
	if err != nil {
		t.Fatalf("query.New: %v", err)
	}

	if _, err := c.Search(context.Background(), q); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gotBody.Filters == nil {
		t.Fatal("expected filters in request")
	}
	if len(gotBody.Filters.Category) != 1 || gotBody.Filters.Category[0] != "NLP" {
		t.Errorf("category = %v", gotBody.Filters.Category)
	}
	if gotBody.Filters.MaxPrice == nil || *gotBody.Filters.MaxPrice != 49.99 {
		t.Errorf("max_price = %v", gotBody.Filters.MaxPrice)
	}
}

func TestSearch_ServiceErrorOnBadStatus(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := c.Search(context.Background(), mustQuery(t, "q"))
	var se *ServiceError
	if !errors.As(err, &se) {
		t.Fatalf("expected *ServiceError, got %v", err)
	}
	if se.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", se.StatusCode)
	}
	if !IsServiceError(err) {
		t.Error("IsServiceError must report true")
	}
}

func TestSearch_ServiceErrorOnMalformedResponse(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{not json`))
	}))

	_, err := c.Search(context.Background(), mustQuery(t, "q"))
	if !IsServiceError(err) {
		t.Fatalf("expected service error, got %v", err)
	}
}

func TestSearch_TransportFailureMarksUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, zap.NewNop(), WithHealthTTL(time.Minute))
	if _, err := c.Search(context.Background(), mustQuery(t, "q")); !IsServiceError(err) {
		t.Fatalf("expected service error, got %v", err)
	}

	// The failed call's verdict must short-circuit the next health check
	// without a new probe (the server is closed, so a probe would also fail,
	// but cached() serving it proves no probe happened).
	if available, fresh := c.health.cached(time.Now()); !fresh || available {
		t.Error("transport failure must record an unavailable verdict")
	}
}

// --- Similar ---

func TestSimilar(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/ebooks/3/similar" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("num_results") != "5" {
			t.Errorf("num_results = %q", r.URL.Query().Get("num_results"))
		}
		_, _ = w.Write([]byte(`[{"ebook_id":"1","similarity_score":0.7}]`))
	}))

	results, err := c.Similar(context.Background(), "3", 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || results[0].EbookID != "1" {
		t.Errorf("results = %+v", results)
	}
}

// --- Status ---

func TestStatus_Unavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, zap.NewNop())
	st := c.Status(context.Background())
	if st.Available {
		t.Error("expected unavailable")
	}
	if st.URL != srv.URL {
		t.Errorf("url = %q", st.URL)
	}
}

func TestStatus_AvailableWithInfo(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/health":
			w.WriteHeader(http.StatusOK)
		case "/api/info":
			_, _ = w.Write([]byte(`{"version":"1.2.0","features":["semantic_search","similar_ebooks"]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
		}
	}))

	st := c.Status(context.Background())
	if !st.Available {
		t.Fatal("expected available")
	}
	if st.Version != "1.2.0" || len(st.Features) != 2 {
		t.Errorf("status = %+v", st)
	}
}

// --- Index ---

func TestIndex(t *testing.T) {
	c, _ := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		var meta IndexMetadata
		if err := json.Unmarshal([]byte(r.FormValue("metadata")), &meta); err != nil {
			t.Fatalf("parse metadata: %v", err)
		}
		if meta.Title != "New Book" {
			t.Errorf("title = %q", meta.Title)
		}
		_, _ = w.Write([]byte(`{"success":true,"ebook_id":"7"}`))
	}))

	res, err := c.Index(context.Background(), []byte("pdf bytes"), IndexMetadata{Title: "New Book"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.EbookID != "7" {
		t.Errorf("result = %+v", res)
	}
}
