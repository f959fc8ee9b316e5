package health

import (
	"context"
	"errors"
	"testing"
)

// --- Mocks ---

type mockCachePinger struct {
	err error
}

func (m *mockCachePinger) Ping(_ context.Context) error { return m.err }

type mockVectorChecker struct {
	healthy bool
}

func (m *mockVectorChecker) CheckHealth(_ context.Context) bool { return m.healthy }

// --- Tests ---

func TestCheck_AllHealthy(t *testing.T) {
	svc := New(&mockCachePinger{}, &mockVectorChecker{healthy: true})
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if r.Checks["cache"] != CheckOK {
		t.Errorf("expected cache %q, got %q", CheckOK, r.Checks["cache"])
	}
	if r.Checks["vector_search"] != CheckOK {
		t.Errorf("expected vector_search %q, got %q", CheckOK, r.Checks["vector_search"])
	}
}

func TestCheck_CacheDown(t *testing.T) {
	svc := New(&mockCachePinger{err: errors.New("connection refused")}, &mockVectorChecker{healthy: true})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["cache"] != CheckError {
		t.Errorf("expected cache %q, got %q", CheckError, r.Checks["cache"])
	}
}

func TestCheck_VectorDown(t *testing.T) {
	svc := New(&mockCachePinger{}, &mockVectorChecker{healthy: false})
	r := svc.Check(context.Background())

	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks["vector_search"] != CheckError {
		t.Errorf("expected vector_search %q, got %q", CheckError, r.Checks["vector_search"])
	}
}

func TestCheck_NilDependencies(t *testing.T) {
	svc := New(nil, nil)
	r := svc.Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q with no checks, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 0 {
		t.Errorf("expected no checks, got %v", r.Checks)
	}
}
