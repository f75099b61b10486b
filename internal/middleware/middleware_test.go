package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/launchfoundry/appstack/internal/config"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestMetricsLabelsRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	r := chi.NewRouter()
	r.Use(m.Handler)
	r.Get("/items/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/items/a", "/items/b", "/items/c"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("GET %s: status = %d", path, rec.Code)
		}
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != "http_requests_total" {
			continue
		}
		if len(fam.GetMetric()) != 1 {
			t.Fatalf("series = %d, want 1 (parameterized requests must share a series)", len(fam.GetMetric()))
		}
		metric := fam.GetMetric()[0]
		found := false
		for _, label := range metric.GetLabel() {
			if label.GetName() == "path" {
				found = true
				if label.GetValue() != "/items/{id}" {
					t.Errorf("path label = %q, want /items/{id}", label.GetValue())
				}
			}
		}
		if !found {
			t.Error("path label missing")
		}
		if metric.GetCounter().GetValue() != 3 {
			t.Errorf("counter = %v, want 3", metric.GetCounter().GetValue())
		}
		return
	}
	t.Fatal("http_requests_total not gathered")
}

func TestMetricsFallsBackToRawPath(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg, "test")

	// Outside a chi router there is no route pattern to use.
	h := m.Handler(okHandler())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/plain", nil))

	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	for _, fam := range families {
		if fam.GetName() != "http_requests_total" {
			continue
		}
		for _, label := range fam.GetMetric()[0].GetLabel() {
			if label.GetName() == "path" && label.GetValue() != "/plain" {
				t.Errorf("path label = %q, want /plain", label.GetValue())
			}
		}
		return
	}
	t.Fatal("http_requests_total not gathered")
}

func TestRateLimiterBlocksAfterBurst(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitSettings{Enabled: true, RequestsPerSec: 1, Burst: 2}, nil)
	h := rl.Handler(okHandler())

	codes := []int{}
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK {
		t.Fatalf("first two requests = %v, want 200s", codes[:2])
	}
	if codes[2] != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", codes[2])
	}

	// A different client gets its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("fresh client = %d, want 200", rec.Code)
	}
}

func TestRateLimiterDisabledPassesThrough(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitSettings{Enabled: false, RequestsPerSec: 1, Burst: 1}, nil)
	h := rl.Handler(okHandler())

	for i := 0; i < 10; i++ {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d, want 200", i, rec.Code)
		}
	}
}

func TestRateLimiterCleanupEvictsIdleEntries(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitSettings{Enabled: true, RequestsPerSec: 1, Burst: 1}, nil)
	rl.getLimiter("stale")
	rl.getLimiter("fresh")

	rl.mu.Lock()
	rl.limiters["stale"].lastSeen = time.Now().Add(-time.Hour)
	rl.mu.Unlock()

	removed := rl.Cleanup(limiterIdleTTL)
	if removed != 1 {
		t.Fatalf("removed = %d, want 1", removed)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.limiters["stale"]; ok {
		t.Error("stale limiter should be evicted")
	}
	if _, ok := rl.limiters["fresh"]; !ok {
		t.Error("fresh limiter should survive cleanup")
	}
}

func TestRateLimiterLifecycle(t *testing.T) {
	rl := NewRateLimiter(config.RateLimitSettings{Enabled: true, RequestsPerSec: 1, Burst: 1}, nil)
	ctx := context.Background()
	if err := rl.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if err := rl.Stop(ctx); err != nil {
		t.Fatalf("Stop() error = %v", err)
	}
	// Stop is idempotent.
	if err := rl.Stop(ctx); err != nil {
		t.Fatalf("second Stop() error = %v", err)
	}
}

func TestTracingThreadsTraceIDThroughContext(t *testing.T) {
	m := NewTracingMiddleware(nil, false)

	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromRequest(r)
	}))

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if seen != "trace-123" {
		t.Errorf("context trace ID = %q, want trace-123", seen)
	}
	if got := rec.Header().Get("X-Trace-ID"); got != "trace-123" {
		t.Errorf("response header = %q, want trace-123", got)
	}
}

func TestTracingGeneratesTraceID(t *testing.T) {
	m := NewTracingMiddleware(nil, false)

	var seen string
	h := m.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = TraceIDFromRequest(r)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	if seen == "" {
		t.Fatal("trace ID missing from context")
	}
	if got := rec.Header().Get("X-Trace-ID"); got != seen {
		t.Errorf("response header = %q, want %q", got, seen)
	}
}
