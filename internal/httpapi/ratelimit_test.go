package httpapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPLimiterBurstThenReject(t *testing.T) {
	l := newIPLimiter(60) // 1 rps, burst 5

	allowed := 0
	for i := 0; i < 20; i++ {
		if l.allow("10.0.0.1") {
			allowed++
		}
	}
	if allowed != limiterBurst {
		t.Fatalf("allowed = %d, want burst of %d", allowed, limiterBurst)
	}

	// A different client gets its own bucket.
	if !l.allow("10.0.0.2") {
		t.Fatal("fresh client should not be limited")
	}
}

func TestIPLimiterBoundedClients(t *testing.T) {
	l := newIPLimiter(60)
	for i := 0; i < maxTrackedClients+100; i++ {
		l.allow(string(rune(i)) + "-client")
	}
	l.mu.Lock()
	n := len(l.buckets)
	l.mu.Unlock()
	if n > maxTrackedClients {
		t.Fatalf("tracked %d clients, cap is %d", n, maxTrackedClients)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	l := newIPLimiter(60)
	handler := l.middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	var last int
	for i := 0; i < limiterBurst+1; i++ {
		req := httptest.NewRequest(http.MethodGet, "/api/sessions", nil)
		req.RemoteAddr = "192.0.2.7:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("request past the burst got %d, want 429", last)
	}
}
