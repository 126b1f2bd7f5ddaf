package httpapi

import (
	"net/http"
	"net/http/httptest"
	"runtime"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestIDAssignsAndEchoes(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if seen == "" {
		t.Fatal("request id not available in context")
	}
	if rec.Header().Get("X-Request-Id") != seen {
		t.Fatalf("header %q does not match context id %q", rec.Header().Get("X-Request-Id"), seen)
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-Id", "client-supplied")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if seen != "client-supplied" {
		t.Fatalf("client-supplied id discarded, got %q", seen)
	}
}

func TestSecurityHeaders(t *testing.T) {
	rec := httptest.NewRecorder()
	SecurityHeaders(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	for header, want := range map[string]string{
		"X-Content-Type-Options": "nosniff",
		"X-Frame-Options":        "DENY",
		"Referrer-Policy":        "no-referrer",
	} {
		if got := rec.Header().Get(header); got != want {
			t.Fatalf("%s = %q, want %q", header, got, want)
		}
	}
}

func TestCORSAllowList(t *testing.T) {
	h := CORS(okHandler(), []string{"https://blog.example.com"}, false)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "https://blog.example.com" {
		t.Fatalf("allowed origin not reflected: %q", rec.Header().Get("Access-Control-Allow-Origin"))
	}
	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Fatal("credentials must be allowed for the cookie flow")
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Fatal("Vary: Origin missing on allowed origin")
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unlisted origin must not be reflected")
	}
	// Denials vary by Origin too, or a shared cache could serve a
	// denied response to an allowed origin and vice versa.
	if rec.Header().Get("Vary") != "Origin" {
		t.Fatal("Vary: Origin missing on denied origin")
	}

	// Preflight short-circuits.
	req = httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://blog.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("preflight status %d", rec.Code)
	}
}

func TestCORSLocalOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "http://localhost:3000")

	rec := httptest.NewRecorder()
	CORS(okHandler(), nil, true).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "http://localhost:3000" {
		t.Fatal("localhost origins are allowed in development")
	}

	// Outside development the allow list is the only authority.
	rec = httptest.NewRecorder()
	CORS(okHandler(), nil, false).ServeHTTP(rec, req)
	if rec.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("localhost origin must not bypass the allow list in production")
	}
}

func TestRateLimitReturns429(t *testing.T) {
	h := RateLimit(okHandler(), 2, 1)
	for i := 0; i < 2; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i, rec.Code)
		}
	}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}

	// A different client keeps its own bucket.
	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("second client: status %d", rec.Code)
	}
}

func TestIPBucketsSweepStaleEntries(t *testing.T) {
	b := newIPBuckets()
	b.limiter("10.0.0.1", 1, 1)
	b.limiter("10.0.0.2", 1, 1)

	b.mu.Lock()
	b.buckets["10.0.0.1"].ts = time.Now().Add(-2 * bucketTTL)
	b.lastSweep = time.Now().Add(-2 * bucketSweepEvery)
	b.mu.Unlock()

	b.limiter("10.0.0.3", 1, 1)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.buckets["10.0.0.1"]; ok {
		t.Fatal("stale bucket not swept")
	}
	if _, ok := b.buckets["10.0.0.2"]; !ok {
		t.Fatal("fresh bucket swept")
	}
	if _, ok := b.buckets["10.0.0.3"]; !ok {
		t.Fatal("new bucket missing after sweep")
	}
}

func TestRateLimitSpawnsNoGoroutines(t *testing.T) {
	before := runtime.NumGoroutine()
	for i := 0; i < 50; i++ {
		_ = RateLimit(okHandler(), 1, 1)
		_ = LoginRateLimit(okHandler(), 1, 1)
	}
	if after := runtime.NumGoroutine(); after > before+2 {
		t.Fatalf("goroutines grew from %d to %d", before, after)
	}
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:5555"
	if got := clientIP(req); got != "192.0.2.1" {
		t.Fatalf("clientIP = %q", got)
	}
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 192.0.2.1")
	if got := clientIP(req); got != "203.0.113.7" {
		t.Fatalf("clientIP with XFF = %q", got)
	}
}
