package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	h := CORS([]string{"https://shop.example.com/"})(okHandler)

	req := httptest.NewRequest(http.MethodGet, "/api/widget", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "https://shop.example.com" {
		t.Fatalf("unexpected allow-origin %q", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/widget", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin, got %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"*"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/conversations", nil)
	req.Header.Set("Origin", "https://any.example.com")
	req.Header.Set("Access-Control-Request-Method", "POST")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code < 200 || rr.Code >= 300 {
		t.Fatalf("expected 2xx preflight, got %d", rr.Code)
	}
	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Fatalf("unexpected allow-origin %q", got)
	}
	if got := rr.Header().Get("Access-Control-Allow-Methods"); got != http.MethodPost {
		t.Fatalf("unexpected allow-methods %q", got)
	}
	if got := rr.Header().Get("Access-Control-Max-Age"); got != "600" {
		t.Fatalf("unexpected max-age %q", got)
	}
}

func TestCORSPreflightRejectsUnlistedMethod(t *testing.T) {
	h := CORS([]string{"https://shop.example.com"})(okHandler)

	req := httptest.NewRequest(http.MethodOptions, "/api/conversations", nil)
	req.Header.Set("Origin", "https://shop.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if got := rr.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("expected no allow-origin for PUT preflight, got %q", got)
	}
}

func TestRateLimiterRejectsBurstOverflow(t *testing.T) {
	limiter := NewRateLimiter(0.001, 2)
	h := limiter.Handler(okHandler)

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/conversations", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		codes = append(codes, rr.Code)
	}

	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Fatalf("unexpected status sequence %v", codes)
	}

	// Other clients have their own bucket.
	req := httptest.NewRequest(http.MethodPost, "/api/conversations", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected second client to pass, got %d", rr.Code)
	}
}

func TestRateLimiterEvictsIdleClientsPeriodically(t *testing.T) {
	limiter := NewRateLimiter(10, 10)
	clock := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return clock }

	limiter.Allow("10.0.0.1")
	limiter.Allow("10.0.0.2")

	// 距上次清理不足一分钟时不扫描。
	clock = clock.Add(30 * time.Second)
	limiter.Allow("10.0.0.3")
	if got := len(limiter.clients); got != 3 {
		t.Fatalf("expected 3 tracked clients, got %d", got)
	}

	clock = clock.Add(idleLimiterTTL + time.Second)
	limiter.Allow("10.0.0.3")
	if got := len(limiter.clients); got != 1 {
		t.Fatalf("expected idle clients evicted, got %d", got)
	}
	if _, ok := limiter.clients["10.0.0.3"]; !ok {
		t.Fatal("expected active client to be kept")
	}
}
