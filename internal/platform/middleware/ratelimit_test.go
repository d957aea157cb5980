package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
)

func rateLimitedHandler(cfg RateLimitConfig) (echo.HandlerFunc, *echo.Echo) {
	e := echo.New()
	mw := RateLimit(cfg)
	return mw(func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}), e
}

func requestFrom(e *echo.Echo, remoteAddr string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = remoteAddr
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestRateLimit_WithinBurst(t *testing.T) {
	handler, e := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	for i := 0; i < 5; i++ {
		c, rec := requestFrom(e, "10.0.0.1:4000")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "10" {
			t.Errorf("request %d: expected X-RateLimit-Limit '10', got %q", i+1, got)
		}
	}
}

func TestRateLimit_ExceedsBurst(t *testing.T) {
	handler, e := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 2})

	for i := 0; i < 2; i++ {
		c, _ := requestFrom(e, "10.0.0.2:4000")
		if err := handler(c); err != nil {
			t.Fatalf("request %d: unexpected error: %v", i+1, err)
		}
	}

	c, rec := requestFrom(e, "10.0.0.2:4000")
	err := handler(c)
	if err == nil {
		t.Fatal("expected third request to be rejected")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %v", err)
	}

	retryAfter := rec.Header().Get("Retry-After")
	if v, err := strconv.Atoi(retryAfter); err != nil || v < 1 {
		t.Errorf("expected positive integer Retry-After, got %q", retryAfter)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("expected X-RateLimit-Remaining '0', got %q", got)
	}
}

func TestRateLimit_PerClientIsolation(t *testing.T) {
	handler, e := rateLimitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})

	c, _ := requestFrom(e, "10.0.0.3:4000")
	if err := handler(c); err != nil {
		t.Fatalf("first client: unexpected error: %v", err)
	}

	c, _ = requestFrom(e, "10.0.0.3:4000")
	if err := handler(c); err == nil {
		t.Fatal("first client: expected second request to be rejected")
	}

	// a different client IP gets its own bucket
	c, _ = requestFrom(e, "10.0.0.4:4000")
	if err := handler(c); err != nil {
		t.Fatalf("second client: unexpected error: %v", err)
	}
}

func TestTokenBucket_ZeroRefillRate(t *testing.T) {
	b := newTokenBucket(0, 1)
	b.allow()
	if ra := b.retryAfter(); ra != 1 {
		t.Errorf("expected retryAfter 1 for zero rate, got %d", ra)
	}
}

func TestRateLimiterStore_ReusesBuckets(t *testing.T) {
	store := newRateLimiterStore(RateLimitConfig{RequestsPerSecond: 10, BurstSize: 5})

	b1 := store.getBucket("10.0.0.5")
	if b1 == nil {
		t.Fatal("expected non-nil bucket")
	}
	if b2 := store.getBucket("10.0.0.5"); b1 != b2 {
		t.Error("expected same bucket instance for same key")
	}
	if b3 := store.getBucket("10.0.0.6"); b1 == b3 {
		t.Error("expected different bucket for different key")
	}
}
