package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
)

// limitedHandler wraps an OK handler with RateLimit and returns a function
// issuing one request per call for the given client header.
func limitedHandler(cfg RateLimitConfig) func(client string) (*httptest.ResponseRecorder, error) {
	e := echo.New()
	h := RateLimit(cfg)(func(c echo.Context) error {
		return c.NoContent(http.StatusNoContent)
	})
	return func(client string) (*httptest.ResponseRecorder, error) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/prescriptions", nil)
		req.Header.Set("X-Client", client)
		rec := httptest.NewRecorder()
		return rec, h(e.NewContext(req, rec))
	}
}

func clientHeader(c echo.Context) string {
	return c.Request().Header.Get("X-Client")
}

func TestRateLimit_BurstThenReject(t *testing.T) {
	call := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 3, KeyFunc: clientHeader})

	for i := 1; i <= 3; i++ {
		rec, err := call("patient-1")
		if err != nil {
			t.Fatalf("request %d: unexpected error %v", i, err)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "1" {
			t.Errorf("request %d: X-RateLimit-Limit = %q", i, got)
		}
	}

	rec, err := call("patient-1")
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 HTTPError, got %v", err)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	retry, convErr := strconv.Atoi(rec.Header().Get("Retry-After"))
	if convErr != nil || retry < 1 {
		t.Errorf("Retry-After = %q, want a positive integer", rec.Header().Get("Retry-After"))
	}
}

func TestRateLimit_BucketsAreIndependent(t *testing.T) {
	call := limitedHandler(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1, KeyFunc: clientHeader})

	steps := []struct {
		client  string
		limited bool
	}{
		{"user:a", false},
		{"user:a", true},
		{"user:b", false},
		{"ip:10.0.0.1", false},
		{"user:b", true},
	}
	for i, s := range steps {
		_, err := call(s.client)
		if limited := err != nil; limited != s.limited {
			t.Errorf("step %d (%s): limited = %v, want %v", i, s.client, limited, s.limited)
		}
	}
}

func TestRateLimit_DefaultKeyIsRealIP(t *testing.T) {
	e := echo.New()
	h := RateLimit(RateLimitConfig{RequestsPerSecond: 1, BurstSize: 1})(func(c echo.Context) error {
		return nil
	})
	from := func(ip string) error {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		return h(e.NewContext(req, httptest.NewRecorder()))
	}

	if err := from("192.0.2.1"); err != nil {
		t.Fatalf("first request: %v", err)
	}
	if err := from("192.0.2.2"); err != nil {
		t.Fatalf("other address should have its own bucket: %v", err)
	}
	if err := from("192.0.2.1"); err == nil {
		t.Fatal("expected repeat address to be limited")
	}
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()
	if cfg.RequestsPerSecond != 100 || cfg.BurstSize != 200 {
		t.Errorf("got %v rps / %d burst, want 100 / 200", cfg.RequestsPerSecond, cfg.BurstSize)
	}
	if cfg.KeyFunc != nil {
		t.Error("default KeyFunc should be nil so RealIP is used")
	}
}

func TestLimiterStore(t *testing.T) {
	t.Run("non-positive burst becomes one", func(t *testing.T) {
		s := newLimiterStore(RateLimitConfig{RequestsPerSecond: 5, BurstSize: 0})
		if s.burst != 1 {
			t.Errorf("burst = %d, want 1", s.burst)
		}
	})

	t.Run("same key same limiter", func(t *testing.T) {
		s := newLimiterStore(RateLimitConfig{RequestsPerSecond: 5, BurstSize: 2})
		if s.get("a") != s.get("a") {
			t.Error("expected the limiter to be reused")
		}
		if s.get("a") == s.get("b") {
			t.Error("expected distinct limiters per key")
		}
	})

	t.Run("zero rate retries after one second", func(t *testing.T) {
		s := newLimiterStore(RateLimitConfig{RequestsPerSecond: 0, BurstSize: 1})
		l := s.get("k")
		l.Allow()
		if got := s.retryAfterSeconds(l); got != 1 {
			t.Errorf("retryAfterSeconds = %d, want 1", got)
		}
	})

	t.Run("slow rate rounds up", func(t *testing.T) {
		s := newLimiterStore(RateLimitConfig{RequestsPerSecond: 0.25, BurstSize: 1})
		l := s.get("k")
		l.Allow()
		if got := s.retryAfterSeconds(l); got < 3 || got > 4 {
			t.Errorf("retryAfterSeconds = %d, want about 4", got)
		}
	})
}
