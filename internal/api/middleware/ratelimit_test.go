package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/propnest/marketplace/internal/core/domain"
)

func TestRateLimiter_BurstThenReject(t *testing.T) {
	l := NewRateLimiter(1, 2)
	fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	for i := 0; i < 2; i++ {
		if !l.allow("k") {
			t.Fatalf("request %d should pass", i)
		}
	}
	if l.allow("k") {
		t.Fatalf("third request should be limited")
	}
	if !l.allow("other") {
		t.Fatalf("separate key should have its own bucket")
	}

	fixed = fixed.Add(time.Second)
	if !l.allow("k") {
		t.Fatalf("bucket should refill")
	}
}

func TestRateLimiter_KeysByPrincipal(t *testing.T) {
	l := NewRateLimiter(0.001, 1)
	e := echo.New()
	mw := l.Middleware()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })

	do := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		c.Set(ctxPrincipal, &domain.Principal{ID: userID})
		if err := mw(c); err != nil {
			e.HTTPErrorHandler(err, c)
		}
		return rec.Code
	}

	if code := do("u1"); code != http.StatusOK {
		t.Fatalf("first u1 = %d", code)
	}
	if code := do("u1"); code != http.StatusTooManyRequests {
		t.Fatalf("second u1 = %d, want 429", code)
	}
	if code := do("u2"); code != http.StatusOK {
		t.Fatalf("first u2 = %d", code)
	}
}
