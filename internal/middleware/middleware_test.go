package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/iliyamo/movie-watchlist/internal/config"
	"github.com/iliyamo/movie-watchlist/internal/service"
)

type stubAuth struct {
	id  service.Identity
	err error
}

func (s stubAuth) Authenticate(context.Context, string) (service.Identity, error) {
	return s.id, s.err
}

func whoAmI(c echo.Context) error {
	return c.String(http.StatusOK, userID(c))
}

func serve(e *echo.Echo, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionSetsIdentity(t *testing.T) {
	e := echo.New()
	e.Use(Session(stubAuth{id: service.Identity{UserID: 7, Email: "a@x.com"}}, false, zap.NewNop()))
	e.GET("/", whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
	rec := serve(e, req)
	if rec.Body.String() != "7" {
		t.Fatalf("body = %q, want 7", rec.Body.String())
	}

	rec = serve(e, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Body.String() != "guest" {
		t.Fatalf("body without cookie = %q, want guest", rec.Body.String())
	}
}

func TestSessionClearsInvalidCookie(t *testing.T) {
	e := echo.New()
	e.Use(Session(stubAuth{err: service.ErrUnauthenticated}, false, zap.NewNop()))
	e.GET("/", whoAmI)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "stale"})
	rec := serve(e, req)

	if rec.Code != http.StatusOK || rec.Body.String() != "guest" {
		t.Fatalf("got %d %q, want 200 guest", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), SessionCookieName+"=;") {
		t.Fatalf("Set-Cookie = %q, want cleared session cookie", rec.Header().Get("Set-Cookie"))
	}
}

func TestRequireAuthAndAnonymousOnly(t *testing.T) {
	e := echo.New()
	e.Use(Session(stubAuth{id: service.Identity{UserID: 1}}, false, zap.NewNop()))
	e.GET("/index", whoAmI, RequireAuth())
	e.GET("/auth/login", whoAmI, AnonymousOnly())

	rec := serve(e, httptest.NewRequest(http.MethodGet, "/index", nil))
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/auth/login" {
		t.Fatalf("anonymous /index = %d %q, want 302 /auth/login", rec.Code, rec.Header().Get("Location"))
	}

	req := httptest.NewRequest(http.MethodGet, "/auth/login", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "token"})
	rec = serve(e, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/index" {
		t.Fatalf("logged-in /auth/login = %d %q, want 302 /index", rec.Code, rec.Header().Get("Location"))
	}
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Take(_ context.Context, key string) (bool, int64, time.Duration, error) {
	s.keys = append(s.keys, key)
	return s.allow, 0, 1500 * time.Millisecond, s.err
}

func TestRateLimit(t *testing.T) {
	cfg := config.RateLimitConfig{Enabled: true, Capacity: 10, KeyStrategy: "ip_route", Prefix: "rl"}

	tests := []struct {
		name       string
		lim        *stubLimiter
		wantStatus int
	}{
		{"allowed", &stubLimiter{allow: true}, http.StatusOK},
		{"blocked", &stubLimiter{allow: false}, http.StatusTooManyRequests},
		{"redis down", &stubLimiter{err: errors.New("dial tcp: refused")}, http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.POST("/auth/login", whoAmI, RateLimit(cfg, tt.lim, zap.NewNop()))

			req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
			req.Header.Set(echo.HeaderXRealIP, "10.0.0.1")
			rec := serve(e, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if len(tt.lim.keys) != 1 || tt.lim.keys[0] != "rl:ip:10.0.0.1:route:POST /auth/login" {
				t.Fatalf("keys = %v", tt.lim.keys)
			}
			if tt.wantStatus == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "2" {
				t.Fatalf("Retry-After = %q, want 2", rec.Header().Get("Retry-After"))
			}
		})
	}
}

func TestRateLimitDisabled(t *testing.T) {
	lim := &stubLimiter{}
	e := echo.New()
	e.POST("/auth/login", whoAmI, RateLimit(config.RateLimitConfig{Enabled: false}, lim, zap.NewNop()))

	rec := serve(e, httptest.NewRequest(http.MethodPost, "/auth/login", nil))
	if rec.Code != http.StatusOK || len(lim.keys) != 0 {
		t.Fatalf("disabled limiter ran: %d %v", rec.Code, lim.keys)
	}
}

func TestAccessLog(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	e := echo.New()
	e.Use(AccessLog(zap.New(core)))
	e.GET("/missing", func(c echo.Context) error { return echo.ErrNotFound })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	rec := serve(e, req)

	if rec.Header().Get(RequestIDHeader) != "req-1" {
		t.Fatalf("request id = %q, want req-1", rec.Header().Get(RequestIDHeader))
	}
	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["status"] != int64(http.StatusNotFound) || fields["request_id"] != "req-1" || fields["user"] != "guest" {
		t.Fatalf("fields = %v", fields)
	}
}
