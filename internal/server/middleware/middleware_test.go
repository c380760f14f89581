package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/tradedash/internal/auth"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
)

func quiet() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id %q is not a uuid", seen)
	}
	if rec.Header().Get(RequestIDHeader) != seen {
		t.Errorf("response header = %q, want %q", rec.Header().Get(RequestIDHeader), seen)
	}

	incoming := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, incoming)
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen != incoming {
		t.Errorf("incoming id not reused: %q", seen)
	}

	req.Header.Set(RequestIDHeader, "<script>")
	h.ServeHTTP(httptest.NewRecorder(), req)
	if seen == "<script>" {
		t.Error("malformed incoming id reused")
	}
}

func TestEnvironmentMiddleware(t *testing.T) {
	var got domain.Environment
	h := Environment(environment.NewResolver(domain.EnvironmentStaging))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = environment.FromContext(r.Context())
	}))

	for cookie, want := range map[string]domain.Environment{
		"production": domain.EnvironmentProduction,
		"staging":    domain.EnvironmentStaging,
		"PRODUCTION": domain.EnvironmentStaging,
		"dev":        domain.EnvironmentStaging,
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: environment.CookieName, Value: cookie})
		h.ServeHTTP(httptest.NewRecorder(), req)
		if got != want {
			t.Errorf("cookie %q: env = %q, want %q", cookie, got, want)
		}
	}
}

type fakeAuth struct {
	claims    *auth.Claims
	refreshed *auth.Session
	err       error
}

func (f fakeAuth) Authenticate(context.Context, domain.Environment, string, string) (*auth.Claims, *auth.Session, error) {
	return f.claims, f.refreshed, f.err
}

func gate(a Authenticator) http.Handler {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, ok := auth.UserFromContext(r.Context()); ok {
			w.Header().Set("X-User", c.Email)
		}
		w.WriteHeader(http.StatusOK)
	})
	return Environment(environment.NewResolver(domain.EnvironmentStaging))(Session(a, false, quiet())(inner))
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: auth.AccessCookieName(domain.EnvironmentStaging), Value: "token"})
	return req
}

func TestSessionGateAnonymous(t *testing.T) {
	h := gate(fakeAuth{})
	tests := []struct {
		path     string
		status   int
		location string
	}{
		{"/api/health", http.StatusOK, ""},
		{"/login", http.StatusOK, ""},
		{"/auth/callback", http.StatusOK, ""},
		{"/static/app.css", http.StatusOK, ""},
		{"/", http.StatusSeeOther, "/login"},
		{"/api/positions", http.StatusSeeOther, "/login?next=%2Fapi%2Fpositions"},
		{"/journal?symbol=btc", http.StatusSeeOther, "/login?next=%2Fjournal%3Fsymbol%3Dbtc"},
		{"/loginx", http.StatusSeeOther, "/login?next=%2Floginx"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
		if rec.Code != tt.status {
			t.Errorf("%s: status = %d, want %d", tt.path, rec.Code, tt.status)
		}
		if got := rec.Header().Get("Location"); got != tt.location {
			t.Errorf("%s: location = %q, want %q", tt.path, got, tt.location)
		}
	}
}

func TestSessionGateAuthenticated(t *testing.T) {
	h := gate(fakeAuth{claims: &auth.Claims{Email: "ops@example.com"}})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/positions", nil)))
	if rec.Code != http.StatusOK || rec.Header().Get("X-User") != "ops@example.com" {
		t.Errorf("status %d user %q", rec.Code, rec.Header().Get("X-User"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/login", nil)))
	if rec.Code != http.StatusSeeOther || rec.Header().Get("Location") != "/" {
		t.Errorf("/login while signed in: %d %q", rec.Code, rec.Header().Get("Location"))
	}
}

func TestSessionGateRefreshWritesCookies(t *testing.T) {
	h := gate(fakeAuth{
		claims:    &auth.Claims{Email: "ops@example.com"},
		refreshed: &auth.Session{AccessToken: "new-access", RefreshToken: "new-refresh", ExpiresIn: 3600},
	})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/", nil)))

	cookies := map[string]string{}
	for _, c := range rec.Result().Cookies() {
		cookies[c.Name] = c.Value
	}
	if cookies[auth.AccessCookieName(domain.EnvironmentStaging)] != "new-access" ||
		cookies[auth.RefreshCookieName(domain.EnvironmentStaging)] != "new-refresh" {
		t.Errorf("cookies = %v", cookies)
	}
}

func TestSessionGateRejectedClearsCookies(t *testing.T) {
	h := gate(fakeAuth{err: domain.ErrUnauthenticated})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/journal", nil)))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	for _, c := range rec.Result().Cookies() {
		if c.MaxAge >= 0 {
			t.Errorf("cookie %s not cleared", c.Name)
		}
	}
}

type stubLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (s *stubLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	s.keys = append(s.keys, key)
	return s.allow, s.err
}

func TestRateLimit(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	deny := &stubLimiter{}
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/market", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	RateLimit(deny, 1, time.Minute, quiet())(ok).ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests || !strings.Contains(rec.Body.String(), "rate limit") {
		t.Errorf("denied: %d %s", rec.Code, rec.Body.String())
	}
	if deny.keys[0] != "api:203.0.113.9" {
		t.Errorf("key = %q", deny.keys[0])
	}

	broken := &stubLimiter{err: errors.New("redis down")}
	rec = httptest.NewRecorder()
	RateLimit(broken, 1, time.Minute, quiet())(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/market", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("limiter error must fail open, got %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORS([]string{"https://dash.example.com"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("preflight reached handler")
	}))
	req := httptest.NewRequest(http.MethodOptions, "/api/market", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", "GET")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "https://dash.example.com" {
		t.Errorf("preflight: %d %v", rec.Code, rec.Header())
	}
}

func TestCORSUnlistedOrigin(t *testing.T) {
	called := false
	h := CORS([]string{"https://dash.example.com/"})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/market", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if !called {
		t.Fatal("simple request must reach handler")
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("unlisted origin allowed: %q", got)
	}
	if rec.Header().Get("Vary") != "Origin" {
		t.Errorf("Vary = %q", rec.Header().Get("Vary"))
	}
}

func TestRateLimitRetryAfter(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/positions", nil)
	req.RemoteAddr = "198.51.100.7:5555"
	lim := &stubLimiter{}
	RateLimit(lim, 10, 30*time.Second, quiet())(http.NotFoundHandler()).ServeHTTP(rec, req)
	if rec.Header().Get("Retry-After") != "30" {
		t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
	}
	if lim.keys[0] != "api:198.51.100.7" {
		t.Errorf("key = %q", lim.keys[0])
	}
}

func TestAccessLevel(t *testing.T) {
	tests := []struct {
		path   string
		status int
		want   slog.Level
	}{
		{"/api/positions", 200, slog.LevelInfo},
		{"/api/positions", 400, slog.LevelWarn},
		{"/api/positions", 503, slog.LevelError},
		{"/static/app.css", 200, slog.LevelDebug},
		{"/static/missing.css", 404, slog.LevelWarn},
	}
	for _, tt := range tests {
		if got := accessLevel(tt.path, tt.status); got != tt.want {
			t.Errorf("accessLevel(%q, %d) = %v, want %v", tt.path, tt.status, got, tt.want)
		}
	}
}
