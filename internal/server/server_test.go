package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alanyoungcy/tradedash/internal/auth"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
	"github.com/alanyoungcy/tradedash/internal/server/handler"
	"github.com/alanyoungcy/tradedash/internal/web"
)

type noSession struct{}

func (noSession) Authenticate(context.Context, domain.Environment, string, string) (*auth.Claims, *auth.Session, error) {
	return nil, nil, domain.ErrUnauthenticated
}

type denyAll struct{ calls int }

func (d *denyAll) Allow(context.Context, string, int, time.Duration) (bool, error) {
	d.calls++
	return false, nil
}

func newTestServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pages, err := web.NewRenderer(logger)
	if err != nil {
		t.Fatal(err)
	}
	if deps.Resolver == nil {
		deps.Resolver = environment.NewResolver(domain.EnvironmentStaging)
	}
	h := Handlers{
		Health:      handler.NewHealthHandler(nil, logger),
		Status:      handler.NewStatusHandler("test", "off", false, nil),
		Positions:   handler.NewPositionHandler(nil, logger),
		Journal:     handler.NewJournalHandler(nil, logger),
		Analysis:    handler.NewAnalysisHandler(nil, logger),
		Candles:     handler.NewCandleHandler(nil, logger),
		Snapshots:   handler.NewSnapshotHandler(nil, logger),
		Environment: handler.NewEnvironmentHandler(false, logger),
		Pages:       handler.NewPageHandler(handler.PageServices{}, pages, "test", logger),
	}
	return NewServer(Config{Port: 0, RateLimit: 10, RateWindow: time.Minute}, h, deps, logger).Handler()
}

func TestRoutes(t *testing.T) {
	srv := newTestServer(t, Deps{})

	tests := []struct {
		method, path string
		want         int
	}{
		{http.MethodGet, "/api/health", http.StatusOK},
		{http.MethodGet, "/api/status", http.StatusOK},
		{http.MethodGet, "/static/app.css", http.StatusOK},
		{http.MethodGet, "/settings", http.StatusOK},
		{http.MethodGet, "/does-not-exist", http.StatusNotFound},
		{http.MethodGet, "/api/analysis/abc", http.StatusBadRequest},
	}
	for _, tc := range tests {
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, httptest.NewRequest(tc.method, tc.path, nil))
		if rec.Code != tc.want {
			t.Errorf("%s %s = %d, want %d", tc.method, tc.path, rec.Code, tc.want)
		}
	}
}

func TestSessionGate(t *testing.T) {
	srv := newTestServer(t, Deps{Sessions: noSession{}})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/journal?status=open", nil))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/login?next=") {
		t.Errorf("location = %q", loc)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("health gated: %d", rec.Code)
	}
}

func TestRateLimitOnlyCoversAPI(t *testing.T) {
	limiter := &denyAll{}
	srv := newTestServer(t, Deps{Limiter: limiter})

	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/settings", nil))
	if rec.Code != http.StatusOK || limiter.calls != 0 {
		t.Errorf("page limited: status %d, calls %d", rec.Code, limiter.calls)
	}

	rec = httptest.NewRecorder()
	srv.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("api status = %d", rec.Code)
	}
}
