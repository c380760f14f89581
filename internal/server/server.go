package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
	"github.com/alanyoungcy/tradedash/internal/server/handler"
	"github.com/alanyoungcy/tradedash/internal/server/middleware"
	"github.com/alanyoungcy/tradedash/internal/server/ws"
	"github.com/alanyoungcy/tradedash/internal/web"
)

// Config holds the HTTP server configuration.
type Config struct {
	Port         int
	CORSOrigins  []string
	CookieSecure bool
	// RateLimit is requests per RateWindow per client IP on /api/. Zero
	// disables limiting.
	RateLimit  int
	RateWindow time.Duration
}

// Handlers aggregates all HTTP handlers that the server needs to register.
type Handlers struct {
	Health      *handler.HealthHandler
	Status      *handler.StatusHandler
	Positions   *handler.PositionHandler
	Journal     *handler.JournalHandler
	Analysis    *handler.AnalysisHandler
	Candles     *handler.CandleHandler
	Snapshots   *handler.SnapshotHandler
	Environment *handler.EnvironmentHandler
	Pages       *handler.PageHandler
	// Auth is nil when sign-in is disabled.
	Auth *handler.AuthHandler
}

// Deps are the collaborators the middleware chain needs.
type Deps struct {
	Resolver *environment.Resolver
	// Sessions gates every non-public route; nil disables the gate.
	Sessions middleware.Authenticator
	// Limiter is optional.
	Limiter domain.RateLimiter
	Hub     *ws.Hub
}

// Server is the dashboard's HTTP + WebSocket server.
type Server struct {
	httpServer *http.Server
	mux        *http.ServeMux
	logger     *slog.Logger
}

// NewServer creates a new Server with all routes registered on the ServeMux
// and the middleware chain applied.
func NewServer(cfg Config, handlers Handlers, deps Deps, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	// --- JSON API ---

	mux.HandleFunc("GET /api/health", handlers.Health.HealthCheck)
	mux.HandleFunc("GET /api/status", handlers.Status.GetStatus)
	mux.HandleFunc("GET /api/positions", handlers.Positions.ListOpen)
	mux.HandleFunc("GET /api/journal", handlers.Journal.List)
	mux.HandleFunc("GET /api/analysis", handlers.Analysis.List)
	mux.HandleFunc("GET /api/analysis/{id}", handlers.Analysis.Get)
	mux.HandleFunc("GET /api/candles", handlers.Candles.List)
	mux.HandleFunc("GET /api/market", handlers.Snapshots.Market)
	mux.HandleFunc("GET /api/portfolio", handlers.Snapshots.Portfolio)
	mux.HandleFunc("GET /api/performance", handlers.Snapshots.Performance)

	// --- Pages ---

	mux.HandleFunc("GET /{$}", handlers.Pages.Dashboard)
	mux.HandleFunc("GET /positions", handlers.Pages.Positions)
	mux.HandleFunc("GET /analysis", handlers.Pages.AnalysisList)
	mux.HandleFunc("GET /analysis/{id}", handlers.Pages.AnalysisDetail)
	mux.HandleFunc("GET /journal", handlers.Pages.Journal)
	mux.HandleFunc("GET /journal/{id}", handlers.Pages.Trade)
	mux.HandleFunc("GET /settings", handlers.Pages.Settings)
	mux.HandleFunc("POST /settings/theme", handlers.Environment.Theme)
	mux.HandleFunc("POST /environment", handlers.Environment.Select)
	mux.HandleFunc("/", handlers.Pages.NotFound)

	// --- Sign-in ---

	if handlers.Auth != nil {
		mux.HandleFunc("GET /login", handlers.Auth.LoginForm)
		mux.HandleFunc("POST /login", handlers.Auth.Login)
		mux.HandleFunc("GET /auth/callback", handlers.Auth.Callback)
		mux.HandleFunc("POST /logout", handlers.Auth.Logout)
	}

	mux.Handle("GET /static/", web.Static())

	if deps.Hub != nil {
		mux.HandleFunc("GET /ws/positions", deps.Hub.HandleWS)
	}

	// Build the middleware chain, innermost first.
	var h http.Handler = mux

	if deps.Limiter != nil && cfg.RateLimit > 0 {
		h = apiOnly(middleware.RateLimit(deps.Limiter, cfg.RateLimit, cfg.RateWindow, logger))(h)
	}
	if deps.Sessions != nil {
		h = middleware.Session(deps.Sessions, cfg.CookieSecure, logger)(h)
	}
	h = middleware.CORS(cfg.CORSOrigins)(h)
	h = middleware.Logging(logger)(h)
	h = middleware.Environment(deps.Resolver)(h)
	h = middleware.RequestID()(h)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: srv,
		mux:        mux,
		logger:     logger,
	}
}

// Handler returns the fully wrapped handler.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for HTTP requests. It blocks until the server
// encounters an error or is shut down.
func (s *Server) Start() error {
	s.logger.Info("server: starting",
		slog.String("addr", s.httpServer.Addr),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server: listen: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server, waiting for in-flight requests
// to complete within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("server: shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

// apiOnly applies mw to /api/ requests and passes everything else through.
func apiOnly(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		limited := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/api/") {
				limited.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
