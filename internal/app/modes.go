package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	s3blob "github.com/alanyoungcy/tradedash/internal/blob/s3"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/environment"
	"github.com/alanyoungcy/tradedash/internal/live"
	"github.com/alanyoungcy/tradedash/internal/server"
	"github.com/alanyoungcy/tradedash/internal/server/handler"
	"github.com/alanyoungcy/tradedash/internal/server/ws"
	"github.com/alanyoungcy/tradedash/internal/web"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 10 * time.Second

// Serve runs the HTTP server, the websocket hub and one live positions feed
// per environment until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	deps, err := a.wire(ctx, ModeServe)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)

	tables := live.NewTables()
	hub := ws.NewHub(tables, a.cfg.Server.CORSOrigins, a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	a.startFeeds(ctx, g, deps, tables, hub)

	if err := a.startHTTPServer(ctx, g, deps, hub); err != nil {
		return err
	}

	return g.Wait()
}

// startFeeds runs one live feed per environment. A feed that cannot
// subscribe ends on its own; the others keep running.
func (a *App) startFeeds(ctx context.Context, g *errgroup.Group, deps *Dependencies, tables live.Tables, hub *ws.Hub) {
	for _, env := range domain.Environments {
		source, channel, ok := deps.changeFeed(a.cfg.Realtime, env, a.logger)
		if !ok {
			a.logger.InfoContext(ctx, "live feed disabled",
				slog.String("environment", string(env)),
				slog.String("source", a.cfg.Realtime.Source),
			)
			continue
		}
		feed := live.NewFeed(live.FeedConfig{
			Env:     env,
			Channel: channel,
			Resync:  a.cfg.Realtime.ResyncInterval.Duration,
		}, source, deps.Positions, tables[env], hub, deps.Notifier, a.logger)
		g.Go(func() error {
			return feed.Run(ctx)
		})
	}
}

// startHTTPServer builds the handlers and runs the server in g, shutting it
// down when ctx is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, hub *ws.Hub) error {
	pages, err := web.NewRenderer(a.logger)
	if err != nil {
		return fmt.Errorf("app: templates: %w", err)
	}
	secure := a.cfg.Auth.CookieSecure

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(deps.Registry, a.logger),
		Status:      handler.NewStatusHandler(a.version, a.cfg.Realtime.Source, deps.Auth != nil, hub.ClientCount),
		Positions:   handler.NewPositionHandler(deps.Positions, a.logger),
		Journal:     handler.NewJournalHandler(deps.Journal, a.logger),
		Analysis:    handler.NewAnalysisHandler(deps.Analyses, a.logger),
		Candles:     handler.NewCandleHandler(deps.Candles, a.logger),
		Snapshots:   handler.NewSnapshotHandler(deps.Snapshots, a.logger),
		Environment: handler.NewEnvironmentHandler(secure, a.logger),
		Pages: handler.NewPageHandler(handler.PageServices{
			Dashboard: deps.Dashboard,
			Positions: deps.Positions,
			Analyses:  deps.Analyses,
			Journal:   deps.Journal,
			Candles:   deps.Candles,
		}, pages, a.version, a.logger),
	}
	srvDeps := server.Deps{
		Resolver: environment.NewResolver(domain.Environment(a.cfg.DefaultEnvironment)),
		Limiter:  deps.RateLimiter,
		Hub:      hub,
	}
	if deps.Auth != nil {
		handlers.Auth = handler.NewAuthHandler(deps.Auth, pages, secure, a.logger)
		srvDeps.Sessions = deps.Auth
	} else {
		a.logger.WarnContext(ctx, "auth disabled; every page is public")
	}

	srv := server.NewServer(server.Config{
		Port:         a.cfg.Server.Port,
		CORSOrigins:  a.cfg.Server.CORSOrigins,
		CookieSecure: secure,
		RateLimit:    a.cfg.Server.RateLimit,
		RateWindow:   a.cfg.Server.RateWindow.Duration,
	}, handlers, srvDeps, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return nil
}

// ExportOptions selects what ExportJournal writes.
type ExportOptions struct {
	// Envs defaults to every environment.
	Envs  []domain.Environment
	Month time.Time
	Force bool
}

// ExportJournal writes one month of each environment's journal to object
// storage, one environment at a time, and notifies export_completed.
func (a *App) ExportJournal(ctx context.Context, opts ExportOptions) ([]s3blob.ExportResult, error) {
	deps, err := a.wire(ctx, ModeExport)
	if err != nil {
		return nil, err
	}
	envs := opts.Envs
	if len(envs) == 0 {
		envs = domain.Environments
	}

	results := make([]s3blob.ExportResult, 0, len(envs))
	var lines []string
	for _, env := range envs {
		res, err := deps.Exporter.ExportMonth(ctx, env, opts.Month, opts.Force)
		if err != nil {
			return results, fmt.Errorf("app: export %s: %w", env, err)
		}
		results = append(results, res)
		if res.Skipped {
			lines = append(lines, fmt.Sprintf("%s: %s already exported", env, res.Path))
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %s trades, %s to %s",
			env, humanize.Comma(int64(res.Count)), humanize.Bytes(uint64(res.Bytes)), res.Path))
	}

	title := "Journal export " + opts.Month.UTC().Format("2006-01")
	if err := deps.Notifier.Notify(ctx, "export_completed", title, strings.Join(lines, "\n")); err != nil {
		a.logger.WarnContext(ctx, "export notification failed", slog.String("error", err.Error()))
	}
	return results, nil
}

// ListExports returns the stored journal exports of env.
func (a *App) ListExports(ctx context.Context, env domain.Environment) ([]domain.BlobInfo, error) {
	deps, err := a.wire(ctx, ModeExport)
	if err != nil {
		return nil, err
	}
	return deps.Exporter.ListExports(ctx, env)
}
