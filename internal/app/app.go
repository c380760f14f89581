// Package app provides the top-level application lifecycle management for the
// trading dashboard. It wires together all dependencies (per-environment
// stores, caches, blob storage, auth, services and notifications) and runs
// the selected mode.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/tradedash/internal/config"
)

// Operating modes.
const (
	ModeServe  = "serve"
	ModeExport = "export"
)

// notifyTimeout bounds a single notification request.
const notifyTimeout = 10 * time.Second

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	version string
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, version string, logger *slog.Logger) *App {
	return &App{
		cfg:     cfg,
		version: version,
		logger:  logger.With(slog.String("component", "app")),
	}
}

// wire builds the dependencies for mode and registers their cleanup.
func (a *App) wire(ctx context.Context, mode string) (*Dependencies, error) {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", mode),
		slog.String("version", a.version),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, mode, a.logger)
	if err != nil {
		return nil, fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)
	return deps, nil
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
