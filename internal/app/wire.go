package app

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/tradedash/internal/auth"
	s3blob "github.com/alanyoungcy/tradedash/internal/blob/s3"
	"github.com/alanyoungcy/tradedash/internal/cache/redis"
	"github.com/alanyoungcy/tradedash/internal/config"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/notify"
	"github.com/alanyoungcy/tradedash/internal/service"
	"github.com/alanyoungcy/tradedash/internal/store/postgres"
)

// Dependencies bundles every concrete dependency the modes need. It is
// constructed by Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Stores
	Registry *postgres.Registry

	// Caches; nil when Redis is disabled.
	SnapshotCache domain.SnapshotCache
	RateLimiter   domain.RateLimiter
	SignalBus     domain.SignalBus

	// Blob storage; nil outside export modes.
	Exporter *s3blob.JournalExporter

	// Auth is nil when the session gate is disabled.
	Auth *auth.Manager

	// Notifications
	Notifier *notify.Notifier

	// Services
	Positions *service.PositionService
	Journal   *service.JournalService
	Analyses  *service.AnalysisService
	Candles   *service.CandleService
	Snapshots *service.SnapshotService
	Dashboard *service.DashboardService
}

// needsS3 returns true for modes that require object storage.
func needsS3(mode string) bool {
	return mode == ModeExport
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, mode string, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{}

	// --- PostgreSQL, one pool per environment ---
	pgCfgs := make(map[domain.Environment]postgres.ClientConfig, len(domain.Environments))
	for _, env := range domain.Environments {
		p, err := cfg.Environments.For(env)
		if err != nil {
			return nil, nil, err
		}
		pgCfgs[env] = postgres.ClientConfig{
			DSN:      p.DSN,
			Host:     p.Host,
			Port:     p.Port,
			Database: p.Database,
			User:     p.User,
			Password: p.Password,
			SSLMode:  p.SSLMode,
			MaxConns: p.PoolMaxConns,
			MinConns: p.PoolMinConns,
		}
	}
	registry, err := postgres.NewRegistry(ctx, pgCfgs, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: postgres: %w", err)
	}
	closers = append(closers, registry.Close)
	deps.Registry = registry

	// --- Redis (optional) ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.Dial(ctx, redis.Options{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLS:        cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.SnapshotCache = redis.NewSnapshotCache(redisClient)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
	}

	// --- Services ---
	deps.Positions = service.NewPositionService(registry, logger)
	deps.Journal = service.NewJournalService(registry, logger)
	deps.Analyses = service.NewAnalysisService(registry, logger)
	deps.Candles = service.NewCandleService(registry, logger)
	deps.Snapshots = service.NewSnapshotService(registry, deps.SnapshotCache, cfg.Cache.SnapshotTTL.Duration, logger)
	deps.Dashboard = service.NewDashboardService(deps.Positions, deps.Snapshots, logger)

	// --- S3 blob storage (only for modes that need object storage) ---
	if needsS3(mode) {
		objects, err := s3blob.Open(ctx, s3blob.Options{
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			Bucket:    cfg.S3.Bucket,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			UseSSL:    cfg.S3.UseSSL,
			PathStyle: cfg.S3.ForcePathStyle,
		})
		if err == nil {
			err = objects.Ping(ctx)
		}
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.Exporter = s3blob.NewJournalExporter(
			deps.Journal,
			objects,
			objects,
			cfg.Export.Prefix,
			cfg.Export.PartSize,
			logger,
		)
	}

	// --- Auth ---
	if cfg.Auth.Enabled {
		projects := make(map[domain.Environment]auth.Project, len(domain.Environments))
		for _, env := range domain.Environments {
			p, _ := cfg.Environments.For(env)
			projects[env] = auth.Project{
				APIURL:    strings.TrimRight(p.ApiURL, "/"),
				AnonKey:   p.AnonKey,
				JWTSecret: p.JWTSecret,
			}
		}
		deps.Auth = auth.NewManager(projects, cfg.Auth.Timeout.Duration, cfg.Auth.Leeway.Duration, logger)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
			notifyTimeout,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL, notifyTimeout))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

// changeFeed returns the change source of env for the configured realtime
// source, and the channel name to subscribe to. ok is false when realtime
// is off.
func (d *Dependencies) changeFeed(cfg config.RealtimeConfig, env domain.Environment, logger *slog.Logger) (domain.ChangeFeed, string, bool) {
	switch strings.ToLower(cfg.Source) {
	case "postgres":
		client, err := d.Registry.Client(env)
		if err != nil {
			return nil, "", false
		}
		return postgres.NewChangeListener(client, logger), cfg.Channel, true
	case "redis":
		if d.SignalBus == nil {
			return nil, "", false
		}
		return d.SignalBus, redis.ChannelFor(cfg.Channel, env), true
	default:
		return nil, "", false
	}
}
