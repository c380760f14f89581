package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

const (
	DefaultPerformanceDays = 30
	MaxPerformanceDays     = 365
)

// SnapshotService serves the portfolio, market and performance snapshots
// with an optional cache in front of the store.
type SnapshotService struct {
	stores domain.StoreProvider
	cache  domain.SnapshotCache
	ttl    time.Duration
	logger *slog.Logger
}

// NewSnapshotService creates a SnapshotService. A nil cache or a zero ttl
// reads straight through to the store.
func NewSnapshotService(stores domain.StoreProvider, cache domain.SnapshotCache, ttl time.Duration, logger *slog.Logger) *SnapshotService {
	return &SnapshotService{
		stores: stores,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// Portfolio returns the portfolio snapshot of env.
func (s *SnapshotService) Portfolio(ctx context.Context, env domain.Environment) (domain.Portfolio, error) {
	return cached(ctx, s, env, "portfolio", func(ctx context.Context, st *domain.Stores) (domain.Portfolio, error) {
		return st.Portfolio.Get(ctx)
	})
}

// Market returns the latest market snapshot of env.
func (s *SnapshotService) Market(ctx context.Context, env domain.Environment) (domain.MarketSnapshot, error) {
	return cached(ctx, s, env, "market", func(ctx context.Context, st *domain.Stores) (domain.MarketSnapshot, error) {
		return st.Market.Latest(ctx)
	})
}

// Performance returns the last days of daily stats in chronological order.
// days is clamped to [1, MaxPerformanceDays], defaulting to
// DefaultPerformanceDays.
func (s *SnapshotService) Performance(ctx context.Context, env domain.Environment, days int) ([]domain.DailyStat, error) {
	if days <= 0 {
		days = DefaultPerformanceDays
	}
	if days > MaxPerformanceDays {
		days = MaxPerformanceDays
	}
	return cached(ctx, s, env, "performance:"+strconv.Itoa(days), func(ctx context.Context, st *domain.Stores) ([]domain.DailyStat, error) {
		return st.DailyStats.ListRecent(ctx, days)
	})
}

// cached is a cache-aside read. Cache failures are logged and the store is
// used; misses in the store are never cached.
func cached[T any](ctx context.Context, s *SnapshotService, env domain.Environment, name string, load func(context.Context, *domain.Stores) (T, error)) (T, error) {
	var zero T
	key := string(env) + ":" + name

	if s.cache != nil && s.ttl > 0 {
		var v T
		err := s.cache.Get(ctx, key, &v)
		if err == nil {
			return v, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			s.logger.WarnContext(ctx, "snapshot_service: cache get failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}

	st, err := s.stores.Stores(env)
	if err != nil {
		return zero, err
	}
	v, err := load(ctx, st)
	if err != nil {
		return zero, fmt.Errorf("snapshot_service: %s: %w", name, err)
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.Set(ctx, key, v, s.ttl); err != nil {
			s.logger.WarnContext(ctx, "snapshot_service: cache set failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
	}
	return v, nil
}
