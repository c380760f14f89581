package service

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// Overview is the data behind the dashboard home page. A resource that
// failed to load is left nil.
type Overview struct {
	Portfolio   *domain.Portfolio
	Market      *domain.MarketSnapshot
	Positions   []domain.Position
	Performance []domain.DailyStat
}

type openPositionLister interface {
	ListOpen(ctx context.Context, env domain.Environment) ([]domain.Position, error)
}

type snapshotReader interface {
	Portfolio(ctx context.Context, env domain.Environment) (domain.Portfolio, error)
	Market(ctx context.Context, env domain.Environment) (domain.MarketSnapshot, error)
	Performance(ctx context.Context, env domain.Environment, days int) ([]domain.DailyStat, error)
}

// DashboardService loads the home page resources concurrently.
type DashboardService struct {
	positions openPositionLister
	snapshots snapshotReader
	logger    *slog.Logger
}

// NewDashboardService creates a DashboardService.
func NewDashboardService(positions openPositionLister, snapshots snapshotReader, logger *slog.Logger) *DashboardService {
	return &DashboardService{
		positions: positions,
		snapshots: snapshots,
		logger:    logger,
	}
}

// Overview fetches every resource in parallel. Individual failures are
// logged and leave that resource empty; the page still renders.
func (s *DashboardService) Overview(ctx context.Context, env domain.Environment) Overview {
	var (
		ov Overview
		g  errgroup.Group
	)

	g.Go(func() error {
		p, err := s.snapshots.Portfolio(ctx, env)
		if s.report(ctx, "portfolio", err) {
			ov.Portfolio = &p
		}
		return nil
	})
	g.Go(func() error {
		m, err := s.snapshots.Market(ctx, env)
		if s.report(ctx, "market", err) {
			ov.Market = &m
		}
		return nil
	})
	g.Go(func() error {
		positions, err := s.positions.ListOpen(ctx, env)
		if s.report(ctx, "positions", err) {
			ov.Positions = positions
		}
		return nil
	})
	g.Go(func() error {
		stats, err := s.snapshots.Performance(ctx, env, DefaultPerformanceDays)
		if s.report(ctx, "performance", err) {
			ov.Performance = stats
		}
		return nil
	})

	_ = g.Wait()
	return ov
}

func (s *DashboardService) report(ctx context.Context, resource string, err error) bool {
	if err == nil {
		return true
	}
	s.logger.WarnContext(ctx, "dashboard_service: resource unavailable",
		slog.String("resource", resource),
		slog.String("error", err.Error()),
	)
	return false
}
