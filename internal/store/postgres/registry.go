package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// Registry owns one Client per environment and the stores built on it.
type Registry struct {
	clients map[domain.Environment]*Client
	stores  map[domain.Environment]*domain.Stores
}

// NewRegistry connects to every configured environment. Connections already
// opened are closed if a later one fails.
func NewRegistry(ctx context.Context, cfgs map[domain.Environment]ClientConfig, logger *slog.Logger) (*Registry, error) {
	r := &Registry{
		clients: make(map[domain.Environment]*Client, len(cfgs)),
		stores:  make(map[domain.Environment]*domain.Stores, len(cfgs)),
	}
	for env, cfg := range cfgs {
		c, err := New(ctx, cfg)
		if err != nil {
			r.Close()
			return nil, fmt.Errorf("postgres: environment %s: %w", env, err)
		}
		r.clients[env] = c
		r.stores[env] = NewStores(c)
		logger.Info("postgres connected", slog.String("environment", string(env)))
	}
	return r, nil
}

// NewStores builds the store set on top of c.
func NewStores(c *Client) *domain.Stores {
	pool := c.Pool()
	return &domain.Stores{
		Positions:  NewPositionStore(pool),
		Analyses:   NewAnalysisStore(pool),
		Portfolio:  NewPortfolioStore(pool),
		Market:     NewMarketStore(pool),
		DailyStats: NewDailyStatsStore(pool),
		Candles:    NewCandleStore(pool),
	}
}

// Stores implements domain.StoreProvider.
func (r *Registry) Stores(env domain.Environment) (*domain.Stores, error) {
	s, ok := r.stores[env]
	if !ok {
		return nil, fmt.Errorf("postgres: %w: %q", domain.ErrUnknownEnvironment, env)
	}
	return s, nil
}

// Client returns the connection of env.
func (r *Registry) Client(env domain.Environment) (*Client, error) {
	c, ok := r.clients[env]
	if !ok {
		return nil, fmt.Errorf("postgres: %w: %q", domain.ErrUnknownEnvironment, env)
	}
	return c, nil
}

// Ping checks the connection of env.
func (r *Registry) Ping(ctx context.Context, env domain.Environment) error {
	c, err := r.Client(env)
	if err != nil {
		return err
	}
	return c.Ping(ctx)
}

// Close shuts down every pool.
func (r *Registry) Close() {
	for _, c := range r.clients {
		c.Close()
	}
}

var (
	_ domain.StoreProvider   = (*Registry)(nil)
	_ domain.HealthChecker   = (*Registry)(nil)
	_ domain.PositionStore   = (*PositionStore)(nil)
	_ domain.AnalysisStore   = (*AnalysisStore)(nil)
	_ domain.PortfolioStore  = (*PortfolioStore)(nil)
	_ domain.MarketStore     = (*MarketStore)(nil)
	_ domain.DailyStatsStore = (*DailyStatsStore)(nil)
	_ domain.CandleStore     = (*CandleStore)(nil)
)
