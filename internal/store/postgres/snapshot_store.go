package postgres

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// PortfolioStore implements domain.PortfolioStore.
type PortfolioStore struct {
	pool *pgxpool.Pool
}

// NewPortfolioStore creates a new PortfolioStore backed by the given connection pool.
func NewPortfolioStore(pool *pgxpool.Pool) *PortfolioStore {
	return &PortfolioStore{pool: pool}
}

// Get returns the singleton portfolio row.
func (s *PortfolioStore) Get(ctx context.Context) (domain.Portfolio, error) {
	const query = `SELECT id, total_equity, available_funds, reserved_funds, total_pnl,
		total_trades, winning_trades, losing_trades, updated_at
		FROM portfolio
		ORDER BY id
		LIMIT 1`

	var p domain.Portfolio
	err := s.pool.QueryRow(ctx, query).Scan(
		&p.ID, &p.TotalEquity, &p.AvailableFunds, &p.ReservedFunds, &p.TotalPnL,
		&p.TotalTrades, &p.WinningTrades, &p.LosingTrades, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Portfolio{}, fmt.Errorf("postgres: portfolio: %w", domain.ErrNotFound)
		}
		return domain.Portfolio{}, fmt.Errorf("postgres: get portfolio: %w", err)
	}
	return p, nil
}

// MarketStore implements domain.MarketStore.
type MarketStore struct {
	pool *pgxpool.Pool
}

// NewMarketStore creates a new MarketStore backed by the given connection pool.
func NewMarketStore(pool *pgxpool.Pool) *MarketStore {
	return &MarketStore{pool: pool}
}

// Latest returns the newest market snapshot.
func (s *MarketStore) Latest(ctx context.Context) (domain.MarketSnapshot, error) {
	const query = `SELECT id, timestamp, btc_price, btc_24h_change, eth_price, eth_24h_change,
		btc_dominance, eth_dominance, total_market_cap, total_volume_24h,
		fear_greed_index, fear_greed_label
		FROM market_snapshots
		ORDER BY timestamp DESC
		LIMIT 1`

	var m domain.MarketSnapshot
	err := s.pool.QueryRow(ctx, query).Scan(
		&m.ID, &m.Timestamp, &m.BTCPrice, &m.BTC24hChange, &m.ETHPrice, &m.ETH24hChange,
		&m.BTCDominance, &m.ETHDominance, &m.TotalMarketCap, &m.TotalVolume24h,
		&m.FearGreedIndex, &m.FearGreedLabel,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.MarketSnapshot{}, fmt.Errorf("postgres: market snapshot: %w", domain.ErrNotFound)
		}
		return domain.MarketSnapshot{}, fmt.Errorf("postgres: latest market snapshot: %w", err)
	}
	return m, nil
}

// DailyStatsStore implements domain.DailyStatsStore.
type DailyStatsStore struct {
	pool *pgxpool.Pool
}

// NewDailyStatsStore creates a new DailyStatsStore backed by the given connection pool.
func NewDailyStatsStore(pool *pgxpool.Pool) *DailyStatsStore {
	return &DailyStatsStore{pool: pool}
}

// ListRecent returns the last days rows in chronological order.
func (s *DailyStatsStore) ListRecent(ctx context.Context, days int) ([]domain.DailyStat, error) {
	const query = `SELECT date, pnl, pnl_pct, ending_equity, wins, losses, trades_taken
		FROM daily_stats
		ORDER BY date DESC
		LIMIT $1`

	rows, err := s.pool.Query(ctx, query, days)
	if err != nil {
		return nil, fmt.Errorf("postgres: list daily stats: %w", err)
	}
	defer rows.Close()

	var out []domain.DailyStat
	for rows.Next() {
		var d domain.DailyStat
		if err := rows.Scan(&d.Date, &d.PnL, &d.PnLPct, &d.EndingEquity, &d.Wins, &d.Losses, &d.TradesTaken); err != nil {
			return nil, fmt.Errorf("postgres: scan daily stat: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list daily stats: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}
