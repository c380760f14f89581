package domain

import (
	"context"
	"time"
)

// PositionStore reads the positions table.
type PositionStore interface {
	ListOpen(ctx context.Context) ([]Position, error)
	GetByID(ctx context.Context, id int64) (Position, error)
	ListJournal(ctx context.Context, filter JournalFilter) ([]Position, error)
}

// AnalysisStore reads ai_analysis_logs.
type AnalysisStore interface {
	List(ctx context.Context, opts AnalysisListOpts) ([]AnalysisLog, error)
	GetByID(ctx context.Context, id int64) (AnalysisLog, error)
	// ListForJournal returns the journal projection of the given ids keyed
	// by id. Ids with no row are absent from the map.
	ListForJournal(ctx context.Context, ids []int64) (map[int64]JournalAnalysis, error)
}

// PortfolioStore reads the singleton portfolio row.
type PortfolioStore interface {
	Get(ctx context.Context) (Portfolio, error)
}

// MarketStore reads market_snapshots.
type MarketStore interface {
	Latest(ctx context.Context) (MarketSnapshot, error)
}

// DailyStatsStore reads daily_stats.
type DailyStatsStore interface {
	// ListRecent returns the last days rows in chronological order.
	ListRecent(ctx context.Context, days int) ([]DailyStat, error)
}

// CandleStore reads assets and the candles_* tables.
type CandleStore interface {
	AssetID(ctx context.Context, symbol string) (int64, error)
	// ListRecent returns the newest limit candles in ascending time order.
	ListRecent(ctx context.Context, assetID int64, tf Timeframe, limit int) ([]CandleRow, error)
}

// Stores groups the stores of one environment's backend.
type Stores struct {
	Positions  PositionStore
	Analyses   AnalysisStore
	Portfolio  PortfolioStore
	Market     MarketStore
	DailyStats DailyStatsStore
	Candles    CandleStore
}

// StoreProvider resolves an environment to its backend stores.
type StoreProvider interface {
	Stores(env Environment) (*Stores, error)
}

// HealthChecker reports whether an environment's backend is reachable.
type HealthChecker interface {
	Ping(ctx context.Context, env Environment) error
}

// DateRange is a half-open [From, To) interval.
type DateRange struct {
	From time.Time
	To   time.Time
}
