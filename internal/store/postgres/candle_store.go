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

// CandleStore implements domain.CandleStore over assets and candles_*.
type CandleStore struct {
	pool *pgxpool.Pool
}

// NewCandleStore creates a new CandleStore backed by the given connection pool.
func NewCandleStore(pool *pgxpool.Pool) *CandleStore {
	return &CandleStore{pool: pool}
}

// candleTables maps each timeframe to its table. Table names never come
// from user input.
var candleTables = map[domain.Timeframe]string{
	domain.Timeframe1h: "candles_1h",
	domain.Timeframe4h: "candles_4h",
	domain.Timeframe1d: "candles_1d",
}

// AssetID looks up the asset id for symbol.
func (s *CandleStore) AssetID(ctx context.Context, symbol string) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `SELECT id FROM assets WHERE symbol = $1`, symbol).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, fmt.Errorf("postgres: asset %q: %w", symbol, domain.ErrNotFound)
		}
		return 0, fmt.Errorf("postgres: get asset: %w", err)
	}
	return id, nil
}

// ListRecent returns the newest limit candles in ascending time order.
func (s *CandleStore) ListRecent(ctx context.Context, assetID int64, tf domain.Timeframe, limit int) ([]domain.CandleRow, error) {
	table, ok := candleTables[tf]
	if !ok {
		table = candleTables[domain.DefaultTimeframe]
	}

	query := `SELECT timestamp, open, high, low, close, volume
		FROM ` + table + `
		WHERE asset_id = $1
		ORDER BY timestamp DESC
		LIMIT $2`

	rows, err := s.pool.Query(ctx, query, assetID, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list candles: %w", err)
	}
	defer rows.Close()

	var out []domain.CandleRow
	for rows.Next() {
		var c domain.CandleRow
		if err := rows.Scan(&c.Timestamp, &c.Open, &c.High, &c.Low, &c.Close, &c.Volume); err != nil {
			return nil, fmt.Errorf("postgres: scan candle: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list candles: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}
