package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

const (
	DefaultCandleLimit = 100
	MaxCandleLimit     = 1000
)

// CandleService serves chart-ready candles.
type CandleService struct {
	stores domain.StoreProvider
	logger *slog.Logger
}

// NewCandleService creates a CandleService.
func NewCandleService(stores domain.StoreProvider, logger *slog.Logger) *CandleService {
	return &CandleService{
		stores: stores,
		logger: logger,
	}
}

// List returns the newest limit candles of symbol at tf in ascending time
// order. An empty symbol is domain.ErrInvalidInput; an unknown one is
// domain.ErrNotFound.
func (s *CandleService) List(ctx context.Context, env domain.Environment, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error) {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return nil, fmt.Errorf("candle_service: symbol is required: %w", domain.ErrInvalidInput)
	}
	if limit <= 0 {
		limit = DefaultCandleLimit
	}
	if limit > MaxCandleLimit {
		limit = MaxCandleLimit
	}

	st, err := s.stores.Stores(env)
	if err != nil {
		return nil, err
	}

	assetID, err := st.Candles.AssetID(ctx, symbol)
	if err != nil {
		return nil, fmt.Errorf("candle_service: asset: %w", err)
	}

	rows, err := st.Candles.ListRecent(ctx, assetID, tf, limit)
	if err != nil {
		return nil, fmt.Errorf("candle_service: candles: %w", err)
	}

	out := make([]domain.Candle, len(rows))
	for i, r := range rows {
		out[i] = FormatCandle(r)
	}
	return out, nil
}

// FormatCandle converts a stored row to its chart form. Time is whole epoch
// seconds, rounded down.
func FormatCandle(r domain.CandleRow) domain.Candle {
	return domain.Candle{
		Time:   r.Timestamp.Unix(),
		Open:   r.Open.InexactFloat64(),
		High:   r.High.InexactFloat64(),
		Low:    r.Low.InexactFloat64(),
		Close:  r.Close.InexactFloat64(),
		Volume: r.Volume.InexactFloat64(),
	}
}
