package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fp(v float64) *float64 { return &v }
func ip(v int64) *int64     { return &v }

func conf(c domain.Confidence) *domain.Confidence { return &c }

// fakeProvider serves one in-memory store set for every environment.
type fakeProvider struct {
	stores *domain.Stores
}

func (f fakeProvider) Stores(env domain.Environment) (*domain.Stores, error) {
	if !env.Valid() {
		return nil, domain.ErrUnknownEnvironment
	}
	return f.stores, nil
}

type memPositions struct {
	rows []domain.Position
	err  error
}

func (m *memPositions) ListOpen(context.Context) ([]domain.Position, error) {
	s := domain.PositionStatusOpen
	return m.ListJournal(context.Background(), domain.JournalFilter{Status: &s})
}

func (m *memPositions) GetByID(_ context.Context, id int64) (domain.Position, error) {
	for _, p := range m.rows {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Position{}, domain.ErrNotFound
}

// ListJournal applies the same predicates the SQL builder emits.
func (m *memPositions) ListJournal(_ context.Context, f domain.JournalFilter) ([]domain.Position, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.Position
	for _, p := range m.rows {
		if f.Symbol != "" && !strings.Contains(strings.ToLower(p.Symbol), strings.ToLower(f.Symbol)) {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		switch f.Outcome {
		case domain.OutcomeWins:
			if p.RealizedPnL == nil || *p.RealizedPnL <= 0 {
				continue
			}
		case domain.OutcomeLosses:
			if p.RealizedPnL == nil || *p.RealizedPnL >= 0 {
				continue
			}
		}
		if f.ExitReason != nil && (p.ExitReason == nil || *p.ExitReason != *f.ExitReason) {
			continue
		}
		if f.From != nil && p.EntryTimestamp.Before(*f.From) {
			continue
		}
		if f.To != nil && p.EntryTimestamp.After(*f.To) {
			continue
		}
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].EntryTimestamp.After(out[j].EntryTimestamp)
	})
	return out, nil
}

type memAnalyses struct {
	rows      map[int64]domain.JournalAnalysis
	requested []int64
	err       error
}

func (m *memAnalyses) List(context.Context, domain.AnalysisListOpts) ([]domain.AnalysisLog, error) {
	return nil, errors.New("not implemented")
}

func (m *memAnalyses) GetByID(context.Context, int64) (domain.AnalysisLog, error) {
	return domain.AnalysisLog{}, domain.ErrNotFound
}

func (m *memAnalyses) ListForJournal(_ context.Context, ids []int64) (map[int64]domain.JournalAnalysis, error) {
	m.requested = ids
	if m.err != nil {
		return nil, m.err
	}
	out := map[int64]domain.JournalAnalysis{}
	for _, id := range ids {
		if a, ok := m.rows[id]; ok {
			out[id] = a
		}
	}
	return out, nil
}

type memCandles struct {
	assets map[string]int64
	rows   map[int64][]domain.CandleRow
	gotTF  domain.Timeframe
}

func (m *memCandles) AssetID(_ context.Context, symbol string) (int64, error) {
	id, ok := m.assets[symbol]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return id, nil
}

func (m *memCandles) ListRecent(_ context.Context, assetID int64, tf domain.Timeframe, limit int) ([]domain.CandleRow, error) {
	m.gotTF = tf
	rows := m.rows[assetID]
	if len(rows) > limit {
		rows = rows[len(rows)-limit:]
	}
	return rows, nil
}

type memPortfolio struct {
	p     domain.Portfolio
	calls int
}

func (m *memPortfolio) Get(context.Context) (domain.Portfolio, error) {
	m.calls++
	return m.p, nil
}

type memMarket struct{ err error }

func (m memMarket) Latest(context.Context) (domain.MarketSnapshot, error) {
	if m.err != nil {
		return domain.MarketSnapshot{}, m.err
	}
	return domain.MarketSnapshot{ID: 1, Timestamp: time.Unix(0, 0)}, nil
}

type memDailyStats struct{ gotDays int }

func (m *memDailyStats) ListRecent(_ context.Context, days int) ([]domain.DailyStat, error) {
	m.gotDays = days
	return []domain.DailyStat{{PnL: 1}, {PnL: 2}}, nil
}

// memCache is a map-backed domain.SnapshotCache.
type memCache struct {
	mu   sync.Mutex
	data map[string]any
}

func (c *memCache) Get(_ context.Context, key string, dst any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return domain.ErrNotFound
	}
	switch d := dst.(type) {
	case *domain.Portfolio:
		*d = v.(domain.Portfolio)
	default:
		return errors.New("unsupported type")
	}
	return nil
}

func (c *memCache) Set(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = v
	return nil
}
