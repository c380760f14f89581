package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// JournalService builds journal entries: positions joined in memory with the
// analysis that produced them.
type JournalService struct {
	stores domain.StoreProvider
	logger *slog.Logger
}

// NewJournalService creates a JournalService.
func NewJournalService(stores domain.StoreProvider, logger *slog.Logger) *JournalService {
	return &JournalService{
		stores: stores,
		logger: logger,
	}
}

// List returns the journal of env. Position predicates run in the store; the
// confidence predicate runs after the join because confidence lives on the
// analysis row.
func (s *JournalService) List(ctx context.Context, env domain.Environment, filter domain.JournalFilter) ([]domain.JournalEntry, error) {
	st, err := s.stores.Stores(env)
	if err != nil {
		return nil, err
	}

	positions, err := st.Positions.ListJournal(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("journal_service: positions: %w", err)
	}

	analyses, err := st.Analyses.ListForJournal(ctx, SignalIDs(positions))
	if err != nil {
		return nil, fmt.Errorf("journal_service: analyses: %w", err)
	}

	entries := FilterByConfidence(Join(positions, analyses), filter.Confidence)
	s.logger.DebugContext(ctx, "journal_service: listed",
		slog.String("environment", string(env)),
		slog.Int("positions", len(positions)),
		slog.Int("entries", len(entries)),
	)
	return entries, nil
}

// Get returns one journal entry.
func (s *JournalService) Get(ctx context.Context, env domain.Environment, id int64) (domain.JournalEntry, error) {
	st, err := s.stores.Stores(env)
	if err != nil {
		return domain.JournalEntry{}, err
	}

	p, err := st.Positions.GetByID(ctx, id)
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("journal_service: position: %w", err)
	}

	analyses, err := st.Analyses.ListForJournal(ctx, SignalIDs([]domain.Position{p}))
	if err != nil {
		return domain.JournalEntry{}, fmt.Errorf("journal_service: analyses: %w", err)
	}
	return Join([]domain.Position{p}, analyses)[0], nil
}

// SignalIDs returns the distinct non-null signal ids in positions order.
func SignalIDs(positions []domain.Position) []int64 {
	seen := make(map[int64]bool, len(positions))
	var ids []int64
	for _, p := range positions {
		if p.SignalID == nil || seen[*p.SignalID] {
			continue
		}
		seen[*p.SignalID] = true
		ids = append(ids, *p.SignalID)
	}
	return ids
}

// Join attaches each position's analysis. Positions without a signal id, or
// whose analysis row is missing, get a nil Analysis.
func Join(positions []domain.Position, analyses map[int64]domain.JournalAnalysis) []domain.JournalEntry {
	entries := make([]domain.JournalEntry, len(positions))
	for i, p := range positions {
		entries[i] = domain.JournalEntry{Position: p}
		if p.SignalID == nil {
			continue
		}
		if a, ok := analyses[*p.SignalID]; ok {
			entries[i].Analysis = &a
		}
	}
	return entries
}

// FilterByConfidence keeps entries whose analysis has exactly confidence.
// A nil confidence keeps everything; entries without analysis never match a
// set confidence.
func FilterByConfidence(entries []domain.JournalEntry, confidence *domain.Confidence) []domain.JournalEntry {
	if confidence == nil {
		return entries
	}
	out := make([]domain.JournalEntry, 0, len(entries))
	for _, e := range entries {
		if e.Analysis != nil && e.Analysis.Confidence != nil && *e.Analysis.Confidence == *confidence {
			out = append(out, e)
		}
	}
	return out
}

// Summarize computes the journal header stats. Win rate is over closed
// trades only; total P&L adds open trades' unrealized P&L.
func Summarize(entries []domain.JournalEntry) domain.JournalSummary {
	var s domain.JournalSummary
	closed := 0
	for _, e := range entries {
		s.Total++
		switch e.Status {
		case domain.PositionStatusOpen:
			s.Open++
			if e.UnrealizedPnL != nil {
				s.UnrealizedPnL += *e.UnrealizedPnL
			}
		case domain.PositionStatusClosed:
			closed++
			if e.RealizedPnL == nil {
				continue
			}
			pnl := *e.RealizedPnL
			s.RealizedPnL += pnl
			if pnl > 0 {
				s.Wins++
			} else if pnl < 0 {
				s.Losses++
			}
		}
	}
	if closed > 0 {
		s.WinRate = float64(s.Wins) / float64(closed) * 100
	}
	s.TotalPnL = s.RealizedPnL + s.UnrealizedPnL
	return s
}
