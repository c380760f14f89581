package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

const (
	DefaultAnalysisLimit = 20
	MaxAnalysisLimit     = 500
)

// AnalysisService reads AI analysis logs.
type AnalysisService struct {
	stores domain.StoreProvider
	logger *slog.Logger
}

// NewAnalysisService creates an AnalysisService.
func NewAnalysisService(stores domain.StoreProvider, logger *slog.Logger) *AnalysisService {
	return &AnalysisService{
		stores: stores,
		logger: logger,
	}
}

// List returns analyses newest first. The limit is clamped to
// [1, MaxAnalysisLimit], defaulting to DefaultAnalysisLimit.
func (s *AnalysisService) List(ctx context.Context, env domain.Environment, opts domain.AnalysisListOpts) ([]domain.AnalysisLog, error) {
	st, err := s.stores.Stores(env)
	if err != nil {
		return nil, err
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultAnalysisLimit
	}
	if opts.Limit > MaxAnalysisLimit {
		opts.Limit = MaxAnalysisLimit
	}
	logs, err := st.Analyses.List(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("analysis_service: list: %w", err)
	}
	return logs, nil
}

// Get returns one analysis with its raw response.
func (s *AnalysisService) Get(ctx context.Context, env domain.Environment, id int64) (domain.AnalysisLog, error) {
	st, err := s.stores.Stores(env)
	if err != nil {
		return domain.AnalysisLog{}, err
	}
	a, err := st.Analyses.GetByID(ctx, id)
	if err != nil {
		return domain.AnalysisLog{}, fmt.Errorf("analysis_service: get: %w", err)
	}
	return a, nil
}
