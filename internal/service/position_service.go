package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// PositionService reads positions of the request's environment.
type PositionService struct {
	stores domain.StoreProvider
	logger *slog.Logger
}

// NewPositionService creates a PositionService.
func NewPositionService(stores domain.StoreProvider, logger *slog.Logger) *PositionService {
	return &PositionService{
		stores: stores,
		logger: logger,
	}
}

// ListOpen returns the open positions of env, newest entry first.
func (s *PositionService) ListOpen(ctx context.Context, env domain.Environment) ([]domain.Position, error) {
	st, err := s.stores.Stores(env)
	if err != nil {
		return nil, err
	}
	positions, err := st.Positions.ListOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("position_service: list open: %w", err)
	}
	return positions, nil
}
