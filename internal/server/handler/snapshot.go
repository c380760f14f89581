package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// SnapshotService defines the methods that the snapshot handler requires.
type SnapshotService interface {
	Market(ctx context.Context, env domain.Environment) (domain.MarketSnapshot, error)
	Portfolio(ctx context.Context, env domain.Environment) (domain.Portfolio, error)
	Performance(ctx context.Context, env domain.Environment, days int) ([]domain.DailyStat, error)
}

// SnapshotHandler serves the latest market and portfolio rows and the daily
// performance series.
type SnapshotHandler struct {
	snapshots SnapshotService
	logger    *slog.Logger
}

// NewSnapshotHandler creates a SnapshotHandler.
func NewSnapshotHandler(snapshots SnapshotService, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{
		snapshots: snapshots,
		logger:    logHandler(logger, "snapshot"),
	}
}

// Market returns the latest market snapshot.
// GET /api/market
func (h *SnapshotHandler) Market(w http.ResponseWriter, r *http.Request) {
	m, err := h.snapshots.Market(r.Context(), envFrom(r))
	if err != nil {
		writeServiceError(w, r, h.logger, "market", err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// Portfolio returns the latest portfolio snapshot.
// GET /api/portfolio
func (h *SnapshotHandler) Portfolio(w http.ResponseWriter, r *http.Request) {
	p, err := h.snapshots.Portfolio(r.Context(), envFrom(r))
	if err != nil {
		writeServiceError(w, r, h.logger, "portfolio", err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Performance returns daily stats in chronological order.
// GET /api/performance?days
func (h *SnapshotHandler) Performance(w http.ResponseWriter, r *http.Request) {
	days, err := queryInt(r, "days", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, "performance query", err)
		return
	}

	stats, err := h.snapshots.Performance(r.Context(), envFrom(r), days)
	if err != nil {
		writeServiceError(w, r, h.logger, "performance", err)
		return
	}
	if stats == nil {
		stats = []domain.DailyStat{}
	}
	writeJSON(w, http.StatusOK, stats)
}
