package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// CandleService defines the methods that the candle handler requires.
type CandleService interface {
	List(ctx context.Context, env domain.Environment, symbol string, tf domain.Timeframe, limit int) ([]domain.Candle, error)
}

// CandleHandler serves chart candles.
type CandleHandler struct {
	candles CandleService
	logger  *slog.Logger
}

// NewCandleHandler creates a CandleHandler.
func NewCandleHandler(candles CandleService, logger *slog.Logger) *CandleHandler {
	return &CandleHandler{
		candles: candles,
		logger:  logHandler(logger, "candles"),
	}
}

// List returns the newest candles in ascending time order.
// GET /api/candles?symbol&timeframe&limit
func (h *CandleHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := queryInt(r, "limit", 0)
	if err != nil {
		writeServiceError(w, r, h.logger, "candles query", err)
		return
	}

	candles, err := h.candles.List(r.Context(), envFrom(r), q.Get("symbol"), domain.ParseTimeframe(q.Get("timeframe")), limit)
	if err != nil {
		writeServiceError(w, r, h.logger, "list candles", err)
		return
	}
	if candles == nil {
		candles = []domain.Candle{}
	}
	writeJSON(w, http.StatusOK, candles)
}
