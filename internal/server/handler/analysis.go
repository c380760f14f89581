package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

// AnalysisService defines the methods that the analysis handler requires.
type AnalysisService interface {
	List(ctx context.Context, env domain.Environment, opts domain.AnalysisListOpts) ([]domain.AnalysisLog, error)
	Get(ctx context.Context, env domain.Environment, id int64) (domain.AnalysisLog, error)
}

// AnalysisHandler serves the AI analysis log.
type AnalysisHandler struct {
	analyses AnalysisService
	logger   *slog.Logger
}

// NewAnalysisHandler creates an AnalysisHandler.
func NewAnalysisHandler(analyses AnalysisService, logger *slog.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		analyses: analyses,
		logger:   logHandler(logger, "analysis"),
	}
}

type analysisQuery struct {
	Limit      int    `query:"limit" validate:"gte=0"`
	SetupFound string `query:"setup_found" validate:"omitempty,oneof=true false"`
}

// parseAnalysisOpts reads limit and setup_found. A zero limit lets the
// service apply its default.
func parseAnalysisOpts(r *http.Request, defLimit int) (domain.AnalysisListOpts, string, error) {
	limit, err := queryInt(r, "limit", defLimit)
	if err != nil {
		return domain.AnalysisListOpts{}, "", err
	}
	q := analysisQuery{
		Limit:      limit,
		SetupFound: strings.ToLower(strings.TrimSpace(r.URL.Query().Get("setup_found"))),
	}
	if err := validateQuery(q); err != nil {
		return domain.AnalysisListOpts{}, q.SetupFound, err
	}

	opts := domain.AnalysisListOpts{Limit: q.Limit}
	if q.SetupFound != "" {
		found := q.SetupFound == "true"
		opts.SetupFound = &found
	}
	return opts, q.SetupFound, nil
}

// List returns analyses newest first.
// GET /api/analysis?limit&setup_found
func (h *AnalysisHandler) List(w http.ResponseWriter, r *http.Request) {
	opts, _, err := parseAnalysisOpts(r, 0)
	if err != nil {
		writeServiceError(w, r, h.logger, "analysis query", err)
		return
	}

	logs, err := h.analyses.List(r.Context(), envFrom(r), opts)
	if err != nil {
		writeServiceError(w, r, h.logger, "list analyses", err)
		return
	}
	if logs == nil {
		logs = []domain.AnalysisLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// Get returns one analysis including its raw model response.
// GET /api/analysis/{id}
func (h *AnalysisHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeServiceError(w, r, h.logger, "analysis id", err)
		return
	}

	a, err := h.analyses.Get(r.Context(), envFrom(r), id)
	if err != nil {
		writeServiceError(w, r, h.logger, "get analysis", err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}
