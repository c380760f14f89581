package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/web"
)

// JournalService defines the methods that the journal handler requires.
type JournalService interface {
	List(ctx context.Context, env domain.Environment, filter domain.JournalFilter) ([]domain.JournalEntry, error)
	Get(ctx context.Context, env domain.Environment, id int64) (domain.JournalEntry, error)
}

// JournalHandler serves the trade journal API.
type JournalHandler struct {
	journal JournalService
	logger  *slog.Logger
}

// NewJournalHandler creates a JournalHandler.
func NewJournalHandler(journal JournalService, logger *slog.Logger) *JournalHandler {
	return &JournalHandler{
		journal: journal,
		logger:  logHandler(logger, "journal"),
	}
}

// List returns positions joined with their analyses.
// GET /api/journal?symbol&status&winOnly&exitReason&confidence&from&to
func (h *JournalHandler) List(w http.ResponseWriter, r *http.Request) {
	filter, _, err := parseJournalFilter(r)
	if err != nil {
		writeServiceError(w, r, h.logger, "journal filter", err)
		return
	}

	entries, err := h.journal.List(r.Context(), envFrom(r), filter)
	if err != nil {
		writeServiceError(w, r, h.logger, "list journal", err)
		return
	}
	if entries == nil {
		entries = []domain.JournalEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// journalQuery is the raw journal query string after normalisation.
type journalQuery struct {
	Symbol     string `query:"symbol" validate:"max=32"`
	Status     string `query:"status" validate:"oneof=all open closed"`
	WinOnly    string `query:"winOnly" validate:"oneof=all wins losses"`
	ExitReason string `query:"exitReason" validate:"oneof=ALL STOP_LOSS TAKE_PROFIT_1 TAKE_PROFIT_2 MANUAL TRAILING_STOP BREAKEVEN TIME_EXPIRY"`
	Confidence string `query:"confidence" validate:"oneof=ALL HIGH MEDIUM LOW"`
	From       string `query:"from"`
	To         string `query:"to"`
}

// parseJournalFilter reads the journal filters shared by the API and the
// journal page. The returned form echoes the request for re-rendering.
func parseJournalFilter(r *http.Request) (domain.JournalFilter, web.JournalFilterForm, error) {
	v := r.URL.Query()
	q := journalQuery{
		Symbol:     strings.TrimSpace(v.Get("symbol")),
		Status:     orAll(strings.ToLower(v.Get("status"))),
		WinOnly:    orAll(strings.ToLower(v.Get("winOnly"))),
		ExitReason: strings.ToUpper(orAll(v.Get("exitReason"))),
		Confidence: strings.ToUpper(orAll(v.Get("confidence"))),
		From:       strings.TrimSpace(v.Get("from")),
		To:         strings.TrimSpace(v.Get("to")),
	}
	form := web.JournalFilterForm{
		Symbol:     q.Symbol,
		Status:     q.Status,
		WinOnly:    q.WinOnly,
		ExitReason: q.ExitReason,
		Confidence: q.Confidence,
		From:       q.From,
		To:         q.To,
	}
	if err := validateQuery(q); err != nil {
		return domain.JournalFilter{}, form, err
	}

	filter := domain.JournalFilter{Symbol: q.Symbol}
	switch q.Status {
	case "open":
		s := domain.PositionStatusOpen
		filter.Status = &s
	case "closed":
		s := domain.PositionStatusClosed
		filter.Status = &s
	}
	switch q.WinOnly {
	case "wins":
		filter.Outcome = domain.OutcomeWins
	case "losses":
		filter.Outcome = domain.OutcomeLosses
	}
	if q.ExitReason != "ALL" {
		er := domain.ExitReason(q.ExitReason)
		filter.ExitReason = &er
	}
	if q.Confidence != "ALL" {
		c := domain.Confidence(q.Confidence)
		filter.Confidence = &c
	}

	var err error
	if filter.From, err = parseBound("from", q.From, false); err != nil {
		return domain.JournalFilter{}, form, err
	}
	if filter.To, err = parseBound("to", q.To, true); err != nil {
		return domain.JournalFilter{}, form, err
	}
	return filter, form, nil
}

func orAll(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "all"
	}
	return s
}

// parseBound accepts RFC 3339 or a bare date. A bare upper bound covers the
// whole day.
func parseBound(name, s string, upper bool) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q: %w", name, s, domain.ErrInvalidInput)
	}
	if upper {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
