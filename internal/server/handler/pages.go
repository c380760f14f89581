package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/tradedash/internal/auth"
	"github.com/alanyoungcy/tradedash/internal/chart"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/service"
	"github.com/alanyoungcy/tradedash/internal/web"
)

// DashboardService defines the overview the dashboard page requires.
type DashboardService interface {
	Overview(ctx context.Context, env domain.Environment) service.Overview
}

// PageServices groups the reads the HTML pages are built from.
type PageServices struct {
	Dashboard DashboardService
	Positions PositionService
	Analyses  AnalysisService
	Journal   JournalService
	Candles   CandleService
}

// PageHandler renders the server-side pages.
type PageHandler struct {
	svc     PageServices
	pages   *web.Renderer
	version string
	logger  *slog.Logger
}

// NewPageHandler creates a PageHandler.
func NewPageHandler(svc PageServices, pages *web.Renderer, version string, logger *slog.Logger) *PageHandler {
	return &PageHandler{
		svc:     svc,
		pages:   pages,
		version: version,
		logger:  logHandler(logger, "pages"),
	}
}

// Dashboard renders the overview. Missing resources render as empty cards.
// GET /{$}
func (h *PageHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ov := h.svc.Dashboard.Overview(r.Context(), envFrom(r))
	h.render(w, r, web.PageDashboard, "Dashboard", web.DashboardView{Overview: ov})
}

// Positions renders the live open-positions table.
// GET /positions
func (h *PageHandler) Positions(w http.ResponseWriter, r *http.Request) {
	positions, err := h.svc.Positions.ListOpen(r.Context(), envFrom(r))
	if err != nil {
		h.fail(w, r, "positions", err)
		return
	}
	h.render(w, r, web.PagePositions, "Positions", web.PositionsView{Positions: positions})
}

// AnalysisList renders recent analyses.
// GET /analysis
func (h *PageHandler) AnalysisList(w http.ResponseWriter, r *http.Request) {
	opts, setupFound, err := parseAnalysisOpts(r, analysisPageLimit)
	if err != nil {
		h.fail(w, r, "analysis query", err)
		return
	}
	logs, err := h.svc.Analyses.List(r.Context(), envFrom(r), opts)
	if err != nil {
		h.fail(w, r, "analysis list", err)
		return
	}
	h.render(w, r, web.PageAnalysis, "AI Analysis", web.AnalysisListView{Logs: logs, SetupFound: setupFound})
}

// analysisPageLimit is the page's default row count.
const analysisPageLimit = 50

// AnalysisDetail renders one analysis with its parsed narrative.
// GET /analysis/{id}
func (h *PageHandler) AnalysisDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "analysis id", err)
		return
	}
	a, err := h.svc.Analyses.Get(r.Context(), envFrom(r), id)
	if err != nil {
		h.fail(w, r, "analysis detail", err)
		return
	}
	h.renderNav(w, r, web.PageAnalysisDetail, "Analysis "+a.Symbol, web.PageAnalysis, web.NewAnalysisDetailView(a))
}

// Journal renders the filtered trade journal with its summary.
// GET /journal
func (h *PageHandler) Journal(w http.ResponseWriter, r *http.Request) {
	filter, form, err := parseJournalFilter(r)
	if err != nil {
		h.fail(w, r, "journal filter", err)
		return
	}
	entries, err := h.svc.Journal.List(r.Context(), envFrom(r), filter)
	if err != nil {
		h.fail(w, r, "journal", err)
		return
	}
	h.render(w, r, web.PageJournal, "Journal", web.JournalView{
		Entries:     entries,
		Summary:     service.Summarize(entries),
		Filter:      form,
		ExitReasons: domain.ExitReasons,
		Confidences: []domain.Confidence{domain.ConfidenceHigh, domain.ConfidenceMedium, domain.ConfidenceLow},
	})
}

// Trade renders one journal entry with its chart. A candle failure still
// renders the page; the chart fetches again client-side.
// GET /journal/{id}
func (h *PageHandler) Trade(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, "trade id", err)
		return
	}
	env := envFrom(r)
	entry, err := h.svc.Journal.Get(r.Context(), env, id)
	if err != nil {
		h.fail(w, r, "trade", err)
		return
	}

	tf := domain.ParseTimeframe(r.URL.Query().Get("timeframe"))
	candles, err := h.svc.Candles.List(r.Context(), env, entry.Symbol, tf, chart.DefaultCandleLimit)
	if err != nil {
		h.logger.WarnContext(r.Context(), "trade candles unavailable",
			slog.Int64("position_id", id),
			slog.String("symbol", entry.Symbol),
			slog.String("error", err.Error()),
		)
		candles = nil
	}
	h.renderNav(w, r, web.PageTrade, entry.Symbol+" trade", web.PageJournal, web.NewTradeView(entry, tf, candles))
}

// Settings renders the settings page.
// GET /settings
func (h *PageHandler) Settings(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, web.PageSettings, "Settings", web.SettingsView{Version: h.version})
}

// NotFound renders the 404 page for unmatched routes.
func (h *PageHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.renderError(w, r, http.StatusNotFound, "Page not found.")
}

func (h *PageHandler) render(w http.ResponseWriter, r *http.Request, page, title string, data any) {
	h.renderNav(w, r, page, title, page, data)
}

func (h *PageHandler) renderNav(w http.ResponseWriter, r *http.Request, page, title, nav string, data any) {
	h.pages.Render(w, http.StatusOK, page, h.base(r, title, nav, data))
}

func (h *PageHandler) base(r *http.Request, title, nav string, data any) web.Page {
	p := web.Page{
		Title: title,
		Nav:   nav,
		Env:   envFrom(r),
		Theme: themeFrom(r),
		Data:  data,
	}
	if u, ok := auth.UserFromContext(r.Context()); ok {
		p.User = u.Email
	}
	return p
}

// fail renders the error page for err.
func (h *PageHandler) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "page "+op+" failed",
			slog.String("error", msg),
		)
		msg = backendMessage(err)
	}
	if errors.Is(err, domain.ErrNotFound) {
		msg = "Not found."
	}
	h.renderError(w, r, status, msg)
}

func (h *PageHandler) renderError(w http.ResponseWriter, r *http.Request, status int, msg string) {
	p := h.base(r, http.StatusText(status), "", web.ErrorView{Status: status, Message: msg})
	p.Bare = true
	h.pages.Render(w, status, web.PageError, p)
}

// themeFrom reads the theme cookie.
func themeFrom(r *http.Request) string {
	c, err := r.Cookie(web.ThemeCookie)
	if err != nil {
		return web.ThemeDark
	}
	return web.ParseTheme(c.Value)
}
