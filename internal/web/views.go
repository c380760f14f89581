package web

import (
	"github.com/alanyoungcy/tradedash/internal/airesponse"
	"github.com/alanyoungcy/tradedash/internal/chart"
	"github.com/alanyoungcy/tradedash/internal/domain"
	"github.com/alanyoungcy/tradedash/internal/service"
)

// DashboardView backs the home page.
type DashboardView struct {
	service.Overview
}

// WinRate is the portfolio win rate, zero when the card failed to load.
func (v DashboardView) WinRate() float64 {
	if v.Portfolio == nil {
		return 0
	}
	return v.Portfolio.WinRate()
}

// Equity is the equity curve as chart points.
func (v DashboardView) Equity() []EquityPoint {
	return EquityCurve(v.Performance)
}

// EquityPoint is one day on the equity curve.
type EquityPoint struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// EquityCurve maps daily stats to ending-equity points.
func EquityCurve(stats []domain.DailyStat) []EquityPoint {
	out := make([]EquityPoint, len(stats))
	for i, s := range stats {
		out[i] = EquityPoint{Time: s.Date.Format("2006-01-02"), Value: s.EndingEquity}
	}
	return out
}

// PositionsView backs the live positions page.
type PositionsView struct {
	Positions []domain.Position
}

// AnalysisListView backs the analysis list.
type AnalysisListView struct {
	Logs       []domain.AnalysisLog
	SetupFound string
}

// AnalysisDetailView backs one analysis log.
type AnalysisDetailView struct {
	Log       domain.AnalysisLog
	Narrative *airesponse.Narrative
	Raw       string
}

// NewAnalysisDetailView parses the log's response text.
func NewAnalysisDetailView(log domain.AnalysisLog) AnalysisDetailView {
	v := AnalysisDetailView{Log: log}
	if log.ResponseReceived == nil {
		return v
	}
	res := airesponse.Parse(*log.ResponseReceived)
	if n, ok := res.Narrative(); ok {
		v.Narrative = n
	} else {
		v.Raw = res.Raw()
	}
	return v
}

// JournalFilterForm echoes the journal filters back into the form.
type JournalFilterForm struct {
	Symbol     string
	Status     string
	WinOnly    string
	ExitReason string
	Confidence string
	From       string
	To         string
}

// JournalView backs the journal page.
type JournalView struct {
	Entries     []domain.JournalEntry
	Summary     domain.JournalSummary
	Filter      JournalFilterForm
	ExitReasons []domain.ExitReason
	Confidences []domain.Confidence
}

// TradeView backs the trade detail page.
type TradeView struct {
	Entry     domain.JournalEntry
	Chart     chart.Model
	Narrative *airesponse.Narrative
	Raw       string
}

// NewTradeView builds the trade page for entry with its initial candles.
func NewTradeView(entry domain.JournalEntry, tf domain.Timeframe, candles []domain.Candle) TradeView {
	v := TradeView{
		Entry: entry,
		Chart: chart.NewModel(entry.Position, tf, candles),
	}
	if entry.Analysis != nil && entry.Analysis.ResponseReceived != nil {
		res := airesponse.Parse(*entry.Analysis.ResponseReceived)
		if n, ok := res.Narrative(); ok {
			v.Narrative = n
		} else {
			v.Raw = res.Raw()
		}
	}
	return v
}

// SettingsView backs the settings page.
type SettingsView struct {
	Version string
}

// LoginView backs the login form.
type LoginView struct {
	Email string
	Next  string
	Error string
}

// ErrorView backs the error page.
type ErrorView struct {
	Status  int
	Message string
}
