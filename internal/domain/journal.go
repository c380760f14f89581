package domain

import "time"

// JournalAnalysis is the slice of an analysis log attached to a journal entry.
type JournalAnalysis struct {
	SetupType        *string     `json:"setup_type"`
	Confidence       *Confidence `json:"confidence"`
	RiskReward       *float64    `json:"risk_reward"`
	ResponseReceived *string     `json:"response_received"`
}

// JournalEntry is a position joined with its originating analysis.
type JournalEntry struct {
	Position
	Analysis *JournalAnalysis `json:"analysis"`
}

// Outcome filters closed positions by the sign of realized P&L.
type Outcome string

const (
	OutcomeAll    Outcome = ""
	OutcomeWins   Outcome = "wins"
	OutcomeLosses Outcome = "losses"
)

// JournalFilter narrows the journal. Nil fields do not filter.
type JournalFilter struct {
	Symbol     string
	Status     *PositionStatus
	Outcome    Outcome
	ExitReason *ExitReason
	Confidence *Confidence
	From       *time.Time
	To         *time.Time
}

// JournalSummary aggregates a journal page.
type JournalSummary struct {
	Total         int
	Open          int
	Wins          int
	Losses        int
	WinRate       float64
	RealizedPnL   float64
	UnrealizedPnL float64
	TotalPnL      float64
}
