package domain

import "time"

// Confidence is the model's self-rated certainty in a setup.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// AnalysisLog is one AI analysis invocation.
type AnalysisLog struct {
	ID               int64       `json:"id"`
	Symbol           string      `json:"symbol"`
	Timestamp        time.Time   `json:"timestamp"`
	SetupFound       bool        `json:"setup_found"`
	SetupType        *string     `json:"setup_type"`
	Bias             *string     `json:"bias"`
	Confidence       *Confidence `json:"confidence"`
	EntryPrice       *float64    `json:"entry_price"`
	StopLoss         *float64    `json:"stop_loss"`
	TakeProfit1      *float64    `json:"take_profit_1"`
	TakeProfit2      *float64    `json:"take_profit_2"`
	RiskReward       *float64    `json:"risk_reward"`
	TokensUsed       *int64      `json:"tokens_used"`
	CostUSD          *float64    `json:"cost_usd"`
	LatencyMS        *int64      `json:"latency_ms,omitempty"`
	PromptVersion    *string     `json:"prompt_version,omitempty"`
	ResponseReceived *string     `json:"response_received,omitempty"`
}

// AnalysisListOpts filters the analysis list.
type AnalysisListOpts struct {
	Limit      int
	SetupFound *bool
}
