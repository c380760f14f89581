package domain

import "time"

// PositionStatus is the lifecycle state written by the trading engine.
type PositionStatus string

const (
	PositionStatusOpen   PositionStatus = "OPEN"
	PositionStatusClosed PositionStatus = "CLOSED"
)

// ExitReason records why a closed position was exited.
type ExitReason string

const (
	ExitStopLoss     ExitReason = "STOP_LOSS"
	ExitTakeProfit1  ExitReason = "TAKE_PROFIT_1"
	ExitTakeProfit2  ExitReason = "TAKE_PROFIT_2"
	ExitManual       ExitReason = "MANUAL"
	ExitTrailingStop ExitReason = "TRAILING_STOP"
	ExitBreakeven    ExitReason = "BREAKEVEN"
	ExitTimeExpiry   ExitReason = "TIME_EXPIRY"
)

// ExitReasons lists every exit reason the engine emits.
var ExitReasons = []ExitReason{
	ExitStopLoss, ExitTakeProfit1, ExitTakeProfit2, ExitManual,
	ExitTrailingStop, ExitBreakeven, ExitTimeExpiry,
}

// Position is one trade. Columns the engine may leave null are pointers.
type Position struct {
	ID               int64          `json:"id"`
	Symbol           string         `json:"symbol"`
	EntryPrice       float64        `json:"entry_price"`
	ExitPrice        *float64       `json:"exit_price"`
	Quantity         float64        `json:"quantity"`
	EntryValue       *float64       `json:"entry_value"`
	StopLoss         *float64       `json:"stop_loss"`
	TakeProfit1      *float64       `json:"take_profit_1"`
	TakeProfit2      *float64       `json:"take_profit_2"`
	CurrentPrice     *float64       `json:"current_price"`
	UnrealizedPnL    *float64       `json:"unrealized_pnl"`
	UnrealizedPnLPct *float64       `json:"unrealized_pnl_pct"`
	RealizedPnL      *float64       `json:"realized_pnl"`
	RealizedPnLPct   *float64       `json:"realized_pnl_pct"`
	EntryTimestamp   time.Time      `json:"entry_timestamp"`
	ExitTimestamp    *time.Time     `json:"exit_timestamp"`
	ExitReason       *ExitReason    `json:"exit_reason"`
	Status           PositionStatus `json:"status"`
	SignalID         *int64         `json:"signal_id"`
}

// IsOpen reports whether the position is still live.
func (p Position) IsOpen() bool { return p.Status == PositionStatusOpen }

// PnL returns realized P&L for closed positions and unrealized P&L for
// open ones, with the matching percentage. Missing values are zero.
func (p Position) PnL() (amount, pct float64) {
	if p.IsOpen() {
		return deref(p.UnrealizedPnL), deref(p.UnrealizedPnLPct)
	}
	return deref(p.RealizedPnL), deref(p.RealizedPnLPct)
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
