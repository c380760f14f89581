package domain

import "time"

// Portfolio is the engine's singleton account snapshot.
type Portfolio struct {
	ID             int64      `json:"id"`
	TotalEquity    float64    `json:"total_equity"`
	AvailableFunds float64    `json:"available_funds"`
	ReservedFunds  float64    `json:"reserved_funds"`
	TotalPnL       float64    `json:"total_pnl"`
	TotalTrades    int        `json:"total_trades"`
	WinningTrades  int        `json:"winning_trades"`
	LosingTrades   int        `json:"losing_trades"`
	UpdatedAt      *time.Time `json:"updated_at"`
}

// WinRate returns winning trades as a percentage of all trades.
func (p Portfolio) WinRate() float64 {
	if p.TotalTrades == 0 {
		return 0
	}
	return float64(p.WinningTrades) / float64(p.TotalTrades) * 100
}

// DailyStat is one day of account performance.
type DailyStat struct {
	Date         time.Time `json:"date"`
	PnL          float64   `json:"pnl"`
	PnLPct       float64   `json:"pnl_pct"`
	EndingEquity float64   `json:"ending_equity"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	TradesTaken  int       `json:"trades_taken"`
}
