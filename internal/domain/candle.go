package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Timeframe is a candle resolution.
type Timeframe string

const (
	Timeframe1h Timeframe = "1h"
	Timeframe4h Timeframe = "4h"
	Timeframe1d Timeframe = "1d"

	DefaultTimeframe = Timeframe4h
)

// Timeframes lists the supported resolutions.
var Timeframes = []Timeframe{Timeframe1h, Timeframe4h, Timeframe1d}

// ParseTimeframe maps s to a supported timeframe, falling back to 4h.
func ParseTimeframe(s string) Timeframe {
	switch tf := Timeframe(s); tf {
	case Timeframe1h, Timeframe4h, Timeframe1d:
		return tf
	default:
		return DefaultTimeframe
	}
}

// CandleRow is an OHLCV row as stored, with numeric columns kept exact.
type CandleRow struct {
	Timestamp time.Time
	Open      decimal.Decimal
	High      decimal.Decimal
	Low       decimal.Decimal
	Close     decimal.Decimal
	Volume    decimal.Decimal
}

// Candle is the chart-ready form of a CandleRow.
type Candle struct {
	Time   int64   `json:"time"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}
