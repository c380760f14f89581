// Package chart builds the trade chart model consumed by the browser
// candlestick renderer: price-line overlays and coloured volume bars.
package chart

import "github.com/alanyoungcy/tradedash/internal/domain"

// LineStyle mirrors the renderer's line style enum.
type LineStyle int

const (
	LineSolid  LineStyle = 0
	LineDotted LineStyle = 1
	LineDashed LineStyle = 2
)

const (
	colorEntry   = "#3b82f6"
	colorStop    = "#ef4444"
	colorTarget  = "#22c55e"
	colorExit    = "#f97316"
	colorCurrent = "#06b6d4"

	volumeUp   = "rgba(34, 197, 94, 0.5)"
	volumeDown = "rgba(239, 68, 68, 0.5)"
)

// PriceLine is one horizontal overlay.
type PriceLine struct {
	Price            float64   `json:"price"`
	Color            string    `json:"color"`
	LineWidth        int       `json:"lineWidth"`
	LineStyle        LineStyle `json:"lineStyle"`
	AxisLabelVisible bool      `json:"axisLabelVisible"`
	Title            string    `json:"title"`
}

// PriceLines returns the overlays for p. Entry, stop-loss and TP1 are always
// drawn when set; TP2 only when present. A closed trade shows its exit, an
// open trade its current price.
func PriceLines(p domain.Position) []PriceLine {
	lines := []PriceLine{line(p.EntryPrice, colorEntry, 2, LineSolid, "Entry")}

	if p.StopLoss != nil {
		lines = append(lines, line(*p.StopLoss, colorStop, 1, LineDashed, "SL"))
	}
	if p.TakeProfit1 != nil {
		lines = append(lines, line(*p.TakeProfit1, colorTarget, 1, LineDashed, "TP1"))
	}
	if p.TakeProfit2 != nil {
		lines = append(lines, line(*p.TakeProfit2, colorTarget, 1, LineDashed, "TP2"))
	}

	switch p.Status {
	case domain.PositionStatusClosed:
		if p.ExitPrice != nil {
			lines = append(lines, line(*p.ExitPrice, colorExit, 2, LineSolid, "Exit"))
		}
	case domain.PositionStatusOpen:
		if p.CurrentPrice != nil {
			lines = append(lines, line(*p.CurrentPrice, colorCurrent, 1, LineDotted, "Current"))
		}
	}
	return lines
}

func line(price float64, color string, width int, style LineStyle, title string) PriceLine {
	return PriceLine{
		Price:            price,
		Color:            color,
		LineWidth:        width,
		LineStyle:        style,
		AxisLabelVisible: true,
		Title:            title,
	}
}

// VolumeBar is one histogram point.
type VolumeBar struct {
	Time  int64   `json:"time"`
	Value float64 `json:"value"`
	Color string  `json:"color"`
}

// VolumeBars colours each candle's volume green when it closed at or above
// its open and red otherwise.
func VolumeBars(candles []domain.Candle) []VolumeBar {
	bars := make([]VolumeBar, len(candles))
	for i, c := range candles {
		color := volumeDown
		if c.Close >= c.Open {
			color = volumeUp
		}
		bars[i] = VolumeBar{Time: c.Time, Value: c.Volume, Color: color}
	}
	return bars
}

// Model is the full chart payload for one trade. Candles and Volume hold
// the initial timeframe; the browser re-fetches /api/candles on change and
// colours volume with VolumeColors.
type Model struct {
	Symbol       string             `json:"symbol"`
	Timeframe    domain.Timeframe   `json:"timeframe"`
	Timeframes   []domain.Timeframe `json:"timeframes"`
	Limit        int                `json:"limit"`
	PriceLines   []PriceLine        `json:"priceLines"`
	Candles      []domain.Candle    `json:"candles"`
	Volume       []VolumeBar        `json:"volume"`
	VolumeColors [2]string          `json:"volumeColors"`
}

// DefaultCandleLimit is how many candles the trade chart requests.
const DefaultCandleLimit = 200

// NewModel builds the chart model for p at tf with the initial candles.
func NewModel(p domain.Position, tf domain.Timeframe, candles []domain.Candle) Model {
	if candles == nil {
		candles = []domain.Candle{}
	}
	return Model{
		Symbol:       p.Symbol,
		Timeframe:    tf,
		Timeframes:   domain.Timeframes,
		Limit:        DefaultCandleLimit,
		PriceLines:   PriceLines(p),
		Candles:      candles,
		Volume:       VolumeBars(candles),
		VolumeColors: [2]string{volumeUp, volumeDown},
	}
}
