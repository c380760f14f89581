package web

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

var printer = message.NewPrinter(language.English)

// Money renders v as US dollars with grouped thousands, e.g. "$1,234.56".
func Money(v float64) string {
	if v < 0 {
		return printer.Sprintf("-$%.2f", -v)
	}
	return printer.Sprintf("$%.2f", v)
}

// SignedMoney is Money with an explicit plus sign for gains.
func SignedMoney(v float64) string {
	if v > 0 {
		return "+" + Money(v)
	}
	return Money(v)
}

// Price renders a quote with precision that suits its magnitude.
func Price(v float64) string {
	switch a := math.Abs(v); {
	case a == 0:
		return "0"
	case a < 1:
		return printer.Sprintf("%.6f", v)
	case a < 100:
		return printer.Sprintf("%.4f", v)
	default:
		return printer.Sprintf("%.2f", v)
	}
}

// OptPrice renders a nullable price, "-" when absent.
func OptPrice(v *float64) string {
	if v == nil {
		return "-"
	}
	return Price(*v)
}

// Pct renders a signed percentage, e.g. "+1.23%".
func Pct(v float64) string {
	return fmt.Sprintf("%+.2f%%", v)
}

// OptPct renders a nullable percentage, "-" when absent.
func OptPct(v *float64) string {
	if v == nil {
		return "-"
	}
	return Pct(*v)
}

// Compact renders large totals as "$1.23T", "$456.7B" and so on.
func Compact(v float64) string {
	n, unit := humanize.ComputeSI(v)
	switch unit {
	case "G":
		unit = "B"
	case "k":
		unit = "K"
	}
	return fmt.Sprintf("$%.2f%s", n, unit)
}

// Count renders an integer with grouped thousands.
func Count(n any) string {
	switch v := n.(type) {
	case int:
		return humanize.Comma(int64(v))
	case int64:
		return humanize.Comma(v)
	default:
		return fmt.Sprint(n)
	}
}

// Tone returns the CSS class for the sign of v.
func Tone(v float64) string {
	switch {
	case v > 0:
		return "up"
	case v < 0:
		return "down"
	default:
		return "flat"
	}
}

// OptTone is Tone for a nullable value.
func OptTone(v *float64) string {
	if v == nil {
		return "flat"
	}
	return Tone(*v)
}

var exitLabels = map[domain.ExitReason]string{
	domain.ExitStopLoss:     "Stop Loss Hit",
	domain.ExitTakeProfit1:  "Take Profit 1 Hit",
	domain.ExitTakeProfit2:  "Take Profit 2 Hit",
	domain.ExitManual:       "Manual Close",
	domain.ExitTrailingStop: "Trailing Stop Hit",
	domain.ExitBreakeven:    "Breakeven",
	domain.ExitTimeExpiry:   "Time Expiry",
}

// ExitLabel returns the display label of an exit reason. Unknown reasons
// are shown as stored.
func ExitLabel(r domain.ExitReason) string {
	if l, ok := exitLabels[r]; ok {
		return l
	}
	return string(r)
}

// OptExitLabel is ExitLabel for a nullable reason.
func OptExitLabel(r *domain.ExitReason) string {
	if r == nil {
		return "-"
	}
	return ExitLabel(*r)
}

// ConfidenceClass returns the badge class of a confidence level.
func ConfidenceClass(c *domain.Confidence) string {
	if c == nil {
		return "badge"
	}
	switch *c {
	case domain.ConfidenceHigh:
		return "badge badge-high"
	case domain.ConfidenceMedium:
		return "badge badge-medium"
	case domain.ConfidenceLow:
		return "badge badge-low"
	}
	return "badge"
}

// FearGreedBand names the sentiment band of a fear-greed index value.
func FearGreedBand(v int) string {
	switch {
	case v < 25:
		return "extreme-fear"
	case v < 45:
		return "fear"
	case v < 55:
		return "neutral"
	case v < 75:
		return "greed"
	default:
		return "extreme-greed"
	}
}

// TradeDuration is the time from entry to exit, or to now while open,
// rendered as "3d 4h", "5h 12m" or "9m".
func TradeDuration(p domain.Position, now time.Time) string {
	end := now
	if p.ExitTimestamp != nil {
		end = *p.ExitTimestamp
	}
	d := end.Sub(p.EntryTimestamp)
	if d < 0 {
		d = 0
	}
	days := int(d / (24 * time.Hour))
	hours := int(d % (24 * time.Hour) / time.Hour)
	mins := int(d % time.Hour / time.Minute)
	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh", days, hours)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, mins)
	default:
		return fmt.Sprintf("%dm", mins)
	}
}

// Ago renders t relative to now, e.g. "3 minutes ago".
func Ago(t time.Time) string {
	return humanize.Time(t)
}

// Timestamp renders t in UTC as "2006-01-02 15:04".
func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04")
}

// OptTimestamp renders a nullable time, "-" when absent.
func OptTimestamp(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return Timestamp(*t)
}

// Title turns an upper snake case value into words, e.g. "BULL_FLAG" to
// "Bull Flag".
func Title(s string) string {
	words := strings.Fields(strings.ReplaceAll(strings.ToLower(s), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
