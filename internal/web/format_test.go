package web

import (
	"testing"
	"time"

	"github.com/alanyoungcy/tradedash/internal/domain"
)

func TestMoney(t *testing.T) {
	tests := map[float64]string{
		0:          "$0.00",
		1234.5:     "$1,234.50",
		-98765.432: "-$98,765.43",
	}
	for in, want := range tests {
		if got := Money(in); got != want {
			t.Errorf("Money(%v) = %q, want %q", in, got, want)
		}
	}
	if got := SignedMoney(12); got != "+$12.00" {
		t.Errorf("SignedMoney = %q", got)
	}
}

func TestPctAndPrice(t *testing.T) {
	if got := Pct(1.234); got != "+1.23%" {
		t.Errorf("Pct = %q", got)
	}
	if got := Pct(-0.5); got != "-0.50%" {
		t.Errorf("Pct = %q", got)
	}
	if got := OptPct(nil); got != "-" {
		t.Errorf("OptPct(nil) = %q", got)
	}
	if got := Price(64250.5); got != "64,250.50" {
		t.Errorf("Price = %q", got)
	}
	if got := Price(0.123456789); got != "0.123457" {
		t.Errorf("Price = %q", got)
	}
}

func TestExitLabels(t *testing.T) {
	for _, r := range domain.ExitReasons {
		if ExitLabel(r) == string(r) {
			t.Errorf("exit reason %s has no label", r)
		}
	}
	if got := ExitLabel(domain.ExitBreakeven); got != "Breakeven" {
		t.Errorf("BREAKEVEN = %q", got)
	}
	if got := ExitLabel("LIQUIDATED"); got != "LIQUIDATED" {
		t.Errorf("unknown reason = %q", got)
	}
	if got := OptExitLabel(nil); got != "-" {
		t.Errorf("nil reason = %q", got)
	}
}

func TestFearGreedBand(t *testing.T) {
	tests := map[int]string{
		0: "extreme-fear", 24: "extreme-fear",
		25: "fear", 44: "fear",
		45: "neutral", 54: "neutral",
		55: "greed", 74: "greed",
		75: "extreme-greed", 100: "extreme-greed",
	}
	for in, want := range tests {
		if got := FearGreedBand(in); got != want {
			t.Errorf("FearGreedBand(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestTradeDuration(t *testing.T) {
	entry := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	exit := entry.Add(50*time.Hour + 30*time.Minute)

	closed := domain.Position{EntryTimestamp: entry, ExitTimestamp: &exit}
	if got := TradeDuration(closed, time.Time{}); got != "2d 2h" {
		t.Errorf("closed = %q", got)
	}
	open := domain.Position{EntryTimestamp: entry}
	if got := TradeDuration(open, entry.Add(3*time.Hour+7*time.Minute)); got != "3h 7m" {
		t.Errorf("open = %q", got)
	}
	if got := TradeDuration(open, entry.Add(-time.Hour)); got != "0m" {
		t.Errorf("clock skew = %q", got)
	}
}

func TestTitleAndTone(t *testing.T) {
	if got := Title("BULL_FLAG_breakout"); got != "Bull Flag Breakout" {
		t.Errorf("Title = %q", got)
	}
	if Tone(1) != "up" || Tone(-1) != "down" || Tone(0) != "flat" {
		t.Error("Tone mismatch")
	}
	if got := Compact(2_450_000_000_000); got != "$2.45T" {
		t.Errorf("Compact = %q", got)
	}
	if got := Count(int64(1234567)); got != "1,234,567" {
		t.Errorf("Count = %q", got)
	}
}
