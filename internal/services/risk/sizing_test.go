package risk

import (
	"errors"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
)

func TestPositionSize_CapRule(t *testing.T) {
	// riskAmount=200, perShareRisk=5 -> 40 shares worth 4000, which
	// breaches the 20% cap (2000) and is trimmed to 20 shares.
	res, err := PositionSize(10000, 0.02, 100, 95)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RiskAmount != 200 || res.PerShareRisk != 5 {
		t.Fatalf("unexpected risk inputs: %+v", res)
	}
	if !res.Capped {
		t.Fatal("expected the 20%% cap to apply")
	}
	if res.Shares != 20 {
		t.Fatalf("expected 20 shares after cap, got %d", res.Shares)
	}
	if res.PositionValue != 2000 {
		t.Fatalf("expected position value 2000, got %f", res.PositionValue)
	}
}

func TestPositionSize_Uncapped(t *testing.T) {
	// riskAmount=100, perShareRisk=10 -> 10 shares worth 1000, under cap
	res, err := PositionSize(10000, 0.01, 100, 90)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Capped || res.Shares != 10 {
		t.Fatalf("expected 10 uncapped shares, got %+v", res)
	}
}

func TestPositionSize_InvalidInputs(t *testing.T) {
	tests := []struct {
		name                           string
		account, riskPct, entry, stop float64
		want                           error
	}{
		{"equal entry and stop", 10000, 0.02, 100, 100, ErrInvalidStop},
		{"stop above entry", 10000, 0.02, 100, 105, ErrInvalidStop},
		{"negative stop", 10000, 0.02, 100, -1, ErrInvalidStop},
		{"zero account", 0, 0.02, 100, 95, ErrInvalidAccountSize},
		{"zero risk pct", 10000, 0, 100, 95, ErrInvalidRiskPct},
		{"negative entry", 10000, 0.02, -5, 95, ErrInvalidEntry},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PositionSize(tt.account, tt.riskPct, tt.entry, tt.stop)
			if !errors.Is(err, tt.want) {
				t.Fatalf("want %v, got %v", tt.want, err)
			}
		})
	}
}

func TestATRStops_Fallback(t *testing.T) {
	closes := []float64{100, 101, 102}
	res := ATRStopsFromCloses(closes, 14, 2)
	if !res.Fallback {
		t.Fatal("short series must use the flat fallback")
	}
	if res.StopLoss != 102*0.98 {
		t.Errorf("expected 2%% stop, got %f", res.StopLoss)
	}
	if res.Target != 102*1.10 {
		t.Errorf("expected 10%% target, got %f", res.Target)
	}
}

func TestATRStops_FullWindow(t *testing.T) {
	start := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, 0, 20)
	for i := 0; i < 20; i++ {
		c := 100.0 + float64(i%3)
		bars = append(bars, models.PriceBar{
			Timestamp: start.AddDate(0, 0, i),
			Open:      c, High: c + 2, Low: c - 2, Close: c,
		})
	}
	res := ATRStops(bars, 14, 2)
	if res.Fallback {
		t.Fatal("20 bars should not fall back")
	}
	if res.ATR <= 0 {
		t.Fatalf("expected positive ATR, got %f", res.ATR)
	}
	last := bars[len(bars)-1].Close
	if res.StopLoss >= last || res.Target <= last {
		t.Fatalf("stop %f and target %f must straddle close %f", res.StopLoss, res.Target, last)
	}
	// target distance is 1.5x the stop distance
	if diff := (res.Target - last) - 1.5*(last-res.StopLoss); diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("target ratio violated: %f", diff)
	}
}

func TestTrailingStop(t *testing.T) {
	res := TrailingStop(100, 104, 110, 0.05)
	if res.StopPrice != 110*0.95 {
		t.Fatalf("expected stop at 104.5, got %f", res.StopPrice)
	}
	if !res.Triggered {
		t.Fatal("current 104 <= stop 104.5 must trigger")
	}
	if TrailingStop(100, 106, 110, 0.05).Triggered {
		t.Fatal("current above stop must not trigger")
	}
}

func TestDrawdown(t *testing.T) {
	values := []float64{100, 110, 120, 108, 102, 105}
	res := Drawdown(values)
	if res.Peak != 120 {
		t.Fatalf("expected peak 120, got %f", res.Peak)
	}
	wantMax := (120.0 - 102.0) / 120.0
	if res.MaxDrawdown != wantMax {
		t.Fatalf("expected max drawdown %f, got %f", wantMax, res.MaxDrawdown)
	}
	if !res.InDrawdown {
		t.Fatal("12.5%% below peak is in drawdown")
	}
	if res.DurationBars != 3 {
		t.Fatalf("expected 3 bars since peak, got %d", res.DurationBars)
	}
	if res.EstRecoveryDays <= 0 {
		t.Fatal("expected a recovery estimate while in drawdown")
	}
}

func TestDrawdown_ShortSeries(t *testing.T) {
	if res := Drawdown([]float64{100}); res.MaxDrawdown != 0 || res.InDrawdown {
		t.Fatalf("single point has no drawdown, got %+v", res)
	}
}
