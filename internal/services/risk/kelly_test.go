package risk

import (
	"math"
	"strings"
	"testing"
)

func TestKelly_Bounds(t *testing.T) {
	const maxAlloc = 0.25
	probs := []float64{0, 0.1, 0.25, 0.5, 0.55, 0.6, 0.75, 0.9, 1}
	payoffs := []struct{ win, loss float64 }{
		{0.05, 0.05}, {0.10, 0.05}, {0.02, 0.08}, {0.3, 0.1},
	}
	for _, p := range probs {
		for _, pay := range payoffs {
			res := Kelly(p, pay.win, pay.loss, maxAlloc)
			if res.KellyFraction < 0 || res.KellyFraction > 1 {
				t.Fatalf("p=%.2f win=%.2f loss=%.2f: fraction %f out of [0,1]",
					p, pay.win, pay.loss, res.KellyFraction)
			}
			if res.Recommended < 0 || res.Recommended > maxAlloc {
				t.Fatalf("recommended %f out of [0, %f]", res.Recommended, maxAlloc)
			}
			if res.Recommended > res.HalfKelly || res.HalfKelly > res.KellyFraction {
				t.Fatalf("ordering violated: rec=%f half=%f full=%f",
					res.Recommended, res.HalfKelly, res.KellyFraction)
			}
		}
	}
}

func TestKelly_NoEdge(t *testing.T) {
	res := Kelly(0.5, 0.05, 0.05, 0.25)
	if res.KellyFraction != 0 {
		t.Fatalf("even odds at even payoff has no edge, got %f", res.KellyFraction)
	}
	if !strings.Contains(res.Reasoning, "no position") {
		t.Errorf("unexpected reasoning: %q", res.Reasoning)
	}
}

func TestKelly_ZeroLossPayoff(t *testing.T) {
	// avgLoss 0 degrades the payoff ratio to 1 rather than dividing by zero
	res := Kelly(0.6, 0.05, 0, 0.25)
	if res.PayoffRatio != 1 {
		t.Fatalf("expected payoff ratio 1, got %f", res.PayoffRatio)
	}
	// f = p - (1-p)/ratio = 0.6 - 0.4 with ratio 1
	if math.Abs(res.KellyFraction-0.2) > 1e-12 {
		t.Fatalf("unexpected fraction %f", res.KellyFraction)
	}
}

func TestKellyFromOutcomes_InsufficientData(t *testing.T) {
	res := KellyFromOutcomes([]float64{0.02, -0.01, 0.03}, 0.25)
	if res.WinProbability != 0.5 || res.KellyFraction != 0 {
		t.Fatalf("expected neutral result, got %+v", res)
	}
	if !strings.Contains(res.Reasoning, "insufficient data") {
		t.Errorf("expected insufficient data reasoning, got %q", res.Reasoning)
	}
}

func TestKellyFromOutcomes_EnoughHistory(t *testing.T) {
	outcomes := []float64{0.04, 0.03, -0.02, 0.05, -0.01, 0.02, 0.03, -0.02, 0.04, 0.01, 0.02, -0.03}
	res := KellyFromOutcomes(outcomes, 0.25)
	if res.WinProbability <= 0.5 {
		t.Fatalf("mostly winning history should report p > 0.5, got %f", res.WinProbability)
	}
	if res.KellyFraction <= 0 {
		t.Fatalf("expected a positive edge, got %f", res.KellyFraction)
	}
}
