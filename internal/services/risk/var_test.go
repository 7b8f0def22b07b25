package risk

import (
	"math"
	"math/rand"
	"testing"
)

func sampleReturns() []float64 {
	// deterministic pseudo-history around a slight negative drift
	rng := rand.New(rand.NewSource(7))
	out := make([]float64, 250)
	for i := range out {
		out[i] = (rng.Float64() - 0.52) * 0.04
	}
	return out
}

func TestHistoricalVaR_Monotonicity(t *testing.T) {
	rets := sampleReturns()
	v99 := HistoricalVaR(rets, 0.99, 100000)
	v95 := HistoricalVaR(rets, 0.95, 100000)
	if v99.VaR < v95.VaR {
		t.Fatalf("VaR(0.99)=%f must be >= VaR(0.95)=%f", v99.VaR, v95.VaR)
	}
	if v95.VaR < 0 {
		t.Fatalf("VaR must be non-negative for a loss-bearing history, got %f", v95.VaR)
	}
	if v99.CVaR < v99.VaR {
		t.Errorf("CVaR %f should not be below VaR %f", v99.CVaR, v99.VaR)
	}
}

func TestHistoricalVaR_EmptyInput(t *testing.T) {
	res := HistoricalVaR(nil, 0.95, 100000)
	if res.VaR != 0 || res.CVaR != 0 {
		t.Fatalf("empty history must yield zero VaR, got %+v", res)
	}
	if res.Samples != 0 {
		t.Fatalf("expected zero samples, got %d", res.Samples)
	}
}

func TestParametricVaR_KnownZScores(t *testing.T) {
	tests := []struct {
		confidence float64
		z          float64
	}{
		{0.90, 1.282},
		{0.95, 1.645},
		{0.99, 2.326},
		{0.97, 1.645}, // unknown level falls back to 95%
	}
	for _, tt := range tests {
		res := ParametricVaR(0, 0.02, tt.confidence, 100000, 1)
		want := tt.z * 0.02 * 100000
		if math.Abs(res.VaR-want) > 1e-6 {
			t.Errorf("confidence %.2f: VaR=%f want %f", tt.confidence, res.VaR, want)
		}
	}
}

func TestParametricVaR_HorizonScaling(t *testing.T) {
	one := ParametricVaR(0, 0.02, 0.95, 100000, 1)
	four := ParametricVaR(0, 0.02, 0.95, 100000, 4)
	if math.Abs(four.VaR-2*one.VaR) > 1e-6 {
		t.Fatalf("4-day VaR should be 2x 1-day: got %f vs %f", four.VaR, one.VaR)
	}
}

func TestMonteCarloVaR_Reproducible(t *testing.T) {
	a := MonteCarloVaR(rand.New(rand.NewSource(42)), 0, 0.02, 100000, 5000, 0.95)
	b := MonteCarloVaR(rand.New(rand.NewSource(42)), 0, 0.02, 100000, 5000, 0.95)
	if a.VaR != b.VaR || a.CVaR != b.CVaR {
		t.Fatalf("same seed must reproduce: %+v vs %+v", a, b)
	}
}

func TestMonteCarloVaR_NearParametric(t *testing.T) {
	mc := MonteCarloVaR(rand.New(rand.NewSource(1)), 0, 0.02, 100000, 50000, 0.95)
	pm := ParametricVaR(0, 0.02, 0.95, 100000, 1)
	// 50k draws should land within a few percent of the closed form
	if math.Abs(mc.VaR-pm.VaR)/pm.VaR > 0.05 {
		t.Fatalf("monte carlo %f too far from parametric %f", mc.VaR, pm.VaR)
	}
}

func TestMonteCarloVaR_ZeroSimulations(t *testing.T) {
	res := MonteCarloVaR(rand.New(rand.NewSource(1)), 0, 0.02, 100000, 0, 0.95)
	if res.VaR != 0 {
		t.Fatalf("zero simulations must yield zero VaR, got %f", res.VaR)
	}
}
