package portfolio

import (
	"math"
	"math/rand"
	"testing"
)

func testAssets() []Asset {
	return []Asset{
		{Symbol: "AAPL", ExpectedReturn: 0.12, Volatility: 0.25,
			Returns: []float64{0.01, -0.02, 0.015, 0.005, -0.01, 0.02, 0.003, -0.004, 0.012, -0.008}},
		{Symbol: "MSFT", ExpectedReturn: 0.10, Volatility: 0.22,
			Returns: []float64{0.008, -0.015, 0.01, 0.004, -0.006, 0.018, 0.002, -0.003, 0.009, -0.005}},
		{Symbol: "SPY", ExpectedReturn: 0.08, Volatility: 0.15,
			Returns: []float64{0.005, -0.01, 0.008, 0.002, -0.004, 0.012, 0.001, -0.002, 0.006, -0.003}},
	}
}

func assertNormalized(t *testing.T, weights map[string]float64) {
	t.Helper()
	var sum float64
	for sym, w := range weights {
		if w < 0 {
			t.Fatalf("negative weight %f for %s", w, sym)
		}
		sum += w
	}
	if math.Abs(sum-1) > 1e-3 {
		t.Fatalf("weights sum to %f, want 1", sum)
	}
}

func TestEqualWeight_ThreeAssets(t *testing.T) {
	o := New(rand.New(rand.NewSource(1)))
	res, err := o.EqualWeight(testAssets(), 0.04)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertNormalized(t, res.Weights)
	for _, sym := range []string{"AAPL", "MSFT", "SPY"} {
		got := math.Round(res.Weights[sym]*10000) / 10000
		if got != 0.3333 {
			t.Fatalf("%s weight %f, want 0.3333", sym, got)
		}
	}
}

func TestMaxSharpe_Normalized(t *testing.T) {
	o := New(rand.New(rand.NewSource(42)))
	res, err := o.MaxSharpe(testAssets(), 0.04)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertNormalized(t, res.Weights)
	if res.Volatility <= 0 {
		t.Fatalf("expected positive volatility, got %f", res.Volatility)
	}
}

func TestMaxSharpe_BeatsEqualWeight(t *testing.T) {
	o := New(rand.New(rand.NewSource(42)))
	assets := testAssets()
	ms, err := o.MaxSharpe(assets, 0.04)
	if err != nil {
		t.Fatal(err)
	}
	ew, err := o.EqualWeight(assets, 0.04)
	if err != nil {
		t.Fatal(err)
	}
	if ms.Sharpe < ew.Sharpe-1e-9 {
		t.Fatalf("max-Sharpe search (%f) must not lose to equal weight (%f)", ms.Sharpe, ew.Sharpe)
	}
}

func TestMaxSharpe_Deterministic(t *testing.T) {
	a, err := New(rand.New(rand.NewSource(7))).MaxSharpe(testAssets(), 0.04)
	if err != nil {
		t.Fatal(err)
	}
	b, err := New(rand.New(rand.NewSource(7))).MaxSharpe(testAssets(), 0.04)
	if err != nil {
		t.Fatal(err)
	}
	for sym := range a.Weights {
		if a.Weights[sym] != b.Weights[sym] {
			t.Fatalf("same seed must reproduce weights: %s %f vs %f", sym, a.Weights[sym], b.Weights[sym])
		}
	}
}

func TestRiskParity_Normalized(t *testing.T) {
	o := New(rand.New(rand.NewSource(1)))
	res, err := o.RiskParity(testAssets(), 0.04)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertNormalized(t, res.Weights)
	// the lowest-volatility asset carries the largest weight
	if res.Weights["SPY"] < res.Weights["AAPL"] {
		t.Fatalf("risk parity should overweight the calm asset: SPY=%f AAPL=%f",
			res.Weights["SPY"], res.Weights["AAPL"])
	}
}

func TestOptimizers_EmptyBasket(t *testing.T) {
	o := New(rand.New(rand.NewSource(1)))
	if _, err := o.MaxSharpe(nil, 0.04); err != ErrEmptyBasket {
		t.Fatalf("want ErrEmptyBasket, got %v", err)
	}
	if _, err := o.RiskParity(nil, 0.04); err != ErrEmptyBasket {
		t.Fatalf("want ErrEmptyBasket, got %v", err)
	}
	if _, err := o.EqualWeight(nil, 0.04); err != ErrEmptyBasket {
		t.Fatalf("want ErrEmptyBasket, got %v", err)
	}
}

func TestMaxSharpe_DegenerateFallsBackToEqualWeight(t *testing.T) {
	assets := []Asset{
		{Symbol: "A", ExpectedReturn: 0.05},
		{Symbol: "B", ExpectedReturn: 0.06},
	}
	o := New(rand.New(rand.NewSource(1)))
	res, err := o.MaxSharpe(assets, 0.04)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Weights["A"] != 0.5 || res.Weights["B"] != 0.5 {
		t.Fatalf("zero-variance basket should equal-weight, got %+v", res.Weights)
	}
}

func TestCovarianceMatrix_Symmetric(t *testing.T) {
	cov := CovarianceMatrix(testAssets())
	for i := range cov {
		if cov[i][i] <= 0 {
			t.Fatalf("diagonal entry %d not positive: %f", i, cov[i][i])
		}
		for j := range cov {
			if cov[i][j] != cov[j][i] {
				t.Fatalf("matrix not symmetric at (%d,%d)", i, j)
			}
		}
	}
}

func TestEfficientFrontier_SortedByVolatility(t *testing.T) {
	o := New(rand.New(rand.NewSource(3)))
	points, err := o.EfficientFrontier(testAssets(), 10, 0.04)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(points) == 0 {
		t.Fatal("expected at least one frontier point")
	}
	for i := 1; i < len(points); i++ {
		if points[i].Volatility < points[i-1].Volatility {
			t.Fatalf("frontier not sorted at %d", i)
		}
	}
	for _, p := range points {
		assertNormalized(t, p.Weights)
	}
}
