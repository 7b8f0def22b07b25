package usecase

import (
	"context"
	"math"
	"math/rand"
	"sync"
	"testing"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/services/portfolio"
)

type fakePortfolioStore struct {
	mu         sync.Mutex
	portfolio  *models.Portfolio
	assets     []models.PortfolioAsset
	rebalances []*models.Rebalance
	applied    []map[string]float64
	applyGate  chan struct{} // when set, ApplyRebalance waits for a tick
}

func (s *fakePortfolioStore) Create(ctx context.Context, p *models.Portfolio) error { return nil }
func (s *fakePortfolioStore) Get(ctx context.Context, id string) (*models.Portfolio, error) {
	return s.portfolio, nil
}
func (s *fakePortfolioStore) List(ctx context.Context, ownerID string) ([]models.Portfolio, error) {
	return nil, nil
}
func (s *fakePortfolioStore) Update(ctx context.Context, p *models.Portfolio) error { return nil }
func (s *fakePortfolioStore) Delete(ctx context.Context, id string) error           { return nil }
func (s *fakePortfolioStore) UpsertAsset(ctx context.Context, a *models.PortfolioAsset) error {
	return nil
}
func (s *fakePortfolioStore) RemoveAsset(ctx context.Context, portfolioID, symbol string) error {
	return nil
}
func (s *fakePortfolioStore) GetAssets(ctx context.Context, portfolioID string) ([]models.PortfolioAsset, error) {
	return s.assets, nil
}

func (s *fakePortfolioStore) ApplyRebalance(ctx context.Context, r *models.Rebalance, weights map[string]float64, shares map[string]float64) error {
	if s.applyGate != nil {
		<-s.applyGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rebalances = append(s.rebalances, r)
	s.applied = append(s.applied, weights)
	return nil
}

func (s *fakePortfolioStore) ListRebalances(ctx context.Context, portfolioID string, limit int) ([]models.Rebalance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Rebalance, 0, len(s.rebalances))
	for _, r := range s.rebalances {
		out = append(out, *r)
	}
	return out, nil
}

func rebalancerFixture(t *testing.T, store *fakePortfolioStore) *Rebalancer {
	t.Helper()
	bars := &fakeBarStore{bars: closeSeries(100, 101, 100.5, 102, 101, 103, 102.5, 104, 103, 105)}
	opt := portfolio.New(rand.New(rand.NewSource(11)))
	return NewRebalancer(store, bars, opt, noopMetrics{}, genLogger(t))
}

func testPortfolioStore() *fakePortfolioStore {
	return &fakePortfolioStore{
		portfolio: &models.Portfolio{ID: "p1", CurrentValue: 100000},
		assets: []models.PortfolioAsset{
			{PortfolioID: "p1", Symbol: "AAPL", Shares: 100, Weight: 0.5, CurrentPrice: 200, ExpectedReturn: 0.12, Volatility: 0.25},
			{PortfolioID: "p1", Symbol: "MSFT", Shares: 50, Weight: 0.3, CurrentPrice: 400, ExpectedReturn: 0.10, Volatility: 0.22},
			{PortfolioID: "p1", Symbol: "SPY", Shares: 40, Weight: 0.2, CurrentPrice: 500, ExpectedReturn: 0.08, Volatility: 0.15},
		},
	}
}

func TestOptimize_EqualWeightAppliesAtomically(t *testing.T) {
	store := testPortfolioStore()
	r := rebalancerFixture(t, store)

	reb, err := r.Optimize(context.Background(), "p1", models.StrategyEqualWeight, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if reb.Strategy != models.StrategyEqualWeight {
		t.Errorf("strategy %s", reb.Strategy)
	}
	var sum float64
	for _, w := range reb.NewWeights {
		sum += w
	}
	if math.Abs(sum-1) > 1e-3 {
		t.Errorf("new weights sum %f", sum)
	}
	if reb.PreviousWeights["AAPL"] != 0.5 {
		t.Errorf("previous weights not captured: %v", reb.PreviousWeights)
	}
	if len(store.applied) != 1 {
		t.Fatalf("expected one transactional apply, got %d", len(store.applied))
	}
}

func TestOptimize_TradeListDeltas(t *testing.T) {
	store := testPortfolioStore()
	r := rebalancerFixture(t, store)

	reb, err := r.Optimize(context.Background(), "p1", models.StrategyEqualWeight, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 0.5→⅓ AAPL is a sell, 0.2→⅓ SPY is a buy; basket value is
	// 100×200 + 50×400 + 40×500 = 60000.
	byImpact := map[string]models.RebalanceTrade{}
	for _, tr := range reb.Trades {
		byImpact[tr.Symbol] = tr
	}
	aapl, ok := byImpact["AAPL"]
	if !ok || aapl.Action != "sell" {
		t.Fatalf("expected AAPL sell, got %+v", byImpact)
	}
	if math.Abs(aapl.Value-10000) > 50 {
		t.Errorf("AAPL trade value %f, want ~10000", aapl.Value)
	}
	spy, ok := byImpact["SPY"]
	if !ok || spy.Action != "buy" {
		t.Fatalf("expected SPY buy, got %+v", byImpact)
	}
}

func TestOptimize_UnknownStrategy(t *testing.T) {
	r := rebalancerFixture(t, testPortfolioStore())
	if _, err := r.Optimize(context.Background(), "p1", "genetic", ""); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestOptimize_EmptyBasket(t *testing.T) {
	store := &fakePortfolioStore{portfolio: &models.Portfolio{ID: "p1"}}
	r := rebalancerFixture(t, store)
	if _, err := r.Optimize(context.Background(), "p1", models.StrategyEqualWeight, ""); err != portfolio.ErrEmptyBasket {
		t.Fatalf("want ErrEmptyBasket, got %v", err)
	}
}

func TestOptimize_SerializedPerPortfolio(t *testing.T) {
	store := testPortfolioStore()
	store.applyGate = make(chan struct{})
	r := rebalancerFixture(t, store)

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			_, err := r.Optimize(context.Background(), "p1", models.StrategyEqualWeight, "")
			done <- err
		}()
	}

	// Only one optimize may be inside ApplyRebalance at a time; release
	// them one by one.
	for i := 0; i < 2; i++ {
		store.applyGate <- struct{}{}
		if err := <-done; err != nil {
			t.Fatalf("optimize %d: %v", i, err)
		}
	}

	if len(store.applied) != 2 {
		t.Fatalf("expected both rebalances applied, got %d", len(store.applied))
	}
}

func TestBuildTradeList_ThresholdAndDroppedSymbols(t *testing.T) {
	prev := map[string]float64{"AAPL": 0.5, "MSFT": 0.5}
	next := map[string]float64{"AAPL": 0.5001, "MSFT": 0.4999}
	trades := BuildTradeList(prev, next, map[string]float64{"AAPL": 100, "MSFT": 100}, 10000)
	if len(trades) != 0 {
		t.Fatalf("sub-threshold deltas must be dropped, got %+v", trades)
	}

	// a symbol absent from the target is fully sold
	next = map[string]float64{"AAPL": 1.0}
	trades = BuildTradeList(prev, next, map[string]float64{"AAPL": 100, "MSFT": 100}, 10000)
	var sawSell bool
	for _, tr := range trades {
		if tr.Symbol == "MSFT" && tr.Action == "sell" && tr.Value == 5000 {
			sawSell = true
		}
	}
	if !sawSell {
		t.Fatalf("expected full MSFT sell, got %+v", trades)
	}
}
