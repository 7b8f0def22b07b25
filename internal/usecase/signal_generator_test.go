package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/pkg/logger"
)

type fixedClock struct{ session string }

func (c fixedClock) Session() string { return c.session }

type fakePredictor struct {
	preds map[string]models.Prediction
	fail  map[string]error
	calls []string
}

func (p *fakePredictor) Generate(ctx context.Context, symbol string, horizonDays int) (models.Prediction, error) {
	p.calls = append(p.calls, symbol)
	if err, ok := p.fail[symbol]; ok {
		return models.Prediction{}, err
	}
	return p.preds[symbol], nil
}

type fakeBarStore struct {
	bars []models.PriceBar
	err  error
}

func (s *fakeBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.PriceBar, error) {
	return s.bars, s.err
}

func (s *fakeBarStore) GetLatestNBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.PriceBar, error) {
	return s.bars, s.err
}

type fakeSignalStore struct {
	inserted []*models.Signal
	notified []string
	expired  int64
}

func (s *fakeSignalStore) Insert(ctx context.Context, sig *models.Signal) error {
	s.inserted = append(s.inserted, sig)
	return nil
}

func (s *fakeSignalStore) List(ctx context.Context, symbol string, activeOnly bool, limit int) ([]models.Signal, error) {
	return nil, nil
}

func (s *fakeSignalStore) MarkNotified(ctx context.Context, id string) error {
	s.notified = append(s.notified, id)
	return nil
}

func (s *fakeSignalStore) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return s.expired, nil
}

type fakeBroadcaster struct{ signals []*models.Signal }

func (b *fakeBroadcaster) BroadcastSignal(sig *models.Signal) {
	b.signals = append(b.signals, sig)
}

type fakeNotifier struct {
	sent []*models.Signal
	err  error
}

func (n *fakeNotifier) SendToAllTargets(ctx context.Context, sig *models.Signal) error {
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, sig)
	return nil
}

type noopMetrics struct{}

func (noopMetrics) RecordSignalGenerated(symbol, signalType string) {}
func (noopMetrics) RecordBroadcast(messageType string, clients int) {}
func (noopMetrics) RecordClientCount(n int)                         {}
func (noopMetrics) RecordError(kind string)                         {}
func (noopMetrics) RecordLatency(op string, seconds float64)        {}

func genLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func closeSeries(closes ...float64) []models.PriceBar {
	bars := make([]models.PriceBar, len(closes))
	base := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Timestamp: base.Add(time.Duration(i) * 24 * time.Hour),
			Symbol:    "AAPL",
			Open:      c,
			High:      c * 1.01,
			Low:       c * 0.99,
			Close:     c,
			Volume:    1000,
		}
	}
	return bars
}

func newTestGenerator(t *testing.T, pred *fakePredictor, store *fakeSignalStore, bars *fakeBarStore, bcast *fakeBroadcaster, notif *fakeNotifier, session string) *SignalGenerator {
	t.Helper()
	return NewSignalGenerator(SignalGeneratorDeps{
		Clock:       fixedClock{session: session},
		Watchlist:   NewWatchlist("AAPL", "MSFT"),
		Predictor:   pred,
		Notifier:    notif,
		Bars:        bars,
		Signals:     store,
		Broadcaster: bcast,
		Metrics:     noopMetrics{},
		Logger:      genLogger(t),
		Throttle:    time.Millisecond,
	})
}

func TestClassify(t *testing.T) {
	cases := []struct {
		confidence float64
		direction  string
		want       string
	}{
		{85, models.DirectionUp, models.SignalBuy},
		{70, models.DirectionDown, models.SignalSell},
		{85, models.DirectionFlat, models.SignalAlert},
		{60, models.DirectionUp, models.SignalAlert},
		{50, models.DirectionDown, models.SignalAlert},
		{49.9, models.DirectionUp, models.SignalHold},
		{0, models.DirectionFlat, models.SignalHold},
	}
	for _, tc := range cases {
		if got := classify(tc.confidence, tc.direction); got != tc.want {
			t.Errorf("classify(%.1f, %s) = %s, want %s", tc.confidence, tc.direction, got, tc.want)
		}
	}
}

func TestGenerateForSymbol_BuySignal(t *testing.T) {
	pred := &fakePredictor{preds: map[string]models.Prediction{
		"AAPL": {
			Symbol:      "AAPL",
			Direction:   models.DirectionUp,
			Confidence:  85,
			PriceTarget: 210,
			RiskLevel:   models.RiskLow,
			KeyFactors:  models.KeyFactors{Bullish: []string{"earnings beat"}},
		},
	}}
	store := &fakeSignalStore{}
	bcast := &fakeBroadcaster{}
	notif := &fakeNotifier{}
	bars := &fakeBarStore{bars: closeSeries(195, 196, 197, 198, 199, 200, 201, 202, 201, 203,
		204, 205, 204, 206, 207, 208)}

	g := newTestGenerator(t, pred, store, bars, bcast, notif, SessionOpen)

	sig, err := g.GenerateForSymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sig.SignalType != models.SignalBuy {
		t.Errorf("signal type %s, want buy", sig.SignalType)
	}
	if sig.Price != 208 {
		t.Errorf("price %f, want last close 208", sig.Price)
	}
	if sig.TargetPrice != 210 {
		t.Errorf("target %f, want prediction target 210", sig.TargetPrice)
	}
	if sig.StopLoss <= 0 || sig.StopLoss >= 208 {
		t.Errorf("stop loss %f out of range", sig.StopLoss)
	}
	if !sig.IsActive || sig.ID == "" {
		t.Errorf("signal not initialized: %+v", sig)
	}

	if len(store.inserted) != 1 {
		t.Fatalf("expected 1 persisted signal, got %d", len(store.inserted))
	}
	if len(bcast.signals) != 1 {
		t.Fatalf("expected broadcast, got %d", len(bcast.signals))
	}
	if len(notif.sent) != 1 {
		t.Fatalf("high-confidence signal should notify, got %d", len(notif.sent))
	}
	if len(store.notified) != 1 || store.notified[0] != sig.ID {
		t.Errorf("signal not marked notified: %v", store.notified)
	}
}

func TestGenerateForSymbol_LowConfidenceSkipsNotification(t *testing.T) {
	pred := &fakePredictor{preds: map[string]models.Prediction{
		"AAPL": {Direction: models.DirectionUp, Confidence: 55, PriceTarget: 210},
	}}
	store := &fakeSignalStore{}
	notif := &fakeNotifier{}
	g := newTestGenerator(t, pred, store, &fakeBarStore{bars: closeSeries(200)}, &fakeBroadcaster{}, notif, SessionOpen)

	sig, err := g.GenerateForSymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sig.SignalType != models.SignalAlert {
		t.Errorf("signal type %s, want alert", sig.SignalType)
	}
	if len(notif.sent) != 0 {
		t.Errorf("55%% confidence must not notify, got %d", len(notif.sent))
	}
	if sig.Notified {
		t.Error("signal should not be flagged notified")
	}
}

func TestRunCycle_MarketClosed(t *testing.T) {
	pred := &fakePredictor{}
	g := newTestGenerator(t, pred, &fakeSignalStore{}, &fakeBarStore{}, &fakeBroadcaster{}, &fakeNotifier{}, SessionClosed)

	g.RunCycle(context.Background())

	if len(pred.calls) != 0 {
		t.Fatalf("closed market must skip generation, called for %v", pred.calls)
	}
}

func TestRunCycle_PartialFailureContinues(t *testing.T) {
	pred := &fakePredictor{
		preds: map[string]models.Prediction{
			"MSFT": {Direction: models.DirectionUp, Confidence: 75, PriceTarget: 420},
		},
		fail: map[string]error{"AAPL": errors.New("model unavailable")},
	}
	store := &fakeSignalStore{}
	g := newTestGenerator(t, pred, store, &fakeBarStore{bars: closeSeries(400)}, &fakeBroadcaster{}, &fakeNotifier{}, SessionOpen)

	g.RunCycle(context.Background())

	if len(pred.calls) != 2 {
		t.Fatalf("expected both symbols attempted, got %v", pred.calls)
	}
	if len(store.inserted) != 1 || store.inserted[0].Symbol != "MSFT" {
		t.Fatalf("only MSFT should persist, got %+v", store.inserted)
	}
}

func TestGenerateForSymbol_BarLookupFailureFallsBack(t *testing.T) {
	pred := &fakePredictor{preds: map[string]models.Prediction{
		"AAPL": {Direction: models.DirectionUp, Confidence: 90, PriceTarget: 200},
	}}
	store := &fakeSignalStore{}
	barErr := &fakeBarStore{err: errors.New("store down")}
	g := newTestGenerator(t, pred, store, barErr, &fakeBroadcaster{}, &fakeNotifier{}, SessionOpen)

	sig, err := g.GenerateForSymbol(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("bar failure must not fail generation: %v", err)
	}
	// flat percentage fallback off the prediction target
	if sig.StopLoss != 200*0.98 {
		t.Errorf("stop %f, want flat 2%% fallback 196", sig.StopLoss)
	}
}
