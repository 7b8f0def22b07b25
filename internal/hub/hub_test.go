package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"QuantPulse/internal/domain/models"
	"QuantPulse/internal/usecase"
	"QuantPulse/pkg/logger"
)

type stubSignalStore struct{ signals []models.Signal }

func (s *stubSignalStore) Insert(ctx context.Context, sig *models.Signal) error { return nil }
func (s *stubSignalStore) List(ctx context.Context, symbol string, activeOnly bool, limit int) ([]models.Signal, error) {
	return s.signals, nil
}
func (s *stubSignalStore) MarkNotified(ctx context.Context, id string) error { return nil }
func (s *stubSignalStore) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type stubMetrics struct{ broadcasts []int }

func (m *stubMetrics) RecordSignalGenerated(symbol, signalType string) {}
func (m *stubMetrics) RecordBroadcast(messageType string, clients int) {
	m.broadcasts = append(m.broadcasts, clients)
}
func (m *stubMetrics) RecordClientCount(n int)                  {}
func (m *stubMetrics) RecordError(kind string)                  {}
func (m *stubMetrics) RecordLatency(op string, seconds float64) {}

func hubLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return log
}

func newTestHub(t *testing.T) (*Hub, *stubMetrics) {
	t.Helper()
	metrics := &stubMetrics{}
	h := New(&stubSignalStore{}, usecase.NewWatchlist("AAPL"), metrics, hubLogger(t), time.Second)
	return h, metrics
}

func TestSignalFilter_Accepts(t *testing.T) {
	sig := &models.Signal{
		Symbol:     "AAPL",
		SignalType: models.SignalBuy,
		Confidence: 60,
		Source:     "prediction",
	}

	cases := []struct {
		name   string
		filter SignalFilter
		want   bool
	}{
		{"empty filter matches", SignalFilter{}, true},
		{"symbol match", SignalFilter{Symbols: []string{"aapl"}}, true},
		{"symbol mismatch", SignalFilter{Symbols: []string{"TSLA"}}, false},
		{"confidence below floor", SignalFilter{MinConfidence: 80}, false},
		{"confidence above floor", SignalFilter{MinConfidence: 50}, true},
		{"type match", SignalFilter{SignalTypes: []string{"buy"}}, true},
		{"type mismatch", SignalFilter{SignalTypes: []string{"sell"}}, false},
		{"source mismatch", SignalFilter{Sources: []string{"manual"}}, false},
		{"all fields must match", SignalFilter{Symbols: []string{"AAPL"}, MinConfidence: 80}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.filter.Accepts(sig); got != tc.want {
				t.Errorf("Accepts = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestClientWants_SubscriptionGate(t *testing.T) {
	c := newClient(nil)
	c.Subscribe("AAPL")

	aapl := &models.Signal{Symbol: "AAPL", Confidence: 90}
	tsla := &models.Signal{Symbol: "TSLA", Confidence: 90}

	if !c.Wants(aapl) {
		t.Error("subscribed symbol must pass")
	}
	if c.Wants(tsla) {
		t.Error("unsubscribed symbol must not pass")
	}

	// the filter applies on top of the subscription
	c.SetFilter(SignalFilter{MinConfidence: 95})
	if c.Wants(aapl) {
		t.Error("filter floor must block a 90-confidence signal")
	}
}

func TestDeliver_RoutesBySubscriptionAndFilter(t *testing.T) {
	h, metrics := newTestHub(t)

	aaplOnly := newClient(nil)
	aaplOnly.Subscribe("AAPL")

	tslaOnly := newClient(nil)
	tslaOnly.Subscribe("TSLA")

	highBar := newClient(nil)
	highBar.SetFilter(SignalFilter{MinConfidence: 80})

	h.clients[aaplOnly] = struct{}{}
	h.clients[tslaOnly] = struct{}{}
	h.clients[highBar] = struct{}{}

	h.deliver(&models.Signal{Symbol: "AAPL", SignalType: models.SignalBuy, Confidence: 60})

	if len(aaplOnly.send) != 1 {
		t.Errorf("AAPL subscriber should receive the signal, queue=%d", len(aaplOnly.send))
	}
	if len(tslaOnly.send) != 0 {
		t.Errorf("TSLA subscriber must not receive an AAPL signal")
	}
	if len(highBar.send) != 0 {
		t.Errorf("min-confidence 80 must block a 60-confidence signal")
	}
	if len(metrics.broadcasts) != 1 || metrics.broadcasts[0] != 1 {
		t.Errorf("broadcast metric = %v, want one delivery", metrics.broadcasts)
	}

	raw := <-aaplOnly.send
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope decode: %v", err)
	}
	if env.Type != "signal" || env.Timestamp.IsZero() {
		t.Errorf("envelope %+v", env)
	}
}

func TestDeliver_AlertEnvelopeType(t *testing.T) {
	h, _ := newTestHub(t)
	c := newClient(nil)
	h.clients[c] = struct{}{}

	h.deliver(&models.Signal{Symbol: "AAPL", SignalType: models.SignalAlert, Confidence: 55})

	raw := <-c.send
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		t.Fatalf("envelope decode: %v", err)
	}
	if env.Type != "alert" {
		t.Errorf("envelope type %s, want alert", env.Type)
	}
}

func TestStart_Idempotent(t *testing.T) {
	h, _ := newTestHub(t)

	h.Start()
	h.Start() // second start must be a logged no-op
	h.Stop()

	// restart after stop is allowed
	h.Start()
	h.Stop()
}

func TestEnqueue_ClosedClient(t *testing.T) {
	c := newClient(nil)
	c.closeSend()
	if c.enqueue([]byte("x")) {
		t.Error("enqueue on a closed client must fail")
	}
	c.closeSend() // double close must be safe
}

func TestBroadcast_DuringHeartbeatSweep(t *testing.T) {
	metrics := &stubMetrics{}
	h := New(&stubSignalStore{}, usecase.NewWatchlist("AAPL"), metrics, hubLogger(t), 10*time.Millisecond)
	h.Start()
	defer h.Stop()

	srv := httptest.NewServer(http.HandlerFunc(h.ServeWS))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	// The reader loop answers pings and drains broadcasts so the
	// hub keeps the client alive across several sweep windows.
	var received atomic.Int64
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
			received.Add(1)
		}
	}()

	deadline := time.After(100 * time.Millisecond)
	for i := 0; ; i++ {
		select {
		case <-deadline:
			if received.Load() == 0 {
				t.Fatal("no broadcasts reached the client")
			}
			return
		default:
			h.BroadcastSignal(&models.Signal{Symbol: "AAPL", SignalType: models.SignalBuy, Confidence: 70})
		}
		if i%20 == 0 {
			time.Sleep(time.Millisecond)
		}
	}
}
