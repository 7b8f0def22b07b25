package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/services/structure"
	"QuantPulse/internal/usecase"
	applogger "QuantPulse/pkg/logger"
)

type fakeSignalStore struct {
	listSymbol string
	listLimit  int
	signals    []models.Signal
}

func (f *fakeSignalStore) Insert(ctx context.Context, s *models.Signal) error { return nil }

func (f *fakeSignalStore) List(ctx context.Context, symbol string, activeOnly bool, limit int) ([]models.Signal, error) {
	f.listSymbol = symbol
	f.listLimit = limit
	return f.signals, nil
}

func (f *fakeSignalStore) MarkNotified(ctx context.Context, id string) error { return nil }

func (f *fakeSignalStore) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	return 0, nil
}

type fakeBarStore struct {
	bars []models.PriceBar
}

func (f *fakeBarStore) GetBars(ctx context.Context, symbol string, from, to time.Time, tf domrepo.Timeframe) ([]models.PriceBar, error) {
	return f.bars, nil
}

func (f *fakeBarStore) GetLatestNBars(ctx context.Context, symbol string, n int, tf domrepo.Timeframe) ([]models.PriceBar, error) {
	return f.bars, nil
}

func testLogger(t *testing.T) *applogger.Logger {
	t.Helper()
	l, err := applogger.New(&applogger.Config{Level: "error", Format: "console", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

func doRequest(t *testing.T, register func(e *echo.Echo), method, target string) (int, map[string]interface{}) {
	t.Helper()
	e := echo.New()
	register(e)

	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var body map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	status := rec.Code
	if s, ok := body["status"].(float64); ok {
		status = int(s)
	}
	return status, body
}

func TestPositionSizeEndpoint(t *testing.T) {
	h := NewRiskHandler(testLogger(t), nil, nil)

	status, body := doRequest(t, h.RegisterRoutes, http.MethodGet,
		"/api/risk/position-size?account_size=100000&risk_pct=0.02&entry=100&stop=95")
	if status != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %v)", status, body)
	}
	data, ok := body["data"].(map[string]interface{})
	if !ok {
		t.Fatalf("missing data in %v", body)
	}
	// 2000 risk budget / 5 per-share risk = 400 shares, 40k position
	// capped at 20% of account = 200 shares
	if got := data["shares"].(float64); got != 200 {
		t.Errorf("shares = %v, want 200", got)
	}
	if capped := data["capped"].(bool); !capped {
		t.Error("expected capped position")
	}
}

func TestPositionSizeEndpoint_StopAboveEntry(t *testing.T) {
	h := NewRiskHandler(testLogger(t), nil, nil)

	status, _ := doRequest(t, h.RegisterRoutes, http.MethodGet,
		"/api/risk/position-size?account_size=100000&risk_pct=0.02&entry=100&stop=105")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestSignalsListEndpoint(t *testing.T) {
	store := &fakeSignalStore{signals: []models.Signal{
		{ID: "s1", Symbol: "AAPL", SignalType: models.SignalBuy},
		{ID: "s2", Symbol: "AAPL", SignalType: models.SignalAlert},
	}}
	h := NewSignalsHandler(testLogger(t), store, &fakeBarStore{}, structure.New(), usecase.NewMarketClock(), nil, nil)

	status, body := doRequest(t, h.RegisterRoutes, http.MethodGet, "/api/signals?symbol=aapl")
	if status != http.StatusOK {
		t.Fatalf("status = %d (body %v)", status, body)
	}
	if store.listSymbol != "AAPL" {
		t.Errorf("symbol passed to store = %q, want AAPL", store.listSymbol)
	}
	if store.listLimit != 50 {
		t.Errorf("default limit = %d, want 50", store.listLimit)
	}
	data := body["data"].(map[string]interface{})
	rows := data["rows"].([]interface{})
	if len(rows) != 2 {
		t.Errorf("rows = %d, want 2", len(rows))
	}
}

func TestStructureEndpoint_MissingSymbol(t *testing.T) {
	h := NewSignalsHandler(testLogger(t), &fakeSignalStore{}, &fakeBarStore{}, structure.New(), usecase.NewMarketClock(), nil, nil)

	status, _ := doRequest(t, h.RegisterRoutes, http.MethodGet, "/api/structure")
	if status != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", status)
	}
}

func TestSessionEndpoint(t *testing.T) {
	h := NewSignalsHandler(testLogger(t), &fakeSignalStore{}, &fakeBarStore{}, structure.New(), usecase.NewMarketClock(), nil, nil)

	status, body := doRequest(t, h.RegisterRoutes, http.MethodGet, "/api/session")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	data := body["data"].(map[string]interface{})
	session, ok := data["session"].(string)
	if !ok || session == "" {
		t.Fatalf("missing session in %v", data)
	}
}
