package usecase

import (
	"context"
	"testing"

	"QuantPulse/internal/domain/models"
)

type fakeAlertStore struct {
	inserted []*models.RiskAlert
}

func (s *fakeAlertStore) Insert(ctx context.Context, a *models.RiskAlert) error {
	s.inserted = append(s.inserted, a)
	return nil
}

func (s *fakeAlertStore) List(ctx context.Context, portfolioID string, unackedOnly bool) ([]models.RiskAlert, error) {
	return nil, nil
}

func (s *fakeAlertStore) Acknowledge(ctx context.Context, id string) error { return nil }

func steadySeries(n int, start float64) []models.PriceBar {
	closes := make([]float64, n)
	c := start
	for i := range closes {
		// tiny alternating moves, essentially flat
		if i%2 == 0 {
			c *= 1.001
		} else {
			c *= 0.999
		}
		closes[i] = c
	}
	return closeSeries(closes...)
}

func TestCheckPortfolio_ConcentrationAlert(t *testing.T) {
	store := &fakePortfolioStore{
		portfolio: &models.Portfolio{ID: "p1", CurrentValue: 100000},
		assets: []models.PortfolioAsset{
			{PortfolioID: "p1", Symbol: "NVDA", Shares: 100, Weight: 0.8, CurrentPrice: 500},
			{PortfolioID: "p1", Symbol: "SPY", Shares: 40, Weight: 0.2, CurrentPrice: 500},
		},
	}
	alerts := &fakeAlertStore{}
	bars := &fakeBarStore{bars: steadySeries(60, 100)}
	m := NewRiskMonitor(store, bars, alerts, noopMetrics{}, genLogger(t))

	raised, err := m.CheckPortfolio(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var conc *models.RiskAlert
	for i := range raised {
		if raised[i].Kind == models.AlertConcentration {
			conc = &raised[i]
		}
	}
	if conc == nil {
		t.Fatalf("expected concentration alert, got %+v", raised)
	}
	if conc.CurrentValue != 0.8 || conc.Threshold != 0.4 {
		t.Errorf("alert values: %+v", conc)
	}
	if conc.Severity != models.SeverityCritical {
		t.Errorf("0.8 vs 0.4 limit should be critical, got %s", conc.Severity)
	}
	if len(alerts.inserted) != len(raised) {
		t.Errorf("all raised alerts must persist: %d vs %d", len(alerts.inserted), len(raised))
	}
}

func TestCheckPortfolio_QuietPortfolioNoAlerts(t *testing.T) {
	store := &fakePortfolioStore{
		portfolio: &models.Portfolio{ID: "p1", CurrentValue: 100000},
		assets: []models.PortfolioAsset{
			{PortfolioID: "p1", Symbol: "AAPL", Shares: 100, Weight: 0.35, CurrentPrice: 200},
			{PortfolioID: "p1", Symbol: "MSFT", Shares: 50, Weight: 0.35, CurrentPrice: 400},
			{PortfolioID: "p1", Symbol: "SPY", Shares: 40, Weight: 0.3, CurrentPrice: 500},
		},
	}
	alerts := &fakeAlertStore{}
	bars := &fakeBarStore{bars: steadySeries(120, 100)}
	m := NewRiskMonitor(store, bars, alerts, noopMetrics{}, genLogger(t))

	raised, err := m.CheckPortfolio(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(raised) != 0 {
		t.Fatalf("flat low-risk portfolio should not alert, got %+v", raised)
	}
}

func TestCheckPortfolio_EmptyPortfolio(t *testing.T) {
	store := &fakePortfolioStore{portfolio: &models.Portfolio{ID: "p1"}}
	m := NewRiskMonitor(store, &fakeBarStore{}, &fakeAlertStore{}, noopMetrics{}, genLogger(t))

	raised, err := m.CheckPortfolio(context.Background(), "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if raised != nil {
		t.Fatalf("empty portfolio yields no alerts, got %+v", raised)
	}
}

func TestSeverityByRatio(t *testing.T) {
	cases := []struct {
		ratio float64
		want  string
	}{
		{1.05, models.SeverityLow},
		{1.3, models.SeverityMedium},
		{1.6, models.SeverityHigh},
		{2.5, models.SeverityCritical},
	}
	for _, tc := range cases {
		if got := severityByRatio(tc.ratio); got != tc.want {
			t.Errorf("severityByRatio(%f) = %s, want %s", tc.ratio, got, tc.want)
		}
	}
}
