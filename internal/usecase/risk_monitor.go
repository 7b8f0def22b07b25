package usecase

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"QuantPulse/internal/domain/models"
	domrepo "QuantPulse/internal/domain/repository"
	"QuantPulse/internal/services/risk"
	"QuantPulse/pkg/logger"
	"QuantPulse/pkg/util"
)

// Default alert thresholds, overridable per monitor.
const (
	defaultVaRLimitPct       = 0.05 // daily 95% VaR above 5% of value
	defaultDrawdownLimit     = 0.15
	defaultVolatilityLimit   = 0.40 // annualized
	defaultConcentrationMax  = 0.40 // single-asset weight
	riskMonitorLookbackBars  = 252
	riskMonitorVaRConfidence = 0.95
)

// RiskMonitor sweeps portfolios and raises threshold alerts. Alerts
// are append-only; repeated breaches on consecutive sweeps create new
// rows.
type RiskMonitor struct {
	portfolios domrepo.PortfolioStore
	bars       domrepo.BarStore
	alerts     domrepo.AlertStore
	metrics    domrepo.Metrics
	log        *logger.Logger

	varLimitPct      float64
	drawdownLimit    float64
	volatilityLimit  float64
	concentrationMax float64
}

// NewRiskMonitor wires a monitor with default thresholds.
func NewRiskMonitor(portfolios domrepo.PortfolioStore, bars domrepo.BarStore, alerts domrepo.AlertStore, metrics domrepo.Metrics, log *logger.Logger) *RiskMonitor {
	return &RiskMonitor{
		portfolios:       portfolios,
		bars:             bars,
		alerts:           alerts,
		metrics:          metrics,
		log:              log,
		varLimitPct:      defaultVaRLimitPct,
		drawdownLimit:    defaultDrawdownLimit,
		volatilityLimit:  defaultVolatilityLimit,
		concentrationMax: defaultConcentrationMax,
	}
}

// CheckPortfolio evaluates all risk rules for one portfolio and
// persists any triggered alerts. Returns the alerts raised.
func (m *RiskMonitor) CheckPortfolio(ctx context.Context, portfolioID string) ([]models.RiskAlert, error) {
	p, err := m.portfolios.Get(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load portfolio: %w", err)
	}
	assets, err := m.portfolios.GetAssets(ctx, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("load assets: %w", err)
	}
	if len(assets) == 0 {
		return nil, nil
	}

	value := portfolioValue(p, assets)
	returns, values := m.portfolioSeries(ctx, assets, value)

	var raised []models.RiskAlert

	if alert := m.checkVaR(portfolioID, returns, value); alert != nil {
		raised = append(raised, *alert)
	}
	if alert := m.checkDrawdown(portfolioID, values); alert != nil {
		raised = append(raised, *alert)
	}
	if alert := m.checkVolatility(portfolioID, returns); alert != nil {
		raised = append(raised, *alert)
	}
	if alert := m.checkConcentration(portfolioID, assets); alert != nil {
		raised = append(raised, *alert)
	}

	for i := range raised {
		if err := m.alerts.Insert(ctx, &raised[i]); err != nil {
			m.metrics.RecordError("risk_alert_insert")
			m.log.Error("persist risk alert",
				logger.String("portfolio_id", portfolioID),
				logger.String("kind", raised[i].Kind),
				logger.Error(err))
		}
	}

	return raised, nil
}

func (m *RiskMonitor) checkVaR(portfolioID string, returns []float64, value float64) *models.RiskAlert {
	if len(returns) == 0 || value <= 0 {
		return nil
	}
	res := risk.HistoricalVaR(returns, riskMonitorVaRConfidence, value)
	varPct := res.VaR / value
	if varPct <= m.varLimitPct {
		return nil
	}
	return m.newAlert(portfolioID, models.AlertVaRBreach,
		severityByRatio(varPct/m.varLimitPct),
		fmt.Sprintf("daily VaR(95%%) is %.1f%% of portfolio value, limit %.1f%%", varPct*100, m.varLimitPct*100),
		m.varLimitPct, varPct)
}

func (m *RiskMonitor) checkDrawdown(portfolioID string, values []float64) *models.RiskAlert {
	if len(values) < 2 {
		return nil
	}
	res := risk.Drawdown(values)
	if res.CurrentDrawdown <= m.drawdownLimit {
		return nil
	}
	return m.newAlert(portfolioID, models.AlertDrawdown,
		severityByRatio(res.CurrentDrawdown/m.drawdownLimit),
		fmt.Sprintf("portfolio is %.1f%% below peak, limit %.1f%%", res.CurrentDrawdown*100, m.drawdownLimit*100),
		m.drawdownLimit, res.CurrentDrawdown)
}

func (m *RiskMonitor) checkVolatility(portfolioID string, returns []float64) *models.RiskAlert {
	if len(returns) < 2 {
		return nil
	}
	annualized := util.SampleStdDev(returns) * math.Sqrt(252)
	if annualized <= m.volatilityLimit {
		return nil
	}
	return m.newAlert(portfolioID, models.AlertVolatility,
		severityByRatio(annualized/m.volatilityLimit),
		fmt.Sprintf("annualized volatility %.1f%% exceeds limit %.1f%%", annualized*100, m.volatilityLimit*100),
		m.volatilityLimit, annualized)
}

func (m *RiskMonitor) checkConcentration(portfolioID string, assets []models.PortfolioAsset) *models.RiskAlert {
	var worst models.PortfolioAsset
	for _, a := range assets {
		if a.Weight > worst.Weight {
			worst = a
		}
	}
	if worst.Weight <= m.concentrationMax {
		return nil
	}
	return m.newAlert(portfolioID, models.AlertConcentration,
		severityByRatio(worst.Weight/m.concentrationMax),
		fmt.Sprintf("%s holds %.1f%% of the portfolio, limit %.1f%%", worst.Symbol, worst.Weight*100, m.concentrationMax*100),
		m.concentrationMax, worst.Weight)
}

// portfolioSeries reconstructs a weighted daily return series and a
// synthetic value series from the holdings' bar history.
func (m *RiskMonitor) portfolioSeries(ctx context.Context, assets []models.PortfolioAsset, value float64) ([]float64, []float64) {
	var (
		combined    []float64
		totalWeight float64
	)
	for _, a := range assets {
		if a.Weight <= 0 {
			continue
		}
		bars, err := m.bars.GetLatestNBars(ctx, a.Symbol, riskMonitorLookbackBars, domrepo.DefaultTimeframe())
		if err != nil {
			m.log.Warn("bar history unavailable for risk sweep",
				logger.String("symbol", a.Symbol), logger.Error(err))
			continue
		}
		rets := models.CloseReturns(bars)
		if len(rets) == 0 {
			continue
		}
		if combined == nil {
			combined = make([]float64, len(rets))
		}
		n := len(combined)
		if len(rets) < n {
			n = len(rets)
		}
		// align series on the most recent n observations
		cOff, rOff := len(combined)-n, len(rets)-n
		for i := 0; i < n; i++ {
			combined[cOff+i] += a.Weight * rets[rOff+i]
		}
		totalWeight += a.Weight
	}
	if totalWeight == 0 || len(combined) == 0 {
		return nil, nil
	}
	for i := range combined {
		combined[i] /= totalWeight
	}

	values := make([]float64, len(combined)+1)
	// walk the value series backwards from the current value
	values[len(values)-1] = value
	for i := len(combined) - 1; i >= 0; i-- {
		values[i] = values[i+1] / (1 + combined[i])
	}
	return combined, values
}

// SweepAll runs the rule check over every portfolio. Used by the
// scheduler; per-portfolio failures are logged and skipped.
func (m *RiskMonitor) SweepAll(ctx context.Context) {
	portfolios, err := m.portfolios.List(ctx, "")
	if err != nil {
		m.metrics.RecordError("risk_sweep_list")
		m.log.Error("list portfolios for risk sweep", logger.Error(err))
		return
	}
	var raised int
	for _, p := range portfolios {
		alerts, err := m.CheckPortfolio(ctx, p.ID)
		if err != nil {
			m.log.Warn("risk check failed",
				logger.String("portfolio_id", p.ID), logger.Error(err))
			continue
		}
		raised += len(alerts)
	}
	m.log.Info("risk sweep complete",
		logger.Int("portfolios", len(portfolios)),
		logger.Int("alerts", raised))
}

// PortfolioVaR computes Value-at-Risk for one portfolio on demand
// using the requested method.
func (m *RiskMonitor) PortfolioVaR(ctx context.Context, req *models.VaRRequest) (models.VaRResult, error) {
	p, err := m.portfolios.Get(ctx, req.PortfolioID)
	if err != nil {
		return models.VaRResult{}, fmt.Errorf("load portfolio: %w", err)
	}
	assets, err := m.portfolios.GetAssets(ctx, req.PortfolioID)
	if err != nil {
		return models.VaRResult{}, fmt.Errorf("load assets: %w", err)
	}
	value := portfolioValue(p, assets)
	returns, _ := m.portfolioSeries(ctx, assets, value)
	if len(returns) < 2 {
		return models.VaRResult{}, fmt.Errorf("insufficient return history for portfolio %s", req.PortfolioID)
	}

	switch req.Method {
	case "parametric":
		res := risk.ParametricVaR(util.Mean(returns), util.SampleStdDev(returns), req.ConfidenceLevel, value, req.HorizonDays)
		return res, nil
	case "monte_carlo":
		rng := rand.New(rand.NewSource(time.Now().UnixNano()))
		res := risk.MonteCarloVaR(rng, util.Mean(returns), util.SampleStdDev(returns), value, req.Simulations, req.ConfidenceLevel)
		res.HorizonDays = req.HorizonDays
		return res, nil
	default:
		res := risk.HistoricalVaR(returns, req.ConfidenceLevel, value)
		res.HorizonDays = req.HorizonDays
		return res, nil
	}
}

// SymbolKelly derives a Kelly allocation for a symbol from its daily
// close-to-close outcomes.
func (m *RiskMonitor) SymbolKelly(ctx context.Context, symbol string, maxAllocation float64) (models.KellyResult, error) {
	bars, err := m.bars.GetLatestNBars(ctx, symbol, riskMonitorLookbackBars, domrepo.DefaultTimeframe())
	if err != nil {
		return models.KellyResult{}, fmt.Errorf("load bars for %s: %w", symbol, err)
	}
	return risk.KellyFromOutcomes(models.CloseReturns(bars), maxAllocation), nil
}

func (m *RiskMonitor) newAlert(portfolioID, kind, severity, message string, threshold, current float64) *models.RiskAlert {
	return &models.RiskAlert{
		ID:           uuid.NewString(),
		PortfolioID:  portfolioID,
		Kind:         kind,
		Severity:     severity,
		Message:      message,
		Threshold:    threshold,
		CurrentValue: current,
		TriggeredAt:  time.Now().UTC(),
	}
}

func severityByRatio(ratio float64) string {
	switch {
	case ratio >= 2:
		return models.SeverityCritical
	case ratio >= 1.5:
		return models.SeverityHigh
	case ratio >= 1.2:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
