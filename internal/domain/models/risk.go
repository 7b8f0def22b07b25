package models

import "time"

// Risk alert kinds.
const (
	AlertVaRBreach     = "var_breach"
	AlertDrawdown      = "drawdown"
	AlertVolatility    = "volatility"
	AlertConcentration = "concentration"
	AlertStopLoss      = "stop_loss"
)

// Alert severities.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// RiskAlert is created by threshold checks; never deleted, only
// acknowledged.
type RiskAlert struct {
	ID           string    `json:"id"`
	PortfolioID  string    `json:"portfolio_id"`
	Kind         string    `json:"kind"`
	Severity     string    `json:"severity"`
	Message      string    `json:"message"`
	Threshold    float64   `json:"threshold"`
	CurrentValue float64   `json:"current_value"`
	TriggeredAt  time.Time `json:"triggered_at"`
	Acknowledged bool      `json:"acknowledged"`
}

// VaRResult is the outcome of a Value-at-Risk computation.
type VaRResult struct {
	Method          string  `json:"method"` // "historical" | "parametric" | "monte_carlo"
	ConfidenceLevel float64 `json:"confidence_level"`
	VaR             float64 `json:"var"`
	CVaR            float64 `json:"cvar,omitempty"`
	PortfolioValue  float64 `json:"portfolio_value"`
	HorizonDays     int     `json:"horizon_days"`
	Samples         int     `json:"samples,omitempty"`
}

// KellyResult is the outcome of Kelly-criterion sizing.
type KellyResult struct {
	WinProbability float64 `json:"win_probability"`
	PayoffRatio    float64 `json:"payoff_ratio"`
	KellyFraction  float64 `json:"kelly_fraction"`
	HalfKelly      float64 `json:"half_kelly"`
	QuarterKelly   float64 `json:"quarter_kelly"`
	Recommended    float64 `json:"recommended"`
	Reasoning      string  `json:"reasoning"`
}

// ATRStopResult carries ATR-derived stop and target levels.
type ATRStopResult struct {
	ATR        float64 `json:"atr"`
	StopLoss   float64 `json:"stop_loss"`
	Target     float64 `json:"target"`
	Multiplier float64 `json:"multiplier"`
	Fallback   bool    `json:"fallback"` // flat percentage stop used
}

// TrailingStopResult reports a trailing stop evaluation.
type TrailingStopResult struct {
	StopPrice float64 `json:"stop_price"`
	Triggered bool    `json:"triggered"`
}

// PositionSizeResult is a risk-budgeted share count recommendation.
type PositionSizeResult struct {
	Shares        int     `json:"shares"`
	PositionValue float64 `json:"position_value"`
	RiskAmount    float64 `json:"risk_amount"`
	PerShareRisk  float64 `json:"per_share_risk"`
	Capped        bool    `json:"capped"`
}

// DrawdownResult summarizes drawdown state of a value series.
type DrawdownResult struct {
	CurrentDrawdown  float64 `json:"current_drawdown"`
	MaxDrawdown      float64 `json:"max_drawdown"`
	InDrawdown       bool    `json:"in_drawdown"`
	DurationBars     int     `json:"duration_bars"`
	Peak             float64 `json:"peak"`
	EstRecoveryDays  int     `json:"est_recovery_days"`
}
