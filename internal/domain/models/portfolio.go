package models

import "time"

// Optimization strategies.
const (
	StrategyMaxSharpe   = "max_sharpe"
	StrategyRiskParity  = "risk_parity"
	StrategyEqualWeight = "equal_weight"
)

// PerformanceSnapshot captures point-in-time portfolio statistics.
type PerformanceSnapshot struct {
	Return      float64 `json:"return"`
	Sharpe      float64 `json:"sharpe"`
	MaxDrawdown float64 `json:"max_drawdown"`
	Volatility  float64 `json:"volatility"`
}

// Portfolio is a user's asset basket. Assets are loaded separately.
type Portfolio struct {
	ID               string              `json:"id"`
	OwnerID          string              `json:"owner_id,omitempty"`
	Name             string              `json:"name"`
	InitialCapital   float64             `json:"initial_capital"`
	CurrentValue     float64             `json:"current_value"`
	Strategy         string              `json:"strategy"`
	Performance      PerformanceSnapshot `json:"performance"`
	LastRebalancedAt *time.Time          `json:"last_rebalanced_at,omitempty"`
	CreatedAt        time.Time           `json:"created_at"`
}

// PortfolioAsset is one holding inside a portfolio. After any accepted
// optimization the weights across a portfolio sum to 1 within floating
// tolerance.
type PortfolioAsset struct {
	PortfolioID    string  `json:"portfolio_id"`
	Symbol         string  `json:"symbol"`
	Shares         float64 `json:"shares"`
	Weight         float64 `json:"weight"`
	CostBasis      float64 `json:"cost_basis,omitempty"`
	CurrentPrice   float64 `json:"current_price"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility"`
}

// RebalanceTrade is one buy/sell delta needed to reach target weights.
type RebalanceTrade struct {
	Symbol string  `json:"symbol"`
	Action string  `json:"action"` // "buy" | "sell"
	Shares float64 `json:"shares"`
	Value  float64 `json:"value"`
}

// Rebalance is an append-only audit record of one accepted optimization.
type Rebalance struct {
	ID              string              `json:"id"`
	PortfolioID     string              `json:"portfolio_id"`
	Date            time.Time           `json:"date"`
	Strategy        string              `json:"strategy"`
	PreviousWeights map[string]float64  `json:"previous_weights"`
	NewWeights      map[string]float64  `json:"new_weights"`
	Trades          []RebalanceTrade    `json:"trades"`
	Performance     PerformanceSnapshot `json:"performance"`
	Reason          string              `json:"reason,omitempty"`
}

// FrontierPoint is one sampled portfolio on the efficient frontier.
type FrontierPoint struct {
	ExpectedReturn float64            `json:"expected_return"`
	Volatility     float64            `json:"volatility"`
	Sharpe         float64            `json:"sharpe"`
	Weights        map[string]float64 `json:"weights"`
}
