package models

// Requests for the dashboard HTTP surface. Defined in domain for
// consistency and reuse, as with the analytics requests they replace.

type CreatePortfolioRequest struct {
	Name           string  `json:"name" validate:"required,max=120"`
	OwnerID        string  `json:"owner_id"`
	InitialCapital float64 `json:"initial_capital" validate:"required,gt=0"`
	Strategy       string  `json:"strategy" default:"equal_weight" validate:"oneof=max_sharpe risk_parity equal_weight"`
}

type UpdatePortfolioRequest struct {
	Name     string `json:"name" validate:"omitempty,max=120"`
	Strategy string `json:"strategy" validate:"omitempty,oneof=max_sharpe risk_parity equal_weight"`
}

type UpsertAssetRequest struct {
	Symbol         string  `json:"symbol" validate:"required,max=16"`
	Shares         float64 `json:"shares" validate:"gte=0"`
	CostBasis      float64 `json:"cost_basis" validate:"gte=0"`
	CurrentPrice   float64 `json:"current_price" validate:"required,gt=0"`
	ExpectedReturn float64 `json:"expected_return"`
	Volatility     float64 `json:"volatility" validate:"gte=0"`
}

type OptimizeRequest struct {
	Strategy string `json:"strategy" default:"max_sharpe" validate:"oneof=max_sharpe risk_parity equal_weight"`
	Reason   string `json:"reason" validate:"omitempty,max=240"`
}

type FrontierRequest struct {
	Points int `query:"points" json:"points" default:"20" validate:"gte=2,lte=100"`
}

type KellyRequest struct {
	Symbol        string  `query:"symbol" json:"symbol" validate:"required"`
	MaxAllocation float64 `query:"max_allocation" json:"max_allocation" default:"0.25" validate:"gt=0,lte=1"`
}

type VaRRequest struct {
	PortfolioID     string  `param:"id" json:"portfolio_id" validate:"required"`
	Method          string  `query:"method" json:"method" default:"historical" validate:"oneof=historical parametric monte_carlo"`
	ConfidenceLevel float64 `query:"confidence" json:"confidence" default:"0.95" validate:"gt=0.5,lt=1"`
	HorizonDays     int     `query:"horizon_days" json:"horizon_days" default:"1" validate:"gte=1,lte=30"`
	Simulations     int     `query:"simulations" json:"simulations" default:"10000" validate:"gte=100,lte=100000"`
}

type PositionSizeRequest struct {
	AccountSize float64 `query:"account_size" json:"account_size" validate:"required,gt=0"`
	RiskPct     float64 `query:"risk_pct" json:"risk_pct" default:"0.02" validate:"gt=0,lte=0.1"`
	Entry       float64 `query:"entry" json:"entry" validate:"required,gt=0"`
	Stop        float64 `query:"stop" json:"stop" validate:"required,gt=0"`
}

type SignalListRequest struct {
	Symbol     string `query:"symbol" json:"symbol"`
	Limit      int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
	ActiveOnly bool   `query:"active" json:"active"`
}

type StructureRequest struct {
	Symbol    string `query:"symbol" json:"symbol" validate:"required"`
	Timeframe string `query:"tf" json:"tf" default:"1d" validate:"oneof=15m 1h 4h 1d"`
	Bars      int    `query:"bars" json:"bars" default:"200" validate:"gte=10,lte=2000"`
}
