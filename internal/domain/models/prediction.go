package models

import "time"

// KeyFactors splits a prediction's drivers by direction.
type KeyFactors struct {
	Bullish []string `json:"bullish"`
	Bearish []string `json:"bearish"`
}

// Prediction is the black-box model output for one symbol.
type Prediction struct {
	Symbol         string             `json:"symbol"`
	Direction      string             `json:"direction"`
	Confidence     float64            `json:"confidence"` // 0..100
	PriceTarget    float64            `json:"price_target"`
	RiskLevel      string             `json:"risk_level"`
	LayerBreakdown map[string]float64 `json:"layer_breakdown,omitempty"`
	KeyFactors     KeyFactors         `json:"key_factors"`
	TargetDate     time.Time          `json:"target_date"`
}

// NotificationTarget is an external delivery endpoint for alerts. The
// engine consumes these, it does not own them.
type NotificationTarget struct {
	TargetType string   `json:"target_type"` // "telegram" | "webhook"
	TargetID   string   `json:"target_id"`   // chat id or URL
	Symbols    []string `json:"symbols,omitempty"`
	IsActive   bool     `json:"is_active"`
}
