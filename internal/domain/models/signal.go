package models

import "time"

// Signal types.
const (
	SignalBuy   = "buy"
	SignalSell  = "sell"
	SignalHold  = "hold"
	SignalAlert = "alert"
)

// Directions.
const (
	DirectionUp   = "up"
	DirectionDown = "down"
	DirectionFlat = "flat"
)

// Risk levels.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Signal is one generated trading recommendation. Immutable after
// creation except for the IsActive and Notified flags.
type Signal struct {
	ID          string             `json:"id"`
	Symbol      string             `json:"symbol"`
	SignalType  string             `json:"signal_type"`
	Confidence  float64            `json:"confidence"` // 0..100
	Direction   string             `json:"direction"`
	Price       float64            `json:"price"`
	TargetPrice float64            `json:"target_price"`
	StopLoss    float64            `json:"stop_loss"`
	LayerScores map[string]float64 `json:"layer_scores,omitempty"`
	KeyFactors  []string           `json:"key_factors,omitempty"`
	RiskLevel   string             `json:"risk_level"`
	Source      string             `json:"source"`
	IsActive    bool               `json:"is_active"`
	Notified    bool               `json:"notified"`
	ExpiresAt   time.Time          `json:"expires_at"`
	CreatedAt   time.Time          `json:"created_at"`
}

// Expired reports whether the signal is past its expiry at t.
func (s *Signal) Expired(t time.Time) bool {
	return !s.ExpiresAt.IsZero() && t.After(s.ExpiresAt)
}
