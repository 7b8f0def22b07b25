package service

import (
	"context"

	"QuantPulse/internal/domain/models"
)

// Predictor is the upstream prediction model. A failure for one symbol
// is caught at the call site and never aborts a generation cycle.
type Predictor interface {
	Generate(ctx context.Context, symbol string, horizonDays int) (models.Prediction, error)
}

// Notifier fans an alert payload out to all active targets.
// Delivery errors are logged by the caller and never abort generation.
type Notifier interface {
	SendToAllTargets(ctx context.Context, s *models.Signal) error
}
