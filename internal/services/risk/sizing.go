package risk

import (
	"errors"
	"math"

	"QuantPulse/internal/domain/models"
)

// maxPositionPct caps a single position at 20% of account size.
const maxPositionPct = 0.20

var (
	ErrInvalidAccountSize = errors.New("risk: account size must be positive")
	ErrInvalidRiskPct     = errors.New("risk: risk percent must be in (0, 1]")
	ErrInvalidStop        = errors.New("risk: stop must sit below the entry price")
	ErrInvalidEntry       = errors.New("risk: entry price must be positive")
)

// PositionSize converts a risk budget into a share count for a long
// position. The stop must sit strictly below the entry, so the
// per-share risk is always positive and a zero-distance stop is an
// explicit invalid input, never a silent zero-share answer.
func PositionSize(accountSize, riskPct, entry, stop float64) (models.PositionSizeResult, error) {
	if accountSize <= 0 {
		return models.PositionSizeResult{}, ErrInvalidAccountSize
	}
	if riskPct <= 0 || riskPct > 1 {
		return models.PositionSizeResult{}, ErrInvalidRiskPct
	}
	if entry <= 0 {
		return models.PositionSizeResult{}, ErrInvalidEntry
	}
	if stop < 0 || stop >= entry {
		return models.PositionSizeResult{}, ErrInvalidStop
	}
	perShare := entry - stop

	riskAmount := accountSize * riskPct
	shares := int(math.Floor(riskAmount / perShare))

	res := models.PositionSizeResult{
		RiskAmount:   riskAmount,
		PerShareRisk: perShare,
	}
	maxValue := accountSize * maxPositionPct
	if float64(shares)*entry > maxValue {
		shares = int(math.Floor(maxValue / entry))
		res.Capped = true
	}
	res.Shares = shares
	res.PositionValue = float64(shares) * entry
	return res, nil
}
