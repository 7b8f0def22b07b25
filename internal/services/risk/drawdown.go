package risk

import (
	"math"

	"QuantPulse/internal/domain/models"
)

const (
	// inDrawdownFloor is the minimum current drawdown that counts as
	// "in drawdown".
	inDrawdownFloor = 0.01

	// assumedDailyRecovery is the recovery rate used for the duration
	// estimate. Tunable; 0.5% a day is deliberately conservative.
	assumedDailyRecovery = 0.005
)

// Drawdown analyzes a portfolio value series against its running peak.
// Series shorter than 2 points yield a zero result.
func Drawdown(values []float64) models.DrawdownResult {
	if len(values) < 2 {
		return models.DrawdownResult{}
	}

	peak := values[0]
	peakIdx := 0
	var maxDD float64
	for i, v := range values {
		if v > peak {
			peak = v
			peakIdx = i
		}
		if peak > 0 {
			if dd := (peak - v) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}

	var current float64
	if peak > 0 {
		current = (peak - values[len(values)-1]) / peak
	}

	res := models.DrawdownResult{
		CurrentDrawdown: current,
		MaxDrawdown:     maxDD,
		InDrawdown:      current > inDrawdownFloor,
		Peak:            peak,
	}
	if res.InDrawdown {
		res.DurationBars = len(values) - 1 - peakIdx
		res.EstRecoveryDays = int(math.Ceil(current / assumedDailyRecovery))
	}
	return res
}
