package risk

import (
	"QuantPulse/internal/domain/models"
	"QuantPulse/pkg/util"
)

// minKellySamples is the completed-outcome floor below which no sizing
// signal is fabricated.
const minKellySamples = 10

// Kelly computes the Kelly criterion fraction for a win probability
// and payoff profile, clamped to [0, 1]. The recommended allocation is
// the half-Kelly capped by maxAllocation.
func Kelly(winProbability, avgWin, avgLoss, maxAllocation float64) models.KellyResult {
	b := 1.0
	if avgLoss != 0 {
		b = avgWin / avgLoss
	}
	f := 0.0
	if b > 0 {
		f = (winProbability*b - (1 - winProbability)) / b
	}
	f = util.Clamp(f, 0, 1)

	half := f / 2
	quarter := f / 4
	rec := half
	if rec > maxAllocation {
		rec = maxAllocation
	}

	return models.KellyResult{
		WinProbability: winProbability,
		PayoffRatio:    b,
		KellyFraction:  f,
		HalfKelly:      half,
		QuarterKelly:   quarter,
		Recommended:    rec,
		Reasoning:      kellyReasoning(f),
	}
}

// KellyFromOutcomes derives the Kelly inputs from a record of completed
// prediction outcomes (signed returns). Below minKellySamples it
// returns a neutral result annotated "insufficient data" rather than
// fabricating an edge.
func KellyFromOutcomes(outcomes []float64, maxAllocation float64) models.KellyResult {
	if len(outcomes) < minKellySamples {
		return models.KellyResult{
			WinProbability: 0.5,
			PayoffRatio:    1,
			Reasoning:      "insufficient data: fewer than 10 completed predictions",
		}
	}

	var wins, losses []float64
	for _, r := range outcomes {
		if r > 0 {
			wins = append(wins, r)
		} else if r < 0 {
			losses = append(losses, -r)
		}
	}
	p := float64(len(wins)) / float64(len(outcomes))
	return Kelly(p, util.Mean(wins), util.Mean(losses), maxAllocation)
}

func kellyReasoning(f float64) string {
	switch {
	case f <= 0:
		return "no positive edge, no position"
	case f < 0.05:
		return "marginal edge, minimal allocation"
	case f < 0.15:
		return "moderate edge, half-Kelly sizing"
	case f < 0.25:
		return "good edge, half-Kelly sizing"
	default:
		return "strong edge, quarter-Kelly to limit variance"
	}
}
