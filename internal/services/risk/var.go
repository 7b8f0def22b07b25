package risk

import (
	"math"
	"math/rand"
	"sort"

	"QuantPulse/internal/domain/models"
	"QuantPulse/pkg/util"
)

// z-scores for the supported confidence levels. Unknown levels fall
// back to the 95% quantile.
var zScores = map[float64]float64{
	0.90: 1.282,
	0.95: 1.645,
	0.99: 2.326,
}

const defaultZ = 1.645

// HistoricalVaR estimates Value-at-Risk from an empirical return
// distribution. Empty input yields a zero result, not an error: no
// history means no measurable risk, which callers must distinguish
// from measured-zero via Samples.
func HistoricalVaR(returns []float64, confidence, portfolioValue float64) models.VaRResult {
	res := models.VaRResult{
		Method:          "historical",
		ConfidenceLevel: confidence,
		PortfolioValue:  portfolioValue,
		HorizonDays:     1,
		Samples:         len(returns),
	}
	if len(returns) == 0 {
		return res
	}

	sorted := make([]float64, len(returns))
	copy(sorted, returns)
	sort.Float64s(sorted)

	idx := int(math.Floor((1 - confidence) * float64(len(sorted))))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	res.VaR = -sorted[idx] * portfolioValue
	res.CVaR = -util.Mean(sorted[:idx+1]) * portfolioValue
	return res
}

// ParametricVaR assumes normal returns with the given mean and
// standard deviation, scaled to the horizon by sqrt(time).
func ParametricVaR(mean, stdDev, confidence, portfolioValue float64, horizonDays int) models.VaRResult {
	if horizonDays < 1 {
		horizonDays = 1
	}
	z, ok := zScores[confidence]
	if !ok {
		z = defaultZ
	}
	scale := math.Sqrt(float64(horizonDays))
	return models.VaRResult{
		Method:          "parametric",
		ConfidenceLevel: confidence,
		PortfolioValue:  portfolioValue,
		HorizonDays:     horizonDays,
		VaR:             -(mean - z*stdDev) * portfolioValue * scale,
	}
}

// MonteCarloVaR simulates normal return draws via the Box-Muller
// transform and applies the historical percentile rule. The random
// source is injected so results are reproducible under test.
func MonteCarloVaR(rng *rand.Rand, mean, stdDev, portfolioValue float64, simulations int, confidence float64) models.VaRResult {
	res := models.VaRResult{
		Method:          "monte_carlo",
		ConfidenceLevel: confidence,
		PortfolioValue:  portfolioValue,
		HorizonDays:     1,
		Samples:         simulations,
	}
	if simulations <= 0 {
		return res
	}

	draws := make([]float64, simulations)
	for i := 0; i < simulations; i++ {
		draws[i] = mean + stdDev*boxMuller(rng)
	}
	sort.Float64s(draws)

	idx := int(math.Floor((1 - confidence) * float64(simulations)))
	if idx >= simulations {
		idx = simulations - 1
	}
	res.VaR = -draws[idx] * portfolioValue
	res.CVaR = -util.Mean(draws[:idx+1]) * portfolioValue
	return res
}

// boxMuller draws one standard normal variate.
func boxMuller(rng *rand.Rand) float64 {
	u1 := rng.Float64()
	for u1 == 0 {
		u1 = rng.Float64()
	}
	u2 := rng.Float64()
	return math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
}
