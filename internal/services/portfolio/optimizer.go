package portfolio

import (
	"errors"
	"math"
	"math/rand"

	"QuantPulse/pkg/util"
)

// Search budgets. Fixed iteration counts bound worst-case latency per
// request; the search is an anytime heuristic, not an exact solve.
const (
	sharpeSamples     = 3000
	refineIterations  = 500
	refineDelta       = 0.10
	parityIterations  = 100
	frontierSamples   = 5000
	tradingDaysPerYear = 252
)

var (
	ErrEmptyBasket = errors.New("portfolio: asset basket is empty")
)

// Asset is one optimization input: annualized expectations plus the
// periodic return history used for covariance.
type Asset struct {
	Symbol         string
	ExpectedReturn float64
	Volatility     float64
	Returns        []float64
}

// Result is an optimization outcome. Weights sum to 1 within floating
// tolerance and are all non-negative (long-only).
type Result struct {
	Strategy       string
	Weights        map[string]float64
	ExpectedReturn float64
	Volatility     float64
	Sharpe         float64
}

// Optimizer runs the portfolio searches. The random source is injected
// so tests can assert determinism.
type Optimizer struct {
	rng *rand.Rand
}

func New(rng *rand.Rand) *Optimizer {
	return &Optimizer{rng: rng}
}

// CovarianceMatrix builds the annualized sample covariance matrix of
// the assets' historical returns (Bessel-corrected, x252). Assets
// without overlapping history fall back to a diagonal entry from their
// annualized volatility.
func CovarianceMatrix(assets []Asset) [][]float64 {
	n := len(assets)
	cov := make([][]float64, n)
	for i := range cov {
		cov[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := util.SampleCovariance(assets[i].Returns, assets[j].Returns) * tradingDaysPerYear
			if i == j && c == 0 {
				c = assets[i].Volatility * assets[i].Volatility
			}
			cov[i][j] = c
			cov[j][i] = c
		}
	}
	return cov
}

// MaxSharpe runs the stochastic max-Sharpe search: random normalized
// weight vectors, then a local refinement phase that keeps improving
// perturbations. The result is approximate, not globally optimal.
func (o *Optimizer) MaxSharpe(assets []Asset, riskFreeRate float64) (Result, error) {
	if len(assets) == 0 {
		return Result{}, ErrEmptyBasket
	}
	if degenerate(assets) {
		res, err := o.EqualWeight(assets, riskFreeRate)
		res.Strategy = "max_sharpe"
		return res, err
	}
	cov := CovarianceMatrix(assets)

	best := equalWeights(len(assets))
	bestSharpe := math.Inf(-1)

	w := make([]float64, len(assets))
	for s := 0; s < sharpeSamples; s++ {
		o.randomWeights(w)
		if sh := sharpe(assets, cov, w, riskFreeRate); sh > bestSharpe {
			bestSharpe = sh
			copy(best, w)
		}
	}

	cand := make([]float64, len(assets))
	for s := 0; s < refineIterations; s++ {
		copy(cand, best)
		for i := range cand {
			cand[i] += (o.rng.Float64()*2 - 1) * refineDelta
			if cand[i] < 0 {
				cand[i] = 0
			}
		}
		if !normalize(cand) {
			continue
		}
		if sh := sharpe(assets, cov, cand, riskFreeRate); sh > bestSharpe {
			bestSharpe = sh
			copy(best, cand)
		}
	}

	return o.buildResult("max_sharpe", assets, cov, best, riskFreeRate), nil
}

// RiskParity iterates from inverse-volatility weights toward equal
// risk contributions. The loop runs a fixed budget rather than a
// convergence tolerance.
func (o *Optimizer) RiskParity(assets []Asset, riskFreeRate float64) (Result, error) {
	if len(assets) == 0 {
		return Result{}, ErrEmptyBasket
	}
	if degenerate(assets) {
		res, err := o.EqualWeight(assets, riskFreeRate)
		res.Strategy = "risk_parity"
		return res, err
	}
	cov := CovarianceMatrix(assets)

	w := make([]float64, len(assets))
	for i, a := range assets {
		vol := a.Volatility
		if vol <= 0 {
			vol = math.Sqrt(cov[i][i])
		}
		if vol <= 0 {
			vol = 1
		}
		w[i] = 1 / vol
	}
	normalize(w)

	for iter := 0; iter < parityIterations; iter++ {
		mrc := matVec(cov, w)
		var total float64
		rc := make([]float64, len(w))
		for i := range w {
			rc[i] = w[i] * mrc[i]
			total += rc[i]
		}
		if total <= 0 {
			break
		}
		target := total / float64(len(w))
		for i := range w {
			if rc[i] > 0 {
				w[i] *= math.Sqrt(target / rc[i])
			}
		}
		normalize(w)
	}

	return o.buildResult("risk_parity", assets, cov, w, riskFreeRate), nil
}

// EqualWeight is the trivial 1/n baseline and the safe fallback for
// degenerate inputs.
func (o *Optimizer) EqualWeight(assets []Asset, riskFreeRate float64) (Result, error) {
	if len(assets) == 0 {
		return Result{}, ErrEmptyBasket
	}
	cov := CovarianceMatrix(assets)
	return o.buildResult("equal_weight", assets, cov, equalWeights(len(assets)), riskFreeRate), nil
}

func (o *Optimizer) buildResult(strategy string, assets []Asset, cov [][]float64, w []float64, rf float64) Result {
	weights := make(map[string]float64, len(assets))
	for i, a := range assets {
		weights[a.Symbol] = w[i]
	}
	ret := portfolioReturn(assets, w)
	vol := portfolioVolatility(cov, w)
	var sh float64
	if vol > 0 {
		sh = (ret - rf) / vol
	}
	return Result{
		Strategy:       strategy,
		Weights:        weights,
		ExpectedReturn: ret,
		Volatility:     vol,
		Sharpe:         sh,
	}
}

// randomWeights fills w with a random non-negative vector summing to 1.
func (o *Optimizer) randomWeights(w []float64) {
	var sum float64
	for i := range w {
		w[i] = o.rng.Float64()
		sum += w[i]
	}
	if sum == 0 {
		w[0] = 1
		return
	}
	for i := range w {
		w[i] /= sum
	}
}

func equalWeights(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		w[i] = 1 / float64(n)
	}
	return w
}

// normalize scales w to sum 1; returns false when the vector is all
// zeros and cannot be normalized.
func normalize(w []float64) bool {
	var sum float64
	for _, x := range w {
		sum += x
	}
	if sum <= 0 {
		return false
	}
	for i := range w {
		w[i] /= sum
	}
	return true
}

func degenerate(assets []Asset) bool {
	for _, a := range assets {
		if a.Volatility > 0 || util.SampleVariance(a.Returns) > 0 {
			return false
		}
	}
	return true
}

func portfolioReturn(assets []Asset, w []float64) float64 {
	var ret float64
	for i, a := range assets {
		ret += w[i] * a.ExpectedReturn
	}
	return ret
}

func portfolioVolatility(cov [][]float64, w []float64) float64 {
	var variance float64
	for i := range w {
		for j := range w {
			variance += w[i] * w[j] * cov[i][j]
		}
	}
	if variance < 0 {
		return 0
	}
	return math.Sqrt(variance)
}

func matVec(m [][]float64, v []float64) []float64 {
	out := make([]float64, len(v))
	for i := range m {
		var sum float64
		for j := range v {
			sum += m[i][j] * v[j]
		}
		out[i] = sum
	}
	return out
}

func sharpe(assets []Asset, cov [][]float64, w []float64, rf float64) float64 {
	vol := portfolioVolatility(cov, w)
	if vol == 0 {
		return math.Inf(-1)
	}
	return (portfolioReturn(assets, w) - rf) / vol
}
