package portfolio

import (
	"sort"

	"QuantPulse/internal/domain/models"
)

// EfficientFrontier samples random weight vectors and keeps, for each
// of a fixed number of return targets spanning the basket's expected
// return range, the lowest-volatility portfolio found within a small
// return tolerance. Points come back sorted by volatility.
func (o *Optimizer) EfficientFrontier(assets []Asset, points int, riskFreeRate float64) ([]models.FrontierPoint, error) {
	if len(assets) == 0 {
		return nil, ErrEmptyBasket
	}
	if points < 2 {
		points = 2
	}
	cov := CovarianceMatrix(assets)

	minRet, maxRet := assets[0].ExpectedReturn, assets[0].ExpectedReturn
	for _, a := range assets[1:] {
		if a.ExpectedReturn < minRet {
			minRet = a.ExpectedReturn
		}
		if a.ExpectedReturn > maxRet {
			maxRet = a.ExpectedReturn
		}
	}
	step := (maxRet - minRet) / float64(points-1)
	tolerance := step / 2
	if tolerance == 0 {
		tolerance = 1e-9
	}

	type bucket struct {
		found bool
		w     []float64
		ret   float64
		vol   float64
	}
	buckets := make([]bucket, points)

	w := make([]float64, len(assets))
	for s := 0; s < frontierSamples; s++ {
		o.randomWeights(w)
		ret := portfolioReturn(assets, w)
		vol := portfolioVolatility(cov, w)

		for b := range buckets {
			target := minRet + float64(b)*step
			if ret < target-tolerance || ret > target+tolerance {
				continue
			}
			if !buckets[b].found || vol < buckets[b].vol {
				cp := make([]float64, len(w))
				copy(cp, w)
				buckets[b] = bucket{found: true, w: cp, ret: ret, vol: vol}
			}
		}
	}

	out := make([]models.FrontierPoint, 0, points)
	for _, b := range buckets {
		if !b.found {
			continue
		}
		weights := make(map[string]float64, len(assets))
		for i, a := range assets {
			weights[a.Symbol] = b.w[i]
		}
		var sh float64
		if b.vol > 0 {
			sh = (b.ret - riskFreeRate) / b.vol
		}
		out = append(out, models.FrontierPoint{
			ExpectedReturn: b.ret,
			Volatility:     b.vol,
			Sharpe:         sh,
			Weights:        weights,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Volatility < out[j].Volatility })
	return out, nil
}
