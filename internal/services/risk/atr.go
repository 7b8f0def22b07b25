package risk

import (
	"math"

	"QuantPulse/internal/domain/models"
)

const (
	// DefaultATRPeriod is the conventional 14-bar ATR window.
	DefaultATRPeriod = 14

	// Flat fallback stop/target when the series is shorter than the
	// ATR window.
	fallbackStopPct   = 0.02
	fallbackTargetPct = 0.10

	// High/low proxy applied when only closes are available.
	closeRangeProxy = 0.01

	// Target extends 1.5x the stop distance.
	targetRatio = 1.5
)

// ATRStops derives stop and target levels from a bar series using the
// Average True Range. Below period+1 bars it falls back to a flat
// percentage stop/target off the last close.
func ATRStops(bars []models.PriceBar, period int, multiplier float64) models.ATRStopResult {
	if period <= 0 {
		period = DefaultATRPeriod
	}
	if len(bars) == 0 {
		return models.ATRStopResult{Multiplier: multiplier, Fallback: true}
	}
	last := bars[len(bars)-1].Close
	if len(bars) < period+1 {
		return fallbackStops(last, multiplier)
	}

	trs := make([]float64, 0, period)
	for i := len(bars) - period; i < len(bars); i++ {
		prevClose := bars[i-1].Close
		tr := bars[i].High - bars[i].Low
		tr = math.Max(tr, math.Abs(bars[i].High-prevClose))
		tr = math.Max(tr, math.Abs(bars[i].Low-prevClose))
		trs = append(trs, tr)
	}
	var sum float64
	for _, tr := range trs {
		sum += tr
	}
	atr := sum / float64(len(trs))

	return models.ATRStopResult{
		ATR:        atr,
		StopLoss:   last - atr*multiplier,
		Target:     last + atr*multiplier*targetRatio,
		Multiplier: multiplier,
	}
}

// ATRStopsFromCloses computes ATR stops when only closing prices are
// available, synthesizing highs and lows as a fixed +/-1% band around
// each close.
func ATRStopsFromCloses(closes []float64, period int, multiplier float64) models.ATRStopResult {
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{
			Open:  c,
			High:  c * (1 + closeRangeProxy),
			Low:   c * (1 - closeRangeProxy),
			Close: c,
		}
	}
	return ATRStops(bars, period, multiplier)
}

func fallbackStops(lastClose, multiplier float64) models.ATRStopResult {
	return models.ATRStopResult{
		StopLoss:   lastClose * (1 - fallbackStopPct),
		Target:     lastClose * (1 + fallbackTargetPct),
		Multiplier: multiplier,
		Fallback:   true,
	}
}

// TrailingStop evaluates a percentage trailing stop anchored at the
// highest price seen since entry.
func TrailingStop(entry, current, highestSeen, trailingPct float64) models.TrailingStopResult {
	stop := highestSeen * (1 - trailingPct)
	return models.TrailingStopResult{
		StopPrice: stop,
		Triggered: current <= stop,
	}
}
