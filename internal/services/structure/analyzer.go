package structure

import (
	"QuantPulse/internal/domain/models"
)

// Detection thresholds. Percentages are fractions (0.001 == 0.1%).
const (
	minGapPct       = 0.001
	gapHighPct      = 0.01
	gapMediumPct    = 0.005
	swingWindow     = 5
	voidMovePct     = 0.005
	voidVolumeRatio = 0.5
	voidStrongPct   = 0.02
	voidMediumPct   = 0.01
)

// Analyzer derives structural events from an ascending OHLCV series.
// It is stateless; every call operates only on the bars it is given.
type Analyzer struct{}

func New() *Analyzer { return &Analyzer{} }

// Analyze runs all detectors over one (symbol, timeframe) series.
// Series shorter than the detector windows yield empty result sets,
// not errors: these are statistical detectors, not hard preconditions.
func (a *Analyzer) Analyze(symbol, timeframe string, bars []models.PriceBar) models.StructureReport {
	return models.StructureReport{
		Symbol:    symbol,
		Timeframe: timeframe,
		Gaps:      a.DetectGaps(symbol, timeframe, bars),
		Shifts:    a.DetectShifts(symbol, timeframe, bars),
		Voids:     a.DetectVoids(symbol, timeframe, bars),
	}
}

// DetectGaps finds fair value gaps: three consecutive bars whose outer
// bars leave a non-overlapping price range of at least 0.1% of the
// middle bar's close.
func (a *Analyzer) DetectGaps(symbol, timeframe string, bars []models.PriceBar) []models.FairValueGap {
	var gaps []models.FairValueGap
	if len(bars) < 3 {
		return gaps
	}
	for i := 2; i < len(bars); i++ {
		first, mid, last := bars[i-2], bars[i-1], bars[i]
		if mid.Close == 0 {
			continue
		}
		if last.Low > first.High {
			size := last.Low - first.High
			pct := size / mid.Close
			if pct > minGapPct {
				gaps = append(gaps, models.FairValueGap{
					Symbol:       symbol,
					Timeframe:    timeframe,
					Direction:    models.GapBullish,
					GapTop:       last.Low,
					GapBottom:    first.High,
					GapSizeAbs:   size,
					GapSizePct:   pct,
					Significance: gapSignificance(pct),
					CreatedAt:    last.Timestamp,
				})
			}
		} else if last.High < first.Low {
			size := first.Low - last.High
			pct := size / mid.Close
			if pct > minGapPct {
				gaps = append(gaps, models.FairValueGap{
					Symbol:       symbol,
					Timeframe:    timeframe,
					Direction:    models.GapBearish,
					GapTop:       first.Low,
					GapBottom:    last.High,
					GapSizeAbs:   size,
					GapSizePct:   pct,
					Significance: gapSignificance(pct),
					CreatedAt:    last.Timestamp,
				})
			}
		}
	}
	return gaps
}

func gapSignificance(pct float64) string {
	switch {
	case pct > gapHighPct:
		return models.SignificanceHigh
	case pct > gapMediumPct:
		return models.SignificanceMedium
	default:
		return models.SignificanceLow
	}
}

type trendState int

const (
	trendUnset trendState = iota
	trendBullish
	trendBearish
)

// DetectShifts finds market structure shifts: a close through the last
// confirmed swing level against the current trend. One trend state is
// tracked per series, seeded from the midpoint of the first swing
// high/low pair. Confirmed stays false at creation; confirmation
// belongs to a downstream consumer.
func (a *Analyzer) DetectShifts(symbol, timeframe string, bars []models.PriceBar) []models.StructureShift {
	var shifts []models.StructureShift
	if len(bars) < 2*swingWindow+1 {
		return shifts
	}

	highIdx, lowIdx := swingPoints(bars)
	if len(highIdx) == 0 || len(lowIdx) == 0 {
		return shifts
	}

	trend := trendUnset
	lastHigh, lastLow := -1, -1
	nextHigh, nextLow := 0, 0

	for i := swingWindow; i < len(bars); i++ {
		// advance swing cursors: a swing at index j is known once the
		// confirming window has closed, i.e. from bar j+swingWindow on
		for nextHigh < len(highIdx) && highIdx[nextHigh]+swingWindow <= i {
			lastHigh = highIdx[nextHigh]
			nextHigh++
		}
		for nextLow < len(lowIdx) && lowIdx[nextLow]+swingWindow <= i {
			lastLow = lowIdx[nextLow]
			nextLow++
		}
		if lastHigh < 0 || lastLow < 0 {
			continue
		}

		if trend == trendUnset {
			mid := (bars[lastHigh].High + bars[lastLow].Low) / 2
			if bars[i].Close >= mid {
				trend = trendBullish
			} else {
				trend = trendBearish
			}
			continue
		}

		switch {
		case trend == trendBullish && bars[i].Close < bars[lastLow].Low:
			shifts = append(shifts, models.StructureShift{
				Symbol:         symbol,
				Timeframe:      timeframe,
				Kind:           models.ShiftBullishToBearish,
				BreakLevel:     bars[lastLow].Low,
				PriorSwingHigh: bars[lastHigh].High,
				PriorSwingLow:  bars[lastLow].Low,
				Strength:       "moderate",
				Timestamp:      bars[i].Timestamp,
			})
			trend = trendBearish
		case trend == trendBearish && bars[i].Close > bars[lastHigh].High:
			shifts = append(shifts, models.StructureShift{
				Symbol:         symbol,
				Timeframe:      timeframe,
				Kind:           models.ShiftBearishToBullish,
				BreakLevel:     bars[lastHigh].High,
				PriorSwingHigh: bars[lastHigh].High,
				PriorSwingLow:  bars[lastLow].Low,
				Strength:       "moderate",
				Timestamp:      bars[i].Timestamp,
			})
			trend = trendBullish
		}
	}
	return shifts
}

// swingPoints returns indices of local swing highs and lows using a
// symmetric window of swingWindow bars on each side.
func swingPoints(bars []models.PriceBar) (highs, lows []int) {
	for i := swingWindow; i < len(bars)-swingWindow; i++ {
		isHigh, isLow := true, true
		for j := i - swingWindow; j <= i+swingWindow; j++ {
			if j == i {
				continue
			}
			if bars[j].High > bars[i].High {
				isHigh = false
			}
			if bars[j].Low < bars[i].Low {
				isLow = false
			}
			if !isHigh && !isLow {
				break
			}
		}
		if isHigh {
			highs = append(highs, i)
		}
		if isLow {
			lows = append(lows, i)
		}
	}
	return highs, lows
}

// DetectVoids finds liquidity voids: a >0.5% close-to-close move made
// on less than half the window's mean volume.
func (a *Analyzer) DetectVoids(symbol, timeframe string, bars []models.PriceBar) []models.LiquidityVoid {
	var voids []models.LiquidityVoid
	if len(bars) < 2 {
		return voids
	}

	var totalVol float64
	for _, b := range bars {
		totalVol += b.Volume
	}
	meanVol := totalVol / float64(len(bars))

	for i := 1; i < len(bars); i++ {
		prev, cur := bars[i-1], bars[i]
		if prev.Close == 0 {
			continue
		}
		velocity := abs(cur.Close-prev.Close) / prev.Close
		if velocity <= voidMovePct || cur.Volume >= voidVolumeRatio*meanVol {
			continue
		}
		top := max(prev.High, cur.High)
		bottom := min(prev.Low, cur.Low)
		voids = append(voids, models.LiquidityVoid{
			Symbol:           symbol,
			Timeframe:        timeframe,
			VoidTop:          top,
			VoidBottom:       bottom,
			SizeAbs:          top - bottom,
			VolumeAtEvent:    cur.Volume,
			PriceVelocityPct: velocity,
			MagnetStrength:   magnetStrength(velocity),
			CreatedAt:        cur.Timestamp,
		})
	}
	return voids
}

func magnetStrength(velocity float64) string {
	switch {
	case velocity > voidStrongPct:
		return models.MagnetStrong
	case velocity > voidMediumPct:
		return models.MagnetMedium
	default:
		return models.MagnetWeak
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func max(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

func min(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
