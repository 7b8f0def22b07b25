package models

import "time"

// PriceBar is one OHLCV candle for a (symbol, timeframe). Bars are read
// from storage ordered ascending by timestamp and never mutated.
type PriceBar struct {
	Timestamp time.Time
	Symbol    string
	Timeframe string
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
}

// Range returns the bar's full high-low extent.
func (b PriceBar) Range() float64 { return b.High - b.Low }

// CloseReturns computes simple close-to-close returns for a bar series.
func CloseReturns(bars []PriceBar) []float64 {
	if len(bars) < 2 {
		return nil
	}
	out := make([]float64, 0, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, (bars[i].Close-prev)/prev)
	}
	return out
}
