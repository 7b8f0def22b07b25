package repository

// Timeframe represents bar resolution buckets.
type Timeframe string

const (
	TF15m Timeframe = "15m"
	TF1h  Timeframe = "1h"
	TF4h  Timeframe = "4h"
	TF1d  Timeframe = "1d"
)

// IsValidTimeframe returns true if tf is a supported timeframe.
func IsValidTimeframe(tf Timeframe) bool {
	switch tf {
	case TF15m, TF1h, TF4h, TF1d:
		return true
	default:
		return false
	}
}

// DefaultTimeframe returns the default timeframe.
func DefaultTimeframe() Timeframe { return TF1d }

// NormalizeTimeframe converts raw string to a valid timeframe (or default).
func NormalizeTimeframe(s string) Timeframe {
	if s == "" {
		return DefaultTimeframe()
	}
	tf := Timeframe(s)
	if IsValidTimeframe(tf) {
		return tf
	}
	return DefaultTimeframe()
}

// BarsPerYear returns the annualization factor for a timeframe,
// assuming US equity sessions (252 trading days, 6.5h each).
func BarsPerYear(tf Timeframe) float64 {
	switch tf {
	case TF15m:
		return 252 * 26
	case TF1h:
		return 252 * 6.5
	case TF4h:
		return 252 * 1.625
	default:
		return 252
	}
}
