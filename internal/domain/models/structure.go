package models

import "time"

// Gap direction.
const (
	GapBullish = "bullish"
	GapBearish = "bearish"
)

// Significance buckets shared by gaps and shifts.
const (
	SignificanceLow    = "low"
	SignificanceMedium = "medium"
	SignificanceHigh   = "high"
)

// Structure shift kinds.
const (
	ShiftBullishToBearish = "bullish_to_bearish"
	ShiftBearishToBullish = "bearish_to_bullish"
)

// Liquidity void magnet strength.
const (
	MagnetWeak   = "weak"
	MagnetMedium = "medium"
	MagnetStrong = "strong"
)

// FairValueGap is a price range left untouched by three consecutive bars.
type FairValueGap struct {
	Symbol       string    `json:"symbol"`
	Timeframe    string    `json:"timeframe"`
	Direction    string    `json:"direction"`
	GapTop       float64   `json:"gap_top"`
	GapBottom    float64   `json:"gap_bottom"`
	GapSizeAbs   float64   `json:"gap_size_abs"`
	GapSizePct   float64   `json:"gap_size_pct"`
	Filled       bool      `json:"filled"`
	Significance string    `json:"significance"`
	CreatedAt    time.Time `json:"created_at"`
}

// StructureShift records a break of a prior swing high/low that flips
// the per-(symbol, timeframe) trend state. Confirmed is reserved for a
// downstream consumer and is never set here.
type StructureShift struct {
	Symbol         string    `json:"symbol"`
	Timeframe      string    `json:"timeframe"`
	Kind           string    `json:"kind"`
	BreakLevel     float64   `json:"break_level"`
	PriorSwingHigh float64   `json:"prior_swing_high"`
	PriorSwingLow  float64   `json:"prior_swing_low"`
	Strength       string    `json:"strength"`
	Confirmed      bool      `json:"confirmed"`
	Timestamp      time.Time `json:"timestamp"`
}

// LiquidityVoid is a price range traversed on abnormally low volume.
type LiquidityVoid struct {
	Symbol           string    `json:"symbol"`
	Timeframe        string    `json:"timeframe"`
	VoidTop          float64   `json:"void_top"`
	VoidBottom       float64   `json:"void_bottom"`
	SizeAbs          float64   `json:"size_abs"`
	VolumeAtEvent    float64   `json:"volume_at_event"`
	PriceVelocityPct float64   `json:"price_velocity_pct"`
	MagnetStrength   string    `json:"magnet_strength"`
	Revisited        bool      `json:"revisited"`
	CreatedAt        time.Time `json:"created_at"`
}

// StructureReport bundles all structural events found in one bar series.
type StructureReport struct {
	Symbol    string           `json:"symbol"`
	Timeframe string           `json:"timeframe"`
	Gaps      []FairValueGap   `json:"gaps"`
	Shifts    []StructureShift `json:"shifts"`
	Voids     []LiquidityVoid  `json:"voids"`
}
