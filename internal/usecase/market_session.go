package usecase

import "time"

// Market session states derived from US equity trading hours.
const (
	SessionClosed     = "closed"
	SessionPreMarket  = "pre_market"
	SessionOpen       = "open"
	SessionAfterHours = "after_hours"
)

// Session boundaries in minutes from midnight, Eastern time.
const (
	preMarketStart = 4 * 60          // 04:00
	openStart      = 9*60 + 30       // 09:30
	afterStart     = 16 * 60         // 16:00
	afterEnd       = 20 * 60         // 20:00
)

// MarketClock reports the current trading session. It normalizes any
// wall-clock time into Eastern time before bucketing.
type MarketClock struct {
	loc *time.Location
}

// NewMarketClock loads the exchange timezone. Falls back to a fixed
// UTC-5 offset if tzdata is unavailable.
func NewMarketClock() *MarketClock {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("ET", -5*60*60)
	}
	return &MarketClock{loc: loc}
}

// SessionAt buckets the given instant into a market session.
func (c *MarketClock) SessionAt(t time.Time) string {
	et := t.In(c.loc)

	switch et.Weekday() {
	case time.Saturday, time.Sunday:
		return SessionClosed
	}

	minute := et.Hour()*60 + et.Minute()
	switch {
	case minute >= preMarketStart && minute < openStart:
		return SessionPreMarket
	case minute >= openStart && minute < afterStart:
		return SessionOpen
	case minute >= afterStart && minute < afterEnd:
		return SessionAfterHours
	default:
		return SessionClosed
	}
}

// Session buckets the current instant.
func (c *MarketClock) Session() string {
	return c.SessionAt(time.Now())
}

// IsOpen reports whether any trading session (including extended
// hours) is active.
func (c *MarketClock) IsOpen() bool {
	return c.Session() != SessionClosed
}
