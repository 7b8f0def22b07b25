package usecase

import (
	"testing"
	"time"
)

func TestSessionAt_Buckets(t *testing.T) {
	clock := NewMarketClock()

	// 2026-01-05 is a Monday.
	cases := []struct {
		name string
		hour int
		min  int
		want string
	}{
		{"overnight", 2, 0, SessionClosed},
		{"pre-market start", 4, 0, SessionPreMarket},
		{"just before open", 9, 29, SessionPreMarket},
		{"open bell", 9, 30, SessionOpen},
		{"midday", 12, 0, SessionOpen},
		{"close bell", 16, 0, SessionAfterHours},
		{"extended", 18, 30, SessionAfterHours},
		{"late night", 20, 0, SessionClosed},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			at := time.Date(2026, time.January, 5, tc.hour, tc.min, 0, 0, clock.loc)
			if got := clock.SessionAt(at); got != tc.want {
				t.Errorf("SessionAt(%02d:%02d) = %s, want %s", tc.hour, tc.min, got, tc.want)
			}
		})
	}
}

func TestSessionAt_Weekend(t *testing.T) {
	clock := NewMarketClock()

	// Saturday and Sunday at midday are closed regardless of hour.
	for day := 10; day <= 11; day++ { // 2026-01-10 Sat, 2026-01-11 Sun
		at := time.Date(2026, time.January, day, 12, 0, 0, 0, clock.loc)
		if got := clock.SessionAt(at); got != SessionClosed {
			t.Errorf("weekend %v = %s, want closed", at, got)
		}
	}
}

func TestSessionAt_NormalizesTimezone(t *testing.T) {
	clock := NewMarketClock()

	// 17:00 UTC on a January Monday is 12:00 ET, mid-session.
	at := time.Date(2026, time.January, 5, 17, 0, 0, 0, time.UTC)
	if got := clock.SessionAt(at); got != SessionOpen {
		t.Errorf("SessionAt(17:00 UTC) = %s, want open", got)
	}
}
