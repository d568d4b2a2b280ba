package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLocalDayHour(t *testing.T) {
	t.Parallel()

	// 2025-03-03 17:30 UTC
	at := time.Date(2025, 3, 3, 17, 30, 0, 0, time.UTC)
	clk := NewSystemClock()

	// London is still on GMT in early March; LA is UTC-8, Tokyo UTC+9 and
	// Auckland UTC+13 (NZDT), which pushes the date to March 4.
	cases := []struct {
		timezone string
		wantDay  time.Time
		wantHour int
	}{
		{"UTC", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), 17},
		{"Europe/London", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), 17},
		{"America/Los_Angeles", time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), 9},
		{"Asia/Tokyo", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), 2},
		{"Pacific/Auckland", time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC), 6},
	}

	for _, tc := range cases {
		t.Run(tc.timezone, func(t *testing.T) {
			day, hour, err := clk.LocalDayHour(at, tc.timezone)
			require.NoError(t, err)
			require.Equal(t, tc.wantDay, day)
			require.Equal(t, tc.wantHour, hour)
		})
	}
}

func TestLocalDayHourInvalidTimezone(t *testing.T) {
	t.Parallel()

	_, _, err := NewSystemClock().LocalDayHour(time.Now(), "Not/A_Zone")
	require.Error(t, err)
}
