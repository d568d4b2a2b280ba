package clock

import (
	"time"
)

// Clock supplies the current instant and resolves instants to local calendar
// dates in IANA timezones. It exists as an interface so the scheduler and
// recovery logic can be exercised against frozen time in tests.
type Clock interface {
	Now() time.Time
	// LocalDayHour resolves an instant to the calendar date (normalized to
	// midnight UTC) and the hour of day in the given IANA timezone.
	LocalDayHour(at time.Time, timezone string) (day time.Time, hour int, err error)
}
