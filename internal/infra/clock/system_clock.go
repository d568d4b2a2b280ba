package clock

import (
	"fmt"
	"time"

	"birthday_notification_service/internal/domain/message"
)

// SystemClock resolves local time through the IANA timezone database
// shipped with the Go runtime.
type SystemClock struct{}

func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

func (SystemClock) Now() time.Time {
	return time.Now()
}

// LocalDayHour resolves an instant to the calendar date and hour in the
// given IANA timezone.
func (SystemClock) LocalDayHour(at time.Time, timezone string) (time.Time, int, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}
	local := at.In(loc)
	return message.DateOf(local), local.Hour(), nil
}
