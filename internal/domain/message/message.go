package message

import (
	"database/sql"
	"time"
)

// Status represents the delivery state of a birthday message record.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// BirthdayMessage is the ledger record for a single (user, calendar date)
// notification. Exactly one record exists per pair; it is created lazily the
// first time a scan decides the user is due and is never deleted. Once the
// status reaches StatusSent it never changes again.
// Corresponds to the 'birthday_messages' table.
type BirthdayMessage struct {
	ID           string
	UserID       string
	MessageDate  time.Time // calendar date in the user's zone, normalized to midnight UTC
	Status       Status
	SentAt       sql.NullTime
	RetryCount   int
	ErrorMessage sql.NullString
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DateOf strips the time-of-day and location from t, leaving only the
// calendar date. All MessageDate values go through this so that ledger
// lookups compare equal regardless of where the date was computed.
func DateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
