package user

import (
	"time"
)

// User represents a person we send birthday notifications to.
type User struct {
	ID         string
	FirstName  string
	LastName   string
	BirthDate  time.Time
	BirthDay   int // day-of-month component of BirthDate, kept denormalized for the birthday scan
	BirthMonth int // 1-indexed month component of BirthDate
	Timezone   string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// FullName returns the display name used in notification messages.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}
