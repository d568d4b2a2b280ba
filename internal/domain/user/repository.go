package user

import (
	"context"
)

// Repository defines the operations for persisting and retrieving User entities.
// It is the directory the scheduler consults to find whose birthday it is.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id string) error
	ListAll(ctx context.Context) ([]*User, error)
	// ListWithBirthday returns users whose birth month/day equal the given
	// pair, regardless of birth year.
	ListWithBirthday(ctx context.Context, month int, day int) ([]*User, error)
}
