package app

import (
	"context"
	"fmt"
	"time"

	"birthday_notification_service/internal/domain/user"

	"github.com/google/uuid"
)

// Custom application-level errors for the user service
var ErrInvalidTimezone = fmt.Errorf("invalid IANA timezone identifier")
var ErrInvalidBirthDate = fmt.Errorf("birth date must be in YYYY-MM-DD format")

const birthDateLayout = "2006-01-02"

// CreateUserInput carries the fields required to register a user.
type CreateUserInput struct {
	FirstName string
	LastName  string
	BirthDate string // YYYY-MM-DD
	Timezone  string
}

// UpdateUserInput carries optional updates; nil fields are left unchanged.
type UpdateUserInput struct {
	FirstName *string
	LastName  *string
	BirthDate *string
	Timezone  *string
}

// UserService implements the user-management plumbing around the directory.
type UserService struct {
	userRepo user.Repository
}

func NewUserService(ur user.Repository) *UserService {
	return &UserService{userRepo: ur}
}

func (s *UserService) Create(ctx context.Context, in CreateUserInput) (*user.User, error) {
	birthDate, err := time.Parse(birthDateLayout, in.BirthDate)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBirthDate, in.BirthDate)
	}
	if err := validateTimezone(in.Timezone); err != nil {
		return nil, err
	}

	u := &user.User{
		ID:         uuid.NewString(),
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		BirthDate:  birthDate,
		BirthDay:   birthDate.Day(),
		BirthMonth: int(birthDate.Month()),
		Timezone:   in.Timezone,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to create user in repository: %w", err)
	}
	return u, nil
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (*user.User, error) {
	u, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if in.FirstName != nil {
		u.FirstName = *in.FirstName
	}
	if in.LastName != nil {
		u.LastName = *in.LastName
	}
	if in.Timezone != nil {
		if err := validateTimezone(*in.Timezone); err != nil {
			return nil, err
		}
		u.Timezone = *in.Timezone
	}
	if in.BirthDate != nil {
		birthDate, err := time.Parse(birthDateLayout, *in.BirthDate)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidBirthDate, *in.BirthDate)
		}
		u.BirthDate = birthDate
		u.BirthDay = birthDate.Day()
		u.BirthMonth = int(birthDate.Month())
	}

	if err := s.userRepo.Update(ctx, u); err != nil {
		return nil, fmt.Errorf("failed to update user in repository: %w", err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, id string) error {
	return s.userRepo.Delete(ctx, id)
}

func (s *UserService) Get(ctx context.Context, id string) (*user.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*user.User, error) {
	return s.userRepo.ListAll(ctx)
}

func validateTimezone(tz string) error {
	if tz == "" {
		return fmt.Errorf("%w: empty", ErrInvalidTimezone)
	}
	if _, err := time.LoadLocation(tz); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidTimezone, tz)
	}
	return nil
}
