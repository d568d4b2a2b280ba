package delivery

import (
	"context"

	"birthday_notification_service/internal/domain/user"
)

// Client defines an interface for delivering a single birthday notification
// attempt. This decouples the scheduling logic from the concrete transport
// (an HTTP webhook in production).
type Client interface {
	// Send performs one delivery attempt, bounded by the client's configured
	// per-attempt timeout. A non-nil error means the attempt failed; the
	// caller decides whether to retry.
	Send(ctx context.Context, u *user.User) error
}
