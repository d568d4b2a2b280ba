package app

import (
	"context"
	"fmt"
	"time"

	"birthday_notification_service/internal/domain/delivery"
	"birthday_notification_service/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// RetryPolicy maps an attempt index to the backoff delay before the next
// in-call delivery attempt.
type RetryPolicy struct {
	MaxRetries int           // retries after the initial attempt
	BaseDelay  time.Duration // doubled per failed attempt
}

// Delay returns the pause after failed attempt attemptIndex (0-based):
// base, base*2, base*4, ...
func (p RetryPolicy) Delay(attemptIndex int) time.Duration {
	return p.BaseDelay << uint(attemptIndex)
}

// Deliverer sends a single notification, handling in-call retries
// internally. Implemented by Sender; the scheduler and recovery runner
// depend on this interface so tests can observe delivery calls directly.
type Deliverer interface {
	SendWithRetry(ctx context.Context, u *user.User) error
}

// Sender wraps a delivery client with the bounded in-call retry loop.
// These retries happen seconds apart within one call; the ledger-level
// retry pass in SchedulerEngine re-attempts across ticks once this loop
// is exhausted.
type Sender struct {
	client delivery.Client
	policy RetryPolicy
	sleep  func(time.Duration) // injected in tests
	logger *logrus.Entry
}

func NewSender(client delivery.Client, policy RetryPolicy, logger *logrus.Entry) *Sender {
	return &Sender{
		client: client,
		policy: policy,
		sleep:  time.Sleep,
		logger: logger,
	}
}

// SendWithRetry performs up to MaxRetries+1 delivery attempts with
// exponential backoff between them. It returns nil on the first successful
// attempt, or the last attempt's error once all attempts are exhausted.
func (s *Sender) SendWithRetry(ctx context.Context, u *user.User) error {
	var lastErr error
	for attempt := 0; attempt <= s.policy.MaxRetries; attempt++ {
		if attempt > 0 {
			s.sleep(s.policy.Delay(attempt - 1))
		}
		if err := s.client.Send(ctx, u); err != nil {
			lastErr = err
			s.logger.Warnf("Delivery attempt %d/%d for user %s failed: %v", attempt+1, s.policy.MaxRetries+1, u.ID, err)
			continue
		}
		return nil
	}
	return fmt.Errorf("all %d delivery attempts failed: %w", s.policy.MaxRetries+1, lastErr)
}
