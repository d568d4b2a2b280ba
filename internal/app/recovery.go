// internal/app/recovery.go
package app

import (
	"context"
	"fmt"

	"birthday_notification_service/internal/domain/clock"
	"birthday_notification_service/internal/domain/message"
	"birthday_notification_service/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// RecoveryRunner performs the one-shot startup pass that picks up birthdays
// missed while the process was down. It walks every user over a bounded
// look-back window and feeds the same ledger/delivery path as the scheduler.
type RecoveryRunner struct {
	users        user.Repository
	ledger       message.Ledger
	deliver      Deliverer
	clock        clock.Clock
	logger       *logrus.Entry
	lookbackDays int
}

func NewRecoveryRunner(
	users user.Repository,
	ledger message.Ledger,
	deliver Deliverer,
	clk clock.Clock,
	logger *logrus.Entry,
	lookbackDays int,
) *RecoveryRunner {
	return &RecoveryRunner{
		users:        users,
		ledger:       ledger,
		deliver:      deliver,
		clock:        clk,
		logger:       logger,
		lookbackDays: lookbackDays,
	}
}

// Run scans the look-back window for every user. It is meant to run exactly
// once, before the periodic scheduler starts. Only records still in
// StatusPending are delivered: sent records are final, and failed records
// are left for the scheduler's retry pass.
func (r *RecoveryRunner) Run(ctx context.Context) error {
	r.logger.Info("Checking for missed birthday messages...")

	users, err := r.users.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users for recovery: %w", err)
	}
	for _, u := range users {
		r.recoverUser(ctx, u)
	}
	return nil
}

func (r *RecoveryRunner) recoverUser(ctx context.Context, u *user.User) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Errorf("Panic while recovering birthdays for user %s: %v", u.ID, rec)
		}
	}()

	now := r.clock.Now()
	for i := 0; i < r.lookbackDays; i++ {
		localDate, _, err := r.clock.LocalDayHour(now.AddDate(0, 0, -i), u.Timezone)
		if err != nil {
			r.logger.Errorf("Cannot resolve local date for user %s (tz=%s): %v", u.ID, u.Timezone, err)
			return
		}
		if localDate.Day() != u.BirthDay || int(localDate.Month()) != u.BirthMonth {
			continue
		}

		record, err := r.ledger.GetOrCreate(ctx, u.ID, localDate)
		if err != nil {
			r.logger.Errorf("Failed to get or create ledger record for user %s on %s: %v", u.ID, localDate.Format("2006-01-02"), err)
			continue
		}
		if record.Status != message.StatusPending {
			continue
		}

		r.logger.Infof("Found missed birthday for %s on %s", u.FullName(), localDate.Format("2006-01-02"))
		if err := r.deliver.SendWithRetry(ctx, u); err != nil {
			r.logger.Errorf("Recovery delivery for %s failed: %v", u.FullName(), err)
			if errMark := r.ledger.MarkFailed(ctx, record.ID, err.Error()); errMark != nil {
				r.logger.Errorf("Failed to mark record %s as failed: %v", record.ID, errMark)
			}
			continue
		}
		if err := r.ledger.MarkSent(ctx, record.ID, r.clock.Now()); err != nil {
			r.logger.Errorf("Failed to mark record %s as sent: %v", record.ID, err)
			continue
		}
		r.logger.Infof("Recovered missed birthday message for %s", u.FullName())
	}
}
