// internal/app/scheduler_engine.go
package app

import (
	"context"
	"sync"
	"time"

	"birthday_notification_service/internal/domain/clock"
	"birthday_notification_service/internal/domain/message"
	"birthday_notification_service/internal/domain/user"
	idb "birthday_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

// SchedulerEngineConfig carries the tunables for one scan cycle.
type SchedulerEngineConfig struct {
	TargetHour       int // local hour at which a birthday becomes due
	RetryMaxAttempts int // ledger-level retry cap
	RetryRecencyDays int // max age of a failed record still retried
}

// SchedulerEngine orchestrates one scan cycle: it finds due users, creates
// or loads ledger records, invokes delivery and updates ledger state. Tick
// is single-flight: while one tick runs, further invocations are dropped.
type SchedulerEngine struct {
	users   user.Repository
	ledger  message.Ledger
	deliver Deliverer
	clock   clock.Clock
	logger  *logrus.Entry
	cfg     SchedulerEngineConfig

	mu      sync.Mutex
	running bool
}

func NewSchedulerEngine(
	users user.Repository,
	ledger message.Ledger,
	deliver Deliverer,
	clk clock.Clock,
	logger *logrus.Entry,
	cfg SchedulerEngineConfig,
) *SchedulerEngine {
	return &SchedulerEngine{
		users:   users,
		ledger:  ledger,
		deliver: deliver,
		clock:   clk,
		logger:  logger,
		cfg:     cfg,
	}
}

// Tick runs one scan cycle. It never panics and never returns an error:
// every per-user failure is logged and recorded in the ledger, and the
// remaining users are still processed. If a previous tick is still in
// flight the call is a no-op.
func (e *SchedulerEngine) Tick(ctx context.Context) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		e.logger.Info("Previous birthday check still running, skipping this tick")
		return
	}
	e.running = true
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		e.running = false
		e.mu.Unlock()
	}()

	e.checkAndSendBirthdayMessages(ctx)
	e.processFailedMessages(ctx)
}

func (e *SchedulerEngine) checkAndSendBirthdayMessages(ctx context.Context) {
	candidates, err := e.birthdayCandidates(ctx)
	if err != nil {
		e.logger.Errorf("Failed to query users with birthdays: %v", err)
		return
	}
	for _, u := range candidates {
		e.processBirthdayForUser(ctx, u)
	}
}

// birthdayCandidates unions the directory queries for the month/day of the
// server's yesterday, today and tomorrow. A user's local calendar date can
// sit up to a day on either side of the server's date, so querying only the
// server's month/day would miss users across the date line. The per-user
// local-date check in processBirthdayForUser filters the extras back out.
func (e *SchedulerEngine) birthdayCandidates(ctx context.Context) ([]*user.User, error) {
	now := e.clock.Now()
	seen := make(map[string]bool)
	candidates := make([]*user.User, 0)
	for _, d := range []time.Time{now.AddDate(0, 0, -1), now, now.AddDate(0, 0, 1)} {
		users, err := e.users.ListWithBirthday(ctx, int(d.Month()), d.Day())
		if err != nil {
			return nil, err
		}
		for _, u := range users {
			if !seen[u.ID] {
				seen[u.ID] = true
				candidates = append(candidates, u)
			}
		}
	}
	return candidates, nil
}

// processBirthdayForUser handles a single candidate. All failures stay
// inside this function so one user cannot abort the tick.
func (e *SchedulerEngine) processBirthdayForUser(ctx context.Context, u *user.User) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("Panic while processing birthday for user %s: %v", u.ID, r)
		}
	}()

	localDate, hour, err := e.clock.LocalDayHour(e.clock.Now(), u.Timezone)
	if err != nil {
		e.logger.Errorf("Cannot resolve local time for user %s (tz=%s): %v", u.ID, u.Timezone, err)
		return
	}

	// The birthday must fall on the user's own local date, and only during
	// the target hour (target:00 through target:59).
	if localDate.Day() != u.BirthDay || int(localDate.Month()) != u.BirthMonth {
		return
	}
	if hour != e.cfg.TargetHour {
		return
	}

	record, err := e.ledger.GetOrCreate(ctx, u.ID, localDate)
	if err != nil {
		e.logger.Errorf("Failed to get or create ledger record for user %s on %s: %v", u.ID, localDate.Format("2006-01-02"), err)
		return
	}
	if record.Status == message.StatusSent {
		return
	}

	e.logger.Infof("Sending birthday message to %s (%s)", u.FullName(), u.Timezone)
	if err := e.deliver.SendWithRetry(ctx, u); err != nil {
		e.logger.Errorf("Failed to send birthday message to %s: %v", u.FullName(), err)
		if errMark := e.ledger.MarkFailed(ctx, record.ID, err.Error()); errMark != nil {
			e.logger.Errorf("Failed to mark record %s as failed: %v", record.ID, errMark)
		}
		return
	}
	if err := e.ledger.MarkSent(ctx, record.ID, e.clock.Now()); err != nil {
		e.logger.Errorf("Failed to mark record %s as sent: %v", record.ID, err)
		return
	}
	e.logger.Infof("Birthday message sent successfully to %s", u.FullName())
}

// processFailedMessages is the in-tick retry pass: failed records below the
// retry cap and within the recency window get another delivery attempt.
// Older or exhausted records are left untouched.
func (e *SchedulerEngine) processFailedMessages(ctx context.Context) {
	cutoff := message.DateOf(e.clock.Now().AddDate(0, 0, -e.cfg.RetryRecencyDays))
	failed, err := e.ledger.ListFailed(ctx, cutoff, e.cfg.RetryMaxAttempts)
	if err != nil {
		e.logger.Errorf("Failed to list failed birthday messages: %v", err)
		return
	}
	for _, m := range failed {
		e.retryFailedMessage(ctx, m)
	}
}

func (e *SchedulerEngine) retryFailedMessage(ctx context.Context, m *message.BirthdayMessage) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Errorf("Panic while retrying birthday message %s: %v", m.ID, r)
		}
	}()

	u, err := e.users.GetByID(ctx, m.UserID)
	if err != nil {
		if err == idb.ErrUserNotFound {
			e.logger.Warnf("User %s for failed message %s no longer exists, skipping retry", m.UserID, m.ID)
		} else {
			e.logger.Errorf("Failed to resolve user %s for retry: %v", m.UserID, err)
		}
		return
	}

	e.logger.Infof("Retrying failed birthday message for %s (attempt count %d)", u.FullName(), m.RetryCount)
	if err := e.deliver.SendWithRetry(ctx, u); err != nil {
		if errMark := e.ledger.MarkFailed(ctx, m.ID, err.Error()); errMark != nil {
			e.logger.Errorf("Failed to update failed record %s: %v", m.ID, errMark)
		}
		return
	}
	if err := e.ledger.MarkSent(ctx, m.ID, e.clock.Now()); err != nil {
		e.logger.Errorf("Failed to mark record %s as sent after retry: %v", m.ID, err)
		return
	}
	e.logger.Infof("Retry successful for %s", u.FullName())
}
