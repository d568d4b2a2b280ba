package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"birthday_notification_service/internal/domain/message"
	"birthday_notification_service/internal/domain/user"
	iclock "birthday_notification_service/internal/infra/clock"
	idb "birthday_notification_service/internal/infra/database"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l.WithField("component", "test")
}

// frozenClock resolves timezones exactly like the production clock but
// reports a fixed current instant.
type frozenClock struct {
	iclock.SystemClock
	now time.Time
}

func (c frozenClock) Now() time.Time { return c.now }

// memoryUserRepo is an in-memory user.Repository.
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*user.User
}

func newMemoryUserRepo(users ...*user.User) *memoryUserRepo {
	r := &memoryUserRepo{users: make(map[string]*user.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *memoryUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; ok {
		return errors.New("duplicate user id")
	}
	u.CreatedAt = time.Now()
	u.UpdatedAt = u.CreatedAt
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, idb.ErrUserNotFound
	}
	return u, nil
}

func (r *memoryUserRepo) Update(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return idb.ErrUserNotFound
	}
	u.UpdatedAt = time.Now()
	r.users[u.ID] = u
	return nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return idb.ErrUserNotFound
	}
	delete(r.users, id)
	return nil
}

func (r *memoryUserRepo) ListAll(_ context.Context) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	return out, nil
}

func (r *memoryUserRepo) ListWithBirthday(_ context.Context, month, day int) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*user.User, 0)
	for _, u := range r.users {
		if u.BirthMonth == month && u.BirthDay == day {
			out = append(out, u)
		}
	}
	return out, nil
}

// memoryLedger is an in-memory message.Ledger enforcing the
// (user, message date) uniqueness invariant.
type memoryLedger struct {
	mu     sync.Mutex
	byKey  map[string]*message.BirthdayMessage
	byID   map[string]*message.BirthdayMessage
	nextID int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{
		byKey: make(map[string]*message.BirthdayMessage),
		byID:  make(map[string]*message.BirthdayMessage),
	}
}

func ledgerKey(userID string, date time.Time) string {
	return userID + "|" + message.DateOf(date).Format("2006-01-02")
}

func (l *memoryLedger) GetOrCreate(_ context.Context, userID string, messageDate time.Time) (*message.BirthdayMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(userID, messageDate)
	if m, ok := l.byKey[key]; ok {
		return m, nil
	}
	l.nextID++
	m := &message.BirthdayMessage{
		ID:          fmt.Sprintf("msg-%d", l.nextID),
		UserID:      userID,
		MessageDate: message.DateOf(messageDate),
		Status:      message.StatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	l.byKey[key] = m
	l.byID[m.ID] = m
	return m, nil
}

// seed installs a record directly, for tests that need pre-existing state.
func (l *memoryLedger) seed(m *message.BirthdayMessage) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m.MessageDate = message.DateOf(m.MessageDate)
	l.byKey[ledgerKey(m.UserID, m.MessageDate)] = m
	l.byID[m.ID] = m
}

func (l *memoryLedger) MarkSent(_ context.Context, id string, sentAt time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.byID[id]
	if !ok {
		return idb.ErrMessageNotFound
	}
	m.Status = message.StatusSent
	m.SentAt.Time = sentAt
	m.SentAt.Valid = true
	m.UpdatedAt = time.Now()
	return nil
}

func (l *memoryLedger) MarkFailed(_ context.Context, id string, errText string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.byID[id]
	if !ok || m.Status == message.StatusSent {
		return nil
	}
	m.Status = message.StatusFailed
	m.RetryCount++
	m.ErrorMessage.String = errText
	m.ErrorMessage.Valid = true
	m.UpdatedAt = time.Now()
	return nil
}

func (l *memoryLedger) ListFailed(_ context.Context, since time.Time, maxRetryCount int) ([]*message.BirthdayMessage, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	cutoff := message.DateOf(since)
	out := make([]*message.BirthdayMessage, 0)
	for _, m := range l.byID {
		if m.Status == message.StatusFailed && !m.MessageDate.Before(cutoff) && m.RetryCount < maxRetryCount {
			out = append(out, m)
		}
	}
	return out, nil
}

func (l *memoryLedger) recordCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.byID)
}

func (l *memoryLedger) record(userID string, date time.Time) *message.BirthdayMessage {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.byKey[ledgerKey(userID, date)]
}

// stubClient is a scripted delivery.Client.
type stubClient struct {
	mu        sync.Mutex
	failFirst int  // first N calls return an error
	failAll   bool // every call returns an error
	calls     int
	sentTo    []string
}

func (c *stubClient) Send(_ context.Context, u *user.User) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if c.failAll || c.calls <= c.failFirst {
		return errors.New("webhook unreachable")
	}
	c.sentTo = append(c.sentTo, u.ID)
	return nil
}

func (c *stubClient) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// immediateSender wraps a client with a Sender whose backoff does not sleep.
func immediateSender(client *stubClient, maxRetries int) *Sender {
	s := NewSender(client, RetryPolicy{MaxRetries: maxRetries, BaseDelay: time.Second}, testLogger())
	s.sleep = func(time.Duration) {}
	return s
}
