package message

import (
	"context"
	"time"
)

// Ledger defines operations on the birthday message ledger, the single
// source of truth for "was this birthday already handled".
type Ledger interface {
	// GetOrCreate returns the record for (userID, messageDate), creating it
	// with StatusPending if none exists yet. A concurrent create racing on
	// the same pair is not an error; the existing record is returned.
	GetOrCreate(ctx context.Context, userID string, messageDate time.Time) (*BirthdayMessage, error)
	// MarkSent transitions the record to StatusSent and stamps sentAt.
	MarkSent(ctx context.Context, id string, sentAt time.Time) error
	// MarkFailed transitions the record to StatusFailed, records errText and
	// increments the retry count. It never demotes a sent record.
	MarkFailed(ctx context.Context, id string, errText string) error
	// ListFailed returns failed records with message_date on or after 'since'
	// and retry_count strictly below maxRetryCount.
	ListFailed(ctx context.Context, since time.Time, maxRetryCount int) ([]*BirthdayMessage, error)
}
