// internal/infra/database/postgres_message_repository.go
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"birthday_notification_service/internal/domain/message"

	"github.com/google/uuid"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors specific to the message ledger
var ErrMessageNotFound = fmt.Errorf("birthday message not found")

type PostgresMessageLedger struct {
	db *sql.DB
}

func NewPostgresMessageLedger(db *sql.DB) *PostgresMessageLedger {
	return &PostgresMessageLedger{db: db}
}

const messageColumns = `id, user_id, message_date, status, sent_at, retry_count, error_message, created_at, updated_at`

// GetOrCreate inserts a pending record for (userID, messageDate) unless one
// already exists, then returns whichever record holds the unique slot. The
// insert relies on the (user_id, message_date) unique constraint, so a race
// between two scans resolves to a single row with no error surfaced.
func (r *PostgresMessageLedger) GetOrCreate(ctx context.Context, userID string, messageDate time.Time) (*message.BirthdayMessage, error) {
	dateOnly := message.DateOf(messageDate)

	insert := `INSERT INTO birthday_messages (id, user_id, message_date, status)
                VALUES ($1, $2, $3, $4)
                ON CONFLICT (user_id, message_date) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, insert, uuid.NewString(), userID, dateOnly, message.StatusPending); err != nil {
		return nil, fmt.Errorf("error inserting birthday message: %w", err)
	}

	query := `SELECT ` + messageColumns + ` FROM birthday_messages WHERE user_id = $1 AND message_date = $2`
	m, err := scanMessage(r.db.QueryRowContext(ctx, query, userID, dateOnly))
	if err != nil {
		return nil, fmt.Errorf("error fetching birthday message after upsert: %w", err)
	}
	return m, nil
}

func (r *PostgresMessageLedger) MarkSent(ctx context.Context, id string, sentAt time.Time) error {
	query := `UPDATE birthday_messages
               SET status = $1, sent_at = $2, updated_at = NOW()
               WHERE id = $3
               RETURNING updated_at`
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, message.StatusSent, sentAt, id).Scan(&updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrMessageNotFound
		}
		return fmt.Errorf("error marking birthday message as sent: %w", err)
	}
	return nil
}

// MarkFailed records the failure and bumps the retry count. The status guard
// keeps a concurrent late failure from demoting a record that already
// reached 'sent'.
func (r *PostgresMessageLedger) MarkFailed(ctx context.Context, id string, errText string) error {
	query := `UPDATE birthday_messages
               SET status = $1, retry_count = retry_count + 1, error_message = $2, updated_at = NOW()
               WHERE id = $3 AND status <> $4
               RETURNING updated_at`
	var updatedAt time.Time
	err := r.db.QueryRowContext(ctx, query, message.StatusFailed, errText, id, message.StatusSent).Scan(&updatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			// Either the record is gone or it is already sent; both are
			// no-ops from the caller's point of view.
			return nil
		}
		return fmt.Errorf("error marking birthday message as failed: %w", err)
	}
	return nil
}

func (r *PostgresMessageLedger) ListFailed(ctx context.Context, since time.Time, maxRetryCount int) ([]*message.BirthdayMessage, error) {
	query := `SELECT ` + messageColumns + ` FROM birthday_messages
               WHERE status = $1 AND message_date >= $2 AND retry_count < $3
               ORDER BY message_date`
	rows, err := r.db.QueryContext(ctx, query, message.StatusFailed, message.DateOf(since), maxRetryCount)
	if err != nil {
		return nil, fmt.Errorf("error listing failed birthday messages: %w", err)
	}
	defer rows.Close()

	messages := make([]*message.BirthdayMessage, 0)
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning birthday message row: %w", err)
		}
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating birthday message rows: %w", err)
	}
	return messages, nil
}

func scanMessage(row interface{ Scan(...any) error }) (*message.BirthdayMessage, error) {
	m := &message.BirthdayMessage{}
	err := row.Scan(&m.ID, &m.UserID, &m.MessageDate, &m.Status, &m.SentAt, &m.RetryCount, &m.ErrorMessage, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		return nil, err
	}
	// DATE columns come back as midnight in the session zone; renormalize so
	// comparisons against locally computed dates hold.
	m.MessageDate = message.DateOf(m.MessageDate)
	return m, nil
}
