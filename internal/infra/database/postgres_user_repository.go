package database

import (
	"context"
	"database/sql"
	"fmt"

	"birthday_notification_service/internal/domain/user"

	_ "github.com/lib/pq" // PostgreSQL driver
)

// Custom errors
var ErrUserNotFound = fmt.Errorf("user not found")

type PostgresUserRepository struct {
	db *sql.DB
}

func NewPostgresUserRepository(db *sql.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

const userColumns = `id, first_name, last_name, birth_date, birth_day, birth_month, timezone, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.BirthDate, &u.BirthDay, &u.BirthMonth, &u.Timezone, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (r *PostgresUserRepository) Create(ctx context.Context, u *user.User) error {
	query := `INSERT INTO users (id, first_name, last_name, birth_date, birth_day, birth_month, timezone)
               VALUES ($1, $2, $3, $4, $5, $6, $7)
               RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, u.ID, u.FirstName, u.LastName, u.BirthDate, u.BirthDay, u.BirthMonth, u.Timezone).
		Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) GetByID(ctx context.Context, id string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	u, err := scanUser(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error getting user by ID: %w", err)
	}
	return u, nil
}

func (r *PostgresUserRepository) Update(ctx context.Context, u *user.User) error {
	query := `UPDATE users
               SET first_name = $1, last_name = $2, birth_date = $3, birth_day = $4, birth_month = $5, timezone = $6, updated_at = NOW()
               WHERE id = $7
               RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, u.FirstName, u.LastName, u.BirthDate, u.BirthDay, u.BirthMonth, u.Timezone, u.ID).
		Scan(&u.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrUserNotFound
		}
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

func (r *PostgresUserRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking deleted rows: %w", err)
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *PostgresUserRepository) ListAll(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing all users: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *PostgresUserRepository) ListWithBirthday(ctx context.Context, month int, day int) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE birth_month = $1 AND birth_day = $2`
	rows, err := r.db.QueryContext(ctx, query, month, day)
	if err != nil {
		return nil, fmt.Errorf("error listing users with birthday %02d-%02d: %w", month, day, err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

func collectUsers(rows *sql.Rows) ([]*user.User, error) {
	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating user rows: %w", err)
	}
	return users, nil
}
