package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Account holds login credentials, keyed by email. Credentials live apart
// from customers because an account is created during signup, before the
// payment webhook materializes a customer row.
type Account struct {
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertAccount creates or replaces the credentials for an email address.
// Only the password hash is ever persisted.
func (db *DB) UpsertAccount(ctx context.Context, email, passwordHash string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO accounts (email, password_hash)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE SET
		   password_hash = EXCLUDED.password_hash,
		   updated_at = now()`,
		email, passwordHash,
	)
	return err
}

// GetAccount retrieves the credentials for an email. Returns nil if no
// account exists.
func (db *DB) GetAccount(ctx context.Context, email string) (*Account, error) {
	var a Account
	err := db.pool.QueryRow(ctx,
		`SELECT email, password_hash, created_at, updated_at
		 FROM accounts WHERE email = $1`,
		email,
	).Scan(&a.Email, &a.PasswordHash, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}
