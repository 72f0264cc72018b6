package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// WaitlistEntry is a signup for launch announcements.
type WaitlistEntry struct {
	ID        uuid.UUID
	Email     string
	Name      string
	CreatedAt time.Time
}

// UpsertWaitlistEntry adds an email to the waitlist. Joining twice
// just refreshes the name.
func (db *DB) UpsertWaitlistEntry(ctx context.Context, email, name string) (*WaitlistEntry, error) {
	var w WaitlistEntry
	err := db.pool.QueryRow(ctx,
		`INSERT INTO waitlist (email, name)
		 VALUES ($1, $2)
		 ON CONFLICT (email) DO UPDATE SET name = EXCLUDED.name
		 RETURNING id, email, name, created_at`,
		email, name,
	).Scan(&w.ID, &w.Email, &w.Name, &w.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
