package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Interest records someone outside the delivery zone who wants to
// hear when it expands.
type Interest struct {
	ID        uuid.UUID
	Email     *string
	Zip       string
	Street    string
	CreatedAt time.Time
}

// CreateInterest stores an out-of-area interest capture. Email may be
// nil when the visitor declined to leave one.
func (db *DB) CreateInterest(ctx context.Context, email *string, zip, street string) (*Interest, error) {
	var i Interest
	err := db.pool.QueryRow(ctx,
		`INSERT INTO service_interest (email, zip, street)
		 VALUES ($1, $2, $3)
		 RETURNING id, email, zip, street, created_at`,
		email, zip, street,
	).Scan(&i.ID, &i.Email, &i.Zip, &i.Street, &i.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &i, nil
}

// ListInterest returns interest captures, newest first.
func (db *DB) ListInterest(ctx context.Context) ([]Interest, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, zip, street, created_at
		 FROM service_interest
		 ORDER BY created_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Interest
	for rows.Next() {
		var i Interest
		if err := rows.Scan(&i.ID, &i.Email, &i.Zip, &i.Street, &i.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, i)
	}
	return out, rows.Err()
}
