package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Draft is a partially completed signup, persisted so abandoned flows
// can be resumed or followed up on.
type Draft struct {
	ID               uuid.UUID
	Email            string
	StripeCustomerID string
	CurrentStep      int
	Payload          []byte
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// UpsertDraft saves a signup draft. A nil id inserts a new row and
// returns the generated id; an existing id overwrites step and payload.
// Concurrent saves against the same id are last-write-wins.
func (db *DB) UpsertDraft(ctx context.Context, id *uuid.UUID, email string, currentStep int, payload []byte) (uuid.UUID, error) {
	if id == nil {
		var newID uuid.UUID
		err := db.pool.QueryRow(ctx,
			`INSERT INTO signup_drafts (email, current_step, payload)
			 VALUES ($1, $2, $3)
			 RETURNING id`,
			email, currentStep, payload,
		).Scan(&newID)
		if err != nil {
			return uuid.Nil, err
		}
		return newID, nil
	}

	var savedID uuid.UUID
	err := db.pool.QueryRow(ctx,
		`INSERT INTO signup_drafts (id, email, current_step, payload)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (id) DO UPDATE
		 SET email = EXCLUDED.email,
		     current_step = EXCLUDED.current_step,
		     payload = EXCLUDED.payload,
		     updated_at = now()
		 RETURNING id`,
		*id, email, currentStep, payload,
	).Scan(&savedID)
	if err != nil {
		return uuid.Nil, err
	}
	return savedID, nil
}

// GetDraft retrieves a draft by ID.
func (db *DB) GetDraft(ctx context.Context, id uuid.UUID) (*Draft, error) {
	var d Draft
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, stripe_customer_id, current_step, payload, created_at, updated_at
		 FROM signup_drafts WHERE id = $1`,
		id,
	).Scan(&d.ID, &d.Email, &d.StripeCustomerID, &d.CurrentStep, &d.Payload, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// SetDraftStripeCustomer links a draft to the Stripe customer created
// at checkout, so the webhook can clean it up after payment.
func (db *DB) SetDraftStripeCustomer(ctx context.Context, id uuid.UUID, stripeCustomerID string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE signup_drafts SET stripe_customer_id = $1, updated_at = now() WHERE id = $2`,
		stripeCustomerID, id,
	)
	return err
}

// DeleteDraft removes a draft by ID.
func (db *DB) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM signup_drafts WHERE id = $1`,
		id,
	)
	return err
}

// DeleteDraftsByStripeCustomer removes every draft linked to a Stripe
// customer, called once their subscription is confirmed. Deleting an
// already-deleted draft is a no-op, which keeps webhook replay safe.
func (db *DB) DeleteDraftsByStripeCustomer(ctx context.Context, stripeCustomerID string) error {
	_, err := db.pool.Exec(ctx,
		`DELETE FROM signup_drafts WHERE stripe_customer_id = $1`,
		stripeCustomerID,
	)
	return err
}

// ListStaleDrafts returns drafts not touched since the cutoff, newest
// first, for abandoned-signup follow-up.
func (db *DB) ListStaleDrafts(ctx context.Context, cutoff time.Time) ([]Draft, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT id, email, stripe_customer_id, current_step, payload, created_at, updated_at
		 FROM signup_drafts
		 WHERE updated_at < $1
		 ORDER BY updated_at DESC`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var drafts []Draft
	for rows.Next() {
		var d Draft
		if err := rows.Scan(&d.ID, &d.Email, &d.StripeCustomerID, &d.CurrentStep, &d.Payload, &d.CreatedAt, &d.UpdatedAt); err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}
