package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Subscription is a confirmed weekly broth subscription, keyed by the
// provider's subscription ID.
type Subscription struct {
	StripeSubscriptionID string
	StripeCustomerID     string
	TierID               string
	ChickenCt            int
	BeefCt               int
	Status               string
	StartedAt            time.Time
	UpdatedAt            time.Time
}

// UpsertSubscription creates or refreshes a subscription record keyed
// by the provider's subscription ID, so at-least-once webhook delivery
// cannot duplicate rows.
func (db *DB) UpsertSubscription(ctx context.Context, sub Subscription) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO subscriptions
		   (stripe_subscription_id, stripe_customer_id, tier_id, chicken_ct, beef_ct, status, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (stripe_subscription_id) DO UPDATE
		 SET stripe_customer_id = EXCLUDED.stripe_customer_id,
		     tier_id = EXCLUDED.tier_id,
		     chicken_ct = EXCLUDED.chicken_ct,
		     beef_ct = EXCLUDED.beef_ct,
		     status = EXCLUDED.status,
		     updated_at = now()`,
		sub.StripeSubscriptionID, sub.StripeCustomerID, sub.TierID,
		sub.ChickenCt, sub.BeefCt, sub.Status, sub.StartedAt,
	)
	return err
}

// GetSubscription retrieves a subscription by provider ID.
func (db *DB) GetSubscription(ctx context.Context, stripeSubscriptionID string) (*Subscription, error) {
	var s Subscription
	err := db.pool.QueryRow(ctx,
		`SELECT stripe_subscription_id, stripe_customer_id, tier_id, chicken_ct, beef_ct, status, started_at, updated_at
		 FROM subscriptions WHERE stripe_subscription_id = $1`,
		stripeSubscriptionID,
	).Scan(&s.StripeSubscriptionID, &s.StripeCustomerID, &s.TierID, &s.ChickenCt, &s.BeefCt, &s.Status, &s.StartedAt, &s.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// ListSubscriptionsByCustomer returns a customer's subscriptions,
// newest first.
func (db *DB) ListSubscriptionsByCustomer(ctx context.Context, stripeCustomerID string) ([]Subscription, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT stripe_subscription_id, stripe_customer_id, tier_id, chicken_ct, beef_ct, status, started_at, updated_at
		 FROM subscriptions
		 WHERE stripe_customer_id = $1
		 ORDER BY started_at DESC`,
		stripeCustomerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.StripeSubscriptionID, &s.StripeCustomerID, &s.TierID, &s.ChickenCt, &s.BeefCt, &s.Status, &s.StartedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// ListSubscriptionsByStatus returns subscriptions in a given status,
// newest first. An empty status returns everything.
func (db *DB) ListSubscriptionsByStatus(ctx context.Context, status string) ([]Subscription, error) {
	query := `SELECT stripe_subscription_id, stripe_customer_id, tier_id, chicken_ct, beef_ct, status, started_at, updated_at
		 FROM subscriptions`
	args := []any{}
	if status != "" {
		query += ` WHERE status = $1`
		args = append(args, status)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []Subscription
	for rows.Next() {
		var s Subscription
		if err := rows.Scan(&s.StripeSubscriptionID, &s.StripeCustomerID, &s.TierID, &s.ChickenCt, &s.BeefCt, &s.Status, &s.StartedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

// UpdateSubscriptionPlan changes a subscription's tier and split. The
// update is scoped to the owning customer so a dashboard request can
// only touch that customer's own subscription; it reports whether a
// row matched.
func (db *DB) UpdateSubscriptionPlan(ctx context.Context, stripeSubscriptionID, stripeCustomerID, tierID string, chickenCt, beefCt int) (bool, error) {
	tag, err := db.pool.Exec(ctx,
		`UPDATE subscriptions
		 SET tier_id = $1, chicken_ct = $2, beef_ct = $3, updated_at = now()
		 WHERE stripe_subscription_id = $4 AND stripe_customer_id = $5`,
		tierID, chickenCt, beefCt, stripeSubscriptionID, stripeCustomerID,
	)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateSubscriptionStatus records a provider-side status change.
func (db *DB) UpdateSubscriptionStatus(ctx context.Context, stripeSubscriptionID, status string) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE subscriptions SET status = $1, updated_at = now() WHERE stripe_subscription_id = $2`,
		status, stripeSubscriptionID,
	)
	return err
}
