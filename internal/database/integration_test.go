//go:build integration

package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestAgainstContainer boots a throwaway Postgres, runs migrations,
// and exercises the layer end to end without an external DATABASE_URL.
func TestAgainstContainer(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}

	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("broth"),
		tcpostgres.WithUsername("broth"),
		tcpostgres.WithPassword("broth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctr.Terminate(ctx) })

	dbURL, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, Migrate(dbURL))

	db, err := New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	// Draft save round-trip through generated and explicit ids.
	id, err := db.UpsertDraft(ctx, nil, "it@example.com", 2, []byte(`{"tier_id":"daily"}`))
	require.NoError(t, err)

	draft, err := db.GetDraft(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, draft)
	require.Equal(t, 2, draft.CurrentStep)

	// Webhook replay: two identical upserts, one row.
	require.NoError(t, db.UpsertCustomer(ctx, "cus_int1", "it@example.com"))
	require.NoError(t, db.UpsertCustomer(ctx, "cus_int1", "it@example.com"))

	var count int
	require.NoError(t, db.Pool().QueryRow(ctx,
		`SELECT count(*) FROM customers WHERE stripe_customer_id = 'cus_int1'`,
	).Scan(&count))
	require.Equal(t, 1, count)

	// Subscription confirmation cleans up the linked draft.
	require.NoError(t, db.SetDraftStripeCustomer(ctx, id, "cus_int1"))
	require.NoError(t, db.UpsertSubscription(ctx, Subscription{
		StripeSubscriptionID: "sub_int1",
		StripeCustomerID:     "cus_int1",
		TierID:               "daily",
		ChickenCt:            6,
		BeefCt:               2,
		Status:               "active",
		StartedAt:            time.Now().UTC(),
	}))
	require.NoError(t, db.DeleteDraftsByStripeCustomer(ctx, "cus_int1"))

	draft, err = db.GetDraft(ctx, id)
	require.NoError(t, err)
	require.Nil(t, draft)
}
