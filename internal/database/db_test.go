package database

import (
	"context"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testDB returns a connected DB or skips if DATABASE_URL is not set.
func testDB(t *testing.T) *DB {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return db
}

func TestMigrations(t *testing.T) {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	// Just test that migrations can run (idempotent).
	err := Migrate(dbURL)
	require.NoError(t, err)
}

func TestDraftLifecycle(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	payload, err := json.Marshal(map[string]any{
		"tier_id":  "daily",
		"tier_qty": 8,
	})
	require.NoError(t, err)

	// First save with no id creates a row and returns the generated id.
	id, err := db.UpsertDraft(ctx, nil, "draft@example.com", 2, payload)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, id)

	// Saving again with the id overwrites step and payload.
	payload2, err := json.Marshal(map[string]any{
		"tier_id":    "daily",
		"tier_qty":   8,
		"chicken_ct": 6,
		"beef_ct":    2,
	})
	require.NoError(t, err)

	savedID, err := db.UpsertDraft(ctx, &id, "draft@example.com", 3, payload2)
	require.NoError(t, err)
	assert.Equal(t, id, savedID)

	draft, err := db.GetDraft(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, draft)
	assert.Equal(t, 3, draft.CurrentStep)
	assert.JSONEq(t, string(payload2), string(draft.Payload))

	// Link to a Stripe customer, then delete by that customer.
	custID := "cus_" + uuid.New().String()[:8]
	require.NoError(t, db.SetDraftStripeCustomer(ctx, id, custID))
	require.NoError(t, db.DeleteDraftsByStripeCustomer(ctx, custID))

	draft, err = db.GetDraft(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, draft)

	// Deleting again is a no-op.
	require.NoError(t, db.DeleteDraftsByStripeCustomer(ctx, custID))
}

func TestListStaleDrafts(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	id, err := db.UpsertDraft(ctx, nil, "stale@example.com", 1, []byte(`{}`))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.DeleteDraft(ctx, id) })

	// A cutoff in the future sees the fresh draft; one in the past does not.
	stale, err := db.ListStaleDrafts(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	found := false
	for _, d := range stale {
		if d.ID == id {
			found = true
		}
	}
	assert.True(t, found)

	stale, err = db.ListStaleDrafts(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	for _, d := range stale {
		assert.NotEqual(t, id, d.ID)
	}
}

func TestCustomerUpsertIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	custID := "cus_" + uuid.New().String()[:8]

	// Same webhook event delivered twice.
	require.NoError(t, db.UpsertCustomer(ctx, custID, "maya@example.com"))
	require.NoError(t, db.UpsertCustomer(ctx, custID, "maya@example.com"))

	c, err := db.GetCustomerByStripeID(ctx, custID)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "maya@example.com", c.Email)

	var count int
	err = db.Pool().QueryRow(ctx,
		`SELECT count(*) FROM customers WHERE stripe_customer_id = $1`, custID,
	).Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "replayed event must not create a duplicate row")
}

func TestCustomerContact(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	custID := "cus_" + uuid.New().String()[:8]
	email := custID + "@example.com"
	require.NoError(t, db.UpsertCustomer(ctx, custID, email))

	require.NoError(t, db.UpdateCustomerContact(ctx, custID, "Maya", "Chen", "617-555-0101", true))

	c, err := db.GetCustomerByEmail(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "Maya", c.FirstName)
	assert.True(t, c.SMSOptIn)
}

func TestCustomerDelivery(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	custID := "cus_" + uuid.New().String()[:8]
	require.NoError(t, db.UpsertCustomer(ctx, custID, custID+"@example.com"))

	require.NoError(t, db.UpdateCustomerDelivery(ctx, custID, DeliveryInfo{
		Phone:                "617-555-0101",
		Street:               "12 Pleasant St",
		Unit:                 "2",
		City:                 "Arlington",
		State:                "MA",
		PostalCode:           "02474",
		DeliveryInstructions: "Cooler on the porch",
		SMSOptIn:             true,
	}))

	c, err := db.GetCustomerByStripeID(ctx, custID)
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "12 Pleasant St", c.Street)
	assert.Equal(t, "2", c.Unit)
	assert.Equal(t, "02474", c.PostalCode)
	assert.Equal(t, "Cooler on the porch", c.DeliveryInstructions)

	// A webhook replaying the email upsert must not wipe the address.
	require.NoError(t, db.UpsertCustomer(ctx, custID, custID+"@example.com"))
	c, err = db.GetCustomerByStripeID(ctx, custID)
	require.NoError(t, err)
	assert.Equal(t, "12 Pleasant St", c.Street)
}

func TestAccountUpsertAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	email := "acct-" + uuid.New().String()[:8] + "@example.com"

	a, err := db.GetAccount(ctx, email)
	require.NoError(t, err)
	assert.Nil(t, a)

	require.NoError(t, db.UpsertAccount(ctx, email, "$argon2id$fake"))
	require.NoError(t, db.UpsertAccount(ctx, email, "$argon2id$rotated"))

	a, err = db.GetAccount(ctx, email)
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "$argon2id$rotated", a.PasswordHash)
}

func TestSubscriptionUpsertIsIdempotent(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	sub := Subscription{
		StripeSubscriptionID: "sub_" + uuid.New().String()[:8],
		StripeCustomerID:     "cus_" + uuid.New().String()[:8],
		TierID:               "daily",
		ChickenCt:            6,
		BeefCt:               2,
		Status:               "active",
		StartedAt:            time.Now().UTC(),
	}

	require.NoError(t, db.UpsertSubscription(ctx, sub))
	require.NoError(t, db.UpsertSubscription(ctx, sub))

	subs, err := db.ListSubscriptionsByCustomer(ctx, sub.StripeCustomerID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, 6, subs[0].ChickenCt)
	assert.Equal(t, 2, subs[0].BeefCt)

	require.NoError(t, db.UpdateSubscriptionStatus(ctx, sub.StripeSubscriptionID, "canceled"))
	got, err := db.GetSubscription(ctx, sub.StripeSubscriptionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "canceled", got.Status)
}

func TestSubscriptionPlanUpdate(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	sub := Subscription{
		StripeSubscriptionID: "sub_" + uuid.New().String()[:8],
		StripeCustomerID:     "cus_" + uuid.New().String()[:8],
		TierID:               "daily",
		ChickenCt:            6,
		BeefCt:               2,
		Status:               "active",
		StartedAt:            time.Now().UTC(),
	}
	require.NoError(t, db.UpsertSubscription(ctx, sub))

	matched, err := db.UpdateSubscriptionPlan(ctx, sub.StripeSubscriptionID, sub.StripeCustomerID, "sip", 2, 2)
	require.NoError(t, err)
	require.True(t, matched)

	got, err := db.GetSubscription(ctx, sub.StripeSubscriptionID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "sip", got.TierID)
	assert.Equal(t, 2, got.ChickenCt)
	assert.Equal(t, 2, got.BeefCt)

	// Scoped to the owning customer.
	matched, err = db.UpdateSubscriptionPlan(ctx, sub.StripeSubscriptionID, "cus_someone_else", "chef", 6, 6)
	require.NoError(t, err)
	assert.False(t, matched)
	got, err = db.GetSubscription(ctx, sub.StripeSubscriptionID)
	require.NoError(t, err)
	assert.Equal(t, "sip", got.TierID)
}

func TestInterestAndWaitlistAndContact(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()

	email := "curious@example.com"
	interest, err := db.CreateInterest(ctx, &email, "02139", "1 Broadway")
	require.NoError(t, err)
	assert.Equal(t, "02139", interest.Zip)

	// Anonymous interest capture is allowed.
	anon, err := db.CreateInterest(ctx, nil, "02139", "")
	require.NoError(t, err)
	assert.Nil(t, anon.Email)

	w, err := db.UpsertWaitlistEntry(ctx, "wait-"+uuid.New().String()[:8]+"@example.com", "Sam")
	require.NoError(t, err)
	assert.Equal(t, "Sam", w.Name)

	// Joining again updates the name instead of failing on the unique key.
	w2, err := db.UpsertWaitlistEntry(ctx, w.Email, "Samuel")
	require.NoError(t, err)
	assert.Equal(t, w.ID, w2.ID)
	assert.Equal(t, "Samuel", w2.Name)

	m, err := db.CreateContactMessage(ctx, "Maya", "maya@example.com", "Delivery day", "Can I switch to Thursdays?")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, m.ID)
}
