package database

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
)

// Customer is a paying (or paid-up) customer, keyed by the Stripe
// customer ID since Stripe is the system of record for identity at
// payment time. The delivery address is copied from the signup draft
// when payment confirms and editable from the account dashboard after.
type Customer struct {
	StripeCustomerID     string
	Email                string
	FirstName            string
	LastName             string
	Phone                string
	SMSOptIn             bool
	Street               string
	Unit                 string
	City                 string
	State                string
	PostalCode           string
	DeliveryInstructions string
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// DeliveryInfo is the editable delivery portion of a customer record:
// where to deliver and how to reach them about it.
type DeliveryInfo struct {
	Phone                string
	Street               string
	Unit                 string
	City                 string
	State                string
	PostalCode           string
	DeliveryInstructions string
	SMSOptIn             bool
}

const customerColumns = `stripe_customer_id, email, first_name, last_name, phone, sms_opt_in,
	 street, unit, city, state, postal_code, delivery_instructions, created_at, updated_at`

// UpsertCustomer creates or refreshes a customer record keyed by the
// Stripe customer ID. Upserting on the natural key makes webhook
// redelivery idempotent: replaying the same event never creates a
// second row.
func (db *DB) UpsertCustomer(ctx context.Context, stripeCustomerID, email string) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO customers (stripe_customer_id, email)
		 VALUES ($1, $2)
		 ON CONFLICT (stripe_customer_id) DO UPDATE
		 SET email = EXCLUDED.email, updated_at = now()`,
		stripeCustomerID, email,
	)
	return err
}

// GetCustomerByStripeID retrieves a customer by Stripe customer ID.
func (db *DB) GetCustomerByStripeID(ctx context.Context, stripeCustomerID string) (*Customer, error) {
	return db.scanCustomer(ctx,
		`SELECT `+customerColumns+`
		 FROM customers WHERE stripe_customer_id = $1`,
		stripeCustomerID,
	)
}

// GetCustomerByEmail retrieves a customer by email.
func (db *DB) GetCustomerByEmail(ctx context.Context, email string) (*Customer, error) {
	return db.scanCustomer(ctx,
		`SELECT `+customerColumns+`
		 FROM customers WHERE email = $1`,
		email,
	)
}

func (db *DB) scanCustomer(ctx context.Context, query string, args ...any) (*Customer, error) {
	var c Customer
	err := db.pool.QueryRow(ctx, query, args...).Scan(
		&c.StripeCustomerID, &c.Email, &c.FirstName, &c.LastName,
		&c.Phone, &c.SMSOptIn, &c.Street, &c.Unit, &c.City, &c.State,
		&c.PostalCode, &c.DeliveryInstructions, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// UpdateCustomerContact fills in the contact details collected by the
// signup wizard.
func (db *DB) UpdateCustomerContact(ctx context.Context, stripeCustomerID, firstName, lastName, phone string, smsOptIn bool) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE customers
		 SET first_name = $1, last_name = $2, phone = $3, sms_opt_in = $4, updated_at = now()
		 WHERE stripe_customer_id = $5`,
		firstName, lastName, phone, smsOptIn, stripeCustomerID,
	)
	return err
}

// UpdateCustomerDelivery replaces the customer's delivery details.
func (db *DB) UpdateCustomerDelivery(ctx context.Context, stripeCustomerID string, info DeliveryInfo) error {
	_, err := db.pool.Exec(ctx,
		`UPDATE customers
		 SET phone = $1, street = $2, unit = $3, city = $4, state = $5,
		     postal_code = $6, delivery_instructions = $7, sms_opt_in = $8, updated_at = now()
		 WHERE stripe_customer_id = $9`,
		info.Phone, info.Street, info.Unit, info.City, info.State,
		info.PostalCode, info.DeliveryInstructions, info.SMSOptIn, stripeCustomerID,
	)
	return err
}
