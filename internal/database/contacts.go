package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ContactMessage is a message submitted through the contact form.
type ContactMessage struct {
	ID        uuid.UUID
	Name      string
	Email     string
	Subject   string
	Body      string
	CreatedAt time.Time
}

// CreateContactMessage stores a contact-form submission.
func (db *DB) CreateContactMessage(ctx context.Context, name, email, subject, body string) (*ContactMessage, error) {
	var m ContactMessage
	err := db.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, subject, body)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, name, email, subject, body, created_at`,
		name, email, subject, body,
	).Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Body, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
