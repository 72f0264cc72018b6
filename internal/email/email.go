// Package email sends transactional notifications through Postmark.
package email

import (
	"context"
	"fmt"

	"github.com/mrz1836/postmark"
)

// Message is a single outbound email.
type Message struct {
	To       string
	Subject  string
	TextBody string
	Tag      string
}

// Sender delivers messages. Delivery failures are logged by callers
// and never surfaced to the end user; no email here is on a request's
// critical path.
type Sender interface {
	Send(ctx context.Context, msg Message) error
}

// PostmarkSender sends via the Postmark transactional API.
type PostmarkSender struct {
	client *postmark.Client
	from   string
}

// NewPostmarkSender creates a Postmark-backed sender.
func NewPostmarkSender(serverToken, accountToken, from string) (*PostmarkSender, error) {
	if serverToken == "" {
		return nil, fmt.Errorf("postmark server token is required")
	}
	if from == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	return &PostmarkSender{
		client: postmark.NewClient(serverToken, accountToken),
		from:   from,
	}, nil
}

// Send delivers one message.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) error {
	resp, err := s.client.SendEmail(ctx, postmark.Email{
		From:     s.from,
		To:       msg.To,
		Subject:  msg.Subject,
		TextBody: msg.TextBody,
		Tag:      msg.Tag,
	})
	if err != nil {
		return fmt.Errorf("postmark send failed: %w", err)
	}
	if resp.ErrorCode != 0 {
		return fmt.Errorf("postmark rejected message: %s (code %d)", resp.Message, resp.ErrorCode)
	}
	return nil
}

// NopSender discards messages, for development and tests.
type NopSender struct{}

// Send does nothing.
func (NopSender) Send(ctx context.Context, msg Message) error { return nil }
