package email

import (
	"context"
	"fmt"
)

// Notifier composes the transactional messages this service sends.
// Team-facing notifications go to TeamAddress; customer-facing ones go
// to the customer.
type Notifier struct {
	sender      Sender
	teamAddress string
}

// NewNotifier creates a notifier.
func NewNotifier(sender Sender, teamAddress string) *Notifier {
	return &Notifier{sender: sender, teamAddress: teamAddress}
}

// InterestReceived tells the team someone outside the zone wants delivery.
func (n *Notifier) InterestReceived(ctx context.Context, email, zip, street string) error {
	if email == "" {
		email = "(not given)"
	}
	body := fmt.Sprintf("New service-area interest:\n\nZIP: %s\nStreet: %s\nEmail: %s\n", zip, street, email)
	return n.sender.Send(ctx, Message{
		To:       n.teamAddress,
		Subject:  fmt.Sprintf("Service interest from %s", zip),
		TextBody: body,
		Tag:      "interest",
	})
}

// WaitlistJoined tells the team about a new waitlist signup.
func (n *Notifier) WaitlistJoined(ctx context.Context, email, name string) error {
	body := fmt.Sprintf("New waitlist signup:\n\nEmail: %s\nName: %s\n", email, name)
	return n.sender.Send(ctx, Message{
		To:       n.teamAddress,
		Subject:  "New waitlist signup",
		TextBody: body,
		Tag:      "waitlist",
	})
}

// ContactMessage forwards a contact-form submission to the team.
func (n *Notifier) ContactMessage(ctx context.Context, name, email, subject, body string) error {
	text := fmt.Sprintf("From: %s <%s>\nSubject: %s\n\n%s\n", name, email, subject, body)
	return n.sender.Send(ctx, Message{
		To:       n.teamAddress,
		Subject:  fmt.Sprintf("Contact form: %s", subject),
		TextBody: text,
		Tag:      "contact",
	})
}

// Welcome greets a customer whose first payment just confirmed.
func (n *Notifier) Welcome(ctx context.Context, customerEmail, tierName string) error {
	body := fmt.Sprintf("Welcome aboard!\n\nYour %s subscription is confirmed. Your first delivery is on its way this week.\n", tierName)
	return n.sender.Send(ctx, Message{
		To:       customerEmail,
		Subject:  "Your broth subscription is confirmed",
		TextBody: body,
		Tag:      "welcome",
	})
}
