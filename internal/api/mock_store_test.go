package api

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthbroth/hearthbroth/internal/database"
)

// mockStore is an in-memory Store for handler tests.
type mockStore struct {
	mu            sync.Mutex
	drafts        map[uuid.UUID]*database.Draft
	customers     map[string]*database.Customer
	subscriptions map[string]*database.Subscription
	accounts      map[string]*database.Account
	interests     []database.Interest
	waitlist      map[string]*database.WaitlistEntry
	contacts      []database.ContactMessage

	// failWith, when set, is returned by every method.
	failWith error
}

func newMockStore() *mockStore {
	return &mockStore{
		drafts:        make(map[uuid.UUID]*database.Draft),
		customers:     make(map[string]*database.Customer),
		subscriptions: make(map[string]*database.Subscription),
		accounts:      make(map[string]*database.Account),
		waitlist:      make(map[string]*database.WaitlistEntry),
	}
}

func (m *mockStore) UpsertDraft(ctx context.Context, id *uuid.UUID, email string, currentStep int, payload []byte) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return uuid.Nil, m.failWith
	}
	draftID := uuid.New()
	if id != nil {
		draftID = *id
	}
	existing := m.drafts[draftID]
	d := &database.Draft{
		ID:          draftID,
		Email:       email,
		CurrentStep: currentStep,
		Payload:     payload,
		UpdatedAt:   time.Now(),
	}
	if existing != nil {
		d.StripeCustomerID = existing.StripeCustomerID
		d.CreatedAt = existing.CreatedAt
	} else {
		d.CreatedAt = d.UpdatedAt
	}
	m.drafts[draftID] = d
	return draftID, nil
}

func (m *mockStore) GetDraft(ctx context.Context, id uuid.UUID) (*database.Draft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	d, ok := m.drafts[id]
	if !ok {
		return nil, nil
	}
	copied := *d
	return &copied, nil
}

func (m *mockStore) SetDraftStripeCustomer(ctx context.Context, id uuid.UUID, stripeCustomerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if d, ok := m.drafts[id]; ok {
		d.StripeCustomerID = stripeCustomerID
	}
	return nil
}

func (m *mockStore) DeleteDraft(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	delete(m.drafts, id)
	return nil
}

func (m *mockStore) DeleteDraftsByStripeCustomer(ctx context.Context, stripeCustomerID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	for id, d := range m.drafts {
		if d.StripeCustomerID == stripeCustomerID {
			delete(m.drafts, id)
		}
	}
	return nil
}

func (m *mockStore) UpsertCustomer(ctx context.Context, stripeCustomerID, email string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if c, ok := m.customers[stripeCustomerID]; ok {
		c.Email = email
		return nil
	}
	m.customers[stripeCustomerID] = &database.Customer{
		StripeCustomerID: stripeCustomerID,
		Email:            email,
	}
	return nil
}

func (m *mockStore) UpdateCustomerContact(ctx context.Context, stripeCustomerID, firstName, lastName, phone string, smsOptIn bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if c, ok := m.customers[stripeCustomerID]; ok {
		c.FirstName = firstName
		c.LastName = lastName
		c.Phone = phone
		c.SMSOptIn = smsOptIn
	}
	return nil
}

func (m *mockStore) UpdateCustomerDelivery(ctx context.Context, stripeCustomerID string, info database.DeliveryInfo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if c, ok := m.customers[stripeCustomerID]; ok {
		c.Phone = info.Phone
		c.Street = info.Street
		c.Unit = info.Unit
		c.City = info.City
		c.State = info.State
		c.PostalCode = info.PostalCode
		c.DeliveryInstructions = info.DeliveryInstructions
		c.SMSOptIn = info.SMSOptIn
	}
	return nil
}

func (m *mockStore) GetCustomerByStripeID(ctx context.Context, stripeCustomerID string) (*database.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	c, ok := m.customers[stripeCustomerID]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (m *mockStore) GetCustomerByEmail(ctx context.Context, email string) (*database.Customer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	for _, c := range m.customers {
		if c.Email == email {
			copied := *c
			return &copied, nil
		}
	}
	return nil, nil
}

func (m *mockStore) UpsertSubscription(ctx context.Context, sub database.Subscription) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.subscriptions[sub.StripeSubscriptionID] = &sub
	return nil
}

func (m *mockStore) UpdateSubscriptionStatus(ctx context.Context, stripeSubscriptionID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if s, ok := m.subscriptions[stripeSubscriptionID]; ok {
		s.Status = status
	}
	return nil
}

func (m *mockStore) UpdateSubscriptionPlan(ctx context.Context, stripeSubscriptionID, stripeCustomerID, tierID string, chickenCt, beefCt int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return false, m.failWith
	}
	s, ok := m.subscriptions[stripeSubscriptionID]
	if !ok || s.StripeCustomerID != stripeCustomerID {
		return false, nil
	}
	s.TierID = tierID
	s.ChickenCt = chickenCt
	s.BeefCt = beefCt
	return true, nil
}

func (m *mockStore) ListSubscriptionsByCustomer(ctx context.Context, stripeCustomerID string) ([]database.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	var out []database.Subscription
	for _, s := range m.subscriptions {
		if s.StripeCustomerID == stripeCustomerID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *mockStore) UpsertAccount(ctx context.Context, email, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	m.accounts[email] = &database.Account{Email: email, PasswordHash: passwordHash}
	return nil
}

func (m *mockStore) GetAccount(ctx context.Context, email string) (*database.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	a, ok := m.accounts[email]
	if !ok {
		return nil, nil
	}
	copied := *a
	return &copied, nil
}

func (m *mockStore) CreateInterest(ctx context.Context, email *string, zip, street string) (*database.Interest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	i := database.Interest{
		ID:        uuid.New(),
		Email:     email,
		Zip:       zip,
		Street:    street,
		CreatedAt: time.Now(),
	}
	m.interests = append(m.interests, i)
	return &i, nil
}

func (m *mockStore) UpsertWaitlistEntry(ctx context.Context, email, name string) (*database.WaitlistEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	if e, ok := m.waitlist[email]; ok {
		e.Name = name
		copied := *e
		return &copied, nil
	}
	e := &database.WaitlistEntry{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		CreatedAt: time.Now(),
	}
	m.waitlist[email] = e
	copied := *e
	return &copied, nil
}

func (m *mockStore) CreateContactMessage(ctx context.Context, name, email, subject, body string) (*database.ContactMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	msg := database.ContactMessage{
		ID:        uuid.New(),
		Name:      name,
		Email:     email,
		Subject:   subject,
		Body:      body,
		CreatedAt: time.Now(),
	}
	m.contacts = append(m.contacts, msg)
	return &msg, nil
}
