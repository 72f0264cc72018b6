package wizard

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session IDs.
var ErrSessionNotFound = errors.New("signup session not found")

// Session holds one signup's in-progress state. All mutation goes
// through the session's mutex: handlers run concurrently even though
// each signup logically has a single writer, and the mutex makes that
// contract hold regardless.
type Session struct {
	ID uuid.UUID

	mu        sync.Mutex
	state     State
	step      Step
	draftID   *uuid.UUID
	updatedAt time.Time
}

// Update merges a partial state change and bumps the activity clock.
// Only the API layer calls this; steps never share a Session directly.
func (s *Session) Update(p Patch) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.apply(p)
	s.updatedAt = time.Now()
}

// SetStep records the session's current step for progress display.
// It does not validate the transition; legality is the guard's job.
func (s *Session) SetStep(step Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	s.updatedAt = time.Now()
}

// Snapshot returns a copy of the current state and step.
func (s *Session) Snapshot() (State, Step) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.clone(), s.step
}

// Hydrate replaces the session's state wholesale, used when resuming
// from a persisted draft.
func (s *Session) Hydrate(state State, step Step, draftID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.step = step
	s.draftID = &draftID
	s.updatedAt = time.Now()
}

// DraftID returns the persisted draft ID for this session, if any.
func (s *Session) DraftID() *uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.draftID == nil {
		return nil
	}
	id := *s.draftID
	return &id
}

// SetDraftID records the draft ID assigned by the persistence layer.
func (s *Session) SetDraftID(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draftID = &id
}

// Sessions is the in-memory registry of live signup sessions. State is
// deliberately volatile: a restart loses in-flight signups unless they
// resume through a persisted draft.
type Sessions struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Session
	ttl  time.Duration

	stopOnce sync.Once
	stop     chan struct{}
}

// NewSessions creates a registry whose sessions expire after ttl of
// inactivity.
func NewSessions(ttl time.Duration) *Sessions {
	return &Sessions{
		byID: make(map[uuid.UUID]*Session),
		ttl:  ttl,
		stop: make(chan struct{}),
	}
}

// Begin creates a fresh, empty session.
func (r *Sessions) Begin() *Session {
	s := &Session{
		ID:        uuid.New(),
		step:      StepEmail,
		updatedAt: time.Now(),
	}
	r.mu.Lock()
	r.byID[s.ID] = s
	r.mu.Unlock()
	return s
}

// Get returns the session with the given ID.
func (r *Sessions) Get(id uuid.UUID) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// End removes a session, either on completion or explicit abandonment.
func (r *Sessions) End(id uuid.UUID) {
	r.mu.Lock()
	delete(r.byID, id)
	r.mu.Unlock()
}

// Len returns the number of live sessions.
func (r *Sessions) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID)
}

// StartReaper evicts idle sessions every interval until Close.
func (r *Sessions) StartReaper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.reap(time.Now())
			case <-r.stop:
				return
			}
		}
	}()
}

// Close stops the reaper goroutine.
func (r *Sessions) Close() {
	r.stopOnce.Do(func() { close(r.stop) })
}

func (r *Sessions) reap(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		s.mu.Lock()
		idle := now.Sub(s.updatedAt)
		s.mu.Unlock()
		if idle > r.ttl {
			delete(r.byID, id)
		}
	}
}
