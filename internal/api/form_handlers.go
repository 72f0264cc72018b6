package api

import (
	"log"
	"net"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/hearthbroth/hearthbroth/internal/wizard"
)

var formZipRe = regexp.MustCompile(`^\d{5}$`)

const (
	// limiterMaxEntries caps the per-IP limiter map; hitting it sweeps
	// entries idle longer than limiterIdleTTL.
	limiterMaxEntries = 10000
	limiterIdleTTL    = 10 * time.Minute
)

type limiterEntry struct {
	lim  *rate.Limiter
	seen time.Time
}

// ipLimiter rate-limits public form posts per client IP. Forms are
// unauthenticated, so this is the only brake on scripted submissions.
type ipLimiter struct {
	mu     sync.Mutex
	byIP   map[string]*limiterEntry
	perMin rate.Limit
	burst  int
}

func newIPLimiter(perMinute int) *ipLimiter {
	if perMinute <= 0 {
		perMinute = 10
	}
	return &ipLimiter{
		byIP:   make(map[string]*limiterEntry),
		perMin: rate.Limit(float64(perMinute) / 60.0),
		burst:  perMinute,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	e, ok := l.byIP[ip]
	if !ok {
		if len(l.byIP) >= limiterMaxEntries {
			l.evict(now)
		}
		e = &limiterEntry{lim: rate.NewLimiter(l.perMin, l.burst)}
		l.byIP[ip] = e
	}
	e.seen = now
	return e.lim.Allow()
}

// evict drops entries idle long enough that a fresh limiter would give
// the same answer. Caller holds the lock.
func (l *ipLimiter) evict(now time.Time) {
	for ip, e := range l.byIP {
		if now.Sub(e.seen) > limiterIdleTTL {
			delete(l.byIP, ip)
		}
	}
}

// rateLimited wraps a form handler with the per-IP limiter.
func (s *Server) rateLimited(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !s.formLimiter.allow(clientIP(r, s.trustProxy)) {
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}
		handler(w, r)
	}
}

// clientIP keys the limiter. X-Forwarded-For is attacker-controlled
// unless a trusted proxy overwrites it, so it is consulted only when
// the server is configured to trust it.
func clientIP(r *http.Request, trustProxy bool) string {
	if trustProxy {
		if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
			if i := strings.IndexByte(fwd, ','); i >= 0 {
				fwd = fwd[:i]
			}
			return strings.TrimSpace(fwd)
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// handleInterest captures an out-of-area visitor who wants delivery
// when the zone expands. Email is optional.
func (s *Server) handleInterest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email  string `json:"email"`
		Zip    string `json:"zip"`
		Street string `json:"street"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	errs := wizard.FieldErrors{}
	if !formZipRe.MatchString(req.Zip) {
		errs["zip"] = "ZIP code must be 5 digits"
	}
	if req.Email != "" {
		if emailErrs := wizard.ValidateEmail(req.Email); emailErrs != nil {
			errs["email"] = emailErrs["email"]
		}
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	var emailPtr *string
	if req.Email != "" {
		emailPtr = &req.Email
	}
	interest, err := s.store.CreateInterest(r.Context(), emailPtr, req.Zip, req.Street)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if s.notifier != nil {
		if err := s.notifier.InterestReceived(r.Context(), req.Email, req.Zip, req.Street); err != nil {
			log.Printf("interest notification failed: %v", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":     interest.ID.String(),
		"status": "received",
	})
}

// handleWaitlist adds an email to the launch waitlist. Joining twice
// is fine.
func (s *Server) handleWaitlist(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if errs := wizard.ValidateEmail(req.Email); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	entry, err := s.store.UpsertWaitlistEntry(r.Context(), req.Email, req.Name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if s.notifier != nil {
		if err := s.notifier.WaitlistJoined(r.Context(), req.Email, req.Name); err != nil {
			log.Printf("waitlist notification failed: %v", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":     entry.ID.String(),
		"status": "joined",
	})
}

// handleContact stores a contact-form message and forwards it to the
// team inbox.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	errs := wizard.FieldErrors{}
	if strings.TrimSpace(req.Name) == "" {
		errs["name"] = "Name is required"
	}
	if emailErrs := wizard.ValidateEmail(req.Email); emailErrs != nil {
		errs["email"] = emailErrs["email"]
	}
	if strings.TrimSpace(req.Message) == "" {
		errs["message"] = "Message is required"
	}
	if len(errs) > 0 {
		writeFieldErrors(w, errs)
		return
	}

	msg, err := s.store.CreateContactMessage(r.Context(), req.Name, req.Email, req.Subject, req.Message)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}

	if s.notifier != nil {
		if err := s.notifier.ContactMessage(r.Context(), req.Name, req.Email, req.Subject, req.Message); err != nil {
			log.Printf("contact notification failed: %v", err)
		}
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"id":     msg.ID.String(),
		"status": "received",
	})
}
