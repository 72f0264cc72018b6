package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hearthbroth/hearthbroth/internal/auth"
	"github.com/hearthbroth/hearthbroth/internal/pricing"
	"github.com/hearthbroth/hearthbroth/internal/wizard"
)

// draftSaveTimeout bounds the autosave write so a slow database never
// holds up a step submission.
const draftSaveTimeout = 3 * time.Second

// handleStartSignup creates a fresh signup session.
func (s *Server) handleStartSignup(w http.ResponseWriter, r *http.Request) {
	sess := s.sessions.Begin()
	writeJSON(w, http.StatusCreated, map[string]string{
		"session_id": sess.ID.String(),
		"step":       wizard.StepEmail.String(),
	})
}

// handleGetSignup returns a session's current step and accumulated state.
func (s *Server) handleGetSignup(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, r)
	if !ok {
		return
	}

	state, step := sess.Snapshot()
	resp := map[string]any{
		"session_id": sess.ID.String(),
		"step":       step.String(),
		"state":      state,
	}
	if id := sess.DraftID(); id != nil {
		resp["draft_id"] = id.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCheckStep is the navigation guard. Entering a step whose
// prerequisites are missing is not an error: the response carries the
// earliest step the session may actually enter and the client redirects
// silently.
func (s *Server) handleCheckStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, r)
	if !ok {
		return
	}
	step, err := wizard.ParseStep(r.PathValue("step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown step")
		return
	}

	state, _ := sess.Snapshot()
	if _, allowed := wizard.Check(step, &state); allowed {
		writeJSON(w, http.StatusOK, map[string]string{"step": step.String()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"redirect": wizard.Resolve(step, &state).String(),
	})
}

// handleSubmitStep validates a step's input, merges it into the
// session, and advances the flow. Validation failures come back as 422
// with per-field messages and leave the session untouched.
func (s *Server) handleSubmitStep(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, r)
	if !ok {
		return
	}
	step, err := wizard.ParseStep(r.PathValue("step"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown step")
		return
	}

	state, _ := sess.Snapshot()
	if _, allowed := wizard.Check(step, &state); !allowed {
		writeJSON(w, http.StatusOK, map[string]string{
			"redirect": wizard.Resolve(step, &state).String(),
		})
		return
	}

	switch step {
	case wizard.StepEmail:
		s.submitEmail(w, r, sess)
	case wizard.StepQuantity:
		s.submitQuantity(w, r, sess)
	case wizard.StepSplit:
		s.submitSplit(w, r, sess, &state)
	case wizard.StepReview:
		s.advance(w, r, sess, wizard.StepAddress)
	case wizard.StepAddress:
		s.submitAddress(w, r, sess)
	case wizard.StepContact:
		s.submitContact(w, r, sess)
	case wizard.StepAccount:
		s.submitAccount(w, r, sess, &state)
	case wizard.StepConfirm:
		s.advance(w, r, sess, wizard.StepSuccess)
	default:
		writeError(w, http.StatusBadRequest, "step accepts no submission")
	}
}

func (s *Server) submitEmail(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	var req struct {
		Email     string `json:"email"`
		PromoCode string `json:"promo_code"`
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

	sess.Update(wizard.Patch{Email: &req.Email, PromoCode: &req.PromoCode})
	s.advance(w, r, sess, wizard.StepQuantity)
}

func (s *Server) submitQuantity(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	var req struct {
		TierID string `json:"tier_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	tier, err := s.catalog.Get(req.TierID)
	if err != nil {
		writeFieldErrors(w, wizard.FieldErrors{"tier_id": "Choose one of the available plans"})
		return
	}

	sess.Update(wizard.Patch{TierID: &tier.ID, TierQty: &tier.Containers})
	s.advance(w, r, sess, wizard.StepSplit)
}

// submitSplit accepts either a named preset or explicit counts. Counts
// must cover the tier's weekly containers exactly.
func (s *Server) submitSplit(w http.ResponseWriter, r *http.Request, sess *wizard.Session, state *wizard.State) {
	var req struct {
		Preset    string `json:"preset"`
		ChickenCt *int   `json:"chicken_ct"`
		BeefCt    *int   `json:"beef_ct"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var chicken, beef int
	switch {
	case req.Preset != "":
		preset, ok := pricing.PresetByID(req.Preset)
		if !ok {
			writeFieldErrors(w, wizard.FieldErrors{"preset": "Unknown allocation preset"})
			return
		}
		var err error
		chicken, beef, err = pricing.Split(state.TierQty, preset.ChickenShare)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "failed to compute split")
			return
		}
	case req.ChickenCt != nil && req.BeefCt != nil:
		chicken, beef = *req.ChickenCt, *req.BeefCt
		if chicken < 0 || beef < 0 || chicken+beef != state.TierQty {
			writeFieldErrors(w, wizard.FieldErrors{"split": "Counts must add up to the weekly total"})
			return
		}
	default:
		writeFieldErrors(w, wizard.FieldErrors{"split": "Choose a preset or both counts"})
		return
	}

	sess.Update(wizard.Patch{ChickenCt: &chicken, BeefCt: &beef})
	s.advance(w, r, sess, wizard.StepReview)
}

// submitAddress checks the address step. An out-of-zone ZIP diverts the
// visitor to interest capture without writing the address.
func (s *Server) submitAddress(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	var req wizard.AddressInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := wizard.ValidateAddress(req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	if !s.area.Serviceable(req.Zip) {
		writeJSON(w, http.StatusOK, map[string]string{
			"diverted": "interest",
			"zip":      req.Zip,
			"street":   req.Street,
		})
		return
	}

	addr := wizard.Address{
		Street: req.Street,
		Unit:   req.Unit,
		City:   req.City,
		State:  req.State,
		Zip:    req.Zip,
	}
	sess.Update(wizard.Patch{Address: &addr, Instructions: &req.Instructions})
	s.advance(w, r, sess, wizard.StepContact)
}

func (s *Server) submitContact(w http.ResponseWriter, r *http.Request, sess *wizard.Session) {
	var req wizard.ContactInput
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := wizard.ValidateContact(req); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	sess.Update(wizard.Patch{
		FirstName: &req.FirstName,
		LastName:  &req.LastName,
		DOB:       &req.DOB,
		Phone:     &req.Phone,
		SMSOptIn:  &req.SMSOptIn,
	})
	s.advance(w, r, sess, wizard.StepAccount)
}

// submitAccount establishes login credentials. The password goes
// straight to the hasher; only the hash is stored and the session just
// records that credentials exist.
func (s *Server) submitAccount(w http.ResponseWriter, r *http.Request, sess *wizard.Session, state *wizard.State) {
	var req struct {
		Password string `json:"password"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if errs := wizard.ValidatePassword(req.Password); errs != nil {
		writeFieldErrors(w, errs)
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}
	if err := s.store.UpsertAccount(r.Context(), state.Email, hash); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create account")
		return
	}

	created := true
	sess.Update(wizard.Patch{AccountCreated: &created})
	s.advance(w, r, sess, wizard.StepConfirm)
}

// handleResumeSignup rehydrates a session from a persisted draft, used
// when a visitor comes back after abandoning the flow.
func (s *Server) handleResumeSignup(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.getSession(w, r)
	if !ok {
		return
	}
	var req struct {
		DraftID string `json:"draft_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	draftID, err := uuid.Parse(req.DraftID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid draft ID")
		return
	}

	draft, err := s.store.GetDraft(r.Context(), draftID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "database error")
		return
	}
	if draft == nil {
		writeError(w, http.StatusNotFound, "draft not found")
		return
	}

	var state wizard.State
	if err := json.Unmarshal(draft.Payload, &state); err != nil {
		writeError(w, http.StatusInternalServerError, "corrupt draft payload")
		return
	}
	step := wizard.Step(draft.CurrentStep)
	if !step.Valid() {
		step = wizard.StepEmail
	}
	// Credentials never persist in drafts, so a resumed flow repeats
	// the account step. The guard lands the session on the right step.
	step = wizard.Resolve(step, &state)

	sess.Hydrate(state, step, draft.ID)
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sess.ID.String(),
		"step":       step.String(),
		"state":      state,
	})
}

// handleSaveDraft persists a session's draft on demand, used when the
// visitor is about to leave mid-flow. Step submissions autosave the
// same way.
func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	id, err := uuid.Parse(req.SessionID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "signup session not found")
		return
	}

	state, step := sess.Snapshot()
	if state.Email == "" {
		writeError(w, http.StatusConflict, "nothing to save before the email step")
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to encode draft")
		return
	}

	draftID, err := s.store.UpsertDraft(r.Context(), sess.DraftID(), state.Email, int(step), payload)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to save draft")
		return
	}
	sess.SetDraftID(draftID)

	writeJSON(w, http.StatusOK, map[string]string{"draft_id": draftID.String()})
}

// advance moves the session forward, autosaves the draft, and responds
// with the next step.
func (s *Server) advance(w http.ResponseWriter, r *http.Request, sess *wizard.Session, next wizard.Step) {
	sess.SetStep(next)
	s.saveDraft(r.Context(), sess)

	state, _ := sess.Snapshot()
	resp := map[string]any{
		"step":  next.String(),
		"state": state,
	}
	if id := sess.DraftID(); id != nil {
		resp["draft_id"] = id.String()
	}
	writeJSON(w, http.StatusOK, resp)
}

// saveDraft persists the session state best-effort. A failed save is
// logged and the flow carries on; the next submission retries.
func (s *Server) saveDraft(ctx context.Context, sess *wizard.Session) {
	state, step := sess.Snapshot()
	if state.Email == "" {
		return
	}
	payload, err := json.Marshal(state)
	if err != nil {
		log.Printf("draft autosave: marshal failed: %v", err)
		return
	}

	ctx, cancel := context.WithTimeout(ctx, draftSaveTimeout)
	defer cancel()

	id, err := s.store.UpsertDraft(ctx, sess.DraftID(), state.Email, int(step), payload)
	if err != nil {
		log.Printf("draft autosave: save failed: %v", err)
		return
	}
	sess.SetDraftID(id)
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) (*wizard.Session, bool) {
	id, err := uuid.Parse(r.PathValue("sessionID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid session ID")
		return nil, false
	}
	sess, err := s.sessions.Get(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "signup session not found")
		return nil, false
	}
	return sess, true
}
