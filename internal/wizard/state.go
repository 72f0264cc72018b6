// Package wizard implements the signup flow: the per-session state
// aggregate, the partial-merge update contract, and the step guard
// that keeps navigation consistent with the data collected so far.
package wizard

// Address is a delivery address collected at the address step.
type Address struct {
	Street string `json:"street"`
	Unit   string `json:"unit,omitempty"`
	City   string `json:"city"`
	State  string `json:"state"`
	Zip    string `json:"zip"`
}

// State is everything a signup session has accumulated. Counts and the
// address are pointers so "not yet chosen" is distinguishable from a
// legitimate zero (an all-beef split has a chicken count of 0).
//
// AccountCreated marks that a credential was established; the raw
// password never enters the state and the flag is excluded from
// draft persistence.
type State struct {
	TierID         string   `json:"tier_id,omitempty"`
	Email          string   `json:"email,omitempty"`
	PromoCode      string   `json:"promo_code,omitempty"`
	TierQty        int      `json:"tier_qty,omitempty"`
	ChickenCt      *int     `json:"chicken_ct,omitempty"`
	BeefCt         *int     `json:"beef_ct,omitempty"`
	Address        *Address `json:"address,omitempty"`
	Instructions   string   `json:"instructions,omitempty"`
	FirstName      string   `json:"first_name,omitempty"`
	LastName       string   `json:"last_name,omitempty"`
	DOB            string   `json:"dob,omitempty"`
	Phone          string   `json:"phone,omitempty"`
	SMSOptIn       *bool    `json:"sms_opt_in,omitempty"`
	AccountCreated bool     `json:"-"`
}

// Patch is a partial update to State. Only non-nil fields are applied;
// the rest of the state is preserved. Last write wins on overlap.
type Patch struct {
	TierID         *string
	Email          *string
	PromoCode      *string
	TierQty        *int
	ChickenCt      *int
	BeefCt         *int
	Address        *Address
	Instructions   *string
	FirstName      *string
	LastName       *string
	DOB            *string
	Phone          *string
	SMSOptIn       *bool
	AccountCreated *bool
}

func (s *State) apply(p Patch) {
	if p.TierID != nil {
		s.TierID = *p.TierID
	}
	if p.Email != nil {
		s.Email = *p.Email
	}
	if p.PromoCode != nil {
		s.PromoCode = *p.PromoCode
	}
	if p.TierQty != nil {
		s.TierQty = *p.TierQty
	}
	if p.ChickenCt != nil {
		ct := *p.ChickenCt
		s.ChickenCt = &ct
	}
	if p.BeefCt != nil {
		ct := *p.BeefCt
		s.BeefCt = &ct
	}
	if p.Address != nil {
		addr := *p.Address
		s.Address = &addr
	}
	if p.Instructions != nil {
		s.Instructions = *p.Instructions
	}
	if p.FirstName != nil {
		s.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		s.LastName = *p.LastName
	}
	if p.DOB != nil {
		s.DOB = *p.DOB
	}
	if p.Phone != nil {
		s.Phone = *p.Phone
	}
	if p.SMSOptIn != nil {
		ok := *p.SMSOptIn
		s.SMSOptIn = &ok
	}
	if p.AccountCreated != nil {
		s.AccountCreated = *p.AccountCreated
	}
}

// clone returns a deep copy so callers can't mutate session state
// through shared pointers.
func (s *State) clone() State {
	out := *s
	if s.ChickenCt != nil {
		ct := *s.ChickenCt
		out.ChickenCt = &ct
	}
	if s.BeefCt != nil {
		ct := *s.BeefCt
		out.BeefCt = &ct
	}
	if s.Address != nil {
		addr := *s.Address
		out.Address = &addr
	}
	if s.SMSOptIn != nil {
		ok := *s.SMSOptIn
		out.SMSOptIn = &ok
	}
	return out
}
