package wizard

// prereq ties a presence check to the step that collects the data.
// A failed check redirects to Collector.
type prereq struct {
	Collector Step
	Present   func(*State) bool
}

var (
	reqEmail     = prereq{StepEmail, func(s *State) bool { return s.Email != "" }}
	reqTierID    = prereq{StepQuantity, func(s *State) bool { return s.TierID != "" }}
	reqTierQty   = prereq{StepQuantity, func(s *State) bool { return s.TierQty > 0 }}
	reqCounts    = prereq{StepSplit, func(s *State) bool { return s.ChickenCt != nil && s.BeefCt != nil }}
	reqAddress   = prereq{StepAddress, func(s *State) bool { return s.Address != nil }}
	reqFirstName = prereq{StepContact, func(s *State) bool { return s.FirstName != "" }}
	reqAccount   = prereq{StepAccount, func(s *State) bool { return s.AccountCreated }}
)

// prereqs is the full prerequisite table for the flow. A step absent
// from the table (email) has no entry requirements.
var prereqs = map[Step][]prereq{
	StepQuantity: {reqEmail},
	StepSplit:    {reqTierQty},
	StepReview:   {reqTierID, reqCounts},
	StepAddress:  {reqTierID},
	StepContact:  {reqAddress},
	StepAccount:  {reqAddress, reqFirstName},
	StepConfirm:  {reqAccount},
	StepSuccess:  {reqAccount},
}

// Check decides whether a session may enter step. When a prerequisite
// is missing it returns the step that collects that data and ok=false.
// A guard violation is not an error; callers redirect silently.
// Check is pure: it never mutates state, so repeated calls with the
// same state always produce the same decision.
func Check(step Step, s *State) (redirect Step, ok bool) {
	for _, p := range prereqs[step] {
		if !p.Present(s) {
			return p.Collector, false
		}
	}
	return step, true
}

// Resolve follows redirects to a fixed point, returning the earliest
// step the session is actually allowed to enter. The chain is bounded
// because every redirect moves strictly backward in flow order.
func Resolve(step Step, s *State) Step {
	for {
		redirect, ok := Check(step, s)
		if ok {
			return step
		}
		step = redirect
	}
}
