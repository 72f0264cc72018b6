package wizard

import "fmt"

// Step identifies a stage of the signup flow. Steps are ordered;
// the guard only ever redirects backward.
type Step int

const (
	StepEmail Step = iota
	StepQuantity
	StepSplit
	StepReview
	StepAddress
	StepContact
	StepAccount
	StepConfirm
	StepSuccess
)

var stepNames = [...]string{
	StepEmail:    "email",
	StepQuantity: "quantity",
	StepSplit:    "split",
	StepReview:   "review",
	StepAddress:  "address",
	StepContact:  "contact",
	StepAccount:  "account",
	StepConfirm:  "confirm",
	StepSuccess:  "success",
}

// String returns the wire name of the step.
func (s Step) String() string {
	if s < 0 || int(s) >= len(stepNames) {
		return fmt.Sprintf("step(%d)", int(s))
	}
	return stepNames[s]
}

// Valid reports whether s names a real step.
func (s Step) Valid() bool {
	return s >= StepEmail && s <= StepSuccess
}

// ParseStep maps a wire name back to a Step.
func ParseStep(name string) (Step, error) {
	for i, n := range stepNames {
		if n == name {
			return Step(i), nil
		}
	}
	return 0, fmt.Errorf("unknown step: %s", name)
}

// Steps returns all steps in flow order.
func Steps() []Step {
	out := make([]Step, len(stepNames))
	for i := range stepNames {
		out[i] = Step(i)
	}
	return out
}
