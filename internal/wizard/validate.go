package wizard

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^(\+1\s?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)
	zipRe   = regexp.MustCompile(`^\d{5}$`)
)

// FieldErrors maps field names to user-facing messages. Validation
// failures are recoverable and shown inline; they block forward
// navigation but never touch session state.
type FieldErrors map[string]string

func (e FieldErrors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fmt.Sprintf("invalid fields: %s", strings.Join(fields, ", "))
}

// ValidateEmail checks the email step's input.
func ValidateEmail(email string) FieldErrors {
	errs := FieldErrors{}
	if !emailRe.MatchString(email) {
		errs["email"] = "Enter a valid email address"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// AddressInput is the raw address step submission.
type AddressInput struct {
	Street       string `json:"street"`
	Unit         string `json:"unit"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Instructions string `json:"instructions"`
}

// ValidateAddress checks the address step's input.
func ValidateAddress(in AddressInput) FieldErrors {
	errs := FieldErrors{}
	if len(strings.TrimSpace(in.Street)) < 3 {
		errs["street"] = "Street address is required"
	}
	if strings.TrimSpace(in.City) == "" {
		errs["city"] = "City is required"
	}
	if strings.TrimSpace(in.State) == "" {
		errs["state"] = "State is required"
	}
	if !zipRe.MatchString(in.Zip) {
		errs["zip"] = "ZIP code must be 5 digits"
	}
	if len(in.Instructions) > 200 {
		errs["instructions"] = "Delivery instructions must be 200 characters or fewer"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ContactInput is the raw contact step submission.
type ContactInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	DOB       string `json:"dob"`
	Phone     string `json:"phone"`
	SMSOptIn  bool   `json:"sms_opt_in"`
}

// ValidateContact checks the contact step's input. DOB is optional but
// must be an ISO date in the past when given.
func ValidateContact(in ContactInput) FieldErrors {
	errs := FieldErrors{}
	if len(strings.TrimSpace(in.FirstName)) < 2 {
		errs["first_name"] = "Required"
	}
	if len(strings.TrimSpace(in.LastName)) < 2 {
		errs["last_name"] = "Required"
	}
	if !phoneRe.MatchString(in.Phone) {
		errs["phone"] = "Enter a US phone number"
	}
	if in.DOB != "" {
		dob, err := time.Parse("2006-01-02", in.DOB)
		if err != nil || !dob.Before(time.Now()) {
			errs["dob"] = "Date of birth must be a past date (YYYY-MM-DD)"
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// ValidatePhone checks a standalone phone number, for forms that
// collect one outside the contact step.
func ValidatePhone(phone string) FieldErrors {
	if !phoneRe.MatchString(phone) {
		return FieldErrors{"phone": "Enter a US phone number"}
	}
	return nil
}

// ValidatePassword enforces the minimum credential policy for the
// account step. The password itself never enters wizard state.
func ValidatePassword(password string) FieldErrors {
	if len(password) < 8 {
		return FieldErrors{"password": "Password must be at least 8 characters"}
	}
	return nil
}
