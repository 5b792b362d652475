package profile

import (
	"math"
	"strconv"

	"github.com/rentloop/auth-service/internal/domain"
)

// check pairs the display name shown to the user with its presence
// predicate. Order matters: Missing preserves it.
type check struct {
	label   string
	present func(*domain.User) bool
}

var baselineChecks = []check{
	{"First Name", func(u *domain.User) bool { return u.FirstName != "" }},
	{"Last Name", func(u *domain.User) bool { return u.LastName != "" }},
	{"Email", func(u *domain.User) bool { return u.Email != "" }},
	{"Phone", func(u *domain.User) bool { return u.Phone != "" }},
}

var responsibleChecks = []check{
	{"Responsible Party First Name", func(u *domain.User) bool { return u.Responsible.FirstName != "" }},
	{"Responsible Party Last Name", func(u *domain.User) bool { return u.Responsible.LastName != "" }},
	{"Responsible Party Email", func(u *domain.User) bool { return u.Responsible.Email != "" }},
	{"Responsible Party Phone", func(u *domain.User) bool { return u.Responsible.Phone != "" }},
	{"Responsible Party Relationship", func(u *domain.User) bool { return u.Responsible.Relationship != "" }},
	{"Responsible Party Address", func(u *domain.User) bool { return u.Responsible.Address != "" }},
	{"Responsible Party National ID", func(u *domain.User) bool { return u.Responsible.NationalID != "" }},
}

var documentChecks = []check{
	{"Identity Card", func(u *domain.User) bool { return u.Documents.IdentityCard != "" }},
	{"Proof of Enrolment", func(u *domain.User) bool { return u.Documents.ProofOfEnrolment != "" }},
	{"Guarantor Letter", func(u *domain.User) bool { return u.Documents.GuarantorLetter != "" }},
}

var paymentChecks = []check{
	{"Bank Account Number", func(u *domain.User) bool { return u.Payment.AccountNumber != "" }},
	{"Bank", func(u *domain.User) bool { return bankIDValid(u.Payment.BankID) }},
}

// bankIDValid requires a parseable positive number; "", "0" and
// non-numeric values all count as missing.
func bankIDValid(bankID string) bool {
	n, err := strconv.ParseFloat(bankID, 64)
	return err == nil && n > 0
}

// Evaluate is pure: same user and role in, same verdict out. Students are
// held to the full 16-field requirement. When the role is unknown and the
// payment fields are not already satisfied, the payment requirement is
// applied anyway: an indeterminate role must never be a way around it.
func Evaluate(u *domain.User, role domain.CanonicalRole) domain.Completion {
	checks := baselineChecks
	switch {
	case role.IsStudent():
		checks = make([]check, 0, len(baselineChecks)+len(responsibleChecks)+len(documentChecks)+len(paymentChecks))
		checks = append(checks, baselineChecks...)
		checks = append(checks, responsibleChecks...)
		checks = append(checks, documentChecks...)
		checks = append(checks, paymentChecks...)
	case role == domain.RoleUnknown && !paymentSatisfied(u):
		checks = make([]check, 0, len(baselineChecks)+len(paymentChecks))
		checks = append(checks, baselineChecks...)
		checks = append(checks, paymentChecks...)
	}

	completed := 0
	missing := []string{}
	for _, c := range checks {
		if c.present(u) {
			completed++
		} else {
			missing = append(missing, c.label)
		}
	}

	percentage := int(math.Round(100 * float64(completed) / float64(len(checks))))
	return domain.Completion{
		Percentage: percentage,
		IsComplete: percentage == 100 && len(missing) == 0,
		Missing:    missing,
	}
}

func paymentSatisfied(u *domain.User) bool {
	for _, c := range paymentChecks {
		if !c.present(u) {
			return false
		}
	}
	return true
}
