package domain

import "time"

// Status mirrors the account lifecycle states the CMS stores on the user
// record. Only StatusActive accounts may log in or hold a session.
type Status string

const (
	StatusUnverified Status = "unverified"
	StatusActive     Status = "active"
	StatusSuspended  Status = "suspended"
)

type User struct {
	ID           string
	Email        string
	FirstName    string
	LastName     string
	Phone        string
	Status       Status
	Role         RoleRef
	SessionToken string

	Responsible ResponsibleParty
	Documents   Documents
	Payment     PaymentDetails

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ResponsibleParty holds the guarantor details students must provide
// before they can apply for housing.
type ResponsibleParty struct {
	FirstName    string
	LastName     string
	Email        string
	Phone        string
	Relationship string
	Address      string
	NationalID   string
}

// Documents holds object-storage references, not file contents.
type Documents struct {
	IdentityCard     string
	ProofOfEnrolment string
	GuarantorLetter  string
}

type PaymentDetails struct {
	AccountNumber    string
	BankID           string
	AccountType      string
	NationalIDNumber string
	NationalIDType   string
}
