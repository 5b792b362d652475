package domain

import "time"

// TokenPurpose scopes a verification token. A token issued for one purpose
// is never redeemable for the other.
type TokenPurpose string

const (
	PurposeEmailVerify   TokenPurpose = "email_verify"
	PurposePasswordReset TokenPurpose = "password_reset"
)

// VerificationToken is the stored half of a single-use token. Only the
// digest of the emailed plaintext is ever persisted. Rows are never
// deleted; redemption or invalidation flips Used exactly once.
type VerificationToken struct {
	ID        string
	UserID    string
	Purpose   TokenPurpose
	TokenHash string
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
	CreatedAt time.Time
}

// Redeemable reports whether the token can still be redeemed at now.
// A token is dead exactly at its expiry instant.
func (t *VerificationToken) Redeemable(now time.Time) bool {
	return !t.Used && now.Before(t.ExpiresAt)
}
