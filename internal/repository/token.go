package repository

import (
	"context"
	"time"

	"github.com/rentloop/auth-service/internal/domain"
)

// VerificationTokenStore abstracts the (user, purpose, hash) token
// collection. Rows are append-and-mark: nothing is ever deleted.
type VerificationTokenStore interface {
	Create(ctx context.Context, t *domain.VerificationToken) (*domain.VerificationToken, error)

	// FindByHash returns the newest token matching digest and purpose,
	// used or not; the caller decides redeemability.
	// Returns domain.ErrTokenNotFound when no row matches.
	FindByHash(ctx context.Context, tokenHash string, purpose domain.TokenPurpose) (*domain.VerificationToken, error)

	// FindUnused lists every currently-unused token for (userID, purpose).
	FindUnused(ctx context.Context, userID string, purpose domain.TokenPurpose) ([]domain.VerificationToken, error)

	MarkUsed(ctx context.Context, id string, usedAt time.Time) error

	// MarkExpiredUsed flips every unused row whose expiry is at or before
	// now. Housekeeping only; returns the number of rows touched.
	MarkExpiredUsed(ctx context.Context, now time.Time) (int, error)
}
