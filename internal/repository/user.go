package repository

import (
	"context"

	"github.com/rentloop/auth-service/internal/domain"
)

type CreateUserInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
	Status    domain.Status
}

// UserPatch is a partial update; nil fields are left untouched by the store.
type UserPatch struct {
	Status       *domain.Status
	Password     *string
	SessionToken *string

	IdentityCard     *string
	ProofOfEnrolment *string
	GuarantorLetter  *string
}

// UserStore is the subset of the external user store the auth flows need.
// Password hashing lives behind it: Create and Update receive plaintext
// passwords and the store is responsible for hashing at rest.
type UserStore interface {
	Create(ctx context.Context, input CreateUserInput) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindBySessionToken(ctx context.Context, sessionToken string) (*domain.User, error)
	VerifyCredentials(ctx context.Context, email, password string) (*domain.User, error)
	Update(ctx context.Context, id string, patch UserPatch) (*domain.User, error)
}
