package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenNotFound      = errors.New("verification token not found")
	ErrTokenInvalid       = errors.New("token is invalid or expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrEmailTaken         = errors.New("email is already registered")
)

// NotActiveError carries the literal account status so the caller can tell
// the user what to do next (verify email, contact support, ...).
type NotActiveError struct {
	Status Status
}

func (e *NotActiveError) Error() string {
	return fmt.Sprintf("account is not active: %s", e.Status)
}
