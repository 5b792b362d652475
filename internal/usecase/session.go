package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/metrics"
	"github.com/rentloop/auth-service/internal/repository"
	"github.com/rentloop/auth-service/internal/session"
	"github.com/rentloop/auth-service/internal/token"
)

// SessionUsecase mints the single opaque session token persisted on the
// user record. Every login overwrites it, so earlier sessions die with the
// overwrite: one active session per user, last write wins.
type SessionUsecase struct {
	users  repository.UserStore
	logger *slog.Logger
}

func NewSessionUsecase(users repository.UserStore, logger *slog.Logger) *SessionUsecase {
	return &SessionUsecase{
		users:  users,
		logger: logger.With("component", "session_usecase"),
	}
}

// Login verifies credentials against the external user store and rotates
// the session token. Accounts in any status but active fail with a
// NotActiveError carrying the literal status.
func (u *SessionUsecase) Login(ctx context.Context, emailAddr, password string) (session.Token, *domain.User, error) {
	user, err := u.users.VerifyCredentials(ctx, emailAddr, password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return "", nil, err
	}

	if user.Status != domain.StatusActive {
		metrics.LoginsTotal.WithLabelValues("not_active").Inc()
		return "", nil, &domain.NotActiveError{Status: user.Status}
	}

	plain, err := token.GeneratePlain()
	if err != nil {
		return "", nil, err
	}

	updated, err := u.users.Update(ctx, user.ID, repository.UserPatch{SessionToken: &plain})
	if err != nil {
		return "", nil, fmt.Errorf("persist session token: %w", err)
	}

	metrics.LoginsTotal.WithLabelValues("ok").Inc()
	return session.Token(plain), updated, nil
}

// Validate resolves a bearer token to its user. Unknown tokens and
// non-active owners both collapse into ErrUnauthorized; the caller learns
// nothing else.
func (u *SessionUsecase) Validate(ctx context.Context, raw string) (*domain.User, error) {
	if raw == "" {
		metrics.SessionValidationsTotal.WithLabelValues("unauthorized").Inc()
		return nil, domain.ErrUnauthorized
	}

	user, err := u.users.FindBySessionToken(ctx, raw)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			metrics.SessionValidationsTotal.WithLabelValues("unauthorized").Inc()
			return nil, domain.ErrUnauthorized
		}
		metrics.SessionValidationsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("resolve session token: %w", err)
	}
	if user.Status != domain.StatusActive {
		metrics.SessionValidationsTotal.WithLabelValues("unauthorized").Inc()
		return nil, domain.ErrUnauthorized
	}

	metrics.SessionValidationsTotal.WithLabelValues("ok").Inc()
	return user, nil
}

// Logout clears the stored token. The next Validate for the old value
// fails; there is nothing else to revoke.
func (u *SessionUsecase) Logout(ctx context.Context, userID string) error {
	empty := ""
	if _, err := u.users.Update(ctx, userID, repository.UserPatch{SessionToken: &empty}); err != nil {
		return fmt.Errorf("clear session token: %w", err)
	}
	return nil
}
