package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/email"
	"github.com/rentloop/auth-service/internal/metrics"
	"github.com/rentloop/auth-service/internal/repository"
	"github.com/rentloop/auth-service/internal/token"
)

const defaultTokenTTL = 1440 * time.Minute

// VerificationConfig carries the knobs tests need to inject.
type VerificationConfig struct {
	TokenTTL   time.Duration
	AppBaseURL string
	Env        string
}

// VerificationUsecase owns the single-use token lifecycle: signup and
// forgot-password issuance, redemption, and burn-down.
type VerificationUsecase struct {
	users  repository.UserStore
	tokens repository.VerificationTokenStore
	email  email.Sender
	logger *slog.Logger

	tokenTTL   time.Duration
	appBaseURL string
	env        string
}

func NewVerificationUsecase(
	users repository.UserStore,
	tokens repository.VerificationTokenStore,
	emailSender email.Sender,
	logger *slog.Logger,
	cfg VerificationConfig,
) *VerificationUsecase {
	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	return &VerificationUsecase{
		users:      users,
		tokens:     tokens,
		email:      emailSender,
		logger:     logger.With("component", "verification_usecase"),
		tokenTTL:   ttl,
		appBaseURL: cfg.AppBaseURL,
		env:        cfg.Env,
	}
}

// Issue creates a fresh token for (userID, purpose) and invalidates every
// older unused token of the same purpose. The invalidation is best-effort:
// losing it briefly leaves two equally-authorized tokens alive, which the
// data model accepts, so it never fails a successful issuance.
func (u *VerificationUsecase) Issue(ctx context.Context, userID string, purpose domain.TokenPurpose) (string, error) {
	plain, err := token.GeneratePlain()
	if err != nil {
		return "", err
	}

	created, err := u.tokens.Create(ctx, &domain.VerificationToken{
		UserID:    userID,
		Purpose:   purpose,
		TokenHash: token.Hash(plain),
		ExpiresAt: time.Now().Add(u.tokenTTL),
	})
	if err != nil {
		return "", fmt.Errorf("store verification token: %w", err)
	}

	if err := u.invalidateUnusedExcept(ctx, userID, purpose, created.ID); err != nil {
		u.logger.WarnContext(ctx, "invalidate previous tokens", "user_id", userID, "purpose", purpose, "error", err)
	}

	metrics.TokensIssuedTotal.WithLabelValues(string(purpose)).Inc()
	return plain, nil
}

// Redeem resolves a plaintext token to its row. It does NOT mark the row
// used: callers with a fallible side effect mark it only after that side
// effect lands, so a failed store write leaves the token valid for retry.
func (u *VerificationUsecase) Redeem(ctx context.Context, plain string, purpose domain.TokenPurpose) (*domain.VerificationToken, error) {
	t, err := u.tokens.FindByHash(ctx, token.Hash(plain), purpose)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) {
			metrics.TokenRedemptionsTotal.WithLabelValues(string(purpose), "invalid").Inc()
			return nil, domain.ErrTokenInvalid
		}
		return nil, fmt.Errorf("look up token: %w", err)
	}

	if !t.Redeemable(time.Now()) {
		metrics.TokenRedemptionsTotal.WithLabelValues(string(purpose), "invalid").Inc()
		return nil, domain.ErrTokenInvalid
	}

	metrics.TokenRedemptionsTotal.WithLabelValues(string(purpose), "ok").Inc()
	return t, nil
}

// InvalidateAllUnused burns every outstanding token for (userID, purpose).
// Idempotent: burning zero rows is a success.
func (u *VerificationUsecase) InvalidateAllUnused(ctx context.Context, userID string, purpose domain.TokenPurpose) error {
	return u.invalidateUnusedExcept(ctx, userID, purpose, "")
}

func (u *VerificationUsecase) invalidateUnusedExcept(ctx context.Context, userID string, purpose domain.TokenPurpose, keepID string) error {
	unused, err := u.tokens.FindUnused(ctx, userID, purpose)
	if err != nil {
		return fmt.Errorf("find unused tokens: %w", err)
	}

	now := time.Now()
	for i := range unused {
		if unused[i].ID == keepID {
			continue
		}
		if err := u.tokens.MarkUsed(ctx, unused[i].ID, now); err != nil {
			return fmt.Errorf("invalidate token %s: %w", unused[i].ID, err)
		}
	}
	return nil
}

type SignupInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Phone     string
}

type SignupResult struct {
	User *domain.User
	// VerificationLink is only populated outside production when the
	// verification email could not be sent, so the caller still has a way
	// to hand the link over.
	VerificationLink string
}

// Signup creates an unverified account and dispatches the verification
// email. Email failure never fails the signup.
func (u *VerificationUsecase) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	user, err := u.users.Create(ctx, repository.CreateUserInput{
		Email:     input.Email,
		Password:  input.Password,
		FirstName: input.FirstName,
		LastName:  input.LastName,
		Phone:     input.Phone,
		Status:    domain.StatusUnverified,
	})
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	plain, err := u.Issue(ctx, user.ID, domain.PurposeEmailVerify)
	if err != nil {
		return nil, fmt.Errorf("issue verification token: %w", err)
	}

	result := &SignupResult{User: user}
	link := u.verificationLink("/auth/verify-email", plain)
	if err := u.sendLink(ctx, email.TemplateVerifyEmail, user.Email, link); err != nil {
		u.logger.ErrorContext(ctx, "send verification email", "user_id", user.ID, "error", err)
		if u.env != "production" {
			result.VerificationLink = link
		}
	}
	return result, nil
}

// ConfirmEmail redeems an email-verification token and activates the
// account. The token is burned on redemption: activation has no further
// fallible side effect worth keeping it alive for.
func (u *VerificationUsecase) ConfirmEmail(ctx context.Context, plain string) error {
	t, err := u.Redeem(ctx, plain, domain.PurposeEmailVerify)
	if err != nil {
		return err
	}

	if err := u.tokens.MarkUsed(ctx, t.ID, time.Now()); err != nil {
		return fmt.Errorf("mark token used: %w", err)
	}

	status := domain.StatusActive
	if _, err := u.users.Update(ctx, t.UserID, repository.UserPatch{Status: &status}); err != nil {
		return fmt.Errorf("activate account: %w", err)
	}
	return nil
}

// RequestPasswordReset issues a reset token for the account, if one
// exists. A missing account is not an error: the caller answers with the
// same generic message either way.
func (u *VerificationUsecase) RequestPasswordReset(ctx context.Context, emailAddr string) error {
	user, err := u.users.FindByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			u.logger.DebugContext(ctx, "password reset for unknown email")
			return nil
		}
		return fmt.Errorf("find user: %w", err)
	}

	plain, err := u.Issue(ctx, user.ID, domain.PurposePasswordReset)
	if err != nil {
		return fmt.Errorf("issue reset token: %w", err)
	}

	link := u.verificationLink("/auth/reset-password", plain)
	if err := u.sendLink(ctx, email.TemplatePasswordReset, user.Email, link); err != nil {
		u.logger.ErrorContext(ctx, "send reset email", "user_id", user.ID, "error", err)
	}
	return nil
}

// ResetPassword redeems a reset token and writes the new password. The
// token is marked used only after the password write lands; a failed write
// leaves it valid for retry. Remaining reset tokens are burned reactively.
func (u *VerificationUsecase) ResetPassword(ctx context.Context, plain, newPassword string) error {
	t, err := u.Redeem(ctx, plain, domain.PurposePasswordReset)
	if err != nil {
		return err
	}

	if _, err := u.users.Update(ctx, t.UserID, repository.UserPatch{Password: &newPassword}); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := u.tokens.MarkUsed(ctx, t.ID, time.Now()); err != nil {
		u.logger.WarnContext(ctx, "mark reset token used", "token_id", t.ID, "error", err)
	}
	if err := u.InvalidateAllUnused(ctx, t.UserID, domain.PurposePasswordReset); err != nil {
		u.logger.WarnContext(ctx, "burn outstanding reset tokens", "user_id", t.UserID, "error", err)
	}
	return nil
}

func (u *VerificationUsecase) verificationLink(path, plain string) string {
	return u.appBaseURL + path + "?token=" + plain
}

func (u *VerificationUsecase) sendLink(ctx context.Context, templateID, to, link string) error {
	err := u.email.Send(ctx, email.Message{
		TemplateID: templateID,
		To:         to,
		Variables: map[string]string{
			"Link": link,
			"TTL":  u.tokenTTL.String(),
		},
	})
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.EmailsSentTotal.WithLabelValues(templateID, outcome).Inc()
	return err
}
