package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/http/middleware"
	"github.com/rentloop/auth-service/internal/session"
	"github.com/rentloop/auth-service/internal/usecase"
)

// verificationUsecaser is the subset of VerificationUsecase the handler
// needs. Defined here (point of use) so tests can inject a fake.
type verificationUsecaser interface {
	Signup(ctx context.Context, input usecase.SignupInput) (*usecase.SignupResult, error)
	ConfirmEmail(ctx context.Context, plain string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, plain, newPassword string) error
}

type sessionUsecaser interface {
	Login(ctx context.Context, email, password string) (session.Token, *domain.User, error)
	Logout(ctx context.Context, userID string) error
}

type AuthHandler struct {
	verification verificationUsecaser
	sessions     sessionUsecaser
	cookies      session.CookiePolicy
	logger       *slog.Logger
}

func NewAuthHandler(verification verificationUsecaser, sessions sessionUsecaser, cookies session.CookiePolicy, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		verification: verification,
		sessions:     sessions,
		cookies:      cookies,
		logger:       logger.With("component", "auth_handler"),
	}
}

// userResponse is the public projection of an account. The session token
// and CMS internals never leave through it.
type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Status    string `json:"status"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Phone:     u.Phone,
		Status:    string(u.Status),
	}
}

type signupRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone"`
}

// POST /auth/signup
// Always returns the generic envelope so the response never reveals
// whether the email is already registered.
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.verification.Signup(c.Request.Context(), usecase.SignupInput{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
	})
	if err != nil {
		if errors.Is(err, domain.ErrEmailTaken) {
			h.logger.InfoContext(c.Request.Context(), "signup for existing email")
			c.JSON(http.StatusOK, gin.H{"message": msgCheckEmail})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "signup", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	resp := gin.H{"message": msgCheckEmail}
	if result.VerificationLink != "" {
		resp["verification_link"] = result.VerificationLink
	}
	c.JSON(http.StatusOK, resp)
}

type verifyEmailRequest struct {
	Token string `json:"token" binding:"required"`
}

// POST /auth/verify-email
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req verifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.verification.ConfirmEmail(c.Request.Context(), req.Token); err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errTokenInvalid})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "verify email", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Email verified"})
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// POST /auth/forgot-password
// Same generic envelope whether or not the account exists. An unknown
// email is already swallowed inside the usecase; an error surfacing here
// means the token row could not be written, which is a primary-write
// failure and must not masquerade as success.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.verification.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "request password reset", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": msgCheckEmail})
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required,min=8"`
}

// POST /auth/reset-password
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.verification.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		if errors.Is(err, domain.ErrTokenInvalid) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": errTokenInvalid})
			return
		}
		h.logger.ErrorContext(c.Request.Context(), "reset password", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Password updated"})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// POST /auth/login
// On success the session token is both set as an HTTP-only cookie and
// returned in the body for Authorization-header clients.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, user, err := h.sessions.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		var notActive *domain.NotActiveError
		switch {
		case errors.Is(err, domain.ErrInvalidCredentials):
			c.JSON(http.StatusUnauthorized, gin.H{"error": errInvalidCredentials})
		case errors.As(err, &notActive):
			c.JSON(http.StatusForbidden, gin.H{"error": notActive.Error(), "status": string(notActive.Status)})
		default:
			h.logger.ErrorContext(c.Request.Context(), "login", "error", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		}
		return
	}

	http.SetCookie(c.Writer, token.Cookie(h.cookies))
	c.JSON(http.StatusOK, gin.H{
		"token": string(token),
		"user":  toUserResponse(user),
	})
}

// POST /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	if err := h.sessions.Logout(c.Request.Context(), user.ID); err != nil {
		h.logger.ErrorContext(c.Request.Context(), "logout", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": errInternalServer})
		return
	}

	http.SetCookie(c.Writer, session.ExpiredCookie(h.cookies))
	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// GET /auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": toUserResponse(user)})
}
