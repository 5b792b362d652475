package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/http/handler"
	"github.com/rentloop/auth-service/internal/http/middleware"
	"github.com/rentloop/auth-service/internal/session"
	"github.com/rentloop/auth-service/internal/usecase"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeVerification implements the unexported verificationUsecaser
// interface via method matching.
type fakeVerification struct {
	signup               func(ctx context.Context, input usecase.SignupInput) (*usecase.SignupResult, error)
	confirmEmail         func(ctx context.Context, plain string) error
	requestPasswordReset func(ctx context.Context, email string) error
	resetPassword        func(ctx context.Context, plain, newPassword string) error
}

func (f *fakeVerification) Signup(ctx context.Context, input usecase.SignupInput) (*usecase.SignupResult, error) {
	return f.signup(ctx, input)
}

func (f *fakeVerification) ConfirmEmail(ctx context.Context, plain string) error {
	return f.confirmEmail(ctx, plain)
}

func (f *fakeVerification) RequestPasswordReset(ctx context.Context, email string) error {
	return f.requestPasswordReset(ctx, email)
}

func (f *fakeVerification) ResetPassword(ctx context.Context, plain, newPassword string) error {
	return f.resetPassword(ctx, plain, newPassword)
}

type fakeSessions struct {
	login    func(ctx context.Context, email, password string) (session.Token, *domain.User, error)
	logout   func(ctx context.Context, userID string) error
	validate func(ctx context.Context, raw string) (*domain.User, error)
}

func (f *fakeSessions) Login(ctx context.Context, email, password string) (session.Token, *domain.User, error) {
	return f.login(ctx, email, password)
}

func (f *fakeSessions) Logout(ctx context.Context, userID string) error {
	return f.logout(ctx, userID)
}

func (f *fakeSessions) Validate(ctx context.Context, raw string) (*domain.User, error) {
	return f.validate(ctx, raw)
}

var cookiePolicy = session.CookiePolicy{Domain: "", Secure: false, TTL: 30 * 24 * time.Hour}

func newTestEngine(verification *fakeVerification, sessions *fakeSessions) *gin.Engine {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	h := handler.NewAuthHandler(verification, sessions, cookiePolicy, logger)

	r := gin.New()
	r.POST("/auth/signup", h.Signup)
	r.POST("/auth/verify-email", h.VerifyEmail)
	r.POST("/auth/forgot-password", h.ForgotPassword)
	r.POST("/auth/reset-password", h.ResetPassword)
	r.POST("/auth/login", h.Login)
	authed := r.Group("", middleware.Auth(sessions))
	authed.POST("/auth/logout", h.Logout)
	authed.GET("/auth/me", h.Me)
	return r
}

func postJSON(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

// ---- Signup ----

func TestSignup_InvalidJSON_Returns400(t *testing.T) {
	w := postJSON(newTestEngine(&fakeVerification{}, &fakeSessions{}), "/auth/signup", `{bad json}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_ShortPassword_Returns400(t *testing.T) {
	w := postJSON(newTestEngine(&fakeVerification{}, &fakeSessions{}), "/auth/signup",
		`{"email":"a@b.com","password":"short"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestSignup_EmailTaken_StillReturnsGenericEnvelope(t *testing.T) {
	uc := &fakeVerification{
		signup: func(_ context.Context, _ usecase.SignupInput) (*usecase.SignupResult, error) {
			return nil, domain.ErrEmailTaken
		},
	}
	w := postJSON(newTestEngine(uc, &fakeSessions{}), "/auth/signup",
		`{"email":"taken@example.com","password":"password1"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (must not reveal existing accounts)", w.Code)
	}
	if strings.Contains(strings.ToLower(w.Body.String()), "taken") {
		t.Errorf("body %q reveals that the email exists", w.Body.String())
	}
}

func TestSignup_Success_IncludesFallbackLink(t *testing.T) {
	uc := &fakeVerification{
		signup: func(_ context.Context, input usecase.SignupInput) (*usecase.SignupResult, error) {
			if input.Email != "new@example.com" {
				t.Errorf("signup email = %q", input.Email)
			}
			return &usecase.SignupResult{
				User:             &domain.User{ID: "u1", Email: input.Email},
				VerificationLink: "http://localhost:8080/auth/verify-email?token=abc",
			}, nil
		},
	}
	w := postJSON(newTestEngine(uc, &fakeSessions{}), "/auth/signup",
		`{"email":"new@example.com","password":"password1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "verification_link") {
		t.Errorf("body %q missing fallback link", w.Body.String())
	}
}

// ---- VerifyEmail ----

func TestVerifyEmail_InvalidToken_Returns401(t *testing.T) {
	uc := &fakeVerification{
		confirmEmail: func(_ context.Context, _ string) error { return domain.ErrTokenInvalid },
	}
	w := postJSON(newTestEngine(uc, &fakeSessions{}), "/auth/verify-email", `{"token":"bad"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestVerifyEmail_Success_Returns200(t *testing.T) {
	uc := &fakeVerification{
		confirmEmail: func(_ context.Context, plain string) error {
			if plain != "goodtoken" {
				t.Errorf("token = %q", plain)
			}
			return nil
		},
	}
	w := postJSON(newTestEngine(uc, &fakeSessions{}), "/auth/verify-email", `{"token":"goodtoken"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// ---- ForgotPassword ----

func TestForgotPassword_UnknownEmail_Returns200(t *testing.T) {
	// The usecase swallows unknown accounts itself, so the handler sees
	// a nil error and must answer with the generic envelope.
	uc := &fakeVerification{
		requestPasswordReset: func(_ context.Context, _ string) error { return nil },
	}
	w := postJSON(newTestEngine(uc, &fakeSessions{}), "/auth/forgot-password",
		`{"email":"ghost@example.com"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "If an account exists") {
		t.Errorf("body %q missing generic envelope", w.Body.String())
	}
}

func TestForgotPassword_StoreFailure_Returns500(t *testing.T) {
	// A failed token-row write is a primary write failure; it must not
	// be dressed up as the generic success envelope.
	uc := &fakeVerification{
		requestPasswordReset: func(_ context.Context, _ string) error {
			return errors.New("store down")
		},
	}
	w := postJSON(newTestEngine(uc, &fakeSessions{}), "/auth/forgot-password",
		`{"email":"test@example.com"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

// ---- ResetPassword ----

func TestResetPassword_InvalidToken_Returns401(t *testing.T) {
	uc := &fakeVerification{
		resetPassword: func(_ context.Context, _, _ string) error { return domain.ErrTokenInvalid },
	}
	w := postJSON(newTestEngine(uc, &fakeSessions{}), "/auth/reset-password",
		`{"token":"bad","password":"password1"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestResetPassword_Success_Returns200(t *testing.T) {
	uc := &fakeVerification{
		resetPassword: func(_ context.Context, plain, newPassword string) error {
			if plain != "tok" || newPassword != "password1" {
				t.Errorf("reset called with (%q, %q)", plain, newPassword)
			}
			return nil
		},
	}
	w := postJSON(newTestEngine(uc, &fakeSessions{}), "/auth/reset-password",
		`{"token":"tok","password":"password1"}`)
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

// ---- Login ----

func TestLogin_InvalidCredentials_Returns401(t *testing.T) {
	sessions := &fakeSessions{
		login: func(_ context.Context, _, _ string) (session.Token, *domain.User, error) {
			return "", nil, domain.ErrInvalidCredentials
		},
	}
	w := postJSON(newTestEngine(&fakeVerification{}, sessions), "/auth/login",
		`{"email":"a@b.com","password":"wrong"}`)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestLogin_UnverifiedAccount_Returns403WithStatus(t *testing.T) {
	sessions := &fakeSessions{
		login: func(_ context.Context, _, _ string) (session.Token, *domain.User, error) {
			return "", nil, &domain.NotActiveError{Status: domain.StatusUnverified}
		},
	}
	w := postJSON(newTestEngine(&fakeVerification{}, sessions), "/auth/login",
		`{"email":"a@b.com","password":"password1"}`)
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	var body struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Status != "unverified" {
		t.Errorf("status field = %q, want unverified", body.Status)
	}
}

func TestLogin_Success_SetsCookieAndReturnsToken(t *testing.T) {
	sessions := &fakeSessions{
		login: func(_ context.Context, email, password string) (session.Token, *domain.User, error) {
			return "session-token-1", &domain.User{ID: "u1", Email: email, Status: domain.StatusActive}, nil
		},
	}
	w := postJSON(newTestEngine(&fakeVerification{}, sessions), "/auth/login",
		`{"email":"a@b.com","password":"password1"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "session-token-1") {
		t.Error("body does not carry the session token")
	}

	var found *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			found = c
		}
	}
	if found == nil {
		t.Fatal("session cookie not set")
	}
	if !found.HttpOnly {
		t.Error("session cookie must be HTTP-only")
	}
	if found.Value != "session-token-1" {
		t.Errorf("cookie value = %q", found.Value)
	}
}

// ---- Logout / Me ----

func currentUserSessions(user *domain.User) *fakeSessions {
	return &fakeSessions{
		validate: func(_ context.Context, raw string) (*domain.User, error) {
			if raw != "valid-session" {
				return nil, domain.ErrUnauthorized
			}
			return user, nil
		},
		logout: func(_ context.Context, _ string) error { return nil },
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	user := &domain.User{ID: "u1", Status: domain.StatusActive}
	r := newTestEngine(&fakeVerification{}, currentUserSessions(user))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req.Header.Set("Authorization", "Bearer valid-session")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var cleared *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			cleared = c
		}
	}
	if cleared == nil {
		t.Fatal("logout did not touch the session cookie")
	}
	if cleared.MaxAge >= 0 || cleared.Value != "" {
		t.Errorf("cookie not expired: MaxAge=%d Value=%q", cleared.MaxAge, cleared.Value)
	}
}

func TestMe_NoSession_Returns401(t *testing.T) {
	r := newTestEngine(&fakeVerification{}, currentUserSessions(&domain.User{ID: "u1"}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestMe_CookieSession_ReturnsUser(t *testing.T) {
	user := &domain.User{ID: "u1", Email: "me@example.com", Status: domain.StatusActive}
	r := newTestEngine(&fakeVerification{}, currentUserSessions(user))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: session.CookieName, Value: "valid-session"})
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "me@example.com") {
		t.Errorf("body %q missing user email", w.Body.String())
	}
}
