package session_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rentloop/auth-service/internal/session"
)

var testPolicy = session.CookiePolicy{
	Domain: "rentloop.example",
	Secure: true,
	TTL:    30 * 24 * time.Hour,
}

func TestCookie_Attributes(t *testing.T) {
	c := session.Token("tok-123").Cookie(testPolicy)

	if c.Name != session.CookieName {
		t.Errorf("name = %q, want %q", c.Name, session.CookieName)
	}
	if c.Value != "tok-123" {
		t.Errorf("value = %q, want tok-123", c.Value)
	}
	if !c.HttpOnly {
		t.Error("cookie must be HTTP-only")
	}
	if c.SameSite != http.SameSiteLaxMode {
		t.Errorf("SameSite = %v, want Lax", c.SameSite)
	}
	if want := int((30 * 24 * time.Hour).Seconds()); c.MaxAge != want {
		t.Errorf("MaxAge = %d, want %d", c.MaxAge, want)
	}
	if !c.Secure {
		t.Error("Secure flag not carried from policy")
	}
}

func TestExpiredCookie_Clears(t *testing.T) {
	c := session.ExpiredCookie(testPolicy)
	if c.MaxAge != -1 || c.Value != "" {
		t.Errorf("expired cookie = MaxAge %d value %q, want -1 and empty", c.MaxAge, c.Value)
	}
}

func TestHeaderValue(t *testing.T) {
	if got := session.Token("tok-123").HeaderValue(); got != "Bearer tok-123" {
		t.Errorf("header = %q, want %q", got, "Bearer tok-123")
	}
}

func TestFromRequest_HeaderWins(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set("Authorization", "Bearer from-header")
	r.AddCookie(session.Token("from-cookie").Cookie(testPolicy))

	if got := session.FromRequest(r); got != "from-header" {
		t.Errorf("token = %q, want from-header", got)
	}
}

func TestFromRequest_CookieFallback(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.AddCookie(session.Token("from-cookie").Cookie(testPolicy))

	if got := session.FromRequest(r); got != "from-cookie" {
		t.Errorf("token = %q, want from-cookie", got)
	}
}

func TestFromRequest_NeitherChannel(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	if got := session.FromRequest(r); got != "" {
		t.Errorf("token = %q, want empty", got)
	}
}
