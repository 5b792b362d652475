// Package session defines the opaque session credential and its two
// persistence channels. The same value rides in an HTTP-only cookie and in
// the Authorization header; either channel alone is enough to validate.
package session

import (
	"net/http"
	"strings"
	"time"
)

const CookieName = "rentloop_session"

const bearerPrefix = "Bearer "

// Token is the single opaque credential for a user's session. It is
// rotated wholesale on every login; there is no refresh pairing.
type Token string

// CookiePolicy is injected from config so tests and deployments can vary
// domain, Secure and lifetime independently.
type CookiePolicy struct {
	Domain string
	Secure bool
	TTL    time.Duration
}

// Cookie serializes the token for the browser channel.
func (t Token) Cookie(p CookiePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    string(t),
		Path:     "/",
		Domain:   p.Domain,
		MaxAge:   int(p.TTL.Seconds()),
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// HeaderValue serializes the token for the Authorization channel.
func (t Token) HeaderValue() string {
	return bearerPrefix + string(t)
}

// ExpiredCookie clears the session cookie on logout.
func ExpiredCookie(p CookiePolicy) *http.Cookie {
	return &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Domain:   p.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   p.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// FromRequest extracts the token from either channel, header first.
// Returns the empty token when neither carries one.
func FromRequest(r *http.Request) Token {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		if raw := strings.TrimPrefix(header, bearerPrefix); raw != "" {
			return Token(raw)
		}
	}
	if cookie, err := r.Cookie(CookieName); err == nil && cookie.Value != "" {
		return Token(cookie.Value)
	}
	return ""
}
