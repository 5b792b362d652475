package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rentloop/auth-service/internal/domain"
	"github.com/rentloop/auth-service/internal/requestid"
	"github.com/rentloop/auth-service/internal/session"
)

const errUnauthorized = "Unauthorized"

// userKey is the gin context key the authenticated user is stored under.
const userKey = "currentUser"

// sessionValidator is the subset of SessionUsecase the middleware needs.
type sessionValidator interface {
	Validate(ctx context.Context, raw string) (*domain.User, error)
}

// Auth resolves the session token from the Authorization header or the
// session cookie and loads the account it belongs to. Requests without a
// valid session for an active account are rejected with 401.
func Auth(sessions sessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := session.FromRequest(c.Request)

		user, err := sessions.Validate(c.Request.Context(), string(raw))
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errUnauthorized})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		ctx := requestid.WithUserID(c.Request.Context(), user.ID)
		c.Request = c.Request.WithContext(ctx)
		c.Set(userKey, user)
		c.Next()
	}
}

// CurrentUser returns the account loaded by Auth. The second return is
// false on routes that skipped the middleware.
func CurrentUser(c *gin.Context) (*domain.User, bool) {
	v, ok := c.Get(userKey)
	if !ok {
		return nil, false
	}
	user, ok := v.(*domain.User)
	return user, ok
}
