// internal/middleware/auth.go
// Authentication middleware validates session tokens and sets account context

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"tourneysync/internal/accounts"
)

// RequireSession validates the session token carried in the Authorization
// header (hex-encoded opaque value, per the external-interfaces session
// token contract) and sets the resolved account in context.
func RequireSession(sessions *accounts.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := tokenFromHeader(c.GetHeader("Authorization"))
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "session token required"})
			c.Abort()
			return
		}

		session, err := sessions.Lookup(c.Request.Context(), token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session"})
			c.Abort()
			return
		}

		c.Set("account_id", session.AccountID)
		c.Set("authenticated", true)
		c.Next()
	}
}

// OptionalSession resolves a session if present but never rejects the
// request for lacking one.
func OptionalSession(sessions *accounts.SessionStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := tokenFromHeader(c.GetHeader("Authorization"))
		if !ok {
			c.Set("authenticated", false)
			c.Next()
			return
		}

		if session, err := sessions.Lookup(c.Request.Context(), token); err == nil {
			c.Set("account_id", session.AccountID)
			c.Set("authenticated", true)
		} else {
			c.Set("authenticated", false)
		}
		c.Next()
	}
}

// tokenFromHeader extracts a bearer-style session token; accepts either a
// bare hex token or a "Bearer <token>" header.
func tokenFromHeader(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	if parts := strings.SplitN(header, " ", 2); len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1], true
	}
	return header, true
}
