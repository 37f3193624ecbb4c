// Package middleware – bearer authentication
//
// BearerAuth guards the conversation routes. It extracts the token from
// the Authorization header, verifies signature and expiry, and publishes
// the authenticated user ID under the "userID" context key consumed by
// the handlers, the rate limiter, and the idempotency lookup.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mindmate-labs/go-mindmate-backend/internal/auth"
)

// ContextUserID is the Gin context key carrying the authenticated user ID.
const ContextUserID = "userID"

// UserID returns the authenticated user's ID, empty when the request did
// not pass BearerAuth.
func UserID(c *gin.Context) string {
	if v, ok := c.Get(ContextUserID); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// BearerAuth returns a Gin middleware requiring a valid "Bearer <token>"
// Authorization header. Missing, malformed, expired, or otherwise invalid
// tokens all answer 401 with the standard error envelope; the reason is
// logged but never echoed to the client.
func BearerAuth(tokens *auth.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(strings.TrimSpace(scheme), "Bearer") {
			unauthorized(c)
			return
		}

		claims, err := tokens.Verify(strings.TrimSpace(token))
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("token rejected")
			unauthorized(c)
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	rid, _ := c.Get(requestIDKey)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": asString(rid),
		"code":       "unauthorized",
		"message":    "missing or invalid credentials",
	})
}
