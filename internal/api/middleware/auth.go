package middleware

import (
	"net/http"
	"strings"

	"ledger-api/internal/config"

	"github.com/gin-gonic/gin"
)

// ActorUserIDKey is the gin context key StubAuth sets for handlers to read
// back via ActorUserID.
const ActorUserIDKey = "actor_user_id"

// StubAuth is a deliberately minimal stand-in for real authentication:
// it accepts any bearer token when no static token is configured, and
// otherwise requires an exact match. Either way
// the bearer token's value, not its validity, becomes the actor user id,
// since this service has no user directory of its own to consult.
func StubAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		if token == "" || token == header {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}
		if cfg.Auth.StaticBearerToken != "" && token != cfg.Auth.StaticBearerToken {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			c.Abort()
			return
		}
		c.Set(ActorUserIDKey, token)
		c.Next()
	}
}

// ActorUserID retrieves the user id StubAuth attached to the request.
func ActorUserID(c *gin.Context) string {
	if v, ok := c.Get(ActorUserIDKey); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
