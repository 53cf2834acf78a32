package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pcfengzi/monitor-ai-bot/internal/auth"
)

// APIKeyHeader is the header external callers present a static API key in
// when the gateway is configured to require one.
const APIKeyHeader = "X-Gateway-API-Key"

// RequireAPIKey builds middleware that checks the incoming request's
// X-Gateway-API-Key header against a set of bcrypt-hashed keys, following
// the platform's existing agent-API-key pattern: the plaintext key is
// handed to an operator once, only its hash is kept and compared here.
// An empty hashes slice means no key has been provisioned yet, in which
// case every request is rejected rather than silently left open.
func RequireAPIKey(hashes []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader(APIKeyHeader)
		if key == "" || len(hashes) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid gateway API key"})
			return
		}
		for _, hash := range hashes {
			if auth.CompareAPIKey(key, hash) {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid gateway API key"})
	}
}
