package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pcfengzi/monitor-ai-bot/internal/auth"
)

// RequireBearerToken returns a middleware that rejects requests lacking a
// valid "Authorization: Bearer <token>" header signed by manager.
func RequireBearerToken(manager *auth.JWTManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing Authorization header"})
			c.Abort()
			return
		}

		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header must use the Bearer scheme"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(header, prefix)
		claims, err := manager.ValidateToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		c.Set("subject", claims.Subject)
		c.Next()
	}
}
