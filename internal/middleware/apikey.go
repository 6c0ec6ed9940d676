package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKeyAuth compares the X-API-Key header against the configured
// server secret, following the teacher's APITokenAuth header-check
// shape but generalized to a single static secret rather than a
// per-user token lookup. An empty configuredKey means the server
// itself is misconfigured, which the spec treats as a 500, not a 401.
func APIKeyAuth(configuredKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := GetLoggerFromCtx(c.Request.Context())

		if configuredKey == "" {
			logger.Error("API_KEY is not configured")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server misconfiguration"})
			return
		}

		got := c.GetHeader("X-API-Key")
		if got == "" || got != configuredKey {
			logger.Warn("rejected request with missing or invalid API key")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Next()
	}
}
