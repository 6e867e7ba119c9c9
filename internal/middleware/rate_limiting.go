package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RateLimitMiddleware rejects clients that exceed their request budget with
// 429. Health checks and metrics scrapes are never limited.
func RateLimitMiddleware(manager *RateLimitManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !manager.Enabled() || shouldBypassRateLimit(c.Request) {
			c.Next()
			return
		}

		if !manager.Allow(c.ClientIP()) {
			c.Header("Retry-After", "1")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many requests, please try again later",
			})
			return
		}
		c.Next()
	}
}

func shouldBypassRateLimit(r *http.Request) bool {
	if r == nil || r.URL == nil {
		return false
	}
	if r.Method == http.MethodOptions {
		return true
	}

	switch r.URL.Path {
	case "/health", "/metrics":
		return true
	}
	return false
}
