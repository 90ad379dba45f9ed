package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// APIKey rejects requests whose "key" query parameter (or X-API-Key header)
// does not match expected. An empty expected key disables the check.
func APIKey(expected string, onReject func(c *gin.Context)) gin.HandlerFunc {
	return func(c *gin.Context) {
		if expected == "" {
			c.Next()
			return
		}

		got := c.Query("key")
		if got == "" {
			got = c.GetHeader("X-API-Key")
		}
		if subtle.ConstantTimeCompare([]byte(got), []byte(expected)) != 1 {
			if onReject != nil {
				onReject(c)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Invalid API key",
			})
			return
		}
		c.Next()
	}
}
