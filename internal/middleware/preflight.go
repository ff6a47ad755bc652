package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Preflight answers any OPTIONS request with an empty 200. Registered after
// CORS so requests carrying an Origin already have their headers set.
func Preflight() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusOK)
			return
		}
		c.Next()
	}
}
