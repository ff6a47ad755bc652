package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	HeaderRequestID = "X-Request-ID"

	contextKeyRequestID = "request_id"
)

// RequestID reuses the caller's X-Request-ID or assigns a fresh one, and
// echoes it on the response.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		c.Set(contextKeyRequestID, id)
		c.Header(HeaderRequestID, id)
		c.Next()
	}
}

// RequestIDFromContext returns the id set by RequestID. "" if not set.
func RequestIDFromContext(c *gin.Context) string {
	return c.GetString(contextKeyRequestID)
}
