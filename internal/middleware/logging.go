package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Logging writes one structured line per request once it completes.
func Logging(log logrus.FieldLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		entry := log.WithField("request_id", RequestIDFromContext(c))
		entry.Debugf("request started: %s %s", c.Request.Method, c.Request.URL.Path)

		c.Next()

		fields := logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
			"remote_ip":   c.ClientIP(),
			"user_agent":  c.Request.UserAgent(),
		}
		if c.Writer.Status() >= 500 {
			entry.WithFields(fields).Warn("request completed")
			return
		}
		entry.WithFields(fields).Info("request completed")
	}
}
