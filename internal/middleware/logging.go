package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"auctus/internal/logger"
)

const requestIDKey = "requestID"

// RequestID returns the ID assigned to the current request, or "" when the
// logging middleware did not run.
func RequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

// RequestLogging returns a Gin middleware that assigns each request a unique
// ID, echoes it in the X-Request-ID header, and logs method, path, status,
// latency, and client IP using Zap. Health-check probes are not logged.
func RequestLogging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		requestID := uuid.New().String()
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		c.Next()

		if c.Request.URL.Path == "/api/health" {
			return
		}

		latency := time.Since(start)
		logger.Get().Infow("request",
			"request_id", requestID,
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", latency.Milliseconds(),
			"client_ip", c.ClientIP(),
		)
	}
}
