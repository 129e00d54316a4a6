// Package middleware holds the cross-cutting HTTP concerns: request
// logging, CORS, and rate limiting.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
)

// RequestIDHeader carries the request correlation ID.
const RequestIDHeader = "X-Request-ID"

// slowThreshold marks requests worth a warning even when they succeed.
const slowThreshold = 3 * time.Second

// RequestLogging logs one line per request with method, path, status, and
// latency.  Probe paths are skipped to keep the log quiet.
func RequestLogging(log logging.Logger) gin.HandlerFunc {
	skip := map[string]bool{"/healthz": true, "/readyz": true, "/metrics": true}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(RequestIDHeader, requestID)

		start := time.Now()
		c.Next()
		took := time.Since(start)

		fields := []logging.Field{
			logging.String("method", c.Request.Method),
			logging.String("path", c.Request.URL.Path),
			logging.Int("status", c.Writer.Status()),
			logging.Duration("took", took),
			logging.String("request_id", requestID),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, logging.String("error", c.Errors.Last().Error()))
		}

		switch {
		case c.Writer.Status() >= 500:
			log.Error("request failed", fields...)
		case c.Writer.Status() >= 400 || took > slowThreshold:
			log.Warn("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}
