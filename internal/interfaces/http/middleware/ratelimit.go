package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
)

// Limiter is the rate-limit decision contract; the Redis fixed-window
// limiter implements it.
type Limiter interface {
	Allow(ctx context.Context, key string) (allowed bool, remaining int, err error)
	Limit() int
}

// RateLimit throttles requests per client IP.  The limiter fails open, so a
// Redis outage never blocks traffic.
func RateLimit(limiter Limiter, log logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, remaining, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Warn("rate-limit check failed", logging.String("client", c.ClientIP()), logging.Err(err))
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limiter.Limit()))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    "COMMON_005",
				"message": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}
