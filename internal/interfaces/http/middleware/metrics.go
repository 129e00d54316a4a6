package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/prometheus"
)

// Metrics records request count and latency per route.  The route template
// is used as the path label so parameterised routes share one series.
func Metrics(m *prometheus.AppMetrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}

		if m != nil {
			m.HTTPActiveRequests.WithLabelValues(c.Request.Method, path).Inc()
		}
		c.Next()
		if m != nil {
			m.HTTPActiveRequests.WithLabelValues(c.Request.Method, path).Dec()
		}

		prometheus.RecordHTTPRequest(m, c.Request.Method, path, c.Writer.Status(), time.Since(start))
	}
}
