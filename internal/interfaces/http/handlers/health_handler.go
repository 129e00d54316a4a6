package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
)

// Pinger is any dependency that can report reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	deps map[string]Pinger
	log  logging.Logger
}

// NewHealthHandler constructs a HealthHandler over named dependencies.
func NewHealthHandler(deps map[string]Pinger, log logging.Logger) *HealthHandler {
	if log == nil {
		log = logging.NewNop()
	}
	return &HealthHandler{deps: deps, log: log}
}

// Liveness handles GET /healthz.  It reports process health only; no
// dependency is consulted.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness handles GET /readyz.  Every registered dependency must answer
// within the probe budget for the service to report ready.
func (h *HealthHandler) Readiness(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps))
	healthy := true
	for name, dep := range h.deps {
		if err := dep.Ping(ctx); err != nil {
			checks[name] = "unavailable"
			healthy = false
			h.log.Warn("readiness check failed", logging.String("dependency", name), logging.Err(err))
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}
