package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/trellisource/sourcing-intelligence/internal/interfaces/http/handlers"
	"github.com/trellisource/sourcing-intelligence/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware the route tree needs.
// Nil handlers leave their routes unregistered, so partial deployments (an
// analysis-only node, say) reuse the same router.
type RouterConfig struct {
	MatchHandler    *handlers.MatchHandler
	RFQHandler      *handlers.RFQHandler
	SupplierHandler *handlers.SupplierHandler
	HealthHandler   *handlers.HealthHandler

	// MetricsHandler serves the Prometheus scrape endpoint.
	MetricsHandler http.Handler

	// Metrics, when set, records per-route request counters and latency.
	Metrics *prometheus.AppMetrics

	RateLimiter middleware.Limiter

	Mode           string
	AllowedOrigins []string
	Logger         logging.Logger
}

// NewRouter builds the complete route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.NewNop()
	}

	switch cfg.Mode {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogging(cfg.Logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.MetricsHandler != nil {
		r.GET("/metrics", gin.WrapH(cfg.MetricsHandler))
	}

	api := r.Group("/api/v1")
	if cfg.RateLimiter != nil {
		api.Use(middleware.RateLimit(cfg.RateLimiter, cfg.Logger))
	}

	if cfg.MatchHandler != nil {
		api.POST("/matches/find", cfg.MatchHandler.FindMatches)
	}
	if cfg.RFQHandler != nil {
		api.POST("/rfqs/complex/analyze", cfg.RFQHandler.Analyze)
		api.GET("/rfqs/:id/negotiation-report", cfg.RFQHandler.Report)
	}
	if cfg.SupplierHandler != nil {
		api.GET("/suppliers", cfg.SupplierHandler.List)
		api.GET("/suppliers/:id", cfg.SupplierHandler.Get)
		api.PUT("/suppliers/:id", cfg.SupplierHandler.Upsert)
		api.DELETE("/suppliers/:id", cfg.SupplierHandler.Delete)
	}

	return r
}
