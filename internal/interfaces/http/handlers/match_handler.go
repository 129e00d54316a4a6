package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trellisource/sourcing-intelligence/internal/application/matching"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// Matcher is the slice of the matching service the handler needs.
type Matcher interface {
	FindMatches(ctx context.Context, req *rfq.Requirement) (*matching.MatchResponse, error)
}

// MatchHandler serves the supplier-matching endpoints.
type MatchHandler struct {
	matcher Matcher
	metrics *prometheus.AppMetrics
	engine  string
	log     logging.Logger
}

// NewMatchHandler constructs a MatchHandler.
func NewMatchHandler(matcher Matcher, log logging.Logger) *MatchHandler {
	if log == nil {
		log = logging.NewNop()
	}
	return &MatchHandler{matcher: matcher, log: log}
}

// WithMetrics enables per-run matching metrics labelled with the retrieval
// engine in use.
func (h *MatchHandler) WithMetrics(m *prometheus.AppMetrics, engine string) *MatchHandler {
	h.metrics = m
	h.engine = engine
	return h
}

// FindMatchesRequest is the wire shape of a matching request.  Budget
// arrives as a free-form price string and is parsed exactly once here.
type FindMatchesRequest struct {
	BuyerID     string `json:"buyer_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Quantity    int    `json:"quantity"`
	Budget      string `json:"budget"`

	Deadline           time.Time `json:"deadline"`
	DeliveryWindowDays int       `json:"delivery_window_days"`

	DeliveryLocation rfq.DeliveryLocation `json:"delivery_location"`
	Urgency          string               `json:"urgency"`
}

// FindMatches handles POST /api/v1/matches/find.
func (h *MatchHandler) FindMatches(c *gin.Context) {
	var req FindMatchesRequest
	if !bindJSON(c, &req) {
		return
	}

	budget, err := common.ParsePrice(req.Budget)
	if err != nil {
		respondError(c, errors.ValidationWithCode(errors.ErrCodeRequirementInvalid,
			"budget", "must be a parseable price string").WithCause(err))
		return
	}

	requirement := &rfq.Requirement{
		BuyerID:            common.ID(req.BuyerID),
		Title:              req.Title,
		Description:        req.Description,
		Category:           req.Category,
		Quantity:           req.Quantity,
		Budget:             budget,
		Deadline:           req.Deadline,
		DeliveryWindowDays: req.DeliveryWindowDays,
		DeliveryLocation:   req.DeliveryLocation,
		Urgency:            common.UrgencyTier(req.Urgency),
		CreatedAt:          time.Now().UTC(),
	}

	start := time.Now()
	resp, err := h.matcher.FindMatches(c.Request.Context(), requirement)
	if err != nil {
		prometheus.RecordMatchRun(h.metrics, h.engine, 0, 0, 0, 0, err)
		respondError(c, err)
		return
	}
	prometheus.RecordMatchRun(h.metrics, h.engine,
		len(resp.Results)+len(resp.Skips), len(resp.Results), len(resp.Skips),
		time.Since(start), nil)
	ok(c, resp)
}
