package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/strategy"
	"github.com/trellisource/sourcing-intelligence/internal/application/negotiation"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/prometheus"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// Negotiator is the slice of the negotiation service the handler needs.
type Negotiator interface {
	AnalyzeComplexRFQ(ctx context.Context, c *rfq.ComplexRFQ) (strategy.RFQAnalysis, error)
	GenerateNegotiationReport(ctx context.Context, rfqID common.ID) (*negotiation.Report, error)
}

// RFQHandler serves the complex-RFQ analysis and report endpoints.
type RFQHandler struct {
	negotiator Negotiator
	metrics    *prometheus.AppMetrics
	log        logging.Logger
}

// NewRFQHandler constructs an RFQHandler.
func NewRFQHandler(negotiator Negotiator, log logging.Logger) *RFQHandler {
	if log == nil {
		log = logging.NewNop()
	}
	return &RFQHandler{negotiator: negotiator, log: log}
}

// WithMetrics enables analysis and report metrics.
func (h *RFQHandler) WithMetrics(m *prometheus.AppMetrics) *RFQHandler {
	h.metrics = m
	return h
}

// LineItemRequest is one line of an analysis request.  Budgets are price
// strings on the wire.
type LineItemRequest struct {
	Name     string            `json:"name"`
	Quantity int               `json:"quantity"`
	Specs    map[string]string `json:"specs,omitempty"`
	Budget   string            `json:"budget"`
}

// AnalyzeRFQRequest is the wire shape of an analysis request.
type AnalyzeRFQRequest struct {
	BuyerID              string               `json:"buyer_id"`
	Title                string               `json:"title"`
	LineItems            []LineItemRequest    `json:"line_items"`
	CandidateSupplierIDs []string             `json:"candidate_supplier_ids"`
	TimelineDays         int                  `json:"timeline_days"`
	DeliveryLocation     rfq.DeliveryLocation `json:"delivery_location"`
	Priority             string               `json:"priority"`
}

// Analyze handles POST /api/v1/rfqs/complex/analyze.
func (h *RFQHandler) Analyze(c *gin.Context) {
	var req AnalyzeRFQRequest
	if !bindJSON(c, &req) {
		return
	}

	complexRFQ, err := req.toDomain()
	if err != nil {
		respondError(c, err)
		return
	}

	start := time.Now()
	analysis, err := h.negotiator.AnalyzeComplexRFQ(c.Request.Context(), complexRFQ)
	if err != nil {
		prometheus.RecordAnalysis(h.metrics, false, 0, err)
		respondError(c, err)
		return
	}
	prometheus.RecordAnalysis(h.metrics, analysis.Degraded, time.Since(start), nil)
	ok(c, analysis)
}

// Report handles GET /api/v1/rfqs/:id/negotiation-report.
func (h *RFQHandler) Report(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		respondError(c, errors.ValidationWithCode(errors.ErrCodeRFQInvalid, "id", "required"))
		return
	}

	report, err := h.negotiator.GenerateNegotiationReport(c.Request.Context(), common.ID(id))
	if err != nil {
		if h.metrics != nil {
			h.metrics.ReportsGeneratedTotal.WithLabelValues("failure").Inc()
		}
		respondError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.ReportsGeneratedTotal.WithLabelValues("success").Inc()
	}
	ok(c, report)
}

func (r *AnalyzeRFQRequest) toDomain() (*rfq.ComplexRFQ, error) {
	lines := make([]rfq.LineItem, len(r.LineItems))
	for i, li := range r.LineItems {
		budget, err := common.ParsePrice(li.Budget)
		if err != nil {
			return nil, errors.ValidationWithCode(errors.ErrCodeRFQInvalid,
				"line_items["+li.Name+"].budget", "must be a parseable price string").WithCause(err)
		}
		lines[i] = rfq.LineItem{
			Name:     li.Name,
			Quantity: li.Quantity,
			Specs:    li.Specs,
			Budget:   budget,
		}
	}

	candidates := make([]common.ID, len(r.CandidateSupplierIDs))
	for i, id := range r.CandidateSupplierIDs {
		candidates[i] = common.ID(id)
	}

	return &rfq.ComplexRFQ{
		BuyerID:              common.ID(r.BuyerID),
		Title:                r.Title,
		LineItems:            lines,
		CandidateSupplierIDs: candidates,
		TimelineDays:         r.TimelineDays,
		DeliveryLocation:     r.DeliveryLocation,
		Priority:             common.PriorityTier(r.Priority),
		CreatedAt:            time.Now().UTC(),
	}, nil
}
