// Package risk computes counterparty-risk scores for suppliers from their
// behavioural track record.  Higher scores mean less trustworthy.
package risk

import (
	"context"
	"fmt"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// Risk-term constants.  The four terms are equally weighted.
const (
	noTransactionPenalty  = 0.3
	hasTransactionPenalty = 0.1

	unverifiedPenalty = 0.2
	verifiedPenalty   = 0.1

	// experienceSaturation is the response count at which the experience
	// term bottoms out.
	experienceSaturation = 10

	// slowResponderThreshold flags suppliers whose average response time
	// warrants a named risk factor.
	slowResponderThreshold = 48 * time.Hour
)

// Assessment is the risk view of one supplier.
type Assessment struct {
	SupplierID common.ID `json:"supplier_id"`

	// Score is in [0, 1]; higher is worse.
	Score float64 `json:"score"`

	// Factors names the conditions that drove the score up.
	Factors []string `json:"factors,omitempty"`

	AvgResponseTime time.Duration `json:"avg_response_time"`

	// ResponseTimeFallback marks AvgResponseTime as the documented default
	// rather than a computed value.
	ResponseTimeFallback bool `json:"response_time_fallback,omitempty"`

	// HistoryUnavailable marks an assessment degraded because the history
	// store could not be reached.
	HistoryUnavailable bool `json:"history_unavailable,omitempty"`
}

// Aggregator assesses supplier counterparty risk.
type Aggregator struct {
	histories        supplier.HistoryProvider
	fallbackResponse time.Duration
	timeout          time.Duration
	log              logging.Logger
}

// NewAggregator constructs an Aggregator.  A non-positive fallback response
// time defaults to 24 hours; a non-positive timeout to five seconds.
func NewAggregator(histories supplier.HistoryProvider, fallbackResponse, timeout time.Duration, log logging.Logger) *Aggregator {
	if fallbackResponse <= 0 {
		fallbackResponse = 24 * time.Hour
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Aggregator{
		histories:        histories,
		fallbackResponse: fallbackResponse,
		timeout:          timeout,
		log:              log,
	}
}

// Assess computes sup's risk score from its track record.  An unreachable
// history store degrades to the no-history fallbacks and marks the
// assessment; it never fails the call.
func (a *Aggregator) Assess(ctx context.Context, sup *supplier.Supplier) (Assessment, error) {
	if err := sup.Validate(); err != nil {
		return Assessment{}, err
	}

	hctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var history *supplier.History
	historyUnavailable := false
	if a.histories != nil {
		h, err := a.histories.GetSupplierHistory(hctx, sup.ID)
		if err != nil {
			a.log.Warn("supplier history unavailable, assessing without it",
				logging.String("supplier_id", string(sup.ID)), logging.Err(err))
			historyUnavailable = true
		} else {
			history = h
		}
	}

	var (
		responseCount    int
		transactionCount int
		verified         = sup.Verification.IsVerified()
	)
	if history != nil {
		for _, r := range history.Responses {
			if r.Responded() {
				responseCount++
			}
		}
		transactionCount = history.TransactionCount
		verified = history.Verified
	}

	avgResponse := a.fallbackResponse
	responseFallback := true
	if history != nil {
		if avg, ok := history.AvgResponseTime(); ok {
			avgResponse = avg
			responseFallback = false
		}
	}

	// Four equally weighted terms summed, then clamped to [0, 1].  The sum
	// can exceed 1 for unproven suppliers; the clamp is the only correction
	// point, so high-risk thresholds downstream stay reachable.
	ratingTerm := 1 - sup.Rating/5

	experience := float64(responseCount) / experienceSaturation
	if experience > 1 {
		experience = 1
	}
	experienceTerm := 1 - experience

	transactionTerm := noTransactionPenalty
	if transactionCount > 0 {
		transactionTerm = hasTransactionPenalty
	}

	verificationTerm := unverifiedPenalty
	if verified {
		verificationTerm = verifiedPenalty
	}

	score := common.Clamp01(ratingTerm + experienceTerm + transactionTerm + verificationTerm)

	return Assessment{
		SupplierID:           sup.ID,
		Score:                score,
		Factors:              a.nameFactors(sup, responseCount, transactionCount, verified, avgResponse, responseFallback),
		AvgResponseTime:      avgResponse,
		ResponseTimeFallback: responseFallback,
		HistoryUnavailable:   historyUnavailable,
	}, nil
}

// nameFactors lists the conditions that make the supplier risky, for use in
// negotiation analyses and diagnostics.
func (a *Aggregator) nameFactors(sup *supplier.Supplier, responses, transactions int, verified bool, avgResponse time.Duration, responseFallback bool) []string {
	var factors []string
	if sup.Rating < 3 {
		factors = append(factors, fmt.Sprintf("low buyer rating (%.1f/5)", sup.Rating))
	}
	if responses < 3 {
		factors = append(factors, "little RFQ response history")
	}
	if transactions == 0 {
		factors = append(factors, "no completed transactions on the platform")
	}
	if !verified {
		factors = append(factors, "supplier is not verified")
	}
	if avgResponse > slowResponderThreshold {
		label := fmt.Sprintf("slow to respond (avg %.0fh)", avgResponse.Hours())
		if responseFallback {
			label += " [assumed]"
		}
		factors = append(factors, label)
	}
	return factors
}
