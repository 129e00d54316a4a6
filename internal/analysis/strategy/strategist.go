// Package strategy turns per-line market analyses and per-supplier risk
// assessments into an aggregated RFQ analysis with ordered negotiation
// suggestions and a success-probability estimate.
package strategy

import (
	"fmt"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/market"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/risk"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// SupplierRisk is the aggregated counterparty-risk view of an RFQ.
type SupplierRisk struct {
	// Score is the mean per-supplier risk, in [0, 1].
	Score float64 `json:"score"`

	// Factors names the risk drivers of suppliers whose individual risk
	// exceeded the high-risk threshold.
	Factors []string `json:"factors,omitempty"`
}

// DemandOutlook is the aggregated demand view across line items.
type DemandOutlook struct {
	// Trend is a majority vote across lines: up or down on a strict
	// majority, otherwise stable.
	Trend common.DemandTrend `json:"trend"`

	// Factor is the mean per-line demand multiplier.
	Factor float64 `json:"factor"`
}

// Suggestion is one rule-triggered negotiation recommendation.
type Suggestion struct {
	Rule string `json:"rule"`
	Text string `json:"text"`
}

// Suggestion rule identifiers, in emission order.
const (
	RuleBulkDiscount    = "bulk_discount"
	RuleDeliveryPremium = "delivery_premium"
	RuleGuarantees      = "guarantees"
	RuleEarlyPriceLock  = "early_price_lock"
)

// RFQAnalysis is the output of the negotiation path for one complex RFQ.
type RFQAnalysis struct {
	RFQID common.ID `json:"rfq_id"`

	// PriceBand aggregates the line-item bands: min of mins, max of maxes,
	// mean of averages.
	PriceBand common.PriceBand `json:"price_band"`

	SupplierRisk SupplierRisk `json:"supplier_risk"`

	// CompetitorSpread is the mean competitor price spread across lines.
	CompetitorSpread float64 `json:"competitor_spread"`

	Demand DemandOutlook `json:"demand"`

	Suggestions []Suggestion `json:"suggestions"`

	// SuccessProbability is clamped to [0, 1].
	SuccessProbability float64 `json:"success_probability"`

	// Degraded reports that at least one input carried a fallback value.
	Degraded bool `json:"degraded,omitempty"`
}

// highRiskThreshold is the per-supplier risk above which named factors are
// surfaced and additional guarantees suggested.
const highRiskThreshold = 0.7

// earlyLockDemandFactor is the aggregated demand factor above which an early
// price lock is suggested.
const earlyLockDemandFactor = 1.1

// urgentProbabilityMultiplier discounts the success probability of urgent
// RFQs.
const urgentProbabilityMultiplier = 0.8

// suggestionBonusFactor rewards analyses that produced at least one
// actionable suggestion.  It deliberately exceeds 1 and is corrected only by
// the final clamp; correcting earlier would change the clamped result.
const suggestionBonusFactor = 1.1

// Strategist aggregates analyses into negotiation strategy.
type Strategist struct {
	largeOrderThreshold float64
	log                 logging.Logger
}

// NewStrategist constructs a Strategist.  A non-positive threshold falls
// back to the platform default.
func NewStrategist(largeOrderThreshold float64, log logging.Logger) *Strategist {
	if largeOrderThreshold <= 0 {
		largeOrderThreshold = 50000
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Strategist{largeOrderThreshold: largeOrderThreshold, log: log}
}

// Strategize combines the per-line market analyses and per-supplier risk
// assessments for c into an RFQAnalysis.  Pure aggregation; all collaborator
// I/O happened upstream.
func (s *Strategist) Strategize(c *rfq.ComplexRFQ, lines []market.LineAnalysis, risks []risk.Assessment) RFQAnalysis {
	analysis := RFQAnalysis{
		RFQID:            c.ID,
		PriceBand:        aggregateBands(lines),
		SupplierRisk:     aggregateRisk(risks),
		CompetitorSpread: meanCompetitorSpread(lines),
		Demand:           aggregateDemand(lines),
		Degraded:         anyDegraded(lines, risks),
	}
	analysis.Suggestions = s.suggest(c, analysis)
	analysis.SuccessProbability = successProbability(c, lines, risks, len(analysis.Suggestions) > 0)
	return analysis
}

func anyDegraded(lines []market.LineAnalysis, risks []risk.Assessment) bool {
	for _, l := range lines {
		if l.Degraded {
			return true
		}
	}
	for _, r := range risks {
		if r.HistoryUnavailable {
			return true
		}
	}
	return false
}

func aggregateBands(lines []market.LineAnalysis) common.PriceBand {
	var band common.PriceBand
	var avgSum float64
	var n int
	for _, l := range lines {
		b := l.PriceBand
		if b.Min == 0 && b.Max == 0 && b.Avg == 0 {
			continue
		}
		if n == 0 || b.Min < band.Min {
			band.Min = b.Min
		}
		if b.Max > band.Max {
			band.Max = b.Max
		}
		if band.Currency == "" {
			band.Currency = b.Currency
		}
		avgSum += b.Avg
		n++
	}
	if n > 0 {
		band.Avg = avgSum / float64(n)
	}
	return band
}

func aggregateRisk(risks []risk.Assessment) SupplierRisk {
	if len(risks) == 0 {
		return SupplierRisk{}
	}
	var sum float64
	var factors []string
	for _, r := range risks {
		sum += r.Score
		if r.Score > highRiskThreshold {
			for _, f := range r.Factors {
				factors = append(factors, fmt.Sprintf("%s: %s", r.SupplierID, f))
			}
		}
	}
	return SupplierRisk{Score: sum / float64(len(risks)), Factors: factors}
}

func meanCompetitorSpread(lines []market.LineAnalysis) float64 {
	if len(lines) == 0 {
		return 0
	}
	var sum float64
	for _, l := range lines {
		sum += l.Competitors.Spread()
	}
	return sum / float64(len(lines))
}

func aggregateDemand(lines []market.LineAnalysis) DemandOutlook {
	if len(lines) == 0 {
		return DemandOutlook{Trend: common.TrendStable, Factor: 1}
	}
	var up, down int
	var factorSum float64
	for _, l := range lines {
		switch l.Demand.Trend {
		case common.TrendUp:
			up++
		case common.TrendDown:
			down++
		}
		factorSum += l.Demand.Factor
	}

	trend := common.TrendStable
	majority := len(lines) / 2
	if up > majority {
		trend = common.TrendUp
	} else if down > majority {
		trend = common.TrendDown
	}
	return DemandOutlook{Trend: trend, Factor: factorSum / float64(len(lines))}
}

// suggest applies the negotiation rules in fixed order so suggestion lists
// are deterministic.
func (s *Strategist) suggest(c *rfq.ComplexRFQ, analysis RFQAnalysis) []Suggestion {
	var out []Suggestion

	if total := c.TotalBudget(); total.Amount > s.largeOrderThreshold {
		out = append(out, Suggestion{
			Rule: RuleBulkDiscount,
			Text: fmt.Sprintf("Total budget of %s qualifies as a large order; negotiate a bulk discount across all line items.", total),
		})
	}
	if c.Priority == common.PriorityUrgent {
		out = append(out, Suggestion{
			Rule: RuleDeliveryPremium,
			Text: "Urgent timeline: offer a delivery-speed premium in exchange for a guaranteed ship date.",
		})
	}
	if len(analysis.SupplierRisk.Factors) > 0 {
		out = append(out, Suggestion{
			Rule: RuleGuarantees,
			Text: "High-risk suppliers in the candidate set: request additional guarantees (escrow, performance bond, or staged payments).",
		})
	}
	if analysis.Demand.Factor > earlyLockDemandFactor {
		out = append(out, Suggestion{
			Rule: RuleEarlyPriceLock,
			Text: "Demand is forecast to rise; lock prices early before the market moves.",
		})
	}
	return out
}

// successProbability is the mean of four terms: mean supplier confidence,
// mean line confidence, the urgency multiplier, and the suggestion bonus.
// The bonus term deliberately exceeds 1; the final clamp is the only
// correction point.
func successProbability(c *rfq.ComplexRFQ, lines []market.LineAnalysis, risks []risk.Assessment, hasSuggestions bool) float64 {
	supplierTerm := 1.0
	if len(risks) > 0 {
		var sum float64
		for _, r := range risks {
			sum += 1 - r.Score
		}
		supplierTerm = sum / float64(len(risks))
	}

	lineTerm := 1.0
	if len(lines) > 0 {
		var sum float64
		for _, l := range lines {
			sum += 1 - l.RiskScore
		}
		lineTerm = sum / float64(len(lines))
	}

	urgencyTerm := 1.0
	if c.Priority == common.PriorityUrgent {
		urgencyTerm = urgentProbabilityMultiplier
	}

	bonusTerm := 1.0
	if hasSuggestions {
		bonusTerm = suggestionBonusFactor
	}

	return common.Clamp01((supplierTerm + lineTerm + urgencyTerm + bonusTerm) / 4)
}
