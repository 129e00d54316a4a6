// Package scoring implements the multi-factor scorer that grades one
// supplier against one RFQ requirement.  Scoring is a pure, deterministic
// function with no I/O; every weight and threshold comes from named
// configuration so policy can change without touching the algorithm.
package scoring

import (
	"strings"

	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
)

// Factor names used in breakdowns, reasons, and metrics labels.
const (
	FactorCategory   = "category"
	FactorBudget     = "budget"
	FactorRating     = "rating"
	FactorLocation   = "location"
	FactorCompliance = "compliance"
	FactorDelivery   = "delivery"
	FactorQuality    = "quality"
	FactorCapacity   = "capacity"
	FactorLeadTime   = "lead_time"
)

// Category credit multipliers.  An exact category match earns the full
// weight, a substring overlap most of it, and a different specialization a
// token credit rather than a hard zero.
const (
	categorySubstringCredit = 0.60
	categoryNearZeroCredit  = 0.10
)

// FactorScores is the named breakdown of one supplier evaluation.  Each
// field is bounded to [0, weight] for its factor; the weighted values sum to
// Total().
type FactorScores struct {
	Category   float64 `json:"category"`
	Budget     float64 `json:"budget"`
	Rating     float64 `json:"rating"`
	Location   float64 `json:"location"`
	Compliance float64 `json:"compliance"`
	Delivery   float64 `json:"delivery"`
	Quality    float64 `json:"quality"`
	Capacity   float64 `json:"capacity"`
	LeadTime   float64 `json:"lead_time"`
}

// Total returns the combined match score on the 0–100 scale.
func (f FactorScores) Total() float64 {
	return f.Category + f.Budget + f.Rating + f.Location + f.Compliance +
		f.Delivery + f.Quality + f.Capacity + f.LeadTime
}

// Breakdown returns the scores keyed by factor name.
func (f FactorScores) Breakdown() map[string]float64 {
	return map[string]float64{
		FactorCategory:   f.Category,
		FactorBudget:     f.Budget,
		FactorRating:     f.Rating,
		FactorLocation:   f.Location,
		FactorCompliance: f.Compliance,
		FactorDelivery:   f.Delivery,
		FactorQuality:    f.Quality,
		FactorCapacity:   f.Capacity,
		FactorLeadTime:   f.LeadTime,
	}
}

// Scorer grades suppliers against requirements using a configured weight
// policy.
type Scorer struct {
	weights         config.FactorWeights
	capacityDivisor float64
}

// NewScorer constructs a Scorer from the matching configuration.  Zero
// values fall back to the platform defaults so a Scorer is always usable.
func NewScorer(cfg config.MatchingConfig) *Scorer {
	weights := cfg.Weights
	if weights == (config.FactorWeights{}) {
		weights = config.DefaultFactorWeights
	}
	divisor := cfg.CapacityBudgetDivisor
	if divisor <= 0 {
		divisor = 100
	}
	return &Scorer{weights: weights, capacityDivisor: divisor}
}

// Score evaluates sup against req and returns the named factor scores.
// Both entities are validated first; a malformed entity yields a validation
// error naming the offending field, never a silent zero score.
func (sc *Scorer) Score(req *rfq.Requirement, sup *supplier.Supplier) (FactorScores, error) {
	if err := req.Validate(); err != nil {
		return FactorScores{}, err
	}
	if err := sup.Validate(); err != nil {
		return FactorScores{}, err
	}

	return FactorScores{
		Category:   sc.categoryScore(req, sup),
		Budget:     sc.budgetScore(req, sup),
		Rating:     sup.Rating / 5 * sc.weights.Rating,
		Location:   sc.locationScore(req, sup),
		Compliance: sup.ComplianceScore / 100 * sc.weights.Compliance,
		Delivery:   sup.OnTimeRate / 100 * sc.weights.Delivery,
		Quality:    sup.QualityScore / 5 * sc.weights.Quality,
		Capacity:   sc.capacityScore(req, sup),
		LeadTime:   sc.leadTimeScore(req, sup),
	}, nil
}

// categoryScore grades the category fit.  Exact case-insensitive equality
// earns the full weight; substring containment in either direction earns the
// substring credit; anything else earns the near-zero credit.
func (sc *Scorer) categoryScore(req *rfq.Requirement, sup *supplier.Supplier) float64 {
	want := strings.ToLower(req.Category)
	best := categoryNearZeroCredit
	for _, c := range sup.Categories {
		have := strings.ToLower(c)
		switch {
		case have == want:
			return sc.weights.Category
		case strings.Contains(have, want) || strings.Contains(want, have):
			if categorySubstringCredit > best {
				best = categorySubstringCredit
			}
		}
	}
	return best * sc.weights.Category
}

// budgetScore grades how the requirement budget sits against the supplier's
// quoted range.  Inside the range earns the full weight; below it, credit
// decays with distance from the range max.
func (sc *Scorer) budgetScore(req *rfq.Requirement, sup *supplier.Supplier) float64 {
	budget := req.Budget.Amount
	r := sup.PriceRange
	switch {
	case r.Contains(budget):
		return sc.weights.Budget
	case r.Max > 0 && budget >= r.Max*0.8:
		return 0.75 * sc.weights.Budget
	case r.Max > 0 && budget >= r.Max*0.6:
		return 0.50 * sc.weights.Budget
	default:
		return 0
	}
}

// locationScore grades delivery proximity.  An unspecified location on
// either side is neutral (half credit), never a penalty.
func (sc *Scorer) locationScore(req *rfq.Requirement, sup *supplier.Supplier) float64 {
	want := req.DeliveryLocation
	have := sup.Location
	if want.Unspecified() || (have.City == "" && have.State == "" && have.Country == "") {
		return 0.5 * sc.weights.Location
	}
	switch {
	case equalFold(want.City, have.City):
		return sc.weights.Location
	case equalFold(want.State, have.State):
		return 0.7 * sc.weights.Location
	case equalFold(want.Country, have.Country):
		return 0.5 * sc.weights.Location
	default:
		return 0
	}
}

func equalFold(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}

// capacityScore is binary: full weight when the supplier's monthly capacity
// clears the minimum derived from the requirement budget.
func (sc *Scorer) capacityScore(req *rfq.Requirement, sup *supplier.Supplier) float64 {
	required := req.Budget.Amount / sc.capacityDivisor
	if sup.MonthlyCapacity >= required {
		return sc.weights.Capacity
	}
	return 0
}

// leadTimeScore grades the supplier's quoted lead time against the delivery
// window: inside the window earns full weight, up to 1.5× the window half
// weight, beyond that nothing.
func (sc *Scorer) leadTimeScore(req *rfq.Requirement, sup *supplier.Supplier) float64 {
	window := float64(req.DeliveryWindowDays)
	lead := float64(sup.LeadTimeDays)
	switch {
	case lead <= window:
		return sc.weights.LeadTime
	case lead <= window*1.5:
		return 0.5 * sc.weights.LeadTime
	default:
		return 0
	}
}
