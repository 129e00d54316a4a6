// Package ranking combines factor scores into ordered, explainable match
// results.  The ranker is stateless; each call evaluates the supplied
// suppliers independently and in parallel, then sorts.
package ranking

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/internal/matching/scoring"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// Tier is the discrete recommendation bucket of a match result.
type Tier string

const (
	TierHighlyRecommended Tier = "highly_recommended"
	TierRecommended       Tier = "recommended"
	TierConsider          Tier = "consider"
	TierNotSuitable       Tier = "not_suitable"
)

// TierFor maps (score, concern count) to a recommendation tier.  The tier is
// a pure function of these two inputs and is never set independently.
func TierFor(score float64, concerns int) Tier {
	switch {
	case score >= 85 && concerns <= 1:
		return TierHighlyRecommended
	case score >= 70 && concerns <= 2:
		return TierRecommended
	case score >= 50:
		return TierConsider
	default:
		return TierNotSuitable
	}
}

// MatchResult is one supplier's evaluation against one requirement.  Results
// are created fresh per call and never persisted by this subsystem.
type MatchResult struct {
	Supplier *supplier.Supplier `json:"supplier"`

	// TotalScore is on the 0–100 scale; the breakdown sums to it within
	// floating-point tolerance.
	TotalScore float64              `json:"total_score"`
	Breakdown  scoring.FactorScores `json:"breakdown"`

	Reasons  []string `json:"reasons"`
	Concerns []string `json:"concerns"`

	EstimatedPrice        common.Money `json:"estimated_price"`
	EstimatedDeliveryDays int          `json:"estimated_delivery_days"`

	Tier       Tier    `json:"tier"`
	Confidence float64 `json:"confidence"`
}

// Skip reports one supplier that could not be evaluated.  A malformed record
// is fatal for that supplier only, never for the batch.
type Skip struct {
	SupplierID common.ID `json:"supplier_id"`
	Reason     string    `json:"reason"`
}

// Ranker evaluates supplier sets against requirements.
type Ranker struct {
	scorer      *scoring.Scorer
	parallelism int
	log         logging.Logger
}

// NewRanker constructs a Ranker.  A nil logger falls back to the nop
// implementation; parallelism below 1 is raised to 1.
func NewRanker(scorer *scoring.Scorer, parallelism int, log logging.Logger) *Ranker {
	if log == nil {
		log = logging.NewNop()
	}
	if parallelism < 1 {
		parallelism = 1
	}
	return &Ranker{scorer: scorer, parallelism: parallelism, log: log}
}

// Rank scores every supplier against req concurrently, sorts descending by
// total score with ties broken by supplier ID, and reports per-supplier
// validation failures as skips.  An empty supplier set yields an empty
// result, not an error.  Context cancellation discards in-flight work and
// returns ctx.Err().
func (r *Ranker) Rank(ctx context.Context, req *rfq.Requirement, suppliers []*supplier.Supplier) ([]MatchResult, []Skip, error) {
	if err := req.Validate(); err != nil {
		return nil, nil, err
	}
	if len(suppliers) == 0 {
		return []MatchResult{}, nil, nil
	}

	type slot struct {
		result MatchResult
		skip   *Skip
		ok     bool
	}
	slots := make([]slot, len(suppliers))

	sem := make(chan struct{}, r.parallelism)
	var wg sync.WaitGroup
	for i, sup := range suppliers {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sup *supplier.Supplier) {
			defer wg.Done()
			defer func() { <-sem }()

			if sup == nil {
				slots[i] = slot{skip: &Skip{Reason: "nil supplier record"}}
				return
			}
			scores, err := r.scorer.Score(req, sup)
			if err != nil {
				slots[i] = slot{skip: &Skip{SupplierID: sup.ID, Reason: err.Error()}}
				return
			}
			slots[i] = slot{result: r.buildResult(req, sup, scores), ok: true}
		}(i, sup)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	results := make([]MatchResult, 0, len(suppliers))
	var skips []Skip
	for _, s := range slots {
		switch {
		case s.ok:
			results = append(results, s.result)
		case s.skip != nil:
			skips = append(skips, *s.skip)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].TotalScore != results[j].TotalScore {
			return results[i].TotalScore > results[j].TotalScore
		}
		return results[i].Supplier.ID < results[j].Supplier.ID
	})

	if len(skips) > 0 {
		r.log.Warn("ranking completed with skipped suppliers",
			logging.String("requirement_id", string(req.ID)),
			logging.Int("ranked", len(results)),
			logging.Int("skipped", len(skips)))
	}
	return results, skips, nil
}

// Advisory-text thresholds.
const (
	reasonRatingMin      = 4.5
	concernRatingMax     = 3.0
	reasonComplianceMin  = 90.0
	concernComplianceMax = 50.0
	reasonOnTimeMin      = 95.0
	concernOnTimeMax     = 80.0
)

// confidencePerConcern is the confidence discount applied per concern.
const confidencePerConcern = 0.05

func (r *Ranker) buildResult(req *rfq.Requirement, sup *supplier.Supplier, scores scoring.FactorScores) MatchResult {
	reasons, concerns := r.explain(req, sup, scores)

	total := scores.Total()
	confidence := common.Clamp01(total/100 - confidencePerConcern*float64(len(concerns)))

	return MatchResult{
		Supplier:              sup,
		TotalScore:            total,
		Breakdown:             scores,
		Reasons:               reasons,
		Concerns:              concerns,
		EstimatedPrice:        estimatePrice(req, sup),
		EstimatedDeliveryDays: sup.LeadTimeDays,
		Tier:                  TierFor(total, len(concerns)),
		Confidence:            confidence,
	}
}

// explain derives advisory reasons and concerns from which factors scored
// above or below the fixed thresholds.
func (r *Ranker) explain(req *rfq.Requirement, sup *supplier.Supplier, scores scoring.FactorScores) (reasons, concerns []string) {
	switch categoryRelation(req.Category, sup.Categories) {
	case categoryExact:
		reasons = append(reasons, fmt.Sprintf("serves the %q category", req.Category))
	case categoryRelated:
		reasons = append(reasons, "related product specialization")
	default:
		concerns = append(concerns, "different product specialization")
	}

	if req.Budget.Amount > 0 && sup.PriceRange.Contains(req.Budget.Amount) {
		reasons = append(reasons, "budget fits the quoted price range")
	} else if scores.Budget == 0 {
		concerns = append(concerns, "budget is well below the quoted price range")
	}

	if sup.Rating >= reasonRatingMin {
		reasons = append(reasons, fmt.Sprintf("highly rated by buyers (%.1f/5)", sup.Rating))
	} else if sup.Rating < concernRatingMax {
		concerns = append(concerns, fmt.Sprintf("low buyer rating (%.1f/5)", sup.Rating))
	}

	if sup.ComplianceScore >= reasonComplianceMin {
		reasons = append(reasons, "strong compliance record")
	} else if sup.ComplianceScore < concernComplianceMax {
		concerns = append(concerns, "weak compliance record")
	}

	if sup.OnTimeRate >= reasonOnTimeMin {
		reasons = append(reasons, fmt.Sprintf("excellent on-time delivery (%.0f%%)", sup.OnTimeRate))
	} else if sup.OnTimeRate < concernOnTimeMax {
		concerns = append(concerns, fmt.Sprintf("patchy delivery history (%.0f%% on time)", sup.OnTimeRate))
	}

	if sup.Verification.IsVerified() {
		reasons = append(reasons, "verified supplier")
	} else {
		concerns = append(concerns, "supplier is not verified")
	}

	if scores.LeadTime == 0 {
		concerns = append(concerns, fmt.Sprintf("lead time of %d days exceeds the delivery window", sup.LeadTimeDays))
	}

	return reasons, concerns
}

type categoryFit int

const (
	categoryDifferent categoryFit = iota
	categoryRelated
	categoryExact
)

func categoryRelation(want string, categories []string) categoryFit {
	w := strings.ToLower(want)
	fit := categoryDifferent
	for _, c := range categories {
		have := strings.ToLower(c)
		if have == w {
			return categoryExact
		}
		if strings.Contains(have, w) || strings.Contains(w, have) {
			fit = categoryRelated
		}
	}
	return fit
}

// estimatePrice quotes the midpoint of the supplier's range when one is
// published, otherwise echoes the buyer's budget.
func estimatePrice(req *rfq.Requirement, sup *supplier.Supplier) common.Money {
	r := sup.PriceRange
	if r.Min == 0 && r.Max == 0 {
		return req.Budget
	}
	currency := r.Currency
	if currency == "" {
		currency = req.Budget.Currency
	}
	return common.Money{Amount: (r.Min + r.Max) / 2, Currency: currency}
}
