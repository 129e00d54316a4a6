// Package market derives per-line market intelligence (price band, demand
// forecast, competitor spread) from external market-data collaborators and
// folds it into a line-level risk score.
package market

import (
	"context"
	"sync"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// DemandForecast is the demand outlook for one product line.
type DemandForecast struct {
	Trend  common.DemandTrend `json:"trend"`
	Factor float64            `json:"factor"`

	// Fallback marks a forecast substituted because the collaborator was
	// unavailable.
	Fallback bool `json:"fallback,omitempty"`
}

// CompetitorQuotes is the set of competitor prices known for a product.
type CompetitorQuotes struct {
	Prices  []float64 `json:"prices"`
	Sources []string  `json:"sources,omitempty"`

	Fallback bool `json:"fallback,omitempty"`
}

// Spread returns (max − min) / avg over the quotes; fewer than two quotes
// yield 0.
func (c CompetitorQuotes) Spread() float64 {
	if len(c.Prices) < 2 {
		return 0
	}
	min, max, sum := c.Prices[0], c.Prices[0], 0.0
	for _, p := range c.Prices {
		if p < min {
			min = p
		}
		if p > max {
			max = p
		}
		sum += p
	}
	avg := sum / float64(len(c.Prices))
	if avg == 0 {
		return 0
	}
	return (max - min) / avg
}

// DataService is the external market-data collaborator contract.
// Implementations: the HTTP adapter in internal/infrastructure/marketdata,
// doubles in tests.
type DataService interface {
	GetPriceBand(ctx context.Context, product string, specs map[string]string) (common.PriceBand, error)
	GetDemandForecast(ctx context.Context, product string) (DemandForecast, error)
	GetCompetitorPrices(ctx context.Context, product string) (CompetitorQuotes, error)
}

// LineAnalysis is the market view of one RFQ line item.
type LineAnalysis struct {
	Product     string           `json:"product"`
	PriceBand   common.PriceBand `json:"price_band"`
	Demand      DemandForecast   `json:"demand"`
	Competitors CompetitorQuotes `json:"competitors"`

	// RiskScore is the per-line risk: price-band spread + demand-stability
	// discount + competition-intensity discount.  It is intentionally NOT
	// clamped here; clamping happens only at final aggregation so line
	// risks remain comparable before combination.
	RiskScore float64 `json:"risk_score"`

	// Degraded reports that at least one input was a fallback value.
	Degraded bool `json:"degraded,omitempty"`
}

// Risk-term constants.
const (
	stableDemandDiscount   = 0.1
	unstableDemandDiscount = 0.3

	competitiveMarketDiscount = 0.2
	thinMarketDiscount        = 0.1

	// competitiveQuoteCount is the quote count above which a market counts
	// as competitive.
	competitiveQuoteCount = 3
)

// Analyzer computes LineAnalysis values with bounded, concurrent collaborator
// calls.
type Analyzer struct {
	data    DataService
	timeout time.Duration
	log     logging.Logger
}

// NewAnalyzer constructs an Analyzer.  A non-positive timeout defaults to
// five seconds; a nil logger falls back to the nop implementation.
func NewAnalyzer(data DataService, timeout time.Duration, log logging.Logger) *Analyzer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Analyzer{data: data, timeout: timeout, log: log}
}

// Analyze fetches the three market signals for product concurrently, each
// bounded by the configured timeout.  A failed or timed-out call degrades to
// a documented fallback value marked as such; it never fails the analysis.
func (a *Analyzer) Analyze(ctx context.Context, product string, specs map[string]string) LineAnalysis {
	cctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	var (
		band        common.PriceBand
		demand      DemandForecast
		competitors CompetitorQuotes
		wg          sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		b, err := a.data.GetPriceBand(cctx, product, specs)
		if err != nil {
			a.log.Warn("price band unavailable, using fallback",
				logging.String("product", product), logging.Err(err))
			b = common.PriceBand{Fallback: true}
		}
		band = b
	}()
	go func() {
		defer wg.Done()
		d, err := a.data.GetDemandForecast(cctx, product)
		if err != nil {
			a.log.Warn("demand forecast unavailable, using fallback",
				logging.String("product", product), logging.Err(err))
			d = DemandForecast{Trend: common.TrendStable, Factor: 1.0, Fallback: true}
		}
		demand = d
	}()
	go func() {
		defer wg.Done()
		c, err := a.data.GetCompetitorPrices(cctx, product)
		if err != nil {
			a.log.Warn("competitor prices unavailable, using fallback",
				logging.String("product", product), logging.Err(err))
			c = CompetitorQuotes{Fallback: true}
		}
		competitors = c
	}()
	wg.Wait()

	return LineAnalysis{
		Product:     product,
		PriceBand:   band,
		Demand:      demand,
		Competitors: competitors,
		RiskScore:   lineRisk(band, demand, competitors),
		Degraded:    band.Fallback || demand.Fallback || competitors.Fallback,
	}
}

// lineRisk sums the three per-line risk terms without clamping.
func lineRisk(band common.PriceBand, demand DemandForecast, competitors CompetitorQuotes) float64 {
	risk := band.Spread()

	if demand.Trend == common.TrendStable {
		risk += stableDemandDiscount
	} else {
		risk += unstableDemandDiscount
	}

	if len(competitors.Prices) > competitiveQuoteCount {
		risk += competitiveMarketDiscount
	} else {
		risk += thinMarketDiscount
	}

	return risk
}
