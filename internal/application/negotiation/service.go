// Package negotiation orchestrates the multi-item RFQ analysis path: market
// and risk fan-out, strategy aggregation, report generation, and archival.
package negotiation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/market"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/risk"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/strategy"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// AnalysisStore persists RFQ analyses so reports can be generated later
// without recomputation.
type AnalysisStore interface {
	SaveAnalysis(ctx context.Context, a strategy.RFQAnalysis) error
	GetAnalysis(ctx context.Context, rfqID common.ID) (strategy.RFQAnalysis, error)
}

// ReportArchive stores generated negotiation reports durably.  The MinIO
// adapter implements it in production.
type ReportArchive interface {
	// ArchiveReport stores the report and returns the object location.
	ArchiveReport(ctx context.Context, r *Report) (string, error)
}

// AnalyzedEvent announces a completed RFQ analysis.
type AnalyzedEvent struct {
	RFQID              common.ID `json:"rfq_id"`
	BuyerID            common.ID `json:"buyer_id"`
	LineCount          int       `json:"line_count"`
	SupplierCount      int       `json:"supplier_count"`
	SuccessProbability float64   `json:"success_probability"`
	Degraded           bool      `json:"degraded"`
	OccurredAt         time.Time `json:"occurred_at"`
}

// EventPublisher emits analysis events; fire-and-forget.
type EventPublisher interface {
	PublishRFQAnalyzed(ctx context.Context, ev AnalyzedEvent) error
}

// Report is the negotiation report exposed to callers and archived as JSON.
type Report struct {
	ID          common.ID            `json:"id"`
	RFQID       common.ID            `json:"rfq_id"`
	GeneratedAt time.Time            `json:"generated_at"`
	Analysis    strategy.RFQAnalysis `json:"analysis"`

	// Recommendations are the suggestion texts in rule order.
	Recommendations []string `json:"recommendations"`

	SuccessProbability float64 `json:"success_probability"`

	NextSteps []string `json:"next_steps"`
}

// Service is the negotiation application service.
type Service struct {
	store       rfq.Store
	directory   supplier.Directory
	analyzer    *market.Analyzer
	risks       *risk.Aggregator
	strategist  *strategy.Strategist
	analyses    AnalysisStore
	archive     ReportArchive
	events      EventPublisher
	maxParallel int
	log         logging.Logger
}

// NewService constructs the negotiation service.  analyses, archive, and
// events are optional.
func NewService(
	store rfq.Store,
	directory supplier.Directory,
	analyzer *market.Analyzer,
	risks *risk.Aggregator,
	strategist *strategy.Strategist,
	analyses AnalysisStore,
	archive ReportArchive,
	events EventPublisher,
	maxParallel int,
	log logging.Logger,
) *Service {
	if maxParallel < 1 {
		maxParallel = 4
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{
		store:       store,
		directory:   directory,
		analyzer:    analyzer,
		risks:       risks,
		strategist:  strategist,
		analyses:    analyses,
		archive:     archive,
		events:      events,
		maxParallel: maxParallel,
		log:         log,
	}
}

// AnalyzeComplexRFQ runs the full analysis pipeline for c: market analysis
// per line item and risk assessment per candidate supplier (both fanned out
// concurrently), aggregated by the strategist.  Collaborator failures
// degrade to marked fallbacks; only validation and store failures are fatal.
func (s *Service) AnalyzeComplexRFQ(ctx context.Context, c *rfq.ComplexRFQ) (strategy.RFQAnalysis, error) {
	if err := c.Validate(); err != nil {
		return strategy.RFQAnalysis{}, err
	}

	if s.store != nil {
		if c.ID == "" {
			c.ID = common.GenerateID("rfq")
		}
		if err := s.store.SaveComplexRFQ(ctx, c); err != nil {
			return strategy.RFQAnalysis{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save complex RFQ")
		}
	}

	suppliers, err := s.directory.GetSuppliersByIDs(ctx, c.CandidateSupplierIDs)
	if err != nil {
		return strategy.RFQAnalysis{}, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load candidate suppliers")
	}

	lines := s.analyzeLines(ctx, c)
	assessments := s.assessSuppliers(ctx, suppliers)

	if err := ctx.Err(); err != nil {
		return strategy.RFQAnalysis{}, err
	}

	analysis := s.strategist.Strategize(c, lines, assessments)

	if s.analyses != nil {
		if err := s.analyses.SaveAnalysis(ctx, analysis); err != nil {
			s.log.Warn("failed to persist analysis",
				logging.String("rfq_id", string(c.ID)), logging.Err(err))
		}
	}

	s.publishAnalyzed(ctx, c, analysis, len(lines), len(assessments))

	s.log.Info("rfq analysis complete",
		logging.String("rfq_id", string(c.ID)),
		logging.Int("lines", len(lines)),
		logging.Int("suppliers", len(assessments)),
		logging.Float64("success_probability", analysis.SuccessProbability),
		logging.Bool("degraded", analysis.Degraded))

	return analysis, nil
}

// analyzeLines fans the market analyzer out across line items, bounded by
// maxParallel.  Order is preserved.
func (s *Service) analyzeLines(ctx context.Context, c *rfq.ComplexRFQ) []market.LineAnalysis {
	lines := make([]market.LineAnalysis, len(c.LineItems))
	sem := make(chan struct{}, s.maxParallel)
	var wg sync.WaitGroup
	for i, li := range c.LineItems {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, li rfq.LineItem) {
			defer wg.Done()
			defer func() { <-sem }()
			lines[i] = s.analyzer.Analyze(ctx, li.Name, li.Specs)
		}(i, li)
	}
	wg.Wait()
	return lines
}

// assessSuppliers fans the risk aggregator out across suppliers.  A supplier
// that fails validation is skipped with a warning; the analysis proceeds on
// the rest.
func (s *Service) assessSuppliers(ctx context.Context, suppliers []*supplier.Supplier) []risk.Assessment {
	results := make([]*risk.Assessment, len(suppliers))
	sem := make(chan struct{}, s.maxParallel)
	var wg sync.WaitGroup
	for i, sup := range suppliers {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, sup *supplier.Supplier) {
			defer wg.Done()
			defer func() { <-sem }()
			a, err := s.risks.Assess(ctx, sup)
			if err != nil {
				s.log.Warn("skipping supplier risk assessment",
					logging.String("supplier_id", string(sup.ID)), logging.Err(err))
				return
			}
			results[i] = &a
		}(i, sup)
	}
	wg.Wait()

	out := make([]risk.Assessment, 0, len(results))
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}
	return out
}

// GenerateNegotiationReport builds the negotiation report for a stored RFQ.
// A missing RFQ is a not-found error surfaced to the caller; a missing
// stored analysis triggers a fresh one.
func (s *Service) GenerateNegotiationReport(ctx context.Context, rfqID common.ID) (*Report, error) {
	c, err := s.store.GetComplexRFQ(ctx, rfqID)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknown, "failed to load complex RFQ")
	}

	var analysis strategy.RFQAnalysis
	haveStored := false
	if s.analyses != nil {
		if a, err := s.analyses.GetAnalysis(ctx, rfqID); err == nil {
			analysis = a
			haveStored = true
		}
	}
	if !haveStored {
		analysis, err = s.AnalyzeComplexRFQ(ctx, c)
		if err != nil {
			return nil, err
		}
	}

	report := &Report{
		ID:                 common.GenerateID("rpt"),
		RFQID:              rfqID,
		GeneratedAt:        time.Now().UTC(),
		Analysis:           analysis,
		Recommendations:    recommendationTexts(analysis),
		SuccessProbability: analysis.SuccessProbability,
		NextSteps:          nextSteps(c, analysis),
	}

	if s.archive != nil {
		if location, err := s.archive.ArchiveReport(ctx, report); err != nil {
			s.log.Warn("failed to archive negotiation report",
				logging.String("rfq_id", string(rfqID)), logging.Err(err))
		} else {
			s.log.Info("negotiation report archived",
				logging.String("rfq_id", string(rfqID)),
				logging.String("location", location))
		}
	}

	return report, nil
}

func recommendationTexts(a strategy.RFQAnalysis) []string {
	out := make([]string, 0, len(a.Suggestions))
	for _, sug := range a.Suggestions {
		out = append(out, sug.Text)
	}
	return out
}

// nextSteps derives the operational follow-ups from the analysis.
func nextSteps(c *rfq.ComplexRFQ, a strategy.RFQAnalysis) []string {
	steps := []string{
		fmt.Sprintf("Shortlist and contact the %d candidate suppliers for quotes.", len(c.CandidateSupplierIDs)),
	}
	if len(a.SupplierRisk.Factors) > 0 {
		steps = append(steps, "Schedule due-diligence audits for the flagged high-risk suppliers before committing volume.")
	}
	if a.Demand.Trend == common.TrendUp {
		steps = append(steps, "Prioritize closing within the sourcing timeline; demand pressure favors sellers.")
	}
	if a.Degraded {
		steps = append(steps, "Re-run the analysis once market-data feeds recover; parts of this report used fallback values.")
	}
	steps = append(steps,
		fmt.Sprintf("Confirm specifications and delivery terms for all %d line items before final negotiation.", len(c.LineItems)))
	return steps
}

func (s *Service) publishAnalyzed(ctx context.Context, c *rfq.ComplexRFQ, a strategy.RFQAnalysis, lines, suppliers int) {
	if s.events == nil {
		return
	}
	ev := AnalyzedEvent{
		RFQID:              c.ID,
		BuyerID:            c.BuyerID,
		LineCount:          lines,
		SupplierCount:      suppliers,
		SuccessProbability: a.SuccessProbability,
		Degraded:           a.Degraded,
		OccurredAt:         time.Now().UTC(),
	}
	if err := s.events.PublishRFQAnalyzed(ctx, ev); err != nil {
		s.log.Warn("failed to publish analysis event",
			logging.String("rfq_id", string(c.ID)), logging.Err(err))
	}
}
