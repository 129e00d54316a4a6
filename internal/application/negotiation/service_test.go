package negotiation

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/market"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/risk"
	"github.com/trellisource/sourcing-intelligence/internal/analysis/strategy"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// ── test doubles ─────────────────────────────────────────────────────────────

type fakeStore struct {
	rfqs map[common.ID]*rfq.ComplexRFQ
}

func newFakeStore() *fakeStore {
	return &fakeStore{rfqs: map[common.ID]*rfq.ComplexRFQ{}}
}

func (f *fakeStore) SaveRequirement(_ context.Context, _ *rfq.Requirement) error { return nil }
func (f *fakeStore) GetRequirement(_ context.Context, _ common.ID) (*rfq.Requirement, error) {
	return nil, errors.New(errors.ErrCodeRequirementNotFound, "not found")
}

func (f *fakeStore) SaveComplexRFQ(_ context.Context, c *rfq.ComplexRFQ) error {
	f.rfqs[c.ID] = c
	return nil
}

func (f *fakeStore) GetComplexRFQ(_ context.Context, id common.ID) (*rfq.ComplexRFQ, error) {
	if c, ok := f.rfqs[id]; ok {
		return c, nil
	}
	return nil, errors.New(errors.ErrCodeRFQNotFound, "rfq not found").WithDetail("id=" + string(id))
}

type fakeDirectory struct {
	suppliers map[common.ID]*supplier.Supplier
}

func (f *fakeDirectory) ListSuppliers(_ context.Context, _ supplier.ListFilter) ([]*supplier.Supplier, error) {
	var out []*supplier.Supplier
	for _, s := range f.suppliers {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeDirectory) GetSupplier(_ context.Context, id common.ID) (*supplier.Supplier, error) {
	if s, ok := f.suppliers[id]; ok {
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeSupplierNotFound, "not found")
}

func (f *fakeDirectory) GetSuppliersByIDs(_ context.Context, ids []common.ID) ([]*supplier.Supplier, error) {
	var out []*supplier.Supplier
	for _, id := range ids {
		if s, ok := f.suppliers[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

type fakeMarketData struct {
	bandErr error
}

func (f *fakeMarketData) GetPriceBand(_ context.Context, _ string, _ map[string]string) (common.PriceBand, error) {
	if f.bandErr != nil {
		return common.PriceBand{}, f.bandErr
	}
	return common.PriceBand{Min: 900, Max: 1100, Avg: 1000, Currency: "USD"}, nil
}

func (f *fakeMarketData) GetDemandForecast(_ context.Context, _ string) (market.DemandForecast, error) {
	return market.DemandForecast{Trend: common.TrendStable, Factor: 1.0}, nil
}

func (f *fakeMarketData) GetCompetitorPrices(_ context.Context, _ string) (market.CompetitorQuotes, error) {
	return market.CompetitorQuotes{Prices: []float64{950, 1000, 1050}}, nil
}

type fakeHistories struct{}

func (fakeHistories) GetSupplierHistory(_ context.Context, id common.ID) (*supplier.History, error) {
	return &supplier.History{
		SupplierID:       id,
		TransactionCount: 12,
		Verified:         true,
		Responses: []supplier.ResponseRecord{
			{RFQID: "rfq-old", CreatedAt: time.Now().Add(-48 * time.Hour), RespondedAt: time.Now().Add(-44 * time.Hour)},
		},
	}, nil
}

type fakeAnalyses struct {
	saved map[common.ID]strategy.RFQAnalysis
}

func newFakeAnalyses() *fakeAnalyses {
	return &fakeAnalyses{saved: map[common.ID]strategy.RFQAnalysis{}}
}

func (f *fakeAnalyses) SaveAnalysis(_ context.Context, a strategy.RFQAnalysis) error {
	f.saved[a.RFQID] = a
	return nil
}

func (f *fakeAnalyses) GetAnalysis(_ context.Context, rfqID common.ID) (strategy.RFQAnalysis, error) {
	if a, ok := f.saved[rfqID]; ok {
		return a, nil
	}
	return strategy.RFQAnalysis{}, errors.New(errors.ErrCodeNotFound, "analysis not found")
}

type fakeArchive struct {
	archived []*Report
	err      error
}

func (f *fakeArchive) ArchiveReport(_ context.Context, r *Report) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.archived = append(f.archived, r)
	return "reports/" + string(r.RFQID) + ".json", nil
}

type fakeEvents struct {
	analyzed []AnalyzedEvent
}

func (f *fakeEvents) PublishRFQAnalyzed(_ context.Context, ev AnalyzedEvent) error {
	f.analyzed = append(f.analyzed, ev)
	return nil
}

// ── fixtures ─────────────────────────────────────────────────────────────────

func candidateSupplier(id common.ID) *supplier.Supplier {
	return &supplier.Supplier{
		ID:              id,
		Name:            "Supplier " + string(id),
		Categories:      []string{"machinery"},
		Rating:          4.2,
		PriceRange:      supplier.PriceRange{Min: 500, Max: 2000, Currency: "USD"},
		ComplianceScore: 85,
		OnTimeRate:      92,
		QualityScore:    4.0,
		FinancialRating: 4.0,
		Verification:    common.VerificationVerified,
		YearsExperience: 8,
		MonthlyCapacity: 20000,
		LeadTimeDays:    30,
	}
}

func complexRFQ() *rfq.ComplexRFQ {
	return &rfq.ComplexRFQ{
		Title: "Plant retooling",
		LineItems: []rfq.LineItem{
			{Name: "hydraulic press", Quantity: 2, Budget: common.Money{Amount: 40000, Currency: "USD"}},
			{Name: "conveyor belt", Quantity: 6, Budget: common.Money{Amount: 30000, Currency: "USD"}},
		},
		CandidateSupplierIDs: []common.ID{"sup-1", "sup-2"},
		TimelineDays:         60,
		Priority:             common.PriorityHigh,
	}
}

func newService(store *fakeStore, data market.DataService, analyses AnalysisStore, archive ReportArchive, events EventPublisher) *Service {
	dir := &fakeDirectory{suppliers: map[common.ID]*supplier.Supplier{
		"sup-1": candidateSupplier("sup-1"),
		"sup-2": candidateSupplier("sup-2"),
	}}
	analyzer := market.NewAnalyzer(data, time.Second, nil)
	risks := risk.NewAggregator(fakeHistories{}, 24*time.Hour, time.Second, nil)
	strategist := strategy.NewStrategist(50000, nil)
	return NewService(store, dir, analyzer, risks, strategist, analyses, archive, events, 4, nil)
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestAnalyzeComplexRFQEndToEnd(t *testing.T) {
	store := newFakeStore()
	analyses := newFakeAnalyses()
	events := &fakeEvents{}
	svc := newService(store, &fakeMarketData{}, analyses, nil, events)

	c := complexRFQ()
	analysis, err := svc.AnalyzeComplexRFQ(context.Background(), c)
	require.NoError(t, err)

	assert.NotEmpty(t, c.ID, "RFQ gets an ID on save")
	assert.Equal(t, c.ID, analysis.RFQID)
	assert.False(t, analysis.Degraded)

	// total budget 70000 > 50000 threshold
	require.NotEmpty(t, analysis.Suggestions)
	assert.Equal(t, strategy.RuleBulkDiscount, analysis.Suggestions[0].Rule)

	// both candidates have thin response history, so their risk crosses the
	// high-risk band and the guarantees rule fires with named factors
	assert.NotEmpty(t, analysis.SupplierRisk.Factors)
	rules := make([]string, 0, len(analysis.Suggestions))
	for _, s := range analysis.Suggestions {
		rules = append(rules, s.Rule)
	}
	assert.Contains(t, rules, strategy.RuleGuarantees)

	assert.Greater(t, analysis.SuccessProbability, 0.0)
	assert.LessOrEqual(t, analysis.SuccessProbability, 1.0)

	assert.Len(t, analyses.saved, 1)
	require.Len(t, events.analyzed, 1)
	assert.Equal(t, 2, events.analyzed[0].LineCount)
	assert.Equal(t, 2, events.analyzed[0].SupplierCount)
}

func TestAnalyzeDegradesOnMarketOutage(t *testing.T) {
	store := newFakeStore()
	data := &fakeMarketData{bandErr: errors.CollaboratorUnavailable("feed down")}
	svc := newService(store, data, nil, nil, nil)

	analysis, err := svc.AnalyzeComplexRFQ(context.Background(), complexRFQ())
	require.NoError(t, err, "collaborator outage must not fail the analysis")
	assert.True(t, analysis.Degraded)
}

func TestAnalyzeRejectsInvalidRFQ(t *testing.T) {
	svc := newService(newFakeStore(), &fakeMarketData{}, nil, nil, nil)
	c := complexRFQ()
	c.LineItems = nil
	_, err := svc.AnalyzeComplexRFQ(context.Background(), c)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeRFQInvalid))
}

func TestGenerateReportUsesStoredAnalysis(t *testing.T) {
	store := newFakeStore()
	analyses := newFakeAnalyses()
	archive := &fakeArchive{}
	svc := newService(store, &fakeMarketData{}, analyses, archive, nil)

	c := complexRFQ()
	_, err := svc.AnalyzeComplexRFQ(context.Background(), c)
	require.NoError(t, err)

	report, err := svc.GenerateNegotiationReport(context.Background(), c.ID)
	require.NoError(t, err)

	assert.Equal(t, c.ID, report.RFQID)
	assert.NotEmpty(t, report.ID)
	assert.Equal(t, report.Analysis.SuccessProbability, report.SuccessProbability)
	assert.NotEmpty(t, report.Recommendations)
	assert.NotEmpty(t, report.NextSteps)
	assert.Contains(t, report.NextSteps[0], "candidate suppliers")

	require.Len(t, archive.archived, 1)
	assert.Equal(t, report.ID, archive.archived[0].ID)
}

func TestGenerateReportRecomputesWhenNoStoredAnalysis(t *testing.T) {
	store := newFakeStore()
	c := complexRFQ()
	c.ID = "rfq-direct"
	store.rfqs[c.ID] = c

	svc := newService(store, &fakeMarketData{}, nil, nil, nil)
	report, err := svc.GenerateNegotiationReport(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, common.ID("rfq-direct"), report.RFQID)
	assert.NotZero(t, report.Analysis.SuccessProbability)
}

func TestGenerateReportUnknownRFQIsNotFound(t *testing.T) {
	svc := newService(newFakeStore(), &fakeMarketData{}, nil, nil, nil)
	_, err := svc.GenerateNegotiationReport(context.Background(), "rfq-missing")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err), "missing RFQ must surface as not-found, not be masked")
}

func TestArchiveFailureDoesNotFailReport(t *testing.T) {
	store := newFakeStore()
	c := complexRFQ()
	c.ID = "rfq-a"
	store.rfqs[c.ID] = c

	archive := &fakeArchive{err: errors.New(errors.ErrCodeStorageError, "bucket gone")}
	svc := newService(store, &fakeMarketData{}, nil, archive, nil)

	report, err := svc.GenerateNegotiationReport(context.Background(), c.ID)
	require.NoError(t, err)
	assert.NotNil(t, report)
}

func TestDegradedAnalysisAddsRerunNextStep(t *testing.T) {
	store := newFakeStore()
	c := complexRFQ()
	c.ID = "rfq-degraded"
	store.rfqs[c.ID] = c

	data := &fakeMarketData{bandErr: errors.Timeout("slow feed")}
	svc := newService(store, data, nil, nil, nil)

	report, err := svc.GenerateNegotiationReport(context.Background(), c.ID)
	require.NoError(t, err)

	var found bool
	for _, step := range report.NextSteps {
		if strings.Contains(step, "fallback values") {
			found = true
		}
	}
	assert.True(t, found, "degraded analyses must tell the buyer to re-run")
}
