package ranking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/matching/scoring"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

func newRanker() *Ranker {
	scorer := scoring.NewScorer(config.MatchingConfig{
		Weights:               config.DefaultFactorWeights,
		CapacityBudgetDivisor: 100,
	})
	return NewRanker(scorer, 4, nil)
}

func requirement() *rfq.Requirement {
	return &rfq.Requirement{
		ID:                 "req-1",
		Title:              "Structural steel beams",
		Category:           "steel",
		Quantity:           200,
		Budget:             common.Money{Amount: 1000, Currency: "USD"},
		DeliveryWindowDays: 30,
		DeliveryLocation:   rfq.DeliveryLocation{City: "Pittsburgh", State: "PA", Country: "US"},
		Urgency:            common.UrgencyMedium,
	}
}

func perfectSupplier(id common.ID) *supplier.Supplier {
	return &supplier.Supplier{
		ID:              id,
		Name:            "Supplier " + string(id),
		Categories:      []string{"steel"},
		Rating:          5,
		Location:        supplier.Location{City: "Pittsburgh", State: "PA", Country: "US"},
		PriceRange:      supplier.PriceRange{Min: 500, Max: 2000, Currency: "USD"},
		ComplianceScore: 100,
		OnTimeRate:      100,
		QualityScore:    5,
		FinancialRating: 5,
		Verification:    common.VerificationPremium,
		YearsExperience: 15,
		MonthlyCapacity: 100000,
		LeadTimeDays:    14,
	}
}

func TestTierDecisionTable(t *testing.T) {
	tests := []struct {
		score    float64
		concerns int
		want     Tier
	}{
		{92, 0, TierHighlyRecommended},
		{85, 1, TierHighlyRecommended},
		{85, 2, TierRecommended},
		{70, 2, TierRecommended},
		{70, 3, TierConsider},
		{92, 3, TierConsider},
		{50, 9, TierConsider},
		{49.9, 0, TierNotSuitable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TierFor(tt.score, tt.concerns),
			"score=%g concerns=%d", tt.score, tt.concerns)
	}
}

func TestPerfectSupplierIsHighlyRecommended(t *testing.T) {
	results, skips, err := newRanker().Rank(context.Background(), requirement(),
		[]*supplier.Supplier{perfectSupplier("sup-1")})
	require.NoError(t, err)
	require.Empty(t, skips)
	require.Len(t, results, 1)

	r := results[0]
	assert.InDelta(t, 100, r.TotalScore, 1e-9)
	assert.Equal(t, TierHighlyRecommended, r.Tier)
	assert.Empty(t, r.Concerns)
	assert.NotEmpty(t, r.Reasons)
}

func TestDescendingOrderWithStableTieBreak(t *testing.T) {
	weaker := perfectSupplier("sup-weak")
	weaker.Rating = 3.5
	weaker.OnTimeRate = 85

	// two identical suppliers with different IDs tie on score
	twinB := perfectSupplier("sup-b")
	twinA := perfectSupplier("sup-a")

	results, _, err := newRanker().Rank(context.Background(), requirement(),
		[]*supplier.Supplier{weaker, twinB, twinA})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, common.ID("sup-a"), results[0].Supplier.ID)
	assert.Equal(t, common.ID("sup-b"), results[1].Supplier.ID)
	assert.Equal(t, common.ID("sup-weak"), results[2].Supplier.ID)
}

func TestOrderIndependence(t *testing.T) {
	a := perfectSupplier("sup-a")
	b := perfectSupplier("sup-b")
	b.Rating = 4.0

	forward, _, err := newRanker().Rank(context.Background(), requirement(), []*supplier.Supplier{a, b})
	require.NoError(t, err)
	backward, _, err := newRanker().Rank(context.Background(), requirement(), []*supplier.Supplier{b, a})
	require.NoError(t, err)

	require.Len(t, forward, 2)
	require.Len(t, backward, 2)
	for i := range forward {
		assert.Equal(t, forward[i].Supplier.ID, backward[i].Supplier.ID)
		assert.Equal(t, forward[i].TotalScore, backward[i].TotalScore)
		assert.Equal(t, forward[i].Tier, backward[i].Tier)
	}
}

func TestMalformedSupplierIsSkippedNotFatal(t *testing.T) {
	bad := perfectSupplier("sup-bad")
	bad.Rating = 9

	results, skips, err := newRanker().Rank(context.Background(), requirement(),
		[]*supplier.Supplier{perfectSupplier("sup-good"), bad, nil})
	require.NoError(t, err)

	require.Len(t, results, 1)
	assert.Equal(t, common.ID("sup-good"), results[0].Supplier.ID)

	require.Len(t, skips, 2)
	assert.Equal(t, common.ID("sup-bad"), skips[0].SupplierID)
	assert.Contains(t, skips[0].Reason, "rating")
}

func TestEmptySupplierListYieldsEmptyResults(t *testing.T) {
	results, skips, err := newRanker().Rank(context.Background(), requirement(), nil)
	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results)
	assert.Empty(t, skips)
}

func TestMalformedRequirementFailsWholeCall(t *testing.T) {
	req := requirement()
	req.Quantity = 0
	_, _, err := newRanker().Rank(context.Background(), req,
		[]*supplier.Supplier{perfectSupplier("sup-1")})
	require.Error(t, err)
}

func TestCancelledContextAborts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := newRanker().Rank(ctx, requirement(),
		[]*supplier.Supplier{perfectSupplier("sup-1")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestScoreBoundsAndTierConsistency(t *testing.T) {
	suppliers := []*supplier.Supplier{
		perfectSupplier("sup-1"),
		func() *supplier.Supplier {
			s := perfectSupplier("sup-2")
			s.Categories = []string{"textiles"}
			s.Rating = 2.1
			s.OnTimeRate = 60
			s.Verification = common.VerificationBasic
			return s
		}(),
		func() *supplier.Supplier {
			s := perfectSupplier("sup-3")
			s.PriceRange = supplier.PriceRange{Min: 5000, Max: 9000, Currency: "USD"}
			s.LeadTimeDays = 90
			return s
		}(),
	}

	results, _, err := newRanker().Rank(context.Background(), requirement(), suppliers)
	require.NoError(t, err)

	for _, r := range results {
		assert.GreaterOrEqual(t, r.TotalScore, 0.0)
		assert.LessOrEqual(t, r.TotalScore, 100.0)
		assert.Equal(t, TierFor(r.TotalScore, len(r.Concerns)), r.Tier)
		assert.GreaterOrEqual(t, r.Confidence, 0.0)
		assert.LessOrEqual(t, r.Confidence, 1.0)

		var sum float64
		for _, v := range r.Breakdown.Breakdown() {
			sum += v
		}
		assert.InDelta(t, r.TotalScore, sum, 1e-9)
	}
}

func TestConcernsDriveTierDown(t *testing.T) {
	s := perfectSupplier("sup-risky")
	s.Rating = 2.5 // low-rating concern, drops the rating factor
	s.Verification = common.VerificationBasic

	results, _, err := newRanker().Rank(context.Background(), requirement(), []*supplier.Supplier{s})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	assert.GreaterOrEqual(t, len(r.Concerns), 2)
	assert.NotEqual(t, TierHighlyRecommended, r.Tier)
}
