package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

func newScorer() *Scorer {
	return NewScorer(config.MatchingConfig{
		Weights:               config.DefaultFactorWeights,
		CapacityBudgetDivisor: 100,
	})
}

func steelRequirement() *rfq.Requirement {
	return &rfq.Requirement{
		ID:                 "req-1",
		Title:              "Structural steel beams",
		Category:           "Steel",
		Quantity:           200,
		Budget:             common.Money{Amount: 1000, Currency: "USD"},
		DeliveryWindowDays: 30,
		DeliveryLocation:   rfq.DeliveryLocation{City: "Pittsburgh", State: "PA", Country: "US"},
		Urgency:            common.UrgencyMedium,
	}
}

func steelSupplier() *supplier.Supplier {
	return &supplier.Supplier{
		ID:              "sup-1",
		Name:            "Apex Steel Works",
		Categories:      []string{"Steel"},
		Rating:          5,
		Location:        supplier.Location{City: "Pittsburgh", State: "PA", Country: "US"},
		PriceRange:      supplier.PriceRange{Min: 500, Max: 2000, Currency: "USD"},
		ComplianceScore: 100,
		OnTimeRate:      100,
		QualityScore:    5,
		FinancialRating: 5,
		Verification:    common.VerificationPremium,
		YearsExperience: 20,
		MonthlyCapacity: 100000,
		LeadTimeDays:    14,
	}
}

func TestPerfectSupplierScoresExactlyOneHundred(t *testing.T) {
	scores, err := newScorer().Score(steelRequirement(), steelSupplier())
	require.NoError(t, err)

	assert.InDelta(t, 100, scores.Total(), 1e-9)
	assert.Equal(t, 25.0, scores.Category)
	assert.Equal(t, 20.0, scores.Budget)
	assert.Equal(t, 15.0, scores.Rating)
	assert.Equal(t, 10.0, scores.Location)
}

func TestCategorySubstringEarnsSixtyPercent(t *testing.T) {
	sup := steelSupplier()
	sup.Categories = []string{"Industrial Steel Products"}

	scores, err := newScorer().Score(steelRequirement(), sup)
	require.NoError(t, err)
	assert.InDelta(t, 15, scores.Category, 1e-9, "substring match is 60%% of the 25-point weight")
}

func TestCategoryMismatchEarnsNearZeroNotZero(t *testing.T) {
	sup := steelSupplier()
	sup.Categories = []string{"textiles"}

	scores, err := newScorer().Score(steelRequirement(), sup)
	require.NoError(t, err)
	assert.Greater(t, scores.Category, 0.0)
	assert.InDelta(t, 2.5, scores.Category, 1e-9)
}

func TestBudgetTiers(t *testing.T) {
	tests := []struct {
		name   string
		budget float64
		want   float64
	}{
		{"inside range", 1000, 20},
		{"at range min", 500, 20},
		{"at range max", 2000, 20},
		{"upper part of range still full weight", 1600, 20},
		{"way below a wide range", 100, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := steelRequirement()
			req.Budget.Amount = tt.budget
			scores, err := newScorer().Score(req, steelSupplier())
			require.NoError(t, err)
			assert.InDelta(t, tt.want, scores.Budget, 1e-9)
		})
	}
}

func TestBudgetDecayBelowNarrowRange(t *testing.T) {
	sup := steelSupplier()
	sup.PriceRange = supplier.PriceRange{Min: 1800, Max: 2000, Currency: "USD"}

	req := steelRequirement()
	req.Budget.Amount = 1650 // ≥ 0.8 × 2000, below the range
	scores, err := newScorer().Score(req, sup)
	require.NoError(t, err)
	assert.InDelta(t, 15, scores.Budget, 1e-9)

	req.Budget.Amount = 1300 // ≥ 0.6 × 2000
	scores, err = newScorer().Score(req, sup)
	require.NoError(t, err)
	assert.InDelta(t, 10, scores.Budget, 1e-9)
}

func TestLocationProximityTiers(t *testing.T) {
	tests := []struct {
		name string
		loc  supplier.Location
		want float64
	}{
		{"same city", supplier.Location{City: "Pittsburgh", State: "PA", Country: "US"}, 10},
		{"same state only", supplier.Location{City: "Erie", State: "PA", Country: "US"}, 7},
		{"same country only", supplier.Location{City: "Austin", State: "TX", Country: "US"}, 5},
		{"different country", supplier.Location{City: "Lyon", Country: "FR"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sup := steelSupplier()
			sup.Location = tt.loc
			scores, err := newScorer().Score(steelRequirement(), sup)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, scores.Location, 1e-9)
		})
	}
}

func TestUnspecifiedLocationIsNeutral(t *testing.T) {
	req := steelRequirement()
	req.DeliveryLocation = rfq.DeliveryLocation{}
	scores, err := newScorer().Score(req, steelSupplier())
	require.NoError(t, err)
	assert.InDelta(t, 5, scores.Location, 1e-9, "no location means half credit, not zero")
}

func TestCapacityIsBinary(t *testing.T) {
	sup := steelSupplier()
	sup.MonthlyCapacity = 9 // required = 1000 / 100 = 10
	scores, err := newScorer().Score(steelRequirement(), sup)
	require.NoError(t, err)
	assert.Zero(t, scores.Capacity)

	sup.MonthlyCapacity = 10
	scores, err = newScorer().Score(steelRequirement(), sup)
	require.NoError(t, err)
	assert.Equal(t, 3.0, scores.Capacity)
}

func TestLeadTimeTiers(t *testing.T) {
	tests := []struct {
		leadDays int
		want     float64
	}{
		{30, 2},  // within the 30-day window
		{45, 1},  // ≤ 1.5× window
		{46, 0},  // beyond
	}
	for _, tt := range tests {
		sup := steelSupplier()
		sup.LeadTimeDays = tt.leadDays
		scores, err := newScorer().Score(steelRequirement(), sup)
		require.NoError(t, err)
		assert.InDelta(t, tt.want, scores.LeadTime, 1e-9, "lead %d days", tt.leadDays)
	}
}

func TestMalformedEntitiesFailWithValidationError(t *testing.T) {
	req := steelRequirement()
	req.Category = ""
	_, err := newScorer().Score(req, steelSupplier())
	require.Error(t, err)
	assert.Equal(t, "category", errors.GetField(err))

	sup := steelSupplier()
	sup.Rating = 7
	_, err = newScorer().Score(steelRequirement(), sup)
	require.Error(t, err)
	assert.Equal(t, "rating", errors.GetField(err))
}

func TestScoreIsDeterministic(t *testing.T) {
	a, err := newScorer().Score(steelRequirement(), steelSupplier())
	require.NoError(t, err)
	b, err := newScorer().Score(steelRequirement(), steelSupplier())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestBreakdownSumsToTotal(t *testing.T) {
	scores, err := newScorer().Score(steelRequirement(), steelSupplier())
	require.NoError(t, err)

	var sum float64
	for _, v := range scores.Breakdown() {
		sum += v
	}
	assert.InDelta(t, scores.Total(), sum, 1e-9)
}
