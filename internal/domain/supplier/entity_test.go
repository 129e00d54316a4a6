package supplier

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

func validSupplier() *Supplier {
	return &Supplier{
		ID:              "sup-001",
		Name:            "Hangzhou Precision Metals",
		Categories:      []string{"steel", "aluminum"},
		Rating:          4.4,
		Location:        Location{City: "Hangzhou", State: "Zhejiang", Country: "CN"},
		PriceRange:      PriceRange{Min: 800, Max: 1500, Currency: "USD"},
		ComplianceScore: 92,
		OnTimeRate:      96,
		QualityScore:    4.1,
		FinancialRating: 3.9,
		Verification:    common.VerificationVerified,
		YearsExperience: 11,
		MonthlyCapacity: 50000,
		LeadTimeDays:    21,
	}
}

func TestValidateAcceptsWellFormedSupplier(t *testing.T) {
	require.NoError(t, validSupplier().Validate())
}

func TestValidateNamesOffendingField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Supplier)
		field  string
	}{
		{"missing id", func(s *Supplier) { s.ID = "" }, "id"},
		{"missing name", func(s *Supplier) { s.Name = "" }, "name"},
		{"no categories", func(s *Supplier) { s.Categories = nil }, "categories"},
		{"rating too high", func(s *Supplier) { s.Rating = 5.5 }, "rating"},
		{"negative rating", func(s *Supplier) { s.Rating = -1 }, "rating"},
		{"compliance over 100", func(s *Supplier) { s.ComplianceScore = 101 }, "compliance_score"},
		{"on-time over 100", func(s *Supplier) { s.OnTimeRate = 120 }, "on_time_rate"},
		{"quality out of range", func(s *Supplier) { s.QualityScore = 6 }, "quality_score"},
		{"bogus verification", func(s *Supplier) { s.Verification = "platinum" }, "verification"},
		{"negative capacity", func(s *Supplier) { s.MonthlyCapacity = -5 }, "monthly_capacity"},
		{"negative lead time", func(s *Supplier) { s.LeadTimeDays = -1 }, "lead_time_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSupplier()
			tt.mutate(s)
			err := s.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsValidation(err))
			assert.Equal(t, tt.field, errors.GetField(err))
		})
	}
}

func TestEmptyVerificationIsTolerated(t *testing.T) {
	s := validSupplier()
	s.Verification = ""
	assert.NoError(t, s.Validate())
}

func TestServesCategoryIsExact(t *testing.T) {
	s := validSupplier()
	assert.True(t, s.ServesCategory("steel"))
	assert.False(t, s.ServesCategory("stainless steel"))
	assert.False(t, s.ServesCategory("Steel"), "category matching is case-sensitive at the entity level")
}

func TestPriceRangeContains(t *testing.T) {
	r := PriceRange{Min: 800, Max: 1500}
	assert.True(t, r.Contains(800))
	assert.True(t, r.Contains(1500))
	assert.False(t, r.Contains(1501))
	assert.False(t, PriceRange{}.Contains(0), "unquoted supplier contains nothing")
}

func TestHistoryAvgResponseTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	h := History{
		SupplierID: "sup-001",
		Responses: []ResponseRecord{
			{RFQID: "rfq-1", CreatedAt: base, RespondedAt: base.Add(2 * time.Hour)},
			{RFQID: "rfq-2", CreatedAt: base, RespondedAt: base.Add(6 * time.Hour)},
			{RFQID: "rfq-3", CreatedAt: base}, // never answered
		},
	}

	avg, ok := h.AvgResponseTime()
	require.True(t, ok)
	assert.Equal(t, 4*time.Hour, avg, "unanswered invitations are excluded from the mean")

	_, ok = History{}.AvgResponseTime()
	assert.False(t, ok)
}
