package rfq

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

func validRequirement() *Requirement {
	return &Requirement{
		ID:                 "req-001",
		BuyerID:            "buyer-9",
		Title:              "Cold-rolled steel coils",
		Category:           "steel",
		Quantity:           500,
		Budget:             common.Money{Amount: 120000, Currency: "USD"},
		Deadline:           time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC),
		DeliveryWindowDays: 45,
		DeliveryLocation:   DeliveryLocation{City: "Rotterdam", Country: "NL"},
		Urgency:            common.UrgencyMedium,
	}
}

func validComplexRFQ() *ComplexRFQ {
	return &ComplexRFQ{
		ID:    "rfq-100",
		Title: "Q4 plant retooling",
		LineItems: []LineItem{
			{Name: "hydraulic press", Quantity: 2, Budget: common.Money{Amount: 80000, Currency: "USD"}},
			{Name: "conveyor belts", Quantity: 12, Budget: common.Money{Amount: 24000, Currency: "USD"},
				Specs: map[string]string{"width_mm": "600"}},
		},
		CandidateSupplierIDs: []common.ID{"sup-001", "sup-002"},
		TimelineDays:         90,
		Priority:             common.PriorityHigh,
	}
}

func TestRequirementValidate(t *testing.T) {
	require.NoError(t, validRequirement().Validate())

	tests := []struct {
		name   string
		mutate func(*Requirement)
		field  string
	}{
		{"missing title", func(r *Requirement) { r.Title = "" }, "title"},
		{"missing category", func(r *Requirement) { r.Category = "" }, "category"},
		{"zero quantity", func(r *Requirement) { r.Quantity = 0 }, "quantity"},
		{"zero budget", func(r *Requirement) { r.Budget = common.Money{} }, "budget"},
		{"unknown urgency", func(r *Requirement) { r.Urgency = "asap" }, "urgency"},
		{"empty urgency is not defaulted", func(r *Requirement) { r.Urgency = "" }, "urgency"},
		{"zero window", func(r *Requirement) { r.DeliveryWindowDays = 0 }, "delivery_window_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := validRequirement()
			tt.mutate(r)
			err := r.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeRequirementInvalid))
			assert.Equal(t, tt.field, errors.GetField(err))
		})
	}
}

func TestComplexRFQValidate(t *testing.T) {
	require.NoError(t, validComplexRFQ().Validate())

	tests := []struct {
		name   string
		mutate func(*ComplexRFQ)
		field  string
	}{
		{"no line items", func(c *ComplexRFQ) { c.LineItems = nil }, "line_items"},
		{"unnamed line", func(c *ComplexRFQ) { c.LineItems[1].Name = "" }, "line_items[1].name"},
		{"zero line quantity", func(c *ComplexRFQ) { c.LineItems[0].Quantity = 0 }, "line_items[0].quantity"},
		{"zero line budget", func(c *ComplexRFQ) { c.LineItems[0].Budget.Amount = 0 }, "line_items[0].budget"},
		{"no candidates", func(c *ComplexRFQ) { c.CandidateSupplierIDs = nil }, "candidate_supplier_ids"},
		{"bad priority", func(c *ComplexRFQ) { c.Priority = "critical" }, "priority"},
		{"zero timeline", func(c *ComplexRFQ) { c.TimelineDays = 0 }, "timeline_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validComplexRFQ()
			tt.mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrCodeRFQInvalid))
			assert.Equal(t, tt.field, errors.GetField(err))
		})
	}
}

func TestUrgentIsRFQLevelOnly(t *testing.T) {
	c := validComplexRFQ()
	c.Priority = common.PriorityUrgent
	assert.NoError(t, c.Validate())

	r := validRequirement()
	r.Urgency = common.UrgencyTier("urgent")
	assert.Error(t, r.Validate())
}

func TestTotalBudget(t *testing.T) {
	c := validComplexRFQ()
	total := c.TotalBudget()
	assert.InDelta(t, 104000, total.Amount, 1e-9)
	assert.Equal(t, "USD", total.Currency)
}

func TestUnspecifiedLocation(t *testing.T) {
	assert.True(t, DeliveryLocation{}.Unspecified())
	assert.False(t, DeliveryLocation{Country: "DE"}.Unspecified())
}
