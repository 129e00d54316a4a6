// Package supplier defines the supplier aggregate and the directory contract
// the matching and analysis engines consume.  Entities here are plain data
// with boundary validation; no scoring logic lives in this package.
package supplier

import (
	"fmt"
	"time"

	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// Location is a supplier's primary place of business.
type Location struct {
	City    string `json:"city"`
	State   string `json:"state"`
	Country string `json:"country"`

	// Coordinates are optional; zero values mean "unknown".
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
}

// PriceRange is the band a supplier typically quotes in, per unit.
type PriceRange struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Currency string  `json:"currency"`
}

// Contains reports whether amount falls inside the range.  A zero-valued
// range (unquoted supplier) contains nothing.
func (r PriceRange) Contains(amount float64) bool {
	if r.Min == 0 && r.Max == 0 {
		return false
	}
	return amount >= r.Min && amount <= r.Max
}

// Supplier is the directory record the engine matches and assesses.
type Supplier struct {
	ID          common.ID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`

	// Categories lists the product categories the supplier serves.
	Categories []string `json:"categories"`

	// Rating is the aggregate buyer rating, 0–5.
	Rating float64 `json:"rating"`

	Location   Location   `json:"location"`
	PriceRange PriceRange `json:"price_range"`

	// ComplianceScore is the certification/compliance score, 0–100.
	ComplianceScore float64 `json:"compliance_score"`

	// OnTimeRate is the historical on-time delivery percentage, 0–100.
	OnTimeRate float64 `json:"on_time_rate"`

	// QualityScore is the inspected-quality score, 0–5.
	QualityScore float64 `json:"quality_score"`

	// FinancialRating is the financial-stability rating, 0–5.
	FinancialRating float64 `json:"financial_rating"`

	Verification common.VerificationLevel `json:"verification"`

	YearsExperience int `json:"years_experience"`

	// MonthlyCapacity is the order volume the supplier can absorb per month,
	// in the same currency units as budgets.
	MonthlyCapacity float64 `json:"monthly_capacity"`

	// LeadTimeDays is the quoted production lead time.
	LeadTimeDays int `json:"lead_time_days"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the invariants every directory record must satisfy before
// it is scored.  It returns a validation error naming the first offending
// field; a malformed supplier is reported and skipped, never scored.
func (s *Supplier) Validate() error {
	if s.ID == "" {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "id", "required")
	}
	if s.Name == "" {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "name", "required")
	}
	if len(s.Categories) == 0 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "categories", "at least one category is required")
	}
	if s.Rating < 0 || s.Rating > 5 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "rating",
			fmt.Sprintf("must be in [0, 5], got %g", s.Rating))
	}
	if s.ComplianceScore < 0 || s.ComplianceScore > 100 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "compliance_score",
			fmt.Sprintf("must be in [0, 100], got %g", s.ComplianceScore))
	}
	if s.OnTimeRate < 0 || s.OnTimeRate > 100 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "on_time_rate",
			fmt.Sprintf("must be in [0, 100], got %g", s.OnTimeRate))
	}
	if s.QualityScore < 0 || s.QualityScore > 5 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "quality_score",
			fmt.Sprintf("must be in [0, 5], got %g", s.QualityScore))
	}
	if s.FinancialRating < 0 || s.FinancialRating > 5 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "financial_rating",
			fmt.Sprintf("must be in [0, 5], got %g", s.FinancialRating))
	}
	if s.Verification != "" && !s.Verification.Valid() {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "verification",
			fmt.Sprintf("unknown level %q", s.Verification))
	}
	if s.YearsExperience < 0 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "years_experience", "must not be negative")
	}
	if s.MonthlyCapacity < 0 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "monthly_capacity", "must not be negative")
	}
	if s.LeadTimeDays < 0 {
		return errors.ValidationWithCode(errors.ErrCodeSupplierInvalid, "lead_time_days", "must not be negative")
	}
	return nil
}

// ServesCategory reports whether the supplier lists category exactly.
func (s *Supplier) ServesCategory(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ResponseRecord is one RFQ the supplier was invited to, with the time it
// took them to respond.  RespondedAt is zero when the supplier never replied.
type ResponseRecord struct {
	RFQID       common.ID `json:"rfq_id"`
	CreatedAt   time.Time `json:"created_at"`
	RespondedAt time.Time `json:"responded_at,omitempty"`
}

// Responded reports whether the supplier replied at all.
func (r ResponseRecord) Responded() bool {
	return !r.RespondedAt.IsZero()
}

// ResponseTime returns how long the reply took; zero when unanswered.
func (r ResponseRecord) ResponseTime() time.Duration {
	if !r.Responded() {
		return 0
	}
	return r.RespondedAt.Sub(r.CreatedAt)
}

// History is the behavioural track record used by the risk aggregator.
type History struct {
	SupplierID common.ID `json:"supplier_id"`

	Responses []ResponseRecord `json:"responses"`

	// TransactionCount is the number of completed orders on the platform.
	TransactionCount int `json:"transaction_count"`

	// Verified mirrors the directory verification at assessment time.
	Verified bool `json:"verified"`
}

// AvgResponseTime returns the mean response time over answered invitations,
// and false when there is none to average.
func (h History) AvgResponseTime() (time.Duration, bool) {
	var total time.Duration
	var n int
	for _, r := range h.Responses {
		if r.Responded() {
			total += r.ResponseTime()
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return total / time.Duration(n), true
}
