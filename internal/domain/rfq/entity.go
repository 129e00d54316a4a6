// Package rfq defines the request-for-quotation aggregates: the single-item
// Requirement the matching engine ranks suppliers against, and the
// multi-item ComplexRFQ the negotiation pipeline analyses.
package rfq

import (
	"fmt"
	"time"

	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// DeliveryLocation is where the buyer needs goods delivered.  Any field may
// be empty; matching degrades gracefully on unspecified locations.
type DeliveryLocation struct {
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Country string `json:"country,omitempty"`
}

// Unspecified reports whether the buyer gave no location at all.
func (l DeliveryLocation) Unspecified() bool {
	return l.City == "" && l.State == "" && l.Country == ""
}

// Requirement is a single-item RFQ.  Budgets arrive as free-form price
// strings on the wire and are parsed exactly once at the transport boundary;
// inside the engine the budget is always a typed Money value.
type Requirement struct {
	ID          common.ID `json:"id"`
	BuyerID     common.ID `json:"buyer_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Quantity    int       `json:"quantity"`

	Budget common.Money `json:"budget"`

	// Deadline is when the buyer needs delivery.
	Deadline time.Time `json:"deadline"`

	// DeliveryWindowDays is the number of days between order placement and
	// Deadline, fixed at creation so scoring stays a pure function.
	DeliveryWindowDays int `json:"delivery_window_days"`

	DeliveryLocation DeliveryLocation  `json:"delivery_location"`
	Urgency          common.UrgencyTier `json:"urgency"`

	CreatedAt time.Time `json:"created_at"`
}

// Validate checks the invariants a requirement must satisfy before any
// supplier is scored against it.  Returns a validation error naming the
// first offending field.
func (r *Requirement) Validate() error {
	if r.Title == "" {
		return errors.ValidationWithCode(errors.ErrCodeRequirementInvalid, "title", "required")
	}
	if r.Category == "" {
		return errors.ValidationWithCode(errors.ErrCodeRequirementInvalid, "category", "required")
	}
	if r.Quantity <= 0 {
		return errors.ValidationWithCode(errors.ErrCodeRequirementInvalid, "quantity",
			fmt.Sprintf("must be positive, got %d", r.Quantity))
	}
	if r.Budget.Amount <= 0 {
		return errors.ValidationWithCode(errors.ErrCodeRequirementInvalid, "budget", "must be a positive amount")
	}
	if !r.Urgency.Valid() {
		return errors.ValidationWithCode(errors.ErrCodeRequirementInvalid, "urgency",
			fmt.Sprintf("unknown tier %q", r.Urgency))
	}
	if r.DeliveryWindowDays <= 0 {
		return errors.ValidationWithCode(errors.ErrCodeRequirementInvalid, "delivery_window_days",
			fmt.Sprintf("must be positive, got %d", r.DeliveryWindowDays))
	}
	return nil
}

// LineItem is one purchasable line of a multi-item RFQ.
type LineItem struct {
	Name     string            `json:"name"`
	Quantity int               `json:"quantity"`
	Specs    map[string]string `json:"specs,omitempty"`

	// Budget is the buyer's total budget for this line.
	Budget common.Money `json:"budget"`
}

// ComplexRFQ is a multi-item RFQ that goes through market and risk analysis
// before negotiation.
type ComplexRFQ struct {
	ID      common.ID `json:"id"`
	BuyerID common.ID `json:"buyer_id"`
	Title   string    `json:"title"`

	LineItems []LineItem `json:"line_items"`

	// CandidateSupplierIDs lists the suppliers under consideration; risk is
	// assessed for each.
	CandidateSupplierIDs []common.ID `json:"candidate_supplier_ids"`

	// TimelineDays is the buyer's overall sourcing timeline.
	TimelineDays int `json:"timeline_days"`

	DeliveryLocation DeliveryLocation    `json:"delivery_location"`
	Priority         common.PriorityTier `json:"priority"`

	CreatedAt time.Time `json:"created_at"`
}

// TotalBudget sums the line budgets.  Currencies are assumed uniform; the
// first non-empty line currency labels the total.
func (c *ComplexRFQ) TotalBudget() common.Money {
	total := common.Money{}
	for _, li := range c.LineItems {
		total.Amount += li.Budget.Amount
		if total.Currency == "" {
			total.Currency = li.Budget.Currency
		}
	}
	return total
}

// Validate checks the invariants a complex RFQ must satisfy before analysis.
func (c *ComplexRFQ) Validate() error {
	if c.Title == "" {
		return errors.ValidationWithCode(errors.ErrCodeRFQInvalid, "title", "required")
	}
	if len(c.LineItems) == 0 {
		return errors.ValidationWithCode(errors.ErrCodeRFQInvalid, "line_items", "at least one line item is required")
	}
	for i, li := range c.LineItems {
		if li.Name == "" {
			return errors.ValidationWithCode(errors.ErrCodeRFQInvalid,
				fmt.Sprintf("line_items[%d].name", i), "required")
		}
		if li.Quantity <= 0 {
			return errors.ValidationWithCode(errors.ErrCodeRFQInvalid,
				fmt.Sprintf("line_items[%d].quantity", i),
				fmt.Sprintf("must be positive, got %d", li.Quantity))
		}
		if li.Budget.Amount <= 0 {
			return errors.ValidationWithCode(errors.ErrCodeRFQInvalid,
				fmt.Sprintf("line_items[%d].budget", i), "must be a positive amount")
		}
	}
	if len(c.CandidateSupplierIDs) == 0 {
		return errors.ValidationWithCode(errors.ErrCodeRFQInvalid, "candidate_supplier_ids",
			"at least one candidate supplier is required")
	}
	if !c.Priority.Valid() {
		return errors.ValidationWithCode(errors.ErrCodeRFQInvalid, "priority",
			fmt.Sprintf("unknown tier %q", c.Priority))
	}
	if c.TimelineDays <= 0 {
		return errors.ValidationWithCode(errors.ErrCodeRFQInvalid, "timeline_days",
			fmt.Sprintf("must be positive, got %d", c.TimelineDays))
	}
	return nil
}
