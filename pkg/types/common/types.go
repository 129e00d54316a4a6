// Package common holds the shared scalar and value types used across every
// layer of the sourcing-intelligence platform.  It must not import any other
// platform package.
package common

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID is a string alias for UUID v4.
type ID string

// GenerateID returns a fresh ID.  When prefix is non-empty it is prepended
// with a dash so related entities are recognisable in logs.
func GenerateID(prefix string) ID {
	id := uuid.NewString()
	if prefix == "" {
		return ID(id)
	}
	return ID(prefix + "-" + id)
}

// UrgencyTier classifies how quickly a buyer needs quotes for a single
// requirement.
type UrgencyTier string

const (
	UrgencyLow    UrgencyTier = "low"
	UrgencyMedium UrgencyTier = "medium"
	UrgencyHigh   UrgencyTier = "high"
)

// Valid reports whether u is one of the known urgency tiers.
func (u UrgencyTier) Valid() bool {
	switch u {
	case UrgencyLow, UrgencyMedium, UrgencyHigh:
		return true
	}
	return false
}

// PriorityTier classifies a multi-item RFQ.  It is a superset of UrgencyTier:
// "urgent" exists only at the RFQ level and triggers delivery-premium
// negotiation suggestions.
type PriorityTier string

const (
	PriorityLow    PriorityTier = "low"
	PriorityMedium PriorityTier = "medium"
	PriorityHigh   PriorityTier = "high"
	PriorityUrgent PriorityTier = "urgent"
)

// Valid reports whether p is one of the known priority tiers.
func (p PriorityTier) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// VerificationLevel is the supplier-directory trust level of a supplier.
type VerificationLevel string

const (
	VerificationBasic    VerificationLevel = "basic"
	VerificationVerified VerificationLevel = "verified"
	VerificationPremium  VerificationLevel = "premium"
)

// Valid reports whether v is one of the known verification levels.
func (v VerificationLevel) Valid() bool {
	switch v {
	case VerificationBasic, VerificationVerified, VerificationPremium:
		return true
	}
	return false
}

// IsVerified reports whether the level implies a completed verification.
func (v VerificationLevel) IsVerified() bool {
	return v == VerificationVerified || v == VerificationPremium
}

// Pagination defines parameters for paginated requests.
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Total    int64 `json:"total,omitempty"`
}

// DateRange defines a time interval.
type DateRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Money — price values carried as amount + currency
// ─────────────────────────────────────────────────────────────────────────────

// Money is a decimal amount in a named currency.  Amounts are float64 because
// this subsystem only scores and compares prices; it never books them.
type Money struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// ParsePrice parses a free-form price string as entered by buyers, e.g.
// "1200", "$1,200.50", "1200 USD", "USD 1200".  The currency defaults to
// "USD" when the string carries no recognisable currency token.
func ParsePrice(s string) (Money, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Money{}, fmt.Errorf("price string is empty")
	}

	currency := "USD"
	var numeric strings.Builder
	var letters strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9', r == '.':
			numeric.WriteRune(r)
		case r == ',', r == ' ':
			// thousands separators and spacing are ignored
		case r == '$':
			currency = "USD"
		case r == '€':
			currency = "EUR"
		case r == '£':
			currency = "GBP"
		case r == '¥':
			currency = "CNY"
		default:
			letters.WriteRune(r)
		}
	}
	if code := strings.ToUpper(strings.TrimSpace(letters.String())); len(code) == 3 {
		currency = code
	}

	amount, err := strconv.ParseFloat(numeric.String(), 64)
	if err != nil {
		return Money{}, fmt.Errorf("price %q has no parseable amount", s)
	}
	if amount < 0 {
		return Money{}, fmt.Errorf("price %q is negative", s)
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// String renders the money value for diagnostics.
func (m Money) String() string {
	return fmt.Sprintf("%.2f %s", m.Amount, m.Currency)
}

// PriceBand is a min/max/avg price summary.
type PriceBand struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	Avg      float64 `json:"avg"`
	Currency string  `json:"currency,omitempty"`

	// Fallback marks a band substituted by a documented default because the
	// market-data collaborator was unavailable.
	Fallback bool `json:"fallback,omitempty"`
}

// Spread returns the relative width of the band, (max−min)/avg.  A zero avg
// yields 0 so degenerate bands never produce infinities.
func (b PriceBand) Spread() float64 {
	if b.Avg == 0 {
		return 0
	}
	return (b.Max - b.Min) / b.Avg
}

// DemandTrend is the direction of forecast demand for a product line.
type DemandTrend string

const (
	TrendUp     DemandTrend = "up"
	TrendDown   DemandTrend = "down"
	TrendStable DemandTrend = "stable"
)

// Clamp01 bounds v to [0, 1].
func Clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
