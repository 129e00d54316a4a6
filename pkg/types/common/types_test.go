package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		amount   float64
		currency string
		wantErr  bool
	}{
		{name: "bare number", in: "1200", amount: 1200, currency: "USD"},
		{name: "dollar sign with separators", in: "$1,200.50", amount: 1200.50, currency: "USD"},
		{name: "trailing code", in: "1200 EUR", amount: 1200, currency: "EUR"},
		{name: "leading code", in: "GBP 99.99", amount: 99.99, currency: "GBP"},
		{name: "euro symbol", in: "€45", amount: 45, currency: "EUR"},
		{name: "empty", in: "", wantErr: true},
		{name: "no digits", in: "cheap", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.amount, got.Amount, 1e-9)
			assert.Equal(t, tt.currency, got.Currency)
		})
	}
}

func TestPriceBandSpread(t *testing.T) {
	b := PriceBand{Min: 80, Max: 120, Avg: 100}
	assert.InDelta(t, 0.4, b.Spread(), 1e-9)

	assert.Zero(t, PriceBand{}.Spread(), "degenerate band must not divide by zero")
}

func TestClamp01(t *testing.T) {
	assert.Equal(t, 0.0, Clamp01(-0.2))
	assert.Equal(t, 1.0, Clamp01(1.31))
	assert.Equal(t, 0.55, Clamp01(0.55))
}

func TestTierValidity(t *testing.T) {
	assert.True(t, UrgencyHigh.Valid())
	assert.False(t, UrgencyTier("urgent").Valid(), "urgent is a priority tier, not an urgency tier")
	assert.True(t, PriorityUrgent.Valid())
	assert.False(t, PriorityTier("critical").Valid())
}

func TestVerificationLevel(t *testing.T) {
	assert.False(t, VerificationBasic.IsVerified())
	assert.True(t, VerificationVerified.IsVerified())
	assert.True(t, VerificationPremium.IsVerified())

	assert.True(t, VerificationBasic.Valid())
	assert.True(t, VerificationVerified.Valid())
	assert.True(t, VerificationPremium.Valid())
	assert.False(t, VerificationLevel("platinum").Valid())
	assert.False(t, VerificationLevel("").Valid(), "blank is tolerated at validation, never a known level")
}

func TestGenerateID(t *testing.T) {
	a := GenerateID("rpt")
	b := GenerateID("rpt")
	assert.NotEqual(t, a, b)
	assert.Contains(t, string(a), "rpt-")
}
