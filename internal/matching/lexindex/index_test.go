package lexindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

func catalog() []*supplier.Supplier {
	return []*supplier.Supplier{
		{
			ID:         "sup-a",
			Name:       "Apex Steel Works",
			Categories: []string{"steel", "metal fabrication"},
			Location:   supplier.Location{City: "Pittsburgh", State: "PA", Country: "US"},
		},
		{
			ID:          "sup-b",
			Name:        "Borealis Polymers",
			Categories:  []string{"plastics"},
			Location:    supplier.Location{City: "Oslo", Country: "NO"},
			Description: "injection moulding and steel-reinforced composites",
		},
		{
			ID:         "sup-c",
			Name:       "Crown Logistics",
			Categories: []string{"freight"},
			Location:   supplier.Location{City: "Rotterdam", Country: "NL"},
		},
	}
}

func TestEmptyQueryReturnsNothing(t *testing.T) {
	idx := New(catalog(), DefaultFieldWeights)
	assert.Empty(t, idx.Search(""))
	assert.Empty(t, idx.Search("   "))
}

func TestNonMatchingSuppliersAreExcluded(t *testing.T) {
	idx := New(catalog(), DefaultFieldWeights)
	got := idx.Search("steel")

	require.Len(t, got, 2)
	for _, c := range got {
		assert.NotEqual(t, common.ID("sup-c"), c.Supplier.ID)
	}
}

func TestLowerRawScoreRanksFirst(t *testing.T) {
	idx := New(catalog(), DefaultFieldWeights)
	got := idx.Search("steel")

	// sup-a matches name (0.3) and categories (0.4): raw = 1 − 0.7 = 0.3.
	// sup-b matches description only (0.2): raw = 1 − 0.2 = 0.8.
	require.Len(t, got, 2)
	assert.Equal(t, common.ID("sup-a"), got[0].Supplier.ID)
	assert.InDelta(t, 0.3, got[0].RawScore, 1e-9)
	assert.Equal(t, common.ID("sup-b"), got[1].Supplier.ID)
	assert.InDelta(t, 0.8, got[1].RawScore, 1e-9)
}

func TestFieldWeightCountedOncePerField(t *testing.T) {
	s := &supplier.Supplier{
		ID:         "sup-x",
		Name:       "steel steel steel",
		Categories: []string{"steel"},
	}
	idx := New([]*supplier.Supplier{s}, DefaultFieldWeights)
	got := idx.Search("steel")

	require.Len(t, got, 1)
	// name 0.3 once + categories 0.4 once, despite three hits in the name.
	assert.InDelta(t, 1-0.7, got[0].RawScore, 1e-9)
}

func TestCaseInsensitiveMatching(t *testing.T) {
	idx := New(catalog(), DefaultFieldWeights)
	assert.Len(t, idx.Search("STEEL"), 2)
	assert.Len(t, idx.Search("rotterdam"), 1)
}

func TestTieBreakBySupplierID(t *testing.T) {
	suppliers := []*supplier.Supplier{
		{ID: "sup-z", Name: "Gamma Widgets", Categories: []string{"widgets"}},
		{ID: "sup-a", Name: "Delta Widgets", Categories: []string{"widgets"}},
	}
	idx := New(suppliers, DefaultFieldWeights)
	got := idx.Search("widgets")

	require.Len(t, got, 2)
	assert.Equal(t, got[0].RawScore, got[1].RawScore)
	assert.Equal(t, common.ID("sup-a"), got[0].Supplier.ID)
}

func TestSizeSkipsNilEntries(t *testing.T) {
	idx := New([]*supplier.Supplier{nil, {ID: "sup-a", Name: "A"}}, DefaultFieldWeights)
	assert.Equal(t, 1, idx.Size())
}
