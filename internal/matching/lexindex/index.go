// Package lexindex implements an in-memory weighted substring index over
// supplier text fields.  It narrows large candidate sets before full factor
// scoring.  The index is immutable after construction; rebuild it when the
// catalog changes.
package lexindex

import (
	"sort"
	"strings"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
)

// FieldWeights assigns a relevance weight to each searchable supplier field.
// A field contributes its full weight at most once per query, regardless of
// repeated substring hits inside the field.
type FieldWeights struct {
	Name        float64
	Categories  float64
	Location    float64
	Description float64
}

// DefaultFieldWeights is the standard retrieval policy.
var DefaultFieldWeights = FieldWeights{
	Name:        0.3,
	Categories:  0.4,
	Location:    0.1,
	Description: 0.2,
}

// Candidate pairs a supplier with its raw retrieval score.  Raw score is
// 1 − Σ(matched field weights): lower means a better lexical match.
type Candidate struct {
	Supplier *supplier.Supplier
	RawScore float64
}

// document holds the pre-lowered field texts for one supplier.
type document struct {
	sup        *supplier.Supplier
	name       string
	categories string
	location   string
	descr      string
}

// Index is a weighted multi-field substring index.
type Index struct {
	weights FieldWeights
	docs    []document
}

// New builds an index over the given suppliers with the given field weights.
func New(suppliers []*supplier.Supplier, weights FieldWeights) *Index {
	docs := make([]document, 0, len(suppliers))
	for _, s := range suppliers {
		if s == nil {
			continue
		}
		loc := strings.Join([]string{s.Location.City, s.Location.State, s.Location.Country}, " ")
		docs = append(docs, document{
			sup:        s,
			name:       strings.ToLower(s.Name),
			categories: strings.ToLower(strings.Join(s.Categories, " ")),
			location:   strings.ToLower(loc),
			descr:      strings.ToLower(s.Description),
		})
	}
	return &Index{weights: weights, docs: docs}
}

// Search returns the suppliers whose indexed fields contain query as a
// case-insensitive substring, ordered ascending by raw score with ties
// broken by supplier ID.  Suppliers matching no field are excluded.  An
// empty query returns nothing, not the whole catalog.
func (idx *Index) Search(query string) []Candidate {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	out := make([]Candidate, 0, len(idx.docs))
	for _, d := range idx.docs {
		var matched float64
		if strings.Contains(d.name, q) {
			matched += idx.weights.Name
		}
		if strings.Contains(d.categories, q) {
			matched += idx.weights.Categories
		}
		if strings.Contains(d.location, q) {
			matched += idx.weights.Location
		}
		if strings.Contains(d.descr, q) {
			matched += idx.weights.Description
		}
		if matched == 0 {
			continue
		}
		out = append(out, Candidate{Supplier: d.sup, RawScore: 1 - matched})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].RawScore != out[j].RawScore {
			return out[i].RawScore < out[j].RawScore
		}
		return out[i].Supplier.ID < out[j].Supplier.ID
	})
	return out
}

// Size returns the number of indexed suppliers.
func (idx *Index) Size() int {
	return len(idx.docs)
}
