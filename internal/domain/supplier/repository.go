package supplier

import (
	"context"

	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// ListFilter narrows a directory listing.  Zero values mean "no filter".
type ListFilter struct {
	Category     string
	Country      string
	MinRating    float64
	VerifiedOnly bool
	Pagination   common.Pagination
}

// Directory is the supplier catalog contract consumed by the matching
// engine.  Implementations: the Postgres repository in production, in-memory
// doubles in tests.
type Directory interface {
	// ListSuppliers returns the suppliers matching filter.  An empty catalog
	// yields an empty slice, not an error.
	ListSuppliers(ctx context.Context, filter ListFilter) ([]*Supplier, error)

	// GetSupplier returns the supplier with the given ID, or a not-found
	// error.
	GetSupplier(ctx context.Context, id common.ID) (*Supplier, error)

	// GetSuppliersByIDs returns the suppliers for the given IDs.  Unknown
	// IDs are omitted from the result rather than failing the batch.
	GetSuppliersByIDs(ctx context.Context, ids []common.ID) ([]*Supplier, error)
}

// HistoryProvider supplies behavioural track records for risk assessment.
type HistoryProvider interface {
	// GetSupplierHistory returns the supplier's history.  Implementations
	// return a collaborator-unavailable error on transport failure; an
	// existing supplier with no recorded activity yields an empty History.
	GetSupplierHistory(ctx context.Context, id common.ID) (*History, error)
}

// Writer is the mutation side of the directory, used by ingestion and the
// operator CLI.
type Writer interface {
	UpsertSupplier(ctx context.Context, s *Supplier) error
	DeleteSupplier(ctx context.Context, id common.ID) error
}
