package rfq

import (
	"context"

	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// Store persists RFQ aggregates.  Implementations: the Postgres repository
// in production, in-memory doubles in tests.
type Store interface {
	// SaveRequirement persists a single-item requirement, assigning its ID
	// when empty.
	SaveRequirement(ctx context.Context, r *Requirement) error

	// GetRequirement returns the requirement with the given ID, or a
	// not-found error.
	GetRequirement(ctx context.Context, id common.ID) (*Requirement, error)

	// SaveComplexRFQ persists a multi-item RFQ, assigning its ID when empty.
	SaveComplexRFQ(ctx context.Context, c *ComplexRFQ) error

	// GetComplexRFQ returns the complex RFQ with the given ID, or a
	// not-found error.
	GetComplexRFQ(ctx context.Context, id common.ID) (*ComplexRFQ, error)
}
