package lexindex

import (
	"context"
	"sync"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

// Retriever serves candidate retrieval from an in-process index rebuilt
// from the supplier directory when it goes stale.  It implements the
// matching candidate-retriever port for deployments whose catalog fits in
// memory.
type Retriever struct {
	directory supplier.Directory
	weights   FieldWeights
	ttl       time.Duration
	log       logging.Logger

	mu      sync.Mutex
	idx     *Index
	builtAt time.Time
}

// NewRetriever constructs a Retriever.  A non-positive ttl defaults to five
// minutes.
func NewRetriever(directory supplier.Directory, weights FieldWeights, ttl time.Duration, log logging.Logger) *Retriever {
	if weights == (FieldWeights{}) {
		weights = DefaultFieldWeights
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Retriever{directory: directory, weights: weights, ttl: ttl, log: log}
}

// Retrieve returns up to limit suppliers lexically relevant to query,
// best match first.
func (r *Retriever) Retrieve(ctx context.Context, query string, limit int) ([]*supplier.Supplier, error) {
	idx, err := r.index(ctx)
	if err != nil {
		return nil, err
	}

	candidates := idx.Search(query)
	if limit > 0 && len(candidates) > limit {
		candidates = candidates[:limit]
	}

	suppliers := make([]*supplier.Supplier, len(candidates))
	for i, c := range candidates {
		suppliers[i] = c.Supplier
	}
	return suppliers, nil
}

// Invalidate forces a rebuild on the next retrieval.  Callers invoke it
// after directory mutations.
func (r *Retriever) Invalidate() {
	r.mu.Lock()
	r.builtAt = time.Time{}
	r.mu.Unlock()
}

// index returns a fresh index, rebuilding from the directory when the
// current one is stale.  A refresh failure serves the stale index rather
// than failing retrieval.
func (r *Retriever) index(ctx context.Context) (*Index, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.idx != nil && time.Since(r.builtAt) < r.ttl {
		return r.idx, nil
	}

	suppliers, err := r.directory.ListSuppliers(ctx, supplier.ListFilter{})
	if err != nil {
		if r.idx != nil {
			r.log.Warn("index refresh failed, serving stale index", logging.Err(err))
			return r.idx, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to build retrieval index")
	}

	r.idx = New(suppliers, r.weights)
	r.builtAt = time.Now()
	r.log.Debug("retrieval index rebuilt", logging.Int("suppliers", r.idx.Size()))
	return r.idx, nil
}
