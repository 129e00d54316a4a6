// Package matching orchestrates the supplier-matching path: candidate
// retrieval, factor scoring, ranking, and event emission.
package matching

import (
	"context"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/internal/matching/ranking"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// CandidateRetriever narrows the catalog to lexically relevant suppliers
// before full factor scoring.  Implementations: the in-memory lexical index
// adapter for small catalogs, the OpenSearch searcher for large ones.
type CandidateRetriever interface {
	Retrieve(ctx context.Context, query string, limit int) ([]*supplier.Supplier, error)
}

// MatchedEvent announces a completed matching run.
type MatchedEvent struct {
	RequirementID common.ID `json:"requirement_id"`
	BuyerID       common.ID `json:"buyer_id"`
	Category      string    `json:"category"`
	ResultCount   int       `json:"result_count"`
	SkipCount     int       `json:"skip_count"`
	TopSupplierID common.ID `json:"top_supplier_id,omitempty"`
	TopScore      float64   `json:"top_score,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}

// EventPublisher emits matching events.  Publishing is fire-and-forget: a
// publish failure never fails the operation.
type EventPublisher interface {
	PublishRFQMatched(ctx context.Context, ev MatchedEvent) error
}

// MatchResponse is the outcome of one FindMatches call.
type MatchResponse struct {
	RequirementID common.ID            `json:"requirement_id"`
	Results       []ranking.MatchResult `json:"results"`
	Skips         []ranking.Skip        `json:"skips,omitempty"`
}

// Service is the matching application service.
type Service struct {
	directory  supplier.Directory
	retriever  CandidateRetriever
	store      rfq.Store
	ranker     *ranking.Ranker
	events     EventPublisher
	maxResults int
	log        logging.Logger
}

// NewService constructs the matching service.  retriever, store, and events
// are optional; a nil retriever means the whole catalog is scored, a nil
// store skips persistence, a nil events skips emission.
func NewService(
	directory supplier.Directory,
	retriever CandidateRetriever,
	store rfq.Store,
	ranker *ranking.Ranker,
	events EventPublisher,
	maxResults int,
	log logging.Logger,
) *Service {
	if maxResults < 1 {
		maxResults = 50
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Service{
		directory:  directory,
		retriever:  retriever,
		store:      store,
		ranker:     ranker,
		events:     events,
		maxResults: maxResults,
		log:        log,
	}
}

// FindMatches ranks the catalog against req and returns the ordered results.
// An empty candidate set yields an empty result, never an error.
func (s *Service) FindMatches(ctx context.Context, req *rfq.Requirement) (*MatchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	if s.store != nil {
		if req.ID == "" {
			req.ID = common.GenerateID("req")
		}
		if err := s.store.SaveRequirement(ctx, req); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save requirement")
		}
	}

	candidates, err := s.candidates(ctx, req)
	if err != nil {
		return nil, err
	}

	results, skips, err := s.ranker.Rank(ctx, req, candidates)
	if err != nil {
		return nil, err
	}
	if len(results) > s.maxResults {
		results = results[:s.maxResults]
	}

	s.log.Info("matching complete",
		logging.String("requirement_id", string(req.ID)),
		logging.String("category", req.Category),
		logging.Int("candidates", len(candidates)),
		logging.Int("results", len(results)),
		logging.Int("skips", len(skips)))

	s.publishMatched(ctx, req, results, skips)

	return &MatchResponse{RequirementID: req.ID, Results: results, Skips: skips}, nil
}

// candidates narrows the catalog through the retriever when one is
// configured, falling back to a full directory listing when retrieval fails
// or is absent.
func (s *Service) candidates(ctx context.Context, req *rfq.Requirement) ([]*supplier.Supplier, error) {
	if s.retriever != nil {
		found, err := s.retriever.Retrieve(ctx, req.Category, s.maxResults*4)
		if err == nil {
			return found, nil
		}
		s.log.Warn("candidate retrieval failed, scoring the full catalog",
			logging.String("requirement_id", string(req.ID)), logging.Err(err))
	}

	suppliers, err := s.directory.ListSuppliers(ctx, supplier.ListFilter{})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list suppliers")
	}
	return suppliers, nil
}

func (s *Service) publishMatched(ctx context.Context, req *rfq.Requirement, results []ranking.MatchResult, skips []ranking.Skip) {
	if s.events == nil {
		return
	}
	ev := MatchedEvent{
		RequirementID: req.ID,
		BuyerID:       req.BuyerID,
		Category:      req.Category,
		ResultCount:   len(results),
		SkipCount:     len(skips),
		OccurredAt:    time.Now().UTC(),
	}
	if len(results) > 0 {
		ev.TopSupplierID = results[0].Supplier.ID
		ev.TopScore = results[0].TotalScore
	}
	if err := s.events.PublishRFQMatched(ctx, ev); err != nil {
		s.log.Warn("failed to publish match event",
			logging.String("requirement_id", string(req.ID)), logging.Err(err))
	}
}
