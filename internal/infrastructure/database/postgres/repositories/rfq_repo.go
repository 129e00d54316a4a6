package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/strategy"
	"github.com/trellisource/sourcing-intelligence/internal/domain/rfq"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// RFQRepo implements rfq.Store and the negotiation analysis store on
// Postgres.  Line items and analyses are stored as JSONB; they are read and
// written whole, never queried by field.
type RFQRepo struct {
	db  querier
	log logging.Logger
}

// NewRFQRepo constructs the repository.
func NewRFQRepo(db querier, log logging.Logger) *RFQRepo {
	if log == nil {
		log = logging.NewNop()
	}
	return &RFQRepo{db: db, log: log}
}

// SaveRequirement inserts or replaces a single-item requirement.
func (r *RFQRepo) SaveRequirement(ctx context.Context, req *rfq.Requirement) error {
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO requirements (
			id, buyer_id, title, description, category, quantity,
			budget_amount, budget_currency, deadline, delivery_window_days,
			delivery_city, delivery_state, delivery_country, urgency, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			category = EXCLUDED.category,
			quantity = EXCLUDED.quantity,
			budget_amount = EXCLUDED.budget_amount,
			budget_currency = EXCLUDED.budget_currency,
			deadline = EXCLUDED.deadline,
			delivery_window_days = EXCLUDED.delivery_window_days,
			delivery_city = EXCLUDED.delivery_city,
			delivery_state = EXCLUDED.delivery_state,
			delivery_country = EXCLUDED.delivery_country,
			urgency = EXCLUDED.urgency`,
		req.ID, req.BuyerID, req.Title, req.Description, req.Category, req.Quantity,
		req.Budget.Amount, req.Budget.Currency, nullTime(req.Deadline), req.DeliveryWindowDays,
		req.DeliveryLocation.City, req.DeliveryLocation.State, req.DeliveryLocation.Country,
		req.Urgency, req.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to save requirement")
	}
	return nil
}

// GetRequirement returns a stored requirement or a not-found error.
func (r *RFQRepo) GetRequirement(ctx context.Context, id common.ID) (*rfq.Requirement, error) {
	var (
		req      rfq.Requirement
		deadline *time.Time
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, buyer_id, title, description, category, quantity,
		       budget_amount, budget_currency, deadline, delivery_window_days,
		       delivery_city, delivery_state, delivery_country, urgency, created_at
		FROM requirements WHERE id = $1`,
		id,
	).Scan(
		&req.ID, &req.BuyerID, &req.Title, &req.Description, &req.Category, &req.Quantity,
		&req.Budget.Amount, &req.Budget.Currency, &deadline, &req.DeliveryWindowDays,
		&req.DeliveryLocation.City, &req.DeliveryLocation.State, &req.DeliveryLocation.Country,
		&req.Urgency, &req.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.ErrCodeRequirementNotFound, "requirement not found").
				WithDetail("id=" + string(id))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get requirement")
	}
	if deadline != nil {
		req.Deadline = *deadline
	}
	return &req, nil
}

// SaveComplexRFQ inserts or replaces a multi-item RFQ.
func (r *RFQRepo) SaveComplexRFQ(ctx context.Context, c *rfq.ComplexRFQ) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	lineItems, err := json.Marshal(c.LineItems)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode line items")
	}
	candidates := make([]string, len(c.CandidateSupplierIDs))
	for i, id := range c.CandidateSupplierIDs {
		candidates[i] = string(id)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO complex_rfqs (
			id, buyer_id, title, line_items, candidate_supplier_ids, timeline_days,
			delivery_city, delivery_state, delivery_country, priority, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			line_items = EXCLUDED.line_items,
			candidate_supplier_ids = EXCLUDED.candidate_supplier_ids,
			timeline_days = EXCLUDED.timeline_days,
			delivery_city = EXCLUDED.delivery_city,
			delivery_state = EXCLUDED.delivery_state,
			delivery_country = EXCLUDED.delivery_country,
			priority = EXCLUDED.priority`,
		c.ID, c.BuyerID, c.Title, lineItems, candidates, c.TimelineDays,
		c.DeliveryLocation.City, c.DeliveryLocation.State, c.DeliveryLocation.Country,
		c.Priority, c.CreatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to save complex RFQ")
	}
	return nil
}

// GetComplexRFQ returns a stored multi-item RFQ or a not-found error.
func (r *RFQRepo) GetComplexRFQ(ctx context.Context, id common.ID) (*rfq.ComplexRFQ, error) {
	var (
		c          rfq.ComplexRFQ
		lineItems  []byte
		candidates []string
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, buyer_id, title, line_items, candidate_supplier_ids, timeline_days,
		       delivery_city, delivery_state, delivery_country, priority, created_at
		FROM complex_rfqs WHERE id = $1`,
		id,
	).Scan(
		&c.ID, &c.BuyerID, &c.Title, &lineItems, &candidates, &c.TimelineDays,
		&c.DeliveryLocation.City, &c.DeliveryLocation.State, &c.DeliveryLocation.Country,
		&c.Priority, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.ErrCodeRFQNotFound, "complex RFQ not found").
				WithDetail("id=" + string(id))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get complex RFQ")
	}

	if err := json.Unmarshal(lineItems, &c.LineItems); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode line items")
	}
	c.CandidateSupplierIDs = make([]common.ID, len(candidates))
	for i, s := range candidates {
		c.CandidateSupplierIDs[i] = common.ID(s)
	}
	return &c, nil
}

// SaveAnalysis stores the latest analysis for an RFQ, replacing any previous
// one.
func (r *RFQRepo) SaveAnalysis(ctx context.Context, a strategy.RFQAnalysis) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to encode analysis")
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO rfq_analyses (rfq_id, analysis, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (rfq_id) DO UPDATE SET
			analysis = EXCLUDED.analysis,
			updated_at = NOW()`,
		a.RFQID, payload,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to save analysis")
	}
	return nil
}

// GetAnalysis returns the stored analysis for an RFQ or a not-found error.
func (r *RFQRepo) GetAnalysis(ctx context.Context, rfqID common.ID) (strategy.RFQAnalysis, error) {
	var payload []byte
	err := r.db.QueryRow(ctx,
		"SELECT analysis FROM rfq_analyses WHERE rfq_id = $1", rfqID,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return strategy.RFQAnalysis{}, apperrors.New(apperrors.ErrCodeNotFound, "analysis not found").
				WithDetail("rfq_id=" + string(rfqID))
		}
		return strategy.RFQAnalysis{}, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get analysis")
	}

	var a strategy.RFQAnalysis
	if err := json.Unmarshal(payload, &a); err != nil {
		return strategy.RFQAnalysis{}, apperrors.Wrap(err, apperrors.ErrCodeSerialization, "failed to decode analysis")
	}
	return a, nil
}

// nullTime maps the zero time to SQL NULL.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
