package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	apperrors "github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

const supplierColumns = `
	id, name, description, categories, rating,
	city, state, country, latitude, longitude,
	price_min, price_max, price_currency,
	compliance_score, on_time_rate, quality_score, financial_rating,
	verification, years_experience, monthly_capacity, lead_time_days,
	created_at, updated_at`

// SupplierRepo implements supplier.Directory, supplier.HistoryProvider and
// supplier.Writer on Postgres.
type SupplierRepo struct {
	db  querier
	log logging.Logger
}

// NewSupplierRepo constructs the repository.
func NewSupplierRepo(db querier, log logging.Logger) *SupplierRepo {
	if log == nil {
		log = logging.NewNop()
	}
	return &SupplierRepo{db: db, log: log}
}

// ListSuppliers returns the suppliers matching filter, rating-descending.
func (r *SupplierRepo) ListSuppliers(ctx context.Context, filter supplier.ListFilter) ([]*supplier.Supplier, error) {
	var (
		conds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Category != "" {
		conds = append(conds, arg(filter.Category)+" = ANY(categories)")
	}
	if filter.Country != "" {
		conds = append(conds, "country = "+arg(filter.Country))
	}
	if filter.MinRating > 0 {
		conds = append(conds, "rating >= "+arg(filter.MinRating))
	}
	if filter.VerifiedOnly {
		conds = append(conds, "verification IN ('verified', 'premium')")
	}

	query := "SELECT " + supplierColumns + " FROM suppliers"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY rating DESC, id ASC"
	if filter.Pagination.PageSize > 0 {
		query += " LIMIT " + arg(filter.Pagination.PageSize)
		if filter.Pagination.Page > 1 {
			query += " OFFSET " + arg((filter.Pagination.Page-1)*filter.Pagination.PageSize)
		}
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to list suppliers")
	}
	defer rows.Close()

	var out []*supplier.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan supplier")
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to read supplier rows")
	}
	return out, nil
}

// GetSupplier returns one supplier or a not-found error.
func (r *SupplierRepo) GetSupplier(ctx context.Context, id common.ID) (*supplier.Supplier, error) {
	row := r.db.QueryRow(ctx, "SELECT "+supplierColumns+" FROM suppliers WHERE id = $1", id)
	s, err := scanSupplier(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.New(apperrors.ErrCodeSupplierNotFound, "supplier not found").
				WithDetail("id=" + string(id))
		}
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get supplier")
	}
	return s, nil
}

// GetSuppliersByIDs returns the suppliers for ids.  Unknown IDs are omitted.
func (r *SupplierRepo) GetSuppliersByIDs(ctx context.Context, ids []common.ID) ([]*supplier.Supplier, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	raw := make([]string, len(ids))
	for i, id := range ids {
		raw[i] = string(id)
	}

	rows, err := r.db.Query(ctx,
		"SELECT "+supplierColumns+" FROM suppliers WHERE id = ANY($1) ORDER BY id", raw)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to get suppliers by ids")
	}
	defer rows.Close()

	var out []*supplier.Supplier
	for rows.Next() {
		s, err := scanSupplier(rows)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan supplier")
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// GetSupplierHistory assembles the behavioural track record from the
// responses and transactions tables.  A supplier with no recorded activity
// yields an empty history, not an error.
func (r *SupplierRepo) GetSupplierHistory(ctx context.Context, id common.ID) (*supplier.History, error) {
	h := &supplier.History{SupplierID: id}

	err := r.db.QueryRow(ctx, `
		SELECT
			COALESCE((SELECT count(*) FROM supplier_transactions WHERE supplier_id = $1), 0),
			COALESCE((SELECT verification IN ('verified', 'premium') FROM suppliers WHERE id = $1), false)`,
		id,
	).Scan(&h.TransactionCount, &h.Verified)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCollaboratorUnavailable, "failed to load supplier history")
	}

	rows, err := r.db.Query(ctx, `
		SELECT rfq_id, invited_at, responded_at
		FROM supplier_rfq_responses
		WHERE supplier_id = $1
		ORDER BY invited_at`,
		id,
	)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeCollaboratorUnavailable, "failed to load supplier responses")
	}
	defer rows.Close()

	for rows.Next() {
		var rec supplier.ResponseRecord
		var respondedAt *time.Time
		if err := rows.Scan(&rec.RFQID, &rec.CreatedAt, &respondedAt); err != nil {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to scan response record")
		}
		if respondedAt != nil {
			rec.RespondedAt = *respondedAt
		}
		h.Responses = append(h.Responses, rec)
	}
	return h, rows.Err()
}

// UpsertSupplier inserts or fully replaces a directory record.
func (r *SupplierRepo) UpsertSupplier(ctx context.Context, s *supplier.Supplier) error {
	if err := s.Validate(); err != nil {
		return err
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	s.UpdatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx, `
		INSERT INTO suppliers (`+supplierColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			categories = EXCLUDED.categories,
			rating = EXCLUDED.rating,
			city = EXCLUDED.city,
			state = EXCLUDED.state,
			country = EXCLUDED.country,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			price_min = EXCLUDED.price_min,
			price_max = EXCLUDED.price_max,
			price_currency = EXCLUDED.price_currency,
			compliance_score = EXCLUDED.compliance_score,
			on_time_rate = EXCLUDED.on_time_rate,
			quality_score = EXCLUDED.quality_score,
			financial_rating = EXCLUDED.financial_rating,
			verification = EXCLUDED.verification,
			years_experience = EXCLUDED.years_experience,
			monthly_capacity = EXCLUDED.monthly_capacity,
			lead_time_days = EXCLUDED.lead_time_days,
			updated_at = EXCLUDED.updated_at`,
		s.ID, s.Name, s.Description, s.Categories, s.Rating,
		s.Location.City, s.Location.State, s.Location.Country, s.Location.Latitude, s.Location.Longitude,
		s.PriceRange.Min, s.PriceRange.Max, s.PriceRange.Currency,
		s.ComplianceScore, s.OnTimeRate, s.QualityScore, s.FinancialRating,
		s.Verification, s.YearsExperience, s.MonthlyCapacity, s.LeadTimeDays,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to upsert supplier")
	}
	return nil
}

// DeleteSupplier removes a directory record.
func (r *SupplierRepo) DeleteSupplier(ctx context.Context, id common.ID) error {
	tag, err := r.db.Exec(ctx, "DELETE FROM suppliers WHERE id = $1", id)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeDatabaseError, "failed to delete supplier")
	}
	if tag.RowsAffected() == 0 {
		return apperrors.New(apperrors.ErrCodeSupplierNotFound, "supplier not found").
			WithDetail("id=" + string(id))
	}
	return nil
}

func scanSupplier(row scanner) (*supplier.Supplier, error) {
	var s supplier.Supplier
	err := row.Scan(
		&s.ID, &s.Name, &s.Description, &s.Categories, &s.Rating,
		&s.Location.City, &s.Location.State, &s.Location.Country, &s.Location.Latitude, &s.Location.Longitude,
		&s.PriceRange.Min, &s.PriceRange.Max, &s.PriceRange.Currency,
		&s.ComplianceScore, &s.OnTimeRate, &s.QualityScore, &s.FinancialRating,
		&s.Verification, &s.YearsExperience, &s.MonthlyCapacity, &s.LeadTimeDays,
		&s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
