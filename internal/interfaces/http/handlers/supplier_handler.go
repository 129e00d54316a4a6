package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// SupplierEvents announces directory mutations.  Publishing is
// fire-and-forget.
type SupplierEvents interface {
	PublishSupplierUpserted(ctx context.Context, supplierID string) error
}

// SupplierHandler serves the supplier-directory endpoints.
type SupplierHandler struct {
	directory supplier.Directory
	writer    supplier.Writer
	events    SupplierEvents
	log       logging.Logger
}

// NewSupplierHandler constructs a SupplierHandler.  events is optional.
func NewSupplierHandler(directory supplier.Directory, writer supplier.Writer, events SupplierEvents, log logging.Logger) *SupplierHandler {
	if log == nil {
		log = logging.NewNop()
	}
	return &SupplierHandler{directory: directory, writer: writer, events: events, log: log}
}

// List handles GET /api/v1/suppliers.
func (h *SupplierHandler) List(c *gin.Context) {
	filter := supplier.ListFilter{
		Category: c.Query("category"),
		Country:  c.Query("country"),
	}
	if v := c.Query("min_rating"); v != "" {
		rating, err := strconv.ParseFloat(v, 64)
		if err != nil {
			respondError(c, errors.Validation("min_rating", "must be a number"))
			return
		}
		filter.MinRating = rating
	}
	if c.Query("verified_only") == "true" {
		filter.VerifiedOnly = true
	}
	filter.Pagination = parsePagination(c)

	suppliers, err := h.directory.ListSuppliers(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, gin.H{"suppliers": suppliers, "count": len(suppliers)})
}

// Get handles GET /api/v1/suppliers/:id.
func (h *SupplierHandler) Get(c *gin.Context) {
	sup, err := h.directory.GetSupplier(c.Request.Context(), common.ID(c.Param("id")))
	if err != nil {
		respondError(c, err)
		return
	}
	ok(c, sup)
}

// Upsert handles PUT /api/v1/suppliers/:id.
func (h *SupplierHandler) Upsert(c *gin.Context) {
	var sup supplier.Supplier
	if !bindJSON(c, &sup) {
		return
	}
	sup.ID = common.ID(c.Param("id"))

	if err := h.writer.UpsertSupplier(c.Request.Context(), &sup); err != nil {
		respondError(c, err)
		return
	}

	if h.events != nil {
		if err := h.events.PublishSupplierUpserted(c.Request.Context(), string(sup.ID)); err != nil {
			h.log.Warn("failed to publish supplier event",
				logging.String("supplier_id", string(sup.ID)), logging.Err(err))
		}
	}
	ok(c, sup)
}

// Delete handles DELETE /api/v1/suppliers/:id.
func (h *SupplierHandler) Delete(c *gin.Context) {
	if err := h.writer.DeleteSupplier(c.Request.Context(), common.ID(c.Param("id"))); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// parsePagination reads page / page_size query parameters with bounds.
func parsePagination(c *gin.Context) common.Pagination {
	page := 1
	pageSize := 20
	if v := c.Query("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := c.Query("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return common.Pagination{Page: page, PageSize: pageSize}
}
