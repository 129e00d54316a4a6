package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

type fakeSupplierStore struct {
	suppliers []*supplier.Supplier
	gotFilter supplier.ListFilter
	upserted  *supplier.Supplier
	deleted   []common.ID
}

func (f *fakeSupplierStore) ListSuppliers(_ context.Context, filter supplier.ListFilter) ([]*supplier.Supplier, error) {
	f.gotFilter = filter
	return f.suppliers, nil
}

func (f *fakeSupplierStore) GetSupplier(_ context.Context, id common.ID) (*supplier.Supplier, error) {
	for _, s := range f.suppliers {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, errors.New(errors.ErrCodeSupplierNotFound, "supplier not found")
}

func (f *fakeSupplierStore) GetSuppliersByIDs(_ context.Context, ids []common.ID) ([]*supplier.Supplier, error) {
	return nil, nil
}

func (f *fakeSupplierStore) UpsertSupplier(_ context.Context, s *supplier.Supplier) error {
	f.upserted = s
	return nil
}

func (f *fakeSupplierStore) DeleteSupplier(_ context.Context, id common.ID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeSupplierEvents struct {
	published []string
}

func (f *fakeSupplierEvents) PublishSupplierUpserted(_ context.Context, id string) error {
	f.published = append(f.published, id)
	return nil
}

func supplierRouter(store *fakeSupplierStore, events *fakeSupplierEvents) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewSupplierHandler(store, store, events, nil)
	r := gin.New()
	r.GET("/suppliers", h.List)
	r.GET("/suppliers/:id", h.Get)
	r.PUT("/suppliers/:id", h.Upsert)
	r.DELETE("/suppliers/:id", h.Delete)
	return r
}

func TestListSuppliersAppliesQueryFilters(t *testing.T) {
	store := &fakeSupplierStore{suppliers: []*supplier.Supplier{{ID: common.ID("sup-1"), Name: "Acme"}}}
	r := supplierRouter(store, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet,
		"/suppliers?category=steel&country=DE&min_rating=4.0&verified_only=true&page=2&page_size=10", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "steel", store.gotFilter.Category)
	assert.Equal(t, "DE", store.gotFilter.Country)
	assert.Equal(t, 4.0, store.gotFilter.MinRating)
	assert.True(t, store.gotFilter.VerifiedOnly)
	assert.Equal(t, 2, store.gotFilter.Pagination.Page)
	assert.Equal(t, 10, store.gotFilter.Pagination.PageSize)
}

func TestGetSupplierNotFound(t *testing.T) {
	r := supplierRouter(&fakeSupplierStore{}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/suppliers/sup-x", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpsertSupplierPublishesEvent(t *testing.T) {
	store := &fakeSupplierStore{}
	events := &fakeSupplierEvents{}
	r := supplierRouter(store, events)

	body := `{"name": "Acme Steel", "categories": ["steel"], "rating": 4.5}`
	req := httptest.NewRequest(http.MethodPut, "/suppliers/sup-1", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, store.upserted)
	assert.Equal(t, common.ID("sup-1"), store.upserted.ID, "path id wins over body id")
	assert.Equal(t, []string{"sup-1"}, events.published)

	var resp supplier.Supplier
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Acme Steel", resp.Name)
}

func TestDeleteSupplierReturnsNoContent(t *testing.T) {
	store := &fakeSupplierStore{}
	r := supplierRouter(store, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/suppliers/sup-1", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, []common.ID{common.ID("sup-1")}, store.deleted)
}
