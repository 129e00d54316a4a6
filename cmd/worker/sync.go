package main

import (
	"context"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/messaging/kafka"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// resyncPageSize bounds how many suppliers one resync batch loads.
const resyncPageSize = 500

// supplierIndex is the slice of the search indexer the sync needs.
type supplierIndex interface {
	IndexSupplier(ctx context.Context, sup *supplier.Supplier) error
	BulkIndexSuppliers(ctx context.Context, suppliers []*supplier.Supplier) error
	DeleteSupplier(ctx context.Context, supplierID string) error
}

// supplierSync mirrors directory mutations into the search index.
type supplierSync struct {
	directory supplier.Directory
	indexer   supplierIndex
	log       logging.Logger
}

func newSupplierSync(directory supplier.Directory, indexer supplierIndex, log logging.Logger) *supplierSync {
	if log == nil {
		log = logging.NewNop()
	}
	return &supplierSync{directory: directory, indexer: indexer, log: log}
}

// handle applies one supplier.upserted event.  A supplier that no longer
// exists in the directory is removed from the index, so delete events and
// upsert events share one code path.
func (s *supplierSync) handle(ctx context.Context, env *kafka.EventEnvelope) error {
	var payload struct {
		SupplierID string `json:"supplier_id"`
	}
	if err := env.DecodePayload(&payload); err != nil {
		return err
	}
	if payload.SupplierID == "" {
		return errors.Validation("supplier_id", "required")
	}

	sup, err := s.directory.GetSupplier(ctx, common.ID(payload.SupplierID))
	if errors.IsNotFound(err) {
		s.log.Info("supplier gone, removing from index",
			logging.String("supplier_id", payload.SupplierID))
		return s.indexer.DeleteSupplier(ctx, payload.SupplierID)
	}
	if err != nil {
		return err
	}

	if err := s.indexer.IndexSupplier(ctx, sup); err != nil {
		return err
	}
	s.log.Debug("supplier indexed", logging.String("supplier_id", payload.SupplierID))
	return nil
}

// resyncLoop periodically rebuilds the index from the directory.  Events
// cover the steady state; the resync heals missed or reordered updates.
func (s *supplierSync) resyncLoop(ctx context.Context, period time.Duration) error {
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	if err := s.resync(ctx); err != nil {
		s.log.Error("initial resync failed", logging.Err(err))
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := s.resync(ctx); err != nil {
				s.log.Error("resync failed", logging.Err(err))
			}
		}
	}
}

// resync pages through the full directory and bulk-indexes every supplier.
func (s *supplierSync) resync(ctx context.Context) error {
	start := time.Now()
	total := 0
	for page := 1; ; page++ {
		batch, err := s.directory.ListSuppliers(ctx, supplier.ListFilter{
			Pagination: common.Pagination{Page: page, PageSize: resyncPageSize},
		})
		if err != nil {
			return err
		}
		if len(batch) == 0 {
			break
		}
		if err := s.indexer.BulkIndexSuppliers(ctx, batch); err != nil {
			return err
		}
		total += len(batch)
		if len(batch) < resyncPageSize {
			break
		}
	}
	s.log.Info("supplier index resynced",
		logging.Int("suppliers", total),
		logging.Duration("took", time.Since(start)))
	return nil
}
