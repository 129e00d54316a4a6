package opensearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

// supplierIndexBase is the unprefixed supplier index name.
const supplierIndexBase = "suppliers"

// supplierMapping mirrors the retrieval fields the matcher queries.  Text
// fields carry the same relative importance the in-memory index uses, but
// the boosts live on the query side so the mapping stays stable.
const supplierMapping = `{
  "settings": {
    "number_of_shards": 3,
    "number_of_replicas": 1,
    "analysis": {
      "analyzer": {
        "catalog_text": {
          "type": "custom",
          "tokenizer": "standard",
          "filter": ["lowercase", "asciifolding"]
        }
      }
    }
  },
  "mappings": {
    "properties": {
      "id":          {"type": "keyword"},
      "name":        {"type": "text", "analyzer": "catalog_text"},
      "description": {"type": "text", "analyzer": "catalog_text"},
      "categories":  {"type": "text", "analyzer": "catalog_text", "fields": {"raw": {"type": "keyword"}}},
      "location": {
        "properties": {
          "country": {"type": "text", "analyzer": "catalog_text", "fields": {"raw": {"type": "keyword"}}},
          "state":   {"type": "text", "analyzer": "catalog_text"},
          "city":    {"type": "text", "analyzer": "catalog_text"}
        }
      },
      "rating":       {"type": "float"},
      "verification": {"type": "keyword"}
    }
  }
}`

// Indexer maintains the supplier search index.
type Indexer struct {
	client *Client
	log    logging.Logger
}

// NewIndexer constructs an Indexer on an established client.
func NewIndexer(client *Client, log logging.Logger) *Indexer {
	if log == nil {
		log = logging.NewNop()
	}
	return &Indexer{client: client, log: log}
}

// EnsureIndex creates the supplier index if it does not already exist.
func (i *Indexer) EnsureIndex(ctx context.Context) error {
	index := i.client.IndexName(supplierIndexBase)

	exists, err := i.indexExists(ctx, index)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	req := opensearchapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader([]byte(supplierMapping)),
	}
	resp, err := req.Do(ctx, i.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to create supplier index")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return i.responseError(resp, "create supplier index failed")
	}
	i.log.Info("supplier index created", logging.String("index", index))
	return nil
}

// IndexSupplier writes one supplier document, replacing any previous
// version.  Callers invoke this after every directory upsert.
func (i *Indexer) IndexSupplier(ctx context.Context, sup *supplier.Supplier) error {
	if sup == nil || sup.ID == "" {
		return errors.Validation("supplier", "supplier with an id is required")
	}

	body, err := json.Marshal(sup)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal supplier document")
	}

	req := opensearchapi.IndexRequest{
		Index:      i.client.IndexName(supplierIndexBase),
		DocumentID: string(sup.ID),
		Body:       bytes.NewReader(body),
	}
	resp, err := req.Do(ctx, i.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to index supplier")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return i.responseError(resp, "index supplier failed")
	}
	return nil
}

// BulkIndexSuppliers loads a batch of suppliers with the bulk API.  Used by
// the worker when rebuilding the index from the directory.
func (i *Indexer) BulkIndexSuppliers(ctx context.Context, suppliers []*supplier.Supplier) error {
	if len(suppliers) == 0 {
		return nil
	}
	index := i.client.IndexName(supplierIndexBase)

	var buf bytes.Buffer
	for _, sup := range suppliers {
		if sup == nil || sup.ID == "" {
			continue
		}
		action := map[string]map[string]string{
			"index": {"_index": index, "_id": string(sup.ID)},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode bulk action")
		}
		if err := json.NewEncoder(&buf).Encode(sup); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to encode supplier document")
		}
	}

	req := opensearchapi.BulkRequest{Body: bytes.NewReader(buf.Bytes())}
	resp, err := req.Do(ctx, i.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchUnavailable, "bulk index request failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return i.responseError(resp, "bulk index failed")
	}

	var result struct {
		Errors bool `json:"errors"`
		Items  []map[string]struct {
			Status int `json:"status"`
			Error  any `json:"error"`
		} `json:"items"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode bulk response")
	}
	if result.Errors {
		failed := 0
		for _, item := range result.Items {
			for _, op := range item {
				if op.Status >= 300 {
					failed++
				}
			}
		}
		i.log.Warn("bulk index completed with item failures",
			logging.Int("total", len(suppliers)), logging.Int("failed", failed))
		return errors.New(errors.ErrCodeSearchUnavailable, "bulk index rejected some documents")
	}

	i.log.Info("bulk index complete", logging.Int("documents", len(suppliers)))
	return nil
}

// DeleteSupplier removes a supplier document.  A missing document is not an
// error; the index converges to the directory either way.
func (i *Indexer) DeleteSupplier(ctx context.Context, supplierID string) error {
	req := opensearchapi.DeleteRequest{
		Index:      i.client.IndexName(supplierIndexBase),
		DocumentID: supplierID,
	}
	resp, err := req.Do(ctx, i.client.Raw())
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to delete supplier document")
	}
	defer resp.Body.Close()

	if resp.StatusCode == 404 {
		return nil
	}
	if resp.IsError() {
		return i.responseError(resp, "delete supplier document failed")
	}
	return nil
}

func (i *Indexer) indexExists(ctx context.Context, index string) (bool, error) {
	req := opensearchapi.IndicesExistsRequest{Index: []string{index}}
	resp, err := req.Do(ctx, i.client.Raw())
	if err != nil {
		return false, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to check index existence")
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case 200:
		return true, nil
	case 404:
		return false, nil
	default:
		return false, i.responseError(resp, "index existence check failed")
	}
}

func (i *Indexer) responseError(resp *opensearchapi.Response, msg string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return errors.New(errors.ErrCodeSearchUnavailable, msg).
		WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, body))
}
