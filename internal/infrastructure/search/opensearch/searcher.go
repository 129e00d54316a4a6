package opensearch

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/domain/supplier"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

// Searcher retrieves candidate suppliers by full-text relevance.  It
// implements the matching candidate-retriever port for large catalogs.
type Searcher struct {
	client  *Client
	timeout time.Duration
	log     logging.Logger
}

// NewSearcher constructs a Searcher on an established client.
func NewSearcher(client *Client, timeout time.Duration, log logging.Logger) *Searcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Searcher{client: client, timeout: timeout, log: log}
}

// Retrieve returns up to limit suppliers ranked by lexical relevance to
// query.  Field boosts weight categories highest, then name, description,
// and location, matching the scoring policy of the in-memory index.
func (s *Searcher) Retrieve(ctx context.Context, query string, limit int) ([]*supplier.Supplier, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, errors.Validation("query", "query must not be empty")
	}
	if limit <= 0 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	body := map[string]any{
		"size": limit,
		"query": map[string]any{
			"multi_match": map[string]any{
				"query": query,
				"fields": []string{
					"categories^4",
					"name^3",
					"description^2",
					"location.country",
					"location.state",
					"location.city",
				},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		},
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal search query")
	}

	index := s.client.IndexName(supplierIndexBase)
	start := time.Now()
	resp, err := s.client.Raw().Search(
		s.client.Raw().Search.WithContext(ctx),
		s.client.Raw().Search.WithIndex(index),
		s.client.Raw().Search.WithBody(strings.NewReader(string(raw))),
	)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "supplier search failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		return nil, errors.New(errors.ErrCodeSearchUnavailable, "supplier search returned error status")
	}

	var result struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string          `json:"_id"`
				Score  float64         `json:"_score"`
				Source json.RawMessage `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSerialization, "failed to decode search response")
	}

	suppliers := make([]*supplier.Supplier, 0, len(result.Hits.Hits))
	for _, hit := range result.Hits.Hits {
		var sup supplier.Supplier
		if err := json.Unmarshal(hit.Source, &sup); err != nil {
			s.log.Warn("skipping undecodable supplier document",
				logging.String("doc_id", hit.ID), logging.Err(err))
			continue
		}
		suppliers = append(suppliers, &sup)
	}

	s.log.Debug("supplier search complete",
		logging.String("query", query),
		logging.Int64("total", result.Hits.Total.Value),
		logging.Int("returned", len(suppliers)),
		logging.Duration("took", time.Since(start)))
	return suppliers, nil
}
