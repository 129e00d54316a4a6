// Package opensearch provides full-text supplier retrieval for large
// catalogs.  The searcher implements the matching candidate-retriever port;
// the indexer keeps the supplier index in step with the directory.
package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

var ErrConnectionFailed = errors.New(errors.ErrCodeSearchUnavailable, "opensearch connection failed")

// Client wraps the OpenSearch connection and tracks cluster health in the
// background.
type Client struct {
	client      *opensearch.Client
	indexPrefix string
	log         logging.Logger
	healthy     atomic.Bool
	cancel      context.CancelFunc
}

// NewClient connects to the configured cluster and starts a background
// health check.  Construction fails if the cluster is unreachable.
func NewClient(cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.Validation("addresses", "at least one address is required")
	}
	if log == nil {
		log = logging.NewNop()
	}

	transport := &http.Transport{MaxIdleConnsPerHost: 10}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	osClient, err := opensearch.NewClient(opensearch.Config{
		Addresses:     cfg.Addresses,
		Username:      cfg.User,
		Password:      cfg.Password,
		Transport:     transport,
		MaxRetries:    3,
		RetryBackoff:  func(int) time.Duration { return 100 * time.Millisecond },
		RetryOnStatus: []int{429, 502, 503, 504},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSearchUnavailable, "failed to create opensearch client")
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		client:      osClient,
		indexPrefix: cfg.IndexPrefix,
		log:         log,
		cancel:      cancel,
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := c.Ping(pingCtx); err != nil {
		cancel()
		return nil, ErrConnectionFailed
	}

	go c.watchHealth(ctx)
	return c, nil
}

// Ping verifies cluster reachability and updates the health flag.
func (c *Client) Ping(ctx context.Context) error {
	resp, err := c.client.Ping(c.client.Ping.WithContext(ctx))
	if err != nil {
		c.healthy.Store(false)
		return errors.Wrap(err, errors.ErrCodeSearchUnavailable, "opensearch ping failed")
	}
	defer resp.Body.Close()

	if resp.IsError() {
		c.healthy.Store(false)
		return errors.New(errors.ErrCodeSearchUnavailable, "opensearch ping returned error status")
	}
	c.healthy.Store(true)
	return nil
}

// IsHealthy reports the result of the most recent health probe.
func (c *Client) IsHealthy() bool {
	return c.healthy.Load()
}

// Raw exposes the underlying client for request builders.
func (c *Client) Raw() *opensearch.Client {
	return c.client
}

// IndexName applies the configured prefix to a base index name.
func (c *Client) IndexName(base string) string {
	if c.indexPrefix == "" {
		return base
	}
	return c.indexPrefix + "-" + base
}

// Close stops the background health check.
func (c *Client) Close() error {
	c.cancel()
	c.log.Info("opensearch client closed")
	return nil
}

func (c *Client) watchHealth(ctx context.Context) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			prev := c.healthy.Load()
			err := c.Ping(ctx)
			curr := c.healthy.Load()
			if prev && !curr {
				c.log.Error("opensearch cluster became unhealthy", logging.Err(err))
			} else if !prev && curr {
				c.log.Info("opensearch cluster recovered")
			}
		}
	}
}
