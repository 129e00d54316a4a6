// Package marketdata adapts the external market-data service to the
// analyzer's collaborator contract.  Responses are cached briefly so a
// multi-line RFQ does not hammer the upstream for repeated products.
package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/analysis/market"
	"github.com/trellisource/sourcing-intelligence/internal/config"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/database/redis"
	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
	"github.com/trellisource/sourcing-intelligence/pkg/types/common"
)

// Client calls the market-data HTTP API.  It implements the market
// data-service port.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	cache      redis.Cache
	cacheTTL   time.Duration
	log        logging.Logger
}

// NewClient constructs the adapter.  cache is optional; a nil cache means
// every call goes upstream.
func NewClient(cfg config.MarketDataConfig, cache redis.Cache, log logging.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.Validation("base_url", "base url is required")
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, errors.Validation("base_url", "base url is malformed")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	cacheTTL := cfg.CacheTTL
	if cacheTTL <= 0 {
		cacheTTL = 2 * time.Minute
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		cache:      cache,
		cacheTTL:   cacheTTL,
		log:        log,
	}, nil
}

// GetPriceBand returns the market price band for product under specs.
func (c *Client) GetPriceBand(ctx context.Context, product string, specs map[string]string) (common.PriceBand, error) {
	key := fmt.Sprintf("market:priceband:%s:%s", product, specsFingerprint(specs))

	var band common.PriceBand
	err := c.cached(ctx, key, &band, func(ctx context.Context) (any, error) {
		var out common.PriceBand
		if err := c.get(ctx, "/v1/products/"+url.PathEscape(product)+"/price-band", specs, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return band, err
}

// GetDemandForecast returns the demand outlook for product.
func (c *Client) GetDemandForecast(ctx context.Context, product string) (market.DemandForecast, error) {
	key := "market:demand:" + product

	var forecast market.DemandForecast
	err := c.cached(ctx, key, &forecast, func(ctx context.Context) (any, error) {
		var out market.DemandForecast
		if err := c.get(ctx, "/v1/products/"+url.PathEscape(product)+"/demand-forecast", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return forecast, err
}

// GetCompetitorPrices returns known competitor quotes for product.
func (c *Client) GetCompetitorPrices(ctx context.Context, product string) (market.CompetitorQuotes, error) {
	key := "market:competitors:" + product

	var quotes market.CompetitorQuotes
	err := c.cached(ctx, key, &quotes, func(ctx context.Context) (any, error) {
		var out market.CompetitorQuotes
		if err := c.get(ctx, "/v1/products/"+url.PathEscape(product)+"/competitor-prices", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	return quotes, err
}

// cached routes through the cache when one is configured.
func (c *Client) cached(ctx context.Context, key string, dest any, loader func(ctx context.Context) (any, error)) error {
	if c.cache == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "failed to marshal market data")
		}
		return json.Unmarshal(data, dest)
	}
	return c.cache.GetOrSet(ctx, key, dest, c.cacheTTL, loader)
}

func (c *Client) get(ctx context.Context, path string, params map[string]string, out any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeMarketDataUnavailable, "failed to build request url")
	}
	if len(params) > 0 {
		q := u.Query()
		for k, v := range params {
			q.Set("spec."+k, v)
		}
		u.RawQuery = q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeMarketDataUnavailable, "failed to build request")
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errors.Wrap(err, errors.ErrCodeTimeout, "market-data request timed out")
		}
		return errors.Wrap(err, errors.ErrCodeMarketDataUnavailable, "market-data request failed")
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return errors.New(errors.ErrCodeNotFound, "market data not available for product")
	case resp.StatusCode == http.StatusTooManyRequests:
		return errors.New(errors.ErrCodeTooManyRequests, "market-data rate limit exceeded")
	case resp.StatusCode >= 400:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return errors.New(errors.ErrCodeMarketDataUnavailable, "market-data request rejected").
			WithDetail(fmt.Sprintf("status %d: %s", resp.StatusCode, body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, errors.ErrCodeMarketDataInvalid, "failed to decode market-data response")
	}

	c.log.Debug("market-data call complete",
		logging.String("path", path),
		logging.Int("status", resp.StatusCode),
		logging.Duration("took", time.Since(start)))
	return nil
}

// specsFingerprint folds the spec map into a stable short hash so cache keys
// stay bounded regardless of spec size.
func specsFingerprint(specs map[string]string) string {
	if len(specs) == 0 {
		return "none"
	}
	keys := make([]string, 0, len(specs))
	for k := range specs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, k := range keys {
		_, _ = h.Write([]byte(k))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(specs[k]))
		_, _ = h.Write([]byte{0})
	}
	return fmt.Sprintf("%016x", h.Sum64())
}
