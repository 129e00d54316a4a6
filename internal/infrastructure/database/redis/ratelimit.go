package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/trellisource/sourcing-intelligence/internal/infrastructure/monitoring/logging"
	"github.com/trellisource/sourcing-intelligence/pkg/errors"
)

// RateLimiter enforces a fixed-window request quota per caller key.
type RateLimiter struct {
	client *Client
	limit  int
	window time.Duration
	log    logging.Logger
}

// NewRateLimiter constructs a limiter allowing limit requests per window.
func NewRateLimiter(client *Client, limit int, window time.Duration, log logging.Logger) *RateLimiter {
	if limit < 1 {
		limit = 100
	}
	if window <= 0 {
		window = time.Minute
	}
	if log == nil {
		log = logging.NewNop()
	}
	return &RateLimiter{client: client, limit: limit, window: window, log: log}
}

// Allow records one request for key and reports whether it is within quota,
// along with the remaining allowance.  A Redis failure fails OPEN: the
// request is allowed and the failure logged, so a cache outage never takes
// the API down with it.
func (l *RateLimiter) Allow(ctx context.Context, key string) (allowed bool, remaining int, err error) {
	windowKey := fmt.Sprintf("srciq:ratelimit:%s:%d", key, time.Now().Unix()/int64(l.window.Seconds()))

	pipe := l.client.Raw().TxPipeline()
	incr := pipe.Incr(ctx, windowKey)
	pipe.Expire(ctx, windowKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		l.log.Warn("rate limiter unavailable, allowing request", logging.String("key", key), logging.Err(err))
		return true, l.limit, errors.Wrap(err, errors.ErrCodeCacheError, "rate limit check failed")
	}

	count := int(incr.Val())
	if count > l.limit {
		return false, 0, nil
	}
	return true, l.limit - count, nil
}

// Limit returns the configured per-window quota.
func (l *RateLimiter) Limit() int {
	return l.limit
}

// Window returns the configured window length.
func (l *RateLimiter) Window() time.Duration {
	return l.window
}
