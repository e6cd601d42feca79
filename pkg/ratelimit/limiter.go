// Package ratelimit implements a client-side request budget for the upstream
// order-search API. The upstream enforces a per-client request rate but
// publishes no budget headers, so the limiter counts outbound requests in
// fixed one-second windows and throttles before the upstream starts
// rejecting. Window state lives in Redis when available so the budget is
// shared across resolver instances; without Redis a process-local window is
// used.
package ratelimit

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Prometheus metrics for request budget tracking.
var (
	rateLimitThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolver_rate_limit_throttles_total",
		Help: "Total number of upstream requests delayed by the request budget",
	})

	rateLimitWindowUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "resolver_rate_limit_window_requests",
		Help: "Requests counted in the current rate limit window",
	})
)

// redisKeyPrefix is the key prefix for per-window counters in Redis.
const redisKeyPrefix = "resolver:rate_limit:window:"

// DefaultRequestsPerSecond is the default upstream request budget.
const DefaultRequestsPerSecond = 10

// Limiter gates upstream requests against a per-second budget.
type Limiter struct {
	redis  *redis.Client // nil for process-local limiting
	rps    int
	logger zerolog.Logger

	mu          sync.Mutex
	windowStart int64
	windowCount int

	// now is swappable for tests.
	now func() time.Time
}

// NewLimiter creates a request budget limiter. redisClient may be nil, in
// which case the window counter is process-local. A non-positive rps falls
// back to DefaultRequestsPerSecond.
func NewLimiter(redisClient *redis.Client, rps int, logger zerolog.Logger) *Limiter {
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	return &Limiter{
		redis:  redisClient,
		rps:    rps,
		logger: logger,
		now:    time.Now,
	}
}

// Allow reports whether one more upstream request fits in the current
// one-second window, consuming budget when it does.
func (l *Limiter) Allow(ctx context.Context) (bool, error) {
	now := l.now().Unix()

	if l.redis == nil {
		return l.allowLocal(now), nil
	}

	key := redisKeyPrefix + strconv.FormatInt(now, 10)
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return false, fmt.Errorf("rate limit incr: %w", err)
	}
	if count == 1 {
		// Window key lives slightly past its second to survive clock skew
		// between resolver instances.
		if err := l.redis.Expire(ctx, key, 2*time.Second).Err(); err != nil {
			l.logger.Warn().Err(err).Msg("Failed to set rate limit window expiry")
		}
	}

	rateLimitWindowUsage.Set(float64(count))
	return count <= int64(l.rps), nil
}

// allowLocal is the in-process fallback window counter.
func (l *Limiter) allowLocal(now int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if now != l.windowStart {
		l.windowStart = now
		l.windowCount = 0
	}
	l.windowCount++

	rateLimitWindowUsage.Set(float64(l.windowCount))
	return l.windowCount <= l.rps
}

// Wait blocks until the budget admits one request or the context ends.
func (l *Limiter) Wait(ctx context.Context) error {
	for {
		allowed, err := l.Allow(ctx)
		if err != nil {
			return err
		}
		if allowed {
			return nil
		}

		rateLimitThrottlesTotal.Inc()
		l.logger.Debug().
			Int("rps", l.rps).
			Msg("Request budget exhausted, waiting for next window")

		// Sleep to the next window boundary.
		delay := l.now().Truncate(time.Second).Add(time.Second).Sub(l.now())
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
}
