package main

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"

	"github.com/orderdocs/order-resolver/pkg/batch"
	"github.com/orderdocs/order-resolver/pkg/cache"
	"github.com/orderdocs/order-resolver/pkg/logging"
	"github.com/orderdocs/order-resolver/pkg/ratelimit"
	"github.com/orderdocs/order-resolver/pkg/resolver"
	"github.com/orderdocs/order-resolver/pkg/search"
)

// setConfigDefaults registers every configuration key with its default.
func setConfigDefaults() {
	viper.SetDefault("upstream.base_url", "")
	viper.SetDefault("upstream.marketplace_id", search.DefaultMarketplaceID)
	viper.SetDefault("upstream.batch_timeout", search.DefaultBatchTimeout)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("cache.ttl", cache.DefaultTTL)
	viper.SetDefault("rate_limit.rps", ratelimit.DefaultRequestsPerSecond)
	viper.SetDefault("resolve.batch_size", batch.DefaultSize)
	viper.SetDefault("resolve.concurrency", resolver.DefaultConcurrency)
	viper.SetDefault("serve.addr", ":8080")
}

// buildResolver wires the engine from configuration: the search client plus,
// when a Redis address is configured, the shared page cache and request
// budget.
func buildResolver() (*resolver.Resolver, error) {
	baseURL := viper.GetString("upstream.base_url")
	if baseURL == "" {
		return nil, fmt.Errorf("upstream.base_url is required (ORDER_RESOLVER_UPSTREAM_BASE_URL)")
	}

	searchCfg := search.DefaultConfig(baseURL)
	searchCfg.MarketplaceID = viper.GetString("upstream.marketplace_id")
	if timeout := viper.GetDuration("upstream.batch_timeout"); timeout > 0 {
		searchCfg.BatchTimeout = timeout
	}

	if addr := viper.GetString("redis.addr"); addr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: addr})
		searchCfg.Cache = cache.NewManager(redisClient, viper.GetDuration("cache.ttl"))
		searchCfg.Limiter = ratelimit.NewLimiter(redisClient,
			viper.GetInt("rate_limit.rps"), logging.NewLogger("ratelimit"))
	} else {
		// Without Redis the request budget is process-local.
		searchCfg.Limiter = ratelimit.NewLimiter(nil,
			viper.GetInt("rate_limit.rps"), logging.NewLogger("ratelimit"))
	}

	searchClient, err := search.New(searchCfg)
	if err != nil {
		return nil, fmt.Errorf("create search client: %w", err)
	}

	return resolver.New(searchClient, resolver.Config{
		BatchSize:   viper.GetInt("resolve.batch_size"),
		Concurrency: viper.GetInt("resolve.concurrency"),
	}), nil
}

// shutdownTimeout bounds graceful HTTP server shutdown.
const shutdownTimeout = 10 * time.Second
