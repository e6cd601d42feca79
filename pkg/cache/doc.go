// Package cache provides a Redis-backed cache for upstream search pages.
//
// The order-search upstream sends no cache validators (no ETag, no expires),
// so entries are stored with a fixed short TTL. A cache hit skips the HTTP
// round trip for a page whose exact query (token set, page index, page size)
// was fetched recently, which matters when users re-run a resolution with an
// overlapping token list.
//
// # Basic Usage
//
//	// Create Redis client
//	redisClient := redis.NewClient(&redis.Options{
//		Addr: "localhost:6379",
//	})
//
//	// Create cache manager with a 30 second TTL
//	manager := cache.NewManager(redisClient, 30*time.Second)
//
//	// Create cache key from the page query
//	key := cache.Key{
//		Endpoint: "/orders/search",
//		Query:    url.Values{"search": []string{"9001,9002"}, "page": []string{"0"}},
//	}
//
//	// Get from cache
//	body, err := manager.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// Cache miss - fetch from upstream, then manager.Set(ctx, key, body)
//	}
//
// # Metrics
//
// The cache manager exports Prometheus metrics:
//
//   - resolver_cache_hits_total{layer="redis"} - Cache hits
//   - resolver_cache_misses_total - Cache misses
//   - resolver_cache_errors_total{operation} - Cache operation errors
package cache
