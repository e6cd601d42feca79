// Package metrics provides the centralized Prometheus metrics registry for
// the order resolver. All metrics are defined in their respective packages
// (resolver, search, cache, ratelimit) to maintain modularity and avoid
// circular dependencies.
//
// This package provides documentation and reference for all available metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the resolver.
// All metrics are automatically registered via promauto in their respective packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Run Metrics (pkg/resolver):
//   - resolver_runs_total{result} (Counter): Resolution runs by result (ok, partial, unauthorized, empty)
//   - resolver_run_duration_seconds (Histogram): Resolution run duration
//   - resolver_batch_failures_total (Counter): Batches reconciled as unmatched after a failure
//
// Search Metrics (pkg/search):
//   - resolver_search_requests_total{status} (Counter): Upstream page requests by HTTP status
//   - resolver_search_page_duration_seconds (Histogram): Page request duration
//   - resolver_search_batches_total{result} (Counter): Batch fetches by result
//   - resolver_search_pages_per_batch (Histogram): Pages walked per batch
//
// Cache Metrics (pkg/cache):
//   - resolver_cache_hits_total{layer="redis"} (Counter): Page cache hits
//   - resolver_cache_misses_total (Counter): Page cache misses
//   - resolver_cache_errors_total{operation} (Counter): Cache operation errors
//
// Rate Limit Metrics (pkg/ratelimit):
//   - resolver_rate_limit_throttles_total (Counter): Requests delayed by the budget
//   - resolver_rate_limit_window_requests (Gauge): Requests counted in the current window
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(resolver_cache_hits_total[5m])) /
//   (sum(rate(resolver_cache_hits_total[5m])) + sum(rate(resolver_cache_misses_total[5m])))
//
//   # Partial Run Rate
//   rate(resolver_runs_total{result="partial"}[5m]) / rate(resolver_runs_total[5m])
//
//   # P95 Page Latency
//   histogram_quantile(0.95, rate(resolver_search_page_duration_seconds_bucket[5m]))
//
//   # Upstream Error Rate
//   sum(rate(resolver_search_requests_total{status!~"2.."}[5m]))
