// Package search provides the upstream order-search client: it turns one
// batch of order identifier tokens into the full list of matching records by
// walking the upstream's paginated search endpoint under a single wall-clock
// budget.
package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orderdocs/order-resolver/pkg/cache"
	"github.com/orderdocs/order-resolver/pkg/ratelimit"
)

// Prometheus metrics for upstream search operations.
var (
	searchRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_search_requests_total",
		Help: "Total upstream search page requests by status",
	}, []string{"status"})

	searchPageDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resolver_search_page_duration_seconds",
		Help:    "Upstream search page request duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
	})

	searchBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_search_batches_total",
		Help: "Total batch fetches by result",
	}, []string{"result"})

	searchPagesPerBatch = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resolver_search_pages_per_batch",
		Help:    "Pages walked per batch fetch",
		Buckets: []float64{1, 2, 3, 5, 10, 20},
	})
)

// Upstream constants.
const (
	// PageSizeCap is the upstream's hard limit on the size query parameter.
	PageSizeCap = 500

	// DefaultBatchTimeout bounds one batch's entire paginated retrieval.
	DefaultBatchTimeout = 30 * time.Second

	// DefaultMarketplaceID scopes requests to the primary marketplace.
	DefaultMarketplaceID = "primary"

	// searchEndpoint is the upstream search path.
	searchEndpoint = "/orders/search"

	// searchType selects order-identifier search on the upstream.
	searchType = "order_id"

	// headerMarketplace carries the marketplace scope on every request.
	headerMarketplace = "X-Marketplace-Id"
)

// Config holds the search client configuration.
type Config struct {
	// BaseURL is the upstream API root, e.g. "https://api.example.com/v2".
	BaseURL string

	// MarketplaceID is the fixed marketplace scope header value.
	MarketplaceID string

	// BatchTimeout bounds one batch's whole paginated retrieval, not one page.
	BatchTimeout time.Duration

	// HTTPClient is the transport; a default client is used when nil. The
	// client carries no timeout of its own, the batch context bounds it.
	HTTPClient *http.Client

	// Cache is an optional short-TTL page cache (nil disables caching).
	Cache *cache.Manager

	// Limiter is an optional upstream request budget (nil disables gating).
	Limiter *ratelimit.Limiter
}

// DefaultConfig returns a safe default configuration for the given upstream.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL:       baseURL,
		MarketplaceID: DefaultMarketplaceID,
		BatchTimeout:  DefaultBatchTimeout,
	}
}

// Client queries the upstream order-search API.
type Client struct {
	httpClient *http.Client
	config     Config
	logger     zerolog.Logger
}

// BatchResult is the outcome of one batch's paginated retrieval.
type BatchResult struct {
	// Records holds all items across the batch's pages, in page order.
	Records []Record

	// Requested are the tokens this batch searched for, in input order.
	Requested []string
}

// New creates a new search client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	if cfg.MarketplaceID == "" {
		cfg.MarketplaceID = DefaultMarketplaceID
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = DefaultBatchTimeout
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}

	return &Client{
		httpClient: cfg.HTTPClient,
		config:     cfg,
		logger:     log.With().Str("component", "search-client").Logger(),
	}, nil
}

// FetchBatch retrieves every record matching the batch's tokens, walking
// pages until exhaustion. One timeout spans the whole walk; on expiry the
// batch fails with ErrDeadline. A 401 fails with ErrUnauthorized, any other
// non-2xx status with *UpstreamError. The call has no side effects beyond
// the network requests.
func (c *Client) FetchBatch(ctx context.Context, batch []string, token string) (*BatchResult, error) {
	result := &BatchResult{Requested: batch}
	if len(batch) == 0 {
		return result, nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.BatchTimeout)
	defer cancel()

	size := len(batch)
	if size > PageSizeCap {
		size = PageSizeCap
	}

	start := time.Now()
	total := int64(-1)
	pages := 0

	for pageNum := 0; ; pageNum++ {
		pg, err := c.fetchPage(ctx, batch, token, size, pageNum)
		if err != nil {
			searchBatchesTotal.WithLabelValues(batchFailureLabel(err)).Inc()
			return nil, err
		}
		pages++

		result.Records = append(result.Records, pg.Items...)
		if pg.Total >= 0 {
			total = pg.Total
		}

		c.logger.Debug().
			Int("page", pageNum).
			Int("items", len(pg.Items)).
			Int64("total", total).
			Msg("Search page fetched")

		// Pagination ends on an empty page, on reaching the reported total,
		// or on a short page.
		if len(pg.Items) == 0 ||
			(total >= 0 && int64(len(result.Records)) >= total) ||
			len(pg.Items) < size {
			break
		}
	}

	searchBatchesTotal.WithLabelValues("ok").Inc()
	searchPagesPerBatch.Observe(float64(pages))

	c.logger.Debug().
		Int("tokens", len(batch)).
		Int("pages", pages).
		Int("records", len(result.Records)).
		Dur("duration", time.Since(start)).
		Msg("Batch fetch complete")

	return result, nil
}

// fetchPage issues one search page request, consulting the page cache and
// request budget when configured.
func (c *Client) fetchPage(ctx context.Context, batch []string, token string, size, pageNum int) (page, error) {
	query := url.Values{}
	query.Set("size", strconv.Itoa(size))
	query.Set("page", strconv.Itoa(pageNum))
	// The URL encoder percent-encodes the joining commas to %2C; tokens are
	// never pre-encoded here.
	query.Set("search", strings.Join(batch, ","))
	query.Set("search_type", searchType)
	query.Set("indexed", "true")

	cacheKey := cache.Key{Endpoint: searchEndpoint, Query: query}
	if c.config.Cache != nil {
		if body, err := c.config.Cache.Get(ctx, cacheKey); err == nil {
			return decodePage(body)
		} else if err != cache.ErrCacheMiss {
			c.logger.Warn().Err(err).Msg("Page cache get error")
		}
	}

	if c.config.Limiter != nil {
		if err := c.config.Limiter.Wait(ctx); err != nil {
			return page{}, c.mapTransportError(err)
		}
	}

	reqURL := c.config.BaseURL + searchEndpoint + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return page{}, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set(headerMarketplace, c.config.MarketplaceID)
	req.Header.Set("Accept", "application/json")

	reqStart := time.Now()
	resp, err := c.httpClient.Do(req)
	searchPageDuration.Observe(time.Since(reqStart).Seconds())
	if err != nil {
		searchRequestsTotal.WithLabelValues("network_error").Inc()
		return page{}, c.mapTransportError(err)
	}
	defer resp.Body.Close()

	searchRequestsTotal.WithLabelValues(strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode == http.StatusUnauthorized {
		c.logger.Warn().Int("page", pageNum).Msg("Upstream rejected token")
		return page{}, fmt.Errorf("search page %d: %w", pageNum, ErrUnauthorized)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.Warn().
			Int("page", pageNum).
			Int("status", resp.StatusCode).
			Msg("Upstream search error")
		return page{}, &UpstreamError{StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return page{}, c.mapTransportError(fmt.Errorf("read search page: %w", err))
	}

	if c.config.Cache != nil {
		if err := c.config.Cache.Set(ctx, cacheKey, body); err != nil {
			c.logger.Warn().Err(err).Msg("Page cache set error")
		}
	}

	return decodePage(body)
}

// mapTransportError converts a batch-deadline expiry into ErrDeadline and
// passes everything else through.
func (c *Client) mapTransportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrDeadline, err)
	}
	return err
}

// batchFailureLabel maps a batch failure to its metric label.
func batchFailureLabel(err error) string {
	switch {
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrDeadline):
		return "deadline"
	default:
		var ue *UpstreamError
		if errors.As(err, &ue) {
			return "upstream_error"
		}
		return "error"
	}
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
