// Package resolver implements the batch order resolution engine: it
// normalizes raw identifier input, partitions it into batches, fans the
// batches out to the upstream search client under a bounded concurrency
// window, and reconciles all results into one resolution.
package resolver

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/orderdocs/order-resolver/pkg/batch"
	"github.com/orderdocs/order-resolver/pkg/normalize"
	"github.com/orderdocs/order-resolver/pkg/search"
)

// Prometheus metrics for resolution runs.
var (
	resolveRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "resolver_runs_total",
		Help: "Total resolution runs by result",
	}, []string{"result"}) // "ok", "partial", "unauthorized", "empty"

	resolveRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "resolver_run_duration_seconds",
		Help:    "Resolution run duration in seconds",
		Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60},
	})

	resolveBatchFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "resolver_batch_failures_total",
		Help: "Batches that failed and were reconciled as unmatched",
	})
)

// DefaultConcurrency is the default number of batches in flight at once.
const DefaultConcurrency = 6

// Config holds the engine configuration.
type Config struct {
	// BatchSize is the maximum number of tokens per search batch.
	BatchSize int

	// Concurrency is the scheduling window: at most this many batch fetches
	// run at the same time, and the next window starts only after the whole
	// current window finished.
	Concurrency int
}

// DefaultConfig returns a safe default engine configuration.
func DefaultConfig() Config {
	return Config{
		BatchSize:   batch.DefaultSize,
		Concurrency: DefaultConcurrency,
	}
}

// Searcher fetches one batch's records from the upstream. *search.Client
// implements it; tests substitute fakes.
type Searcher interface {
	FetchBatch(ctx context.Context, batch []string, token string) (*search.BatchResult, error)
}

// Resolver is the batch order resolution engine.
type Resolver struct {
	searcher Searcher
	config   Config
	logger   zerolog.Logger
}

// New creates a resolver around a search client.
func New(searcher Searcher, cfg Config) *Resolver {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = batch.DefaultSize
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	return &Resolver{
		searcher: searcher,
		config:   cfg,
		logger:   log.With().Str("component", "resolver").Logger(),
	}
}

// Resolve turns raw identifier input into the set of matching internal
// record ids. Empty or whitespace-only input returns an empty result without
// any upstream call. search.ErrUnauthorized from any batch fails the whole
// run; every other batch failure degrades to that batch's tokens being
// reported unmatched, with a warning on the result.
func (r *Resolver) Resolve(ctx context.Context, rawText, token string) (*Result, error) {
	start := time.Now()
	defer func() {
		resolveRunDuration.Observe(time.Since(start).Seconds())
	}()

	tokens := normalize.Tokens(rawText)
	if len(tokens) == 0 {
		resolveRunsTotal.WithLabelValues("empty").Inc()
		return &Result{IDs: []int64{}, NotFound: []string{}}, nil
	}

	batches := batch.Partition(tokens, r.config.BatchSize)

	r.logger.Info().
		Int("tokens", len(tokens)).
		Int("batches", len(batches)).
		Int("concurrency", r.config.Concurrency).
		Msg("Starting resolution run")

	outcomes := make([]batchOutcome, len(batches))

	// Fixed scheduling windows: fill a window, wait for all of it, then move
	// on. Each batch task owns its outcome slot, so no lock is needed.
	for windowStart := 0; windowStart < len(batches); windowStart += r.config.Concurrency {
		windowEnd := windowStart + r.config.Concurrency
		if windowEnd > len(batches) {
			windowEnd = len(batches)
		}

		var wg sync.WaitGroup
		for i := windowStart; i < windowEnd; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				res, err := r.searcher.FetchBatch(ctx, batches[i], token)
				outcomes[i] = batchOutcome{result: res, err: err}
			}(i)
		}
		wg.Wait()

		// Token rejection is fatal to the run: the caller has to
		// re-authenticate, sibling results would be thrown away anyway.
		for i := windowStart; i < windowEnd; i++ {
			if errors.Is(outcomes[i].err, search.ErrUnauthorized) {
				resolveRunsTotal.WithLabelValues("unauthorized").Inc()
				r.logger.Warn().Int("batch", i).Msg("Resolution aborted, upstream rejected token")
				return nil, outcomes[i].err
			}
		}
	}

	result := reconcile(tokens, outcomes)

	for _, w := range result.Warnings {
		resolveBatchFailuresTotal.Inc()
		r.logger.Warn().Str("warning", w).Msg("Batch failed, tokens reported unmatched")
	}

	runResult := "ok"
	if len(result.Warnings) > 0 {
		runResult = "partial"
	}
	resolveRunsTotal.WithLabelValues(runResult).Inc()

	r.logger.Info().
		Int("matched_ids", len(result.IDs)).
		Int("not_found", len(result.NotFound)).
		Int("failed_batches", len(result.Warnings)).
		Dur("duration", time.Since(start)).
		Msg("Resolution run complete")

	return result, nil
}
