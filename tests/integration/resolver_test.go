// Package integration exercises the full resolution flow: normalization,
// batching, windowed fetch against a mock upstream, Redis-backed page cache
// and request budget, and reconciliation.
package integration

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/orderdocs/order-resolver/internal/testutil"
	"github.com/orderdocs/order-resolver/pkg/cache"
	"github.com/orderdocs/order-resolver/pkg/ratelimit"
	"github.com/orderdocs/order-resolver/pkg/resolver"
	"github.com/orderdocs/order-resolver/pkg/search"
)

// setupRedis creates a Redis container for integration testing.
func setupRedis(t *testing.T) (*redis.Client, func()) {
	t.Helper()

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start Redis container: %v", err)
	}

	host, err := container.Host(ctx)
	if err != nil {
		t.Fatalf("Failed to get container host: %v", err)
	}

	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		t.Fatalf("Failed to get container port: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: host + ":" + port.Port(),
	})

	cleanup := func() {
		redisClient.Close()
		container.Terminate(ctx)
	}

	return redisClient, cleanup
}

func newEngine(t *testing.T, mock *testutil.MockSearch, redisClient *redis.Client, batchSize int) *resolver.Resolver {
	t.Helper()

	cfg := search.DefaultConfig(mock.URL())
	cfg.Cache = cache.NewManager(redisClient, time.Minute)
	cfg.Limiter = ratelimit.NewLimiter(redisClient, 100, zerolog.Nop())

	client, err := search.New(cfg)
	if err != nil {
		t.Fatalf("Failed to create search client: %v", err)
	}

	return resolver.New(client, resolver.Config{BatchSize: batchSize, Concurrency: 2})
}

// TestFullResolutionFlow runs raw input end to end through the engine with
// the Redis-backed collaborators in place.
func TestFullResolutionFlow(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockSearch()
	defer mock.Close()
	mock.SetOrders([]testutil.Order{
		{ID: 101, OrderID: "9001"},
		{ID: 102, OrderID: "9002"},
		{ID: 104, OrderID: "9004"},
	})
	mock.RequireToken("valid-token")

	// Batch size 2 forces two batches, so reconciliation spans batches.
	eng := newEngine(t, mock, redisClient, 2)

	result, err := eng.Resolve(context.Background(), "9001, 9002\n9003 9004", "valid-token")
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	if !reflect.DeepEqual(result.IDs, []int64{101, 102, 104}) {
		t.Errorf("IDs = %v, want [101 102 104]", result.IDs)
	}
	if result.EncodedIDs != "101%2C102%2C104" {
		t.Errorf("EncodedIDs = %q, want %q", result.EncodedIDs, "101%2C102%2C104")
	}
	if !reflect.DeepEqual(result.NotFound, []string{"9003"}) {
		t.Errorf("NotFound = %v, want [9003]", result.NotFound)
	}
	if len(result.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", result.Warnings)
	}
}

// TestRepeatedRunServedFromCache verifies the second identical run hits the
// Redis page cache instead of the upstream.
func TestRepeatedRunServedFromCache(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockSearch()
	defer mock.Close()
	mock.SetOrders([]testutil.Order{
		{ID: 201, OrderID: "7001"},
		{ID: 202, OrderID: "7002"},
	})

	eng := newEngine(t, mock, redisClient, 450)

	first, err := eng.Resolve(context.Background(), "7001 7002", "tok")
	if err != nil {
		t.Fatalf("First resolve failed: %v", err)
	}
	upstreamHits := mock.GetRequestCount()
	if upstreamHits == 0 {
		t.Fatal("first run made no upstream requests")
	}

	second, err := eng.Resolve(context.Background(), "7001 7002", "tok")
	if err != nil {
		t.Fatalf("Second resolve failed: %v", err)
	}

	if mock.GetRequestCount() != upstreamHits {
		t.Errorf("second run hit upstream %d more times, want 0 (cache)",
			mock.GetRequestCount()-upstreamHits)
	}
	if !reflect.DeepEqual(first.IDs, second.IDs) {
		t.Errorf("cached run IDs = %v, want %v", second.IDs, first.IDs)
	}
}

// TestUnauthorizedAbortsRun verifies a stale token fails the whole run.
func TestUnauthorizedAbortsRun(t *testing.T) {
	redisClient, cleanup := setupRedis(t)
	defer cleanup()

	mock := testutil.NewMockSearch()
	defer mock.Close()
	mock.RequireToken("valid-token")

	eng := newEngine(t, mock, redisClient, 1)

	_, err := eng.Resolve(context.Background(), "9001 9002 9003", "stale-token")
	if !errors.Is(err, search.ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}
