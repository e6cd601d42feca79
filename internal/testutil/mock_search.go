// Package testutil provides testing utilities for the order resolver.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
)

// Order is one upstream order fixture: the internal numeric record id and
// the business-facing order identifier echoed back by the search endpoint.
type Order struct {
	ID      int64
	OrderID string
}

// MockSearch is a configurable mock upstream order-search server. The
// default handler serves real pagination over a fixture order set, honoring
// the size and page query parameters and reporting a total count.
type MockSearch struct {
	server *httptest.Server

	mu           sync.Mutex
	orders       []Order
	handlers     map[string]http.HandlerFunc
	requireToken string
	failStatus   int

	requestCount int
	lastQuery    map[string][]string
}

// NewMockSearch creates a new mock upstream server.
func NewMockSearch() *MockSearch {
	mock := &MockSearch{
		handlers: make(map[string]http.HandlerFunc),
	}

	mock.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mock.mu.Lock()
		mock.requestCount++
		mock.lastQuery = r.URL.Query()
		handler, hasCustom := mock.handlers[r.URL.Path]
		requireToken := mock.requireToken
		failStatus := mock.failStatus
		mock.mu.Unlock()

		if requireToken != "" && r.Header.Get("Authorization") != "Bearer "+requireToken {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		if failStatus != 0 {
			w.WriteHeader(failStatus)
			return
		}

		if hasCustom {
			handler(w, r)
			return
		}

		mock.defaultHandler(w, r)
	}))

	return mock
}

// URL returns the mock server URL.
func (m *MockSearch) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockSearch) Close() {
	m.server.Close()
}

// Reset clears tracking counters and failure injection.
func (m *MockSearch) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount = 0
	m.lastQuery = nil
	m.failStatus = 0
	m.requireToken = ""
}

// SetOrders replaces the fixture order set served by the default handler.
func (m *MockSearch) SetOrders(orders []Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders = orders
}

// SetHandler installs a custom handler for a path, bypassing the fixtures.
func (m *MockSearch) SetHandler(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers[path] = handler
}

// RequireToken makes the server reject requests whose bearer token differs.
func (m *MockSearch) RequireToken(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requireToken = token
}

// SetFailStatus makes every request answer with the given HTTP status.
func (m *MockSearch) SetFailStatus(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failStatus = status
}

// GetRequestCount returns the number of requests received.
func (m *MockSearch) GetRequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requestCount
}

// LastQuery returns the query parameters of the most recent request.
func (m *MockSearch) LastQuery() map[string][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastQuery
}

// defaultHandler serves a paginated slice of the fixture orders matching the
// searched tokens.
func (m *MockSearch) defaultHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	size, err := strconv.Atoi(q.Get("size"))
	if err != nil || size <= 0 {
		size = 50
	}
	pageNum, err := strconv.Atoi(q.Get("page"))
	if err != nil || pageNum < 0 {
		pageNum = 0
	}

	searched := make(map[string]struct{})
	for _, tok := range strings.Split(q.Get("search"), ",") {
		if tok != "" {
			searched[tok] = struct{}{}
		}
	}

	m.mu.Lock()
	var matched []Order
	for _, o := range m.orders {
		if _, ok := searched[o.OrderID]; ok {
			matched = append(matched, o)
		}
	}
	m.mu.Unlock()

	start := pageNum * size
	if start > len(matched) {
		start = len(matched)
	}
	end := start + size
	if end > len(matched) {
		end = len(matched)
	}

	items := make([]map[string]any, 0, end-start)
	for _, o := range matched[start:end] {
		items = append(items, map[string]any{
			"id":       o.ID,
			"order_id": o.OrderID,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"items": items,
		"total": len(matched),
	})
}
