package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/orderdocs/order-resolver/pkg/resolver"
	"github.com/orderdocs/order-resolver/pkg/search"
)

// fakeEngine substitutes the resolution engine in handler tests.
type fakeEngine struct {
	result    *resolver.Result
	err       error
	lastInput string
	lastToken string
}

func (f *fakeEngine) Resolve(ctx context.Context, rawText, token string) (*resolver.Result, error) {
	f.lastInput = rawText
	f.lastToken = token
	return f.result, f.err
}

func TestHealthEndpoint(t *testing.T) {
	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()

	healthHandler(w, req)

	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}

	if string(body) != "OK" {
		t.Errorf("Expected body 'OK', got %s", string(body))
	}
}

func TestResolveEndpoint(t *testing.T) {
	eng := &fakeEngine{result: &resolver.Result{
		IDs:        []int64{101, 103},
		EncodedIDs: "101%2C103",
		NotFound:   []string{"9002"},
	}}

	body := `{"input": "9001 9002 9003", "token": "tok-abc"}`
	req := httptest.NewRequest("POST", "/v1/resolve", strings.NewReader(body))
	w := httptest.NewRecorder()

	resolveHandler(eng)(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}

	var result resolver.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}

	if result.EncodedIDs != "101%2C103" {
		t.Errorf("EncodedIDs = %q, want %q", result.EncodedIDs, "101%2C103")
	}
	if eng.lastInput != "9001 9002 9003" {
		t.Errorf("engine input = %q, want the request input", eng.lastInput)
	}
	if eng.lastToken != "tok-abc" {
		t.Errorf("engine token = %q, want %q", eng.lastToken, "tok-abc")
	}
}

func TestResolveEndpoint_AuthorizationHeaderWins(t *testing.T) {
	eng := &fakeEngine{result: &resolver.Result{IDs: []int64{}, NotFound: []string{}}}

	req := httptest.NewRequest("POST", "/v1/resolve",
		strings.NewReader(`{"input": "9001", "token": "body-token"}`))
	req.Header.Set("Authorization", "Bearer header-token")
	w := httptest.NewRecorder()

	resolveHandler(eng)(w, req)

	if eng.lastToken != "header-token" {
		t.Errorf("engine token = %q, want the Authorization header token", eng.lastToken)
	}
}

func TestResolveEndpoint_Unauthorized(t *testing.T) {
	eng := &fakeEngine{err: search.ErrUnauthorized}

	req := httptest.NewRequest("POST", "/v1/resolve",
		strings.NewReader(`{"input": "9001", "token": "stale"}`))
	w := httptest.NewRecorder()

	resolveHandler(eng)(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401, got %d", w.Result().StatusCode)
	}
}

func TestResolveEndpoint_WrappedUnauthorized(t *testing.T) {
	eng := &fakeEngine{err: errors.Join(errors.New("batch 2"), search.ErrUnauthorized)}

	req := httptest.NewRequest("POST", "/v1/resolve",
		strings.NewReader(`{"input": "9001"}`))
	w := httptest.NewRecorder()

	resolveHandler(eng)(w, req)

	if w.Result().StatusCode != http.StatusUnauthorized {
		t.Errorf("Expected status 401 for wrapped error, got %d", w.Result().StatusCode)
	}
}

func TestResolveEndpoint_BadRequest(t *testing.T) {
	eng := &fakeEngine{}

	req := httptest.NewRequest("POST", "/v1/resolve", strings.NewReader(`{"input":`))
	w := httptest.NewRecorder()

	resolveHandler(eng)(w, req)

	if w.Result().StatusCode != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Result().StatusCode)
	}
}

func TestResolveEndpoint_MethodNotAllowed(t *testing.T) {
	eng := &fakeEngine{}

	req := httptest.NewRequest("GET", "/v1/resolve", nil)
	w := httptest.NewRecorder()

	resolveHandler(eng)(w, req)

	if w.Result().StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("Expected status 405, got %d", w.Result().StatusCode)
	}
}
