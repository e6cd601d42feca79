package search

import (
	"errors"
	"fmt"
)

// Common errors returned by the search client.
var (
	// ErrUnauthorized is returned when the upstream rejects the bearer token.
	// It is fatal to the whole resolution run: the caller must re-authenticate.
	ErrUnauthorized = errors.New("upstream rejected authorization token")

	// ErrDeadline is returned when a batch's paginated retrieval exceeds its
	// wall-clock budget. It is fatal only to the owning batch.
	ErrDeadline = errors.New("batch fetch deadline exceeded")
)

// UpstreamError represents a non-401 upstream failure with its HTTP status.
type UpstreamError struct {
	StatusCode int
	Message    string
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("upstream error (status %d): %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("upstream error (status %d)", e.StatusCode)
}
