package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"net/url"
	"strings"
)

// Key identifies one cached upstream search page.
type Key struct {
	// Endpoint is the upstream path (e.g., "/orders/search")
	Endpoint string

	// Query holds the page's query parameters. The search parameter alone can
	// carry hundreds of comma-joined tokens, so the key digests the query
	// instead of embedding it.
	Query url.Values
}

// String generates a deterministic cache key string.
// Format: resolver:cache:<endpoint>:<sha256 of encoded query>
//
// url.Values.Encode sorts parameters by name, so two queries with the same
// parameters always digest to the same key regardless of construction order.
func (k Key) String() string {
	endpoint := strings.Trim(k.Endpoint, "/")

	sum := sha256.Sum256([]byte(k.Query.Encode()))
	digest := hex.EncodeToString(sum[:])

	return "resolver:cache:" + endpoint + ":" + digest
}
