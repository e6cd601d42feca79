package resolver

import (
	"strconv"
	"strings"

	"github.com/orderdocs/order-resolver/pkg/search"
)

// IDSeparator joins encoded ids. It is the percent-encoded comma, written
// out literally so the downstream document collaborator can use the string
// as an already-encoded query value without re-encoding.
const IDSeparator = "%2C"

// Result is the engine's output for one resolution run.
type Result struct {
	// IDs are the matched internal record ids, unique, in first-occurrence
	// order across all batches and pages.
	IDs []int64 `json:"ids"`

	// EncodedIDs is the decimal ids joined by the literal %2C separator,
	// with no surrounding whitespace and no trailing separator.
	EncodedIDs string `json:"ids_encoded"`

	// NotFound lists the input tokens no record matched, in input order.
	NotFound []string `json:"not_found"`

	// Warnings describes batches that failed and were reconciled as
	// unmatched (best-effort policy). Empty on a clean run.
	Warnings []string `json:"warnings,omitempty"`
}

// EncodeIDs renders ids as decimal strings joined by IDSeparator.
func EncodeIDs(ids []int64) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.FormatInt(id, 10)
	}
	return strings.Join(parts, IDSeparator)
}

// batchOutcome is one batch's fetch result or failure.
type batchOutcome struct {
	result *search.BatchResult
	err    error
}

// reconcile merges all batch outcomes into the final result. It operates
// globally: ids are deduplicated first-seen in logical order (batch index,
// then page/item order inside each batch), and a token counts as found when
// any record anywhere echoed it, regardless of which batch searched for it.
func reconcile(tokens []string, outcomes []batchOutcome) *Result {
	seenIDs := make(map[int64]struct{})
	found := make(map[string]struct{})

	result := &Result{
		IDs:      []int64{},
		NotFound: []string{},
	}

	for i, outcome := range outcomes {
		if outcome.err != nil {
			// Best-effort policy: the failed batch contributes no records and
			// its tokens fall through to NotFound below.
			result.Warnings = append(result.Warnings,
				"batch "+strconv.Itoa(i)+": "+outcome.err.Error())
			continue
		}

		for _, rec := range outcome.result.Records {
			if id, ok := rec.NumericID(); ok {
				if _, dup := seenIDs[id]; !dup {
					seenIDs[id] = struct{}{}
					result.IDs = append(result.IDs, id)
				}
			}
			if tok, ok := rec.EchoedToken(); ok {
				found[tok] = struct{}{}
			}
		}
	}

	for _, tok := range tokens {
		if _, ok := found[tok]; !ok {
			result.NotFound = append(result.NotFound, tok)
		}
	}

	result.EncodedIDs = EncodeIDs(result.IDs)
	return result
}
