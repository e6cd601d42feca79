package search

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Record is one item from an upstream search page. The upstream schema is
// loosely typed (ids arrive as numbers or strings depending on the indexer
// path), so records stay generic and are coerced field by field at this
// boundary. Malformed fields are dropped, never propagated as type errors.
type Record map[string]any

// Upstream field names on a search record.
const (
	fieldID          = "id"
	fieldEchoedToken = "order_id"
)

// NumericID returns the record's internal numeric id. The second return is
// false when the id field is missing, non-numeric, or not a finite integer;
// such records contribute nothing to a resolution.
func (r Record) NumericID() (int64, bool) {
	return coerceInt64(r[fieldID])
}

// EchoedToken returns the order identifier echoed back by the upstream for
// this record, if present. A record without an echoed token still counts for
// id extraction but marks no input token as found.
func (r Record) EchoedToken() (string, bool) {
	switch v := r[fieldEchoedToken].(type) {
	case string:
		if v == "" {
			return "", false
		}
		return v, true
	default:
		return "", false
	}
}

// coerceInt64 accepts the numeric shapes the upstream is known to produce.
func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		if n < math.MinInt64 || n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case string:
		id, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	case json.Number:
		id, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return id, true
	default:
		return 0, false
	}
}

// page is one decoded upstream response slice.
type page struct {
	// Items holds the page's records in upstream order.
	Items []Record

	// Total is the running total count, or -1 when the upstream omitted it.
	Total int64
}

// decodePage extracts the item list and optional total count from a raw
// response body. An absent or malformed items field decodes as an empty page,
// which terminates the pagination loop.
func decodePage(body []byte) (page, error) {
	var envelope map[string]any
	if err := json.Unmarshal(body, &envelope); err != nil {
		return page{}, fmt.Errorf("decode search page: %w", err)
	}

	p := page{Total: -1}

	if items, ok := envelope["items"].([]any); ok {
		p.Items = make([]Record, 0, len(items))
		for _, it := range items {
			if m, ok := it.(map[string]any); ok {
				p.Items = append(p.Items, Record(m))
			}
		}
	}

	if total, ok := coerceInt64(envelope["total"]); ok && total >= 0 {
		p.Total = total
	}

	return p, nil
}
