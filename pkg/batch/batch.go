// Package batch partitions token sequences into size-bounded batches so a
// single search query stays under the upstream URL length limit.
package batch

// DefaultSize is the default maximum number of tokens per batch. It keeps the
// comma-joined search parameter comfortably below typical URL length caps.
const DefaultSize = 450

// Partition splits tokens into contiguous chunks of at most size tokens,
// preserving order within and across chunks. A non-positive size falls back
// to DefaultSize. Empty input yields no batches.
func Partition(tokens []string, size int) [][]string {
	if size <= 0 {
		size = DefaultSize
	}
	if len(tokens) == 0 {
		return nil
	}

	batches := make([][]string, 0, (len(tokens)+size-1)/size)
	for start := 0; start < len(tokens); start += size {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}
		batches = append(batches, tokens[start:end])
	}

	return batches
}
