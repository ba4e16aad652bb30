// Package history keeps the most recent samples of a series.
package history

// DefaultCapacity is the number of samples a chart keeps.
const DefaultCapacity = 30

// Push returns buf with value appended, trimmed from the front to at most
// capacity elements. buf is never modified, so callers holding the old slice
// keep seeing the old series.
func Push[T any](buf []T, value T, capacity int) []T {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	start := 0
	if len(buf)+1 > capacity {
		start = len(buf) + 1 - capacity
	}

	result := make([]T, 0, len(buf)-start+1)
	result = append(result, buf[start:]...)
	return append(result, value)
}
