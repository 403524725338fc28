// Package batch partitions selected content into bounded, ordered
// batches for model invocation.
package batch

// Chunk splits items into ordered batches of at most size elements,
// preserving item order. The final batch may be short. A positive
// maxBatches caps how many batches are produced; items beyond the cap
// are left out and remain selectable on the next run.
func Chunk[T any](items []T, size, maxBatches int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = 1
	}

	var batches [][]T
	for start := 0; start < len(items); start += size {
		if maxBatches > 0 && len(batches) == maxBatches {
			break
		}
		end := min(start+size, len(items))
		batches = append(batches, items[start:end:end])
	}
	return batches
}
