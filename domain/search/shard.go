package search

import (
	"runtime"

	"github.com/sarychlabs/sarychdb/domain/record"
)

// Split partitions records into up to n contiguous, roughly equal shards,
// preserving insertion order within and across shards. n = 0 means one
// shard per available CPU. Shards alias the input backing array; callers
// treat them as read-only.
func Split(records []record.Record, n int) [][]record.Record {
	if n <= 0 {
		n = runtime.NumCPU()
	}
	if len(records) == 0 {
		return nil
	}

	chunk := (len(records) + n - 1) / n
	shards := make([][]record.Record, 0, n)
	for start := 0; start < len(records); start += chunk {
		end := start + chunk
		if end > len(records) {
			end = len(records)
		}
		shards = append(shards, records[start:end])
	}
	return shards
}
