package search

import (
	"sync"

	"github.com/sarychlabs/sarychdb/domain/record"
)

// DefaultParallelThreshold is the dataset size below which a search runs
// sequentially. Fan-out overhead dominates on small databases.
const DefaultParallelThreshold = 1000

// Executor evaluates the matcher over a record sequence, choosing between
// sequential and sharded parallel execution by dataset size. Both paths
// produce identical output order.
type Executor struct {
	threshold int
}

// NewExecutor creates an executor. threshold = 0 selects the default.
func NewExecutor(threshold int) *Executor {
	if threshold <= 0 {
		threshold = DefaultParallelThreshold
	}
	return &Executor{threshold: threshold}
}

// Run returns the records matching query under mode, in database order.
// An empty query returns a copy of every record without consulting the
// matcher.
func (e *Executor) Run(records []record.Record, query string, mode Mode) []record.Record {
	if query == "" {
		return record.CloneSlice(records)
	}

	if len(records) < e.threshold {
		return searchShard(records, query, mode)
	}

	shards := Split(records, 0)
	results := make([][]record.Record, len(shards))

	var wg sync.WaitGroup
	for i, shard := range shards {
		wg.Add(1)
		go func(i int, shard []record.Record) {
			defer wg.Done()
			results[i] = searchShard(shard, query, mode)
		}(i, shard)
	}
	wg.Wait()

	// Concatenating in shard order restores database order.
	var matched []record.Record
	for _, part := range results {
		matched = append(matched, part...)
	}
	return matched
}

func searchShard(shard []record.Record, query string, mode Mode) []record.Record {
	var matched []record.Record
	for _, r := range shard {
		if Matches(r, query, mode) {
			matched = append(matched, r)
		}
	}
	return matched
}
