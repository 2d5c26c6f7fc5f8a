package search

import (
	"fmt"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sarychlabs/sarychdb/domain/record"
)

func numberedRecords(n int) []record.Record {
	records := make([]record.Record, n)
	for i := 0; i < n; i++ {
		records[i] = record.Record{"n": i, "sku": fmt.Sprintf("P%04d", i)}
	}
	return records
}

func TestSplitRoughlyEqualChunks(t *testing.T) {
	shards := Split(numberedRecords(10), 3)

	require.Len(t, shards, 3)
	assert.Len(t, shards[0], 4)
	assert.Len(t, shards[1], 4)
	assert.Len(t, shards[2], 2)
}

func TestSplitPreservesOrder(t *testing.T) {
	shards := Split(numberedRecords(25), 4)

	i := 0
	for _, shard := range shards {
		for _, rec := range shard {
			assert.Equal(t, i, rec["n"])
			i++
		}
	}
	assert.Equal(t, 25, i, "every record lands in exactly one shard")
}

func TestSplitFewerRecordsThanShards(t *testing.T) {
	shards := Split(numberedRecords(2), 8)

	require.Len(t, shards, 2, "never emits empty shards")
	assert.Len(t, shards[0], 1)
	assert.Len(t, shards[1], 1)
}

func TestSplitZeroUsesHardwareParallelism(t *testing.T) {
	shards := Split(numberedRecords(1000), 0)

	require.NotEmpty(t, shards)
	assert.LessOrEqual(t, len(shards), runtime.NumCPU())
}

func TestSplitEmpty(t *testing.T) {
	assert.Nil(t, Split(nil, 4))
}
