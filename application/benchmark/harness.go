package benchmark

import (
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/ohler55/ojg/oj"

	"github.com/sarychlabs/sarychdb/domain/record"
	"github.com/sarychlabs/sarychdb/domain/search"
)

// Options configures a benchmark run.
type Options struct {
	// DatasetPath is a JSON-array file to load. When the file is missing a
	// synthetic dataset of Records documents is generated and written there
	// so later runs are comparable.
	DatasetPath string
	Records     int
	Queries     []string
	Shards      int
}

// Run loads (or generates) the dataset, shards it, and times the three
// search strategies for every query: centralized over one flat sequence,
// sequential over the shards, and parallel over the shards.
func Run(opts Options) error {
	if opts.Records <= 0 {
		opts.Records = 100000
	}
	if len(opts.Queries) == 0 {
		opts.Queries = []string{"P1605"}
	}

	records, err := loadDataset(opts)
	if err != nil {
		return err
	}
	fmt.Printf("Total records: %d\n", len(records))

	shards := search.Split(records, opts.Shards)
	fmt.Printf("Shards: %d\n", len(shards))

	for _, query := range opts.Queries {
		fmt.Printf("\nBenchmark for query %q\n", query)

		start := time.Now()
		r1 := centralizedSearch(records, query)
		t1 := time.Since(start)

		start = time.Now()
		r2 := sequentialSearch(shards, query)
		t2 := time.Since(start)

		start = time.Now()
		r3 := parallelSearch(shards, query)
		t3 := time.Since(start)

		fmt.Printf("Centralized:          %d results in %d ms\n", len(r1), t1.Milliseconds())
		fmt.Printf("Sequential multishard: %d results in %d ms\n", len(r2), t2.Milliseconds())
		fmt.Printf("Parallel multishard:   %d results in %d ms\n", len(r3), t3.Milliseconds())
	}
	return nil
}

func loadDataset(opts Options) ([]record.Record, error) {
	if opts.DatasetPath != "" {
		if data, err := os.ReadFile(opts.DatasetPath); err == nil {
			fmt.Printf("Loading %s...\n", opts.DatasetPath)
			return parseDataset(data)
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read dataset: %w", err)
		}
	}

	fmt.Printf("Generating %d synthetic records...\n", opts.Records)
	records := generate(opts.Records)

	if opts.DatasetPath != "" {
		if err := os.WriteFile(opts.DatasetPath, []byte(oj.JSON(records)), 0o644); err != nil {
			return nil, fmt.Errorf("write dataset: %w", err)
		}
	}
	return records, nil
}

func parseDataset(data []byte) ([]record.Record, error) {
	parsed, err := oj.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse dataset: %w", err)
	}
	elements, ok := parsed.([]interface{})
	if !ok {
		return nil, fmt.Errorf("dataset must be a top-level JSON array")
	}

	records := make([]record.Record, 0, len(elements))
	for _, elem := range elements {
		obj, ok := elem.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("dataset elements must be JSON objects")
		}
		records = append(records, record.Record(obj))
	}
	return records, nil
}

var categories = []string{"electronics", "books", "garden", "toys", "grocery"}

func generate(n int) []record.Record {
	records := make([]record.Record, n)
	for i := 0; i < n; i++ {
		records[i] = record.Record{
			"sku":      fmt.Sprintf("P%04d", i%10000),
			"name":     fmt.Sprintf("product-%d", i),
			"category": categories[i%len(categories)],
			"price":    int64(i%500) + 1,
			"in_stock": i%3 != 0,
		}
	}
	return records
}

func centralizedSearch(records []record.Record, query string) []record.Record {
	var matched []record.Record
	for _, r := range records {
		if search.Matches(r, query, search.ModeDefault) {
			matched = append(matched, r)
		}
	}
	return matched
}

func sequentialSearch(shards [][]record.Record, query string) []record.Record {
	var matched []record.Record
	for _, shard := range shards {
		matched = append(matched, centralizedSearch(shard, query)...)
	}
	return matched
}

func parallelSearch(shards [][]record.Record, query string) []record.Record {
	results := make([][]record.Record, len(shards))

	var wg sync.WaitGroup
	for i, shard := range shards {
		wg.Add(1)
		go func(i int, shard []record.Record) {
			defer wg.Done()
			results[i] = centralizedSearch(shard, query)
		}(i, shard)
	}
	wg.Wait()

	var matched []record.Record
	for _, part := range results {
		matched = append(matched, part...)
	}
	return matched
}
