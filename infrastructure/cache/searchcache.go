package cache

import (
	"sync"
	"time"

	"github.com/sarychlabs/sarychdb/domain/record"
	"github.com/sarychlabs/sarychdb/domain/search"
)

// Search cache bounds.
const (
	DefaultSearchTTL        = 300 * time.Second
	DefaultSearchMaxEntries = 100
)

type searchKey struct {
	path  string
	query string
	mode  search.Mode
}

type searchEntry struct {
	records   []record.Record
	expiresAt time.Time
	seq       uint64
}

// SearchCache is the process-wide map from (path, query, mode) to a search
// result. Entries expire after the TTL; when the cache outgrows its bound,
// expired entries go first, then the oldest-inserted.
type SearchCache struct {
	ttl        time.Duration
	maxEntries int

	mu      sync.Mutex
	entries map[searchKey]searchEntry
	seq     uint64
}

// NewSearchCache creates a search cache. Zero values select the defaults.
func NewSearchCache(ttl time.Duration, maxEntries int) *SearchCache {
	if ttl <= 0 {
		ttl = DefaultSearchTTL
	}
	if maxEntries <= 0 {
		maxEntries = DefaultSearchMaxEntries
	}
	return &SearchCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[searchKey]searchEntry),
	}
}

// Get returns the cached result for (path, query, mode) if present and
// unexpired.
func (c *SearchCache) Get(path, query string, mode search.Mode) ([]record.Record, bool) {
	key := searchKey{path: path, query: query, mode: mode}

	c.mu.Lock()
	defer c.mu.Unlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if time.Now().After(entry.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}

	return record.CloneSlice(entry.records), true
}

// Put stores a search result, evicting down to the size bound.
func (c *SearchCache) Put(path, query string, mode search.Mode, records []record.Record) {
	key := searchKey{path: path, query: query, mode: mode}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	c.entries[key] = searchEntry{
		records:   record.CloneSlice(records),
		expiresAt: time.Now().Add(c.ttl),
		seq:       c.seq,
	}

	if len(c.entries) > c.maxEntries {
		c.evict()
	}
}

// Invalidate removes every entry for path, whatever the query or mode.
func (c *SearchCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key := range c.entries {
		if key.path == path {
			delete(c.entries, key)
		}
	}
}

// Clear drops all entries.
func (c *SearchCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[searchKey]searchEntry)
}

// Len returns the current entry count.
func (c *SearchCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// evict must run under c.mu: drop expired entries first, then the
// oldest-inserted until the bound holds.
func (c *SearchCache) evict() {
	now := time.Now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}

	for len(c.entries) > c.maxEntries {
		var oldest searchKey
		oldestSeq := uint64(0)
		first := true
		for key, entry := range c.entries {
			if first || entry.seq < oldestSeq {
				oldest = key
				oldestSeq = entry.seq
				first = false
			}
		}
		delete(c.entries, oldest)
	}
}
