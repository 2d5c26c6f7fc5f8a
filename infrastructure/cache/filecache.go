package cache

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/domain/record"
	"github.com/sarychlabs/sarychdb/infrastructure/persistence/file"
)

// DefaultFileTTL bounds how long a parsed database file is trusted without
// re-reading disk.
const DefaultFileTTL = 300 * time.Second

// FileStats describes how a request was served from the file layer.
// ReadTime is zero when the cache hit; Cached distinguishes the two cases.
type FileStats struct {
	SizeBytes int64
	ReadTime  time.Duration
	Cached    bool
}

type fileEntry struct {
	records   []record.Record
	sizeBytes int64
	loadedAt  time.Time
	expiresAt time.Time
}

// FileCache is the process-wide map from database file path to its parsed
// records. Entries expire after the TTL or are invalidated explicitly on
// write. Lookups return deep copies so callers never alias cached state.
type FileCache struct {
	store  *file.Store
	ttl    time.Duration
	logger *zap.Logger

	mu      sync.RWMutex
	entries map[string]fileEntry
}

// NewFileCache creates a file cache backed by store. ttl = 0 selects the
// default.
func NewFileCache(store *file.Store, ttl time.Duration, logger *zap.Logger) *FileCache {
	if ttl <= 0 {
		ttl = DefaultFileTTL
	}
	return &FileCache{
		store:   store,
		ttl:     ttl,
		logger:  logger,
		entries: make(map[string]fileEntry),
	}
}

// GetOrLoad returns the records for path, loading from disk on a miss or
// after expiry.
func (c *FileCache) GetOrLoad(path string) ([]record.Record, FileStats, error) {
	c.mu.RLock()
	entry, exists := c.entries[path]
	c.mu.RUnlock()

	if exists && time.Now().Before(entry.expiresAt) {
		return record.CloneSlice(entry.records), FileStats{
			SizeBytes: entry.sizeBytes,
			Cached:    true,
		}, nil
	}

	result, err := c.store.Load(path)
	if err != nil {
		return nil, FileStats{}, err
	}

	now := time.Now()
	c.mu.Lock()
	c.entries[path] = fileEntry{
		records:   result.Records,
		sizeBytes: result.SizeBytes,
		loadedAt:  now,
		expiresAt: now.Add(c.ttl),
	}
	c.mu.Unlock()

	c.logger.Debug("file cache populated",
		zap.String("path", path),
		zap.Int("records", len(result.Records)),
		zap.Duration("readTime", result.ReadTime),
	)

	return record.CloneSlice(result.Records), FileStats{
		SizeBytes: result.SizeBytes,
		ReadTime:  result.ReadTime,
	}, nil
}

// Invalidate removes the entry for path if present.
func (c *FileCache) Invalidate(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, path)
}

// Clear drops all entries.
func (c *FileCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]fileEntry)
}
