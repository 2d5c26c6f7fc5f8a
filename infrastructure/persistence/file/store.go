package file

import (
	"bytes"
	"encoding/json"
	"os"
	"time"

	"github.com/natefinch/atomic"
	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/domain/record"
	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// Store reads and writes a database file as an ordered sequence of records.
// Every operation covers the whole file; there is no partial I/O.
type Store struct {
	logger *zap.Logger
}

// NewStore creates a database file store
func NewStore(logger *zap.Logger) *Store {
	return &Store{logger: logger}
}

// LoadResult carries the parsed records plus the observed file size and
// read latency, which feed the stats operation.
type LoadResult struct {
	Records   []record.Record
	SizeBytes int64
	ReadTime  time.Duration
}

// Load reads and parses the whole database file. Numbers keep their source
// text (json.Number) so textual matching stays faithful to what was stored.
func (s *Store) Load(path string) (*LoadResult, error) {
	start := time.Now()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("database")
		}
		return nil, apperrors.NewIOError("read", err)
	}

	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()

	var records []record.Record
	if err := decoder.Decode(&records); err != nil {
		s.logger.Warn("database file failed to parse",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, apperrors.NewCorruptError(path, err)
	}

	return &LoadResult{
		Records:   records,
		SizeBytes: int64(len(data)),
		ReadTime:  time.Since(start),
	}, nil
}

// Save atomically replaces the database file with the serialized records:
// the bytes land in a sibling temporary first and are renamed into place,
// so a concurrent reader never observes a partial write.
func (s *Store) Save(path string, records []record.Record) error {
	if records == nil {
		records = []record.Record{}
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return apperrors.NewIOError("serialize", err)
	}

	if err := atomic.WriteFile(path, bytes.NewReader(data)); err != nil {
		s.logger.Error("database file write failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return apperrors.NewIOError("write", err)
	}
	return nil
}
