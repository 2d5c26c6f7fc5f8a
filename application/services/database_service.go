package services

import (
	"sync"

	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/domain/record"
	"github.com/sarychlabs/sarychdb/domain/search"
	"github.com/sarychlabs/sarychdb/infrastructure/cache"
	"github.com/sarychlabs/sarychdb/infrastructure/config"
	"github.com/sarychlabs/sarychdb/infrastructure/persistence/file"
	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// DatabaseService is the CRUD engine: every read goes through the file
// cache, every search through the search cache, and every write holds the
// database's path lock for the whole load-modify-save-invalidate section.
type DatabaseService struct {
	cfg      *config.Config
	store    *file.Store
	files    *cache.FileCache
	searches *cache.SearchCache
	executor *search.Executor
	logger   *zap.Logger

	// One mutex per database file path, held for the lifetime of the
	// process. Writes to the same database serialize; different databases
	// never contend.
	locks sync.Map
}

// NewDatabaseService creates the CRUD engine
func NewDatabaseService(
	cfg *config.Config,
	store *file.Store,
	files *cache.FileCache,
	searches *cache.SearchCache,
	logger *zap.Logger,
) *DatabaseService {
	return &DatabaseService{
		cfg:      cfg,
		store:    store,
		files:    files,
		searches: searches,
		executor: search.NewExecutor(cfg.ParallelThreshold),
		logger:   logger,
	}
}

// DatabaseStats is the result of the stats operation.
type DatabaseStats struct {
	TotalRecords int   `json:"total_records"`
	SizeBytes    int64 `json:"size_bytes"`
	ReadTimeMs   int64 `json:"read_time_ms"`
	Cached       bool  `json:"cached"`
}

// Insert appends a new record with engine-assigned metadata.
func (s *DatabaseService) Insert(username, dbName string, fields map[string]interface{}) (record.Record, error) {
	if fields == nil {
		return nil, apperrors.NewBadRequestError("Record must be a JSON object")
	}

	path := s.cfg.DatabasePath(username, dbName)
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	records, _, err := s.files.GetOrLoad(path)
	if err != nil {
		return nil, err
	}

	rec := record.New(fields)
	records = append(records, rec)

	if err := s.store.Save(path, records); err != nil {
		return nil, err
	}
	s.invalidate(path)

	s.logger.Debug("record inserted",
		zap.String("database", dbName),
		zap.String("id", rec.ID()),
	)
	return rec, nil
}

// Search returns the records matching query under mode, in database order,
// consulting the search cache first.
func (s *DatabaseService) Search(username, dbName, query string, mode search.Mode) ([]record.Record, error) {
	path := s.cfg.DatabasePath(username, dbName)

	if cached, ok := s.searches.Get(path, query, mode); ok {
		return cached, nil
	}

	records, _, err := s.files.GetOrLoad(path)
	if err != nil {
		return nil, err
	}

	results := s.executor.Run(records, query, mode)
	if results == nil {
		results = []record.Record{}
	}
	s.searches.Put(path, query, mode, results)
	return results, nil
}

// UpdateByQuery patches every record matching query and returns the count.
// Matched records get a fresh _updated_at even when the patch changes
// nothing.
func (s *DatabaseService) UpdateByQuery(username, dbName, query string, mode search.Mode, patch map[string]interface{}) (int, error) {
	if patch == nil {
		return 0, apperrors.NewBadRequestError("Patch must be a JSON object")
	}

	path := s.cfg.DatabasePath(username, dbName)
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	records, _, err := s.files.GetOrLoad(path)
	if err != nil {
		return 0, err
	}

	updated := 0
	for i := range records {
		if search.Matches(records[i], query, mode) {
			records[i].ApplyPatch(patch)
			updated++
		}
	}

	if err := s.store.Save(path, records); err != nil {
		return 0, err
	}
	s.invalidate(path)
	return updated, nil
}

// UpdateByID patches the record whose _id equals id. Returns 1 if found,
// 0 otherwise; a miss changes nothing on disk.
func (s *DatabaseService) UpdateByID(username, dbName, id string, patch map[string]interface{}) (int, error) {
	if patch == nil {
		return 0, apperrors.NewBadRequestError("Patch must be a JSON object")
	}

	path := s.cfg.DatabasePath(username, dbName)
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	records, _, err := s.files.GetOrLoad(path)
	if err != nil {
		return 0, err
	}

	for i := range records {
		if records[i].ID() != id {
			continue
		}
		records[i].ApplyPatch(patch)
		if err := s.store.Save(path, records); err != nil {
			return 0, err
		}
		s.invalidate(path)
		return 1, nil
	}
	return 0, nil
}

// DeleteByQuery removes every record matching query, preserving the order
// of survivors, and returns the count removed.
func (s *DatabaseService) DeleteByQuery(username, dbName, query string, mode search.Mode) (int, error) {
	path := s.cfg.DatabasePath(username, dbName)
	lock := s.pathLock(path)
	lock.Lock()
	defer lock.Unlock()

	records, _, err := s.files.GetOrLoad(path)
	if err != nil {
		return 0, err
	}

	survivors := records[:0]
	for _, r := range records {
		if !search.Matches(r, query, mode) {
			survivors = append(survivors, r)
		}
	}
	deleted := len(records) - len(survivors)

	if err := s.store.Save(path, survivors); err != nil {
		return 0, err
	}
	s.invalidate(path)
	return deleted, nil
}

// Stats reports size and latency for the database file as served by the
// file cache. ReadTimeMs is zero when the cache hit.
func (s *DatabaseService) Stats(username, dbName string) (*DatabaseStats, error) {
	path := s.cfg.DatabasePath(username, dbName)

	records, stats, err := s.files.GetOrLoad(path)
	if err != nil {
		return nil, err
	}

	return &DatabaseStats{
		TotalRecords: len(records),
		SizeBytes:    stats.SizeBytes,
		ReadTimeMs:   stats.ReadTime.Milliseconds(),
		Cached:       stats.Cached,
	}, nil
}

func (s *DatabaseService) pathLock(path string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(path, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// invalidate drops both cache tiers for path after a successful save.
func (s *DatabaseService) invalidate(path string) {
	s.files.Invalidate(path)
	s.searches.Invalidate(path)
}
