package services

import (
	"sort"

	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/domain/record"
	"github.com/sarychlabs/sarychdb/infrastructure/cache"
	"github.com/sarychlabs/sarychdb/infrastructure/config"
	"github.com/sarychlabs/sarychdb/pkg/common"
	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// ListService serves the browse and list operations: filter, sort and
// paginate over the cached record sequence. Queries here are structured,
// so results read through the file cache only and skip the search cache.
type ListService struct {
	cfg    *config.Config
	files  *cache.FileCache
	logger *zap.Logger
}

// NewListService creates the list/browse pipeline
func NewListService(cfg *config.Config, files *cache.FileCache, logger *zap.Logger) *ListService {
	return &ListService{cfg: cfg, files: files, logger: logger}
}

// ListOptions carries the structured query headers for the list operation.
type ListOptions struct {
	Page      common.PageRequest
	SortBy    string
	SortOrder string
	Filters   map[string]interface{}
}

// PageResult is a page of records plus its pagination object.
type PageResult struct {
	Data       []record.Record        `json:"data"`
	Pagination *common.PaginationInfo `json:"pagination"`
}

// Browse returns a page of the raw record sequence, with no filtering or
// sorting.
func (s *ListService) Browse(username, dbName string, page common.PageRequest) (*PageResult, error) {
	records, _, err := s.files.GetOrLoad(s.cfg.DatabasePath(username, dbName))
	if err != nil {
		return nil, err
	}

	window, err := common.ResolvePageWindow(page, len(records))
	if err != nil {
		return nil, err
	}

	data := records[window.Start:window.End]
	return &PageResult{
		Data:       data,
		Pagination: common.BuildPaginationInfo(window, len(data), len(records), nil),
	}, nil
}

// List applies filter, then sort, then pagination, in that order.
func (s *ListService) List(username, dbName string, opts ListOptions) (*PageResult, error) {
	if opts.SortOrder != "" && opts.SortOrder != "asc" && opts.SortOrder != "desc" {
		return nil, apperrors.NewBadRequestError("sortOrder must be 'asc' or 'desc'")
	}

	records, _, err := s.files.GetOrLoad(s.cfg.DatabasePath(username, dbName))
	if err != nil {
		return nil, err
	}
	total := len(records)

	filtered := applyFilters(records, opts.Filters)
	if opts.SortBy != "" {
		sortRecords(filtered, opts.SortBy, opts.SortOrder == "desc")
	}

	window, err := common.ResolvePageWindow(opts.Page, len(filtered))
	if err != nil {
		return nil, err
	}

	filteredCount := len(filtered)
	data := filtered[window.Start:window.End]
	return &PageResult{
		Data:       data,
		Pagination: common.BuildPaginationInfo(window, len(data), total, &filteredCount),
	}, nil
}

// applyFilters keeps the records whose top-level fields satisfy every
// filter. An array spec means "equal to one of these"; anything else is a
// direct equality check. Records missing a filtered field drop out.
func applyFilters(records []record.Record, filters map[string]interface{}) []record.Record {
	if len(filters) == 0 {
		return records
	}

	var out []record.Record
	for _, r := range records {
		if matchesFilters(r, filters) {
			out = append(out, r)
		}
	}
	if out == nil {
		out = []record.Record{}
	}
	return out
}

func matchesFilters(r record.Record, filters map[string]interface{}) bool {
	for field, spec := range filters {
		value, present := r[field]
		if !present {
			return false
		}

		if alternatives, ok := spec.([]interface{}); ok {
			matched := false
			for _, alt := range alternatives {
				if record.ValuesEqual(value, alt) {
					matched = true
					break
				}
			}
			if !matched {
				return false
			}
			continue
		}

		if !record.ValuesEqual(value, spec) {
			return false
		}
	}
	return true
}

// sortRecords stably sorts by the top-level value at key, under the total
// order over heterogeneous JSON values. Records missing the key sort first;
// desc inverts the comparator while the sort stays stable.
func sortRecords(records []record.Record, key string, desc bool) {
	sort.SliceStable(records, func(i, j int) bool {
		a, aPresent := records[i][key]
		b, bPresent := records[j][key]
		cmp := record.CompareValues(a, aPresent, b, bPresent)
		if desc {
			return cmp > 0
		}
		return cmp < 0
	})
}
