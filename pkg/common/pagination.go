package common

import (
	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

// PaginationMode identifies how the page window was selected.
type PaginationMode string

const (
	// PaginationLimitOnly caps the result without paging ("limit" alone).
	PaginationLimitOnly PaginationMode = "limit_only"
	// PaginationPaginated pages through the result ("limit" and "page").
	PaginationPaginated PaginationMode = "paginated"
	// PaginationDefault is the fallback window when neither header is present.
	PaginationDefault PaginationMode = "default"
)

// Defaults for the PaginationDefault mode.
const (
	DefaultPage  = 1
	DefaultLimit = 10
)

// PageRequest carries the optional limit/page values from request headers.
type PageRequest struct {
	Limit *int
	Page  *int
}

// PaginationInfo is the pagination object attached to browse/list responses.
type PaginationInfo struct {
	Mode            PaginationMode `json:"mode"`
	Page            int            `json:"page,omitempty"`
	Limit           int            `json:"limit"`
	Returned        int            `json:"returned"`
	TotalRecords    int            `json:"total_records"`
	FilteredRecords *int           `json:"filtered_records,omitempty"`
	TotalPages      *int           `json:"total_pages,omitempty"`
	HasNext         *bool          `json:"has_next,omitempty"`
	HasPrev         *bool          `json:"has_prev,omitempty"`
}

// PageWindow is the resolved slice window over the sequence being paginated.
type PageWindow struct {
	Mode  PaginationMode
	Page  int
	Limit int
	Start int
	End   int
}

// ResolvePageWindow validates a PageRequest against the length of the
// sequence being paginated and resolves the slice bounds.
func ResolvePageWindow(req PageRequest, total int) (PageWindow, error) {
	if req.Limit != nil && *req.Limit <= 0 {
		return PageWindow{}, apperrors.NewBadRequestError("'limit' must be a positive integer.")
	}
	if req.Page != nil && *req.Page <= 0 {
		return PageWindow{}, apperrors.NewBadRequestError("'page' must be a positive integer.")
	}

	switch {
	case req.Limit != nil && req.Page == nil:
		end := *req.Limit
		if end > total {
			end = total
		}
		return PageWindow{Mode: PaginationLimitOnly, Limit: *req.Limit, Start: 0, End: end}, nil

	case req.Limit == nil && req.Page != nil:
		return PageWindow{}, apperrors.NewBadRequestError("Cannot use 'page' without 'limit'.")

	case req.Limit != nil && req.Page != nil:
		return boundedWindow(PaginationPaginated, *req.Page, *req.Limit, total), nil

	default:
		return boundedWindow(PaginationDefault, DefaultPage, DefaultLimit, total), nil
	}
}

func boundedWindow(mode PaginationMode, page, limit, total int) PageWindow {
	start := (page - 1) * limit
	if start > total {
		start = total
	}
	end := start + limit
	if end > total {
		end = total
	}
	return PageWindow{Mode: mode, Page: page, Limit: limit, Start: start, End: end}
}

// CalculateTotalPages calculates total number of pages
func CalculateTotalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := total / limit
	if total%limit > 0 {
		pages++
	}
	return pages
}

// BuildPaginationInfo builds the pagination object for a resolved window.
// totalRecords is the unfiltered database size; filteredRecords is non-nil
// only for the list pipeline, and when present it is the sequence the
// window was resolved against.
func BuildPaginationInfo(w PageWindow, returned, totalRecords int, filteredRecords *int) *PaginationInfo {
	info := &PaginationInfo{
		Mode:            w.Mode,
		Limit:           w.Limit,
		Returned:        returned,
		TotalRecords:    totalRecords,
		FilteredRecords: filteredRecords,
	}

	if w.Mode == PaginationLimitOnly {
		return info
	}

	sequenceLen := totalRecords
	if filteredRecords != nil {
		sequenceLen = *filteredRecords
	}

	totalPages := CalculateTotalPages(sequenceLen, w.Limit)
	hasNext := w.Page < totalPages
	hasPrev := w.Page > 1

	info.Page = w.Page
	info.TotalPages = &totalPages
	info.HasNext = &hasNext
	info.HasPrev = &hasPrev
	return info
}
