package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

func intPtr(v int) *int { return &v }

func TestResolvePageWindowLimitOnly(t *testing.T) {
	window, err := ResolvePageWindow(PageRequest{Limit: intPtr(5)}, 12)
	require.NoError(t, err)
	assert.Equal(t, PaginationLimitOnly, window.Mode)
	assert.Equal(t, 0, window.Start)
	assert.Equal(t, 5, window.End)

	// A limit past the end clamps.
	window, err = ResolvePageWindow(PageRequest{Limit: intPtr(50)}, 12)
	require.NoError(t, err)
	assert.Equal(t, 12, window.End)
}

func TestResolvePageWindowPaginated(t *testing.T) {
	window, err := ResolvePageWindow(PageRequest{Limit: intPtr(5), Page: intPtr(2)}, 12)
	require.NoError(t, err)
	assert.Equal(t, PaginationPaginated, window.Mode)
	assert.Equal(t, 5, window.Start)
	assert.Equal(t, 10, window.End)

	// The last partial page.
	window, err = ResolvePageWindow(PageRequest{Limit: intPtr(5), Page: intPtr(3)}, 12)
	require.NoError(t, err)
	assert.Equal(t, 10, window.Start)
	assert.Equal(t, 12, window.End)

	// A page past the end yields an empty window, not an error.
	window, err = ResolvePageWindow(PageRequest{Limit: intPtr(5), Page: intPtr(9)}, 12)
	require.NoError(t, err)
	assert.Equal(t, window.Start, window.End)
}

func TestResolvePageWindowDefault(t *testing.T) {
	window, err := ResolvePageWindow(PageRequest{}, 25)
	require.NoError(t, err)
	assert.Equal(t, PaginationDefault, window.Mode)
	assert.Equal(t, DefaultPage, window.Page)
	assert.Equal(t, DefaultLimit, window.Limit)
	assert.Equal(t, 0, window.Start)
	assert.Equal(t, 10, window.End)
}

func TestResolvePageWindowPageWithoutLimit(t *testing.T) {
	_, err := ResolvePageWindow(PageRequest{Page: intPtr(2)}, 12)
	require.Error(t, err)
	assert.True(t, apperrors.IsBadRequest(err))
	assert.Equal(t, "Cannot use 'page' without 'limit'.", apperrors.UserMessage(err))
}

func TestResolvePageWindowRejectsNonPositive(t *testing.T) {
	_, err := ResolvePageWindow(PageRequest{Limit: intPtr(0)}, 12)
	assert.True(t, apperrors.IsBadRequest(err))

	_, err = ResolvePageWindow(PageRequest{Limit: intPtr(5), Page: intPtr(-1)}, 12)
	assert.True(t, apperrors.IsBadRequest(err))
}

func TestCalculateTotalPages(t *testing.T) {
	assert.Equal(t, 3, CalculateTotalPages(12, 5))
	assert.Equal(t, 2, CalculateTotalPages(10, 5))
	assert.Equal(t, 0, CalculateTotalPages(0, 5))
	assert.Equal(t, 1, CalculateTotalPages(1, 10))
}

func TestBuildPaginationInfoLimitOnly(t *testing.T) {
	window, err := ResolvePageWindow(PageRequest{Limit: intPtr(5)}, 12)
	require.NoError(t, err)

	info := BuildPaginationInfo(window, 5, 12, nil)
	assert.Equal(t, PaginationLimitOnly, info.Mode)
	assert.Equal(t, 5, info.Returned)
	assert.Equal(t, 12, info.TotalRecords)
	assert.Nil(t, info.TotalPages, "limit_only carries no page bookkeeping")
	assert.Nil(t, info.HasNext)
	assert.Nil(t, info.HasPrev)
}

func TestBuildPaginationInfoPaginated(t *testing.T) {
	window, err := ResolvePageWindow(PageRequest{Limit: intPtr(5), Page: intPtr(2)}, 12)
	require.NoError(t, err)

	info := BuildPaginationInfo(window, 5, 12, nil)
	assert.Equal(t, 2, info.Page)
	require.NotNil(t, info.TotalPages)
	assert.Equal(t, 3, *info.TotalPages)
	assert.True(t, *info.HasNext)
	assert.True(t, *info.HasPrev)
}

func TestBuildPaginationInfoFiltered(t *testing.T) {
	// 30 records total, 12 survive the filter; pages count over the
	// filtered sequence.
	filtered := 12
	window, err := ResolvePageWindow(PageRequest{Limit: intPtr(5), Page: intPtr(3)}, filtered)
	require.NoError(t, err)

	info := BuildPaginationInfo(window, 2, 30, &filtered)
	assert.Equal(t, 30, info.TotalRecords)
	require.NotNil(t, info.FilteredRecords)
	assert.Equal(t, 12, *info.FilteredRecords)
	require.NotNil(t, info.TotalPages)
	assert.Equal(t, 3, *info.TotalPages)
	assert.False(t, *info.HasNext)
	assert.True(t, *info.HasPrev)
}
