package file

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sarychlabs/sarychdb/domain/record"
	apperrors "github.com/sarychlabs/sarychdb/pkg/errors"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	return NewStore(zap.NewNop()), filepath.Join(t.TempDir(), "db.json")
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store, path := newTestStore(t)

	records := []record.Record{
		{"_id": "r1", "name": "Ada", "age": json.Number("36")},
		{"_id": "r2", "nested": map[string]interface{}{"deep": []interface{}{"x", json.Number("1")}}},
	}
	require.NoError(t, store.Save(path, records))

	result, err := store.Load(path)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	assert.Equal(t, records, result.Records, "load(save(rs)) returns the same ordered sequence")
	assert.Positive(t, result.SizeBytes)
}

func TestSaveNilWritesEmptyArray(t *testing.T) {
	store, path := newTestStore(t)
	require.NoError(t, store.Save(path, nil))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	result, err := store.Load(path)
	require.NoError(t, err)
	assert.Empty(t, result.Records)
}

func TestLoadMissingFile(t *testing.T) {
	store, path := newTestStore(t)

	_, err := store.Load(path)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestLoadCorruptFile(t *testing.T) {
	store, path := newTestStore(t)

	for _, content := range []string{`{"not":"an array"}`, `[{"ok":1},"not an object"]`, `[{"truncated":`} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		_, err := store.Load(path)
		assert.True(t, apperrors.IsCorrupt(err), "content %q should be corrupt", content)
	}
}

func TestSaveReplacesAtomically(t *testing.T) {
	store, path := newTestStore(t)

	require.NoError(t, store.Save(path, []record.Record{{"v": 1}}))
	require.NoError(t, store.Save(path, []record.Record{{"v": 2}, {"v": 3}}))

	result, err := store.Load(path)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)

	// No temporary siblings left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}
