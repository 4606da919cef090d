package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

func TestLocalStorageLoadMissing(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	data, err := s.Load(context.Background(), models.KindStudent)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestLocalStorageSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()

	err = s.Save(ctx,
		store.Document{Kind: models.KindStudent, Payload: []byte(`[{"id":"1"}]`)},
		store.Document{Kind: models.KindRecycleBin, Payload: []byte(`[]`)},
	)
	require.NoError(t, err)

	data, err := s.Load(ctx, models.KindStudent)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(data))

	require.NoError(t, s.Save(ctx, store.Document{Kind: models.KindStudent, Payload: []byte(`[]`)}))
	data, err = s.Load(ctx, models.KindStudent)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.Equal(t, []string{BlobName}, names)

	data, err = s.Load(ctx, models.KindRecycleBin)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(data))
}

func TestLocalStorageFailedRenameKeepsWholeBatch(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx,
		store.Document{Kind: models.KindStudent, Payload: []byte(`["old"]`)},
		store.Document{Kind: models.KindRecycleBin, Payload: []byte(`[]`)},
	))

	renames := 0
	s.rename = func(oldpath, newpath string) error {
		renames++
		return errors.New("disk full")
	}

	err = s.Save(ctx,
		store.Document{Kind: models.KindStudent, Payload: []byte(`[]`)},
		store.Document{Kind: models.KindRecycleBin, Payload: []byte(`[{"kind":"students"}]`)},
	)
	require.Error(t, err)
	assert.Equal(t, 1, renames)

	data, err := s.Load(ctx, models.KindStudent)
	require.NoError(t, err)
	assert.Equal(t, `["old"]`, string(data))
	data, err = s.Load(ctx, models.KindRecycleBin)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(data))

	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestLocalStorageBlockedBlobKeepsPreviousState(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStorage(dir)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, store.Document{Kind: models.KindTeacher, Payload: []byte(`["old"]`)}))

	// Swap the blob for a non-empty directory so the rename cannot replace it.
	previous, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.NoError(t, os.Remove(s.Path()))
	require.NoError(t, os.Mkdir(s.Path(), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(s.Path(), "keep"), []byte("x"), 0o644))

	err = s.Save(ctx,
		store.Document{Kind: models.KindStaff, Payload: []byte(`["new"]`)},
		store.Document{Kind: models.KindTeacher, Payload: []byte(`["new"]`)},
	)
	require.Error(t, err)

	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)

	require.NoError(t, os.RemoveAll(s.Path()))
	require.NoError(t, os.WriteFile(s.Path(), previous, 0o644))
	data, err := s.Load(ctx, models.KindTeacher)
	require.NoError(t, err)
	assert.Equal(t, `["old"]`, string(data))
	data, err = s.Load(ctx, models.KindStaff)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestLocalStorageRejectsInvalidPayload(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, store.Document{Kind: models.KindExam, Payload: []byte(`["old"]`)}))

	err = s.Save(ctx,
		store.Document{Kind: models.KindExam, Payload: []byte(`[]`)},
		store.Document{Kind: models.KindExamResult, Payload: []byte(`{broken`)},
	)
	require.Error(t, err)

	data, err := s.Load(ctx, models.KindExam)
	require.NoError(t, err)
	assert.Equal(t, `["old"]`, string(data))
}

func TestLocalStorageHonoursCancelledContext(t *testing.T) {
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, s.Save(ctx, store.Document{Kind: models.KindExam, Payload: []byte(`[]`)}))
	_, err = s.Load(ctx, models.KindExam)
	assert.Error(t, err)
}

func TestLocalStorageSatisfiesPersister(t *testing.T) {
	var _ store.Persister = (*LocalStorage)(nil)
}
