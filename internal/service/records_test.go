package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
	appErrors "github.com/noah-isme/school-records-api/pkg/errors"
)

func newRecordStore(t *testing.T) (*store.Store, *store.MemoryPersister) {
	t.Helper()
	persister := store.NewMemoryPersister()
	seq := 0
	clock := time.Date(2024, 7, 1, 8, 0, 0, 0, time.UTC)
	st := store.New(persister, models.Settings{
		SchoolInfo:  models.SchoolInfo{Name: "Green Valley School", Address: "1 Hill Road"},
		Preferences: models.Preferences{Currency: "USD", AcademicYear: "2024-2025"},
	},
		store.WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
		store.WithClock(func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		}),
	)
	require.NoError(t, st.Load(context.Background()))
	return st, persister
}

func seedStudent(t *testing.T, svc *StudentService, name, class, rollNo string) *models.Student {
	t.Helper()
	student, err := svc.Create(context.Background(), CreateStudentRequest{Name: name, Class: class, Section: "A", RollNo: rollNo})
	require.NoError(t, err)
	return student
}

func requireCode(t *testing.T, err error, target *appErrors.Error) {
	t.Helper()
	require.Error(t, err)
	assert.True(t, appErrors.Is(err, target), "expected %s, got %v", target.Code, err)
}

func strPtr(v string) *string { return &v }

func floatPtr(v float64) *float64 { return &v }

// memoryCacheRepo is an in-process CacheRepository.
type memoryCacheRepo struct {
	mu      sync.Mutex
	items   map[string][]byte
	gets    int
	failSet error
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: make(map[string][]byte)}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	payload, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(payload, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSet != nil {
		return m.failSet
	}
	payload, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.items[key] = payload
	return nil
}

func (m *memoryCacheRepo) Delete(ctx context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.items, key)
	}
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.items {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

func TestTranslateMapsStoreErrors(t *testing.T) {
	requireCode(t, translate(store.ErrNotFound, "student"), appErrors.ErrNotFound)
	requireCode(t, translate(store.ErrConflict, "student"), appErrors.ErrConflict)
	requireCode(t, translate(store.ErrDanglingReference, "entry"), appErrors.ErrValidation)
	requireCode(t, translate(&store.StorageError{Op: "save", Err: fmt.Errorf("disk full")}, "student"), appErrors.ErrStorage)
	requireCode(t, translate(fmt.Errorf("boom"), "student"), appErrors.ErrInternal)

	typed := appErrors.Clone(appErrors.ErrConflict, "taken")
	assert.Same(t, typed, translate(typed, "student"))
	assert.NoError(t, translate(nil, "student"))
}

func TestSequenceIsStrictlyIncreasing(t *testing.T) {
	fixed := time.UnixMilli(1719820800000)
	seq := newSequence("RCT", func() time.Time { return fixed })

	first := seq.next()
	second := seq.next()
	third := seq.nextWithPrefix("INV")

	assert.Equal(t, "RCT1719820800000", first)
	assert.Equal(t, "RCT1719820800001", second)
	assert.Equal(t, "INV1719820800002", third)
}

func TestSetPhotoKeepsExistingOnBlank(t *testing.T) {
	existing := strPtr("old.png")
	setPhoto(&existing, strPtr("  "))
	assert.Equal(t, "old.png", *existing)

	setPhoto(&existing, strPtr("new.png"))
	assert.Equal(t, "new.png", *existing)

	setPhoto(&existing, nil)
	assert.Equal(t, "new.png", *existing)
}
