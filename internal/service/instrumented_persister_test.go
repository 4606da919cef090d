package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/store"
)

func TestInstrumentedPersisterCountsOperations(t *testing.T) {
	inner := store.NewMemoryPersister()
	metrics := NewMetricsService()
	p := NewInstrumentedPersister(inner, metrics, nil)
	ctx := context.Background()

	require.NoError(t, p.Save(ctx, store.Document{Kind: models.KindStudent, Payload: []byte(`[]`)}))
	payload, err := p.Load(ctx, models.KindStudent)
	require.NoError(t, err)
	assert.Equal(t, `[]`, string(payload))

	assert.Equal(t, uint64(2), metrics.Snapshot().StoreOperations)
}

func TestInstrumentedPersisterLogsFailures(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	inner := store.NewMemoryPersister()
	inner.FailWith = errors.New("disk full")
	p := NewInstrumentedPersister(inner, nil, zap.New(core))

	err := p.Save(context.Background(),
		store.Document{Kind: models.KindStudent, Payload: []byte(`[]`)},
		store.Document{Kind: models.KindRecycleBin, Payload: []byte(`[]`)},
	)
	require.Error(t, err)
	entries := logs.FilterMessage("collection save failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "students,recycleBin", entries[0].ContextMap()["kinds"])
}

func TestInstrumentedPersisterBacksStore(t *testing.T) {
	metrics := NewMetricsService()
	st := store.New(NewInstrumentedPersister(store.NewMemoryPersister(), metrics, nil), models.Settings{SchoolInfo: models.SchoolInfo{Name: "School"}})
	require.NoError(t, st.Load(context.Background()))
	assert.Equal(t, uint64(len(models.Kinds)), metrics.Snapshot().StoreOperations)
}
