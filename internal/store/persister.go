package store

import (
	"context"
	"sync"

	"github.com/noah-isme/school-records-api/internal/models"
)

// Document is the encoded form of one whole collection.
type Document struct {
	Kind    models.Kind
	Payload []byte
}

// Persister stores whole collections. Save must apply every document or none.
type Persister interface {
	// Load returns the last saved payload for kind, or nil when nothing was saved yet.
	Load(ctx context.Context, kind models.Kind) ([]byte, error)
	Save(ctx context.Context, docs ...Document) error
}

// MemoryPersister keeps documents in process memory.
type MemoryPersister struct {
	mu    sync.Mutex
	docs  map[models.Kind][]byte
	saves int

	// FailWith, when set, is returned by every Save.
	FailWith error
}

// NewMemoryPersister constructs an empty MemoryPersister.
func NewMemoryPersister() *MemoryPersister {
	return &MemoryPersister{docs: make(map[models.Kind][]byte)}
}

// Load implements Persister.
func (m *MemoryPersister) Load(ctx context.Context, kind models.Kind) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.docs[kind]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), payload...), nil
}

// Save implements Persister.
func (m *MemoryPersister) Save(ctx context.Context, docs ...Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, doc := range docs {
		m.docs[doc.Kind] = append([]byte(nil), doc.Payload...)
	}
	m.saves++
	return nil
}

// Saves returns the number of successful Save calls.
func (m *MemoryPersister) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
