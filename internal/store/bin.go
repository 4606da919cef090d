package store

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/noah-isme/school-records-api/internal/models"
)

// recycleBin is the single combined list of soft-deleted records.
type recycleBin struct {
	persister Persister

	mu      sync.RWMutex
	entries []models.RecycleEntry
}

func (b *recycleBin) Kind() models.Kind { return models.KindRecycleBin }

func (b *recycleBin) lock()    { b.mu.Lock() }
func (b *recycleBin) unlock()  { b.mu.Unlock() }

func (b *recycleBin) list() []models.RecycleEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]models.RecycleEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b *recycleBin) stageAppend(entries ...models.RecycleEntry) (staged, error) {
	next := make([]models.RecycleEntry, len(b.entries), len(b.entries)+len(entries))
	copy(next, b.entries)
	next = append(next, entries...)
	doc, err := b.encode(next)
	if err != nil {
		return staged{}, err
	}
	return staged{doc: doc, commit: func() { b.entries = next }}, nil
}

func (b *recycleBin) stageRemove(entryIDs map[string]struct{}) (staged, error) {
	next := make([]models.RecycleEntry, 0, len(b.entries))
	for _, entry := range b.entries {
		if _, drop := entryIDs[entry.EntryID]; drop {
			continue
		}
		next = append(next, entry)
	}
	doc, err := b.encode(next)
	if err != nil {
		return staged{}, err
	}
	return staged{doc: doc, commit: func() { b.entries = next }}, nil
}

func (b *recycleBin) encode(entries []models.RecycleEntry) (Document, error) {
	payload, err := json.Marshal(entries)
	if err != nil {
		return Document{}, &StorageError{Op: "encode", Kinds: []models.Kind{models.KindRecycleBin}, Err: err}
	}
	return Document{Kind: models.KindRecycleBin, Payload: payload}, nil
}

func (b *recycleBin) load(ctx context.Context) error {
	payload, err := b.persister.Load(ctx, models.KindRecycleBin)
	if err != nil {
		return &StorageError{Op: "load", Kinds: []models.Kind{models.KindRecycleBin}, Err: err}
	}
	entries := make([]models.RecycleEntry, 0)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &entries); err != nil {
			return &StorageError{Op: "decode", Kinds: []models.Kind{models.KindRecycleBin}, Err: err}
		}
	}
	b.mu.Lock()
	b.entries = entries
	b.mu.Unlock()
	return nil
}
