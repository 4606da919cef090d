package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/noah-isme/school-records-api/internal/models"
)

type settingsDoc struct {
	persister Persister

	mu    sync.RWMutex
	value models.Settings
}

func (d *settingsDoc) get() models.Settings {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.value
}

func (d *settingsDoc) update(ctx context.Context, mutate func(models.Settings) (models.Settings, error), now func() time.Time) (models.Settings, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	next, err := mutate(d.value)
	if err != nil {
		return models.Settings{}, err
	}
	next.UpdatedAt = now()
	payload, err := json.Marshal(next)
	if err != nil {
		return models.Settings{}, &StorageError{Op: "encode", Kinds: []models.Kind{models.KindSettings}, Err: err}
	}
	if err := d.persister.Save(ctx, Document{Kind: models.KindSettings, Payload: payload}); err != nil {
		return models.Settings{}, &StorageError{Op: "save", Kinds: []models.Kind{models.KindSettings}, Err: err}
	}
	d.value = next
	return next, nil
}

// load keeps defaults when nothing was saved yet. Saved values win field by
// field because they are decoded on top of the defaults.
func (d *settingsDoc) load(ctx context.Context, defaults models.Settings) error {
	payload, err := d.persister.Load(ctx, models.KindSettings)
	if err != nil {
		return &StorageError{Op: "load", Kinds: []models.Kind{models.KindSettings}, Err: err}
	}
	value := defaults
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &value); err != nil {
			return &StorageError{Op: "decode", Kinds: []models.Kind{models.KindSettings}, Err: err}
		}
	}
	d.mu.Lock()
	d.value = value
	d.mu.Unlock()
	return nil
}
