package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/noah-isme/school-records-api/internal/models"
	"github.com/noah-isme/school-records-api/internal/query"
)

// Entity is implemented by every record type held in a Collection. The
// stamping methods return modified copies so stored values are never shared.
type Entity[T any] interface {
	RecordID() string
	Lookup(field string) (string, bool)
	Created(id string, at time.Time) T
	Updated(at time.Time) T
}

// Guard inspects the current records before a write lands and may veto it.
type Guard[T any] func(existing []T, candidate T) error

// Collection is the durable, ordered set of records of one kind.
type Collection[T Entity[T]] struct {
	kind      models.Kind
	persister Persister
	clock     func() time.Time
	newID     func() string
	less      func(a, b T) bool

	mu            sync.RWMutex
	items         []T
	restoreGuards []Guard[T]
}

func newCollection[T Entity[T]](kind models.Kind, s *Store, less func(a, b T) bool) *Collection[T] {
	return &Collection[T]{
		kind:      kind,
		persister: s.persister,
		clock:     s.clock,
		newID:     s.newID,
		less:      less,
		items:     make([]T, 0),
	}
}

// Kind returns the collection name.
func (c *Collection[T]) Kind() models.Kind {
	return c.kind
}

// GuardRestores sets the guards a record coming back from the recycle bin
// must pass. It replaces any earlier set.
func (c *Collection[T]) GuardRestores(guards ...Guard[T]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.restoreGuards = guards
}

// List returns the records accepted by criteria. Students are ordered by
// class then roll number; other kinds keep insertion order.
func (c *Collection[T]) List(criteria query.Criteria) []T {
	c.mu.RLock()
	out := query.Filter(c.items, criteria)
	c.mu.RUnlock()
	if c.less != nil {
		sort.SliceStable(out, func(i, j int) bool { return c.less(out[i], out[j]) })
	}
	return out
}

// Count returns the number of active records.
func (c *Collection[T]) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Get returns the record with id.
func (c *Collection[T]) Get(id string) (T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if idx := c.indexOf(id); idx >= 0 {
		return c.items[idx], nil
	}
	var zero T
	return zero, ErrNotFound
}

// Create assigns an id, stamps timestamps and persists the collection.
func (c *Collection[T]) Create(ctx context.Context, record T, guards ...Guard[T]) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	stored := record.Created(c.newID(), c.clock())
	for _, guard := range guards {
		if err := guard(c.items, stored); err != nil {
			return zero, err
		}
	}
	next := make([]T, len(c.items), len(c.items)+1)
	copy(next, c.items)
	next = append(next, stored)
	if err := c.persist(ctx, next); err != nil {
		return zero, err
	}
	c.items = next
	return stored, nil
}

// Update applies mutate to the stored record and persists the result. The id
// and creation time cannot be changed by mutate.
func (c *Collection[T]) Update(ctx context.Context, id string, mutate func(T) (T, error), guards ...Guard[T]) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	idx := c.indexOf(id)
	if idx < 0 {
		return zero, ErrNotFound
	}
	current := c.items[idx]
	changed, err := mutate(current)
	if err != nil {
		return zero, err
	}
	if changed.RecordID() != current.RecordID() {
		return zero, fmt.Errorf("%s %s: id is immutable", c.kind, id)
	}
	changed = changed.Updated(c.clock())
	for _, guard := range guards {
		if err := guard(c.items, changed); err != nil {
			return zero, err
		}
	}
	next := make([]T, len(c.items))
	copy(next, c.items)
	next[idx] = changed
	if err := c.persist(ctx, next); err != nil {
		return zero, err
	}
	c.items = next
	return changed, nil
}

// Delete removes the record permanently. Callers wanting a recoverable delete
// use Store.SoftDelete.
func (c *Collection[T]) Delete(ctx context.Context, id string) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	st, removed, err := c.stageRemove(id)
	if err != nil {
		return zero, err
	}
	if err := c.persister.Save(ctx, st.doc); err != nil {
		return zero, &StorageError{Op: "save", Kinds: []models.Kind{c.kind}, Err: err}
	}
	st.commit()
	return removed, nil
}

func (c *Collection[T]) indexOf(id string) int {
	for i, item := range c.items {
		if item.RecordID() == id {
			return i
		}
	}
	return -1
}

func (c *Collection[T]) persist(ctx context.Context, next []T) error {
	doc, err := c.encode(next)
	if err != nil {
		return err
	}
	if err := c.persister.Save(ctx, doc); err != nil {
		return &StorageError{Op: "save", Kinds: []models.Kind{c.kind}, Err: err}
	}
	return nil
}

func (c *Collection[T]) encode(items []T) (Document, error) {
	payload, err := json.Marshal(items)
	if err != nil {
		return Document{}, &StorageError{Op: "encode", Kinds: []models.Kind{c.kind}, Err: err}
	}
	return Document{Kind: c.kind, Payload: payload}, nil
}

func (c *Collection[T]) load(ctx context.Context) error {
	payload, err := c.persister.Load(ctx, c.kind)
	if err != nil {
		return &StorageError{Op: "load", Kinds: []models.Kind{c.kind}, Err: err}
	}
	items := make([]T, 0)
	if len(payload) > 0 {
		if err := json.Unmarshal(payload, &items); err != nil {
			return &StorageError{Op: "decode", Kinds: []models.Kind{c.kind}, Err: err}
		}
	}
	c.mu.Lock()
	c.items = items
	c.mu.Unlock()
	return nil
}

// snapshot copies the records; the caller holds at least a read lock.
func (c *Collection[T]) snapshot() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// The methods below back multi-collection operations. Callers hold the write
// lock and persist every staged document in a single Save before committing.

type staged struct {
	doc    Document
	commit func()
}

func (c *Collection[T]) lock()    { c.mu.Lock() }
func (c *Collection[T]) unlock()  { c.mu.Unlock() }
func (c *Collection[T]) rlock()   { c.mu.RLock() }
func (c *Collection[T]) runlock() { c.mu.RUnlock() }

func (c *Collection[T]) has(id string) bool {
	return c.indexOf(id) >= 0
}

func (c *Collection[T]) stageRemove(id string) (staged, T, error) {
	var zero T
	idx := c.indexOf(id)
	if idx < 0 {
		return staged{}, zero, ErrNotFound
	}
	removed := c.items[idx]
	next := make([]T, 0, len(c.items)-1)
	next = append(next, c.items[:idx]...)
	next = append(next, c.items[idx+1:]...)
	doc, err := c.encode(next)
	if err != nil {
		return staged{}, zero, err
	}
	return staged{doc: doc, commit: func() { c.items = next }}, removed, nil
}

func (c *Collection[T]) stageRemoveRaw(id string) (staged, json.RawMessage, error) {
	st, removed, err := c.stageRemove(id)
	if err != nil {
		return staged{}, nil, err
	}
	raw, err := json.Marshal(removed)
	if err != nil {
		return staged{}, nil, &StorageError{Op: "encode", Kinds: []models.Kind{c.kind}, Err: err}
	}
	return st, raw, nil
}

// stageRemoveWhere drops every record whose field equals value and returns
// the removed records encoded as JSON, keyed by id in original order.
func (c *Collection[T]) stageRemoveWhere(field, value string) (staged, []removedRecord, error) {
	next := make([]T, 0, len(c.items))
	var removed []removedRecord
	for _, item := range c.items {
		if v, ok := item.Lookup(field); ok && v == value {
			raw, err := json.Marshal(item)
			if err != nil {
				return staged{}, nil, &StorageError{Op: "encode", Kinds: []models.Kind{c.kind}, Err: err}
			}
			removed = append(removed, removedRecord{id: item.RecordID(), raw: raw})
			continue
		}
		next = append(next, item)
	}
	if len(removed) == 0 {
		return staged{}, nil, nil
	}
	doc, err := c.encode(next)
	if err != nil {
		return staged{}, nil, err
	}
	return staged{doc: doc, commit: func() { c.items = next }}, removed, nil
}

func (c *Collection[T]) stageInsert(raws []json.RawMessage, at time.Time) (staged, error) {
	next := make([]T, len(c.items), len(c.items)+len(raws))
	copy(next, c.items)
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		var record T
		if err := json.Unmarshal(raw, &record); err != nil {
			return staged{}, &StorageError{Op: "decode", Kinds: []models.Kind{c.kind}, Err: err}
		}
		id := record.RecordID()
		if _, dup := seen[id]; dup || c.has(id) {
			return staged{}, fmt.Errorf("%s %s: %w", c.kind, id, ErrConflict)
		}
		for _, guard := range c.restoreGuards {
			if err := guard(next, record); err != nil {
				return staged{}, err
			}
		}
		seen[id] = struct{}{}
		next = append(next, record.Updated(at))
	}
	doc, err := c.encode(next)
	if err != nil {
		return staged{}, err
	}
	return staged{doc: doc, commit: func() { c.items = next }}, nil
}

type removedRecord struct {
	id  string
	raw json.RawMessage
}

// collection is the kind-erased view of a Collection used by the Store.
type collection interface {
	Kind() models.Kind
	lock()
	unlock()
	rlock()
	runlock()
	has(id string) bool
	stageRemoveRaw(id string) (staged, json.RawMessage, error)
	stageRemoveWhere(field, value string) (staged, []removedRecord, error)
	stageInsert(raws []json.RawMessage, at time.Time) (staged, error)
}
