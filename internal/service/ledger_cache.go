package service

import (
	"context"
	"sync"
	"time"

	"github.com/noah-isme/school-records-api/internal/models"
)

const ledgerKeyPrefix = "ledger:"

// LedgerCache keeps computed fee ledgers keyed by student id. A nil
// LedgerCache is a valid, always-empty cache.
//
// Every invalidation bumps a generation counter. A ledger computed under an
// older generation is never written back, so a read racing a payment write
// cannot re-cache the stale result.
type LedgerCache struct {
	cache *CacheService
	ttl   time.Duration

	mu         sync.Mutex
	generation uint64
}

// NewLedgerCache builds a ledger cache on top of cache.
func NewLedgerCache(cache *CacheService, ttl time.Duration) *LedgerCache {
	return &LedgerCache{cache: cache, ttl: ttl}
}

func ledgerKey(studentID string) string {
	return ledgerKeyPrefix + studentID
}

// Get returns the cached ledger for studentID.
func (c *LedgerCache) Get(ctx context.Context, studentID string) (models.FeeLedger, bool) {
	var ledger models.FeeLedger
	if c == nil || !c.cache.Get(ctx, ledgerKey(studentID), &ledger) {
		return models.FeeLedger{}, false
	}
	return ledger, true
}

// Generation returns the current invalidation generation. Read it before
// taking the snapshot the ledger is computed from.
func (c *LedgerCache) Generation() uint64 {
	if c == nil {
		return 0
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation
}

// Put caches ledger unless an invalidation happened since generation was
// read. It reports whether the ledger was stored.
func (c *LedgerCache) Put(ctx context.Context, ledger models.FeeLedger, generation uint64) bool {
	if c == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != generation {
		return false
	}
	c.cache.Set(ctx, ledgerKey(ledger.StudentID), ledger, c.ttl)
	return true
}

// InvalidateStudents drops the ledgers of the given students.
func (c *LedgerCache) InvalidateStudents(ctx context.Context, studentIDs ...string) {
	if c == nil || len(studentIDs) == 0 {
		return
	}
	keys := make([]string, len(studentIDs))
	for i, id := range studentIDs {
		keys[i] = ledgerKey(id)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Delete(ctx, keys...)
}

// InvalidateAll drops every cached ledger.
func (c *LedgerCache) InvalidateAll(ctx context.Context) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.cache.Invalidate(ctx, ledgerKeyPrefix+"*")
}
