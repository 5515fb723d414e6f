package store

import (
	"sync"
	"time"

	"github.com/set-night/ledgerbot/internal/domain"
)

// SnapshotCache is a short-lived read shadow of the last known snapshot.
// Cached snapshots are never mutated; readers get clones from the Store.
type SnapshotCache struct {
	mu       sync.RWMutex
	snap     *domain.Snapshot
	cachedAt time.Time
	ttl      time.Duration
	gen      uint64
	now      func() time.Time
}

func NewSnapshotCache(ttl time.Duration, now func() time.Time) *SnapshotCache {
	if now == nil {
		now = time.Now
	}
	return &SnapshotCache{ttl: ttl, now: now}
}

func (c *SnapshotCache) Get() *domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.snap == nil || c.ttl <= 0 || c.now().Sub(c.cachedAt) > c.ttl {
		return nil
	}
	return c.snap
}

// Generation identifies the cache state; it changes on every Set and Invalidate.
func (c *SnapshotCache) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// Set stores a committed snapshot.
func (c *SnapshotCache) Set(snap *domain.Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.snap = snap
	c.cachedAt = c.now()
}

// Fill stores snap read from the backend only if no write happened since
// gen was observed, so a slow read cannot shadow a newer commit.
func (c *SnapshotCache) Fill(gen uint64, snap *domain.Snapshot) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.gen++
	c.snap = snap
	c.cachedAt = c.now()
	return true
}

func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.snap = nil
}
