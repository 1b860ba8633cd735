package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type memoryEntry struct {
	ids       []uint
	count     int64
	isCount   bool
	expiresAt time.Time
}

// MemoryQueryCache is the in-process QueryCache used when Redis is not
// configured. Entries expire by TTL; stale entries are dropped lazily on
// read and swept whenever the map grows past a threshold.
type MemoryQueryCache struct {
	mu      sync.RWMutex
	stamps  map[string]uint64
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryQueryCache creates an in-memory query cache. A non-positive ttl
// falls back to five minutes.
func NewMemoryQueryCache(ttl time.Duration) *MemoryQueryCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &MemoryQueryCache{
		stamps:  map[string]uint64{},
		entries: map[string]memoryEntry{},
		ttl:     ttl,
		now:     time.Now,
	}
}

const memorySweepThreshold = 4096

func (c *MemoryQueryCache) Stamp(_ context.Context, group string) (uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.stamps[group], nil
}

func (c *MemoryQueryCache) Bump(_ context.Context, group string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stamps[group]++
	return nil
}

func (c *MemoryQueryCache) GetIDs(_ context.Context, group string, stamp uint64, fingerprint string) ([]uint, bool) {
	key := entryKey(group, stamp, fingerprint, "ids")

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || e.isCount || c.now().After(e.expiresAt) {
		return nil, false
	}

	ids := make([]uint, len(e.ids))
	copy(ids, e.ids)
	return ids, true
}

func (c *MemoryQueryCache) SetIDs(_ context.Context, group string, stamp uint64, fingerprint string, ids []uint) {
	stored := make([]uint, len(ids))
	copy(stored, ids)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	c.entries[entryKey(group, stamp, fingerprint, "ids")] = memoryEntry{
		ids:       stored,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *MemoryQueryCache) GetCount(_ context.Context, group string, stamp uint64, fingerprint string) (int64, bool) {
	key := entryKey(group, stamp, fingerprint, "count")

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok || !e.isCount || c.now().After(e.expiresAt) {
		return 0, false
	}
	return e.count, true
}

func (c *MemoryQueryCache) SetCount(_ context.Context, group string, stamp uint64, fingerprint string, count int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweepLocked()
	c.entries[entryKey(group, stamp, fingerprint, "count")] = memoryEntry{
		count:     count,
		isCount:   true,
		expiresAt: c.now().Add(c.ttl),
	}
}

func (c *MemoryQueryCache) sweepLocked() {
	if len(c.entries) < memorySweepThreshold {
		return
	}
	now := c.now()
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

func entryKey(group string, stamp uint64, fingerprint, kind string) string {
	return fmt.Sprintf("%s:%d:%s:%s", group, stamp, kind, fingerprint)
}
