package application

import (
	"sync"
	"time"

	"github.com/example/swimteam-scheduler/internal/dateutil"
)

// leaderCache stores recently resolved duty leaders to avoid repeated
// assignment queries for identical date lookups while the rotation remains
// unchanged.
type leaderCache struct {
	mu         sync.RWMutex
	now        func() time.Time
	ttl        time.Duration
	maxEntries int
	entries    map[string]leaderCacheEntry
}

type leaderCacheEntry struct {
	leader    Leader
	expiresAt time.Time
}

func newLeaderCache(ttl time.Duration, maxEntries int, now func() time.Time) *leaderCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if maxEntries <= 0 {
		maxEntries = 128
	}
	if now == nil {
		now = time.Now
	}
	return &leaderCache{
		now:        now,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]leaderCacheEntry),
	}
}

func (c *leaderCache) Get(date time.Time) (Leader, bool) {
	if c == nil {
		return Leader{}, false
	}
	key := leaderCacheKey(date)
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return Leader{}, false
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, key)
		c.mu.Unlock()
		return Leader{}, false
	}
	return entry.leader, true
}

func (c *leaderCache) Store(date time.Time, leader Leader) {
	if c == nil {
		return
	}
	expiry := c.now().Add(c.ttl)

	c.mu.Lock()
	defer c.mu.Unlock()

	c.cleanupLocked()
	if len(c.entries) >= c.maxEntries {
		c.evictOneLocked()
	}
	c.entries[leaderCacheKey(date)] = leaderCacheEntry{leader: leader, expiresAt: expiry}
}

func (c *leaderCache) Invalidate() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.entries = make(map[string]leaderCacheEntry)
	c.mu.Unlock()
}

func (c *leaderCache) cleanupLocked() {
	now := c.now()
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
		}
	}
}

func (c *leaderCache) evictOneLocked() {
	for key := range c.entries {
		delete(c.entries, key)
		return
	}
}

func leaderCacheKey(date time.Time) string {
	return dateutil.FormatDate(dateutil.Midnight(date))
}
