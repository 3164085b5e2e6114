package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
	"time"
)

// Entry is a cached raw provider response.
type Entry struct {
	Data      []byte    `json:"data"`
	Timestamp time.Time `json:"ts"`
}

// Cache stores raw responses. Freshness is decided by the gateway from the
// entry timestamp; backends only need to keep entries at least ttl long.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, bool, error)
	Set(ctx context.Context, key string, e Entry, ttl time.Duration) error
}

// Purger is implemented by caches that can drop stale entries on demand.
type Purger interface {
	Purge(before time.Time) int
}

// Key derives a cache key from the request identity.
func Key(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\x00")))
	return hex.EncodeToString(sum[:])
}

// MemoryCache is the in-process cache. Stale entries are overwritten on the
// next successful fetch or dropped by Purge.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]Entry)}
}

func (c *MemoryCache) Get(_ context.Context, key string) (Entry, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[key]
	return e, ok, nil
}

func (c *MemoryCache) Set(_ context.Context, key string, e Entry, _ time.Duration) error {
	c.mu.Lock()
	c.entries[key] = e
	c.mu.Unlock()
	return nil
}

// Purge removes entries stored before the cutoff and reports how many.
func (c *MemoryCache) Purge(before time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for k, e := range c.entries {
		if e.Timestamp.Before(before) {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len reports the number of stored entries.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
