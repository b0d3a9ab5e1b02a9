package identity

import (
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long a lookup result stays valid.
const DefaultTTL = 7 * 24 * time.Hour

type cacheEntry struct {
	identity Identity
	expires  time.Time
}

// Cache holds resolved identities keyed by legacy username, compared
// case-insensitively. Entries expire after a fixed time-to-live.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]cacheEntry
}

// NewCache creates a cache whose entries live for ttl (DefaultTTL if zero).
func NewCache(ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// WithClock replaces the time source; used by tests.
func (c *Cache) WithClock(now func() time.Time) *Cache {
	c.now = now
	return c
}

// Get returns the cached identity for username if present and not expired.
func (c *Cache) Get(username string) (Identity, bool) {
	key := cacheKey(username)
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return Identity{}, false
	}
	if !c.now().Before(entry.expires) {
		delete(c.entries, key)
		return Identity{}, false
	}
	return entry.identity, true
}

// Set stores id for username, resetting its expiry.
func (c *Cache) Set(username string, id Identity) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[cacheKey(username)] = cacheEntry{identity: id, expires: c.now().Add(c.ttl)}
}

// Len returns the number of entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func cacheKey(username string) string {
	return strings.ToLower(username)
}
