package executor

import (
	"strings"
	"sync"
	"time"
)

// cacheEntry is a stored result and when it stops being served
type cacheEntry struct {
	result  Result
	expires time.Time
}

// Cache stores successful results of read-only commands for a short TTL.
// A TTL of zero disables the cache entirely.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

// NewCache creates a cache with the given TTL
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// SetTTL changes the TTL for future entries; zero disables and empties the cache
func (c *Cache) SetTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
	if ttl <= 0 {
		c.entries = make(map[string]cacheEntry)
	}
}

// Get returns a live entry for key
func (c *Cache) Get(key string) (Result, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Result{}, false
	}
	if !c.now().Before(e.expires) {
		delete(c.entries, key)
		return Result{}, false
	}
	return e.result, true
}

// Put stores a result under key
func (c *Cache) Put(key string, r Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.ttl <= 0 {
		return
	}
	c.entries[key] = cacheEntry{result: r, expires: c.now().Add(c.ttl)}
}

// Invalidate drops every entry whose key starts with prefix and returns how many
func (c *Cache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired ones included
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// cacheKey identifies a command together with the options that shape its result
func cacheKey(cmd Command, timeout time.Duration) string {
	return cmd.String() + "\x00" + timeout.String()
}
