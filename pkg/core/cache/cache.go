// ============================================================================
// dsmcp - DataSunrise CLI bridge for the Model Context Protocol
// ============================================================================
//
// Package:     cache
// Description: Bounded in-memory cache with sliding TTL
// Created:     2025-12-06
// License:     MIT
// ============================================================================

package cache

import (
	"sync"
	"time"
)

// Entry represents a cached item with expiration
type Entry struct {
	Value      interface{}
	Expiration time.Time
}

// expired checks the entry against the given instant
func (e *Entry) expired(now time.Time) bool {
	if e.Expiration.IsZero() {
		return false
	}
	return now.After(e.Expiration)
}

// Cache is a thread-safe in-memory cache with TTL support.
// Every write refreshes the entry's expiration.
type Cache struct {
	mu       sync.RWMutex
	items    map[string]*Entry
	maxItems int
	ttl      time.Duration
	now      func() time.Time

	done      chan struct{}
	closeOnce sync.Once

	// Metrics
	hits   int64
	misses int64
}

// Config holds cache configuration
type Config struct {
	MaxItems int
	TTL      time.Duration

	// CleanupInterval controls the background sweep; zero disables it and
	// expired entries are then only dropped on access.
	CleanupInterval time.Duration

	// Now overrides the clock, mainly for tests
	Now func() time.Time
}

// DefaultConfig returns default cache configuration
func DefaultConfig() Config {
	return Config{
		MaxItems:        1024,
		TTL:             5 * time.Minute,
		CleanupInterval: time.Minute,
	}
}

// New creates a new cache instance
func New(cfg Config) *Cache {
	if cfg.MaxItems <= 0 {
		cfg.MaxItems = 1024
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c := &Cache{
		items:    make(map[string]*Entry),
		maxItems: cfg.MaxItems,
		ttl:      cfg.TTL,
		now:      cfg.Now,
		done:     make(chan struct{}),
	}

	if cfg.CleanupInterval > 0 {
		go c.cleanupLoop(cfg.CleanupInterval)
	}

	return c
}

// Get retrieves a value from the cache
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.lookup(key)
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	return entry.Value, true
}

// Set stores a value in the cache with the default TTL
func (c *Cache) Set(key string, value interface{}) {
	c.SetWithTTL(key, value, c.ttl)
}

// SetWithTTL stores a value with a custom TTL
func (c *Cache) SetWithTTL(key string, value interface{}, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store(key, value, ttl)
}

// Update atomically replaces the value for key with fn(old, found).
// Expired entries are reported as not found. If fn returns keep=false the
// key is removed instead.
func (c *Cache) Update(key string, fn func(old interface{}, found bool) (value interface{}, keep bool)) interface{} {
	c.mu.Lock()
	defer c.mu.Unlock()

	var old interface{}
	entry, found := c.lookup(key)
	if found {
		old = entry.Value
	}

	value, keep := fn(old, found)
	if !keep {
		delete(c.items, key)
		return value
	}
	c.store(key, value, c.ttl)
	return value
}

// Delete removes a value from the cache
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Clear removes all items from the cache
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*Entry)
}

// Size returns the number of items in the cache
func (c *Cache) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache) Stats() (hits, misses int64, hitRate float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	hits = c.hits
	misses = c.misses
	total := hits + misses
	if total > 0 {
		hitRate = float64(hits) / float64(total) * 100
	}
	return
}

// Close stops the background cleanup goroutine
func (c *Cache) Close() {
	c.closeOnce.Do(func() { close(c.done) })
}

// lookup returns a live entry, dropping it if expired (lock held)
func (c *Cache) lookup(key string) (*Entry, bool) {
	entry, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if entry.expired(c.now()) {
		delete(c.items, key)
		return nil, false
	}
	return entry, true
}

// store writes an entry, evicting if at capacity (lock held)
func (c *Cache) store(key string, value interface{}, ttl time.Duration) {
	if _, exists := c.items[key]; !exists && len(c.items) >= c.maxItems {
		c.evictOldest()
	}

	var exp time.Time
	if ttl > 0 {
		exp = c.now().Add(ttl)
	}
	c.items[key] = &Entry{Value: value, Expiration: exp}
}

// evictOldest removes the entry closest to expiry (lock held)
func (c *Cache) evictOldest() {
	var (
		oldestKey  string
		oldestTime time.Time
		found      bool
	)
	for key, entry := range c.items {
		if !found || entry.Expiration.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.Expiration
			found = true
		}
	}

	if found {
		delete(c.items, oldestKey)
	}
}

// cleanupLoop periodically removes expired entries
func (c *Cache) cleanupLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanup()
		case <-c.done:
			return
		}
	}
}

// cleanup removes all expired entries
func (c *Cache) cleanup() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for key, entry := range c.items {
		if entry.expired(now) {
			delete(c.items, key)
		}
	}
}
