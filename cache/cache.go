// Package cache provides a bounded LRU cache with per-entry TTL.
//
// The store instantiates it twice: once keyed by record id for point lookups
// and once keyed by query hash for multi-record results. The cache is an
// optimization only; a miss must always be answerable from the record table.
package cache

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Cache is a mutex-guarded LRU with per-entry expiry.
// Entry count is bounded by capacity; the least recently used entry is
// evicted first. Expired entries are dropped lazily on access and by the
// optional janitor goroutine.
type Cache[K comparable, V any] struct {
	mu        sync.Mutex
	capacity  int
	ttl       time.Duration
	items     map[K]*list.Element
	evictList *list.List

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64

	janitorStop chan struct{}
	closed      atomic.Bool
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// Stats is a point-in-time view of cache counters.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
}

// New creates a cache holding at most capacity entries, each living for ttl.
// A capacity <= 0 disables the cache: Set is a no-op and Get always misses.
// A ttl <= 0 means entries never expire and are bounded by capacity alone.
func New[K comparable, V any](capacity int, ttl time.Duration) *Cache[K, V] {
	return &Cache[K, V]{
		capacity:  capacity,
		ttl:       ttl,
		items:     make(map[K]*list.Element),
		evictList: list.New(),
	}
}

// Get returns the cached value for key. ok=false if missing or expired.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	elem, ok := c.items[key]
	if !ok {
		c.misses.Add(1)
		return zero, false
	}

	ent := elem.Value.(*entry[K, V])
	if !ent.expiresAt.IsZero() && time.Now().After(ent.expiresAt) {
		c.removeElement(elem)
		c.evictions.Add(1)
		c.misses.Add(1)
		return zero, false
	}

	c.hits.Add(1)
	c.evictList.MoveToFront(elem)
	return ent.value, true
}

// Set caches value under key, restarting its TTL.
func (c *Cache[K, V]) Set(key K, value V) {
	if c.capacity <= 0 {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = time.Now().Add(c.ttl)
	}
	if elem, ok := c.items[key]; ok {
		c.evictList.MoveToFront(elem)
		ent := elem.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		return
	}

	for c.evictList.Len() >= c.capacity {
		oldest := c.evictList.Back()
		if oldest == nil {
			break
		}
		c.removeElement(oldest)
		c.evictions.Add(1)
	}

	elem := c.evictList.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = elem
}

// Remove invalidates the entry for key. Reports whether an entry was present.
func (c *Cache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.items[key]
	if !ok {
		return false
	}
	c.removeElement(elem)
	return true
}

// Purge invalidates all entries.
func (c *Cache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[K]*list.Element)
	c.evictList.Init()
}

// Len returns the number of entries currently cached, including entries that
// have expired but not yet been collected.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// Stats returns cache statistics.
func (c *Cache[K, V]) Stats() Stats {
	c.mu.Lock()
	entries := c.evictList.Len()
	c.mu.Unlock()

	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Entries:   entries,
	}
}

// StartJanitor launches a background goroutine that sweeps expired entries
// every interval. Close stops it.
func (c *Cache[K, V]) StartJanitor(interval time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.janitorStop != nil || interval <= 0 {
		return
	}
	c.janitorStop = make(chan struct{})

	go func(stop chan struct{}) {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.sweep()
			}
		}
	}(c.janitorStop)
}

// Close stops the janitor (if running) and drops all entries. Idempotent.
func (c *Cache[K, V]) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	c.mu.Lock()
	if c.janitorStop != nil {
		close(c.janitorStop)
		c.janitorStop = nil
	}
	c.items = make(map[K]*list.Element)
	c.evictList.Init()
	c.mu.Unlock()
	return nil
}

// sweep removes all expired entries.
func (c *Cache[K, V]) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*list.Element
	for _, elem := range c.items {
		ent := elem.Value.(*entry[K, V])
		if !ent.expiresAt.IsZero() && now.After(ent.expiresAt) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		c.removeElement(elem)
		c.evictions.Add(1)
	}
}

func (c *Cache[K, V]) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	ent := elem.Value.(*entry[K, V])
	delete(c.items, ent.key)
}
