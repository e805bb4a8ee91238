package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type Stats struct {
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
	Size      int    `json:"size"`
}

type entry[V any] struct {
	value       V
	createdAt   time.Time
	lastAccess  atomic.Int64
	accessCount atomic.Int64
}

// Cache memoizes computed values under a fingerprint key, bounded by an LRU
// capacity and a TTL. Entries are immutable after creation except for
// access bookkeeping. Construct one per value kind and inject it; there is
// no package-level instance.
type Cache[V any] struct {
	lru       *expirable.LRU[string, *entry[V]]
	hits      atomic.Uint64
	misses    atomic.Uint64
	evictions atomic.Uint64
}

func New[V any](capacity int, ttl time.Duration) *Cache[V] {
	c := &Cache[V]{}
	c.lru = expirable.NewLRU(capacity, func(string, *entry[V]) {
		c.evictions.Add(1)
	}, ttl)
	return c
}

// Get returns the value stored under key. A hit records the access; TTL
// expiry is checked lazily by the underlying LRU.
func (c *Cache[V]) Get(key string) (V, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		c.misses.Add(1)
		var zero V
		return zero, false
	}
	c.hits.Add(1)
	e.lastAccess.Store(time.Now().UnixMilli())
	e.accessCount.Add(1)
	return e.value, true
}

func (c *Cache[V]) Put(key string, value V) {
	e := &entry[V]{
		value:     value,
		createdAt: time.Now(),
	}
	e.lastAccess.Store(e.createdAt.UnixMilli())
	c.lru.Add(key, e)
}

func (c *Cache[V]) Len() int {
	return c.lru.Len()
}

func (c *Cache[V]) Stats() Stats {
	return Stats{
		Hits:      c.hits.Load(),
		Misses:    c.misses.Load(),
		Evictions: c.evictions.Load(),
		Size:      c.lru.Len(),
	}
}

// Purge drops every entry. Used for teardown in tests.
func (c *Cache[V]) Purge() {
	c.lru.Purge()
}
