// Package cache provides the bounded caches that sit in front of the
// embedding and generation collaborators.
package cache

import (
	"container/list"
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// EvictionPolicy selects the victim strategy for a full cache.
type EvictionPolicy int

const (
	// PolicyRecency promotes entries on Get hits and evicts the least
	// recently used entry on overflow.
	PolicyRecency EvictionPolicy = iota

	// PolicyInsertion never promotes; overflow evicts the oldest-inserted
	// entry. Cheaper bookkeeping for caches whose keys rarely repeat.
	PolicyInsertion
)

// Stats is a point-in-time snapshot of cache counters.
type Stats struct {
	Hits     int64
	Misses   int64
	Size     int
	Capacity int
}

// HitRate returns the hit percentage, or 0 when the cache is untouched.
func (s Stats) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total) * 100
}

// LRU is a bounded generic cache with hit/miss accounting.
// All operations are O(1) amortized and safe for concurrent use.
type LRU[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	policy   EvictionPolicy

	entries map[K]*list.Element
	order   *list.List // front = most recent (or newest inserted)

	hits   int64
	misses int64
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

// NewLRU creates a bounded cache with the given capacity and policy.
func NewLRU[K comparable, V any](capacity int, policy EvictionPolicy) *LRU[K, V] {
	if capacity <= 0 {
		capacity = 1000
	}
	return &LRU[K, V]{
		capacity: capacity,
		policy:   policy,
		entries:  make(map[K]*list.Element),
		order:    list.New(),
	}
}

// Get retrieves a value. A hit promotes the entry under PolicyRecency;
// PolicyInsertion leaves the order untouched.
func (c *LRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		c.misses++
		var zero V
		return zero, false
	}

	c.hits++
	if c.policy == PolicyRecency {
		c.order.MoveToFront(elem)
	}
	return elem.Value.(*lruEntry[K, V]).value, true
}

// Put stores a value. Inserting a new key into a full cache evicts exactly
// one victim; updating an existing key never changes the size.
func (c *LRU[K, V]) Put(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		elem.Value.(*lruEntry[K, V]).value = value
		if c.policy == PolicyRecency {
			c.order.MoveToFront(elem)
		}
		return
	}

	if len(c.entries) >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*lruEntry[K, V]).key)
		}
	}

	c.entries[key] = c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
}

// Stats returns a snapshot of the counters.
func (c *LRU[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Stats{
		Hits:     c.hits,
		Misses:   c.misses,
		Size:     len(c.entries),
		Capacity: c.capacity,
	}
}

// Clear drops all entries and resets the hit/miss counters.
func (c *LRU[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[K]*list.Element)
	c.order.Init()
	c.hits = 0
	c.misses = 0
}

// ContentHash derives the fixed-width cache key for a text. SHA-256 keeps
// collisions out of the picture for both short queries and long prompts.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}
