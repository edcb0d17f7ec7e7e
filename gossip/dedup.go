// Package gossip implements the bottle dissemination layer: a bounded
// recency-ordered cache that suppresses redundant rebroadcast, a
// stake-weighted ranking of rebroadcast targets, and the router wiring both
// to the transport channels.
package gossip

import (
	"container/list"
	"sync"
)

// DefaultCacheSize bounds the dedup cache when no size is configured.
const DefaultCacheSize = 1024

// BlobID is the stable content-hash identifier of a gossiped unit. Two blobs
// with equal content always map to equal ids.
type BlobID string

// DedupCache is a bounded set of recently observed blob ids with
// least-recently-used eviction. It is never persisted: suppression is
// best-effort, and a restart starts empty. Downstream consumers must
// deduplicate by content identity on their own; an aged-out entry costs at
// worst one redundant rebroadcast.
//
// All access goes through Observe, which is safe for concurrent use.
type DedupCache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front = most recently touched
	entries  map[BlobID]*list.Element
}

func NewDedupCache(capacity int) *DedupCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &DedupCache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[BlobID]*list.Element, capacity),
	}
}

// Observe records the id and reports whether it was new. A true result means
// the caller should process and forward the blob; false means it was already
// seen and only its recency was refreshed. When the cache is full, inserting
// a new id evicts the least-recently-touched one first. The check and the
// insert are atomic: concurrent deliveries of the same id cannot both see a
// true result.
func (c *DedupCache) Observe(id BlobID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, seen := c.entries[id]; seen {
		c.order.MoveToFront(elem)
		return false
	}

	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(BlobID))
	}
	c.entries[id] = c.order.PushFront(id)
	return true
}

// Len returns the number of resident ids.
func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
