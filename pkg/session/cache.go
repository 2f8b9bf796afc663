package session

import "github.com/parlorvoice/parlor/pkg/wire"

// DefaultCacheSize bounds the hydrated-session cache when no explicit
// capacity is configured.
const DefaultCacheSize = 32

// lruCache is a capacity-bounded cache of hydrated sessions, evicting the
// least recently resumed entry. Not safe for concurrent use; the Index
// serializes access.
type lruCache struct {
	capacity int
	entries  map[string]*wire.SessionDetail
	lastUsed map[string]uint64
	tick     uint64
}

func newLRUCache(capacity int) *lruCache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &lruCache{
		capacity: capacity,
		entries:  make(map[string]*wire.SessionDetail),
		lastUsed: make(map[string]uint64),
	}
}

func (c *lruCache) get(id string) (*wire.SessionDetail, bool) {
	s, ok := c.entries[id]
	if ok {
		c.tick++
		c.lastUsed[id] = c.tick
	}
	return s, ok
}

func (c *lruCache) put(s *wire.SessionDetail) {
	if _, ok := c.entries[s.ID]; !ok && len(c.entries) >= c.capacity {
		c.evictOldest()
	}
	c.tick++
	c.entries[s.ID] = s
	c.lastUsed[s.ID] = c.tick
}

func (c *lruCache) evictOldest() {
	var oldest string
	var oldestTick uint64
	first := true
	for id, t := range c.lastUsed {
		if first || t < oldestTick {
			oldest, oldestTick = id, t
			first = false
		}
	}
	if !first {
		delete(c.entries, oldest)
		delete(c.lastUsed, oldest)
	}
}

func (c *lruCache) len() int {
	return len(c.entries)
}

func (c *lruCache) clear() {
	c.entries = make(map[string]*wire.SessionDetail)
	c.lastUsed = make(map[string]uint64)
	c.tick = 0
}
