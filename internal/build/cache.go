package build

import (
	"hash/crc32"
	"sync"
	"sync/atomic"
)

// OutputCache remembers a checksum of every file the generator wrote so a
// rebuild can leave byte-identical files untouched.
type OutputCache struct {
	mutex    sync.RWMutex
	entries  map[string]uint32
	crcTable *crc32.Table

	hits   int64
	misses int64
}

// CacheStats is a snapshot of OutputCache counters.
type CacheStats struct {
	Entries int
	Hits    int64
	Misses  int64
}

// NewOutputCache creates an empty cache.
func NewOutputCache() *OutputCache {
	return &OutputCache{
		entries:  make(map[string]uint32),
		crcTable: crc32.MakeTable(crc32.Castagnoli),
	}
}

// Unchanged reports whether content matches what was last recorded for path.
func (c *OutputCache) Unchanged(path string, content []byte) bool {
	sum := crc32.Checksum(content, c.crcTable)

	c.mutex.RLock()
	prev, ok := c.entries[path]
	c.mutex.RUnlock()

	if ok && prev == sum {
		atomic.AddInt64(&c.hits, 1)
		return true
	}
	atomic.AddInt64(&c.misses, 1)
	return false
}

// Record stores the checksum of content written to path.
func (c *OutputCache) Record(path string, content []byte) {
	sum := crc32.Checksum(content, c.crcTable)

	c.mutex.Lock()
	c.entries[path] = sum
	c.mutex.Unlock()
}

// Forget drops path, forcing the next write.
func (c *OutputCache) Forget(path string) {
	c.mutex.Lock()
	delete(c.entries, path)
	c.mutex.Unlock()
}

// Clear drops every entry.
func (c *OutputCache) Clear() {
	c.mutex.Lock()
	c.entries = make(map[string]uint32)
	c.mutex.Unlock()
}

// Stats returns the current counters.
func (c *OutputCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return CacheStats{
		Entries: len(c.entries),
		Hits:    atomic.LoadInt64(&c.hits),
		Misses:  atomic.LoadInt64(&c.misses),
	}
}
