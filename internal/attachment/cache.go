// ABOUTME: Thread-safe TTL cache for staged image attachments
// ABOUTME: Attachments are ephemeral - they live in memory only and never survive a restart

package attachment

import (
	"container/list"
	"sync"
	"time"

	"github.com/google/uuid"
)

// cacheEntry stores the bytes, timestamp, and list element for a cached id.
type cacheEntry struct {
	data      []byte
	name      string
	timestamp time.Time
	element   *list.Element
}

// Cache holds uploaded image bytes for the lifetime of the process, keyed by
// generated id. Messages persist only the id; after a restart the lookup
// misses and the attachment renders as expired. TTL-based and size-limited.
// Uses a doubly-linked list to maintain insertion order for O(1) eviction.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*cacheEntry
	order   *list.List // ids in insertion order (oldest at front)
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// New creates a new attachment cache with the specified TTL and maximum
// entry count. A background goroutine periodically cleans up expired entries.
func New(ttl time.Duration, maxSize int) *Cache {
	c := &Cache{
		entries: make(map[string]*cacheEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go c.cleanup()
	return c
}

// Put stores image bytes under a freshly generated id and returns the id.
// If the cache is at capacity, the oldest entry is evicted to make room.
func (c *Cache) Put(data []byte, name string) string {
	id := uuid.New().String()

	c.mu.Lock()
	defer c.mu.Unlock()

	for c.order.Len() >= c.maxSize {
		oldest := c.order.Front()
		if oldest == nil {
			break
		}
		c.removeLocked(oldest.Value.(string))
	}

	entry := &cacheEntry{
		data:      data,
		name:      name,
		timestamp: time.Now(),
	}
	entry.element = c.order.PushBack(id)
	c.entries[id] = entry
	return id
}

// Get returns the bytes and filename for an id. A missing or expired id
// reports ok=false - the caller treats it as an expired attachment.
func (c *Cache) Get(id string) (data []byte, name string, ok bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[id]
	if !exists || time.Since(entry.timestamp) >= c.ttl {
		return nil, "", false
	}
	return entry.data, entry.name, true
}

// Remove drops an entry.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.removeLocked(id)
}

func (c *Cache) removeLocked(id string) {
	entry, exists := c.entries[id]
	if !exists {
		return
	}
	c.order.Remove(entry.element)
	delete(c.entries, id)
}

// Len returns the number of cached attachments.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// cleanup periodically removes expired entries.
func (c *Cache) cleanup() {
	interval := c.ttl / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.sweep()
		case <-c.done:
			return
		}
	}
}

// sweep removes all expired entries.
func (c *Cache) sweep() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for e := c.order.Front(); e != nil; {
		next := e.Next()
		id := e.Value.(string)
		if entry := c.entries[id]; entry != nil && time.Since(entry.timestamp) >= c.ttl {
			c.removeLocked(id)
		}
		e = next
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		close(c.done)
		c.closed = true
	}
}
