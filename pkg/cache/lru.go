package cache

import (
	"container/list"
	"fmt"
	"sync"
)

// lruEntry represents an entry in the LRU cache.
type lruEntry[V any] struct {
	key   string
	value V
}

// lruCache is a thread-safe LRU cache. It evicts the least recently used
// items when the maximum size is exceeded.
type lruCache[V any] struct {
	mu      sync.Mutex
	maxSize int
	items   map[string]*list.Element
	order   *list.List // front = most recently used
	stats   *Statistics
	metrics *cacheMetrics
	evictFn EvictCallback[V]
}

// NewLRU creates a new LRU cache with the specified maximum size.
func NewLRU[V any](maxSize int, opts ...Option[V]) (Cache[V], error) {
	if maxSize <= 0 {
		return nil, fmt.Errorf("cache: maxSize must be positive, got %d", maxSize)
	}

	options := applyOptions(opts...)

	var metrics *cacheMetrics
	if options.metricsReg != nil {
		var err error
		metrics, err = newCacheMetrics(options.metricsReg, options.metricsPrefix)
		if err != nil {
			return nil, err
		}
	}

	return &lruCache[V]{
		maxSize: maxSize,
		items:   make(map[string]*list.Element),
		order:   list.New(),
		stats:   NewStatistics(),
		metrics: metrics,
		evictFn: options.evictCallback,
	}, nil
}

// Get retrieves a value by key and marks it as recently used.
func (c *lruCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		var zero V
		c.stats.Miss()
		c.metrics.recordMiss()
		return zero, false
	}

	c.order.MoveToFront(element)
	c.stats.Hit()
	c.metrics.recordHit()
	return element.Value.(*lruEntry[V]).value, true
}

// Set stores a value and marks it as recently used.
func (c *lruCache[V]) Set(key string, value V) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()

	if element, exists := c.items[key]; exists {
		element.Value.(*lruEntry[V]).value = value
		c.order.MoveToFront(element)
		c.stats.Set()
		c.metrics.recordSet(len(c.items))
		c.mu.Unlock()
		return false, nil
	}

	c.items[key] = c.order.PushFront(&lruEntry[V]{key: key, value: value})
	c.stats.Set()

	var evictedKey string
	var evictedValue V
	evicted := false
	if len(c.items) > c.maxSize {
		if back := c.order.Back(); back != nil {
			entry := back.Value.(*lruEntry[V])
			delete(c.items, entry.key)
			c.order.Remove(back)
			c.stats.Eviction()
			c.metrics.recordEviction(len(c.items))
			evictedKey, evictedValue, evicted = entry.key, entry.value, true
		}
	}
	c.metrics.recordSet(len(c.items))
	c.mu.Unlock()

	// Callback runs outside the lock to avoid deadlocks.
	if evicted && c.evictFn != nil {
		c.evictFn(evictedKey, evictedValue)
	}
	return true, nil
}

// Delete removes an entry by key.
func (c *lruCache[V]) Delete(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	element, exists := c.items[key]
	if !exists {
		return false, nil
	}
	delete(c.items, key)
	c.order.Remove(element)
	c.stats.Delete()
	c.metrics.recordSize(len(c.items))
	return true, nil
}

// Clear removes all entries.
func (c *lruCache[V]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.metrics.recordSize(0)
	return nil
}

// Size returns the current number of entries.
func (c *lruCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the keys of all entries, most recently used first.
func (c *lruCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for element := c.order.Front(); element != nil; element = element.Next() {
		keys = append(keys, element.Value.(*lruEntry[V]).key)
	}
	return keys
}

// Stats returns the cache's statistics tracker.
func (c *lruCache[V]) Stats() *Statistics { return c.stats }

// Close is a no-op for LRU caches; they run no background goroutines.
func (c *lruCache[V]) Close() error { return nil }
