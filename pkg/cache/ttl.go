package cache

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ttlEntry represents an entry in the TTL cache.
type ttlEntry[V any] struct {
	value     V
	expiresAt time.Time
}

func (e *ttlEntry[V]) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// ttlCache is a thread-safe time-to-live cache. A background goroutine
// removes expired items; Get also checks expiry so stale reads are
// impossible between cleanup passes.
type ttlCache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	items   map[string]*ttlEntry[V]
	stats   *Statistics
	metrics *cacheMetrics
	evictFn EvictCallback[V]

	shutdown chan struct{}
	done     chan struct{}
	closeOnce sync.Once
}

// NewTTL creates a new TTL cache. The cleanup goroutine stops when ctx is
// cancelled or Close is called, whichever comes first.
func NewTTL[V any](ctx context.Context, ttl, cleanupInterval time.Duration, opts ...Option[V]) (Cache[V], error) {
	if ttl <= 0 {
		return nil, fmt.Errorf("cache: ttl must be positive, got %v", ttl)
	}
	if cleanupInterval <= 0 {
		cleanupInterval = ttl / 2
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

	c := &ttlCache[V]{
		ttl:      ttl,
		items:    make(map[string]*ttlEntry[V]),
		stats:    NewStatistics(),
		metrics:  metrics,
		evictFn:  options.evictCallback,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}

	go c.cleanupLoop(ctx, cleanupInterval)
	return c, nil
}

func (c *ttlCache[V]) cleanupLoop(ctx context.Context, interval time.Duration) {
	defer close(c.done)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.shutdown:
			return
		case <-ticker.C:
			c.removeExpired()
		}
	}
}

func (c *ttlCache[V]) removeExpired() {
	type evicted struct {
		key   string
		value V
	}
	var expired []evicted

	c.mu.Lock()
	for key, entry := range c.items {
		if entry.isExpired() {
			delete(c.items, key)
			c.stats.Eviction()
			expired = append(expired, evicted{key, entry.value})
		}
	}
	c.metrics.recordSize(len(c.items))
	c.mu.Unlock()

	if c.evictFn != nil {
		for _, e := range expired {
			c.evictFn(e.key, e.value)
		}
	}
}

// Get retrieves a value by key. Expired entries count as misses and are
// removed eagerly.
func (c *ttlCache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V
	entry, exists := c.items[key]
	if !exists {
		c.stats.Miss()
		c.metrics.recordMiss()
		return zero, false
	}
	if entry.isExpired() {
		delete(c.items, key)
		c.stats.Eviction()
		c.stats.Miss()
		c.metrics.recordMiss()
		return zero, false
	}

	c.stats.Hit()
	c.metrics.recordHit()
	return entry.value, true
}

// Set stores a value with the cache's TTL.
func (c *ttlCache[V]) Set(key string, value V) (bool, error) {
	if err := validateKey(key); err != nil {
		return false, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	_, existed := c.items[key]
	c.items[key] = &ttlEntry[V]{value: value, expiresAt: time.Now().Add(c.ttl)}
	c.stats.Set()
	c.metrics.recordSet(len(c.items))
	return !existed, nil
}

// Delete removes an entry by key.
func (c *ttlCache[V]) Delete(key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.items[key]; !exists {
		return false, nil
	}
	delete(c.items, key)
	c.stats.Delete()
	c.metrics.recordSize(len(c.items))
	return true, nil
}

// Clear removes all entries.
func (c *ttlCache[V]) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[string]*ttlEntry[V])
	c.metrics.recordSize(0)
	return nil
}

// Size returns the number of entries, including not-yet-collected expired ones.
func (c *ttlCache[V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns the keys of all unexpired entries.
func (c *ttlCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.items))
	for key, entry := range c.items {
		if !entry.isExpired() {
			keys = append(keys, key)
		}
	}
	return keys
}

// Stats returns the cache's statistics tracker.
func (c *ttlCache[V]) Stats() *Statistics { return c.stats }

// Close stops the cleanup goroutine and waits for it to exit.
func (c *ttlCache[V]) Close() error {
	c.closeOnce.Do(func() {
		close(c.shutdown)
	})
	<-c.done
	return nil
}
