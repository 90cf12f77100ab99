package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLRUBasicOperations(t *testing.T) {
	c, err := NewLRU[string](3)
	require.NoError(t, err)
	defer c.Close()

	added, err := c.Set("a", "1")
	require.NoError(t, err)
	assert.True(t, added)

	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, "1", v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	added, err = c.Set("a", "2")
	require.NoError(t, err)
	assert.False(t, added, "overwrite should not report a new entry")

	v, _ = c.Get("a")
	assert.Equal(t, "2", v)
	assert.Equal(t, 1, c.Size())
}

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c, err := NewLRU[int](2)
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	// Touch "a" so "b" becomes the eviction candidate.
	_, ok := c.Get("a")
	require.True(t, ok)

	c.Set("c", 3)

	_, ok = c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, int64(1), c.Stats().Evictions())
}

func TestLRUEvictionCallback(t *testing.T) {
	var mu sync.Mutex
	var evictedKeys []string

	c, err := NewLRU[int](1, WithEvictionCallback[int](func(key string, _ int) {
		mu.Lock()
		evictedKeys = append(evictedKeys, key)
		mu.Unlock()
	}))
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"a"}, evictedKeys)
}

func TestLRUDeleteAndClear(t *testing.T) {
	c, err := NewLRU[int](10)
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)

	removed, err := c.Delete("a")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = c.Delete("a")
	require.NoError(t, err)
	assert.False(t, removed)

	require.NoError(t, c.Clear())
	assert.Equal(t, 0, c.Size())
}

func TestLRURejectsInvalidInput(t *testing.T) {
	_, err := NewLRU[int](0)
	assert.Error(t, err)

	c, err := NewLRU[int](1)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Set("", 1)
	assert.ErrorIs(t, err, ErrInvalidKey)
}

func TestTTLExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := NewTTL[string](ctx, 30*time.Millisecond, 10*time.Millisecond)
	require.NoError(t, err)
	defer c.Close()

	_, err = c.Set("session", "data")
	require.NoError(t, err)

	v, ok := c.Get("session")
	require.True(t, ok)
	assert.Equal(t, "data", v)

	assert.Eventually(t, func() bool {
		_, ok := c.Get("session")
		return !ok
	}, time.Second, 5*time.Millisecond)
	assert.GreaterOrEqual(t, c.Stats().Evictions(), int64(1))
}

func TestTTLSetRefreshesExpiry(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, err := NewTTL[int](ctx, 80*time.Millisecond, time.Hour)
	require.NoError(t, err)
	defer c.Close()

	c.Set("k", 1)
	time.Sleep(50 * time.Millisecond)
	c.Set("k", 2)
	time.Sleep(50 * time.Millisecond)

	v, ok := c.Get("k")
	assert.True(t, ok, "refreshed entry should still be live")
	assert.Equal(t, 2, v)
}

func TestTTLEvictionCallbackOnCleanup(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	seen := map[string]string{}

	c, err := NewTTL[string](ctx, 10*time.Millisecond, 5*time.Millisecond,
		WithEvictionCallback[string](func(key, value string) {
			mu.Lock()
			seen[key] = value
			mu.Unlock()
		}))
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", "x")

	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return seen["a"] == "x"
	}, time.Second, 5*time.Millisecond)
}

func TestTTLCloseStopsCleanup(t *testing.T) {
	c, err := NewTTL[int](context.Background(), time.Minute, time.Minute)
	require.NoError(t, err)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close(), "Close must be idempotent")
}

func TestStatisticsHitRatio(t *testing.T) {
	s := NewStatistics()
	assert.Zero(t, s.HitRatio())

	s.Hit()
	s.Hit()
	s.Hit()
	s.Miss()
	assert.InDelta(t, 0.75, s.HitRatio(), 1e-9)
}

func TestCacheConcurrentAccess(t *testing.T) {
	c, err := NewLRU[int](128)
	require.NoError(t, err)
	defer c.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				key := fmt.Sprintf("key-%d", j%32)
				c.Set(key, n*1000+j)
				c.Get(key)
			}
		}(i)
	}
	wg.Wait()

	assert.LessOrEqual(t, c.Size(), 128)
}

func TestLRUKeysOrderedByRecency(t *testing.T) {
	c, err := NewLRU[int](10)
	require.NoError(t, err)
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Set("c", 3)
	c.Get("a") // bump to front

	assert.Equal(t, []string{"a", "c", "b"}, c.Keys())
}

func TestTTLKeysSkipExpired(t *testing.T) {
	c, err := NewTTL[int](context.Background(), 30*time.Millisecond, time.Hour)
	require.NoError(t, err)
	defer c.Close()

	c.Set("stale", 1)
	time.Sleep(50 * time.Millisecond)
	c.Set("fresh", 2)

	assert.Equal(t, []string{"fresh"}, c.Keys())
}
