package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPoolProcessesAllItems(t *testing.T) {
	var processed atomic.Int64

	pool, err := NewPool[int](4, 64, func(_ context.Context, _ int) error {
		processed.Add(1)
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 50; i++ {
		require.NoError(t, pool.Submit(i))
	}
	require.NoError(t, pool.Stop(5*time.Second))

	assert.Equal(t, int64(50), processed.Load())
	stats := pool.Stats()
	assert.Equal(t, int64(50), stats.Submitted)
	assert.Equal(t, int64(50), stats.Processed)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.Dropped)
}

func TestPoolSubmitBeforeStart(t *testing.T) {
	pool, err := NewPool[int](1, 1, func(_ context.Context, _ int) error { return nil })
	require.NoError(t, err)

	assert.ErrorIs(t, pool.Submit(1), ErrPoolNotStarted)
}

func TestPoolDoubleStart(t *testing.T) {
	pool, err := NewPool[int](1, 1, func(_ context.Context, _ int) error { return nil })
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))
	defer pool.Stop(time.Second)

	assert.ErrorIs(t, pool.Start(context.Background()), ErrPoolAlreadyStarted)
}

func TestPoolQueueFull(t *testing.T) {
	block := make(chan struct{})
	pool, err := NewPool[int](1, 1, func(_ context.Context, _ int) error {
		<-block
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))
	defer func() {
		close(block)
		pool.Stop(5 * time.Second)
	}()

	// First item occupies the worker, second fills the queue. Eventually a
	// submit must be rejected.
	var sawFull bool
	for i := 0; i < 10; i++ {
		if errors.Is(pool.Submit(i), ErrQueueFull) {
			sawFull = true
			break
		}
	}
	assert.True(t, sawFull)
	assert.Greater(t, pool.Stats().Dropped, int64(0))
}

func TestPoolCountsFailures(t *testing.T) {
	pool, err := NewPool[int](2, 16, func(_ context.Context, n int) error {
		if n%2 == 0 {
			return errors.New("even numbers rejected")
		}
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 10; i++ {
		require.NoError(t, pool.Submit(i))
	}
	require.NoError(t, pool.Stop(5*time.Second))

	stats := pool.Stats()
	assert.Equal(t, int64(10), stats.Processed)
	assert.Equal(t, int64(5), stats.Failed)
}

func TestPoolStopDrainsQueue(t *testing.T) {
	var mu sync.Mutex
	var seen []int

	pool, err := NewPool[int](1, 32, func(_ context.Context, n int) error {
		mu.Lock()
		seen = append(seen, n)
		mu.Unlock()
		return nil
	})
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))

	for i := 0; i < 20; i++ {
		require.NoError(t, pool.Submit(i))
	}
	require.NoError(t, pool.Stop(5*time.Second))

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 20, "Stop should let workers drain queued items")
}

func TestPoolStopIdempotent(t *testing.T) {
	pool, err := NewPool[int](1, 1, func(_ context.Context, _ int) error { return nil })
	require.NoError(t, err)
	require.NoError(t, pool.Start(context.Background()))

	require.NoError(t, pool.Stop(time.Second))
	require.NoError(t, pool.Stop(time.Second))
	assert.ErrorIs(t, pool.Submit(1), ErrPoolStopped)
}

func TestNewPoolNilProcessorPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewPool[int](1, 1, nil)
	})
}
