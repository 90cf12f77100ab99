// Package worker provides a generic bounded worker pool.
//
// A Pool runs a fixed number of goroutines that drain a buffered channel of
// work items. Submit is non-blocking: when the queue is full the item is
// dropped and ErrQueueFull returned, which doubles as a backpressure signal.
//
//	pool, err := worker.NewPool[history.Record](4, 256,
//		func(ctx context.Context, rec history.Record) error {
//			return store.Persist(ctx, rec)
//		})
//	if err != nil {
//		return err
//	}
//	pool.Start(ctx)
//	defer pool.Stop(5 * time.Second)
//
// Statistics are always tracked with atomics; Prometheus export is opt-in
// through WithMetrics. Worker count is fixed for the life of the pool.
package worker
