// Package cache provides generic in-memory caches with pluggable eviction
// strategies.
//
// Two implementations are available:
//
//   - LRU: bounded by entry count, evicts the least recently used entry
//   - TTL: entries expire after a fixed duration, collected in the background
//
// Both are safe for concurrent use and track hit/miss statistics. Prometheus
// export is opt-in via WithMetrics:
//
//	c, err := cache.NewLRU[*catalog.Field](512,
//		cache.WithMetrics[*catalog.Field](registry, "catalog_fields"))
//
// TTL caches own a cleanup goroutine; call Close (or cancel the constructor
// context) to stop it.
package cache
