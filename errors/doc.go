// Package errors provides standardized error handling patterns for the
// cohort discovery backend.
//
// # Error Classification
//
// Errors are classified into three classes that drive handling decisions:
//
//   - ErrorTransient: temporary failures (LLM rate limits, Guppy timeouts)
//     that callers may retry
//   - ErrorInvalid: bad input or configuration (empty queries, malformed
//     catalog entries) that retrying cannot fix
//   - ErrorFatal: unrecoverable conditions (missing catalog file) that should
//     stop startup or processing
//
// Use IsTransient, IsInvalid and IsFatal to branch on classification without
// knowing the concrete error.
//
// # Wrapping
//
// Wrap and its classified variants produce a consistent error message shape:
//
//	errors.WrapInvalid(err, "CatalogLoader", "Load", "catalog parse")
//	// -> "CatalogLoader.Load: catalog parse failed: <cause>"
//
// Wrapped errors satisfy errors.Is/errors.As against both the standard error
// variables and *ClassifiedError.
//
// # Retry Integration
//
// RetryPolicy converts attempt budgets into pkg/retry configs so every
// component retries transient failures with the same backoff shape:
//
//	cfg := errors.RetryPolicy(5)
//	err := retry.Do(ctx, cfg, callLLM)
package errors
