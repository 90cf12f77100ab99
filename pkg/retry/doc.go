// Package retry provides a minimal retry mechanism with exponential backoff
// for the transient failures this service actually sees: LLM API calls that
// hit rate limits or timeouts, and Guppy GraphQL executions that fail at the
// transport level.
//
// Basic usage:
//
//	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
//	    return client.Complete(ctx, prompt)
//	})
//
// Retry with a result:
//
//	resp, err := retry.DoWithResult(ctx, cfg, func() (*Response, error) {
//	    return composer.Execute(ctx, query)
//	})
//
// Errors wrapped with NonRetryable fail immediately; everything else is
// retried up to MaxAttempts with jittered exponential backoff. All operations
// respect context cancellation, including during backoff sleeps.
package retry
