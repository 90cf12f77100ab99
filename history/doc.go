// Package history stores chat sessions.
//
// Active sessions live in a TTL cache and expire after a period of
// inactivity. Every recorded turn is also handed to a Persister through a
// bounded worker pool, so durable storage happens off the request path.
package history
