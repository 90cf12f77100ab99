// Package pipeline orchestrates the query workflow from natural-language
// text to an executable Guppy query.
//
// Each request runs through five steps: parse the text into terms, match
// terms against the catalog index, resolve field conflicts, compile the
// filter, and render the final query. Step durations and run outcomes feed
// the metric package; every run carries a session and trace ID for log
// correlation.
package pipeline
