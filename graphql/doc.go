// Package graphql renders and executes Guppy queries.
//
// The Builder turns a compiled filter and an aggregation plan into query
// strings, syntax-checking each one before it leaves the package.
// ComposeState bridges the pipeline's resolved field constraints into the
// filter package's selection state. The Composer posts queries to the Guppy
// endpoint, fanning per-group aggregation queries out concurrently.
package graphql
