// Package llm holds the language-model steps of the query pipeline: query
// normalization, field disambiguation, and response parsing.
//
// Every step degrades gracefully. The Client is optional; when it is nil or
// a call fails, the Normalizer falls back to stop-word token extraction and
// the Disambiguator to a scoring heuristic, so the pipeline keeps working
// without an API key. ParseResponse tolerates the usual LLM output defects:
// markdown fences, truncated JSON, and prose around the payload.
package llm
