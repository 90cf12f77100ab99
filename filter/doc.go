// Package filter implements the filter-state-to-GraphQL transform used by the
// cohort discovery pipeline.
//
// # Overview
//
// The UI layer expresses a user's cohort selection as a State tree: an
// ordered mapping of dotted field keys to tagged values (option sets, numeric
// ranges, anchored nested groups), optionally composed recursively under an
// AND/OR combine mode. Compile turns that tree into the GqlFilter AST that
// Guppy accepts as its "filter" variable:
//
//	state := filter.Standard(filter.ModeAnd,
//		filter.Entry{Key: "race", Value: filter.Option("Asian")},
//		filter.Entry{Key: "tumor_assessments.tumor_site", Value: filter.Option("Skin")},
//	)
//	gql := filter.Compile(state)
//	// {"AND":[{"IN":{"race":["Asian"]}},
//	//         {"nested":{"path":"tumor_assessments","AND":[{"IN":{"tumor_site":["Skin"]}}]}}]}
//
// # Invariants
//
//   - Absence propagates: an empty state (no entries, or all selections
//     empty) compiles to nil, never to an empty AST node.
//   - At most one nested wrapper exists per path at a given level; wrappers
//     keep first-seen order and follow all top-level leaves.
//   - The combine mode is uniform per state node and propagates verbatim into
//     nested wrappers and composed recursion.
//   - Compiled filters are never mutated after construction; use Clone before
//     modifying a shared filter.
//
// StateFromFilter is the inverse transform for the shapes the UI produces,
// used to restore selections from a stored filter.
package filter
