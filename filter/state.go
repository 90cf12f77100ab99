// Package filter converts user-facing filter selections into the GraphQL
// filter AST understood by the Guppy data API.
package filter

import "strings"

// CombineMode is the boolean operator used to combine sibling filter leaves
// within one scope.
type CombineMode string

// Supported combine modes. An empty mode is treated as ModeAnd.
const (
	ModeAnd CombineMode = "AND"
	ModeOr  CombineMode = "OR"
)

// normalize returns the mode with the default applied.
func (m CombineMode) normalize() CombineMode {
	if m == "" {
		return ModeAnd
	}
	return m
}

// StateType discriminates the two structural forms a filter state can take.
type StateType int

const (
	// StateStandard holds an ordered mapping of filter keys to values.
	StateStandard StateType = iota
	// StateComposed holds an ordered list of child states combined under
	// the node's combine mode.
	StateComposed
)

// String returns the string representation of StateType.
func (t StateType) String() string {
	switch t {
	case StateStandard:
		return "STANDARD"
	case StateComposed:
		return "COMPOSED"
	default:
		return "unknown"
	}
}

// ValueKind discriminates the payload carried by a single filter entry.
type ValueKind int

const (
	// KindOption selects a set of discrete values (compiles to an IN leaf).
	KindOption ValueKind = iota
	// KindRange selects a numeric interval (compiles to GTE/LTE leaves).
	KindRange
	// KindAnchored wraps selections scoped to a nested collection together
	// with the anchor constraint they must be combined with.
	KindAnchored
)

// String returns the string representation of ValueKind.
func (k ValueKind) String() string {
	switch k {
	case KindOption:
		return "OPTION"
	case KindRange:
		return "RANGE"
	case KindAnchored:
		return "ANCHORED"
	default:
		return "unknown"
	}
}

// Value is the tagged payload for one filter key. Exactly the fields for its
// Kind are meaningful; the compiler matches exhaustively on Kind so a new
// variant cannot be silently mishandled.
type Value struct {
	Kind ValueKind

	// KindOption
	Selected []string

	// KindRange. A nil bound means the interval is open on that side.
	LowerBound *float64
	UpperBound *float64

	// KindAnchored
	Anchored *AnchoredValue
}

// Option builds an option-kind value from a selection set.
func Option(selected ...string) Value {
	return Value{Kind: KindOption, Selected: selected}
}

// Range builds a range-kind value. Pass nil for an open bound.
func Range(lower, upper *float64) Value {
	return Value{Kind: KindRange, LowerBound: lower, UpperBound: upper}
}

// AnchoredValue carries filter selections that only apply inside a nested
// collection, plus the anchor constraint that scopes them. The anchor and the
// selections form one pre-built AND group: they travel together into the
// nested wrapper and are never flattened into independent leaves.
type AnchoredValue struct {
	// AnchorField and AnchorValue form the fixed equality constraint,
	// e.g. consortium = "INRG".
	AnchorField string
	AnchorValue string

	// Selections are the constraints on fields of the nested collection,
	// keyed by bare field name (no path prefix).
	Selections []Entry
}

// Entry is one key/value pair of a standard filter state. Keys use the dotted
// path convention: "field" for top-level fields, "parentPath.field" for
// fields of a nested collection.
type Entry struct {
	Key   string
	Value Value
}

// State is the filter selection tree produced by the UI layer. A nil *State
// means no active constraints. States are ephemeral and recomputed on every
// interaction; Compile never mutates its input.
type State struct {
	Type StateType

	// Mode combines sibling entries or children. Defaults to AND.
	Mode CombineMode

	// Entries holds the mapping form (StateStandard). Key uniqueness is
	// assumed; slice order is the iteration order used by Compile.
	Entries []Entry

	// Children holds the composed form (StateComposed), in order.
	Children []*State
}

// Standard builds a standard-form state from entries.
func Standard(mode CombineMode, entries ...Entry) *State {
	return &State{Type: StateStandard, Mode: mode, Entries: entries}
}

// Composed builds a composed-form state from child states.
func Composed(mode CombineMode, children ...*State) *State {
	return &State{Type: StateComposed, Mode: mode, Children: children}
}

// splitKey parses a filter key into its first segment and the remainder after
// the first dot. Deeper nesting is not supported: any further dots stay part
// of the second segment's literal name.
func splitKey(key string) (first, second string, nested bool) {
	if i := strings.IndexByte(key, '.'); i >= 0 {
		return key[:i], key[i+1:], true
	}
	return key, "", false
}
