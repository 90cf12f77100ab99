package filter

// GqlFilter is a node of the recursive GraphQL filter AST consumed by Guppy.
// Exactly one of AND, OR, IN, GTE, LTE or Nested is set per node; the JSON
// encoding emits only that key, so the zero value marshals to "{}" and a nil
// *GqlFilter marshals to null. A nil pointer is the canonical representation
// of "no filter" and must be propagated, never replaced by an empty node.
type GqlFilter struct {
	AND    []*GqlFilter       `json:"AND,omitempty"`
	OR     []*GqlFilter       `json:"OR,omitempty"`
	IN     map[string][]string `json:"IN,omitempty"`
	GTE    map[string]float64 `json:"GTE,omitempty"`
	LTE    map[string]float64 `json:"LTE,omitempty"`
	Nested *NestedFilter      `json:"nested,omitempty"`
}

// NestedFilter scopes its children to a named nested collection. The combine
// key mirrors the parent state's combine mode; only one of AND/OR is set.
type NestedFilter struct {
	Path string       `json:"path"`
	AND  []*GqlFilter `json:"AND,omitempty"`
	OR   []*GqlFilter `json:"OR,omitempty"`
}

// In builds an IN leaf constraining field to the given value set.
func In(field string, values ...string) *GqlFilter {
	return &GqlFilter{IN: map[string][]string{field: values}}
}

// Gte builds a lower-bound leaf.
func Gte(field string, bound float64) *GqlFilter {
	return &GqlFilter{GTE: map[string]float64{field: bound}}
}

// Lte builds an upper-bound leaf.
func Lte(field string, bound float64) *GqlFilter {
	return &GqlFilter{LTE: map[string]float64{field: bound}}
}

// combined wraps children under the given combine mode.
func combined(mode CombineMode, children []*GqlFilter) *GqlFilter {
	if mode.normalize() == ModeOr {
		return &GqlFilter{OR: children}
	}
	return &GqlFilter{AND: children}
}

// TopMode reports the combine mode of the node's top-level key. ok is false
// when the node is a leaf (IN/GTE/LTE) or a nested wrapper, i.e. when there
// is no boolean combinator at the top level.
func (f *GqlFilter) TopMode() (CombineMode, bool) {
	switch {
	case f == nil:
		return "", false
	case f.AND != nil:
		return ModeAnd, true
	case f.OR != nil:
		return ModeOr, true
	default:
		return "", false
	}
}

// children returns the combinator list for the given mode, creating nothing.
func (n *NestedFilter) children(mode CombineMode) []*GqlFilter {
	if mode.normalize() == ModeOr {
		return n.OR
	}
	return n.AND
}

// appendChild appends a child under the given combine mode.
func (n *NestedFilter) appendChild(mode CombineMode, child *GqlFilter) {
	if mode.normalize() == ModeOr {
		n.OR = append(n.OR, child)
		return
	}
	n.AND = append(n.AND, child)
}

// Clone returns a deep copy of the filter. The planner clones the shared
// baseline filter before any per-group modification; the original is treated
// as an immutably-owned value and is never written through.
func (f *GqlFilter) Clone() *GqlFilter {
	if f == nil {
		return nil
	}
	out := &GqlFilter{}
	if f.AND != nil {
		out.AND = cloneList(f.AND)
	}
	if f.OR != nil {
		out.OR = cloneList(f.OR)
	}
	if f.IN != nil {
		out.IN = cloneValueMap(f.IN)
	}
	if f.GTE != nil {
		out.GTE = cloneBoundMap(f.GTE)
	}
	if f.LTE != nil {
		out.LTE = cloneBoundMap(f.LTE)
	}
	if f.Nested != nil {
		out.Nested = &NestedFilter{
			Path: f.Nested.Path,
			AND:  cloneList(f.Nested.AND),
			OR:   cloneList(f.Nested.OR),
		}
	}
	return out
}

func cloneList(in []*GqlFilter) []*GqlFilter {
	if in == nil {
		return nil
	}
	out := make([]*GqlFilter, len(in))
	for i, f := range in {
		out[i] = f.Clone()
	}
	return out
}

func cloneValueMap(in map[string][]string) map[string][]string {
	out := make(map[string][]string, len(in))
	for k, v := range in {
		vals := make([]string, len(v))
		copy(vals, v)
		out[k] = vals
	}
	return out
}

func cloneBoundMap(in map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
