package filter

// Compile converts a filter state tree into the GraphQL filter AST. It is a
// pure function of its input and returns nil when the state carries no active
// constraints, so callers can omit the filter argument entirely.
//
// For the standard mapping form, filter keys are processed in entry order.
// Top-level leaves always precede nested wrappers in the output, and multiple
// constraints on the same nested path are merged into a single nested wrapper
// in first-seen path order. Both orderings are part of the contract, not
// cosmetic: downstream diffing relies on them.
func Compile(state *State) *GqlFilter {
	if state == nil {
		return nil
	}

	mode := state.Mode.normalize()

	if state.Type == StateComposed {
		if len(state.Children) == 0 {
			return nil
		}
		// One slot per child, in order. Children that compile to nil are
		// kept so positional correspondence with the input is preserved;
		// excluding empty children is the caller's job, done upstream.
		children := make([]*GqlFilter, len(state.Children))
		for i, child := range state.Children {
			children[i] = Compile(child)
		}
		return combined(mode, children)
	}

	if len(state.Entries) == 0 {
		return nil
	}

	var (
		leaves   []*GqlFilter
		wrappers []*GqlFilter
		// pathIndex maps a nested path to its wrapper's position so that
		// at most one wrapper exists per path and wrappers keep their
		// first-seen order.
		pathIndex = make(map[string]int)
	)

	wrapperFor := func(path string) *NestedFilter {
		if i, ok := pathIndex[path]; ok {
			return wrappers[i].Nested
		}
		w := &GqlFilter{Nested: &NestedFilter{Path: path}}
		pathIndex[path] = len(wrappers)
		wrappers = append(wrappers, w)
		return w.Nested
	}

	for _, entry := range state.Entries {
		first, second, nested := splitKey(entry.Key)
		fieldName := first
		if nested {
			fieldName = second
		}

		switch entry.Value.Kind {
		case KindAnchored:
			for _, exp := range expandAnchored(first, fieldName, entry.Value.Anchored) {
				// The expansion is a pre-built AND group; append it
				// wholesale so any boolean nesting it carries survives.
				wrapperFor(exp.path).appendChild(mode, &GqlFilter{AND: exp.group})
			}

		case KindOption, KindRange:
			leaf := compileLeaf(fieldName, entry.Value)
			if leaf == nil {
				continue
			}
			if nested {
				wrapperFor(first).appendChild(mode, leaf)
			} else {
				leaves = append(leaves, leaf)
			}
		}
	}

	if len(leaves) == 0 && len(wrappers) == 0 {
		return nil
	}
	return combined(mode, append(leaves, wrappers...))
}

// compileLeaf builds the leaf filter for a simple value, or nil when the
// value selects nothing. Empty leaves are never emitted.
func compileLeaf(field string, v Value) *GqlFilter {
	switch v.Kind {
	case KindOption:
		if len(v.Selected) == 0 {
			return nil
		}
		return In(field, v.Selected...)

	case KindRange:
		switch {
		case v.LowerBound != nil && v.UpperBound != nil:
			return &GqlFilter{AND: []*GqlFilter{
				Gte(field, *v.LowerBound),
				Lte(field, *v.UpperBound),
			}}
		case v.LowerBound != nil:
			return Gte(field, *v.LowerBound)
		case v.UpperBound != nil:
			return Lte(field, *v.UpperBound)
		}
	}
	return nil
}

// expandedAnchor is one (nested path, pre-built AND group) pair produced by
// anchor expansion, to be merged into the path's nested wrapper.
type expandedAnchor struct {
	path  string
	group []*GqlFilter
}

// expandAnchored expands an anchored value for the nested path named by the
// entry key's first segment. The anchor constraint leads the group, followed
// by the nested-field selections in order. The group is a single AND unit: it
// represents "rows of this nested collection matching the anchor and the
// selections together" and must not be flattened into sibling leaves.
func expandAnchored(path, field string, av *AnchoredValue) []expandedAnchor {
	if av == nil {
		return nil
	}

	group := make([]*GqlFilter, 0, len(av.Selections)+1)
	if av.AnchorField != "" && av.AnchorValue != "" {
		group = append(group, In(av.AnchorField, av.AnchorValue))
	}
	for _, sel := range av.Selections {
		name := sel.Key
		if name == "" {
			name = field
		}
		if leaf := compileLeaf(name, sel.Value); leaf != nil {
			group = append(group, leaf)
		}
	}
	if len(group) == 0 {
		return nil
	}
	return []expandedAnchor{{path: path, group: group}}
}
