package filter

// StateFromFilter rebuilds a filter state from a compiled GraphQL filter, the
// inverse of Compile for the shapes the UI can produce. It is used to restore
// a session's filter selections from a stored filter. Returns nil when the
// filter is absent or carries no recognizable constraints.
//
// Only IN, GTE/LTE and single-level nested IN constraints round-trip; other
// node shapes are skipped. Entry order follows the filter's child order,
// which may differ from the order the state was originally built in. That is
// fine: key order is irrelevant to filter semantics.
func StateFromFilter(f *GqlFilter) *State {
	mode, ok := f.TopMode()
	if !ok {
		return nil
	}

	children := f.AND
	if mode == ModeOr {
		children = f.OR
	}
	if len(children) == 0 {
		return nil
	}

	var entries []Entry
	index := make(map[string]int) // key -> entries position, for range merging

	upsert := func(key string, v Value) {
		if i, ok := index[key]; ok {
			entries[i].Value = v
			return
		}
		index[key] = len(entries)
		entries = append(entries, Entry{Key: key, Value: v})
	}

	mergeBound := func(key string, bound float64, upper bool) {
		if i, ok := index[key]; ok && entries[i].Value.Kind == KindRange {
			b := bound
			if upper {
				entries[i].Value.UpperBound = &b
			} else {
				entries[i].Value.LowerBound = &b
			}
			return
		}
		b := bound
		v := Value{Kind: KindRange}
		if upper {
			v.UpperBound = &b
		} else {
			v.LowerBound = &b
		}
		upsert(key, v)
	}

	for _, child := range children {
		if child == nil {
			continue
		}
		switch {
		case child.IN != nil:
			for field, values := range child.IN {
				upsert(field, Option(values...))
			}

		case child.GTE != nil:
			for field, bound := range child.GTE {
				mergeBound(field, bound, false)
			}

		case child.LTE != nil:
			for field, bound := range child.LTE {
				mergeBound(field, bound, true)
			}

		case child.AND != nil && len(child.AND) == 2 &&
			child.AND[0] != nil && child.AND[0].GTE != nil &&
			child.AND[1] != nil && child.AND[1].LTE != nil:
			// Two-bound range leaf as emitted by compileLeaf.
			for field, bound := range child.AND[0].GTE {
				mergeBound(field, bound, false)
			}
			for field, bound := range child.AND[1].LTE {
				mergeBound(field, bound, true)
			}

		case child.Nested != nil:
			grandchildren := child.Nested.AND
			if grandchildren == nil {
				grandchildren = child.Nested.OR
			}
			for _, gc := range grandchildren {
				if gc == nil || gc.IN == nil {
					continue
				}
				for field, values := range gc.IN {
					upsert(child.Nested.Path+"."+field, Option(values...))
				}
			}
		}
	}

	if len(entries) == 0 {
		return nil
	}
	return &State{Type: StateStandard, Mode: mode, Entries: entries}
}
