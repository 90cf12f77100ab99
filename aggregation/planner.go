// Package aggregation plans per-group aggregation queries over the compiled
// cohort filter, scoping anchor constraints to the nested collection each
// field group belongs to.
package aggregation

import (
	"strings"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/filter"
)

// MainGroup is the group that collects top-level fields and every field of a
// tab outside the anchor scope.
const MainGroup = "main"

// FilterKeyPrefix prefixes group names in Result.FilterByGroup.
const FilterKeyPrefix = "filter_"

// AnchorConfig names the field used for anchoring and the tabs the anchor
// applies to. It comes from view configuration and is immutable for the
// duration of one planning call.
type AnchorConfig struct {
	Field string   `json:"field"`
	Tabs  []string `json:"tabs"`
}

// Tab is one named group of requested aggregation fields, in catalog order.
// Field names use the same dotted-path convention as filter keys.
type Tab struct {
	Title  string   `json:"title"`
	Fields []string `json:"fields"`
}

// Result is the output of Plan: the requested fields partitioned into groups,
// and the filter each group's aggregation query must run under. Groups holds
// first-seen group order; FilterByGroup is keyed by FilterKeyPrefix + group.
// A nil filter value means the group runs unfiltered.
type Result struct {
	Groups        []string
	FieldsByGroup map[string][]string
	FilterByGroup map[string]*filter.GqlFilter
}

// Plan partitions the tabs' fields into aggregation groups and derives a
// scoped filter for each group.
//
// Anchoring is active when anchor is non-nil and anchorValue is non-empty.
// For tabs inside the anchor scope, nested fields are grouped by their nested
// path and each such group gets its own deep-cloned copy of the baseline
// filter with the anchor constraint injected into that path's nested wrapper.
// Tabs outside the scope contribute all their fields to the main group
// untouched, whether or not they look nested. The main group always runs
// under the original baseline, never an anchor-augmented copy: the anchor
// scopes aggregation within nested collections, not the top-level entity, and
// injecting it into one collection's filter must not suppress counts in any
// sibling collection.
//
// The baseline filter is only ever read; per-group copies are cloned before
// modification, so Plan is safe to call repeatedly and concurrently with a
// shared baseline.
func Plan(anchor *AnchorConfig, anchorValue string, tabs []Tab, baseline *filter.GqlFilter) Result {
	res := Result{
		FieldsByGroup: make(map[string][]string),
		FilterByGroup: make(map[string]*filter.GqlFilter),
	}

	usingAnchor := anchor != nil && anchorValue != ""

	anchorTabs := make(map[string]bool)
	if usingAnchor {
		for _, title := range anchor.Tabs {
			anchorTabs[title] = true
		}
	}

	addField := func(group, field string) {
		if _, seen := res.FieldsByGroup[group]; !seen {
			res.Groups = append(res.Groups, group)
		}
		res.FieldsByGroup[group] = append(res.FieldsByGroup[group], field)
	}

	for _, tab := range tabs {
		if !usingAnchor || !anchorTabs[tab.Title] {
			// Tabs outside the anchor scope are never split into
			// nested-path sub-groups.
			for _, field := range tab.Fields {
				addField(MainGroup, field)
			}
			continue
		}

		for _, field := range tab.Fields {
			path, _, nested := splitField(field)
			if !nested {
				addField(MainGroup, field)
				continue
			}

			addField(path, field)

			key := FilterKeyPrefix + path
			if _, built := res.FilterByGroup[key]; built {
				// Later fields of the same group reuse the filter
				// built on first encounter.
				continue
			}
			res.FilterByGroup[key] = scopedFilter(baseline, path, anchor.Field, anchorValue)
		}
	}

	if len(res.FieldsByGroup[MainGroup]) > 0 {
		// The main group uses the global filter as-is, uncloned.
		res.FilterByGroup[FilterKeyPrefix+MainGroup] = baseline
	}

	return res
}

// scopedFilter clones the baseline for one nested-path group and injects the
// anchor constraint into that path's nested wrapper.
//
// Injection only knows how to extend an AND-shaped top level. When the
// baseline's top level is OR-shaped or a bare leaf, the clone is returned
// untouched and the anchor is skipped for this group; non-AND baselines are
// an explicitly unsupported case for anchoring, not an error.
func scopedFilter(baseline *filter.GqlFilter, path, anchorField, anchorValue string) *filter.GqlFilter {
	scoped := baseline.Clone()
	if scoped == nil {
		scoped = &filter.GqlFilter{AND: []*filter.GqlFilter{}}
	}
	if scoped.AND == nil {
		return scoped
	}

	anchorLeaf := filter.In(anchorField, anchorValue)

	for _, child := range scoped.AND {
		if child != nil && child.Nested != nil && child.Nested.Path == path {
			child.Nested.AND = append(child.Nested.AND, anchorLeaf)
			return scoped
		}
	}

	scoped.AND = append(scoped.AND, &filter.GqlFilter{
		Nested: &filter.NestedFilter{Path: path, AND: []*filter.GqlFilter{anchorLeaf}},
	})
	return scoped
}

// splitField splits a dotted field into its nested path and bare field name.
func splitField(field string) (path, name string, nested bool) {
	if i := strings.IndexByte(field, '.'); i >= 0 {
		return field[:i], field[i+1:], true
	}
	return field, "", false
}
