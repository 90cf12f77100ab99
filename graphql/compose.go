package graphql

import (
	"log/slog"
	"strconv"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/filter"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/llm"
)

// ComposeState turns resolved field constraints into a filter selection
// state ready for filter.Compile. Numeric comparisons become range values;
// everything else becomes a discrete selection. Resolved fields without a
// usable value are skipped.
func ComposeState(resolved []llm.ResolvedField, mode filter.CombineMode, logger *slog.Logger) *filter.State {
	if logger == nil {
		logger = slog.Default()
	}
	if len(resolved) == 0 {
		return nil
	}

	entries := make([]filter.Entry, 0, len(resolved))
	for _, rf := range resolved {
		if rf.FieldPath == "" || rf.Value == "" {
			continue
		}
		value, ok := composeValue(rf)
		if !ok {
			logger.Warn("skipping unusable filter value",
				"component", "FilterComposer",
				"field", rf.FieldPath,
				"value", rf.Value)
			continue
		}
		entries = append(entries, filter.Entry{Key: rf.FieldPath, Value: value})
	}
	if len(entries) == 0 {
		return nil
	}
	return filter.Standard(mode, entries...)
}

func composeValue(rf llm.ResolvedField) (filter.Value, bool) {
	switch rf.Operator {
	case "gte", "gt":
		bound, err := strconv.ParseFloat(rf.Value, 64)
		if err != nil {
			return filter.Value{}, false
		}
		return filter.Range(&bound, nil), true
	case "lte", "lt":
		bound, err := strconv.ParseFloat(rf.Value, 64)
		if err != nil {
			return filter.Value{}, false
		}
		return filter.Range(nil, &bound), true
	default:
		return filter.Option(rf.Value), true
	}
}

// ComposeConstraints projects resolved fields into description constraints.
func ComposeConstraints(resolved []llm.ResolvedField) []Constraint {
	constraints := make([]Constraint, 0, len(resolved))
	for _, rf := range resolved {
		constraints = append(constraints, Constraint{
			Field:    rf.FieldPath,
			Operator: rf.Operator,
			Value:    rf.Value,
		})
	}
	return constraints
}
