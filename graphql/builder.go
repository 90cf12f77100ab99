package graphql

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/aggregation"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/filter"
)

// defaultSubjectFields is the selection set of the main subject query.
var defaultSubjectFields = []string{
	"consortium",
	"subject_submitter_id",
	"sex",
	"race",
	"ethnicity",
	"age_at_censor_status",
	"tumor_assessments {",
	"  tumor_site",
	"  tumor_state",
	"  tumor_classification",
	"  age_at_tumor_assessment",
	"}",
	"histologies {",
	"  histology",
	"  histology_grade",
	"}",
	"disease_characteristics {",
	"  diagnosis",
	"  primary_site",
	"}",
}

// Builder renders Guppy query strings from compiled filters and aggregation
// plans. Every rendered query is syntax-checked before it is returned.
type Builder struct {
	limit  int
	fields []string
	logger *slog.Logger
}

// NewBuilder creates a builder. limit bounds the subject query's page size.
func NewBuilder(limit int, logger *slog.Logger) *Builder {
	if limit <= 0 {
		limit = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Builder{
		limit:  limit,
		fields: defaultSubjectFields,
		logger: logger.With("component", "QueryBuilder"),
	}
}

// CustomizeFields replaces the subject query's selection set.
func (b *Builder) CustomizeFields(fields []string) {
	if len(fields) > 0 {
		b.fields = fields
	}
}

// BuildSubjectQuery renders the main subject query. A nil filter omits the
// filter argument entirely.
func (b *Builder) BuildSubjectQuery(f *filter.GqlFilter) (*Query, error) {
	var sb strings.Builder
	sb.WriteString("query ($filter: JSON) {\n")
	sb.WriteString("  subject(\n")
	sb.WriteString("    accessibility: accessible,\n")
	sb.WriteString("    offset: 0,\n")
	fmt.Fprintf(&sb, "    first: %d", b.limit)
	if f != nil {
		sb.WriteString(",\n    filter: $filter")
	}
	sb.WriteString("\n  ) {\n")
	for _, field := range b.fields {
		sb.WriteString("    " + field + "\n")
	}
	sb.WriteString("  }\n}")

	query := &Query{Query: sb.String()}
	if f != nil {
		query.Variables = map[string]any{"filter": f}
	}
	if err := validateQuery(query.Query); err != nil {
		return nil, errors.WrapInvalid(err, "QueryBuilder", "BuildSubjectQuery", "validate rendered query")
	}
	return query, nil
}

// BuildAggregationQueries renders one histogram query per aggregation group
// of the plan. Each query carries the group's scoped filter as its $filter
// variable; groups without a filter omit the filter argument.
func (b *Builder) BuildAggregationQueries(plan aggregation.Result) (map[string]*Query, error) {
	queries := make(map[string]*Query, len(plan.Groups))
	for _, group := range plan.Groups {
		fields := plan.FieldsByGroup[group]
		if len(fields) == 0 {
			continue
		}
		groupFilter := plan.FilterByGroup[aggregation.FilterKeyPrefix+group]

		text := renderAggregationQuery(group, fields, groupFilter != nil)
		if err := validateQuery(text); err != nil {
			return nil, errors.WrapInvalid(err, "QueryBuilder", "BuildAggregationQueries", "validate query for group "+group)
		}

		query := &Query{Query: text}
		if groupFilter != nil {
			query.Variables = map[string]any{"filter": groupFilter}
		}
		queries[group] = query
	}

	b.logger.Debug("aggregation queries built", "groups", len(queries))
	return queries, nil
}

// renderAggregationQuery emits a Guppy _aggregation query. For the main
// group the fields are top-level subject fields; for a nested group they
// are dotted paths whose field part is selected inside the group's block.
func renderAggregationQuery(group string, fields []string, withFilter bool) string {
	var sb strings.Builder
	sb.WriteString("query ($filter: JSON) {\n")
	sb.WriteString("  _aggregation {\n")
	if withFilter {
		sb.WriteString("    subject(filter: $filter, filterSelf: false, accessibility: accessible) {\n")
	} else {
		sb.WriteString("    subject(accessibility: accessible) {\n")
	}

	if group == aggregation.MainGroup {
		for _, field := range fields {
			writeHistogramField(&sb, "      ", field)
		}
	} else {
		sb.WriteString("      " + group + " {\n")
		for _, field := range fields {
			_, name, nested := strings.Cut(field, ".")
			if !nested {
				name = field
			}
			writeHistogramField(&sb, "        ", name)
		}
		sb.WriteString("      }\n")
	}

	sb.WriteString("    }\n")
	sb.WriteString("  }\n")
	sb.WriteString("}")
	return sb.String()
}

func writeHistogramField(sb *strings.Builder, indent, field string) {
	sb.WriteString(indent + field + " {\n")
	sb.WriteString(indent + "  histogram {\n")
	sb.WriteString(indent + "    key\n")
	sb.WriteString(indent + "    count\n")
	sb.WriteString(indent + "  }\n")
	sb.WriteString(indent + "}\n")
}

// validateQuery syntax-checks rendered GraphQL text.
func validateQuery(text string) error {
	_, err := parser.ParseQuery(&ast.Source{Input: text})
	if err != nil {
		return fmt.Errorf("%w: %s", errors.ErrQueryInvalid, err.Error())
	}
	return nil
}

// Describe renders a human-readable summary of the resolved constraints
// behind a query.
func Describe(constraints []Constraint, mode filter.CombineMode) string {
	if len(constraints) == 0 {
		return "Query for all cases (no filters applied)"
	}

	parts := make([]string, 0, len(constraints))
	for _, c := range constraints {
		parts = append(parts, fmt.Sprintf("%s %s '%s'", humanizeField(c.Field), humanizeOperator(c.Operator), c.Value))
	}

	joiner := " and "
	if mode == filter.ModeOr {
		joiner = " or "
	}
	return "Cases where " + strings.Join(parts, joiner)
}

// Constraint is one resolved field constraint, used for descriptions.
type Constraint struct {
	Field    string
	Operator string
	Value    string
}

func humanizeField(path string) string {
	name := path
	if i := strings.LastIndex(path, "."); i != -1 {
		name = path[i+1:]
	}
	words := strings.Split(name, "_")
	for i, w := range words {
		if w != "" {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}

func humanizeOperator(op string) string {
	switch op {
	case "eq":
		return "equals"
	case "ne":
		return "does not equal"
	case "in":
		return "is one of"
	case "contains":
		return "contains"
	case "gt":
		return "is greater than"
	case "gte":
		return "is at least"
	case "lt":
		return "is less than"
	case "lte":
		return "is at most"
	default:
		return "has operator " + op
	}
}
