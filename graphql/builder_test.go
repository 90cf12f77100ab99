package graphql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/aggregation"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/filter"
)

func TestBuildSubjectQueryWithFilter(t *testing.T) {
	b := NewBuilder(20, nil)
	f := filter.Compile(filter.Standard(filter.ModeAnd,
		filter.Entry{Key: "race", Value: filter.Option("Asian")},
	))

	query, err := b.BuildSubjectQuery(f)
	require.NoError(t, err)

	assert.Contains(t, query.Query, "subject(")
	assert.Contains(t, query.Query, "filter: $filter")
	assert.Contains(t, query.Query, "first: 20")
	assert.Contains(t, query.Query, "tumor_assessments {")
	require.Contains(t, query.Variables, "filter")
	assert.Same(t, f, query.Variables["filter"])
}

func TestBuildSubjectQueryWithoutFilter(t *testing.T) {
	b := NewBuilder(0, nil)

	query, err := b.BuildSubjectQuery(nil)
	require.NoError(t, err)

	assert.NotContains(t, query.Query, "filter: $filter")
	assert.Nil(t, query.Variables)
	assert.Contains(t, query.Query, "first: 20", "zero limit falls back to default")
}

func TestBuildSubjectQueryCustomFields(t *testing.T) {
	b := NewBuilder(5, nil)
	b.CustomizeFields([]string{"consortium", "sex"})

	query, err := b.BuildSubjectQuery(nil)
	require.NoError(t, err)
	assert.Contains(t, query.Query, "consortium")
	assert.NotContains(t, query.Query, "histologies")
}

func TestBuildAggregationQueriesMainGroup(t *testing.T) {
	b := NewBuilder(20, nil)
	baseline := filter.In("consortium", "INRG").Clone()
	plan := aggregation.Plan(nil, "", []aggregation.Tab{
		{Title: "Subject", Fields: []string{"race", "sex"}},
	}, baseline)

	queries, err := b.BuildAggregationQueries(plan)
	require.NoError(t, err)
	require.Contains(t, queries, aggregation.MainGroup)

	main := queries[aggregation.MainGroup]
	assert.Contains(t, main.Query, "_aggregation")
	assert.Contains(t, main.Query, "race {")
	assert.Contains(t, main.Query, "histogram {")
	assert.Contains(t, main.Query, "filter: $filter")
	assert.Equal(t, baseline, main.Variables["filter"])
}

func TestBuildAggregationQueriesNestedGroup(t *testing.T) {
	b := NewBuilder(20, nil)
	anchor := &aggregation.AnchorConfig{Field: "consortium", Tabs: []string{"Tumor"}}
	plan := aggregation.Plan(anchor, "INRG", []aggregation.Tab{
		{Title: "Tumor", Fields: []string{"tumor_assessments.tumor_site"}},
	}, nil)

	queries, err := b.BuildAggregationQueries(plan)
	require.NoError(t, err)
	require.Contains(t, queries, "tumor_assessments")

	nested := queries["tumor_assessments"]
	assert.Contains(t, nested.Query, "tumor_assessments {")
	assert.Contains(t, nested.Query, "tumor_site {")
	assert.NotContains(t, nested.Query, "tumor_assessments.tumor_site",
		"dotted path must not leak into the selection set")
	assert.NotNil(t, nested.Variables["filter"])
}

func TestBuildAggregationQueriesEmptyPlan(t *testing.T) {
	b := NewBuilder(20, nil)

	queries, err := b.BuildAggregationQueries(aggregation.Plan(nil, "", nil, nil))
	require.NoError(t, err)
	assert.Empty(t, queries)
}

func TestValidateQueryRejectsBadSyntax(t *testing.T) {
	assert.Error(t, validateQuery("query { subject( }"))
	assert.NoError(t, validateQuery("query { subject { id } }"))
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "Query for all cases (no filters applied)", Describe(nil, filter.ModeAnd))

	got := Describe([]Constraint{
		{Field: "race", Operator: "eq", Value: "Asian"},
		{Field: "tumor_assessments.tumor_site", Operator: "eq", Value: "Skin"},
	}, filter.ModeOr)
	assert.Equal(t, "Cases where Race equals 'Asian' or Tumor Site equals 'Skin'", got)
}
