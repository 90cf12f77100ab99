package filter

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGqlFilter_MarshalShapes(t *testing.T) {
	tests := []struct {
		name   string
		filter *GqlFilter
		want   string
	}{
		{"in leaf", In("race", "Asian", "White"), `{"IN":{"race":["Asian","White"]}}`},
		{"gte leaf", Gte("age_at_censor_status", 365), `{"GTE":{"age_at_censor_status":365}}`},
		{"lte leaf", Lte("age_at_censor_status", 6570), `{"LTE":{"age_at_censor_status":6570}}`},
		{
			"nested wrapper",
			&GqlFilter{Nested: &NestedFilter{Path: "histologies", AND: []*GqlFilter{In("histology", "Neuroblastoma")}}},
			`{"nested":{"path":"histologies","AND":[{"IN":{"histology":["Neuroblastoma"]}}]}}`,
		},
		{
			"or combinator",
			&GqlFilter{OR: []*GqlFilter{In("sex", "Female"), In("sex", "Male")}},
			`{"OR":[{"IN":{"sex":["Female"]}},{"IN":{"sex":["Male"]}}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, string(data))
		})
	}
}

func TestGqlFilter_TopMode(t *testing.T) {
	var nilFilter *GqlFilter
	_, ok := nilFilter.TopMode()
	assert.False(t, ok)

	_, ok = In("race", "Asian").TopMode()
	assert.False(t, ok, "leaves have no top-level combinator")

	mode, ok := (&GqlFilter{AND: []*GqlFilter{}}).TopMode()
	assert.True(t, ok)
	assert.Equal(t, ModeAnd, mode)

	mode, ok = (&GqlFilter{OR: []*GqlFilter{In("sex", "Female")}}).TopMode()
	assert.True(t, ok)
	assert.Equal(t, ModeOr, mode)
}

func TestGqlFilter_CloneIsDeep(t *testing.T) {
	original := &GqlFilter{AND: []*GqlFilter{
		In("consortium", "INRG"),
		{Nested: &NestedFilter{Path: "tumor_assessments", AND: []*GqlFilter{
			In("tumor_site", "Skin"),
		}}},
		{AND: []*GqlFilter{Gte("age_at_censor_status", 0), Lte("age_at_censor_status", 6570)}},
	}}

	clone := original.Clone()
	require.Empty(t, cmp.Diff(original, clone))

	// Mutating the clone must not leak into the original.
	clone.AND[0].IN["consortium"][0] = "INSTRuCT"
	clone.AND[1].Nested.AND = append(clone.AND[1].Nested.AND, In("tumor_state", "Present"))
	clone.AND[2].AND[0].GTE["age_at_censor_status"] = 100

	assert.Equal(t, "INRG", original.AND[0].IN["consortium"][0])
	assert.Len(t, original.AND[1].Nested.AND, 1)
	assert.Equal(t, float64(0), original.AND[2].AND[0].GTE["age_at_censor_status"])
}

func TestGqlFilter_CloneNil(t *testing.T) {
	var f *GqlFilter
	assert.Nil(t, f.Clone())
}
