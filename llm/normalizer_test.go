package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/filter"
)

// fakeClient returns canned responses for Complete.
type fakeClient struct {
	response string
	err      error
	calls    int
}

func (f *fakeClient) Complete(_ context.Context, _, _ string) (string, error) {
	f.calls++
	return f.response, f.err
}

func TestRuleBasedParseExtractsTerms(t *testing.T) {
	n := NewNormalizer(nil, nil)

	parsed, err := n.ParseQuery(context.Background(), "show patients with leukemia and relapse")
	require.NoError(t, err)

	normalized := make([]string, 0, len(parsed.Terms))
	for _, term := range parsed.Terms {
		normalized = append(normalized, term.Normalized)
	}
	assert.Contains(t, normalized, "leukemia")
	assert.Contains(t, normalized, "relapse")
	assert.NotContains(t, normalized, "show", "stop words are dropped")
	assert.NotContains(t, normalized, "with")
	assert.Equal(t, filter.ModeAnd, parsed.Logic)
}

func TestRuleBasedParseDetectsOrLogic(t *testing.T) {
	n := NewNormalizer(nil, nil)

	parsed, err := n.ParseQuery(context.Background(), "leukemia or lymphoma")
	require.NoError(t, err)
	assert.Equal(t, filter.ModeOr, parsed.Logic)
}

func TestRuleBasedParseNormalizesMedicalTerms(t *testing.T) {
	n := NewNormalizer(nil, nil)

	parsed, err := n.ParseQuery(context.Background(), "kids treated with chemo")
	require.NoError(t, err)

	normalized := make([]string, 0, len(parsed.Terms))
	for _, term := range parsed.Terms {
		normalized = append(normalized, term.Normalized)
	}
	assert.Contains(t, normalized, "pediatric")
	assert.Contains(t, normalized, "chemotherapy")
}

func TestRuleBasedParseBoostsCancerTerms(t *testing.T) {
	n := NewNormalizer(nil, nil)

	parsed, err := n.ParseQuery(context.Background(), "lymphoma cases")
	require.NoError(t, err)

	for _, term := range parsed.Terms {
		if term.Normalized == "lymphoma" {
			assert.Equal(t, 0.9, term.Confidence)
			return
		}
	}
	t.Fatal("lymphoma term not found")
}

func TestParseQueryEmptyInput(t *testing.T) {
	n := NewNormalizer(nil, nil)

	_, err := n.ParseQuery(context.Background(), "   ")
	assert.ErrorIs(t, err, apperrors.ErrEmptyQuery)
}

func TestParseQueryUsesLLMWhenAvailable(t *testing.T) {
	client := &fakeClient{response: `{
		"terms": [
			{"original": "kids", "normalized": "pediatric", "position": 0, "confidence": 0.85},
			{"original": "leukemia", "normalized": "leukemia", "position": 1, "confidence": 0.98}
		],
		"logic": "AND",
		"confidence": 0.9
	}`}
	n := NewNormalizer(client, nil)

	parsed, err := n.ParseQuery(context.Background(), "kids with leukemia")
	require.NoError(t, err)
	require.Len(t, parsed.Terms, 2)
	assert.Equal(t, "pediatric", parsed.Terms[0].Normalized)
	assert.Equal(t, 0.98, parsed.Terms[1].Confidence)
	assert.Equal(t, 0.9, parsed.Confidence)
	assert.Equal(t, 1, client.calls)
}

func TestParseQueryFallsBackOnLLMError(t *testing.T) {
	client := &fakeClient{err: errors.New("service unavailable")}
	n := NewNormalizer(client, nil)

	parsed, err := n.ParseQuery(context.Background(), "leukemia patients")
	require.NoError(t, err)
	assert.NotEmpty(t, parsed.Terms, "rule-based fallback still parses")
}

func TestParseQueryFallsBackOnGarbageResponse(t *testing.T) {
	client := &fakeClient{response: "I cannot answer that."}
	n := NewNormalizer(client, nil)

	parsed, err := n.ParseQuery(context.Background(), "leukemia patients")
	require.NoError(t, err)
	assert.NotEmpty(t, parsed.Terms)
	assert.Equal(t, 0.7, parsed.Confidence, "fallback confidence applies")
}
