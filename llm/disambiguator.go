package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/catalog"
)

// ResolvedField maps one query term to a definitive catalog field and the
// value to filter on.
type ResolvedField struct {
	Term       string            `json:"term"`
	FieldPath  string            `json:"field_path"`
	FieldType  catalog.FieldType `json:"field_type"`
	Value      string            `json:"value"`
	Operator   string            `json:"operator"`
	Confidence float64           `json:"confidence"`
}

// Conflict records a term that matched more than one field and how the
// conflict was settled.
type Conflict struct {
	Term       string   `json:"term"`
	Candidates []string `json:"candidates"`
	Chosen     string   `json:"chosen"`
	Reasoning  string   `json:"reasoning"`
	Confidence float64  `json:"confidence"`
}

// Resolution is the outcome of conflict disambiguation.
type Resolution struct {
	Resolved  []ResolvedField `json:"resolved"`
	Conflicts []Conflict      `json:"conflicts"`
	Warnings  []string        `json:"warnings"`
}

// Disambiguator settles terms that matched multiple catalog fields. With a
// client it asks the LLM to pick; otherwise a scoring heuristic decides.
type Disambiguator struct {
	client Client
	logger *slog.Logger
}

// NewDisambiguator creates a disambiguator. client may be nil.
func NewDisambiguator(client Client, logger *slog.Logger) *Disambiguator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Disambiguator{
		client: client,
		logger: logger.With("component", "ConflictDisambiguator"),
	}
}

// Resolve maps every term's candidates to exactly one field. unmatched
// terms pass through as warnings.
func (d *Disambiguator) Resolve(ctx context.Context, candidates []catalog.Candidate, unmatched []string, originalQuery string) *Resolution {
	groups, order := groupByTerm(candidates)

	resolution := &Resolution{Warnings: append([]string(nil), unmatched...)}
	for _, term := range order {
		group := groups[term]
		if len(group) == 1 {
			resolution.Resolved = append(resolution.Resolved, resolvedFromCandidate(group[0]))
			continue
		}

		if d.client != nil {
			if resolved, conflict, ok := d.llmResolve(ctx, term, group, originalQuery); ok {
				resolution.Resolved = append(resolution.Resolved, resolved)
				resolution.Conflicts = append(resolution.Conflicts, conflict)
				continue
			}
			d.logger.Warn("llm disambiguation failed, using heuristics", "term", term)
		}

		resolved, conflict := heuristicResolve(term, group)
		resolution.Resolved = append(resolution.Resolved, resolved)
		resolution.Conflicts = append(resolution.Conflicts, conflict)
	}
	return resolution
}

func (d *Disambiguator) llmResolve(ctx context.Context, term string, group []catalog.Candidate, originalQuery string) (ResolvedField, Conflict, bool) {
	type candidateInfo struct {
		FieldPath   string   `json:"field_path"`
		Description string   `json:"description"`
		Type        string   `json:"type"`
		MatchScore  float64  `json:"match_score"`
		ValidValues []string `json:"valid_values,omitempty"`
	}
	infos := make([]candidateInfo, 0, len(group))
	for _, c := range group {
		info := candidateInfo{
			FieldPath:   c.Field.Path,
			Description: c.Field.Description,
			Type:        string(c.Field.Type),
			MatchScore:  c.Score,
		}
		if len(c.Field.EnumValues) > 10 {
			info.ValidValues = c.Field.EnumValues[:10]
		} else {
			info.ValidValues = c.Field.EnumValues
		}
		infos = append(infos, info)
	}
	infoJSON, err := json.Marshal(infos)
	if err != nil {
		return ResolvedField{}, Conflict{}, false
	}

	content, err := d.client.Complete(ctx, systemContextPrompt,
		formatDisambiguatePrompt(originalQuery, term, string(infoJSON)))
	if err != nil {
		return ResolvedField{}, Conflict{}, false
	}

	var result struct {
		ChosenField  string   `json:"chosen_field"`
		Confidence   float64  `json:"confidence"`
		Reasoning    string   `json:"reasoning"`
		Alternatives []string `json:"alternative_fields"`
	}
	if err := json.Unmarshal(extractJSONObject(content), &result); err != nil {
		return ResolvedField{}, Conflict{}, false
	}

	chosen := group[0]
	for _, c := range group {
		if c.Field.Path == result.ChosenField {
			chosen = c
			break
		}
	}
	confidence := result.Confidence
	if confidence == 0 {
		confidence = 0.8
	}

	resolved := resolvedFromCandidate(chosen)
	resolved.Confidence = confidence

	paths := make([]string, 0, len(group))
	for _, c := range group {
		paths = append(paths, c.Field.Path)
	}
	reasoning := result.Reasoning
	if reasoning == "" {
		reasoning = "llm disambiguation"
	}
	return resolved, Conflict{
		Term:       term,
		Candidates: paths,
		Chosen:     chosen.Field.Path,
		Reasoning:  reasoning,
		Confidence: confidence,
	}, true
}

// heuristicResolve scores candidates on match quality plus field metadata
// and picks the best.
func heuristicResolve(term string, group []catalog.Candidate) (ResolvedField, Conflict) {
	type scored struct {
		candidate catalog.Candidate
		score     float64
	}
	scoredGroup := make([]scored, 0, len(group))
	for _, c := range group {
		score := c.Score
		if strings.Contains(strings.ToLower(c.Field.Path), strings.ToLower(term)) {
			score += 0.1
		}
		if c.Field.Type == catalog.TypeEnumeration {
			score += 0.05
		}
		if c.Field.Description != "" {
			score += 0.02
		}
		for _, enumValue := range c.Field.EnumValues {
			if strings.Contains(strings.ToLower(enumValue), strings.ToLower(term)) {
				score += 0.15
				break
			}
		}
		scoredGroup = append(scoredGroup, scored{c, score})
	}
	sort.SliceStable(scoredGroup, func(i, j int) bool {
		return scoredGroup[i].score > scoredGroup[j].score
	})

	best := scoredGroup[0]
	confidence := best.score * 0.9

	resolved := resolvedFromCandidate(best.candidate)
	resolved.Confidence = confidence
	if best.candidate.Field.Type == catalog.TypeEnumeration {
		resolved.Value = matchEnumValue(term, best.candidate.Field)
	}

	paths := make([]string, 0, len(group))
	for _, c := range group {
		paths = append(paths, c.Field.Path)
	}
	return resolved, Conflict{
		Term:       term,
		Candidates: paths,
		Chosen:     best.candidate.Field.Path,
		Reasoning:  fmt.Sprintf("highest score (%.3f) using rule-based heuristics", best.score),
		Confidence: confidence,
	}
}

func resolvedFromCandidate(c catalog.Candidate) ResolvedField {
	value := c.Term
	if c.Field.Type == catalog.TypeEnumeration {
		value = matchEnumValue(c.Term, c.Field)
	}
	return ResolvedField{
		Term:       c.Term,
		FieldPath:  c.Field.Path,
		FieldType:  c.Field.Type,
		Value:      value,
		Operator:   defaultOperator(c.Field.Type),
		Confidence: c.Score,
	}
}

// matchEnumValue maps a term onto the closest enum value, preferring exact
// then substring matches, falling back to the term itself.
func matchEnumValue(term string, field *catalog.Field) string {
	if len(field.EnumValues) == 0 {
		return term
	}
	want := strings.ToLower(term)
	for _, enumValue := range field.EnumValues {
		if strings.ToLower(enumValue) == want {
			return enumValue
		}
	}
	for _, enumValue := range field.EnumValues {
		lower := strings.ToLower(enumValue)
		if strings.Contains(lower, want) || strings.Contains(want, lower) {
			return enumValue
		}
	}
	return term
}

func defaultOperator(t catalog.FieldType) string {
	switch t {
	case catalog.TypeString:
		return "contains"
	case catalog.TypeEnumeration, catalog.TypeNumber, catalog.TypeDate, catalog.TypeBoolean:
		return "eq"
	default:
		return "contains"
	}
}

func groupByTerm(candidates []catalog.Candidate) (map[string][]catalog.Candidate, []string) {
	groups := make(map[string][]catalog.Candidate)
	var order []string
	for _, c := range candidates {
		if _, seen := groups[c.Term]; !seen {
			order = append(order, c.Term)
		}
		groups[c.Term] = append(groups[c.Term], c)
	}
	return groups, order
}
