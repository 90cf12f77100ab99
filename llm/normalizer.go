package llm

import (
	"context"
	"encoding/json"
	"log/slog"
	"regexp"
	"strings"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/filter"
)

// ParsedTerm is one extracted term of a natural-language query.
type ParsedTerm struct {
	Original   string  `json:"original"`
	Normalized string  `json:"normalized"`
	Position   int     `json:"position"`
	Confidence float64 `json:"confidence"`
}

// ParsedQuery is the structured result of query normalization.
type ParsedQuery struct {
	Terms      []ParsedTerm       `json:"terms"`
	Logic      filter.CombineMode `json:"logic"`
	RawQuery   string             `json:"raw_query"`
	Confidence float64            `json:"confidence"`
}

// Normalizer turns free-text queries into parsed terms. With a client it
// asks the LLM first and falls back to rule-based token extraction on any
// failure; without a client it is purely rule-based.
type Normalizer struct {
	client Client
	logger *slog.Logger
}

// NewNormalizer creates a normalizer. client may be nil.
func NewNormalizer(client Client, logger *slog.Logger) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		client: client,
		logger: logger.With("component", "QueryNormalizer"),
	}
}

// ParseQuery extracts terms and combine logic from a natural-language query.
func (n *Normalizer) ParseQuery(ctx context.Context, queryText string) (*ParsedQuery, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, errors.ErrEmptyQuery
	}

	if n.client != nil {
		parsed, err := n.llmParse(ctx, queryText)
		if err == nil {
			return parsed, nil
		}
		n.logger.Warn("llm parsing failed, falling back to rule-based",
			"error", err)
	}
	return n.ruleBasedParse(queryText), nil
}

func (n *Normalizer) llmParse(ctx context.Context, queryText string) (*ParsedQuery, error) {
	content, err := n.client.Complete(ctx, systemContextPrompt, formatNormalizePrompt(queryText))
	if err != nil {
		return nil, err
	}

	var result struct {
		Terms []struct {
			Original   string   `json:"original"`
			Normalized string   `json:"normalized"`
			Position   *int     `json:"position"`
			Confidence *float64 `json:"confidence"`
		} `json:"terms"`
		Logic      string  `json:"logic"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal(extractJSONObject(content), &result); err != nil {
		return nil, errors.WrapInvalid(errors.ErrResponseUnparsed, "QueryNormalizer", "llmParse", "decode terms JSON")
	}
	if len(result.Terms) == 0 {
		return nil, errors.ErrNoTermsParsed
	}

	terms := make([]ParsedTerm, 0, len(result.Terms))
	for i, t := range result.Terms {
		term := ParsedTerm{
			Original:   t.Original,
			Normalized: t.Normalized,
			Position:   i,
			Confidence: 0.8,
		}
		if t.Position != nil {
			term.Position = *t.Position
		}
		if t.Confidence != nil {
			term.Confidence = *t.Confidence
		}
		terms = append(terms, term)
	}

	logic := filter.ModeAnd
	if strings.EqualFold(result.Logic, "OR") {
		logic = filter.ModeOr
	}
	confidence := result.Confidence
	if confidence == 0 {
		confidence = 0.8
	}

	n.logger.Debug("llm parsed query",
		"terms", len(terms),
		"logic", logic)
	return &ParsedQuery{
		Terms:      terms,
		Logic:      logic,
		RawQuery:   queryText,
		Confidence: confidence,
	}, nil
}

var wordRe = regexp.MustCompile(`\b\w+\b`)

// medicalNormalizations canonicalizes common phrasings before token
// extraction. Checked in order.
var medicalNormalizations = []struct {
	pattern     *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`\b(kids?|children|child|paediatric)\b`), "pediatric"},
	{regexp.MustCompile(`\b(boys?|males?)\b`), "male"},
	{regexp.MustCompile(`\b(girls?|females?)\b`), "female"},
	{regexp.MustCompile(`\b(cancers?|tumou?rs?|neoplasms?|malignancy)\b`), "cancer"},
	{regexp.MustCompile(`\bleukaemia\b`), "leukemia"},
	{regexp.MustCompile(`\b(chemo|chemotherapy)\b`), "chemotherapy"},
	{regexp.MustCompile(`\b(radio|radiotherapy|radiation)\b`), "radiotherapy"},
	{regexp.MustCompile(`\b(surgical|operation)\b`), "surgery"},
	{regexp.MustCompile(`\b(died|death|mortality|fatal)\b`), "death"},
	{regexp.MustCompile(`\b(survived|survival|alive)\b`), "survival"},
	{regexp.MustCompile(`\b(relapsed?|recurrence)\b`), "relapse"},
}

var stopWords = map[string]struct{}{
	"and": {}, "or": {}, "the": {}, "a": {}, "an": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "with": {}, "for": {}, "of": {}, "in": {}, "at": {},
	"to": {}, "from": {}, "by": {}, "as": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {},
	"should": {}, "may": {}, "might": {}, "can": {}, "than": {}, "then": {},
	"who": {}, "what": {}, "where": {}, "when": {}, "why": {}, "how": {},
	"all": {}, "any": {}, "both": {}, "each": {}, "some": {}, "such": {},
	"show": {}, "find": {}, "get": {}, "select": {}, "search": {}, "list": {},
	"display": {}, "return": {}, "patients": {}, "participants": {},
	"subjects": {},
}

var highConfidenceTerms = map[string]struct{}{
	"cancer": {}, "tumor": {}, "carcinoma": {}, "sarcoma": {},
	"lymphoma": {}, "leukemia": {},
}

func (n *Normalizer) ruleBasedParse(queryText string) *ParsedQuery {
	words := wordRe.FindAllString(strings.ToLower(queryText), -1)

	logic := filter.ModeAnd
	for _, word := range words {
		if word == "or" || word == "either" {
			logic = filter.ModeOr
			break
		}
	}

	normalizedQuery := strings.ToLower(queryText)
	for _, rule := range medicalNormalizations {
		normalizedQuery = rule.pattern.ReplaceAllString(normalizedQuery, rule.replacement)
	}
	normalizedWords := wordRe.FindAllString(normalizedQuery, -1)

	var terms []ParsedTerm
	seen := make(map[string]struct{})
	position := 0
	for i, normalized := range normalizedWords {
		if _, stop := stopWords[normalized]; stop {
			continue
		}
		if len(normalized) < 2 {
			continue
		}
		if _, dup := seen[normalized]; dup {
			continue
		}

		confidence := 0.6
		if _, medical := highConfidenceTerms[normalized]; medical {
			confidence = 0.9
		}

		original := normalized
		if i < len(words) {
			original = words[i]
		}
		terms = append(terms, ParsedTerm{
			Original:   original,
			Normalized: normalized,
			Position:   position,
			Confidence: confidence,
		})
		seen[normalized] = struct{}{}
		position++
	}

	if len(terms) == 0 && len(words) > 0 {
		longest := words[0]
		for _, w := range words[1:] {
			if len(w) > len(longest) {
				longest = w
			}
		}
		terms = append(terms, ParsedTerm{
			Original:   longest,
			Normalized: longest,
			Position:   0,
			Confidence: 0.5,
		})
	}

	return &ParsedQuery{
		Terms:      terms,
		Logic:      logic,
		RawQuery:   queryText,
		Confidence: 0.7,
	}
}
