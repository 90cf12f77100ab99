package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

// QueryResponse is the query/variables pair an LLM is asked to emit.
type QueryResponse struct {
	Query     string          `json:"query"`
	Variables json.RawMessage `json:"variables"`
}

var (
	fenceRe      = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")
	queryFieldRe = regexp.MustCompile(`"query":\s*"([^"]*)"`)
)

// ParseResponse extracts a query and its variables object from raw LLM
// output. It tries strict JSON first, then repairs a missing closing brace,
// and finally falls back to field-by-field extraction with brace balancing.
// It never fails: unextractable parts come back empty.
func ParseResponse(content string) QueryResponse {
	content = stripFences(content)

	var result QueryResponse
	if err := json.Unmarshal([]byte(content), &result); err == nil {
		return normalized(result)
	}

	// Truncated generations commonly drop the final closing brace.
	fixed := strings.TrimSpace(content)
	if !strings.HasSuffix(fixed, "}") {
		fixed += "}"
	}
	if err := json.Unmarshal([]byte(fixed), &result); err == nil {
		return normalized(result)
	}

	result = QueryResponse{Variables: json.RawMessage("{}")}
	if m := queryFieldRe.FindStringSubmatch(fixed); m != nil {
		result.Query = m[1]
	}
	if vars, ok := extractVariablesObject(fixed); ok {
		result.Variables = vars
	}
	return result
}

func normalized(r QueryResponse) QueryResponse {
	if len(r.Variables) == 0 {
		r.Variables = json.RawMessage("{}")
	}
	return r
}

// extractVariablesObject locates the "variables" key and returns its object
// by counting braces to the matching close.
func extractVariablesObject(content string) (json.RawMessage, bool) {
	keyPos := strings.Index(content, `"variables":`)
	if keyPos == -1 {
		return nil, false
	}
	start := strings.Index(content[keyPos:], "{")
	if start == -1 {
		return nil, false
	}
	start += keyPos

	depth := 0
	for i := start; i < len(content); i++ {
		switch content[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return json.RawMessage(content[start : i+1]), true
			}
		}
	}
	return nil, false
}

// stripFences removes a surrounding markdown code fence if present.
func stripFences(content string) string {
	content = strings.TrimSpace(content)
	if m := fenceRe.FindStringSubmatch(content); m != nil {
		return strings.TrimSpace(m[1])
	}
	return content
}

// extractJSONObject returns the first top-level JSON object embedded in
// free-form LLM output, or the input unchanged when none is found.
func extractJSONObject(content string) []byte {
	content = stripFences(content)
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		return []byte(content)
	}
	return []byte(content[start : end+1])
}
