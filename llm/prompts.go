package llm

import "fmt"

// Prompt templates for the pipeline's LLM steps. Kept as plain format
// strings so tests can assert on the rendered output.

const systemContextPrompt = `You are a medical data query assistant for a pediatric cancer data commons. You help translate natural language questions about patient cohorts into structured database queries. Always respond with valid JSON in the exact format requested.`

const normalizeQueryPrompt = `Analyze this natural language query and extract meaningful terms that could match medical database fields.

Query: %q

Extract terms following these rules:
1. Focus on medical conditions, treatments, demographics, and clinical characteristics
2. Normalize medical terminology (e.g., "chemo" -> "chemotherapy")
3. Identify logical operators (AND/OR relationships)
4. Remove stop words and non-medical terms
5. Assign confidence scores (0.0-1.0) based on medical relevance

Respond in this JSON format:
{
    "terms": [
        {"original": "term as in query", "normalized": "medical standard term", "position": 0, "confidence": 0.95}
    ],
    "logic": "AND",
    "confidence": 0.9
}`

const disambiguatePrompt = `A medical term matches multiple database fields. Choose the most appropriate field based on the original query context.

Original Query: %q
Term: %q

Candidate Fields:
%s

Consider medical context, field descriptions, and the user's likely intent.

Respond in JSON format:
{
    "chosen_field": "field_path",
    "confidence": 0.9,
    "reasoning": "short explanation",
    "alternative_fields": []
}`

const extractValuePrompt = `Extract the value a user means for a database field.

Original Query: %q
Term: %q
Field: %s (type %s)
Valid values: %s

Respond in JSON format:
{"value": "extracted value", "operator": "eq", "confidence": 0.9}`

func formatNormalizePrompt(query string) string {
	return fmt.Sprintf(normalizeQueryPrompt, query)
}

func formatDisambiguatePrompt(originalQuery, term, candidateJSON string) string {
	return fmt.Sprintf(disambiguatePrompt, originalQuery, term, candidateJSON)
}

func formatExtractValuePrompt(originalQuery, term, fieldPath, fieldType, validValues string) string {
	return fmt.Sprintf(extractValuePrompt, originalQuery, term, fieldPath, fieldType, validValues)
}
