package graphql

// Query is a renderable GraphQL request: the query text plus its variables.
type Query struct {
	Query       string         `json:"query"`
	Variables   map[string]any `json:"variables,omitempty"`
	Description string         `json:"description,omitempty"`
}
