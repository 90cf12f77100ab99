package catalog

// FieldType classifies a catalog field's value domain.
type FieldType string

const (
	TypeString      FieldType = "string"
	TypeNumber      FieldType = "number"
	TypeBoolean     FieldType = "boolean"
	TypeDate        FieldType = "date"
	TypeEnumeration FieldType = "enumeration"
)

// Field is one entry of the data dictionary: a dotted GraphQL path plus the
// metadata used to match natural-language terms against it.
type Field struct {
	Path        string    `json:"path"`
	Type        FieldType `json:"type"`
	Description string    `json:"description,omitempty"`
	EnumValues  []string  `json:"enum_values,omitempty"`
	SearchTerms []string  `json:"search_terms,omitempty"`
}

// Candidate pairs a query term with a field it may refer to.
type Candidate struct {
	Term   string  `json:"term"`
	Field  *Field  `json:"field"`
	Score  float64 `json:"score"`
	Reason string  `json:"reason"`
}

// rawEntry mirrors the on-disk shape of one catalog document entry.
type rawEntry struct {
	FieldPath       string   `json:"field_path"`
	FieldName       string   `json:"field_name,omitempty"`
	Type            string   `json:"type,omitempty"`
	Description     string   `json:"description,omitempty"`
	EnumValues      []string `json:"enum_values,omitempty"`
	SearchableTerms []string `json:"searchable_terms,omitempty"`
}
