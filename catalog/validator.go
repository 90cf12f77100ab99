package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
)

//go:embed schemas/catalog.schema.json
var catalogSchema []byte

//go:embed schemas/gitops_filters.schema.json
var gitopsFiltersSchema []byte

var pathSyntaxRe = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*(\.[a-zA-Z_][a-zA-Z0-9_]*)*$`)

// Validator checks catalog documents against their JSON Schemas and
// validates field paths and enum values against the loaded catalog.
type Validator struct {
	loader *Loader
	logger *slog.Logger
}

// NewValidator creates a validator backed by the given loader.
func NewValidator(loader *Loader, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{
		loader: loader,
		logger: logger.With("component", "FieldValidator"),
	}
}

// ValidateCatalogDocument checks raw catalog JSON against the embedded
// schema. It returns one message per schema violation; an empty slice means
// the document is valid.
func ValidateCatalogDocument(data []byte) ([]string, error) {
	return validateAgainst(catalogSchema, data, "ValidateCatalogDocument")
}

// ValidateFiltersSection checks a gitops filter-panel section against the
// embedded schema.
func ValidateFiltersSection(data []byte) ([]string, error) {
	return validateAgainst(gitopsFiltersSchema, data, "ValidateFiltersSection")
}

func validateAgainst(schema, data []byte, method string) ([]string, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.WrapInvalid(err, "catalog", method, "run schema validation")
	}
	if result.Valid() {
		return nil, nil
	}

	messages := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		messages = append(messages, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return messages, nil
}

// ValidatePathSyntax reports whether a dotted field path is well-formed.
func ValidatePathSyntax(path string) bool {
	return pathSyntaxRe.MatchString(strings.TrimSpace(path))
}

// ValidateFieldPath reports whether the path exists in the catalog.
func (v *Validator) ValidateFieldPath(path string) bool {
	_, err := v.loader.FieldByPath(path)
	return err == nil
}

// ValidateEnumValue checks a value against a field's enum list using
// case-insensitive matching. On success it returns the catalog's original
// casing.
func (v *Validator) ValidateEnumValue(fieldPath, value string) (bool, string) {
	field, err := v.loader.FieldByPath(fieldPath)
	if err != nil || field.Type != TypeEnumeration {
		return false, ""
	}

	want := strings.ToLower(strings.TrimSpace(value))
	for _, enumValue := range field.EnumValues {
		if strings.ToLower(strings.TrimSpace(enumValue)) == want {
			return true, enumValue
		}
	}
	return false, ""
}

// ValidateEnumValues splits values into catalog-cased valid ones and the
// rest.
func (v *Validator) ValidateEnumValues(fieldPath string, values []string) (valid, invalid []string) {
	for _, value := range values {
		if ok, normalized := v.ValidateEnumValue(fieldPath, value); ok {
			valid = append(valid, normalized)
		} else {
			invalid = append(invalid, value)
		}
	}
	return valid, invalid
}

// SuggestEnumValues returns up to limit enum values for a field that match
// the partial input, prefix matches first, then fuzzy matches.
func (v *Validator) SuggestEnumValues(fieldPath, partial string, limit int) []string {
	field, err := v.loader.FieldByPath(fieldPath)
	if err != nil || field.Type != TypeEnumeration || partial == "" {
		return nil
	}
	if limit <= 0 {
		limit = 5
	}

	want := strings.ToLower(strings.TrimSpace(partial))
	var suggestions []string
	for _, value := range field.EnumValues {
		if strings.HasPrefix(strings.ToLower(value), want) {
			suggestions = append(suggestions, value)
		}
	}
	if len(suggestions) < limit {
		for _, value := range field.EnumValues {
			if containsString(suggestions, value) {
				continue
			}
			if similarity(want, value) >= 0.6 {
				suggestions = append(suggestions, value)
				if len(suggestions) >= limit {
					break
				}
			}
		}
	}
	if len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions
}

// ValidateFilterObject walks a decoded filter document and collects
// structural problems: misshapen boolean operators, unknown field paths.
// An empty result means the filter is acceptable.
func (v *Validator) ValidateFilterObject(filter map[string]any) []string {
	var problems []string
	v.validateFilterNode(filter, "", &problems)
	return problems
}

func (v *Validator) validateFilterNode(node any, path string, problems *[]string) {
	switch n := node.(type) {
	case map[string]any:
		for key, value := range n {
			current := key
			if path != "" {
				current = path + "." + key
			}

			switch key {
			case "AND", "OR":
				if _, ok := value.([]any); !ok {
					*problems = append(*problems, fmt.Sprintf("%s operator at %q must hold a list", key, current))
					continue
				}
				v.validateFilterNode(value, current, problems)
			case "NOT":
				if _, ok := value.(map[string]any); !ok {
					*problems = append(*problems, fmt.Sprintf("NOT operator at %q must hold an object", current))
					continue
				}
				v.validateFilterNode(value, current, problems)
			case "nested", "IN", "GTE", "LTE":
				v.validateFilterNode(value, current, problems)
			default:
				if ValidatePathSyntax(key) && !v.ValidateFieldPath(key) && key != "path" {
					*problems = append(*problems, fmt.Sprintf("unknown field path %q", key))
				}
			}
		}
	case []any:
		for i, item := range n {
			v.validateFilterNode(item, fmt.Sprintf("%s[%d]", path, i), problems)
		}
	}
}
