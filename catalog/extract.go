package catalog

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/aggregation"
	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
)

// ExtractSchemaEnums walks a data-dictionary schema document and maps every
// enum value to the property keys that declare it. The result answers "which
// fields could this literal value belong to" during term matching.
func ExtractSchemaEnums(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "catalog", "ExtractSchemaEnums", "read schema file")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapInvalid(err, "catalog", "ExtractSchemaEnums", "parse schema JSON")
	}

	result := make(map[string][]string)
	walkEnums(doc, "", result)
	return result, nil
}

func walkEnums(node any, currentKey string, result map[string][]string) {
	switch v := node.(type) {
	case map[string]any:
		for key, value := range v {
			if key == "enum" {
				values, ok := value.([]any)
				if !ok || currentKey == "" {
					continue
				}
				for _, ev := range values {
					s, ok := ev.(string)
					if !ok {
						continue
					}
					if !containsString(result[s], currentKey) {
						result[s] = append(result[s], currentKey)
					}
				}
				continue
			}
			walkEnums(value, key, result)
		}
	case []any:
		for _, item := range v {
			walkEnums(item, currentKey, result)
		}
	}
}

// ExtractGitopsFields walks a portal gitops document and maps every bare
// field name to the nested tables it appears under. Fields without a dot map
// to an empty table list; the dot split happens on the first dot only.
func ExtractGitopsFields(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "catalog", "ExtractGitopsFields", "read gitops file")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.WrapInvalid(err, "catalog", "ExtractGitopsFields", "parse gitops JSON")
	}

	result := make(map[string][]string)
	walkGitopsFields(doc, result)
	return result, nil
}

func walkGitopsFields(node any, result map[string][]string) {
	switch v := node.(type) {
	case map[string]any:
		for key, value := range v {
			if key == "fields" {
				fields, ok := value.([]any)
				if !ok {
					continue
				}
				for _, f := range fields {
					field, ok := f.(string)
					if !ok {
						continue
					}
					table, name, nested := strings.Cut(field, ".")
					if !nested {
						if _, exists := result[field]; !exists {
							result[field] = []string{}
						}
						continue
					}
					if !containsString(result[name], table) {
						result[name] = append(result[name], table)
					}
				}
				continue
			}
			walkGitopsFields(value, result)
		}
	case []any:
		for _, item := range v {
			walkGitopsFields(item, result)
		}
	}
}

// gitopsFilters is the filter-panel section of a portal gitops document.
type gitopsFilters struct {
	Anchor *struct {
		Field string   `json:"field"`
		Tabs  []string `json:"tabs"`
	} `json:"anchor,omitempty"`
	Tabs []struct {
		Title  string   `json:"title"`
		Fields []string `json:"fields"`
	} `json:"tabs"`
}

// LoadTabs reads a gitops document and returns the aggregation tabs and
// anchor configuration of the first filter-panel section it finds. A missing
// anchor section yields a nil config, which disables anchoring downstream.
func LoadTabs(path string) ([]aggregation.Tab, *aggregation.AnchorConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, "catalog", "LoadTabs", "read gitops file")
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, nil, errors.WrapInvalid(err, "catalog", "LoadTabs", "parse gitops JSON")
	}

	filters := findFilters(doc)
	if filters == nil {
		return nil, nil, nil
	}

	tabs := make([]aggregation.Tab, 0, len(filters.Tabs))
	for _, t := range filters.Tabs {
		tabs = append(tabs, aggregation.Tab{Title: t.Title, Fields: t.Fields})
	}

	var anchor *aggregation.AnchorConfig
	if filters.Anchor != nil && filters.Anchor.Field != "" {
		anchor = &aggregation.AnchorConfig{
			Field: filters.Anchor.Field,
			Tabs:  filters.Anchor.Tabs,
		}
	}
	return tabs, anchor, nil
}

// findFilters locates the first "filters" object carrying a tab list.
func findFilters(node any) *gitopsFilters {
	switch v := node.(type) {
	case map[string]any:
		if raw, ok := v["filters"]; ok {
			if parsed := decodeFilters(raw); parsed != nil {
				return parsed
			}
		}
		for _, value := range v {
			if found := findFilters(value); found != nil {
				return found
			}
		}
	case []any:
		for _, item := range v {
			if found := findFilters(item); found != nil {
				return found
			}
		}
	}
	return nil
}

func decodeFilters(raw any) *gitopsFilters {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil
	}
	var filters gitopsFilters
	if err := json.Unmarshal(data, &filters); err != nil || len(filters.Tabs) == 0 {
		return nil
	}
	return &filters
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
