// Package catalog loads the clinical data dictionary and resolves
// natural-language terms to GraphQL field paths.
//
// The Loader reads the catalog document (a JSON array of field entries) and
// caches the parsed result against the file's modification time. The Index
// builds term and path lookups over the loaded fields and answers ranked
// searches using exact, partial-token, and fuzzy edit-distance matching.
// The Validator checks documents against embedded JSON Schemas and
// normalizes enum values to the catalog's casing.
//
// Extraction helpers walk auxiliary portal documents: ExtractSchemaEnums
// maps dictionary enum values to candidate properties, ExtractGitopsFields
// maps bare field names to their nested tables, and LoadTabs pulls the
// filter-panel tabs and anchor configuration consumed by the aggregation
// planner.
package catalog
