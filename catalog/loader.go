package catalog

import (
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
)

// Loader reads the catalog document from disk and turns its entries into
// Fields. The parsed result is cached against the file's modification time
// so repeated calls are cheap and edits are picked up without a restart.
type Loader struct {
	path   string
	logger *slog.Logger

	mu         sync.Mutex
	entries    []rawEntry
	fields     []Field
	lastLoaded time.Time
	fileMtime  time.Time
}

// NewLoader creates a loader for the catalog document at path.
func NewLoader(path string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{
		path:   path,
		logger: logger.With("component", "CatalogLoader"),
	}
}

// Load reads and parses the catalog document, reusing the cached parse when
// the file has not changed. forceReload bypasses the cache.
func (l *Loader) Load(forceReload bool) ([]Field, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !forceReload && l.cacheValid() {
		return l.fields, nil
	}

	info, err := os.Stat(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapFatal(errors.ErrCatalogNotFound, "CatalogLoader", "Load", "stat "+l.path)
		}
		return nil, errors.Wrap(err, "CatalogLoader", "Load", "stat catalog file")
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, errors.Wrap(err, "CatalogLoader", "Load", "read catalog file")
	}

	var entries []rawEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.WrapInvalid(errors.ErrCatalogMalformed, "CatalogLoader", "Load", "parse catalog JSON: "+err.Error())
	}

	fields := make([]Field, 0, len(entries))
	for _, entry := range entries {
		if f, ok := parseEntry(entry); ok {
			fields = append(fields, f)
		}
	}

	l.entries = entries
	l.fields = fields
	l.lastLoaded = time.Now()
	l.fileMtime = info.ModTime()

	l.logger.Info("catalog loaded",
		"path", l.path,
		"entries", len(entries),
		"fields", len(fields))
	return l.fields, nil
}

// cacheValid reports whether the cached parse still matches the file on disk.
func (l *Loader) cacheValid() bool {
	if l.fields == nil {
		return false
	}
	info, err := os.Stat(l.path)
	if err != nil {
		return false
	}
	return info.ModTime().Equal(l.fileMtime)
}

// FieldByPath returns the field with the given dotted path.
func (l *Loader) FieldByPath(path string) (*Field, error) {
	fields, err := l.Load(false)
	if err != nil {
		return nil, err
	}
	for i := range fields {
		if fields[i].Path == path {
			return &fields[i], nil
		}
	}
	return nil, errors.ErrFieldNotFound
}

// Stats summarizes the loaded catalog.
func (l *Loader) Stats() LoaderStats {
	l.mu.Lock()
	defer l.mu.Unlock()

	typeCounts := make(map[FieldType]int)
	for _, f := range l.fields {
		typeCounts[f.Type]++
	}
	return LoaderStats{
		Path:        l.path,
		TotalRaw:    len(l.entries),
		ValidFields: len(l.fields),
		FieldTypes:  typeCounts,
		LastLoaded:  l.lastLoaded,
	}
}

// LoaderStats describes the state of a Loader.
type LoaderStats struct {
	Path        string            `json:"path"`
	TotalRaw    int               `json:"total_entries"`
	ValidFields int               `json:"valid_fields"`
	FieldTypes  map[FieldType]int `json:"field_types"`
	LastLoaded  time.Time         `json:"last_loaded"`
}

// parseEntry converts a raw catalog entry into a Field. Entries without a
// field path are skipped.
func parseEntry(entry rawEntry) (Field, bool) {
	if entry.FieldPath == "" {
		return Field{}, false
	}

	fieldType := determineType(entry)

	var enumValues []string
	if fieldType == TypeEnumeration {
		enumValues = entry.EnumValues
	}

	terms := make([]string, 0, len(entry.SearchableTerms)+len(enumValues)+2)
	terms = append(terms, entry.SearchableTerms...)
	if entry.FieldName != "" {
		terms = append(terms, entry.FieldName)
	}
	if entry.Description != "" {
		terms = append(terms, entry.Description)
	}
	terms = append(terms, enumValues...)

	return Field{
		Path:        entry.FieldPath,
		Type:        fieldType,
		Description: entry.Description,
		EnumValues:  enumValues,
		SearchTerms: normalizeTerms(terms),
	}, true
}

func determineType(entry rawEntry) FieldType {
	switch strings.ToLower(entry.Type) {
	case "enumeration", "enum":
		return TypeEnumeration
	case "string", "text":
		return TypeString
	case "number", "int", "integer", "float":
		return TypeNumber
	case "boolean", "bool":
		return TypeBoolean
	case "date", "datetime":
		return TypeDate
	}
	if len(entry.EnumValues) > 0 {
		return TypeEnumeration
	}
	return TypeString
}

// normalizeTerms lowercases, trims, and deduplicates search terms while
// keeping first-seen order.
func normalizeTerms(terms []string) []string {
	seen := make(map[string]struct{}, len(terms))
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
