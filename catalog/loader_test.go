package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
)

const sampleCatalog = `[
  {
    "field_path": "race",
    "field_name": "Race",
    "type": "enumeration",
    "description": "Race of the subject",
    "enum_values": ["Asian", "White", "Black or African American"]
  },
  {
    "field_path": "tumor_assessments.tumor_site",
    "field_name": "Tumor Site",
    "type": "enumeration",
    "enum_values": ["Skin", "Bone", "Lung"],
    "searchable_terms": ["tumor location", "site of tumor"]
  },
  {
    "field_path": "age_at_enrollment",
    "type": "number",
    "description": "Age at study enrollment in days"
  },
  {
    "field_name": "no path so this entry is dropped"
  }
]`

func writeCatalog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoaderParsesFields(t *testing.T) {
	loader := NewLoader(writeCatalog(t, sampleCatalog), nil)

	fields, err := loader.Load(false)
	require.NoError(t, err)
	require.Len(t, fields, 3, "entry without field_path is skipped")

	race := fields[0]
	assert.Equal(t, "race", race.Path)
	assert.Equal(t, TypeEnumeration, race.Type)
	assert.Equal(t, []string{"Asian", "White", "Black or African American"}, race.EnumValues)
	assert.Contains(t, race.SearchTerms, "race")
	assert.Contains(t, race.SearchTerms, "asian")

	age := fields[2]
	assert.Equal(t, TypeNumber, age.Type)
	assert.Empty(t, age.EnumValues)
}

func TestLoaderInfersEnumFromValues(t *testing.T) {
	loader := NewLoader(writeCatalog(t, `[
		{"field_path": "sex", "enum_values": ["Male", "Female"]}
	]`), nil)

	fields, err := loader.Load(false)
	require.NoError(t, err)
	require.Len(t, fields, 1)
	assert.Equal(t, TypeEnumeration, fields[0].Type)
}

func TestLoaderMissingFile(t *testing.T) {
	loader := NewLoader(filepath.Join(t.TempDir(), "absent.json"), nil)

	_, err := loader.Load(false)
	assert.ErrorIs(t, err, errors.ErrCatalogNotFound)
	assert.True(t, errors.IsFatal(err))
}

func TestLoaderMalformedJSON(t *testing.T) {
	loader := NewLoader(writeCatalog(t, `{"not": "an array"}`), nil)

	_, err := loader.Load(false)
	assert.ErrorIs(t, err, errors.ErrCatalogMalformed)
}

func TestLoaderCachesUntilFileChanges(t *testing.T) {
	path := writeCatalog(t, sampleCatalog)
	loader := NewLoader(path, nil)

	first, err := loader.Load(false)
	require.NoError(t, err)

	second, err := loader.Load(false)
	require.NoError(t, err)
	assert.Same(t, &first[0], &second[0], "unchanged file should reuse the cached parse")
}

func TestLoaderFieldByPath(t *testing.T) {
	loader := NewLoader(writeCatalog(t, sampleCatalog), nil)

	field, err := loader.FieldByPath("tumor_assessments.tumor_site")
	require.NoError(t, err)
	assert.Equal(t, TypeEnumeration, field.Type)

	_, err = loader.FieldByPath("nope")
	assert.ErrorIs(t, err, errors.ErrFieldNotFound)
}

func TestLoaderStats(t *testing.T) {
	loader := NewLoader(writeCatalog(t, sampleCatalog), nil)
	_, err := loader.Load(false)
	require.NoError(t, err)

	stats := loader.Stats()
	assert.Equal(t, 4, stats.TotalRaw)
	assert.Equal(t, 3, stats.ValidFields)
	assert.Equal(t, 2, stats.FieldTypes[TypeEnumeration])
	assert.Equal(t, 1, stats.FieldTypes[TypeNumber])
	assert.False(t, stats.LastLoaded.IsZero())
}
