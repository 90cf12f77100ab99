package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeJSON(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExtractSchemaEnums(t *testing.T) {
	path := writeJSON(t, "schema.json", `{
		"subject.yaml": {
			"properties": {
				"race": {"enum": ["Asian", "White"]},
				"sex": {"enum": ["Male", "Female"]}
			}
		},
		"tumor.yaml": {
			"properties": {
				"tumor_site": {"enum": ["Skin", "Asian"]}
			}
		}
	}`)

	result, err := ExtractSchemaEnums(path)
	require.NoError(t, err)

	assert.ElementsMatch(t, []string{"race", "tumor_site"}, result["Asian"])
	assert.Equal(t, []string{"race"}, result["White"])
	assert.Equal(t, []string{"tumor_site"}, result["Skin"])
}

func TestExtractSchemaEnumsDeduplicates(t *testing.T) {
	path := writeJSON(t, "schema.json", `{
		"a": {"race": {"enum": ["Asian"]}},
		"b": {"race": {"enum": ["Asian"]}}
	}`)

	result, err := ExtractSchemaEnums(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"race"}, result["Asian"])
}

func TestExtractGitopsFields(t *testing.T) {
	path := writeJSON(t, "gitops.json", `{
		"explorerConfig": [{
			"filters": {
				"tabs": [
					{"title": "Subject", "fields": ["race", "sex"]},
					{"title": "Tumor", "fields": ["tumor_assessments.tumor_site", "tumor_assessments.tumor_state", "labs.lab_result"]}
				]
			}
		}]
	}`)

	result, err := ExtractGitopsFields(path)
	require.NoError(t, err)

	assert.Equal(t, []string{}, result["race"])
	assert.Equal(t, []string{"tumor_assessments"}, result["tumor_site"])
	assert.Equal(t, []string{"labs"}, result["lab_result"])
}

func TestExtractGitopsFieldsSplitsOnFirstDotOnly(t *testing.T) {
	path := writeJSON(t, "gitops.json", `{
		"filters": {"tabs": [{"title": "T", "fields": ["a.b.c"]}]}
	}`)

	result, err := ExtractGitopsFields(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, result["b.c"])
}

func TestLoadTabs(t *testing.T) {
	path := writeJSON(t, "gitops.json", `{
		"explorerConfig": [{
			"filters": {
				"anchor": {"field": "consortium", "tabs": ["Tumor"]},
				"tabs": [
					{"title": "Subject", "fields": ["race"]},
					{"title": "Tumor", "fields": ["tumor_assessments.tumor_site"]}
				]
			}
		}]
	}`)

	tabs, anchor, err := LoadTabs(path)
	require.NoError(t, err)
	require.Len(t, tabs, 2)
	assert.Equal(t, "Subject", tabs[0].Title)
	assert.Equal(t, []string{"tumor_assessments.tumor_site"}, tabs[1].Fields)

	require.NotNil(t, anchor)
	assert.Equal(t, "consortium", anchor.Field)
	assert.Equal(t, []string{"Tumor"}, anchor.Tabs)
}

func TestLoadTabsWithoutAnchor(t *testing.T) {
	path := writeJSON(t, "gitops.json", `{
		"filters": {"tabs": [{"title": "Subject", "fields": ["race"]}]}
	}`)

	tabs, anchor, err := LoadTabs(path)
	require.NoError(t, err)
	assert.Len(t, tabs, 1)
	assert.Nil(t, anchor)
}

func TestLoadTabsNoFiltersSection(t *testing.T) {
	path := writeJSON(t, "gitops.json", `{"components": {"banner": true}}`)

	tabs, anchor, err := LoadTabs(path)
	require.NoError(t, err)
	assert.Nil(t, tabs)
	assert.Nil(t, anchor)
}
