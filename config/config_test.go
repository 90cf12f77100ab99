package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, 20, cfg.Guppy.QueryLimit)
	assert.Equal(t, 30*time.Minute, cfg.History.SessionTTL.Std())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
catalog:
  path: /data/catalog.json
guppy:
  endpoint: https://portal.pedscommons.org/guppy/graphql
  query_limit: 50
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "/data/catalog.json", cfg.Catalog.Path)
	assert.Equal(t, 50, cfg.Guppy.QueryLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host, "unset fields keep defaults")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
`)
	t.Setenv("CHATBOT_SERVER_PORT", "9100")
	t.Setenv("CHATBOT_OPENAI_API_KEY", "sk-test")
	t.Setenv("CHATBOT_CORS_ORIGINS", "https://a.example,https://b.example")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
}

func TestLoadParsesDurations(t *testing.T) {
	path := writeConfig(t, `
guppy:
  timeout: 45s
history:
  session_ttl: 2h
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Guppy.Timeout.Std())
	assert.Equal(t, 2*time.Hour, cfg.History.SessionTTL.Std())
}

func TestLoadRejectsBadDuration(t *testing.T) {
	path := writeConfig(t, `
guppy:
  timeout: soon
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	require.Error(t, err)
	assert.True(t, errors.IsFatal(err))
}

func TestLoadMalformedFile(t *testing.T) {
	path := writeConfig(t, "server: [not a mapping")
	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.IsInvalid(err))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		problem string
	}{
		{
			name:    "port out of range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			problem: "server.port",
		},
		{
			name:    "missing catalog path",
			mutate:  func(c *Config) { c.Catalog.Path = "" },
			problem: "catalog.path",
		},
		{
			name:    "fuzzy threshold above one",
			mutate:  func(c *Config) { c.Catalog.FuzzyThreshold = 1.5 },
			problem: "fuzzy_threshold",
		},
		{
			name:    "missing guppy endpoint",
			mutate:  func(c *Config) { c.Guppy.Endpoint = "" },
			problem: "guppy.endpoint",
		},
		{
			name:    "unknown log level",
			mutate:  func(c *Config) { c.Logging.Level = "verbose" },
			problem: "logging.level",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestValidateDefaultsPass(t *testing.T) {
	assert.NoError(t, Default().Validate())
}
