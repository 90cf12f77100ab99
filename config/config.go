package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chicagopcdc/GSoC-Cohort-Discovery-Chatbot/errors"
)

const envPrefix = "CHATBOT"

// Duration is a time.Duration that unmarshals from YAML strings like "30s".
type Duration time.Duration

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the complete application configuration.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Catalog CatalogConfig `yaml:"catalog"`
	LLM     LLMConfig     `yaml:"llm"`
	Guppy   GuppyConfig   `yaml:"guppy"`
	History HistoryConfig `yaml:"history"`
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP gateway.
type ServerConfig struct {
	Host         string   `yaml:"host"`
	Port         int      `yaml:"port"`
	ReadTimeout  Duration `yaml:"read_timeout"`
	WriteTimeout Duration `yaml:"write_timeout"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

// CatalogConfig locates the field catalog and tunes the search index.
type CatalogConfig struct {
	Path           string  `yaml:"path"`
	GitopsPath     string  `yaml:"gitops_path"`
	MinTermLength  int     `yaml:"min_term_length"`
	MaxCandidates  int     `yaml:"max_candidates"`
	FuzzyThreshold float64 `yaml:"fuzzy_threshold"`
}

// LLMConfig configures the OpenAI-compatible completion client. An empty
// APIKey disables LLM calls and the rule-based fallbacks take over.
type LLMConfig struct {
	APIKey            string  `yaml:"api_key"`
	BaseURL           string  `yaml:"base_url"`
	Model             string  `yaml:"model"`
	Temperature       float32 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	RequestsPerSecond float64 `yaml:"requests_per_second"`
	MaxAttempts       int     `yaml:"max_attempts"`
}

// GuppyConfig configures query execution against the Guppy endpoint.
type GuppyConfig struct {
	Endpoint   string   `yaml:"endpoint"`
	Timeout    Duration `yaml:"timeout"`
	QueryLimit int      `yaml:"query_limit"`
}

// HistoryConfig bounds the chat session store.
type HistoryConfig struct {
	SessionTTL      Duration `yaml:"session_ttl"`
	CleanupInterval Duration `yaml:"cleanup_interval"`
	Workers         int      `yaml:"workers"`
	QueueSize       int      `yaml:"queue_size"`
}

// LoggingConfig controls the slog handler.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8000,
			ReadTimeout:  Duration(15 * time.Second),
			WriteTimeout: Duration(30 * time.Second),
			CORSOrigins:  []string{"http://localhost:3000"},
		},
		Catalog: CatalogConfig{
			Path:           "schema/catalog.json",
			MinTermLength:  2,
			MaxCandidates:  5,
			FuzzyThreshold: 0.8,
		},
		LLM: LLMConfig{
			Model:             "gpt-4o-mini",
			Temperature:       0,
			MaxTokens:         1000,
			RequestsPerSecond: 2,
			MaxAttempts:       3,
		},
		Guppy: GuppyConfig{
			Endpoint:   "http://localhost:8080/graphql",
			Timeout:    Duration(30 * time.Second),
			QueryLimit: 20,
		},
		History: HistoryConfig{
			SessionTTL:      Duration(30 * time.Minute),
			CleanupInterval: Duration(time.Minute),
			Workers:         2,
			QueueSize:       512,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads the YAML file at path, applies environment overrides, and
// validates the result. An empty path loads defaults plus overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errors.WrapFatal(err, "Config", "Load", "read config file")
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.WrapInvalid(err, "Config", "Load", "parse config file")
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the application cannot run
// with.
func (c *Config) Validate() error {
	var problems []string

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		problems = append(problems, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Catalog.Path == "" {
		problems = append(problems, "catalog.path is required")
	}
	if c.Catalog.FuzzyThreshold < 0 || c.Catalog.FuzzyThreshold > 1 {
		problems = append(problems, fmt.Sprintf("catalog.fuzzy_threshold %v must be within [0, 1]", c.Catalog.FuzzyThreshold))
	}
	if c.Guppy.Endpoint == "" {
		problems = append(problems, "guppy.endpoint is required")
	}
	if c.Guppy.QueryLimit < 0 {
		problems = append(problems, fmt.Sprintf("guppy.query_limit %d must not be negative", c.Guppy.QueryLimit))
	}
	if c.LLM.MaxAttempts < 0 {
		problems = append(problems, fmt.Sprintf("llm.max_attempts %d must not be negative", c.LLM.MaxAttempts))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		problems = append(problems, fmt.Sprintf("logging.level %q unknown", c.Logging.Level))
	}

	if len(problems) > 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s", errors.ErrInvalidConfig, strings.Join(problems, "; ")),
			"Config", "Validate", "check configuration")
	}
	return nil
}

// applyEnvOverrides lets deployment environments override file values
// without editing the file. Only the settings that commonly differ between
// environments are exposed.
func applyEnvOverrides(cfg *Config) {
	setString(&cfg.Server.Host, "SERVER_HOST")
	setInt(&cfg.Server.Port, "SERVER_PORT")
	setString(&cfg.Catalog.Path, "CATALOG_PATH")
	setString(&cfg.Catalog.GitopsPath, "GITOPS_PATH")
	setString(&cfg.LLM.APIKey, "OPENAI_API_KEY")
	setString(&cfg.LLM.BaseURL, "LLM_BASE_URL")
	setString(&cfg.LLM.Model, "LLM_MODEL")
	setString(&cfg.Guppy.Endpoint, "GUPPY_ENDPOINT")
	setInt(&cfg.Guppy.QueryLimit, "QUERY_LIMIT")
	setString(&cfg.Logging.Level, "LOG_LEVEL")
	setString(&cfg.Logging.Format, "LOG_FORMAT")

	if val := lookup("CORS_ORIGINS"); val != "" {
		cfg.Server.CORSOrigins = strings.Split(val, ",")
	}
}

func lookup(key string) string {
	return os.Getenv(envPrefix + "_" + key)
}

func setString(dst *string, key string) {
	if val := lookup(key); val != "" {
		*dst = val
	}
}

func setInt(dst *int, key string) {
	if val := lookup(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}
