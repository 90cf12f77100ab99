// Package config loads and validates application configuration.
//
// Configuration comes from a YAML file, with environment variables prefixed
// CHATBOT_ overriding the settings that differ between deployments. Load
// always validates before returning, so a *Config in hand is usable.
package config
