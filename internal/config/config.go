// Package config loads configuration and sets up logging.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration values.
type Config struct {
	// SurrealDB connection
	SurrealDBURL       string `yaml:"surrealdb_url"`
	SurrealDBNamespace string `yaml:"surrealdb_namespace"`
	SurrealDBDatabase  string `yaml:"surrealdb_database"`
	SurrealDBUser      string `yaml:"surrealdb_user"`
	SurrealDBPass      string `yaml:"surrealdb_pass"`
	SurrealDBAuthLevel string `yaml:"surrealdb_auth_level"`

	// Identifier derivation: strict, content_hash, or auto
	IdentifierMode string `yaml:"identifier_mode"`

	// Streaming persistence failure policy: continue or propagate
	StreamFailurePolicy string `yaml:"stream_failure_policy"`

	// Logging
	LogFile  string     `yaml:"log_file"`
	LogLevel slog.Level `yaml:"-"`

	// Raw log level string from file/env, parsed into LogLevel.
	LogLevelName string `yaml:"log_level"`
}

// Load reads configuration from an optional YAML file (CONVOSTORE_CONFIG)
// overlaid with environment variables. Environment always wins.
func Load() (Config, error) {
	cfg := Config{
		SurrealDBURL:        "ws://localhost:8000/rpc",
		SurrealDBNamespace:  "conversations",
		SurrealDBDatabase:   "history",
		SurrealDBUser:       "root",
		SurrealDBPass:       "root",
		SurrealDBAuthLevel:  "root",
		IdentifierMode:      "auto",
		StreamFailurePolicy: "continue",
		LogFile:             "/tmp/convostore.log",
		LogLevelName:        "INFO",
	}

	if path := os.Getenv("CONVOSTORE_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	overlayEnv(&cfg.SurrealDBURL, "SURREALDB_URL")
	overlayEnv(&cfg.SurrealDBNamespace, "SURREALDB_NAMESPACE")
	overlayEnv(&cfg.SurrealDBDatabase, "SURREALDB_DATABASE")
	overlayEnv(&cfg.SurrealDBUser, "SURREALDB_USER")
	overlayEnv(&cfg.SurrealDBPass, "SURREALDB_PASS")
	overlayEnv(&cfg.SurrealDBAuthLevel, "SURREALDB_AUTH_LEVEL")
	overlayEnv(&cfg.IdentifierMode, "CONVOSTORE_IDENTIFIER_MODE")
	overlayEnv(&cfg.StreamFailurePolicy, "CONVOSTORE_STREAM_FAILURE_POLICY")
	overlayEnv(&cfg.LogFile, "CONVOSTORE_LOG_FILE")
	overlayEnv(&cfg.LogLevelName, "CONVOSTORE_LOG_LEVEL")

	cfg.LogLevel = parseLogLevel(cfg.LogLevelName)
	return cfg, nil
}

func overlayEnv(target *string, key string) {
	if val := os.Getenv(key); val != "" {
		*target = val
	}
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
