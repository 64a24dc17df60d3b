// Package config provides application configuration management with
// multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override, DATABASE_URL included)
//  2. Config file (~/.kbsearch/config.yaml)
//  3. Default values
//
// Sensitive data (the PostgreSQL password) is masked in MarshalJSON/String so
// a Config can be logged without leaking credentials.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrInvalidEmbedderModel indicates the embedder model name is empty.
	ErrInvalidEmbedderModel = errors.New("invalid embedder model")

	// ErrInvalidEmbeddingDim indicates the embedding dimensionality is out of range.
	ErrInvalidEmbeddingDim = errors.New("invalid embedding dimension")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is empty.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is empty.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates an unsupported sslmode value.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")

	// ErrInvalidEmbedBatchSize indicates the per-call embedding batch size is out of range.
	ErrInvalidEmbedBatchSize = errors.New("invalid embedding batch size")
)

const (
	// DefaultEmbedderModel is the default Gemini embedding model.
	DefaultEmbedderModel = "gemini-embedding-001"

	// DefaultEmbeddingDim is the vector dimensionality stored in pgvector.
	// gemini-embedding-001 supports truncation to arbitrary dimensions via
	// OutputDimensionality; the chunks schema is created with this value.
	DefaultEmbeddingDim = 1536

	// MaxEmbedBatchSize is the hard provider limit on texts per embedding call.
	MaxEmbedBatchSize = 100
)

// Config stores application configuration.
// SECURITY: sensitive fields are masked in MarshalJSON.
type Config struct {
	// Embedding configuration
	EmbedderModel  string `mapstructure:"embedder_model" json:"embedder_model"`
	EmbeddingDim   int    `mapstructure:"embedding_dim" json:"embedding_dim"`
	EmbedBatchSize int    `mapstructure:"embed_batch_size" json:"embed_batch_size"`

	// Storage configuration (see storage.go for DSN helpers)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Observability configuration
	Datadog DatadogConfig `mapstructure:"datadog" json:"datadog"`
}

// DatadogConfig configures OTLP trace export to a local Datadog Agent.
type DatadogConfig struct {
	// Enabled turns trace export on. Default: false.
	Enabled bool `mapstructure:"enabled" json:"enabled"`
	// AgentHost is the Agent OTLP HTTP endpoint (default: localhost:4318).
	AgentHost string `mapstructure:"agent_host" json:"agent_host"`
	// Environment tags traces with a deployment environment.
	Environment string `mapstructure:"environment" json:"environment"`
	// ServiceName is the APM service name.
	ServiceName string `mapstructure:"service_name" json:"service_name"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".kbsearch")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)
	v.AddConfigPath(".")

	setDefaults(v)
	bindEnvVariables(v)

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is not an error; defaults apply.
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using defaults",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL, if set, overrides the individual postgres_* settings.
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("embedder_model", DefaultEmbedderModel)
	v.SetDefault("embedding_dim", DefaultEmbeddingDim)
	v.SetDefault("embed_batch_size", MaxEmbedBatchSize)

	v.SetDefault("postgres_host", "localhost")
	v.SetDefault("postgres_port", 5432)
	v.SetDefault("postgres_user", "kbsearch")
	v.SetDefault("postgres_password", "kbsearch_dev_password")
	v.SetDefault("postgres_db_name", "kbsearch")
	v.SetDefault("postgres_ssl_mode", "disable")

	v.SetDefault("datadog.enabled", false)
	v.SetDefault("datadog.agent_host", "localhost:4318")
	v.SetDefault("datadog.environment", "dev")
	v.SetDefault("datadog.service_name", "kbsearch")
}

// bindEnvVariables binds environment variable overrides explicitly.
// GEMINI_API_KEY is read by the genai client directly, not via viper;
// Validate only checks its presence where a command needs it.
func bindEnvVariables(v *viper.Viper) {
	mustBind := func(key, envVar string) {
		if err := v.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("embedder_model", "KBSEARCH_EMBEDDER_MODEL")
	mustBind("embedding_dim", "KBSEARCH_EMBEDDING_DIM")
	mustBind("datadog.enabled", "KBSEARCH_DATADOG_ENABLED")
	mustBind("datadog.agent_host", "DD_AGENT_HOST")
	mustBind("datadog.environment", "DD_ENV")
	mustBind("datadog.service_name", "DD_SERVICE")
}

// maskedValue is the placeholder for masked sensitive data.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging. Secrets of eight
// characters or fewer are fully masked; longer ones keep the first and last
// two characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with sensitive field masking.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
