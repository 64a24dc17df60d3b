package config

import (
	"fmt"
	"strings"
)

// validSSLModes are the sslmode values accepted by libpq/pgx.
var validSSLModes = map[string]bool{
	"disable":     true,
	"allow":       true,
	"prefer":      true,
	"require":     true,
	"verify-ca":   true,
	"verify-full": true,
}

// Validate checks the configuration for invalid values and fails fast with a
// sentinel-wrapped error so callers can use errors.Is.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.EmbedderModel) == "" {
		return fmt.Errorf("%w: model name must not be empty", ErrInvalidEmbedderModel)
	}

	// pgvector indexes cap out at 2000 dimensions for ivfflat/hnsw.
	if c.EmbeddingDim < 1 || c.EmbeddingDim > 2000 {
		return fmt.Errorf("%w: %d (must be in 1..2000)", ErrInvalidEmbeddingDim, c.EmbeddingDim)
	}

	if c.EmbedBatchSize < 1 || c.EmbedBatchSize > MaxEmbedBatchSize {
		return fmt.Errorf("%w: %d (must be in 1..%d)", ErrInvalidEmbedBatchSize, c.EmbedBatchSize, MaxEmbedBatchSize)
	}

	if strings.TrimSpace(c.PostgresHost) == "" {
		return fmt.Errorf("%w: host must not be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: %d (must be in 1..65535)", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if strings.TrimSpace(c.PostgresDBName) == "" {
		return fmt.Errorf("%w: database name must not be empty", ErrInvalidPostgresDBName)
	}

	if !validSSLModes[c.PostgresSSLMode] {
		return fmt.Errorf("%w: %q", ErrInvalidPostgresSSLMode, c.PostgresSSLMode)
	}

	return nil
}
