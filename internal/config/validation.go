package config

import (
	"fmt"
	"log/slog"
	"os"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// API key validation depends on the selected provider. Genkit reads the
	// key itself; this check exists for fail-fast startup with a clear message.
	if c.Provider != ProviderOllama && os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY environment variable is required\n"+
			"Get your API key at: https://ai.google.dev/gemini-api/docs/api-key",
			ErrMissingAPIKey)
	}

	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity).
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 2097152 {
		return fmt.Errorf("%w: must be between 1 and 2,097,152, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	if c.EmbedderModel == "" {
		return fmt.Errorf("%w: embedder_model cannot be empty", ErrInvalidEmbedderModel)
	}

	// The chunks schema declares vector(768); an embedder producing any other
	// width cannot be indexed. This is a deployment error, so fail startup.
	if c.EmbedderDimension != DefaultEmbedderDimension {
		return fmt.Errorf("%w: chunks schema uses vector(%d), got %d",
			ErrInvalidEmbedderDimension, DefaultEmbedderDimension, c.EmbedderDimension)
	}

	if c.TopK < 1 || c.TopK > 20 {
		return fmt.Errorf("%w: must be between 1 and 20, got %d", ErrInvalidTopK, c.TopK)
	}

	if c.MaxChunkChars < 100 || c.MaxChunkChars > 20000 {
		return fmt.Errorf("%w: max_chunk_chars must be between 100 and 20000, got %d",
			ErrInvalidChunking, c.MaxChunkChars)
	}
	if c.OverlapChars < 0 || c.OverlapChars >= c.MaxChunkChars {
		return fmt.Errorf("%w: overlap_chars must be in [0, max_chunk_chars), got %d",
			ErrInvalidChunking, c.OverlapChars)
	}

	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}

	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}

	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "" {
		return fmt.Errorf("%w: postgres_password must be set in config.yaml",
			ErrInvalidPostgresPassword)
	}

	if c.PostgresPassword == "recall_dev_password" {
		slog.Warn("Using default development password for PostgreSQL",
			"warning", "Change postgres_password in config.yaml for production deployments")
	}

	return nil
}
