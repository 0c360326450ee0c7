package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = ".lexsearch.yml"

// EnvPrefix prefixes environment overrides.
const EnvPrefix = "LEXSEARCH_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (LEXSEARCH_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// LEXSEARCH_DATA_DIR -> data_dir, LEXSEARCH_INDEX__KIND -> index.kind.
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// validProviders is the set of recognized provider values.
var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderGoogle: true,
	ProviderOllama: true,
	ProviderLocal:  true,
}

var validIndexKinds = map[string]bool{"": true, "flat": true, "ivf": true}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if c.EmbeddingProvider == "" {
		return fmt.Errorf("embedding_provider is required")
	}
	if !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q: must be one of openai, google, ollama, local", c.EmbeddingProvider)
	}
	if c.EmbeddingProvider != ProviderLocal && c.EmbeddingModel == "" {
		return fmt.Errorf("embedding_model is required")
	}
	if c.EmbeddingDimensions < 0 {
		return fmt.Errorf("embedding_dimensions must be non-negative")
	}

	if c.EmbedTimeoutSecs < 0 || c.EmbedRPM < 0 || c.BatchSize < 0 {
		return fmt.Errorf("embed_timeout_secs, embed_rpm and batch_size must be non-negative")
	}

	if !validIndexKinds[strings.ToLower(c.Index.Kind)] {
		return fmt.Errorf("invalid index.kind %q: must be flat or ivf", c.Index.Kind)
	}
	if c.Index.NProbe < 0 || c.Index.MaxCells < 0 {
		return fmt.Errorf("index.nprobe and index.max_cells must be non-negative")
	}

	if c.Chunker.MaxLength <= 0 {
		return fmt.Errorf("chunker.max_length must be positive")
	}
	if c.Chunker.Overlap < 0 {
		return fmt.Errorf("chunker.overlap must be non-negative")
	}

	if c.Search.DefaultK < 0 || c.Search.Oversample < 0 {
		return fmt.Errorf("search.default_k and search.oversample must be non-negative")
	}

	switch c.Storage.Type {
	case "", "local":
	case "s3":
		if c.Storage.S3Bucket == "" {
			return fmt.Errorf("storage.s3_bucket is required for s3 storage")
		}
	default:
		return fmt.Errorf("invalid storage.type %q: must be local or s3", c.Storage.Type)
	}

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}

	return nil
}

// EmbedTimeout returns the per-call embedding deadline.
func (c *Config) EmbedTimeout() time.Duration {
	return time.Duration(c.EmbedTimeoutSecs) * time.Second
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	case ProviderGoogle:
		return "GOOGLE_API_KEY"
	default:
		return ""
	}
}
