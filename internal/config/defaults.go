package config

import "path/filepath"

// Preset describes the default model for an embedding provider.
type Preset struct {
	Model      string
	Dimensions int
}

// presets maps each provider to its default embedding model.
var presets = map[ProviderType]Preset{
	ProviderOpenAI: {Model: "text-embedding-3-small", Dimensions: 1536},
	ProviderGoogle: {Model: "text-embedding-004", Dimensions: 768},
	ProviderOllama: {Model: "nomic-embed-text", Dimensions: 768},
	ProviderLocal:  {Model: "hashing", Dimensions: 384},
}

// DefaultExcludes are glob patterns never ingested.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
	"*.lock",
	"package-lock.json",
}

// DefaultConfig returns a Config with sensible defaults. The local hashing
// embedder needs no network or credentials.
func DefaultConfig() *Config {
	return &Config{
		DataDir:             "lexsearch-data",
		EmbeddingProvider:   ProviderLocal,
		EmbeddingModel:      presets[ProviderLocal].Model,
		EmbeddingDimensions: presets[ProviderLocal].Dimensions,
		EmbedTimeoutSecs:    30,
		BatchSize:           64,
		Index: IndexConfig{
			Kind:     "flat",
			NProbe:   4,
			MaxCells: 100,
		},
		Chunker: ChunkerConfig{
			MaxLength: 1000,
			Overlap:   200,
		},
		Search: SearchConfig{
			DefaultK:   5,
			Oversample: 3,
		},
		Storage: StorageConfig{
			Type: "local",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"*"},
		},
		Include: []string{"**/*.json", "**/*.jsonl", "**/*.txt"},
		Exclude: DefaultExcludes,
	}
}

// GetPreset returns the default model for the given provider. Unknown
// providers get the local preset.
func GetPreset(provider ProviderType) Preset {
	if p, ok := presets[provider]; ok {
		return p
	}
	return presets[ProviderLocal]
}

// ResolvedCatalogPath returns the SQLite catalog path, defaulting to
// <data_dir>/citations.db.
func (c *Config) ResolvedCatalogPath() string {
	if c.CatalogPath != "" {
		return c.CatalogPath
	}
	return filepath.Join(c.DataDir, "citations.db")
}
