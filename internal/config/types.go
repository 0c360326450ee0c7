package config

// ProviderType identifies an embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderGoogle ProviderType = "google"
	ProviderOllama ProviderType = "ollama"
	ProviderLocal  ProviderType = "local"
)

// Config is the top-level lexsearch configuration, corresponding to .lexsearch.yml.
type Config struct {
	DataDir             string        `yaml:"data_dir" koanf:"data_dir"`
	EmbeddingProvider   ProviderType  `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel      string        `yaml:"embedding_model" koanf:"embedding_model"`
	EmbeddingDimensions int           `yaml:"embedding_dimensions" koanf:"embedding_dimensions"`
	EmbeddingBaseURL    string        `yaml:"embedding_base_url,omitempty" koanf:"embedding_base_url"`
	EmbedTimeoutSecs    int           `yaml:"embed_timeout_secs" koanf:"embed_timeout_secs"`
	EmbedRPM            int           `yaml:"embed_rpm" koanf:"embed_rpm"`
	BatchSize           int           `yaml:"batch_size" koanf:"batch_size"`
	Index               IndexConfig   `yaml:"index" koanf:"index"`
	Chunker             ChunkerConfig `yaml:"chunker" koanf:"chunker"`
	Search              SearchConfig  `yaml:"search" koanf:"search"`
	Storage             StorageConfig `yaml:"storage" koanf:"storage"`
	Server              ServerConfig  `yaml:"server" koanf:"server"`
	CatalogPath         string        `yaml:"catalog_path" koanf:"catalog_path"`
	Include             []string      `yaml:"include" koanf:"include"`
	Exclude             []string      `yaml:"exclude" koanf:"exclude"`
}

// IndexConfig controls index construction and IVF probing.
type IndexConfig struct {
	Kind     string `yaml:"kind" koanf:"kind"`
	NProbe   int    `yaml:"nprobe" koanf:"nprobe"`
	MaxCells int    `yaml:"max_cells" koanf:"max_cells"`
}

// ChunkerConfig sizes the chunks fed to the embedder, in characters.
type ChunkerConfig struct {
	MaxLength int `yaml:"max_length" koanf:"max_length"`
	Overlap   int `yaml:"overlap" koanf:"overlap"`
}

// SearchConfig holds query defaults.
type SearchConfig struct {
	DefaultK   int `yaml:"default_k" koanf:"default_k"`
	Oversample int `yaml:"oversample" koanf:"oversample"`
}

// StorageConfig selects where index artifacts live. Local storage uses
// DataDir; AWS credentials come from the standard AWS environment.
type StorageConfig struct {
	Type     string `yaml:"type" koanf:"type"`
	S3Bucket string `yaml:"s3_bucket,omitempty" koanf:"s3_bucket"`
	S3Region string `yaml:"s3_region,omitempty" koanf:"s3_region"`
	S3Prefix string `yaml:"s3_prefix,omitempty" koanf:"s3_prefix"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}
