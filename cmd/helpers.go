package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/ziadkadry99/lexsearch/internal/catalog"
	"github.com/ziadkadry99/lexsearch/internal/config"
	"github.com/ziadkadry99/lexsearch/internal/db"
	"github.com/ziadkadry99/lexsearch/internal/embeddings"
	"github.com/ziadkadry99/lexsearch/internal/storage"
	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `lexsearch init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
// The returned closer releases provider clients and is never nil.
func createEmbedderFromConfig(ctx context.Context, cfg *config.Config) (embeddings.Embedder, io.Closer, error) {
	preset := config.GetPreset(cfg.EmbeddingProvider)
	model := cfg.EmbeddingModel
	if model == "" {
		model = preset.Model
	}
	dims := cfg.EmbeddingDimensions
	if dims <= 0 && cfg.EmbeddingProvider == config.ProviderLocal {
		dims = preset.Dimensions
	}

	var (
		e      embeddings.Embedder
		closer io.Closer = nopCloser{}
	)
	switch cfg.EmbeddingProvider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, nil, fmt.Errorf("OPENAI_API_KEY environment variable is required for OpenAI embeddings")
		}
		e = embeddings.NewOpenAIEmbedder(apiKey, embeddings.OpenAIModel(model), cfg.EmbeddingBaseURL, dims)
	case config.ProviderGoogle:
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderGoogle))
		if apiKey == "" {
			return nil, nil, fmt.Errorf("GOOGLE_API_KEY environment variable is required for Google embeddings")
		}
		g, err := embeddings.NewGoogleEmbedder(ctx, apiKey, embeddings.GoogleModel(model))
		if err != nil {
			return nil, nil, err
		}
		e, closer = g, g
	case config.ProviderOllama:
		if dims <= 0 {
			dims = preset.Dimensions
		}
		e = embeddings.NewOllamaEmbedder(model, dims, cfg.EmbeddingBaseURL)
	case config.ProviderLocal:
		e = embeddings.NewHashingEmbedder(dims)
	default:
		return nil, nil, fmt.Errorf("unknown embedding provider %q", cfg.EmbeddingProvider)
	}

	if verbose {
		fmt.Fprintf(os.Stderr, "Embedding with %s (%d dimensions)\n", e.Name(), e.Dimensions())
	}
	return embeddings.RateLimited(e, cfg.EmbedRPM), closer, nil
}

// openStore opens the artifact storage named by cfg and the index store on
// top of it.
func openStore(ctx context.Context, cfg *config.Config, embedder embeddings.Embedder) (*vectordb.Store, error) {
	st, err := storage.New(ctx, storage.Config{
		Type:      storage.Type(cfg.Storage.Type),
		LocalPath: cfg.DataDir,
		S3Bucket:  cfg.Storage.S3Bucket,
		S3Region:  cfg.Storage.S3Region,
		S3Prefix:  cfg.Storage.S3Prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}

	store, err := vectordb.NewStore(ctx, st, embedder, vectordb.Options{
		EmbedTimeout: cfg.EmbedTimeout(),
		BatchSize:    cfg.BatchSize,
		NProbe:       cfg.Index.NProbe,
		MaxCells:     cfg.Index.MaxCells,
		Oversample:   cfg.Search.Oversample,
	})
	if err != nil {
		return nil, fmt.Errorf("opening index store: %w", err)
	}
	return store, nil
}

// openCatalog opens the citation catalog database.
func openCatalog(cfg *config.Config) (*catalog.Store, *db.DB, error) {
	database, err := db.Open(cfg.ResolvedCatalogPath())
	if err != nil {
		return nil, nil, fmt.Errorf("opening citation catalog: %w", err)
	}
	return catalog.NewStore(database), database, nil
}

// setup loads the config and opens the embedder and index store shared by
// most commands. The returned cleanup func must be called when done.
func setup(ctx context.Context) (*config.Config, *vectordb.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	embedder, closer, err := createEmbedderFromConfig(ctx, cfg)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("creating embedder: %w", err)
	}
	store, err := openStore(ctx, cfg, embedder)
	if err != nil {
		closer.Close()
		return nil, nil, nil, err
	}
	return cfg, store, func() { closer.Close() }, nil
}
