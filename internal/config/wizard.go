package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// corpusMarkers maps file extensions found in the working directory to an
// include glob suggestion.
var corpusMarkers = []struct {
	Glob    string
	Include string
}{
	{Glob: "*.jsonl", Include: "**/*.jsonl"},
	{Glob: "*.json", Include: "**/*.json"},
	{Glob: "*.txt", Include: "**/*.txt"},
}

// detectIncludes suggests include globs for the files present in dir.
func detectIncludes(dir string) []string {
	var include []string
	for _, m := range corpusMarkers {
		matches, _ := filepath.Glob(filepath.Join(dir, m.Glob))
		if len(matches) > 0 {
			include = append(include, m.Include)
		}
	}
	if len(include) == 0 {
		return DefaultConfig().Include
	}
	return include
}

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .lexsearch.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to lexsearch! Let's configure your corpus.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Embedding provider.
	providerPrompt := promptui.Select{
		Label: "Select embedding provider",
		Items: []string{"local", "openai", "google", "ollama"},
	}
	_, providerStr, err := providerPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("provider selection: %w", err)
	}
	provider := ProviderType(providerStr)
	preset := GetPreset(provider)

	// 2. Model.
	model := preset.Model
	if provider != ProviderLocal {
		modelPrompt := promptui.Prompt{
			Label:   "Embedding model",
			Default: preset.Model,
		}
		if model, err = modelPrompt.Run(); err != nil {
			return nil, fmt.Errorf("model: %w", err)
		}
	}

	// 3. Data directory.
	dataPrompt := promptui.Prompt{
		Label:   "Directory for indexes",
		Default: cfg.DataDir,
	}
	dataDir, err := dataPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}

	// 4. Index kind.
	kindPrompt := promptui.Select{
		Label: "Default index kind",
		Items: []string{
			"flat: exact search, best below ~100k chunks",
			"ivf:  clustered approximate search for large corpora",
		},
	}
	kindIdx, _, err := kindPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("index kind: %w", err)
	}
	kinds := []string{"flat", "ivf"}

	// 5. Storage.
	storagePrompt := promptui.Select{
		Label: "Where should index artifacts be stored",
		Items: []string{"local", "s3"},
	}
	_, storageType, err := storagePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("storage selection: %w", err)
	}
	storage := StorageConfig{Type: storageType}
	if storageType == "s3" {
		bucketPrompt := promptui.Prompt{
			Label:    "S3 bucket",
			Validate: required,
		}
		if storage.S3Bucket, err = bucketPrompt.Run(); err != nil {
			return nil, fmt.Errorf("s3 bucket: %w", err)
		}
		regionPrompt := promptui.Prompt{
			Label:   "S3 region",
			Default: "us-east-1",
		}
		if storage.S3Region, err = regionPrompt.Run(); err != nil {
			return nil, fmt.Errorf("s3 region: %w", err)
		}
	}

	// 6. Include patterns.
	includePrompt := promptui.Prompt{
		Label:   "Include patterns (comma-separated globs)",
		Default: strings.Join(detectIncludes("."), ","),
	}
	includeStr, err := includePrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("include patterns: %w", err)
	}

	// 7. Port.
	portPrompt := promptui.Prompt{
		Label:    "HTTP server port",
		Default:  strconv.Itoa(cfg.Server.Port),
		Validate: validPort,
	}
	portStr, err := portPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("port: %w", err)
	}
	port, _ := strconv.Atoi(portStr)

	cfg.EmbeddingProvider = provider
	cfg.EmbeddingModel = model
	cfg.EmbeddingDimensions = preset.Dimensions
	cfg.DataDir = dataDir
	cfg.Index.Kind = kinds[kindIdx]
	cfg.Storage = storage
	cfg.Include = splitAndTrim(includeStr)
	cfg.Server.Port = port

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// Check for API key.
	if envVar := APIKeyEnvVar(provider); envVar != "" && os.Getenv(envVar) == "" {
		fmt.Printf("\nNote: Set %s in your environment before running lexsearch ingest.\n", envVar)
	}

	if err := cfg.Save(DefaultPath); err != nil {
		return nil, fmt.Errorf("saving config: %w", err)
	}

	fmt.Printf("\nConfiguration saved to %s\n", DefaultPath)
	return cfg, nil
}

func required(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("value is required")
	}
	return nil
}

func validPort(s string) error {
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 || n > 65535 {
		return fmt.Errorf("invalid port %q", s)
	}
	return nil
}

// splitAndTrim splits a comma-separated string and trims whitespace.
func splitAndTrim(s string) []string {
	var result []string
	for _, part := range strings.Split(s, ",") {
		if token := strings.TrimSpace(part); token != "" {
			result = append(result, token)
		}
	}
	return result
}
