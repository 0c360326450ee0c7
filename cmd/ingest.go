package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexsearch/internal/chunker"
	"github.com/ziadkadry99/lexsearch/internal/corpus"
	"github.com/ziadkadry99/lexsearch/internal/progress"
	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [path]",
	Short: "Chunk, embed and index a legal corpus",
	Long: `Discovers JSON, JSON Lines and plain-text documents under path (default
the current directory), chunks them, embeds every chunk and writes a named
index. With --per-jurisdiction one index is built per jurisdiction, named
<index>_<jurisdiction>.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("index", "legal", "index name (base name with --per-jurisdiction)")
	ingestCmd.Flags().String("kind", "", "index kind: flat or ivf (default from config)")
	ingestCmd.Flags().Bool("per-jurisdiction", false, "build one index per jurisdiction")
	ingestCmd.Flags().Int("dimension", 0, "expected embedding dimension (0 accepts the provider's)")
	ingestCmd.Flags().String("jurisdiction", "", "default jurisdiction for documents that carry none")
	ingestCmd.Flags().String("category", "", "default category for documents that carry none")
	ingestCmd.Flags().String("source", "", "default source for documents that carry none")
	ingestCmd.Flags().String("date", "", "default date for documents that carry none")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	start := time.Now()

	root := "."
	if len(args) == 1 {
		root = args[0]
	}

	indexName, _ := cmd.Flags().GetString("index")
	kindFlag, _ := cmd.Flags().GetString("kind")
	perJurisdiction, _ := cmd.Flags().GetBool("per-jurisdiction")
	dimension, _ := cmd.Flags().GetInt("dimension")

	var defaults chunker.Metadata
	defaults.Jurisdiction, _ = cmd.Flags().GetString("jurisdiction")
	defaults.Category, _ = cmd.Flags().GetString("category")
	defaults.Source, _ = cmd.Flags().GetString("source")
	defaults.Date, _ = cmd.Flags().GetString("date")

	cfg, store, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if kindFlag == "" {
		kindFlag = cfg.Index.Kind
	}
	kind, err := vectordb.ParseKind(kindFlag)
	if err != nil {
		return err
	}

	files, err := corpus.Discover(corpus.WalkConfig{
		RootDir: root,
		Include: cfg.Include,
		Exclude: cfg.Exclude,
	})
	if err != nil {
		return fmt.Errorf("discovering documents: %w", err)
	}
	if len(files) == 0 {
		return fmt.Errorf("no documents found under %s", root)
	}

	var docs []chunker.Document
	for _, f := range files {
		loaded, err := corpus.LoadFile(f, defaults)
		if err != nil {
			return err
		}
		docs = append(docs, loaded...)
		if verbose {
			fmt.Fprintf(os.Stderr, "  %s: %d document(s)\n", f.RelPath, len(loaded))
		}
	}

	records := corpus.Records(docs, cfg.Chunker.MaxLength, cfg.Chunker.Overlap)
	fmt.Fprintf(os.Stderr, "Loaded %d document(s) from %d file(s) into %d chunk(s)\n", len(docs), len(files), len(records))

	groups := []corpus.Group{{IndexName: indexName, Records: records}}
	if perJurisdiction {
		groups = corpus.GroupByJurisdiction(records, indexName)
	}

	reporter := progress.NewReporter()
	var built []vectordb.IndexDescriptor
	for _, g := range groups {
		desc, err := store.CreateIndex(ctx, g.IndexName, g.Records, dimension, kind,
			vectordb.WithProgress(progress.Embedding(reporter, g.IndexName)))
		if err != nil {
			return fmt.Errorf("building index %s: %w", g.IndexName, err)
		}
		if desc.FellBack {
			fmt.Fprintf(os.Stderr, "Warning: %s has too few chunks for %s, built %s instead\n", desc.Name, desc.RequestedKind, desc.Kind)
		}
		built = append(built, *desc)
	}

	fmt.Fprint(cmd.OutOrStdout(), vectordb.FormatIndexes(built))
	fmt.Fprintf(os.Stderr, "Done in %s\n", time.Since(start).Round(time.Millisecond))
	return nil
}
