package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexsearch/internal/citation"
	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search an index by meaning",
	Long:  `Embeds the query and returns the closest passages from the named index, optionally preferring one jurisdiction and listing the citations found in the results.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().String("index", "legal", "index to search")
	searchCmd.Flags().Int("limit", 0, "maximum number of results (default from config)")
	searchCmd.Flags().String("jurisdiction", "", "prefer results from this jurisdiction")
	searchCmd.Flags().Bool("citations", false, "list citations found in the results")
	searchCmd.Flags().Bool("json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

type searchOutput struct {
	Results   []vectordb.SearchResult `json:"results"`
	Citations []citation.Citation     `json:"citations,omitempty"`
}

func runSearch(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	query := args[0]

	indexName, _ := cmd.Flags().GetString("index")
	limit, _ := cmd.Flags().GetInt("limit")
	jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
	withCitations, _ := cmd.Flags().GetBool("citations")
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, store, cleanup, err := setup(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if limit <= 0 {
		limit = cfg.Search.DefaultK
	}

	// Search degrades to no results; load first so a missing index is reported.
	if err := store.LoadIndex(ctx, indexName); err != nil {
		return fmt.Errorf("loading index %s: %w\nRun `lexsearch ingest` first to build it", indexName, err)
	}

	results := store.SearchByJurisdiction(ctx, query, jurisdiction, indexName, limit)

	var cits []citation.Citation
	if withCitations {
		cits = vectordb.Citations(results)
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		if results == nil {
			results = []vectordb.SearchResult{}
		}
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(searchOutput{Results: results, Citations: cits})
	}

	fmt.Fprint(out, vectordb.FormatResults(results))
	if len(results) == 0 {
		fmt.Fprintln(out)
		return nil
	}
	if withCitations {
		fmt.Fprint(out, citation.FormatList(cits))
	}
	return nil
}
