package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexsearch/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "lexsearch",
	Short: "Semantic search and citation extraction over legal corpora",
	Long: `lexsearch ingests case law, statutes, regulations and constitutional
text into vector indexes, answers natural-language queries against them,
and extracts normalized citations with links to their sources. It serves
the same search to AI agents over MCP and to other tools over HTTP.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
