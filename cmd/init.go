package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexsearch/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize lexsearch configuration with an interactive wizard",
	Long:  `Runs an interactive wizard that picks an embedding provider, index kind and storage backend, and writes a .lexsearch.yml file.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "\nNext: run `lexsearch ingest <dir>` to index your corpus into %s\n", cfg.DataDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
