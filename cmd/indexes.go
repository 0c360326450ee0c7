package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexsearch/internal/vectordb"
)

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "List built indexes",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		jsonOutput, _ := cmd.Flags().GetBool("json")

		_, store, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		indexes := store.Indexes()
		if jsonOutput {
			if indexes == nil {
				indexes = []vectordb.IndexDescriptor{}
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(indexes)
		}
		fmt.Fprint(cmd.OutOrStdout(), vectordb.FormatIndexes(indexes))
		if len(indexes) == 0 {
			fmt.Fprintln(cmd.OutOrStdout())
		}
		return nil
	},
}

func init() {
	indexesCmd.Flags().Bool("json", false, "output as JSON")
	rootCmd.AddCommand(indexesCmd)
}
