package cmd

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	mcpserver "github.com/ziadkadry99/lexsearch/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing legal search, citation extraction and index listing tools for AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		defaultIndex, _ := cmd.Flags().GetString("index")

		// Stdout carries the protocol.
		log.SetOutput(os.Stderr)

		cfg, store, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if len(store.Indexes()) == 0 {
			fmt.Fprintf(os.Stderr, "Warning: no indexes found in %s. Search results will be empty. Run `lexsearch ingest` first.\n", cfg.DataDir)
		} else if _, ok := store.Descriptor(defaultIndex); !ok && defaultIndex != "" {
			fmt.Fprintf(os.Stderr, "Warning: default index %q not found; clients must name an index\n", defaultIndex)
		}

		mcpserver.Version = Version

		fmt.Fprintf(os.Stderr, "lexsearch MCP server started on stdio (data=%s, indexes=%d)\n", cfg.DataDir, len(store.Indexes()))

		srv := mcpserver.NewServer(store, defaultIndex, cfg.Search.DefaultK)
		return srv.Serve()
	},
}

func init() {
	serveCmd.Flags().String("index", "legal", "index searched when a tool call names none")
	rootCmd.AddCommand(serveCmd)
}
