package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/lexsearch/internal/server"
)

var serverPort int

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the HTTP search API",
	Long:  `Starts the lexsearch HTTP server with search, citation extraction and citation catalog endpoints.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, store, cleanup, err := setup(context.Background())
		if err != nil {
			return err
		}
		defer cleanup()

		cat, database, err := openCatalog(cfg)
		if err != nil {
			return err
		}
		defer database.Close()

		port := cfg.Server.Port
		if cmd.Flags().Changed("port") {
			port = serverPort
		}

		srv := server.New(server.Config{
			Port:           port,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			DefaultK:       cfg.Search.DefaultK,
		}, store, cat)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			srv.Shutdown(shutdownCtx)
		}()

		fmt.Fprintf(os.Stderr, "lexsearch server %s starting on port %d\n", Version, port)
		fmt.Fprintf(os.Stderr, "  Catalog: %s\n", database.Path())
		fmt.Fprintf(os.Stderr, "  Indexes: %d\n", len(store.Indexes()))

		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "port to listen on (default from config)")
	rootCmd.AddCommand(serverCmd)
}
