package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"base-swap/config"
	"base-swap/pkg/api"
	"base-swap/pkg/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the token list and swap history over HTTP",
	Long: `Start the HTTP API used by the browser UI:

  GET  /api/tokens
  POST /api/transactions
  GET  /api/transactions/{walletAddress}
  GET  /metrics

History is kept in PostgreSQL when BASE_SWAP_DATABASE_URL is set, else in a
JSON file in the home directory.

Examples:
  base-swap serve
  BASE_SWAP_LISTEN_ADDR=:8080 base-swap serve`,
	Run: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	log := newLogger(cmd, cfg)

	ctx, cancel := signalContext()
	defer cancel()

	store, err := openHistory(ctx, cfg, log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer store.Close()

	server := api.NewServer(api.Config{
		Addr:           cfg.ListenAddr,
		AllowedOrigins: cfg.CORSOrigins,
		Metrics:        metrics.Handler(),
	}, store, log)

	if err := server.ListenAndServe(ctx); err != nil {
		printError(err)
		os.Exit(1)
	}
	printSuccess("Server stopped.")
}
