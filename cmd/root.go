package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"base-swap/config"
)

var rootCmd = &cobra.Command{
	Use:   "base-swap",
	Short: "A CLI for swapping ETH and USDC on Base through Uniswap V3",
	Long: `base-swap quotes and executes single-pool Uniswap V3 swaps between native ETH
and USDC on Base. Every swap is sent with a minimum output derived from your
slippage tolerance and a deadline, and is tracked until it is confirmed.

Examples:
  base-swap swap 0.1 ETH to USDC
  base-swap swap 25 USDC to ETH --slippage 1
  base-swap quote 0.1 ETH to USDC
  base-swap balance --watch
  base-swap status <tx-hash>
  base-swap serve`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

// newLogger builds the console logger. Without --verbose only warnings reach
// the terminal so they do not interleave with the spinner.
func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	verbose, _ := cmd.Flags().GetBool("verbose")

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	if verbose {
		level = zerolog.DebugLevel
	} else if cmd.Name() != "serve" && level < zerolog.WarnLevel {
		level = zerolog.WarnLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().
		Timestamp().
		Logger()
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
