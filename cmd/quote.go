package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"base-swap/config"
	"base-swap/pkg/report"
	"base-swap/pkg/types"
)

var quoteSlippage string

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <source-token> to <dest-token>",
	Short: "Show the expected and minimum output of a swap",
	Long: `Quote a swap without sending anything. No private key is needed.

Examples:
  base-swap quote 0.1 ETH to USDC
  base-swap quote 25 USDC to ETH --slippage 1 --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().StringVarP(&quoteSlippage, "slippage", "s", "", "Slippage tolerance in percent (default from config, 0.5)")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	log := newLogger(cmd, cfg)

	req, err := parseRequest(cfg, args, quoteSlippage)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	client, err := dialNode(ctx, cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer client.Close()

	progress := newProgress(!jsonOutput)
	engine, err := newEngine(cfg, client, nil, log, progress)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	progress.start(" Fetching quote...")
	bounds, kind := engine.Preview(ctx, req)
	progress.stop()

	outcome := types.Outcome{Bounds: bounds, Kind: kind, State: types.StateBoundsComputed}
	if kind != types.KindNone {
		outcome.Status = types.OutcomeFailed
		outcome.State = types.StateIdle
	}
	result := report.FromOutcome(req, outcome)

	switch {
	case jsonOutput:
		printJSON(result)
	case kind != types.KindNone:
		displayResult(result, false)
	default:
		displayQuote(req, bounds)
	}

	if kind != types.KindNone {
		os.Exit(1)
	}
}
