package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"base-swap/config"
	"base-swap/pkg/balance"
	"base-swap/pkg/types"
)

var watchBalance bool

var balanceCmd = &cobra.Command{
	Use:   "balance [wallet-address]",
	Short: "Show ETH and USDC balances",
	Long: `Show the balances of a wallet. Without an address the wallet of the
configured private key is used.

Examples:
  base-swap balance
  base-swap balance 0x1234...abcd --watch`,
	Args: cobra.MaximumNArgs(1),
	Run:  runBalance,
}

func init() {
	rootCmd.AddCommand(balanceCmd)

	balanceCmd.Flags().BoolVarP(&watchBalance, "watch", "w", false, "Refresh balances continuously")
}

func runBalance(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	log := newLogger(cmd, cfg)

	var addr string
	if len(args) > 0 {
		addr = args[0]
	}
	owner, err := resolveWallet(cfg, addr)
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

	var assets []types.Asset
	for _, t := range cfg.Tokens() {
		if t.Tradable {
			assets = append(assets, t.Asset())
		}
	}
	watcher := balance.NewWatcher(client, assets, cfg.BalanceInterval, log)

	if watchBalance {
		if jsonOutput {
			fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
			os.Exit(1)
		}

		fmt.Printf("\nWatching balances of %s\n", color.CyanString(owner.Hex()))
		fmt.Printf("Refreshing every %s. Press Ctrl+C to stop.\n", cfg.BalanceInterval)
		for snapshot := range watcher.Watch(ctx, owner) {
			displayBalances(snapshot)
		}
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching balances..."
		s.Start()
	}

	snapshot, err := watcher.Fetch(ctx, owner)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		balances := make(map[string]string, len(snapshot.Balances))
		for _, b := range snapshot.Balances {
			balances[b.Asset.String()] = b.Display()
		}
		printJSON(map[string]interface{}{
			"wallet":   owner.Hex(),
			"balances": balances,
		})
	} else {
		displayBalances(snapshot)
	}
}

func displayBalances(snapshot balance.Snapshot) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                       BALANCES")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Wallet:    %s\n", color.CyanString(snapshot.Owner.Hex()))
	fmt.Printf("  Updated:   %s\n", snapshot.At.Format("2006-01-02 15:04:05"))
	if snapshot.Err != nil {
		color.Red("\n  Error: %v", snapshot.Err)
	}
	for _, b := range snapshot.Balances {
		fmt.Printf("  %-10s %s\n", color.YellowString(b.Asset.String()), b.Display())
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
}
