package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"base-swap/config"
	"base-swap/pkg/history"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [wallet-address]",
	Short: "List recorded swaps of a wallet",
	Long: `List the swaps recorded for a wallet, newest first. Without an address the
wallet of the configured private key is used.

Examples:
  base-swap history
  base-swap history 0x1234...abcd --limit 5`,
	Args: cobra.MaximumNArgs(1),
	Run:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of swaps to show (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) {
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

	store, err := openHistory(ctx, cfg, log)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer store.Close()

	txs, err := store.ListByWallet(ctx, owner.Hex())
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	if historyLimit > 0 && len(txs) > historyLimit {
		txs = txs[:historyLimit]
	}

	if jsonOutput {
		printJSON(txs)
	} else {
		displayHistory(owner.Hex(), historySource(store), txs)
	}
}

// historySource names where the records were read from
func historySource(store history.Store) string {
	if fs, ok := store.(*history.FileStore); ok {
		return fs.FilePath()
	}
	return "PostgreSQL"
}

func displayHistory(wallet, source string, txs []history.Transaction) {
	if len(txs) == 0 {
		fmt.Printf("\nNo swaps recorded for %s.\n\n", wallet)
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                              SWAP HISTORY")
	fmt.Println(strings.Repeat("=", 90))
	fmt.Printf("\n  Wallet: %s\n", color.CyanString(wallet))
	fmt.Printf("  Source: %s\n", color.HiBlackString(source))
	fmt.Println(strings.Repeat("-", 90))

	for _, tx := range txs {
		hash := tx.Hash
		if len(hash) > 18 {
			hash = hash[:10] + "..." + hash[len(hash)-6:]
		}
		fmt.Printf("  %s  %s %s -> %s %s  %s  %s\n",
			tx.CreatedAt.Local().Format("2006-01-02 15:04"),
			tx.FromAmount, color.YellowString(tx.FromToken),
			tx.ToAmount, color.YellowString(tx.ToToken),
			getColoredStatus(tx.Status),
			color.HiBlackString(hash))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d swaps\n\n", len(txs))
}
