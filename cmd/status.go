package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"base-swap/config"
	"base-swap/pkg/chain"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <tx-hash>",
	Short: "Check the status of a swap transaction",
	Long: `Check whether a transaction is pending, confirmed or reverted.

Examples:
  base-swap status 0x1234...abcd
  base-swap status 0x1234...abcd --watch
  base-swap status 0x1234...abcd --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status until the transaction is included")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

// txStatus is what the status command reports of one transaction
type txStatus struct {
	Hash        string `json:"hash"`
	Status      string `json:"status"`
	BlockNumber uint64 `json:"blockNumber,omitempty"`
	GasUsed     uint64 `json:"gasUsed,omitempty"`
}

func (s txStatus) final() bool {
	return s.Status != "PENDING"
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	hex := args[0]
	if len(strings.TrimPrefix(hex, "0x")) != 64 {
		printError(fmt.Errorf("invalid transaction hash %q", hex))
		os.Exit(1)
	}
	hash := common.HexToHash(hex)

	// Load configuration
	cfg, err := config.Load()
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

	if watchStatus {
		watchTxStatus(ctx, client, hash, jsonOutput)
	} else {
		checkTxStatus(ctx, client, hash, jsonOutput)
	}
}

func fetchTxStatus(ctx context.Context, source chain.ReceiptSource, hash common.Hash) (txStatus, error) {
	status := txStatus{Hash: hash.Hex(), Status: "PENDING"}

	receipt, err := source.TransactionReceipt(ctx, hash)
	if errors.Is(err, ethereum.NotFound) {
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("failed to fetch receipt: %w", err)
	}

	status.Status = "REVERTED"
	if receipt.Status == ethtypes.ReceiptStatusSuccessful {
		status.Status = "CONFIRMED"
	}
	if receipt.BlockNumber != nil {
		status.BlockNumber = receipt.BlockNumber.Uint64()
	}
	status.GasUsed = receipt.GasUsed
	return status, nil
}

func checkTxStatus(ctx context.Context, source chain.ReceiptSource, hash common.Hash, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := fetchTxStatus(ctx, source, hash)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		printJSON(status)
	} else {
		displayStatus(status)
	}
}

func watchTxStatus(ctx context.Context, source chain.ReceiptSource, hash common.Hash, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(hash.Hex()))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	if checkAndDisplayStatus(ctx, source, hash) {
		return
	}

	// Then check periodically until the transaction is included
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if checkAndDisplayStatus(ctx, source, hash) {
				return
			}
		}
	}
}

func checkAndDisplayStatus(ctx context.Context, source chain.ReceiptSource, hash common.Hash) bool {
	status, err := fetchTxStatus(ctx, source, hash)
	if err != nil {
		color.Red("Error: %v", err)
		return false
	}

	displayStatus(status)
	return status.final()
}

func displayStatus(status txStatus) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Transaction:     %s\n", color.CyanString(status.Hash))
	fmt.Printf("  Status:          %s\n", getColoredStatus(status.Status))
	if status.BlockNumber > 0 {
		fmt.Printf("  Block:           %d\n", status.BlockNumber)
		fmt.Printf("  Gas Used:        %d\n", status.GasUsed)
	}

	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func getColoredStatus(status string) string {
	status = strings.ToUpper(status)

	switch status {
	case "CONFIRMED":
		return color.GreenString(status)
	case "PENDING", "SUBMITTED":
		return color.YellowString(status)
	case "FAILED", "REVERTED":
		return color.RedString(status)
	case "REJECTED":
		return color.MagentaString(status)
	default:
		return status
	}
}
