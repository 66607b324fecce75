package cmd

import (
	"bufio"
	"context"
	"fmt"
	"math/big"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"base-swap/config"
	"base-swap/pkg/allowance"
	"base-swap/pkg/amount"
	"base-swap/pkg/chain"
	"base-swap/pkg/metrics"
	"base-swap/pkg/parser"
	"base-swap/pkg/quote"
	"base-swap/pkg/report"
	"base-swap/pkg/slippage"
	"base-swap/pkg/swap"
	"base-swap/pkg/types"
)

var (
	slippagePercent string
	noConfirm       bool
	infinite        bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <source-token> to <dest-token>",
	Short: "Swap ETH and USDC on Base",
	Long: `Swap between native ETH and USDC through the Uniswap V3 router on Base.

The swap is quoted first, then sent with a minimum output derived from the
slippage tolerance and a deadline. Swapping USDC first grants the router an
allowance for the exact amount unless --infinite-approval is set.

Every transaction is shown for approval before it is signed unless --yes is given.

Examples:
  base-swap swap 0.1 ETH to USDC
  base-swap swap 25 USDC to ETH --slippage 1
  base-swap swap 25 USDC to ETH --yes --json`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().StringVarP(&slippagePercent, "slippage", "s", "", "Slippage tolerance in percent (default from config, 0.5)")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Sign without asking for confirmation")
	swapCmd.Flags().BoolVar(&infinite, "infinite-approval", false, "Approve the maximum amount instead of the exact swap input")
}

// parseRequest turns command arguments into a swap request without an owner
func parseRequest(cfg *config.Config, args []string, percent string) (types.SwapRequest, error) {
	command, err := parser.ParseArgs(args)
	if err != nil {
		return types.SwapRequest{}, err
	}
	if err := command.Validate(); err != nil {
		return types.SwapRequest{}, err
	}

	from, to, err := resolvePair(cfg, command.From, command.To)
	if err != nil {
		return types.SwapRequest{}, err
	}

	if percent == "" {
		percent = cfg.Slippage
	}
	bps, err := slippage.FromPercent(percent)
	if err != nil {
		return types.SwapRequest{}, fmt.Errorf("invalid slippage %q: %w", percent, err)
	}

	return types.SwapRequest{
		ID:          uuid.New().String(),
		From:        from,
		To:          to,
		Amount:      command.Amount,
		SlippageBps: bps,
	}, nil
}

func runSwap(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	log := newLogger(cmd, cfg)

	req, err := parseRequest(cfg, args, slippagePercent)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx, cancel := signalContext()
	defer cancel()

	if cfg.MetricsAddr != "" {
		srv := metrics.Serve(cfg.MetricsAddr)
		defer srv.Close()
	}

	client, err := dialNode(ctx, cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	defer client.Close()

	chainID := big.NewInt(cfg.ChainID)
	keySigner, err := chain.NewKeySigner(cfg.PrivateKey, chainID)
	if err != nil {
		printError(fmt.Errorf("%w. Set BASE_SWAP_PRIVATE_KEY or private_key in .base-swap.yaml", err))
		os.Exit(1)
	}

	progress := newProgress(!jsonOutput)
	var signer chain.Signer = keySigner
	if !noConfirm {
		if jsonOutput {
			printError(fmt.Errorf("--json requires --yes"))
			os.Exit(1)
		}
		signer = chain.NewConfirmingSigner(keySigner, progress.confirm)
	}

	gasPrice, err := cfg.GasPrice()
	if err != nil {
		printError(err)
		os.Exit(1)
	}
	transactor := chain.NewTransactor(client, signer, chainID).
		WithGasLimit(cfg.GasLimit).
		WithGasPrice(gasPrice)
	req.Owner = transactor.From()

	engine, err := newEngine(cfg, client, transactor, log, progress)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Show the bounds before anything is signed
	progress.start(" Fetching quote...")
	bounds, kind := engine.Preview(ctx, req)
	progress.stop()
	if kind != types.KindNone {
		failed := report.FromOutcome(req, types.Outcome{Status: types.OutcomeFailed, State: types.StateIdle, Kind: kind})
		displayResult(failed, jsonOutput)
		os.Exit(1)
	}
	if !jsonOutput {
		displayQuote(req, bounds)
	}

	out := engine.Execute(ctx, req)
	progress.stop()

	result := report.FromOutcome(req, out)
	recordResult(ctx, cfg, log, result)
	displayResult(result, jsonOutput)

	if !result.Success {
		os.Exit(1)
	}
}

func newEngine(cfg *config.Config, client chain.Backend, transactor *chain.Transactor, log zerolog.Logger, observer swap.Observer) (*swap.Engine, error) {
	quoter := metrics.TimedQuoter{
		Next: quote.NewClient(client, common.HexToAddress(cfg.Quoter), common.HexToAddress(cfg.WETH)),
	}

	var allowances swap.Allowances
	var sender swap.Sender
	if transactor != nil {
		allowances = allowance.NewManager(client, transactor, chain.NewWaiter(client, cfg.PollInterval), allowance.Config{
			Infinite:     cfg.InfiniteApproval || infinite,
			GrantTimeout: cfg.GrantTimeout,
		}, log)
		sender = transactor
	}

	return swap.New(cfg.Engine(), quoter, allowances, sender, client, log,
		swap.WithObserver(swap.MultiObserver(observer, metrics.Observer{})),
	)
}

// recordResult offers the result to the history store. Storage failures are
// logged and never change the outcome shown to the user.
func recordResult(ctx context.Context, cfg *config.Config, log zerolog.Logger, result report.Result) {
	if !report.Recordable(result) {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()

	store, err := openHistory(ctx, cfg, log)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to open history store")
		return
	}
	defer store.Close()

	if _, err := store.Insert(ctx, report.ToRecord(result)); err != nil {
		log.Warn().Err(err).Str("tx", result.TxHash).Msg("Failed to record transaction")
	}
}

var stateMessages = map[types.State]string{
	types.StateQuoting:              " Fetching quote...",
	types.StateBoundsComputed:       " Computing minimum output...",
	types.StateAllowanceCheck:       " Checking token allowance...",
	types.StateSubmitting:           " Sending swap...",
	types.StateAwaitingConfirmation: " Waiting for confirmation...",
}

// progress drives the spinner from engine transitions and pauses it while
// the user is asked to sign
type progress struct {
	enabled bool
	mu      sync.Mutex
	s       *spinner.Spinner
	reader  *bufio.Reader
}

func newProgress(enabled bool) *progress {
	return &progress{
		enabled: enabled,
		s:       spinner.New(spinner.CharSets[14], 100*time.Millisecond),
		reader:  bufio.NewReader(os.Stdin),
	}
}

func (p *progress) start(suffix string) {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.Lock()
	p.s.Suffix = suffix
	p.s.Unlock()
	p.s.Start()
}

func (p *progress) stop() {
	if !p.enabled {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.s.Stop()
}

func (p *progress) OnTransition(t swap.Transition) {
	if t.To == types.StateAwaitingConfirmation && p.enabled {
		p.stop()
		fmt.Printf("\n  Transaction: %s\n", color.CyanString(t.Outcome.TxHash.Hex()))
	}
	if msg, ok := stateMessages[t.To]; ok {
		p.start(msg)
		return
	}
	p.stop()
}

func (p *progress) OnOutcome(types.SwapRequest, types.Outcome) {
	p.stop()
}

// confirm is the wallet prompt shown before each signature
func (p *progress) confirm(_ context.Context, label string, tx *ethtypes.Transaction) bool {
	p.stop()

	fmt.Printf("\n  Sign %s\n", color.YellowString(label))
	fmt.Printf("  To:      %s\n", tx.To().Hex())
	if tx.Value().Sign() > 0 {
		fmt.Printf("  Value:   %s ETH\n", amount.Format(tx.Value(), 18))
	}
	fee := new(big.Int).Mul(tx.GasPrice(), new(big.Int).SetUint64(tx.Gas()))
	fmt.Printf("  Max fee: %s ETH\n", amount.Format(fee, 18))
	fmt.Print("\nProceed? (y/N): ")

	response, err := p.reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func displayQuote(req types.SwapRequest, bounds *types.SwapBounds) {
	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:              %s %s\n", amount.Format(bounds.AmountIn, req.From.Decimals), color.YellowString(req.From.String()))
	fmt.Printf("  To:                ~%s %s\n", amount.Format(bounds.ExpectedOut, req.To.Decimals), color.YellowString(req.To.String()))
	fmt.Printf("  Minimum Received:  %s %s\n", amount.Format(bounds.MinimumOut, req.To.Decimals), color.YellowString(req.To.String()))
	fmt.Printf("  Slippage:          %s%%\n", slippage.Percent(req.SlippageBps))
	fmt.Printf("  Wallet:            %s\n", color.CyanString(req.Owner.Hex()))
	fmt.Println(color.HiBlackString("\n  Indicative. The swap is quoted again before signing and the"))
	fmt.Println(color.HiBlackString("  signature prompt shows the minimum that is actually sent."))

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func displayResult(r report.Result, jsonOutput bool) {
	if jsonOutput {
		printJSON(r)
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	if r.Success {
		color.Green("                    SWAP CONFIRMED")
	} else {
		color.Red("                     SWAP FAILED")
	}
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  Status:            %s\n", getColoredStatus(string(r.Status)))
	fmt.Printf("  Sent:              %s %s\n", r.Amounts.In, color.YellowString(r.From))
	if r.Amounts.ActualOut != "" {
		fmt.Printf("  Received:          %s %s\n", r.Amounts.ActualOut, color.YellowString(r.To))
	} else if r.Amounts.ExpectedOut != "" {
		fmt.Printf("  Expected:          ~%s %s\n", r.Amounts.ExpectedOut, color.YellowString(r.To))
	}
	if r.TxHash != "" {
		fmt.Printf("  Transaction:       %s\n", color.HiBlackString(r.TxHash))
	}
	if r.Message != "" {
		fmt.Printf("\n  %s\n", color.RedString(r.Message))
	}

	fmt.Println("\n" + strings.Repeat("=", 60))

	if r.TxHash != "" {
		fmt.Println("\nYou can check the transaction using:")
		color.Cyan("  base-swap status %s\n", r.TxHash)
	}
	fmt.Println()
}
