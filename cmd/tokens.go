package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"base-swap/config"
	"base-swap/pkg/amount"
	"base-swap/pkg/swap"
)

var filterSymbol string

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List the supported tokens",
	Long: `List the tokens known on Base. WETH is listed for reference; swaps use
native ETH and wrap or unwrap it in the router.

Examples:
  base-swap list-tokens
  base-swap list-tokens --symbol USDC`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
}

type tokenView struct {
	Symbol   string   `json:"symbol"`
	Name     string   `json:"name"`
	Address  string   `json:"address,omitempty"`
	Decimals uint8    `json:"decimals"`
	Minimum  string   `json:"minimum,omitempty"`
	Native   bool     `json:"native"`
	Tradable bool     `json:"tradable"`
	SwapsTo  []string `json:"swapsTo,omitempty"`
}

// listTokens describes the listed tokens as the engine sees them: the
// minimum input it enforces and the assets each token can be swapped to
func listTokens(cfg *config.Config, symbol string) ([]tokenView, error) {
	engine, err := swap.New(cfg.Engine(), nil, nil, nil, nil, zerolog.Nop())
	if err != nil {
		return nil, err
	}

	var views []tokenView
	for _, t := range cfg.Tokens() {
		if symbol != "" && !strings.Contains(strings.ToUpper(t.Symbol), strings.ToUpper(symbol)) {
			continue
		}
		asset := t.Asset()
		view := tokenView{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Address:  t.Address,
			Decimals: t.Decimals,
			Native:   t.Native,
		}
		if m := engine.Minimum(asset); m != nil {
			view.Minimum = amount.Format(m, t.Decimals)
		}
		for _, p := range engine.Pairs() {
			if p.From.Equal(asset) {
				view.SwapsTo = append(view.SwapsTo, p.To.Symbol)
			}
		}
		view.Tradable = len(view.SwapsTo) > 0
		views = append(views, view)
	}
	return views, nil
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	filtered, err := listTokens(cfg, filterSymbol)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Output
	if jsonOutput {
		printJSON(filtered)
	} else {
		displayTokens(filtered)
	}
}

func displayTokens(tokens []tokenView) {
	if len(tokens) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            SUPPORTED TOKENS")
	fmt.Println(strings.Repeat("=", 90))
	color.Cyan("\nBASE")
	fmt.Println(strings.Repeat("-", 90))

	for _, token := range tokens {
		address := token.Address
		if token.Native {
			address = "native"
		}

		note := ""
		if !token.Tradable {
			note = color.HiBlackString("  (not swappable)")
		} else {
			note = fmt.Sprintf("  -> %s", strings.Join(token.SwapsTo, ", "))
			if token.Minimum != "" {
				note += fmt.Sprintf("  min %s", token.Minimum)
			}
		}

		fmt.Printf("  %-10s  %2d decimals  %s%s\n",
			color.YellowString(token.Symbol),
			token.Decimals,
			color.HiBlackString(address),
			note)
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", len(tokens))
}
