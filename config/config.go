package config

import (
	"fmt"
	"math/big"
	"os"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/viper"

	"base-swap/pkg/amount"
	"base-swap/pkg/history"
	"base-swap/pkg/slippage"
	"base-swap/pkg/swap"
	"base-swap/pkg/types"
)

// Base mainnet deployment
const (
	DefaultRPCURL  = "https://mainnet.base.org"
	DefaultChainID = 8453
	DefaultRouter  = "0x2626664c2603336E57B271c5C0b26F421741e481" // Uniswap V3 SwapRouter02
	DefaultQuoter  = "0x3d4e44Eb1374240CE5F1B871ab261CD16335B76a" // Uniswap V3 QuoterV2
	DefaultWETH    = "0x4200000000000000000000000000000000000006"
	DefaultUSDC    = "0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"
)

// Token describes one listed asset
type Token struct {
	Symbol   string
	Name     string
	Address  string // empty for the native asset
	Decimals uint8
	Minimum  string // smallest accepted swap input, empty for none
	Native   bool
	Tradable bool
}

// Asset converts the token to the engine's asset type
func (t Token) Asset() types.Asset {
	if t.Native {
		return types.Asset{Symbol: t.Symbol, Kind: types.Native, Decimals: t.Decimals}
	}
	return types.Asset{Symbol: t.Symbol, Kind: types.Custodial, Address: common.HexToAddress(t.Address), Decimals: t.Decimals}
}

// Config holds the application configuration
type Config struct {
	RPCURL     string
	ChainID    int64
	PrivateKey string

	Router  string
	Quoter  string
	WETH    string
	USDC    string
	FeeTier uint32

	Slippage         string // percent
	DeadlineWindow   time.Duration
	DeadlineGrace    time.Duration
	PollInterval     time.Duration
	GrantTimeout     time.Duration
	InfiniteApproval bool
	GasLimit         uint64 // 0 means estimate
	GasPriceGwei     string // empty means ask the node

	HistoryFile string
	DatabaseURL string

	ListenAddr  string
	MetricsAddr string
	CORSOrigins []string

	BalanceInterval time.Duration
	LogLevel        string
}

var globalConfig *Config

func setDefaults(v *viper.Viper) {
	v.SetDefault("rpc_url", DefaultRPCURL)
	v.SetDefault("chain_id", DefaultChainID)
	v.SetDefault("router", DefaultRouter)
	v.SetDefault("quoter", DefaultQuoter)
	v.SetDefault("weth", DefaultWETH)
	v.SetDefault("usdc", DefaultUSDC)
	v.SetDefault("fee_tier", 500)
	v.SetDefault("slippage", "0.5")
	v.SetDefault("deadline_window", swap.DefaultDeadlineWindow)
	v.SetDefault("deadline_grace", swap.DefaultDeadlineGrace)
	v.SetDefault("poll_interval", swap.DefaultPollInterval)
	v.SetDefault("grant_timeout", 3*time.Minute)
	v.SetDefault("infinite_approval", false)
	v.SetDefault("listen_addr", ":5000")
	v.SetDefault("cors_origins", []string{"*"})
	v.SetDefault("balance_interval", 5*time.Second)
	v.SetDefault("log_level", "info")
}

// Load reads configuration from environment variables and config file
func Load() (*Config, error) {
	viper.SetConfigName(".base-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	// Read from environment variables
	viper.SetEnvPrefix("BASE_SWAP")
	viper.AutomaticEnv()

	// Read config file (optional)
	_ = viper.ReadInConfig()

	cfg, err := fromViper(viper.GetViper())
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func fromViper(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	cfg := &Config{
		RPCURL:           v.GetString("rpc_url"),
		ChainID:          v.GetInt64("chain_id"),
		PrivateKey:       v.GetString("private_key"),
		Router:           v.GetString("router"),
		Quoter:           v.GetString("quoter"),
		WETH:             v.GetString("weth"),
		USDC:             v.GetString("usdc"),
		FeeTier:          v.GetUint32("fee_tier"),
		Slippage:         v.GetString("slippage"),
		DeadlineWindow:   v.GetDuration("deadline_window"),
		DeadlineGrace:    v.GetDuration("deadline_grace"),
		PollInterval:     v.GetDuration("poll_interval"),
		GrantTimeout:     v.GetDuration("grant_timeout"),
		InfiniteApproval: v.GetBool("infinite_approval"),
		GasLimit:         v.GetUint64("gas_limit"),
		GasPriceGwei:     v.GetString("gas_price_gwei"),
		HistoryFile:      v.GetString("history_file"),
		DatabaseURL:      v.GetString("database_url"),
		ListenAddr:       v.GetString("listen_addr"),
		MetricsAddr:      v.GetString("metrics_addr"),
		CORSOrigins:      v.GetStringSlice("cors_origins"),
		BalanceInterval:  v.GetDuration("balance_interval"),
		LogLevel:         v.GetString("log_level"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks addresses, the fee tier and the default slippage. The
// private key is checked only when a command needs to sign.
func (c *Config) Validate() error {
	if c.RPCURL == "" {
		return fmt.Errorf("RPC URL not configured. Set BASE_SWAP_RPC_URL or rpc_url in .base-swap.yaml")
	}
	if c.ChainID <= 0 {
		return fmt.Errorf("invalid chain id %d", c.ChainID)
	}

	addresses := map[string]string{
		"router": c.Router,
		"quoter": c.Quoter,
		"weth":   c.WETH,
		"usdc":   c.USDC,
	}
	for name, value := range addresses {
		if !common.IsHexAddress(value) {
			return fmt.Errorf("invalid %s address %q", name, value)
		}
	}

	switch c.FeeTier {
	case 100, 500, 3000, 10000:
	default:
		return fmt.Errorf("unsupported fee tier %d", c.FeeTier)
	}

	if _, err := slippage.FromPercent(c.Slippage); err != nil {
		return fmt.Errorf("invalid default slippage %q: %w", c.Slippage, err)
	}
	if _, err := c.GasPrice(); err != nil {
		return err
	}
	return nil
}

// GasPrice returns the pinned gas price in wei, or nil to use the node's suggestion
func (c *Config) GasPrice() (*big.Int, error) {
	if c.GasPriceGwei == "" {
		return nil, nil
	}
	price, err := amount.Parse(c.GasPriceGwei, 9)
	if err != nil || price.Sign() == 0 {
		return nil, fmt.Errorf("invalid gas price %q gwei", c.GasPriceGwei)
	}
	return price, nil
}

// Tokens returns the listed assets: the native asset, USDC and the wrapped
// native token, which is listed but not tradable.
func (c *Config) Tokens() []Token {
	return []Token{
		{Symbol: "ETH", Name: "Ethereum", Decimals: 18, Minimum: "0.0001", Native: true, Tradable: true},
		{Symbol: "USDC", Name: "USD Coin", Address: c.USDC, Decimals: 6, Minimum: "0.01", Tradable: true},
		{Symbol: "WETH", Name: "Wrapped Ether", Address: c.WETH, Decimals: 18},
	}
}

// Token looks up a listed token by symbol
func (c *Config) Token(symbol string) (Token, bool) {
	for _, t := range c.Tokens() {
		if strings.EqualFold(t.Symbol, symbol) {
			return t, true
		}
	}
	return Token{}, false
}

// Engine builds the swap engine configuration: every tradable token is
// paired with the native asset in both directions.
func (c *Config) Engine() swap.Config {
	var native Token
	var tradable []Token
	minimums := make(map[string]string)
	for _, t := range c.Tokens() {
		if !t.Tradable {
			continue
		}
		if t.Minimum != "" {
			minimums[t.Symbol] = t.Minimum
		}
		if t.Native {
			native = t
		} else {
			tradable = append(tradable, t)
		}
	}

	var pairs []swap.Pair
	for _, t := range tradable {
		pairs = append(pairs,
			swap.Pair{From: native.Asset(), To: t.Asset(), FeeTier: c.FeeTier},
			swap.Pair{From: t.Asset(), To: native.Asset(), FeeTier: c.FeeTier},
		)
	}

	return swap.Config{
		Router:         common.HexToAddress(c.Router),
		WETH:           common.HexToAddress(c.WETH),
		Pairs:          pairs,
		Minimums:       minimums,
		DeadlineWindow: c.DeadlineWindow,
		DeadlineGrace:  c.DeadlineGrace,
		PollInterval:   c.PollInterval,
	}
}

// HistoryTokens is the token list served to clients
func (c *Config) HistoryTokens() []history.Token {
	var tokens []history.Token
	for _, t := range c.Tokens() {
		address := t.Address
		if t.Native {
			address = common.Address{}.Hex()
		}
		tokens = append(tokens, history.Token{
			Symbol:   t.Symbol,
			Name:     t.Name,
			Address:  address,
			Decimals: int(t.Decimals),
		})
	}
	return tokens
}

// Get returns the global configuration
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration
func Set(cfg *Config) {
	globalConfig = cfg
}
