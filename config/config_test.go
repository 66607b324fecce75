package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-swap/pkg/types"
)

func TestDefaults(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DefaultRPCURL, cfg.RPCURL)
	assert.Equal(t, int64(8453), cfg.ChainID)
	assert.Equal(t, uint32(500), cfg.FeeTier)
	assert.Equal(t, "0.5", cfg.Slippage)
	assert.Equal(t, 20*time.Minute, cfg.DeadlineWindow)
	assert.Zero(t, cfg.DeadlineGrace)
	assert.False(t, cfg.InfiniteApproval)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BASE_SWAP_CHAIN_ID", "84532")
	t.Setenv("BASE_SWAP_DEADLINE_WINDOW", "5m")
	t.Setenv("BASE_SWAP_INFINITE_APPROVAL", "true")

	v := viper.New()
	v.SetEnvPrefix("BASE_SWAP")
	v.AutomaticEnv()

	cfg, err := fromViper(v)
	require.NoError(t, err)
	assert.Equal(t, int64(84532), cfg.ChainID)
	assert.Equal(t, 5*time.Minute, cfg.DeadlineWindow)
	assert.True(t, cfg.InfiniteApproval)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := fromViper(viper.New())
		require.NoError(t, err)
		return cfg
	}

	cfg := base()
	cfg.Router = "not-an-address"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.FeeTier = 123
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.Slippage = "100"
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.RPCURL = ""
	assert.Error(t, cfg.Validate())

	cfg = base()
	cfg.GasPriceGwei = "cheap"
	assert.Error(t, cfg.Validate())
}

func TestGasPrice(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	price, err := cfg.GasPrice()
	require.NoError(t, err)
	assert.Nil(t, price)
	assert.Zero(t, cfg.GasLimit)

	t.Setenv("BASE_SWAP_GAS_PRICE_GWEI", "0.05")
	t.Setenv("BASE_SWAP_GAS_LIMIT", "250000")
	v := viper.New()
	v.SetEnvPrefix("BASE_SWAP")
	v.AutomaticEnv()

	cfg, err = fromViper(v)
	require.NoError(t, err)
	price, err = cfg.GasPrice()
	require.NoError(t, err)
	assert.Equal(t, "50000000", price.String())
	assert.Equal(t, uint64(250000), cfg.GasLimit)

	cfg.GasPriceGwei = "0"
	_, err = cfg.GasPrice()
	assert.Error(t, err)
}

func TestEnginePairs(t *testing.T) {
	cfg, err := fromViper(viper.New())
	require.NoError(t, err)

	engine := cfg.Engine()
	require.Len(t, engine.Pairs, 2)
	assert.Equal(t, types.Native, engine.Pairs[0].From.Kind)
	assert.Equal(t, "USDC", engine.Pairs[0].To.Symbol)
	assert.Equal(t, uint8(6), engine.Pairs[0].To.Decimals)
	assert.Equal(t, "USDC", engine.Pairs[1].From.Symbol)
	assert.Equal(t, map[string]string{"ETH": "0.0001", "USDC": "0.01"}, engine.Minimums)

	weth, ok := cfg.Token("weth")
	require.True(t, ok)
	assert.False(t, weth.Tradable)

	tokens := cfg.HistoryTokens()
	require.Len(t, tokens, 3)
	assert.Equal(t, "0x0000000000000000000000000000000000000000", tokens[0].Address)
}
