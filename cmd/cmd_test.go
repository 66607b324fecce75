package cmd

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-swap/config"
	"base-swap/pkg/chain/stub"
	"base-swap/pkg/history"
	"base-swap/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		ChainID:  config.DefaultChainID,
		Router:   config.DefaultRouter,
		Quoter:   config.DefaultQuoter,
		WETH:     config.DefaultWETH,
		USDC:     config.DefaultUSDC,
		FeeTier:  500,
		Slippage: "0.5",
	}
}

func TestParseRequest(t *testing.T) {
	cfg := testConfig()

	req, err := parseRequest(cfg, []string{"0.1", "eth", "to", "usdc"}, "")
	require.NoError(t, err)
	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "0.1", req.Amount)
	assert.Equal(t, types.Native, req.From.Kind)
	assert.Equal(t, common.HexToAddress(config.DefaultUSDC), req.To.Address)
	assert.Equal(t, uint8(6), req.To.Decimals)
	assert.Equal(t, uint32(50), req.SlippageBps)

	req, err = parseRequest(cfg, []string{"25", "USDC", "for", "ETH"}, "1")
	require.NoError(t, err)
	assert.Equal(t, uint32(100), req.SlippageBps)
	assert.True(t, req.To.IsNative())
}

func TestParseRequestErrors(t *testing.T) {
	cfg := testConfig()

	tests := []struct {
		name    string
		args    []string
		percent string
	}{
		{"bad syntax", []string{"ETH", "to", "USDC"}, ""},
		{"same token", []string{"1", "ETH", "to", "ETH"}, ""},
		{"unknown token", []string{"1", "DAI", "to", "ETH"}, ""},
		{"bad slippage", []string{"1", "ETH", "to", "USDC"}, "100"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseRequest(cfg, tt.args, tt.percent)
			assert.Error(t, err)
		})
	}
}

func TestResolveWallet(t *testing.T) {
	cfg := testConfig()

	addr, err := resolveWallet(cfg, "0x00000000000000000000000000000000000000aa")
	require.NoError(t, err)
	assert.Equal(t, common.HexToAddress("0xaa"), addr)

	_, err = resolveWallet(cfg, "not-an-address")
	assert.Error(t, err)

	_, err = resolveWallet(cfg, "")
	assert.Error(t, err, "no address and no key")

	cfg.PrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"
	addr, err = resolveWallet(cfg, "")
	require.NoError(t, err)
	assert.NotEqual(t, common.Address{}, addr)
}

func TestFetchTxStatus(t *testing.T) {
	backend := stub.NewBackend(config.DefaultChainID)
	hash := common.HexToHash("0x01")

	status, err := fetchTxStatus(t.Context(), backend, hash)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", status.Status)
	assert.False(t, status.final())

	backend.SetReceipt(hash, &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusFailed,
		BlockNumber: big.NewInt(42),
		GasUsed:     21000,
	})
	status, err = fetchTxStatus(t.Context(), backend, hash)
	require.NoError(t, err)
	assert.Equal(t, "REVERTED", status.Status)
	assert.Equal(t, uint64(42), status.BlockNumber)
	assert.True(t, status.final())

	backend.SetReceipt(hash, &ethtypes.Receipt{
		Status:      ethtypes.ReceiptStatusSuccessful,
		BlockNumber: big.NewInt(43),
	})
	status, err = fetchTxStatus(t.Context(), backend, hash)
	require.NoError(t, err)
	assert.Equal(t, "CONFIRMED", status.Status)
}

func TestListTokens(t *testing.T) {
	cfg := testConfig()

	tokens, err := listTokens(cfg, "")
	require.NoError(t, err)
	require.Len(t, tokens, 3)

	eth := tokens[0]
	assert.Equal(t, "ETH", eth.Symbol)
	assert.Equal(t, "0.0001", eth.Minimum)
	assert.Equal(t, []string{"USDC"}, eth.SwapsTo)
	assert.True(t, eth.Tradable)

	usdc := tokens[1]
	assert.Equal(t, "0.01", usdc.Minimum)
	assert.Equal(t, []string{"ETH"}, usdc.SwapsTo)

	weth := tokens[2]
	assert.Equal(t, "WETH", weth.Symbol)
	assert.False(t, weth.Tradable)
	assert.Empty(t, weth.Minimum)
	assert.Empty(t, weth.SwapsTo)

	tokens, err = listTokens(cfg, "usd")
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "USDC", tokens[0].Symbol)
}

func TestHistorySource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	store, err := history.NewFileStore(path, nil)
	require.NoError(t, err)

	assert.Equal(t, path, historySource(store))
}
