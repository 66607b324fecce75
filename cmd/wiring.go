package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"base-swap/config"
	"base-swap/pkg/chain"
	"base-swap/pkg/history"
	"base-swap/pkg/history/postgres"
	"base-swap/pkg/types"
)

// signalContext is cancelled on Ctrl+C or SIGTERM
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// dialNode connects to the RPC endpoint and refuses to continue on the wrong network
func dialNode(ctx context.Context, cfg *config.Config) (*ethclient.Client, error) {
	client, err := chain.Dial(ctx, cfg.RPCURL)
	if err != nil {
		return nil, err
	}
	if err := chain.VerifyChainID(ctx, client, cfg.ChainID); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// resolveWallet returns addr when given, else the address of the configured key
func resolveWallet(cfg *config.Config, addr string) (common.Address, error) {
	if addr != "" {
		if !common.IsHexAddress(addr) {
			return common.Address{}, fmt.Errorf("invalid wallet address %q", addr)
		}
		return common.HexToAddress(addr), nil
	}
	signer, err := chain.NewKeySigner(cfg.PrivateKey, big.NewInt(cfg.ChainID))
	if err != nil {
		return common.Address{}, fmt.Errorf("no wallet given and %w", err)
	}
	return signer.Address(), nil
}

// resolvePair maps command symbols to configured assets
func resolvePair(cfg *config.Config, from, to string) (types.Asset, types.Asset, error) {
	fromToken, ok := cfg.Token(from)
	if !ok {
		return types.Asset{}, types.Asset{}, fmt.Errorf("unknown token %s (try: base-swap tokens)", from)
	}
	toToken, ok := cfg.Token(to)
	if !ok {
		return types.Asset{}, types.Asset{}, fmt.Errorf("unknown token %s (try: base-swap tokens)", to)
	}
	return fromToken.Asset(), toToken.Asset(), nil
}

// openHistory returns the PostgreSQL store when a database URL is configured,
// else the JSON file store
func openHistory(ctx context.Context, cfg *config.Config, log zerolog.Logger) (history.Store, error) {
	if cfg.DatabaseURL == "" {
		return history.NewFileStore(cfg.HistoryFile, cfg.HistoryTokens())
	}

	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	store := postgres.NewStore(pool)
	if err := store.SeedTokens(ctx, cfg.HistoryTokens()); err != nil {
		pool.Close()
		return nil, err
	}
	log.Debug().Msg("Using PostgreSQL history store")
	return store, nil
}

func printJSON(v interface{}) {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(jsonData))
}
