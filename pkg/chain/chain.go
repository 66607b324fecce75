// Package chain holds the narrow interfaces the swap engine needs from an EVM
// node and a wallet, together with their go-ethereum implementations.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// Reader performs read-only state queries and simulated calls
type Reader interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	BalanceAt(ctx context.Context, account common.Address, blockNumber *big.Int) (*big.Int, error)
}

// Broadcaster prepares and broadcasts transactions
type Broadcaster interface {
	ChainID(ctx context.Context) (*big.Int, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, msg ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
}

// ReceiptSource reports transaction inclusion. It returns ethereum.NotFound
// while the transaction is pending.
type ReceiptSource interface {
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

// Backend is everything a node connection provides
type Backend interface {
	Reader
	Broadcaster
	ReceiptSource
}

var _ Backend = (*ethclient.Client)(nil)

// Dial connects to the RPC endpoint
func Dial(ctx context.Context, rpcURL string) (*ethclient.Client, error) {
	if rpcURL == "" {
		return nil, fmt.Errorf("RPC URL not configured")
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}
	return client, nil
}

// VerifyChainID fails unless the node serves the expected chain
func VerifyChainID(ctx context.Context, b Broadcaster, expected int64) error {
	id, err := b.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("failed to get chain id: %w", err)
	}
	if id.Cmp(big.NewInt(expected)) != 0 {
		return fmt.Errorf("connected to chain %s, expected %d", id, expected)
	}
	return nil
}

// RevertData extracts the ABI-encoded revert payload carried by a JSON-RPC
// error from eth_call or eth_estimateGas, if any.
func RevertData(err error) []byte {
	var de rpc.DataError
	if !errors.As(err, &de) {
		return nil
	}
	s, ok := de.ErrorData().(string)
	if !ok {
		return nil
	}
	data, decodeErr := hexutil.Decode(s)
	if decodeErr != nil {
		return nil
	}
	return data
}
