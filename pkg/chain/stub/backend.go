// Package stub provides in-memory implementations of the chain interfaces for tests.
package stub

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"

	"base-swap/pkg/chain"
)

// CallHandler answers eth_call requests
type CallHandler func(msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)

// ReceiptFunc decides the receipt of a sent transaction. Returning nil keeps it pending.
type ReceiptFunc func(tx *types.Transaction) *types.Receipt

// Backend implements chain.Backend for testing
type Backend struct {
	mu sync.Mutex

	ID          *big.Int
	GasPrice    *big.Int
	Balances    map[common.Address]*big.Int
	OnCall      CallHandler
	OnReceipt   ReceiptFunc
	EstimateErr error
	SendErr     error

	Calls    []ethereum.CallMsg
	Sent     []*types.Transaction
	Receipts map[common.Hash]*types.Receipt
	nonces   map[common.Address]uint64
}

var _ chain.Backend = (*Backend)(nil)

// NewBackend creates a stub backend for the given chain id
func NewBackend(chainID int64) *Backend {
	return &Backend{
		ID:       big.NewInt(chainID),
		GasPrice: big.NewInt(1000000),
		Balances: make(map[common.Address]*big.Int),
		Receipts: make(map[common.Hash]*types.Receipt),
		nonces:   make(map[common.Address]uint64),
	}
}

func (b *Backend) CallContract(_ context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	b.Calls = append(b.Calls, msg)
	handler := b.OnCall
	b.mu.Unlock()

	if handler == nil {
		return nil, errors.New("no call handler")
	}
	return handler(msg, blockNumber)
}

func (b *Backend) BalanceAt(_ context.Context, account common.Address, _ *big.Int) (*big.Int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if balance, ok := b.Balances[account]; ok {
		return new(big.Int).Set(balance), nil
	}
	return new(big.Int), nil
}

func (b *Backend) ChainID(_ context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.ID), nil
}

func (b *Backend) PendingNonceAt(_ context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.nonces[account], nil
}

func (b *Backend) SuggestGasPrice(_ context.Context) (*big.Int, error) {
	return new(big.Int).Set(b.GasPrice), nil
}

func (b *Backend) EstimateGas(_ context.Context, _ ethereum.CallMsg) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.EstimateErr != nil {
		return 0, b.EstimateErr
	}
	return 150000, nil
}

func (b *Backend) SendTransaction(_ context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.SendErr != nil {
		return b.SendErr
	}

	sender, err := types.Sender(types.LatestSignerForChainID(b.ID), tx)
	if err != nil {
		return err
	}
	b.nonces[sender] = tx.Nonce() + 1
	b.Sent = append(b.Sent, tx)

	if b.OnReceipt != nil {
		if receipt := b.OnReceipt(tx); receipt != nil {
			receipt.TxHash = tx.Hash()
			b.Receipts[tx.Hash()] = receipt
		}
	}
	return nil
}

func (b *Backend) TransactionReceipt(_ context.Context, hash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	receipt, ok := b.Receipts[hash]
	if !ok {
		return nil, ethereum.NotFound
	}
	return receipt, nil
}

// SetBalance sets the native balance of account
func (b *Backend) SetBalance(account common.Address, balance *big.Int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Balances[account] = balance
}

// SetReceipt makes hash confirmed with receipt
func (b *Backend) SetReceipt(hash common.Hash, receipt *types.Receipt) {
	b.mu.Lock()
	defer b.mu.Unlock()
	receipt.TxHash = hash
	b.Receipts[hash] = receipt
}

// SentCount returns the number of broadcast transactions
func (b *Backend) SentCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Sent)
}

// CallCount returns the number of eth_call requests
func (b *Backend) CallCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.Calls)
}

// LastSent returns the most recent broadcast transaction, or nil
func (b *Backend) LastSent() *types.Transaction {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.Sent) == 0 {
		return nil
	}
	return b.Sent[len(b.Sent)-1]
}

// SuccessReceipt is a ReceiptFunc that confirms every transaction
func SuccessReceipt(tx *types.Transaction) *types.Receipt {
	return &types.Receipt{Status: types.ReceiptStatusSuccessful, BlockNumber: big.NewInt(100)}
}

// Signer signs with a throwaway key and can be told to decline
type Signer struct {
	*chain.KeySigner

	mu      sync.Mutex
	Decline func(label string) bool
	Labels  []string
}

// NewSigner generates a key bound to chainID
func NewSigner(chainID int64) *Signer {
	key, err := crypto.GenerateKey()
	if err != nil {
		panic(err)
	}
	return NewSignerFromKey(key, chainID)
}

// NewSignerFromKey wraps a known key
func NewSignerFromKey(key *ecdsa.PrivateKey, chainID int64) *Signer {
	return &Signer{KeySigner: chain.NewKeySignerFromKey(key, big.NewInt(chainID))}
}

func (s *Signer) SignTx(ctx context.Context, tx *types.Transaction) (*types.Transaction, error) {
	label := chain.LabelFrom(ctx)
	s.mu.Lock()
	s.Labels = append(s.Labels, label)
	decline := s.Decline
	s.mu.Unlock()

	if decline != nil && decline(label) {
		return nil, chain.ErrDeclined
	}
	return s.KeySigner.SignTx(ctx, tx)
}
