package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

var (
	// ErrSimulation means the node refused to estimate gas, usually because the call reverts
	ErrSimulation = errors.New("transaction simulation failed")
	// ErrBroadcast means the signed transaction was not accepted by the node
	ErrBroadcast = errors.New("failed to send transaction")
	// ErrWaitExpired means no receipt appeared before the wait limit
	ErrWaitExpired = errors.New("transaction not included before wait limit")
	// ErrWrongChain means the signer produced a transaction for another network
	ErrWrongChain = errors.New("transaction signed for the wrong chain")
)

// SimulationError carries the revert payload of a failed gas estimate
type SimulationError struct {
	Data []byte
	Err  error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("%v: %v", ErrSimulation, e.Err)
}

func (e *SimulationError) Unwrap() []error {
	return []error{ErrSimulation, e.Err}
}

// TxRequest is an unsigned call to submit
type TxRequest struct {
	To    common.Address
	Value *big.Int
	Data  []byte
	Label string
}

// Transactor fills in nonce, gas and chain parameters, gets the signature and broadcasts
type Transactor struct {
	backend  Broadcaster
	signer   Signer
	chainID  *big.Int
	gasPrice *big.Int // nil means ask the node
	gasLimit uint64   // 0 means estimate
}

// NewTransactor creates a transactor for one signer
func NewTransactor(backend Broadcaster, signer Signer, chainID *big.Int) *Transactor {
	return &Transactor{backend: backend, signer: signer, chainID: chainID}
}

// WithGasPrice pins the gas price instead of asking the node
func (t *Transactor) WithGasPrice(price *big.Int) *Transactor {
	t.gasPrice = price
	return t
}

// WithGasLimit pins the gas limit instead of estimating
func (t *Transactor) WithGasLimit(limit uint64) *Transactor {
	t.gasLimit = limit
	return t
}

// From is the address transactions are sent from
func (t *Transactor) From() common.Address {
	return t.signer.Address()
}

// Send builds, signs and broadcasts the request. ErrDeclined is returned
// unchanged when the signer refuses; nothing has been broadcast in that case.
func (t *Transactor) Send(ctx context.Context, req TxRequest) (common.Hash, error) {
	from := t.signer.Address()
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit := t.gasLimit
	if gasLimit == 0 {
		estimated, err := t.backend.EstimateGas(ctx, ethereum.CallMsg{
			From:  from,
			To:    &req.To,
			Value: value,
			Data:  req.Data,
		})
		if err != nil {
			return common.Hash{}, &SimulationError{Data: RevertData(err), Err: err}
		}
		gasLimit = estimated * 120 / 100 // Add 20% buffer
	}

	nonce, err := t.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return common.Hash{}, fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice := t.gasPrice
	if gasPrice == nil {
		gasPrice, err = t.backend.SuggestGasPrice(ctx)
		if err != nil {
			return common.Hash{}, fmt.Errorf("failed to get gas price: %w", err)
		}
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &req.To,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     req.Data,
	})

	signed, err := t.signer.SignTx(WithLabel(ctx, req.Label), tx)
	if err != nil {
		return common.Hash{}, err
	}
	if t.chainID != nil && signed.ChainId().Cmp(t.chainID) != 0 {
		return common.Hash{}, fmt.Errorf("%w: got %s, want %s", ErrWrongChain, signed.ChainId(), t.chainID)
	}

	if err := t.backend.SendTransaction(ctx, signed); err != nil {
		return common.Hash{}, fmt.Errorf("%w: %w", ErrBroadcast, err)
	}
	return signed.Hash(), nil
}

// Waiter polls for a receipt until it appears or a wall-clock limit passes
type Waiter struct {
	Source   ReceiptSource
	Interval time.Duration
	Now      func() time.Time
}

// NewWaiter creates a waiter polling every interval
func NewWaiter(source ReceiptSource, interval time.Duration) *Waiter {
	return &Waiter{Source: source, Interval: interval, Now: time.Now}
}

// Wait returns the receipt of hash, or ErrWaitExpired once until has passed
// without one. Transient RPC errors are retried on the next tick. Receipt
// calls share the remaining time, so a node that never answers cannot hold
// the wait past until.
func (w *Waiter) Wait(ctx context.Context, hash common.Hash, until time.Time) (*types.Receipt, error) {
	limit := until.Sub(w.Now())
	if limit < 0 {
		limit = 0
	}
	waitCtx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	var lastErr error
	expired := func() error {
		if lastErr != nil {
			return fmt.Errorf("%w (last error: %v)", ErrWaitExpired, lastErr)
		}
		return ErrWaitExpired
	}

	for {
		receipt, err := w.Source.TransactionReceipt(waitCtx, hash)
		if err == nil && receipt != nil {
			return receipt, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil && !errors.Is(err, ethereum.NotFound) && waitCtx.Err() == nil {
			lastErr = err
		}

		if waitCtx.Err() != nil || !w.Now().Before(until) {
			return nil, expired()
		}

		select {
		case <-waitCtx.Done():
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, expired()
		case <-time.After(w.Interval):
		}
	}
}
