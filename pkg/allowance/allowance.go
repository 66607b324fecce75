// Package allowance makes sure the swap router may spend a custodial input
// token before a swap is submitted.
package allowance

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"base-swap/pkg/chain"
	"base-swap/pkg/types"
)

var (
	// ErrReadFailed means the current allowance could not be read
	ErrReadFailed = errors.New("failed to read allowance")
	// ErrGrantFailed covers every fault after a grant was found necessary
	ErrGrantFailed = errors.New("allowance grant failed")
	// ErrGrantRejected means the signer declined the approve transaction
	ErrGrantRejected = errors.New("allowance grant rejected by signer")
)

// Sender submits a signed transaction. *chain.Transactor implements it.
type Sender interface {
	From() common.Address
	Send(ctx context.Context, req chain.TxRequest) (common.Hash, error)
}

// ReceiptWaiter blocks until a receipt exists or the limit passes. *chain.Waiter implements it.
type ReceiptWaiter interface {
	Wait(ctx context.Context, hash common.Hash, until time.Time) (*ethtypes.Receipt, error)
}

// Config controls how grants are issued
type Config struct {
	// Infinite approves MaxUint256 instead of the exact required amount
	Infinite bool
	// GrantTimeout bounds the wait for the approve receipt
	GrantTimeout time.Duration
}

// Manager reads and grants ERC20 allowances. It keeps no cache: every call
// reads the chain again.
type Manager struct {
	reader chain.Reader
	sender Sender
	waiter ReceiptWaiter
	cfg    Config
	log    zerolog.Logger
	now    func() time.Time
}

// NewManager creates an allowance manager
func NewManager(reader chain.Reader, sender Sender, waiter ReceiptWaiter, cfg Config, log zerolog.Logger) *Manager {
	if cfg.GrantTimeout <= 0 {
		cfg.GrantTimeout = 3 * time.Minute
	}
	return &Manager{
		reader: reader,
		sender: sender,
		waiter: waiter,
		cfg:    cfg,
		log:    log.With().Str("component", "allowance").Logger(),
		now:    time.Now,
	}
}

// Ensure returns once spender may move at least required of asset on behalf of
// owner, granting the allowance first when the current one is too small.
// Native assets need no allowance and return immediately.
func (m *Manager) Ensure(ctx context.Context, owner, spender common.Address, asset types.Asset, required *big.Int) (*types.AllowanceState, error) {
	state := &types.AllowanceState{Owner: owner, Spender: spender}
	if asset.IsNative() {
		return state, nil
	}
	if required == nil || required.Sign() <= 0 {
		return nil, fmt.Errorf("%w: required amount must be positive", ErrGrantFailed)
	}

	token := chain.NewERC20(m.reader, asset.Address)
	current, err := token.Allowance(ctx, owner, spender)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrReadFailed, err)
	}
	state.Current = current

	if current.Cmp(required) >= 0 {
		m.log.Debug().
			Str("asset", asset.String()).
			Str("current", current.String()).
			Str("required", required.String()).
			Msg("Allowance sufficient, skipping grant")
		return state, nil
	}

	if m.sender.From() != owner {
		return nil, fmt.Errorf("%w: signer %s is not the owner %s", ErrGrantFailed, m.sender.From().Hex(), owner.Hex())
	}

	value := new(big.Int).Set(required)
	if m.cfg.Infinite {
		value = new(big.Int).Set(math.MaxBig256)
	}

	data, err := chain.PackApprove(spender, value)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrGrantFailed, err)
	}

	hash, err := m.sender.Send(ctx, chain.TxRequest{
		To:    asset.Address,
		Data:  data,
		Label: "approve " + asset.String(),
	})
	if err != nil {
		if errors.Is(err, chain.ErrDeclined) {
			return nil, fmt.Errorf("%w: %w", ErrGrantRejected, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrGrantFailed, err)
	}
	state.GrantTx = hash

	m.log.Info().
		Str("asset", asset.String()).
		Str("amount", value.String()).
		Str("tx", hash.Hex()).
		Msg("Allowance grant submitted")

	// The approve is on chain now; the caller can no longer call it off.
	receipt, err := m.waiter.Wait(context.WithoutCancel(ctx), hash, m.now().Add(m.cfg.GrantTimeout))
	if err != nil {
		return state, fmt.Errorf("%w: %w", ErrGrantFailed, err)
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		return state, fmt.Errorf("%w: approve transaction %s reverted", ErrGrantFailed, hash.Hex())
	}

	state.Current = value
	state.Granted = true
	return state, nil
}
