// Package balance reads wallet balances and pushes periodic snapshots to
// whoever displays them.
package balance

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"base-swap/pkg/amount"
	"base-swap/pkg/chain"
	"base-swap/pkg/types"
)

// Balance is the holding of one asset
type Balance struct {
	Asset  types.Asset
	Amount *big.Int
}

// Display formats the amount truncated to 4 places for the native asset and 2 for tokens
func (b Balance) Display() string {
	places := int32(2)
	if b.Asset.IsNative() {
		places = 4
	}
	return amount.FormatFixed(b.Amount, b.Asset.Decimals, places) + " " + b.Asset.String()
}

// Snapshot is the state of all watched balances at one moment. Err is set
// when the read failed; Balances is then empty.
type Snapshot struct {
	Owner    common.Address
	At       time.Time
	Balances []Balance
	Err      error
}

// Watcher polls balances of a fixed asset list
type Watcher struct {
	reader   chain.Reader
	assets   []types.Asset
	interval time.Duration
	log      zerolog.Logger
}

// NewWatcher creates a watcher polling every interval
func NewWatcher(reader chain.Reader, assets []types.Asset, interval time.Duration, log zerolog.Logger) *Watcher {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	return &Watcher{
		reader:   reader,
		assets:   assets,
		interval: interval,
		log:      log.With().Str("component", "balance").Logger(),
	}
}

// Fetch reads every balance of owner once
func (w *Watcher) Fetch(ctx context.Context, owner common.Address) (Snapshot, error) {
	snap := Snapshot{Owner: owner, At: time.Now()}
	for _, asset := range w.assets {
		var (
			value *big.Int
			err   error
		)
		if asset.IsNative() {
			value, err = w.reader.BalanceAt(ctx, owner, nil)
		} else {
			value, err = chain.NewERC20(w.reader, asset.Address).BalanceOf(ctx, owner)
		}
		if err != nil {
			return Snapshot{Owner: owner, At: snap.At, Err: err}, fmt.Errorf("failed to get %s balance: %w", asset, err)
		}
		snap.Balances = append(snap.Balances, Balance{Asset: asset, Amount: value})
	}
	return snap, nil
}

// Watch sends a snapshot right away and then after every interval until ctx
// is done, when the channel is closed. A slow receiver misses ticks instead
// of queueing them.
func (w *Watcher) Watch(ctx context.Context, owner common.Address) <-chan Snapshot {
	ch := make(chan Snapshot, 1)
	go func() {
		defer close(ch)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			snap, err := w.Fetch(ctx, owner)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				w.log.Warn().Err(err).Msg("Balance refresh failed")
			}

			select {
			case ch <- snap:
			case <-ctx.Done():
				return
			default:
				w.log.Debug().Msg("Balance snapshot dropped, receiver busy")
			}

			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return ch
}
