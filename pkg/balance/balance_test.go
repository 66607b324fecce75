package balance

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-swap/pkg/chain"
	"base-swap/pkg/chain/stub"
	"base-swap/pkg/types"
)

var (
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	eth   = types.Asset{Symbol: "ETH", Kind: types.Native, Decimals: 18}
	usdc  = types.Asset{Symbol: "USDC", Kind: types.Custodial, Address: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Decimals: 6}
)

func newBackend() *stub.Backend {
	backend := stub.NewBackend(8453)
	initial, _ := new(big.Int).SetString("123456789012345678", 10)
	backend.SetBalance(owner, initial)
	backend.OnCall = func(msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
		if *msg.To != usdc.Address {
			return nil, errors.New("unknown contract")
		}
		return chain.ERC20ABI.Methods["balanceOf"].Outputs.Pack(big.NewInt(249999999))
	}
	return backend
}

func TestFetch(t *testing.T) {
	w := NewWatcher(newBackend(), []types.Asset{eth, usdc}, time.Second, zerolog.Nop())

	snap, err := w.Fetch(t.Context(), owner)
	require.NoError(t, err)
	require.Len(t, snap.Balances, 2)
	assert.Equal(t, "0.1234 ETH", snap.Balances[0].Display())
	assert.Equal(t, "249.99 USDC", snap.Balances[1].Display())
}

func TestFetchError(t *testing.T) {
	backend := newBackend()
	backend.OnCall = func(ethereum.CallMsg, *big.Int) ([]byte, error) {
		return nil, errors.New("rpc down")
	}
	w := NewWatcher(backend, []types.Asset{eth, usdc}, time.Second, zerolog.Nop())

	snap, err := w.Fetch(t.Context(), owner)
	require.Error(t, err)
	assert.Error(t, snap.Err)
	assert.Empty(t, snap.Balances)
}

func TestWatchPushesUntilCancelled(t *testing.T) {
	backend := newBackend()
	w := NewWatcher(backend, []types.Asset{eth}, 5*time.Millisecond, zerolog.Nop())

	ctx, cancel := context.WithCancel(t.Context())
	ch := w.Watch(ctx, owner)

	first := <-ch
	require.NoError(t, first.Err)
	assert.Equal(t, "0.1234 ETH", first.Balances[0].Display())

	backend.SetBalance(owner, big.NewInt(2000000000000000000))
	require.Eventually(t, func() bool {
		snap := <-ch
		return len(snap.Balances) == 1 && snap.Balances[0].Display() == "2.0000 ETH"
	}, time.Second, time.Millisecond)

	cancel()
	for range ch {
	}
}
