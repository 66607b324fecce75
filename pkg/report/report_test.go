package report

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-swap/pkg/types"
)

var (
	eth   = types.Asset{Symbol: "ETH", Kind: types.Native, Decimals: 18}
	usdc  = types.Asset{Symbol: "USDC", Kind: types.Custodial, Address: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Decimals: 6}
	owner = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	hash  = common.HexToHash("0xabc")
)

func request() types.SwapRequest {
	return types.SwapRequest{From: eth, To: usdc, Amount: "0.00010", SlippageBps: 50, Owner: owner}
}

func bounds() *types.SwapBounds {
	return &types.SwapBounds{
		AmountIn:    big.NewInt(100000000000000),
		ExpectedOut: big.NewInt(250000000),
		MinimumOut:  big.NewInt(248750000),
		Deadline:    1700001200,
	}
}

func TestFromOutcomeConfirmed(t *testing.T) {
	r := FromOutcome(request(), types.Outcome{
		Status:    types.OutcomeConfirmed,
		State:     types.StateConfirmed,
		TxHash:    hash,
		ActualOut: big.NewInt(249500000),
		Bounds:    bounds(),
	})

	assert.True(t, r.Success)
	assert.Equal(t, types.KindNone, r.ErrorKind)
	assert.Empty(t, r.Message)
	assert.Equal(t, Amounts{In: "0.0001", ExpectedOut: "250", MinimumOut: "248.75", ActualOut: "249.5"}, r.Amounts)
	assert.Equal(t, hash.Hex(), r.TxHash)
	assert.Equal(t, "ETH", r.From)
	assert.Equal(t, "USDC", r.To)

	require.True(t, Recordable(r))
	rec := ToRecord(r)
	assert.Equal(t, "249.5", rec.ToAmount)
	assert.Equal(t, "0.0001", rec.FromAmount)
	assert.Equal(t, "confirmed", rec.Status)
	assert.Equal(t, owner.Hex(), rec.WalletAddress)
	assert.NoError(t, rec.Validate())
}

func TestFromOutcomeFailures(t *testing.T) {
	kinds := []types.ErrorKind{
		types.KindMalformedAmount,
		types.KindAmountTooSmall,
		types.KindInvalidTolerance,
		types.KindUnsupportedPair,
		types.KindQuoteUnavailable,
		types.KindAllowanceGrantFailed,
		types.KindSubmissionFailed,
		types.KindSlippageExceeded,
		types.KindDeadlineExpired,
		types.KindSwapReverted,
		types.KindCancelled,
	}
	for _, kind := range kinds {
		r := FromOutcome(request(), types.Outcome{Status: types.OutcomeFailed, Kind: kind})
		assert.False(t, r.Success, kind)
		assert.Equal(t, kind, r.ErrorKind)
		assert.Equal(t, kind.Message(), r.Message)
		assert.NotEmpty(t, r.Message, kind)
		assert.False(t, Recordable(r), kind)
	}
}

func TestFromOutcomeRevertedIsRecordedWithExpectedAmount(t *testing.T) {
	r := FromOutcome(request(), types.Outcome{
		Status: types.OutcomeFailed,
		State:  types.StateFailed,
		TxHash: hash,
		Kind:   types.KindSlippageExceeded,
		Bounds: bounds(),
	})

	assert.False(t, r.Success)
	assert.Empty(t, r.Amounts.ActualOut)
	require.True(t, Recordable(r))
	rec := ToRecord(r)
	assert.Equal(t, "250", rec.ToAmount)
	assert.Equal(t, "failed", rec.Status)
}

func TestFromOutcomeRejected(t *testing.T) {
	r := FromOutcome(request(), types.Outcome{Status: types.OutcomeRejected, State: types.StateRejected, Kind: types.KindRejected})

	assert.False(t, r.Success)
	assert.Equal(t, types.OutcomeRejected, r.Status)
	assert.Empty(t, r.TxHash)
	assert.Equal(t, "The transaction was declined in the wallet.", r.Message)
}
