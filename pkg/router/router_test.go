package router

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"base-swap/pkg/types"
)

var (
	routerAddr = common.HexToAddress("0x2626664c2603336E57B271c5C0b26F421741e481")
	weth       = common.HexToAddress("0x4200000000000000000000000000000000000006")
	usdc       = common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913")
	owner      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func unpackMulticall(t *testing.T, data []byte) (*big.Int, [][]byte) {
	t.Helper()
	method, err := RouterABI.MethodById(data[:4])
	require.NoError(t, err)
	require.Equal(t, "multicall", method.Name)

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return args[0].(*big.Int), args[1].([][]byte)
}

func unpackExactInputSingle(t *testing.T, data []byte) exactInputSingleParams {
	t.Helper()
	method, err := RouterABI.MethodById(data[:4])
	require.NoError(t, err)
	require.Equal(t, "exactInputSingle", method.Name)

	args, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	return *abi.ConvertType(args[0], new(exactInputSingleParams)).(*exactInputSingleParams)
}

func TestBuildSwapNativeIn(t *testing.T) {
	call, err := BuildSwap(SwapParams{
		Router:     routerAddr,
		TokenIn:    weth,
		TokenOut:   usdc,
		Fee:        500,
		Recipient:  owner,
		AmountIn:   big.NewInt(100000000000000),
		MinimumOut: big.NewInt(248750000),
		Deadline:   1700001200,
		NativeIn:   true,
	})
	require.NoError(t, err)

	assert.Equal(t, routerAddr, call.To)
	assert.Equal(t, "100000000000000", call.Value.String())

	deadline, calls := unpackMulticall(t, call.Data)
	assert.Equal(t, int64(1700001200), deadline.Int64())
	require.Len(t, calls, 1)

	params := unpackExactInputSingle(t, calls[0])
	assert.Equal(t, weth, params.TokenIn)
	assert.Equal(t, usdc, params.TokenOut)
	assert.Equal(t, int64(500), params.Fee.Int64())
	assert.Equal(t, owner, params.Recipient)
	assert.Equal(t, "248750000", params.AmountOutMinimum.String())
	assert.Zero(t, params.SqrtPriceLimitX96.Sign())
}

func TestBuildSwapNativeOutUnwraps(t *testing.T) {
	call, err := BuildSwap(SwapParams{
		Router:     routerAddr,
		TokenIn:    usdc,
		TokenOut:   weth,
		Fee:        500,
		Recipient:  owner,
		AmountIn:   big.NewInt(10000),
		MinimumOut: big.NewInt(3000000000000),
		Deadline:   1700001200,
		NativeOut:  true,
	})
	require.NoError(t, err)
	assert.Zero(t, call.Value.Sign())

	_, calls := unpackMulticall(t, call.Data)
	require.Len(t, calls, 2)

	params := unpackExactInputSingle(t, calls[0])
	assert.Equal(t, AddressThis, params.Recipient)

	method, err := RouterABI.MethodById(calls[1][:4])
	require.NoError(t, err)
	assert.Equal(t, "unwrapWETH9", method.Name)
	args, err := method.Inputs.Unpack(calls[1][4:])
	require.NoError(t, err)
	assert.Equal(t, "3000000000000", args[0].(*big.Int).String())
	assert.Equal(t, owner, args[1].(common.Address))
}

func TestBuildSwapRejectsMissingBounds(t *testing.T) {
	_, err := BuildSwap(SwapParams{AmountIn: big.NewInt(0), MinimumOut: big.NewInt(1), Deadline: 1})
	assert.Error(t, err)
	_, err = BuildSwap(SwapParams{AmountIn: big.NewInt(1), Deadline: 1})
	assert.Error(t, err)
	_, err = BuildSwap(SwapParams{AmountIn: big.NewInt(1), MinimumOut: big.NewInt(1)})
	assert.Error(t, err)
}

func revertPayload(t *testing.T, reason string) []byte {
	t.Helper()
	stringType, err := abi.NewType("string", "", nil)
	require.NoError(t, err)
	packed, err := abi.Arguments{{Type: stringType}}.Pack(reason)
	require.NoError(t, err)
	return append([]byte{0x08, 0xc3, 0x79, 0xa0}, packed...)
}

func TestClassifyRevertData(t *testing.T) {
	assert.Equal(t, types.KindSlippageExceeded, ClassifyRevertData(revertPayload(t, "Too little received")))
	assert.Equal(t, types.KindSlippageExceeded, ClassifyRevertData(revertPayload(t, "Insufficient WETH9")))
	assert.Equal(t, types.KindDeadlineExpired, ClassifyRevertData(revertPayload(t, "Transaction too old")))
	assert.Equal(t, types.KindSwapReverted, ClassifyRevertData(revertPayload(t, "STF")))
	assert.Equal(t, types.KindSwapReverted, ClassifyRevertData(nil))
	assert.Equal(t, types.KindSwapReverted, ClassifyRevertData([]byte{0xde, 0xad, 0xbe, 0xef}))

	reason, ok := DecodeRevert(revertPayload(t, "Too little received"))
	assert.True(t, ok)
	assert.Equal(t, "Too little received", reason)
}

func TestReceivedFromLogs(t *testing.T) {
	receipt := &ethtypes.Receipt{Logs: []*ethtypes.Log{
		{
			Address: usdc,
			Topics:  []common.Hash{transferTopic, common.BytesToHash(routerAddr.Bytes()), common.BytesToHash(owner.Bytes())},
			Data:    common.LeftPadBytes(big.NewInt(249000000).Bytes(), 32),
		},
		{
			Address: usdc,
			Topics:  []common.Hash{transferTopic, common.BytesToHash(owner.Bytes()), common.BytesToHash(routerAddr.Bytes())},
			Data:    common.LeftPadBytes(big.NewInt(5).Bytes(), 32),
		},
		{
			Address: weth,
			Topics:  []common.Hash{withdrawalTopic, common.BytesToHash(routerAddr.Bytes())},
			Data:    common.LeftPadBytes(big.NewInt(4000000000000).Bytes(), 32),
		},
	}}

	assert.Equal(t, "249000000", TokenReceived(receipt, usdc, owner).String())
	assert.Equal(t, "4000000000000", NativeReceived(receipt, weth, routerAddr).String())
	assert.Nil(t, TokenReceived(receipt, weth, owner))
	assert.Nil(t, NativeReceived(&ethtypes.Receipt{}, weth, routerAddr))
}
