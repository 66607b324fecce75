// Package router encodes Uniswap V3 SwapRouter02 calls and interprets their
// on-chain results.
package router

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const swapRouter02ABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "tokenIn", "type": "address"},
					{"internalType": "address", "name": "tokenOut", "type": "address"},
					{"internalType": "uint24", "name": "fee", "type": "uint24"},
					{"internalType": "address", "name": "recipient", "type": "address"},
					{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
					{"internalType": "uint256", "name": "amountOutMinimum", "type": "uint256"},
					{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"internalType": "struct IV3SwapRouter.ExactInputSingleParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "exactInputSingle",
		"outputs": [{"internalType": "uint256", "name": "amountOut", "type": "uint256"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "deadline", "type": "uint256"},
			{"internalType": "bytes[]", "name": "data", "type": "bytes[]"}
		],
		"name": "multicall",
		"outputs": [{"internalType": "bytes[]", "name": "", "type": "bytes[]"}],
		"stateMutability": "payable",
		"type": "function"
	},
	{
		"inputs": [
			{"internalType": "uint256", "name": "amountMinimum", "type": "uint256"},
			{"internalType": "address", "name": "recipient", "type": "address"}
		],
		"name": "unwrapWETH9",
		"outputs": [],
		"stateMutability": "payable",
		"type": "function"
	}
]`

// RouterABI is the parsed subset of SwapRouter02 used for swaps
var RouterABI = mustParseABI(swapRouter02ABI)

// AddressThis tells SwapRouter02 to keep the output in the router (used before unwrapping)
var AddressThis = common.HexToAddress("0x0000000000000000000000000000000000000002")

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(fmt.Sprintf("failed to parse ABI: %v", err))
	}
	return parsed
}

// exactInputSingleParams mirrors IV3SwapRouter.ExactInputSingleParams
type exactInputSingleParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	Fee               *big.Int
	Recipient         common.Address
	AmountIn          *big.Int
	AmountOutMinimum  *big.Int
	SqrtPriceLimitX96 *big.Int
}

// SwapParams describes a single-pool exact-input swap. Token addresses are
// the pool tokens, so the wrapped native address stands in for native assets.
type SwapParams struct {
	Router     common.Address
	TokenIn    common.Address
	TokenOut   common.Address
	Fee        uint32
	Recipient  common.Address
	AmountIn   *big.Int
	MinimumOut *big.Int
	Deadline   int64
	NativeIn   bool // pay with the native asset as transaction value
	NativeOut  bool // unwrap the output and send the native asset to Recipient
}

// Call is the encoded router transaction
type Call struct {
	To    common.Address
	Value *big.Int
	Data  []byte
}

// BuildSwap encodes multicall(deadline, [exactInputSingle(...), unwrapWETH9(...)?])
func BuildSwap(p SwapParams) (*Call, error) {
	if p.AmountIn == nil || p.AmountIn.Sign() <= 0 {
		return nil, fmt.Errorf("amount in must be positive")
	}
	if p.MinimumOut == nil || p.MinimumOut.Sign() < 0 {
		return nil, fmt.Errorf("minimum out must be set")
	}
	if p.Deadline <= 0 {
		return nil, fmt.Errorf("deadline must be set")
	}

	recipient := p.Recipient
	if p.NativeOut {
		recipient = AddressThis
	}

	swapData, err := RouterABI.Pack("exactInputSingle", exactInputSingleParams{
		TokenIn:           p.TokenIn,
		TokenOut:          p.TokenOut,
		Fee:               new(big.Int).SetUint64(uint64(p.Fee)),
		Recipient:         recipient,
		AmountIn:          p.AmountIn,
		AmountOutMinimum:  p.MinimumOut,
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to pack exactInputSingle: %w", err)
	}

	calls := [][]byte{swapData}
	if p.NativeOut {
		unwrapData, err := RouterABI.Pack("unwrapWETH9", p.MinimumOut, p.Recipient)
		if err != nil {
			return nil, fmt.Errorf("failed to pack unwrapWETH9: %w", err)
		}
		calls = append(calls, unwrapData)
	}

	data, err := RouterABI.Pack("multicall", big.NewInt(p.Deadline), calls)
	if err != nil {
		return nil, fmt.Errorf("failed to pack multicall: %w", err)
	}

	value := new(big.Int)
	if p.NativeIn {
		value.Set(p.AmountIn)
	}

	return &Call{To: p.Router, Value: value, Data: data}, nil
}
