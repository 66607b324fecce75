// Package quote asks the Uniswap V3 QuoterV2 contract for the expected output
// of a single-pool exact-input swap.
package quote

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"base-swap/pkg/chain"
	"base-swap/pkg/types"
)

var (
	// ErrQuoteFailed wraps every fault while obtaining a quote
	ErrQuoteFailed = errors.New("quote unavailable")
	// ErrInvalidAmount is returned for a nil or non-positive input amount
	ErrInvalidAmount = errors.New("amount in must be positive")
)

const quoterV2ABI = `[
	{
		"inputs": [
			{
				"components": [
					{"internalType": "address", "name": "tokenIn", "type": "address"},
					{"internalType": "address", "name": "tokenOut", "type": "address"},
					{"internalType": "uint256", "name": "amountIn", "type": "uint256"},
					{"internalType": "uint24", "name": "fee", "type": "uint24"},
					{"internalType": "uint160", "name": "sqrtPriceLimitX96", "type": "uint160"}
				],
				"internalType": "struct IQuoterV2.QuoteExactInputSingleParams",
				"name": "params",
				"type": "tuple"
			}
		],
		"name": "quoteExactInputSingle",
		"outputs": [
			{"internalType": "uint256", "name": "amountOut", "type": "uint256"},
			{"internalType": "uint160", "name": "sqrtPriceX96After", "type": "uint160"},
			{"internalType": "uint32", "name": "initializedTicksCrossed", "type": "uint32"},
			{"internalType": "uint256", "name": "gasEstimate", "type": "uint256"}
		],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

var quoterABI = func() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(quoterV2ABI))
	if err != nil {
		panic(fmt.Sprintf("failed to parse QuoterV2 ABI: %v", err))
	}
	return parsed
}()

type quoteParams struct {
	TokenIn           common.Address
	TokenOut          common.Address
	AmountIn          *big.Int
	Fee               *big.Int
	SqrtPriceLimitX96 *big.Int
}

// Client quotes against one QuoterV2 deployment
type Client struct {
	reader chain.Reader
	quoter common.Address
	weth   common.Address
}

// NewClient creates a quote client. weth stands in for native assets.
func NewClient(reader chain.Reader, quoter, weth common.Address) *Client {
	return &Client{reader: reader, quoter: quoter, weth: weth}
}

func (c *Client) poolToken(asset types.Asset) common.Address {
	if asset.IsNative() {
		return c.weth
	}
	return asset.Address
}

// Quote returns the expected output of swapping amountIn of from into to
// through the pool with the given fee tier. It is never cached or retried.
func (c *Client) Quote(ctx context.Context, from, to types.Asset, feeTier uint32, amountIn *big.Int) (*types.Quote, error) {
	if amountIn == nil || amountIn.Sign() <= 0 {
		return nil, ErrInvalidAmount
	}

	data, err := quoterABI.Pack("quoteExactInputSingle", quoteParams{
		TokenIn:           c.poolToken(from),
		TokenOut:          c.poolToken(to),
		AmountIn:          amountIn,
		Fee:               new(big.Int).SetUint64(uint64(feeTier)),
		SqrtPriceLimitX96: new(big.Int),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to pack quote call: %w", ErrQuoteFailed, err)
	}

	result, err := c.reader.CallContract(ctx, ethereum.CallMsg{To: &c.quoter, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrQuoteFailed, err)
	}

	out, err := quoterABI.Unpack("quoteExactInputSingle", result)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to unpack quote: %w", ErrQuoteFailed, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty quote result", ErrQuoteFailed)
	}

	expected := abi.ConvertType(out[0], new(big.Int)).(*big.Int)
	if expected.Sign() <= 0 {
		return nil, fmt.Errorf("%w: pool returned zero output", ErrQuoteFailed)
	}

	return &types.Quote{
		AmountIn:    new(big.Int).Set(amountIn),
		ExpectedOut: expected,
		FeeTier:     feeTier,
	}, nil
}

// PackQuoteResult encodes a quoteExactInputSingle return value. Useful for
// serving quotes from a fake node.
func PackQuoteResult(amountOut *big.Int) ([]byte, error) {
	return quoterABI.Methods["quoteExactInputSingle"].Outputs.Pack(amountOut, new(big.Int), uint32(0), big.NewInt(100000))
}

// UnpackQuoteRequest decodes the calldata of a quoteExactInputSingle call
func UnpackQuoteRequest(data []byte) (tokenIn, tokenOut common.Address, amountIn *big.Int, fee uint32, err error) {
	if len(data) < 4 {
		return common.Address{}, common.Address{}, nil, 0, fmt.Errorf("calldata too short")
	}
	method, err := quoterABI.MethodById(data[:4])
	if err != nil {
		return common.Address{}, common.Address{}, nil, 0, err
	}
	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return common.Address{}, common.Address{}, nil, 0, err
	}
	p := abi.ConvertType(args[0], new(quoteParams)).(*quoteParams)
	return p.TokenIn, p.TokenOut, p.AmountIn, uint32(p.Fee.Uint64()), nil
}
