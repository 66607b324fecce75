package types

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// AssetKind distinguishes the chain's base currency from contract-backed tokens
type AssetKind string

const (
	Native    AssetKind = "native"
	Custodial AssetKind = "custodial"
)

// Asset identifies a tradable unit. Decimals never change after construction.
type Asset struct {
	Symbol   string
	Kind     AssetKind
	Address  common.Address // zero for native assets
	Decimals uint8
}

// IsNative reports whether the asset is the chain's base currency
func (a Asset) IsNative() bool {
	return a.Kind == Native
}

// Equal compares assets by identity (kind + address for tokens, kind for native)
func (a Asset) Equal(b Asset) bool {
	if a.Kind != b.Kind {
		return false
	}
	if a.IsNative() {
		return true
	}
	return a.Address == b.Address
}

func (a Asset) String() string {
	return strings.ToUpper(a.Symbol)
}

// SwapRequest represents a user's swap order. Owner is resolved by the wallet
// collaborator before the request reaches the engine.
type SwapRequest struct {
	ID          string
	From        Asset
	To          Asset
	Amount      string // human decimal string
	SlippageBps uint32
	Owner       common.Address
}

// Pair returns a display label such as "ETH/USDC"
func (r SwapRequest) Pair() string {
	return r.From.String() + "/" + r.To.String()
}

// Quote is an expected output for a given input. Valid only at the moment it was obtained.
type Quote struct {
	AmountIn    *big.Int
	ExpectedOut *big.Int
	FeeTier     uint32
}

// SwapBounds are the on-chain guarantees submitted with the swap
type SwapBounds struct {
	AmountIn    *big.Int
	ExpectedOut *big.Int
	MinimumOut  *big.Int
	Deadline    int64 // unix seconds, fixed at submission
}

// AllowanceState describes a token allowance after Ensure returned
type AllowanceState struct {
	Owner   common.Address
	Spender common.Address
	Current *big.Int
	Granted bool
	GrantTx common.Hash
}
