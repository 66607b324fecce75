// Package slippage computes the minimum acceptable output of a swap.
package slippage

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxBps is the exclusive upper bound of a tolerance in basis points
const MaxBps = 10000

var (
	ErrInvalidTolerance = errors.New("slippage tolerance must be in [0, 10000) bps")
	ErrInvalidExpected  = errors.New("expected output must be a non-negative integer")
)

var bpsDenominator = big.NewInt(MaxBps)

// MinimumOutput returns expected - floor(expected * bps / 10000).
// The deduction is floored so the minimum never rounds in the user's favor.
func MinimumOutput(expected *big.Int, bps uint32) (*big.Int, error) {
	if bps >= MaxBps {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidTolerance, bps)
	}
	if expected == nil || expected.Sign() < 0 {
		return nil, ErrInvalidExpected
	}

	deduction := new(big.Int).Mul(expected, big.NewInt(int64(bps)))
	deduction.Quo(deduction, bpsDenominator)
	return new(big.Int).Sub(expected, deduction), nil
}

// FromPercent converts a percentage string such as "0.5" into basis points.
// Percentages finer than one basis point are rejected rather than rounded.
func FromPercent(percent string) (uint32, error) {
	percent = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(percent), "%"))
	d, err := decimal.NewFromString(percent)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a percentage", ErrInvalidTolerance, percent)
	}

	bps := d.Shift(2)
	if bps.IsNegative() || !bps.IsInteger() || bps.GreaterThanOrEqual(decimal.NewFromInt(MaxBps)) {
		return 0, fmt.Errorf("%w: %s%%", ErrInvalidTolerance, percent)
	}
	return uint32(bps.IntPart()), nil
}

// Percent formats a tolerance in basis points as a percentage, e.g. 50 -> "0.5"
func Percent(bps uint32) string {
	return decimal.NewFromInt(int64(bps)).Shift(-2).String()
}
