// Package amount converts between human-entered decimal strings and exact
// integer token quantities in the token's smallest unit.
package amount

import (
	"errors"
	"fmt"
	"math/big"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// ErrMalformedAmount is returned for anything that is not a non-negative decimal numeral
	ErrMalformedAmount = errors.New("malformed amount")
	// ErrExcessPrecision is returned when the numeral has more fractional digits than the asset supports
	ErrExcessPrecision = fmt.Errorf("%w: more fractional digits than the asset supports", ErrMalformedAmount)
)

var numeral = regexp.MustCompile(`^(?:[0-9]+(?:\.[0-9]*)?|\.[0-9]+)$`)

// toDecimal validates the grammar and returns the exact decimal value
func toDecimal(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if !numeral.MatchString(s) {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrMalformedAmount, s)
	}

	if strings.HasPrefix(s, ".") {
		s = "0" + s
	}
	s = strings.TrimSuffix(s, ".")

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrMalformedAmount, err)
	}
	return d, nil
}

// Parse converts a decimal string such as "0.0001" into smallest units for
// the given precision. A numeral with more fractional digits than the
// precision fails, trailing zeros included.
func Parse(s string, decimals uint8) (*big.Int, error) {
	d, err := toDecimal(s)
	if err != nil {
		return nil, err
	}

	s = strings.TrimSpace(s)
	if dot := strings.IndexByte(s, '.'); dot >= 0 && len(s)-dot-1 > int(decimals) {
		return nil, fmt.Errorf("%w: %q at %d decimals", ErrExcessPrecision, s, decimals)
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// ParseFloor is Parse but truncates digits beyond the precision instead of failing
func ParseFloor(s string, decimals uint8) (*big.Int, error) {
	d, err := toDecimal(s)
	if err != nil {
		return nil, err
	}
	return d.Shift(int32(decimals)).BigInt(), nil
}

// Format renders smallest units as a canonical decimal string
// (no trailing fractional zeros, "0" for zero).
func Format(v *big.Int, decimals uint8) string {
	if v == nil {
		return "0"
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).String()
}

// FormatFixed renders smallest units with exactly places fractional digits, truncating
func FormatFixed(v *big.Int, decimals uint8, places int32) string {
	if v == nil {
		v = new(big.Int)
	}
	return decimal.NewFromBigInt(v, -int32(decimals)).Truncate(places).StringFixed(places)
}

// Canonical returns the canonical form of a decimal numeral: no leading integer
// zeros, no trailing fractional zeros and no trailing dot.
func Canonical(s string) (string, error) {
	d, err := toDecimal(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}
