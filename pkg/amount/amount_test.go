package amount

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
		want     string
	}{
		{"0.0001", 18, "100000000000000"},
		{"1", 6, "1000000"},
		{"1.5", 6, "1500000"},
		{".5", 6, "500000"},
		{"2.", 6, "2000000"},
		{"0.010000", 6, "10000"},
		{"  42 ", 0, "42"},
		{"0", 18, "0"},
		{"123456789.123456789012345678", 18, "123456789123456789012345678"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in, tt.decimals)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, in := range []string{"", ".", "-1", "+1", "1e5", "1,5", "abc", "1.2.3", "0x10", " . "} {
		_, err := Parse(in, 18)
		assert.ErrorIs(t, err, ErrMalformedAmount, "input %q", in)
	}
}

func TestParseExcessPrecision(t *testing.T) {
	_, err := Parse("0.1234567", 6)
	require.ErrorIs(t, err, ErrExcessPrecision)
	assert.ErrorIs(t, err, ErrMalformedAmount)

	for _, in := range []string{"1.0000000", "0.010000000", " 2.0000000 "} {
		_, err = Parse(in, 6)
		assert.ErrorIs(t, err, ErrExcessPrecision, "input %q", in)
	}
	_, err = Parse("1.5", 0)
	assert.ErrorIs(t, err, ErrExcessPrecision)

	got, err := ParseFloor("0.1234567", 6)
	require.NoError(t, err)
	assert.Equal(t, "123456", got.String())

	got, err = ParseFloor("0.0000001", 6)
	require.NoError(t, err)
	assert.Zero(t, got.Sign())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "250", Format(big.NewInt(250000000), 6))
	assert.Equal(t, "248.75", Format(big.NewInt(248750000), 6))
	assert.Equal(t, "0.0001", Format(big.NewInt(100000000000000), 18))
	assert.Equal(t, "0", Format(big.NewInt(0), 18))
	assert.Equal(t, "0", Format(nil, 18))
	assert.Equal(t, "7", Format(big.NewInt(7), 0))
}

func TestFormatFixed(t *testing.T) {
	wei, ok := new(big.Int).SetString("1234567890000000000", 10)
	require.True(t, ok)
	assert.Equal(t, "1.2345", FormatFixed(wei, 18, 4))
	assert.Equal(t, "12.99", FormatFixed(big.NewInt(12999999), 6, 2))
	assert.Equal(t, "0.00", FormatFixed(nil, 6, 2))
}

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		in       string
		decimals uint8
	}{
		{"0.0001", 18},
		{"000123.4500", 6},
		{"1.", 6},
		{".25", 2},
		{"0", 0},
		{"0.000000", 6},
		{"99999999999999999999.999999", 6},
		{"10", 18},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, err := Parse(tt.in, tt.decimals)
			require.NoError(t, err)
			canonical, err := Canonical(tt.in)
			require.NoError(t, err)
			assert.Equal(t, canonical, Format(v, tt.decimals))
		})
	}
}

func TestCanonical(t *testing.T) {
	got, err := Canonical("000123.4500")
	require.NoError(t, err)
	assert.Equal(t, "123.45", got)

	got, err = Canonical("0.000")
	require.NoError(t, err)
	assert.Equal(t, "0", got)

	_, err = Canonical("1e3")
	assert.ErrorIs(t, err, ErrMalformedAmount)
}
