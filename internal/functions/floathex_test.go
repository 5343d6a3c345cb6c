package functions

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func hexFor(t *testing.T, s string) string {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	h, err := encodeFloatHex(d)
	require.NoError(t, err)
	return h
}

func TestDecodeEncodeFloatHex_RoundTrip(t *testing.T) {
	for _, s := range []string{"0", "0.1", "-0.1", "1.5", "123456789.987654321", "-42"} {
		h := hexFor(t, s)
		d, err := DecodeFloatHex(h)
		require.NoError(t, err)
		require.True(t, d.Equal(decimal.RequireFromString(s)), "round trip mismatch for %s", s)
	}
}

func TestNegateHex_DoubleApplicationIsIdentity(t *testing.T) {
	h := hexFor(t, "3.14159")
	once, err := NegateHex(h)
	require.NoError(t, err)
	twice, err := NegateHex(once)
	require.NoError(t, err)
	require.Equal(t, h, twice)
}

func TestIsZeroHex(t *testing.T) {
	zero, err := IsZeroHex(ZeroHex)
	require.NoError(t, err)
	require.True(t, zero)

	nonZero, err := IsZeroHex(hexFor(t, "1"))
	require.NoError(t, err)
	require.False(t, nonZero)
}

func TestNegateSumsToZero(t *testing.T) {
	h := hexFor(t, "7.77")
	neg, err := NegateHex(h)
	require.NoError(t, err)

	sum, err := SumHex([]string{h, neg})
	require.NoError(t, err)

	zero, err := IsZeroHex(sum)
	require.NoError(t, err)
	require.True(t, zero)
}

func TestSumHex_EmptyIsZeroHex(t *testing.T) {
	sum, err := SumHex(nil)
	require.NoError(t, err)
	require.Equal(t, ZeroHex, sum)
}

func TestSumHex_AggregateCorrectness(t *testing.T) {
	sum, err := SumHex([]string{hexFor(t, "0.1"), hexFor(t, "0.5"), hexFor(t, "1.5")})
	require.NoError(t, err)
	require.Equal(t, hexFor(t, "2.1"), sum)
}

func TestEncodeFloatHex_RejectsOversizedMagnitude(t *testing.T) {
	huge := decimal.NewFromBigInt(new(big.Int).Lsh(big.NewInt(1), 128), 0)
	_, err := encodeFloatHex(huge)
	require.ErrorIs(t, err, ErrMagnitudeTooLarge)
}

func TestDecodeFloatHex_RejectsUppercase0X(t *testing.T) {
	h := hexFor(t, "1")
	upper := "0X" + h[2:]
	_, err := DecodeFloatHex(upper)
	require.ErrorIs(t, err, ErrFailedToParseHex)
}

func TestDecodeFloatHex_RejectsEmptyString(t *testing.T) {
	_, err := DecodeFloatHex("   ")
	require.ErrorIs(t, err, ErrEmptyStringNotHex)
}

func TestDecodeFloatHex_TrimsWhitespaceAndAcceptsMixedCase(t *testing.T) {
	h := hexFor(t, "9.5")
	mixed := "0x" + mixCase(h[2:])
	_, err := DecodeFloatHex("  " + mixed + "  ")
	require.NoError(t, err)
}

func mixCase(s string) string {
	out := []byte(s)
	for i := range out {
		if i%2 == 0 && out[i] >= 'a' && out[i] <= 'f' {
			out[i] -= 'a' - 'A'
		}
	}
	return string(out)
}
