package functions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseBigInt_DecimalAndHex(t *testing.T) {
	n, err := ParseBigInt("12345")
	require.NoError(t, err)
	require.Equal(t, "12345", n.String())

	n, err = ParseBigInt("0xff")
	require.NoError(t, err)
	require.Equal(t, "255", n.String())

	n, err = ParseBigInt("-42")
	require.NoError(t, err)
	require.Equal(t, "-42", n.String())
}

func TestParseBigInt_RejectsUppercase0X(t *testing.T) {
	_, err := ParseBigInt("0XFF")
	require.ErrorIs(t, err, ErrParseError)
}

func TestParseBigInt_RejectsMalformed(t *testing.T) {
	_, err := ParseBigInt("not-a-number")
	require.ErrorIs(t, err, ErrParseError)
}

func TestSumBigInt_EmptyIsZero(t *testing.T) {
	sum, err := SumBigInt(nil)
	require.NoError(t, err)
	require.Equal(t, "0", sum)
}

func TestSumBigInt_Basic(t *testing.T) {
	sum, err := SumBigInt([]string{"1", "2", "3"})
	require.NoError(t, err)
	require.Equal(t, "6", sum)
}

func TestSumBigInt_OverflowsI256Range(t *testing.T) {
	max := "57896044618658097711785492504343953926634992332820282019728792003956564819967" // 2^255-1
	_, err := SumBigInt([]string{max, "1"})
	require.ErrorIs(t, err, ErrIntegerOverflow)
}

func TestSumBigInt_MalformedValueFails(t *testing.T) {
	_, err := SumBigInt([]string{"1", strings.Repeat("x", 3)})
	require.ErrorIs(t, err, ErrParseError)
}
