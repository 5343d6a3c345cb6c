// Package functions implements the domain scalar and aggregate functions,
// kept independent of any live DB connection so each one is unit-testable
// as plain Go before being wired into the engine via Register — keeping
// pure logic separate from its SQL-facing glue.
package functions

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
)

// Float hex is a canonical 32-byte decimal-float value: 16 bytes of
// big-endian unscaled magnitude, 1 sign byte (0x00 positive/zero, 0x01
// negative), 1 scale byte (decimal.Decimal's exponent is -scale), and 14
// reserved/padding bytes, encoded as a lowercase 0x-prefixed 66-character
// hex string. The exact layout was left unresolved upstream; this is the
// chosen resolution (see DESIGN.md).
const floatHexByteLen = 32

var (
	ErrFailedToParseHex  = errors.New("FailedToParseHex")
	ErrEmptyStringNotHex = errors.New("EmptyStringNotHex")
	ErrMagnitudeTooLarge = errors.New("MagnitudeTooLarge")
)

// ZeroHex is the canonical zero value, returned by FLOAT_ZERO_HEX and as the
// identity for FLOAT_SUM over an empty set.
var ZeroHex string

func init() {
	z, err := encodeFloatHex(decimal.Zero)
	if err != nil {
		panic("functions: zero value failed to encode: " + err.Error())
	}
	ZeroHex = z
}

// DecodeFloatHex parses a canonical Float hex string into a decimal.Decimal.
// Surrounding whitespace is trimmed; mixed-case hex digits are accepted; the
// uppercase "0X" prefix is rejected; an empty string after
// trimming fails with ErrEmptyStringNotHex.
func DecodeFloatHex(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Decimal{}, ErrEmptyStringNotHex
	}
	if strings.HasPrefix(s, "0X") {
		return decimal.Decimal{}, fmt.Errorf("%w: uppercase 0X prefix rejected", ErrFailedToParseHex)
	}
	if !strings.HasPrefix(s, "0x") {
		return decimal.Decimal{}, fmt.Errorf("%w: missing 0x prefix", ErrFailedToParseHex)
	}

	raw, err := hex.DecodeString(s[2:])
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %v", ErrFailedToParseHex, err)
	}
	if len(raw) != floatHexByteLen {
		return decimal.Decimal{}, fmt.Errorf("%w: expected %d bytes, got %d", ErrFailedToParseHex, floatHexByteLen, len(raw))
	}

	magnitude := new(big.Int).SetBytes(raw[:16])
	sign := raw[16]
	scale := int32(raw[17])

	coeff := new(big.Int).Set(magnitude)
	if sign == 1 {
		coeff.Neg(coeff)
	}

	return decimal.NewFromBigInt(coeff, -scale), nil
}

// EncodeFloatHex renders d into the canonical 32-byte layout. Exported so
// callers (and tests) can construct Float hex values from ordinary decimal
// arithmetic instead of hand-writing hex literals.
func EncodeFloatHex(d decimal.Decimal) (string, error) {
	return encodeFloatHex(d)
}

// encodeFloatHex renders d into the canonical 32-byte layout. A positive
// exponent is folded into the coefficient first. Fails with
// ErrMagnitudeTooLarge rather than panicking when the unscaled coefficient
// doesn't fit the 16-byte magnitude field or the scale exceeds 255.
func encodeFloatHex(d decimal.Decimal) (string, error) {
	if exp := d.Exponent(); exp > 0 {
		pow := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(exp)), nil)
		d = decimal.NewFromBigInt(new(big.Int).Mul(d.Coefficient(), pow), 0)
	}
	if d.Exponent() < -255 {
		return "", fmt.Errorf("%w: scale %d does not fit the 1-byte scale field", ErrMagnitudeTooLarge, -d.Exponent())
	}
	coeff := d.Coefficient()
	sign := byte(0)
	if coeff.Sign() < 0 {
		sign = 1
		coeff = new(big.Int).Abs(coeff)
	}
	if coeff.BitLen() > 128 {
		return "", fmt.Errorf("%w: coefficient requires %d bits, field holds 128", ErrMagnitudeTooLarge, coeff.BitLen())
	}

	var buf [floatHexByteLen]byte
	coeff.FillBytes(buf[:16])
	buf[16] = sign
	buf[17] = byte(uint32(-d.Exponent()) & 0xff)
	// buf[18:32] stays zero (reserved).

	return "0x" + hex.EncodeToString(buf[:]), nil
}

// NegateHex implements FLOAT_NEGATE. Double-application is the identity
// since decimal negation is its own involution.
func NegateHex(x string) (string, error) {
	d, err := DecodeFloatHex(x)
	if err != nil {
		return "", err
	}
	return encodeFloatHex(d.Neg())
}

// IsZeroHex implements FLOAT_IS_ZERO, returning 1 iff the parsed value is zero.
func IsZeroHex(x string) (bool, error) {
	d, err := DecodeFloatHex(x)
	if err != nil {
		return false, err
	}
	return d.IsZero(), nil
}

// SumHex implements the terminal step of FLOAT_SUM: fold non-NULL hex
// values into a running decimal total, returned encoded. An empty slice
// yields ZeroHex.
func SumHex(values []string) (string, error) {
	total := decimal.Zero
	for _, v := range values {
		d, err := DecodeFloatHex(v)
		if err != nil {
			return "", err
		}
		total = total.Add(d)
	}
	return encodeFloatHex(total)
}
