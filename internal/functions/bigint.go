package functions

import (
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// i256 range bounds: signed 256-bit two's complement, [-2^255, 2^255-1].
// No arbitrary-precision integer library appears anywhere in the retrieval
// pack, so this is backed by the standard library's math/big — see
// DESIGN.md.
var (
	i256Max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 255), big.NewInt(1))
	i256Min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), 255))
)

var (
	ErrParseError      = errors.New("ParseError")
	ErrIntegerOverflow = errors.New("IntegerOverflow")
)

// ParseBigInt accepts a decimal string or a lowercase-prefixed "0x…" hex
// string. Uppercase "0X" is rejected, matching the Float hex parser's
// uppercase-prefix rule.
func ParseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("%w: empty string", ErrParseError)
	}
	if strings.HasPrefix(s, "0X") {
		return nil, fmt.Errorf("%w: uppercase 0X prefix rejected", ErrParseError)
	}

	n := new(big.Int)
	if strings.HasPrefix(s, "0x") {
		if _, ok := n.SetString(s[2:], 16); !ok {
			return nil, fmt.Errorf("%w: invalid hex %q", ErrParseError, s)
		}
		return n, nil
	}
	if _, ok := n.SetString(s, 10); !ok {
		return nil, fmt.Errorf("%w: invalid decimal %q", ErrParseError, s)
	}
	return n, nil
}

// SumBigInt implements BIGINT_SUM: fold parsed values into a running total,
// checked against the i256 range after every addition. An empty slice
// yields "0".
func SumBigInt(values []string) (string, error) {
	total := big.NewInt(0)
	for _, v := range values {
		n, err := ParseBigInt(v)
		if err != nil {
			return "", err
		}
		total.Add(total, n)
		if total.Cmp(i256Max) > 0 || total.Cmp(i256Min) < 0 {
			return "", ErrIntegerOverflow
		}
	}
	return total.String(), nil
}
