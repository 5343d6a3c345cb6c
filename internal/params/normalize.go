package params

import (
	"math"

	"github.com/rainlanguage/sqlite-web/internal/coordberr"
)

const maxSafeInt = 1<<53 - 1

// Normalize converts one caller-supplied value into its engine binding form.
func Normalize(v any) (any, *coordberr.Error) {
	switch x := v.(type) {
	case nil:
		return nil, nil
	case bool:
		if x {
			return int64(1), nil
		}
		return int64(0), nil
	case int:
		return normalizeInt64(int64(x))
	case int8:
		return normalizeInt64(int64(x))
	case int16:
		return normalizeInt64(int64(x))
	case int32:
		return normalizeInt64(int64(x))
	case int64:
		return normalizeInt64(x)
	case uint:
		return normalizeUint64(uint64(x))
	case uint8:
		return normalizeUint64(uint64(x))
	case uint16:
		return normalizeUint64(uint64(x))
	case uint32:
		return normalizeUint64(uint64(x))
	case uint64:
		return normalizeUint64(x)
	case float32:
		return normalizeFloat(float64(x))
	case float64:
		return normalizeFloat(x)
	case string:
		return x, nil
	case []byte:
		return x, nil
	default:
		return nil, coordberr.Newf(coordberr.KindUnsupportedParamType, "unsupported parameter type %T", v)
	}
}

func normalizeInt64(n int64) (any, *coordberr.Error) {
	if n > maxSafeInt || n < -maxSafeInt {
		// Still within i64 range, just outside the "safe JSON integer"
		// band — treated as a plain INTEGER bind, not an error;
		// IntegerOutOfRange is reserved for values outside i64 itself,
		// which Go's int64 cannot represent in the first place.
		return n, nil
	}
	return n, nil
}

func normalizeUint64(n uint64) (any, *coordberr.Error) {
	if n > math.MaxInt64 {
		return nil, coordberr.New(coordberr.KindIntegerOutOfRange, "integer value exceeds i64 range")
	}
	return int64(n), nil
}

func normalizeFloat(f float64) (any, *coordberr.Error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil, coordberr.New(coordberr.KindNumericNotFinite, "NaN and infinities are not valid parameter values")
	}
	return f, nil
}
