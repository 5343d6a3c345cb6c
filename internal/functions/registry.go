package functions

import (
	"github.com/ncruces/go-sqlite3"
)

// Register wires every domain function into a fresh native connection, via
// the Storage Adapter's ConnectHook, so the full function set is present on
// every open. wipe_and_recreate keeps the same connection, so the functions
// stay registered after a wipe.
func Register(conn *sqlite3.Conn) error {
	if err := conn.CreateFunction("FLOAT_NEGATE", 1, sqlite3.DETERMINISTIC, floatNegateSQL); err != nil {
		return err
	}
	if err := conn.CreateFunction("FLOAT_IS_ZERO", 1, sqlite3.DETERMINISTIC, floatIsZeroSQL); err != nil {
		return err
	}
	if err := conn.CreateFunction("FLOAT_ZERO_HEX", 0, sqlite3.DETERMINISTIC, floatZeroHexSQL); err != nil {
		return err
	}
	if err := conn.CreateWindowFunction("FLOAT_SUM", 1, sqlite3.DETERMINISTIC, newFloatSumAgg); err != nil {
		return err
	}
	if err := conn.CreateWindowFunction("BIGINT_SUM", 1, sqlite3.DETERMINISTIC, newBigIntSumAgg); err != nil {
		return err
	}
	if err := conn.CreateFunction("RAIN_MATH_PROCESS", 2, sqlite3.DETERMINISTIC, rainMathProcessSQL); err != nil {
		return err
	}
	return nil
}

func floatNegateSQL(ctx sqlite3.Context, args ...sqlite3.Value) {
	if args[0].NoChange() || args[0].Type() == sqlite3.NULL {
		ctx.ResultNull()
		return
	}
	out, err := NegateHex(args[0].Text())
	if err != nil {
		ctx.ResultError(err)
		return
	}
	ctx.ResultText(out)
}

func floatIsZeroSQL(ctx sqlite3.Context, args ...sqlite3.Value) {
	if args[0].Type() == sqlite3.NULL {
		ctx.ResultNull()
		return
	}
	zero, err := IsZeroHex(args[0].Text())
	if err != nil {
		ctx.ResultError(err)
		return
	}
	if zero {
		ctx.ResultInt(1)
	} else {
		ctx.ResultInt(0)
	}
}

func floatZeroHexSQL(ctx sqlite3.Context, _ ...sqlite3.Value) {
	ctx.ResultText(ZeroHex)
}

// rainMathProcessSQL is a placeholder two-argument decimal operation: it
// returns the sum of its two Float hex arguments, or NULL if either is NULL.
func rainMathProcessSQL(ctx sqlite3.Context, args ...sqlite3.Value) {
	if args[0].Type() == sqlite3.NULL || args[1].Type() == sqlite3.NULL {
		ctx.ResultNull()
		return
	}
	a, err := DecodeFloatHex(args[0].Text())
	if err != nil {
		ctx.ResultError(err)
		return
	}
	b, err := DecodeFloatHex(args[1].Text())
	if err != nil {
		ctx.ResultError(err)
		return
	}
	sum, err := encodeFloatHex(a.Add(b))
	if err != nil {
		ctx.ResultError(err)
		return
	}
	ctx.ResultText(sum)
}

// floatSumAgg accumulates FLOAT_SUM: ignores NULLs, empty group yields ZeroHex.
type floatSumAgg struct {
	values []string
}

func newFloatSumAgg() sqlite3.AggregateFunction { return &floatSumAgg{} }

func (a *floatSumAgg) Step(ctx sqlite3.Context, args ...sqlite3.Value) {
	if args[0].Type() == sqlite3.NULL {
		return
	}
	a.values = append(a.values, args[0].Text())
}

func (a *floatSumAgg) Value(ctx sqlite3.Context) {
	sum, err := SumHex(a.values)
	if err != nil {
		ctx.ResultError(err)
		return
	}
	ctx.ResultText(sum)
}

func (a *floatSumAgg) WindowValue(ctx sqlite3.Context) { a.Value(ctx) }

func (a *floatSumAgg) Inverse(ctx sqlite3.Context, args ...sqlite3.Value) {
	if args[0].Type() == sqlite3.NULL {
		return
	}
	target := args[0].Text()
	for i, v := range a.values {
		if v == target {
			a.values = append(a.values[:i], a.values[i+1:]...)
			break
		}
	}
}

// bigIntSumAgg accumulates BIGINT_SUM: empty group yields "0", an i256
// overflow or a malformed value fails the whole aggregate.
type bigIntSumAgg struct {
	values []string
}

func newBigIntSumAgg() sqlite3.AggregateFunction { return &bigIntSumAgg{} }

func (a *bigIntSumAgg) Step(ctx sqlite3.Context, args ...sqlite3.Value) {
	if args[0].Type() == sqlite3.NULL {
		return
	}
	a.values = append(a.values, args[0].Text())
}

func (a *bigIntSumAgg) Value(ctx sqlite3.Context) {
	sum, err := SumBigInt(a.values)
	if err != nil {
		ctx.ResultError(err)
		return
	}
	ctx.ResultText(sum)
}

func (a *bigIntSumAgg) WindowValue(ctx sqlite3.Context) { a.Value(ctx) }

func (a *bigIntSumAgg) Inverse(ctx sqlite3.Context, args ...sqlite3.Value) {
	if args[0].Type() == sqlite3.NULL {
		return
	}
	target := args[0].Text()
	for i, v := range a.values {
		if v == target {
			a.values = append(a.values[:i], a.values[i+1:]...)
			break
		}
	}
}
