package params

import (
	"github.com/rainlanguage/sqlite-web/internal/coordberr"
)

// Bound is the result of successfully validating one SQL payload: either a
// single statement ready to bind, or a sequence of statements to run in
// order when no parameters were supplied.
type Bound struct {
	Statements []string
	Params     []any // bindings for Statements[0]; always empty for multi-statement
}

// Validate implements the full decision tree: single-statement gating,
// placeholder-form rejection, parameter-count matching, and value
// normalization. It must run before a query is ever forwarded to the
// leader — MultiStatementNotAllowedWithParams is a router-side, not
// storage-side, concern.
func Validate(sql string, args []any) (*Bound, *coordberr.Error) {
	if len(args) == 0 {
		if IsMultiStatement(sql) {
			return &Bound{Statements: Split(sql)}, nil
		}
		trimmed := Split(sql)
		if len(trimmed) == 0 {
			return &Bound{}, nil
		}
		return validateSingle(trimmed[0], nil)
	}

	if IsMultiStatement(sql) {
		return nil, coordberr.New(coordberr.KindMultiStatementNotAllowedParams,
			"multi-statement SQL is not allowed when parameters are supplied")
	}

	stmts := Split(sql)
	stmt := sql
	if len(stmts) == 1 {
		stmt = stmts[0]
	}
	return validateSingle(stmt, args)
}

func validateSingle(stmt string, args []any) (*Bound, *coordberr.Error) {
	if len(args) > 0 && containsNamedPlaceholder(stmt) {
		return nil, coordberr.New(coordberr.KindNamedParametersUnsupported,
			"named parameters (:name, @name, $name) are not supported when parameters are supplied")
	}

	info, err := ScanPlaceholders(stmt)
	if err != nil {
		return nil, err
	}

	if info.Count == 0 && len(args) > 0 {
		return nil, coordberr.New(coordberr.KindNoParametersExpected,
			"parameters were supplied but the statement has no placeholders")
	}

	if info.Count != len(args) {
		return nil, coordberr.MismatchError(info.Count, len(args))
	}

	bound := make([]any, len(args))
	for i, a := range args {
		v, nerr := Normalize(a)
		if nerr != nil {
			return nil, nerr
		}
		bound[i] = v
	}

	return &Bound{Statements: []string{stmt}, Params: bound}, nil
}
