// Package coordberr defines the structured error taxonomy shared across the
// core: every error that can cross the inter-context bus or reach the
// Handle Facade is a *Error, never a bare fmt.Errorf string.
package coordberr

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Kind is a stable error discriminator.
type Kind string

const (
	KindSqlEngine                      Kind = "SqlEngine"
	KindStorageUnavailable             Kind = "StorageUnavailable"
	KindNamedParametersUnsupported     Kind = "NamedParametersUnsupported"
	KindMixedPlaceholderForms          Kind = "MixedPlaceholderForms"
	KindInvalidParameterIndex          Kind = "InvalidParameterIndex"
	KindMissingParameterIndex          Kind = "MissingParameterIndex"
	KindParameterCountMismatch         Kind = "ParameterCountMismatch"
	KindNoParametersExpected           Kind = "NoParametersExpected"
	KindMultiStatementNotAllowedParams Kind = "MultiStatementNotAllowedWithParams"
	KindNumericNotFinite               Kind = "NumericNotFinite"
	KindIntegerOutOfRange              Kind = "IntegerOutOfRange"
	KindUnsupportedParamType           Kind = "UnsupportedParamType"
	KindFailedToParseHex               Kind = "FailedToParseHex"
	KindEmptyStringNotHex              Kind = "EmptyStringNotHex"
	KindIntegerOverflow                Kind = "IntegerOverflow"
	KindLeaderTimeout                  Kind = "LeaderTimeout"
	KindBusUnavailable                 Kind = "BusUnavailable"
	KindCanceled                       Kind = "Canceled"
)

// Error is the wire shape of {kind, msg, detail}. It must survive a JSON
// round-trip across the bus byte-for-byte, so followers and local callers
// observe an identical structure.
type Error struct {
	Kind   Kind            `json:"kind"`
	Msg    string          `json:"msg"`
	Detail json.RawMessage `json:"detail,omitempty"`
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil coordberr.Error>"
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// Is supports errors.Is(err, coordberr.New(kind, "")) comparisons by kind only.
func (e *Error) Is(target error) bool {
	var other *Error
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// New builds a *Error with no structured detail.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf builds a *Error with a formatted message.
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// WithDetail attaches arbitrary structured detail, marshaled to JSON.
func (e *Error) WithDetail(detail any) *Error {
	if detail == nil {
		return e
	}
	data, err := json.Marshal(detail)
	if err != nil {
		return e
	}
	cp := *e
	cp.Detail = data
	return &cp
}

// ParameterCountMismatch is the structured detail for KindParameterCountMismatch.
type ParameterCountMismatch struct {
	Expected int `json:"expected"`
	Got      int `json:"got"`
}

// MismatchError builds the ParameterCountMismatch error with its detail payload.
func MismatchError(expected, got int) *Error {
	return Newf(KindParameterCountMismatch, "expected %d parameters, got %d", expected, got).
		WithDetail(ParameterCountMismatch{Expected: expected, Got: got})
}

// OfKind reports whether err is a *Error of the given kind.
func OfKind(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}

// Wrap converts a non-structured error into a *Error of the given kind, used
// at the boundary where the native driver hands back a plain Go error. An
// error that already wraps a *Error is returned as that *Error unchanged.
func Wrap(kind Kind, err error) *Error {
	if err == nil {
		return nil
	}
	var existing *Error
	if errors.As(err, &existing) {
		return existing
	}
	return New(kind, err.Error())
}
