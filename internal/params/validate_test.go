package params

import (
	"testing"

	"github.com/rainlanguage/sqlite-web/internal/coordberr"
	"github.com/stretchr/testify/require"
)

func TestValidate_SingleStatementNoParams(t *testing.T) {
	b, err := Validate("SELECT 1", nil)
	require.Nil(t, err)
	require.Equal(t, []string{"SELECT 1"}, b.Statements)
	require.Empty(t, b.Params)
}

func TestValidate_MultiStatementNoParams(t *testing.T) {
	b, err := Validate("SELECT 1; SELECT 2;", nil)
	require.Nil(t, err)
	require.Len(t, b.Statements, 2)
}

func TestValidate_MultiStatementWithParamsRejected(t *testing.T) {
	_, err := Validate("SELECT 1; SELECT 2;", []any{1})
	require.NotNil(t, err)
	require.Equal(t, coordberr.KindMultiStatementNotAllowedParams, err.Kind)
}

func TestValidate_ParamCountMismatch(t *testing.T) {
	_, err := Validate("SELECT * FROM t WHERE a = ?", []any{1, 2})
	require.NotNil(t, err)
	require.Equal(t, coordberr.KindParameterCountMismatch, err.Kind)
}

func TestValidate_NoPlaceholdersButParamsSupplied(t *testing.T) {
	_, err := Validate("SELECT 1", []any{1})
	require.NotNil(t, err)
	require.Equal(t, coordberr.KindNoParametersExpected, err.Kind)
}

func TestValidate_NamedParametersRejectedWhenArgsSupplied(t *testing.T) {
	_, err := Validate("SELECT * FROM t WHERE a = :name", []any{1})
	require.NotNil(t, err)
	require.Equal(t, coordberr.KindNamedParametersUnsupported, err.Kind)
}

func TestValidate_BindsAndNormalizesParams(t *testing.T) {
	b, err := Validate("SELECT * FROM t WHERE a = ? AND b = ?", []any{true, "x"})
	require.Nil(t, err)
	require.Equal(t, []any{int64(1), "x"}, b.Params)
}
