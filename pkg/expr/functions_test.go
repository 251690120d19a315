package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkschema-go/linkschema/pkg/value"
)

func TestAggregationFunctions(t *testing.T) {
	v := mustEval(t, "sum([1,2,3,4,5])", nil)
	i, ok := v.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(15), i)

	v = mustEval(t, "avg([10,20,30])", nil)
	f, ok := v.AsFloat()
	require.True(t, ok)
	assert.Equal(t, 20.0, f)
}

func TestLenFunction(t *testing.T) {
	v := mustEval(t, `len("hello")`, nil)
	i, _ := v.AsInt()
	assert.Equal(t, int64(5), i)
}

func TestMatchesFunction(t *testing.T) {
	vars := Context{"email": value.String("a@b.co")}
	v := mustEval(t, `matches(email, "^\w+@\w+\.\w+$")`, vars)
	assert.True(t, v.Truthy())

	v = mustEval(t, `matches(email, "^not-an-email$")`, vars)
	assert.False(t, v.Truthy())
}

func TestStringFunctions(t *testing.T) {
	assert.Equal(t, "HELLO", strVal(t, mustEval(t, `upper("hello")`, nil)))
	assert.Equal(t, "hello", strVal(t, mustEval(t, `lower("HELLO")`, nil)))
	assert.True(t, mustEval(t, `starts_with("hello world", "hello")`, nil).Truthy())
	assert.True(t, mustEval(t, `ends_with("hello world", "world")`, nil).Truthy())
	assert.Equal(t, "hxllo", strVal(t, mustEval(t, `replace("hello", "e", "x")`, nil)))
}

func strVal(t *testing.T, v value.Value) string {
	t.Helper()
	s, ok := v.AsString()
	require.True(t, ok)
	return s
}

func TestMathFunctions(t *testing.T) {
	v := mustEval(t, "abs(-5)", nil)
	i, _ := v.AsInt()
	assert.Equal(t, int64(5), i)

	v = mustEval(t, "sqrt(9)", nil)
	f, _ := v.AsFloat()
	assert.Equal(t, 3.0, f)

	v = mustEval(t, "mod(10, 3)", nil)
	i, _ = v.AsInt()
	assert.Equal(t, int64(1), i)
}

func TestModByZeroIsDivisionByZero(t *testing.T) {
	e, err := Parse("mod(10, 0)")
	require.NoError(t, err)
	_, err = Eval(e, nil, Options{})
	require.Error(t, err)
	ee, ok := err.(*EvaluationError)
	require.True(t, ok)
	assert.Equal(t, ErrDivisionByZero, ee.Kind)
}

func TestUniqueFunction(t *testing.T) {
	v := mustEval(t, "unique([1,2,2,3,1])", nil)
	list, ok := v.AsList()
	require.True(t, ok)
	assert.Len(t, list, 3)
}

func TestRestrictedRegistryDropsNow(t *testing.T) {
	_, ok := RestrictedRegistry().lookup("now")
	assert.False(t, ok)
	_, ok = RestrictedRegistry().lookup("sum")
	assert.True(t, ok)
}

func TestUnknownFunctionIsTypeError(t *testing.T) {
	e, err := Parse("not_a_real_function(1)")
	require.NoError(t, err)
	_, err = Eval(e, nil, Options{})
	require.Error(t, err)
	ee, ok := err.(*EvaluationError)
	require.True(t, ok)
	assert.Equal(t, ErrTypeError, ee.Kind)
}
