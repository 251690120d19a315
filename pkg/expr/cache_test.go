package expr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkschema-go/linkschema/pkg/value"
)

func TestCacheHitMatchesFreshEvaluation(t *testing.T) {
	e, err := Parse("x * 2")
	require.NoError(t, err)
	c := NewCache(16)
	vars := Context{"x": value.Int(21)}

	v1, err := c.EvalCached(e, vars, Options{})
	require.NoError(t, err)
	v2, err := c.EvalCached(e, vars, Options{})
	require.NoError(t, err)

	assert.True(t, value.Equal(v1, v2))
	assert.Equal(t, 1, c.Len())
}

func TestCacheDistinguishesContexts(t *testing.T) {
	e, err := Parse("x * 2")
	require.NoError(t, err)
	c := NewCache(16)

	v1, _ := c.EvalCached(e, Context{"x": value.Int(1)}, Options{})
	v2, _ := c.EvalCached(e, Context{"x": value.Int(2)}, Options{})

	i1, _ := v1.AsInt()
	i2, _ := v2.AsInt()
	assert.NotEqual(t, i1, i2)
	assert.Equal(t, 2, c.Len())
}

func TestDisabledCacheNeverStores(t *testing.T) {
	e, err := Parse("1 + 1")
	require.NoError(t, err)
	c := NewCache(0)
	_, err = c.EvalCached(e, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())
}
