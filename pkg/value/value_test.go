package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruthy(t *testing.T) {
	assert.False(t, Null().Truthy())
	assert.False(t, Bool(false).Truthy())
	assert.False(t, Int(0).Truthy())
	assert.False(t, Float(0).Truthy())
	assert.False(t, String("").Truthy())
	assert.False(t, List(nil).Truthy())
	assert.True(t, String("x").Truthy())
	assert.True(t, Int(1).Truthy())
}

func TestLen(t *testing.T) {
	n, ok := String("hello").Len()
	assert.True(t, ok)
	assert.Equal(t, 5, n)

	n, ok = List(nil).Len()
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = Null().Len()
	assert.False(t, ok, "len(null) must be undefined, not zero")
}

func TestEqualPromotesNumerics(t *testing.T) {
	assert.True(t, Equal(Int(3), Float(3.0)))
	assert.False(t, Equal(Int(3), String("3")))
}

func TestCompareUndefinedOnNull(t *testing.T) {
	_, ok := Compare(Null(), Int(1))
	assert.False(t, ok)

	r, ok := Compare(Int(1), Int(2))
	assert.True(t, ok)
	assert.Equal(t, -1, r)
}

func TestMapPreservesInsertionOrder(t *testing.T) {
	b := NewMap().Set("z", Int(1)).Set("a", Int(2)).Set("z", Int(3))
	v := b.Build()
	assert.Equal(t, []string{"z", "a"}, v.Keys())
	got, _ := v.Field("z")
	assert.Equal(t, Int(3), got)
}

func TestStableIsOrderIndependentForMaps(t *testing.T) {
	a := NewMap().Set("x", Int(1)).Set("y", Int(2)).Build()
	b := NewMap().Set("y", Int(2)).Set("x", Int(1)).Build()
	assert.Equal(t, Stable(a), Stable(b))
}
