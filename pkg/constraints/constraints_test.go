package constraints

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkschema-go/linkschema/pkg/value"
)

func TestPatternConstraint(t *testing.T) {
	p, err := NewPattern(`^[a-z]+$`)
	require.NoError(t, err)
	assert.Empty(t, p.Validate(value.String("abc")))
	assert.NotEmpty(t, p.Validate(value.String("ABC")))
}

func TestRangeConstraint(t *testing.T) {
	min, max := 1.0, 10.0
	r := &Range{Min: &min, Max: &max}
	assert.Empty(t, r.Validate(value.Int(5)))
	assert.NotEmpty(t, r.Validate(value.Int(0)))
	assert.NotEmpty(t, r.Validate(value.Int(11)))
}

func TestRangeConstraintLexicographic(t *testing.T) {
	min, max := "apple", "mango"
	r := &Range{MinText: &min, MaxText: &max}
	assert.Empty(t, r.Validate(value.String("banana")))
	assert.NotEmpty(t, r.Validate(value.String("aardvark")))
	assert.NotEmpty(t, r.Validate(value.String("zebra")))
	assert.NotEmpty(t, r.Validate(value.Int(3)))
}

func TestTypeConstraintCoercesIntToFloat(t *testing.T) {
	ty := &Type{Allowed: []PrimitiveKind{KindFloat}, Coerce: true}
	assert.Empty(t, ty.Validate(value.Int(3)))

	strict := &Type{Allowed: []PrimitiveKind{KindFloat}, Coerce: false}
	assert.NotEmpty(t, strict.Validate(value.Int(3)))
}

func TestPermissibleValueConstraint(t *testing.T) {
	pv := &PermissibleValue{Allowed: []string{"red", "green", "blue"}}
	assert.Empty(t, pv.Validate(value.String("red")))
	assert.NotEmpty(t, pv.Validate(value.String("purple")))
}

func TestCombinators(t *testing.T) {
	min5 := 5.0
	max10 := 10.0
	lower := &Range{Min: &min5}
	upper := &Range{Max: &max10}

	anyOf := &AnyOf{Of: []Constraint{lower, upper}}
	assert.Empty(t, anyOf.Validate(value.Int(1))) // satisfies upper

	allOf := &AllOf{Of: []Constraint{lower, upper}}
	assert.Empty(t, allOf.Validate(value.Int(7)))
	assert.NotEmpty(t, allOf.Validate(value.Int(20)))

	exactlyOne := &ExactlyOneOf{Of: []Constraint{lower, upper}}
	assert.NotEmpty(t, exactlyOne.Validate(value.Int(7))) // satisfies both -> fails
	assert.Empty(t, exactlyOne.Validate(value.Int(20)))   // satisfies only lower

	noneOf := &NoneOf{Of: []Constraint{lower}}
	assert.Empty(t, noneOf.Validate(value.Int(1)))
	assert.NotEmpty(t, noneOf.Validate(value.Int(100)))
}

func TestStructuredPatternIgnoreCase(t *testing.T) {
	sp, err := NewStructuredPattern("^{prefix}-[0-9]+$", map[string]string{"prefix": "ID"}, true)
	require.NoError(t, err)
	assert.Empty(t, sp.Validate(value.String("id-123")))
	assert.NotEmpty(t, sp.Validate(value.String("XX-123")))
}
