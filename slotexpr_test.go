package linkschema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkschema-go/linkschema/pkg/value"
)

func bp(b bool) *bool     { return &b }
func ip(i int) *int       { return &i }
func sp(s string) *string { return &s }

func TestEvaluateSlotExpressionPattern(t *testing.T) {
	se := SlotExpression{Pattern: `^[A-Z]{2}\d{4}$`}
	assert.Empty(t, EvaluateSlotExpression(se, value.String("AB1234")))
	assert.NotEmpty(t, EvaluateSlotExpression(se, value.String("ab1234")))
}

func TestEvaluateSlotExpressionRange(t *testing.T) {
	se := SlotExpression{MinimumValue: NumberBound(0), MaximumValue: NumberBound(100)}
	assert.Empty(t, EvaluateSlotExpression(se, value.Int(50)))
	assert.NotEmpty(t, EvaluateSlotExpression(se, value.Int(101)))
}

func TestEvaluateSlotExpressionLexicographicRange(t *testing.T) {
	se := SlotExpression{MinimumValue: TextBound("apple"), MaximumValue: TextBound("mango")}
	assert.Empty(t, EvaluateSlotExpression(se, value.String("banana")))
	assert.NotEmpty(t, EvaluateSlotExpression(se, value.String("zebra")))
	assert.NotEmpty(t, EvaluateSlotExpression(se, value.String("aardvark")))
	assert.NotEmpty(t, EvaluateSlotExpression(se, value.Int(5)), "numeric value against a string-typed range is a violation")
}

func TestEvaluateSlotExpressionCombinators(t *testing.T) {
	a := SlotExpression{EqualsString: sp("a")}
	b := SlotExpression{EqualsString: sp("b")}

	any := SlotExpression{AnyOf: []SlotExpression{a, b}}
	assert.True(t, Satisfies(any, value.String("a")))
	assert.True(t, Satisfies(any, value.String("b")))
	assert.False(t, Satisfies(any, value.String("c")))

	exactly := SlotExpression{ExactlyOneOf: []SlotExpression{a, b}}
	assert.True(t, Satisfies(exactly, value.String("a")))

	none := SlotExpression{NoneOf: []SlotExpression{a, b}}
	assert.True(t, Satisfies(none, value.String("c")))
	assert.False(t, Satisfies(none, value.String("a")))
}

func TestEvaluateSlotExpressionCardinality(t *testing.T) {
	se := SlotExpression{MinimumCardinality: ip(1), MaximumCardinality: ip(3)}
	assert.Empty(t, EvaluateSlotExpression(se, value.List([]value.Value{value.Int(1), value.Int(2)})))
	assert.NotEmpty(t, EvaluateSlotExpression(se, value.List(nil)))
	assert.NotEmpty(t, EvaluateSlotExpression(se, value.List([]value.Value{value.Int(1), value.Int(2), value.Int(3), value.Int(4)})))
}

func TestEvaluateSlotExpressionRequired(t *testing.T) {
	se := SlotExpression{Required: bp(true)}
	assert.NotEmpty(t, EvaluateSlotExpression(se, value.Null()))
	assert.Empty(t, EvaluateSlotExpression(se, value.String("x")))
}
