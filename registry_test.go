package linkschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectValidatorsMatchesSlotShape(t *testing.T) {
	plain := Slot{Name: "plain", RangeName: "string", Range: SlotExpression{Range: "string"}}
	set := SelectValidators(plain, false)
	assert.True(t, set.Type)
	assert.False(t, set.Pattern)
	assert.False(t, set.Range)

	constrained := Slot{
		Name:        "constrained",
		RangeName:   "Color",
		Required:    true,
		Multivalued: true,
		Range: SlotExpression{
			Range:              "Color",
			Pattern:            "^x",
			MinimumValue:       NumberBound(1),
			MinimumCardinality: ip(1),
			AnyOf:              []SlotExpression{{Pattern: "a"}},
		},
	}
	set = SelectValidators(constrained, true)
	assert.True(t, set.Required)
	assert.True(t, set.Multivalued)
	assert.True(t, set.Type)
	assert.True(t, set.PermissibleValue)
	assert.True(t, set.Pattern)
	assert.True(t, set.Range)
	assert.True(t, set.Combinator)
	assert.True(t, set.Cardinality)
	assert.Equal(t, 8, set.Count())
}

func TestValidateReportCountsValidatorsExecuted(t *testing.T) {
	engine := mustEngine(t, `
name: s
classes:
  Person:
    slots:
      - name
slots:
  name:
    range: string
    required: true
`)
	report, err := engine.ValidateAsClass(mustInstance(t, `{"name":"Ada"}`), "Person", nil)
	assert.NoError(t, err)
	assert.Greater(t, report.Stats.ValidatorsExecuted, 0)
}
