package linkschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const roundTripFixture = `
id: https://example.org/registry
name: registry
version: 1.2.0
default_prefix: reg
prefixes:
  reg: https://example.org/registry/
  skos: http://www.w3.org/2004/02/skos/core#
classes:
  Entity:
    abstract: true
    slots:
      - id
  Product:
    description: A sellable product
    is_a: Entity
    slots:
      - sku
      - price
      - color
    slot_usage:
      id:
        pattern: "^PRD-\\d+$"
        required: true
    rules:
      - description: expensive products need approval
        priority: 5
        preconditions:
          expression_conditions:
            - "price > 10000"
        postconditions:
          slot_conditions:
            approved_by:
              required: true
    unique_keys:
      sku_version:
        unique_key_slots:
          - sku
          - version
    if_required:
      us_shipping:
        if_field: country
        condition:
          equals_string: USA
        then_required:
          - state
slots:
  id:
    range: string
  sku:
    range: string
    required: true
  price:
    range: float
    minimum_value: 0.0
  color:
    range: Color
types:
  Money:
    base: float
    uri: xsd:decimal
    minimum_value: 0.0
enums:
  Color:
    permissible_values:
      RED:
        description: the color red
      GREEN:
      BLUE:
settings:
  validation.strict: true
  validation.rule_strategy: priority_groups
  validation.max_errors: 25
skos:note: a schema-level annotation
`

func TestEmitRoundTripIsFixedPoint(t *testing.T) {
	s1 := mustSchema(t, roundTripFixture)

	e1, err := Emit(s1)
	require.NoError(t, err)

	s2, issues, err := Parse(e1, ParseOptions{})
	require.NoError(t, err)
	assert.Empty(t, issues)

	e2, err := Emit(s2)
	require.NoError(t, err)
	assert.Equal(t, e1, e2, "emit(parse(emit(s))) must reproduce emit(s) byte for byte")
}

func TestEmitPreservesDocumentOrder(t *testing.T) {
	s1 := mustSchema(t, roundTripFixture)
	e1, err := Emit(s1)
	require.NoError(t, err)
	s2, _, err := Parse(e1, ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, s1.Classes.Keys(), s2.Classes.Keys())
	assert.Equal(t, s1.Slots.Keys(), s2.Slots.Keys())
	assert.Equal(t, s1.Prefixes.Keys(), s2.Prefixes.Keys())

	c1, _ := s1.Enums.Get("Color")
	c2, _ := s2.Enums.Get("Color")
	assert.Equal(t, c1.PermissibleValues.Keys(), c2.PermissibleValues.Keys())
}

func TestEmitSurvivesStructuralDetails(t *testing.T) {
	s1 := mustSchema(t, roundTripFixture)
	e1, err := Emit(s1)
	require.NoError(t, err)
	s2, _, err := Parse(e1, ParseOptions{})
	require.NoError(t, err)

	assert.Equal(t, s1.ID, s2.ID)
	assert.Equal(t, s1.Version, s2.Version)
	assert.Equal(t, s1.DefaultPrefix, s2.DefaultPrefix)
	assert.True(t, s2.Settings.ValidationStrict)
	assert.Equal(t, PriorityGroups, s2.Settings.ValidationRuleStrategy)
	assert.Equal(t, 25, s2.Settings.ValidationMaxErrors)

	note, ok := s2.Annotations.Get("skos:note")
	require.True(t, ok)
	str, _ := note.AsString()
	assert.Equal(t, "a schema-level annotation", str)

	p1, _ := s1.Classes.Get("Product")
	p2, _ := s2.Classes.Get("Product")
	assert.Equal(t, p1.IsA, p2.IsA)
	assert.Equal(t, p1.Slots, p2.Slots)
	require.Len(t, p2.Rules, 1)
	assert.Equal(t, []string{"price > 10000"}, p2.Rules[0].Preconditions.ExpressionConditions)
	require.Contains(t, p2.Rules[0].Postconditions.SlotConditions, "approved_by")
	cond := p2.Rules[0].Postconditions.SlotConditions["approved_by"]
	require.NotNil(t, cond.Required)
	assert.True(t, *cond.Required)

	uk, ok := p2.UniqueKeys.Get("sku_version")
	require.True(t, ok)
	assert.Equal(t, []string{"sku", "version"}, uk.Slots)

	req, ok := p2.IfRequired.Get("us_shipping")
	require.True(t, ok)
	assert.Equal(t, "country", req.IfField)
	require.NotNil(t, req.Condition.EqualsString)
	assert.Equal(t, "USA", *req.Condition.EqualsString)

	usage, ok := p2.SlotUsage["id"]
	require.True(t, ok)
	assert.Equal(t, `^PRD-\d+$`, usage.Range.Pattern)
	assert.True(t, usage.Required)

	m1, _ := s2.Types.Get("Money")
	assert.Equal(t, TagFloat, m1.Base)
	require.NotNil(t, m1.MinimumValue)
	require.NotNil(t, m1.MinimumValue.Number)
	assert.Equal(t, 0.0, *m1.MinimumValue.Number)
}

func TestEmitRejectsUnnamedSchema(t *testing.T) {
	_, err := Emit(NewSchema())
	require.Error(t, err)
	var sve *SchemaValidationError
	assert.ErrorAs(t, err, &sve)
}
