package linkschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildInheritanceSchema(t *testing.T) *Schema {
	t.Helper()
	text := `
name: s
classes:
  Named:
    slots:
      - name
  Timestamped:
    slots:
      - created_at
  Person:
    is_a: Named
    mixins:
      - Timestamped
    slots:
      - age
    slot_usage:
      name:
        required: true
  Employee:
    is_a: Person
    slots:
      - salary
    slot_usage:
      age:
        minimum_value: 18
slots:
  name:
    range: string
  created_at:
    range: string
  age:
    range: integer
  salary:
    range: float
`
	schema, _, err := Parse(text, ParseOptions{})
	require.NoError(t, err)
	return schema
}

func TestAncestorsBaseFirst(t *testing.T) {
	schema := buildInheritanceSchema(t)
	r, err := NewResolver(schema)
	require.NoError(t, err)

	ancestors, err := r.AncestorsBaseFirst("Employee")
	require.NoError(t, err)
	assert.Equal(t, []string{"Named", "Timestamped", "Person"}, ancestors)
}

func TestEffectiveSlotsDedupAndOrder(t *testing.T) {
	schema := buildInheritanceSchema(t)
	r, err := NewResolver(schema)
	require.NoError(t, err)

	slots, err := r.EffectiveSlots("Employee")
	require.NoError(t, err)
	assert.Equal(t, []string{"name", "created_at", "age", "salary"}, slots)
}

func TestEffectiveSlotDefinitionAppliesAncestorOverridesInOrder(t *testing.T) {
	schema := buildInheritanceSchema(t)
	r, err := NewResolver(schema)
	require.NoError(t, err)

	nameDef, err := r.EffectiveSlotDefinition("Employee", "name")
	require.NoError(t, err)
	assert.True(t, nameDef.Required, "required override from Person must survive to Employee")

	ageDef, err := r.EffectiveSlotDefinition("Employee", "age")
	require.NoError(t, err)
	require.NotNil(t, ageDef.Range.MinimumValue)
	require.NotNil(t, ageDef.Range.MinimumValue.Number)
	assert.Equal(t, 18.0, *ageDef.Range.MinimumValue.Number)
}

func TestEffectiveSlotDefinitionIdentifierImpliesRequired(t *testing.T) {
	schema, _, err := Parse(`
name: s
classes:
  Widget:
    slot_usage:
      id:
        identifier: true
slots:
  id:
    range: string
`, ParseOptions{})
	require.NoError(t, err)
	r, err := NewResolver(schema)
	require.NoError(t, err)

	def, err := r.EffectiveSlotDefinition("Widget", "id")
	require.NoError(t, err)
	assert.True(t, def.Identifier)
	assert.True(t, def.Required)
}

func TestNewResolverDetectsInheritanceCycle(t *testing.T) {
	schema := NewSchema()
	schema.Name = "s"
	a := NewClass("A")
	a.IsA = "B"
	b := NewClass("B")
	b.IsA = "A"
	schema.Classes.Set("A", a)
	schema.Classes.Set("B", b)

	_, err := NewResolver(schema)
	require.Error(t, err)
	var serr *SchemaValidationError
	require.ErrorAs(t, err, &serr)
}

func TestNewResolverDetectsUnknownAncestor(t *testing.T) {
	schema := NewSchema()
	schema.Name = "s"
	c := NewClass("C")
	c.IsA = "Nonexistent"
	schema.Classes.Set("C", c)

	_, err := NewResolver(schema)
	require.Error(t, err)
	var serr *SchemaValidationError
	require.ErrorAs(t, err, &serr)
}

func TestEffectiveRulesSortedByPriorityStable(t *testing.T) {
	low := 1
	high := 10
	schema := NewSchema()
	schema.Name = "s"
	base := NewClass("Base")
	base.Rules = []Rule{{Description: "base-low", Priority: &low}}
	derived := NewClass("Derived")
	derived.IsA = "Base"
	derived.Rules = []Rule{
		{Description: "derived-high", Priority: &high},
		{Description: "derived-high-2", Priority: &high},
	}
	schema.Classes.Set("Base", base)
	schema.Classes.Set("Derived", derived)

	r, err := NewResolver(schema)
	require.NoError(t, err)
	rules, err := r.EffectiveRules("Derived")
	require.NoError(t, err)
	require.Len(t, rules, 3)
	assert.Equal(t, "derived-high", rules[0].Description)
	assert.Equal(t, "derived-high-2", rules[1].Description)
	assert.Equal(t, "base-low", rules[2].Description)
}
