package linkschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkschema-go/linkschema/pkg/value"
)

func mustEngine(t *testing.T, text string) *Engine {
	t.Helper()
	engine, err := NewEngine(mustSchema(t, text), nil)
	require.NoError(t, err)
	return engine
}

func mustInstance(t *testing.T, text string) value.Value {
	t.Helper()
	v, err := ParseInstance(text)
	require.NoError(t, err)
	return v
}

func issueCodes(r *Report) []string {
	out := make([]string, 0, len(r.Issues))
	for _, issue := range r.Issues {
		out = append(out, issue.Code)
	}
	return out
}

func TestScenarioRequiredAndPattern(t *testing.T) {
	engine := mustEngine(t, `
name: people
classes:
  Person:
    slots:
      - id
      - name
slots:
  id:
    range: string
    identifier: true
    pattern: "^P\\d{4}$"
  name:
    range: string
    required: true
`)

	good, err := engine.ValidateAsClass(mustInstance(t, `{"id":"P0001","name":"Ada"}`), "Person", nil)
	require.NoError(t, err)
	assert.True(t, good.Valid)
	assert.Empty(t, good.Issues)

	bad, err := engine.ValidateAsClass(mustInstance(t, `{"id":"X","name":null}`), "Person", nil)
	require.NoError(t, err)
	assert.False(t, bad.Valid)
	codes := issueCodes(bad)
	assert.Contains(t, codes, "data.pattern")
	assert.Contains(t, codes, "data.required")
}

func TestScenarioInheritedSlotUsageOverride(t *testing.T) {
	engine := mustEngine(t, `
name: registry
classes:
  Entity:
    slots:
      - id
  Person:
    is_a: Entity
    slots:
      - name
    slot_usage:
      id:
        pattern: "^P\\d{4}$"
slots:
  id:
    range: string
  name:
    range: string
`)

	good, err := engine.ValidateAsClass(mustInstance(t, `{"id":"P0007","name":"Ada"}`), "Person", nil)
	require.NoError(t, err)
	assert.True(t, good.Valid)

	bad, err := engine.ValidateAsClass(mustInstance(t, `{"id":"Q","name":"Ada"}`), "Person", nil)
	require.NoError(t, err)
	assert.False(t, bad.Valid)
	assert.Contains(t, issueCodes(bad), "data.pattern")
}

func TestScenarioConditionalRequirement(t *testing.T) {
	engine := mustEngine(t, `
name: shipping
classes:
  Address:
    slots:
      - country
      - state
      - postal_code
    if_required:
      country_us:
        if_field: country
        condition:
          equals_string: USA
        then_required:
          - state
          - postal_code
slots:
  country:
    range: string
  state:
    range: string
  postal_code:
    range: string
`)

	us, err := engine.ValidateAsClass(mustInstance(t, `{"country":"USA"}`), "Address", nil)
	require.NoError(t, err)
	assert.False(t, us.Valid)
	var missing []string
	for _, issue := range us.Issues {
		if issue.Code == "data.conditional_required" {
			missing = append(missing, issue.Path)
		}
	}
	assert.ElementsMatch(t, []string{"Address.state", "Address.postal_code"}, missing)

	ca, err := engine.ValidateAsClass(mustInstance(t, `{"country":"CA"}`), "Address", nil)
	require.NoError(t, err)
	assert.True(t, ca.Valid)
}

func TestScenarioEnumPermissibleValuesCaseSensitive(t *testing.T) {
	engine := mustEngine(t, `
name: palette
classes:
  Paint:
    slots:
      - color
slots:
  color:
    range: Color
enums:
  Color:
    permissible_values:
      RED:
      GREEN:
      BLUE:
`)

	good, err := engine.ValidateAsClass(mustInstance(t, `{"color":"RED"}`), "Paint", nil)
	require.NoError(t, err)
	assert.True(t, good.Valid)

	bad, err := engine.ValidateAsClass(mustInstance(t, `{"color":"red"}`), "Paint", nil)
	require.NoError(t, err)
	assert.False(t, bad.Valid)
	assert.Contains(t, issueCodes(bad), "data.enum")
}

func TestScenarioLexicographicStringRange(t *testing.T) {
	engine := mustEngine(t, `
name: library
classes:
  Shelf:
    slots:
      - section
slots:
  section:
    range: string
    minimum_value: aa
    maximum_value: mm
`)

	good, err := engine.ValidateAsClass(mustInstance(t, `{"section":"cc"}`), "Shelf", nil)
	require.NoError(t, err)
	assert.True(t, good.Valid)

	bad, err := engine.ValidateAsClass(mustInstance(t, `{"section":"zz"}`), "Shelf", nil)
	require.NoError(t, err)
	assert.False(t, bad.Valid)
	assert.Contains(t, issueCodes(bad), "data.range")
}

func TestScenarioRuleStrategyFromSettings(t *testing.T) {
	schema := mustSchema(t, `
name: s
settings:
  validation.rule_strategy: priority_groups
  validation.fail_fast: true
`)
	assert.Equal(t, PriorityGroups, schema.Settings.ValidationRuleStrategy)
	assert.True(t, schema.Settings.ValidationFailFast)

	vo := resolveOptions(nil, schema.Settings)
	assert.Equal(t, PriorityGroups, vo.RuleStrategy)

	parallel := ParallelIndependent
	vo = resolveOptions(&Options{RuleStrategy: &parallel}, schema.Settings)
	assert.Equal(t, ParallelIndependent, vo.RuleStrategy)
}

func TestScenarioRuleWithExpressionPrecondition(t *testing.T) {
	engine := mustEngine(t, `
name: orders
classes:
  Order:
    slots:
      - total_amount
      - status
      - approved_by
    rules:
      - description: large orders need approval
        preconditions:
          expression_conditions:
            - "total_amount > 10000"
        postconditions:
          slot_conditions:
            approved_by:
              required: true
slots:
  total_amount:
    range: float
  status:
    range: string
  approved_by:
    range: string
`)

	unapproved, err := engine.ValidateAsClass(
		mustInstance(t, `{"total_amount":15000,"status":"approved"}`), "Order", nil)
	require.NoError(t, err)
	assert.False(t, unapproved.Valid)

	approved, err := engine.ValidateAsClass(
		mustInstance(t, `{"total_amount":15000,"status":"approved","approved_by":"Q"}`), "Order", nil)
	require.NoError(t, err)
	assert.True(t, approved.Valid)

	small, err := engine.ValidateAsClass(
		mustInstance(t, `{"total_amount":500,"status":"pending"}`), "Order", nil)
	require.NoError(t, err)
	assert.True(t, small.Valid)
}

func TestScenarioCompositeUniqueKeyInCollection(t *testing.T) {
	engine := mustEngine(t, `
name: catalog
classes:
  Product:
    slots:
      - sku
      - version
    unique_keys:
      sku_version:
        unique_key_slots:
          - sku
          - version
slots:
  sku:
    range: string
  version:
    range: integer
`)

	instances := []value.Value{
		mustInstance(t, `{"sku":"A","version":1}`),
		mustInstance(t, `{"sku":"A","version":2}`),
		mustInstance(t, `{"sku":"A","version":1}`),
	}
	report, err := engine.ValidateCollection(instances, "Product", nil)
	require.NoError(t, err)
	assert.False(t, report.Valid)

	var dupes []Issue
	for _, issue := range report.Issues {
		if issue.Code == "unique.composite" {
			dupes = append(dupes, issue)
		}
	}
	require.Len(t, dupes, 1, "only the third element repeats an earlier tuple")
	assert.Equal(t, "Product[2]", dupes[0].Path)
}

func TestScenarioUniqueKeyTupleWithMissingMemberNeverCollides(t *testing.T) {
	engine := mustEngine(t, `
name: catalog
classes:
  Product:
    slots:
      - sku
      - version
    unique_keys:
      sku_version:
        unique_key_slots:
          - sku
          - version
slots:
  sku:
    range: string
  version:
    range: integer
`)

	instances := []value.Value{
		mustInstance(t, `{"sku":"A"}`),
		mustInstance(t, `{"sku":"A"}`),
	}
	report, err := engine.ValidateCollection(instances, "Product", nil)
	require.NoError(t, err)
	assert.NotContains(t, issueCodes(report), "unique.composite")
}

func TestValidateTypedDecodesOnValidReport(t *testing.T) {
	engine := mustEngine(t, `
name: people
classes:
  Person:
    slots:
      - name
      - age
slots:
  name:
    range: string
    required: true
  age:
    range: integer
`)

	type person struct {
		Name string `yaml:"name"`
		Age  int    `yaml:"age"`
	}

	got, report, err := ValidateTyped[person](engine, mustInstance(t, `{"name":"Ada","age":36}`), "Person", nil)
	require.NoError(t, err)
	assert.True(t, report.Valid)
	assert.Equal(t, person{Name: "Ada", Age: 36}, got)

	_, report, err = ValidateTyped[person](engine, mustInstance(t, `{"age":1}`), "Person", nil)
	require.Error(t, err)
	var vfe *ValidationFailedError
	require.ErrorAs(t, err, &vfe)
	assert.False(t, report.Valid)
}
