package linkschema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linkschema-go/linkschema/pkg/expr"
	"github.com/linkschema-go/linkschema/pkg/value"
)

func TestEvaluateConditionsExpression(t *testing.T) {
	cond := &Conditions{
		Kind:                 CondExpression,
		ExpressionConditions: []string{"total_amount > 10000"},
	}
	instance := value.NewMap().Set("total_amount", value.Int(20000)).Build()
	ok, err := EvaluateConditions(cond, instance, expr.Options{})
	require.NoError(t, err)
	assert.True(t, ok)

	small := value.NewMap().Set("total_amount", value.Int(5)).Build()
	ok, err = EvaluateConditions(cond, small, expr.Options{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestEvaluateConditionsSlotConditions(t *testing.T) {
	cond := &Conditions{
		Kind: CondSlot,
		SlotConditions: map[string]SlotExpression{
			"status": {EqualsString: sp("approved")},
		},
	}
	approved := value.NewMap().Set("status", value.String("approved")).Build()
	ok, err := EvaluateConditions(cond, approved, expr.Options{})
	require.NoError(t, err)
	assert.True(t, ok)

	pending := value.NewMap().Set("status", value.String("pending")).Build()
	ok, err = EvaluateConditions(cond, pending, expr.Options{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestApplyRulesPostconditionFires(t *testing.T) {
	priority := 10
	rules := []Rule{
		{
			Description: "large orders require approval",
			Priority:    &priority,
			Preconditions: &Conditions{
				Kind:                 CondExpression,
				ExpressionConditions: []string{"total_amount > 10000"},
			},
			Postconditions: &Conditions{
				Kind:           CondSlot,
				SlotConditions: map[string]SlotExpression{"approved_by": {Required: bp(true)}},
			},
		},
	}

	unapproved := value.NewMap().Set("total_amount", value.Int(20000)).Build()
	issues, err := ApplyRules(rules, unapproved, "Order", expr.Options{})
	require.NoError(t, err)
	assert.Len(t, issues, 1)
	assert.Equal(t, "rule.postcondition", issues[0].Code)

	approved := value.NewMap().Set("total_amount", value.Int(20000)).Set("approved_by", value.String("mgr")).Build()
	issues, err = ApplyRules(rules, approved, "Order", expr.Options{})
	require.NoError(t, err)
	assert.Empty(t, issues)

	small := value.NewMap().Set("total_amount", value.Int(5)).Build()
	issues, err = ApplyRules(rules, small, "Order", expr.Options{})
	require.NoError(t, err)
	assert.Empty(t, issues)
}

func TestApplyRulesPriorityGroupsFailFastShortCircuits(t *testing.T) {
	high := 10
	low := 1
	failing := func(prio *int, desc string) Rule {
		return Rule{
			Description: desc,
			Priority:    prio,
			Postconditions: &Conditions{
				Kind:           CondSlot,
				SlotConditions: map[string]SlotExpression{"missing": {Required: bp(true)}},
			},
		}
	}
	rules := []Rule{failing(&high, "high"), failing(&low, "low")}
	instance := value.NewMap().Build()

	sequential, err := ApplyRulesWithStrategy(rules, instance, "C", expr.Options{}, RuleExecution{})
	require.NoError(t, err)
	assert.Len(t, sequential, 2)

	grouped, err := ApplyRulesWithStrategy(rules, instance, "C", expr.Options{}, RuleExecution{
		Strategy: PriorityGroups,
		FailFast: true,
	})
	require.NoError(t, err)
	require.Len(t, grouped, 1, "the failing high-priority group must short-circuit the low-priority group")
	assert.Equal(t, "high", grouped[0].Context["rule"])

	// without fail_fast every group still runs
	grouped, err = ApplyRulesWithStrategy(rules, instance, "C", expr.Options{}, RuleExecution{Strategy: PriorityGroups})
	require.NoError(t, err)
	assert.Len(t, grouped, 2)
}

func TestApplyRulesParallelIndependentMatchesSequential(t *testing.T) {
	p1, p2 := 2, 1
	rules := []Rule{
		{
			Description: "amount-floor",
			Priority:    &p1,
			Postconditions: &Conditions{
				Kind:                 CondExpression,
				ExpressionConditions: []string{"amount > 100"},
			},
		},
		{
			Description: "status-set",
			Priority:    &p2,
			Postconditions: &Conditions{
				Kind:           CondSlot,
				SlotConditions: map[string]SlotExpression{"status": {Required: bp(true)}},
			},
		},
	}
	instance := value.NewMap().Set("amount", value.Int(5)).Build()

	sequential, err := ApplyRulesWithStrategy(rules, instance, "C", expr.Options{}, RuleExecution{})
	require.NoError(t, err)
	parallel, err := ApplyRulesWithStrategy(rules, instance, "C", expr.Options{}, RuleExecution{Strategy: ParallelIndependent})
	require.NoError(t, err)
	assert.Equal(t, sequential, parallel, "independent rules must report identical issues in declaration order")
}

func TestApplyRulesSkipsDeactivated(t *testing.T) {
	rules := []Rule{
		{
			Deactivated:   true,
			Preconditions: nil,
			Postconditions: &Conditions{
				Kind:           CondSlot,
				SlotConditions: map[string]SlotExpression{"x": {Required: bp(true)}},
			},
		},
	}
	issues, err := ApplyRules(rules, value.NewMap().Build(), "C", expr.Options{})
	require.NoError(t, err)
	assert.Empty(t, issues)
}
