package linkschema

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/linkschema-go/linkschema/pkg/expr"
	"github.com/linkschema-go/linkschema/pkg/value"
)

// ruleCorrelationID derives a stable synthetic identifier for a rule that
// has no description, so issues from two distinct anonymous rules at
// different positions in a class's effective rule list can still be told
// apart (spec §3.1 Rule.description is optional). Built with
// uuid.NewSHA1 rather than uuid.New so the id is a pure function of
// (index, priority) and two validation runs over the same schema
// produce byte-identical reports (spec §8.1 "Deterministic reports").
func ruleCorrelationID(idx int, rule Rule) string {
	seed := fmt.Sprintf("rule[%d]:%d", idx, rulePriority(rule))
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(seed)).String()
}

// ExecutionStrategy controls how a class's rules execute (spec §4.10):
// Sequential runs rules one at a time in priority order and is the only
// safe choice when a rule computes a value a later rule consumes;
// ParallelIndependent evaluates every rule concurrently (opt-in, rules
// must be independent); PriorityGroups runs descending-priority groups in
// order and, under fail_fast, stops after the first group that produced a
// failure. Selected per call via Options.RuleStrategy or schema-wide via
// the validation.rule_strategy setting.
type ExecutionStrategy int

const (
	Sequential ExecutionStrategy = iota
	ParallelIndependent
	PriorityGroups
)

func (s ExecutionStrategy) String() string {
	switch s {
	case ParallelIndependent:
		return "parallel_independent"
	case PriorityGroups:
		return "priority_groups"
	default:
		return "sequential"
	}
}

// ruleStrategyFromName maps a validation.rule_strategy setting value to
// its ExecutionStrategy; unrecognized names fall back to Sequential.
func ruleStrategyFromName(name string) ExecutionStrategy {
	switch name {
	case "parallel_independent":
		return ParallelIndependent
	case "priority_groups":
		return PriorityGroups
	default:
		return Sequential
	}
}

// EvaluateConditions reports whether cond holds against instance, per spec
// §4.10: slot_conditions are evaluated against the instance's current field
// values, expression_conditions are parsed and evaluated by pkg/expr, and
// composite_conditions recombine sub-Conditions with a boolean operator.
// All forms present on one Conditions value must agree (AND) for it to hold.
func EvaluateConditions(cond *Conditions, instance value.Value, eopts expr.Options) (bool, error) {
	if cond == nil {
		return true, nil
	}

	for slotName, se := range cond.SlotConditions {
		fv, _ := instance.Field(slotName)
		if !Satisfies(se, fv) {
			return false, nil
		}
	}

	for _, src := range cond.ExpressionConditions {
		ex, err := expr.Parse(src)
		if err != nil {
			return false, err
		}
		result, err := expr.Eval(ex, exprContextFromInstance(instance), eopts)
		if err != nil {
			return false, err
		}
		if !result.Truthy() {
			return false, nil
		}
	}

	if len(cond.CompositeParts) > 0 {
		results := make([]bool, len(cond.CompositeParts))
		for i := range cond.CompositeParts {
			part := cond.CompositeParts[i]
			ok, err := EvaluateConditions(&part, instance, eopts)
			if err != nil {
				return false, err
			}
			results[i] = ok
		}
		switch cond.CompositeOp {
		case CompAllOf:
			for _, r := range results {
				if !r {
					return false, nil
				}
			}
			return true, nil
		case CompAnyOf:
			for _, r := range results {
				if r {
					return true, nil
				}
			}
			return false, nil
		case CompExactlyOneOf:
			n := 0
			for _, r := range results {
				if r {
					n++
				}
			}
			return n == 1, nil
		case CompNoneOf:
			for _, r := range results {
				if r {
					return false, nil
				}
			}
			return true, nil
		}
	}

	return true, nil
}

func exprContextFromInstance(instance value.Value) expr.Context {
	ctx := expr.Context{}
	for _, k := range instance.Keys() {
		v, _ := instance.Field(k)
		ctx[k] = v
	}
	return ctx
}

// RuleExecution configures how ApplyRulesWithStrategy runs a rule list.
type RuleExecution struct {
	Strategy ExecutionStrategy
	FailFast bool
}

// ApplyRules runs className's effective rules (already priority-ordered by
// Resolver.EffectiveRules) against instance with the default Sequential
// strategy, reporting postcondition or else_condition violations as
// Issues (spec §4.10). Deactivated rules are skipped. A rule with no
// preconditions always fires its postconditions. A rule whose expression
// text fails to parse or evaluate is marked failed with an Issue; the
// remaining rules still run (spec §7).
func ApplyRules(rules []Rule, instance value.Value, path string, eopts expr.Options) ([]Issue, error) {
	return ApplyRulesWithStrategy(rules, instance, path, eopts, RuleExecution{})
}

// ApplyRulesWithStrategy runs the rule list under the configured
// execution strategy (spec §4.10 item 5).
func ApplyRulesWithStrategy(rules []Rule, instance value.Value, path string, eopts expr.Options, exec RuleExecution) ([]Issue, error) {
	switch exec.Strategy {
	case ParallelIndependent:
		return applyRulesParallel(rules, instance, path, eopts), nil
	case PriorityGroups:
		return applyRulesPriorityGroups(rules, instance, path, eopts, exec.FailFast), nil
	default:
		return applyRulesSequential(rules, instance, path, eopts), nil
	}
}

// evalRule runs one rule end to end and returns its issues. idx is the
// rule's position in the effective list, used for anonymous-rule
// correlation ids.
func evalRule(idx int, rule Rule, instance value.Value, path string, eopts expr.Options) []Issue {
	if rule.Deactivated {
		return nil
	}
	ruleDesc := rule.Description
	if ruleDesc == "" {
		ruleDesc = ruleCorrelationID(idx, rule)
	}
	holds, err := EvaluateConditions(rule.Preconditions, instance, eopts)
	if err != nil {
		return []Issue{expressionFailureIssue(err, path, ruleDesc)}
	}
	var branch *Conditions
	if holds {
		branch = rule.Postconditions
	} else {
		branch = rule.ElseConditions
	}
	if branch == nil {
		return nil
	}
	issues, err := conditionsToIssues(branch, instance, path, ruleDesc, eopts)
	if err != nil {
		issues = append(issues, expressionFailureIssue(err, path, ruleDesc))
	}
	return issues
}

func applyRulesSequential(rules []Rule, instance value.Value, path string, eopts expr.Options) []Issue {
	var issues []Issue
	for idx, rule := range rules {
		issues = append(issues, evalRule(idx, rule, instance, path, eopts)...)
	}
	return issues
}

// applyRulesParallel evaluates every rule concurrently. Only safe when no
// rule produces a value another rule consumes (spec §4.10); results
// collect per rule index and flatten in declaration order so the report
// stays deterministic (spec §5).
func applyRulesParallel(rules []Rule, instance value.Value, path string, eopts expr.Options) []Issue {
	results := make([][]Issue, len(rules))
	var wg sync.WaitGroup
	for idx := range rules {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = evalRule(i, rules[i], instance, path, eopts)
		}(idx)
	}
	wg.Wait()
	var issues []Issue
	for _, r := range results {
		issues = append(issues, r...)
	}
	return issues
}

// applyRulesPriorityGroups executes rules group by group in descending
// priority (the list arrives priority-sorted from EffectiveRules); under
// failFast, the first group that produced a failing rule short-circuits
// the remaining groups.
func applyRulesPriorityGroups(rules []Rule, instance value.Value, path string, eopts expr.Options, failFast bool) []Issue {
	var issues []Issue
	for start := 0; start < len(rules); {
		end := start + 1
		for end < len(rules) && rulePriority(rules[end]) == rulePriority(rules[start]) {
			end++
		}
		before := len(issues)
		for i := start; i < end; i++ {
			issues = append(issues, evalRule(i, rules[i], instance, path, eopts)...)
		}
		if failFast && len(issues) > before {
			break
		}
		start = end
	}
	return issues
}

func rulePriority(rule Rule) int {
	if rule.Priority == nil {
		return 0
	}
	return *rule.Priority
}

// expressionFailureIssue converts a rule's expression parse or evaluation
// error into the Issue that marks the rule failed (spec §7: "Mark rule as
// failed with message; other rules proceed").
func expressionFailureIssue(err error, path, ruleDesc string) Issue {
	code := "expression.error"
	var pe *expr.ParseError
	if errors.As(err, &pe) {
		code = "expression.parse"
	}
	return Issue{
		Severity:      Error,
		Message:       "rule expression failed: " + err.Error(),
		Path:          path,
		ValidatorName: "Rule",
		Code:          code,
		Context:       map[string]any{"rule": ruleDesc},
	}
}

// conditionsToIssues evaluates branch as a requirement rather than a
// predicate: every slot_condition and expression_condition that fails
// produces an Issue, instead of short-circuiting on the first failure, so
// a rule violation reports everything it expected. ruleDesc is either the
// rule's own description or, for an anonymous rule, its ruleCorrelationID.
func conditionsToIssues(branch *Conditions, instance value.Value, path, ruleDesc string, eopts expr.Options) ([]Issue, error) {
	var issues []Issue
	for slotName, se := range branch.SlotConditions {
		fv, _ := instance.Field(slotName)
		if violations := EvaluateSlotExpression(se, fv); len(violations) > 0 {
			issues = append(issues, Issue{
				Severity:      Error,
				Message:       "rule postcondition not satisfied for " + slotName,
				Path:          path + "." + slotName,
				ValidatorName: "Rule",
				Code:          "rule.postcondition",
				Context:       map[string]any{"rule": ruleDesc},
			})
		}
	}
	for _, src := range branch.ExpressionConditions {
		ex, err := expr.Parse(src)
		if err != nil {
			return issues, err
		}
		result, err := expr.Eval(ex, exprContextFromInstance(instance), eopts)
		if err != nil {
			return issues, err
		}
		if !result.Truthy() {
			issues = append(issues, Issue{
				Severity:      Error,
				Message:       "rule postcondition expression not satisfied: " + src,
				Path:          path,
				ValidatorName: "Rule",
				Code:          "rule.postcondition",
				Context:       map[string]any{"rule": ruleDesc},
			})
		}
	}
	for _, part := range branch.CompositeParts {
		part := part
		sub, err := conditionsToIssues(&part, instance, path, ruleDesc, eopts)
		if err != nil {
			return issues, err
		}
		issues = append(issues, sub...)
	}
	return issues, nil
}
