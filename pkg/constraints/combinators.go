package constraints

import "github.com/linkschema-go/linkschema/pkg/value"

// AnyOf passes if at least one child constraint passes.
type AnyOf struct{ Of []Constraint }

func (c *AnyOf) Validate(v value.Value) []Violation {
	if len(c.Of) == 0 {
		return nil
	}
	var all []Violation
	for _, sub := range c.Of {
		viol := sub.Validate(v)
		if len(viol) == 0 {
			return nil
		}
		all = append(all, viol...)
	}
	return []Violation{{
		Message:  "value did not satisfy any of the allowed constraints",
		Expected: "any_of",
	}}
}

// AllOf passes only if every child constraint passes; violations from all
// failing children are reported together.
type AllOf struct{ Of []Constraint }

func (c *AllOf) Validate(v value.Value) []Violation {
	var out []Violation
	for _, sub := range c.Of {
		out = append(out, sub.Validate(v)...)
	}
	return out
}

// ExactlyOneOf passes only if precisely one child constraint passes.
type ExactlyOneOf struct{ Of []Constraint }

func (c *ExactlyOneOf) Validate(v value.Value) []Violation {
	passing := 0
	for _, sub := range c.Of {
		if len(sub.Validate(v)) == 0 {
			passing++
		}
	}
	if passing == 1 {
		return nil
	}
	return []Violation{{
		Message:  "value must satisfy exactly one of the allowed constraints",
		Expected: "exactly_one_of",
	}}
}

// NoneOf passes only if no child constraint passes.
type NoneOf struct{ Of []Constraint }

func (c *NoneOf) Validate(v value.Value) []Violation {
	for _, sub := range c.Of {
		if len(sub.Validate(v)) == 0 {
			return []Violation{{
				Message:  "value must not satisfy any of the forbidden constraints",
				Expected: "none_of",
			}}
		}
	}
	return nil
}
