package linkschema

import (
	"github.com/linkschema-go/linkschema/pkg/constraints"
	"github.com/linkschema-go/linkschema/pkg/value"
)

// EvaluateSlotExpression checks v against every constraint se declares,
// returning the combined violations (nil means satisfied). This is the
// single evaluation path shared by C9's issue-producing slot validation
// and C10/C11's boolean rule/conditional-requirement predicates — both
// just differ in what they do with an empty-vs-nonempty result.
func EvaluateSlotExpression(se SlotExpression, v value.Value) []constraints.Violation {
	var out []constraints.Violation

	if se.Required != nil && *se.Required && v.IsNull() {
		out = append(out, constraints.Violation{Message: "value is required", Expected: "non-null"})
	}

	if se.EqualsString != nil {
		s, ok := v.AsString()
		if !ok || s != *se.EqualsString {
			out = append(out, constraints.Violation{
				Message: "value does not equal required string", Got: v.String(), Expected: *se.EqualsString,
			})
		}
	}

	if se.EqualsNumber != nil {
		f, ok := v.AsFloat()
		if !ok || f != *se.EqualsNumber {
			out = append(out, constraints.Violation{Message: "value does not equal required number", Got: v.String()})
		}
	}

	if se.Pattern != "" {
		p, err := constraints.NewPattern(se.Pattern)
		if err == nil {
			out = append(out, p.Validate(v)...)
		}
	}

	if se.StructuredPattern != nil {
		sp, err := constraints.NewStructuredPattern(se.StructuredPattern.Syntax, se.StructuredPattern.Interpolations, se.StructuredPattern.Normalized)
		if err == nil {
			out = append(out, sp.Validate(v)...)
		}
	}

	if se.MinimumValue != nil || se.MaximumValue != nil {
		out = append(out, rangeConstraint(se.MinimumValue, se.MaximumValue).Validate(v)...)
	}

	if len(se.PermissibleValues) > 0 {
		pv := &constraints.PermissibleValue{Allowed: se.PermissibleValues}
		out = append(out, pv.Validate(v)...)
	}

	if len(se.EqualsStringIn) > 0 {
		e := &constraints.EqualsStringIn{Allowed: se.EqualsStringIn}
		out = append(out, e.Validate(v)...)
	}

	if se.MinimumCardinality != nil || se.MaximumCardinality != nil {
		n, ok := v.Len()
		if !ok {
			out = append(out, constraints.Violation{Message: "cardinality constraint requires a list value"})
		} else {
			if se.MinimumCardinality != nil && n < *se.MinimumCardinality {
				out = append(out, constraints.Violation{Message: "too few elements"})
			}
			if se.MaximumCardinality != nil && n > *se.MaximumCardinality {
				out = append(out, constraints.Violation{Message: "too many elements"})
			}
		}
	}

	if len(se.AnyOf) > 0 {
		c := &constraints.AnyOf{Of: subExprConstraints(se.AnyOf)}
		out = append(out, c.Validate(v)...)
	}
	if len(se.AllOf) > 0 {
		c := &constraints.AllOf{Of: subExprConstraints(se.AllOf)}
		out = append(out, c.Validate(v)...)
	}
	if len(se.ExactlyOneOf) > 0 {
		c := &constraints.ExactlyOneOf{Of: subExprConstraints(se.ExactlyOneOf)}
		out = append(out, c.Validate(v)...)
	}
	if len(se.NoneOf) > 0 {
		c := &constraints.NoneOf{Of: subExprConstraints(se.NoneOf)}
		out = append(out, c.Validate(v)...)
	}

	return out
}

// rangeConstraint lowers typed Bounds into a constraints.Range, selecting
// the numeric or lexicographic branch per endpoint (spec §4.9).
func rangeConstraint(min, max *Bound) *constraints.Range {
	r := &constraints.Range{}
	if min != nil {
		r.Min, r.MinText = min.Number, min.Text
	}
	if max != nil {
		r.Max, r.MaxText = max.Number, max.Text
	}
	return r
}

func subExprConstraints(exprs []SlotExpression) []constraints.Constraint {
	out := make([]constraints.Constraint, len(exprs))
	for i, se := range exprs {
		se := se
		out[i] = constraints.Func(func(v value.Value) []constraints.Violation {
			return EvaluateSlotExpression(se, v)
		})
	}
	return out
}

// Satisfies reports whether v satisfies se with no violations, the
// boolean form used by rule slot_conditions and conditional-requirement
// predicates.
func Satisfies(se SlotExpression, v value.Value) bool {
	return len(EvaluateSlotExpression(se, v)) == 0
}
