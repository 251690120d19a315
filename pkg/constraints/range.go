package constraints

import (
	"fmt"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// Range requires a value to fall within [Min, Max], grounded on
// pkg/valuevalidator's RangeValidator. A nil bound is unconstrained.
// Numeric bounds compare with the slot's numeric type semantics; MinText/
// MaxText select the lexicographic branch used when the range slot is
// declared string-typed (spec §4.9).
type Range struct {
	Min     *float64
	Max     *float64
	MinText *string
	MaxText *string
}

func (r *Range) Validate(v value.Value) []Violation {
	if r.MinText != nil || r.MaxText != nil {
		return r.validateLexicographic(v)
	}
	f, ok := v.AsFloat()
	if !ok {
		return coded("data.range", "range constraint requires a numeric value", v.Kind().String(), "number")
	}
	var out []Violation
	if r.Min != nil && f < *r.Min {
		out = append(out, Violation{
			Message:  "value below minimum",
			Got:      fmt.Sprintf("%v", f),
			Expected: fmt.Sprintf(">= %v", *r.Min),
			Code:     "data.range",
		})
	}
	if r.Max != nil && f > *r.Max {
		out = append(out, Violation{
			Message:  "value above maximum",
			Got:      fmt.Sprintf("%v", f),
			Expected: fmt.Sprintf("<= %v", *r.Max),
			Code:     "data.range",
		})
	}
	return out
}

func (r *Range) validateLexicographic(v value.Value) []Violation {
	s, ok := v.AsString()
	if !ok {
		return coded("data.range", "lexicographic range constraint requires a string value", v.Kind().String(), "string")
	}
	var out []Violation
	if r.MinText != nil && s < *r.MinText {
		out = append(out, Violation{
			Message:  "value below minimum",
			Got:      s,
			Expected: fmt.Sprintf(">= %q", *r.MinText),
			Code:     "data.range",
		})
	}
	if r.MaxText != nil && s > *r.MaxText {
		out = append(out, Violation{
			Message:  "value above maximum",
			Got:      s,
			Expected: fmt.Sprintf("<= %q", *r.MaxText),
			Code:     "data.range",
		})
	}
	return out
}
