package constraints

import (
	"fmt"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// PermissibleValue requires a string to be one of an enum's permissible
// values, grounded on pkg/valuevalidator's EnumValidator.
type PermissibleValue struct {
	Allowed []string
	Message string
}

func (p *PermissibleValue) Validate(v value.Value) []Violation {
	s, ok := v.AsString()
	if !ok {
		return coded("data.enum", "enum constraint requires a string value", v.Kind().String(), "string")
	}
	for _, allowed := range p.Allowed {
		if s == allowed {
			return nil
		}
	}
	msg := p.Message
	if msg == "" {
		msg = fmt.Sprintf("%q is not a permissible value", s)
	}
	return coded("data.enum", msg, s, fmt.Sprintf("one of %v", p.Allowed))
}

// EqualsStringIn requires a value (of any kind, via value.Value.String())
// to textually equal one of a fixed set of strings. Unlike
// PermissibleValue this does not require the value itself to be a string,
// matching the engine's equals_string_in constraint which applies to the
// textual rendering of a slot's value.
type EqualsStringIn struct {
	Allowed []string
}

func (e *EqualsStringIn) Validate(v value.Value) []Violation {
	s := v.String()
	for _, allowed := range e.Allowed {
		if s == allowed {
			return nil
		}
	}
	return coded("data.equals", "value is not in the allowed set", s, fmt.Sprintf("one of %v", e.Allowed))
}
