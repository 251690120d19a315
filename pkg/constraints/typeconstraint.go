package constraints

import (
	"fmt"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// PrimitiveKind names the base types a slot's range type can designate,
// independent of value.Kind so a schema type's declared base is a first
// class constraint even before any value is checked against it.
type PrimitiveKind int

const (
	KindAny PrimitiveKind = iota
	KindString
	KindInteger
	KindFloat
	KindBoolean
	KindDate
	KindDatetime
	KindList
	KindMap
)

// Type checks that a value matches one of a set of allowed primitive
// kinds, generalizing pkg/valuevalidator's OneOfTypeValidator (which
// folded int into float for YAML's untyped scalars) to the engine's
// explicit type system. When Coerce is true, an integer value is also
// accepted wherever a float is required, matching the teacher's
// "t == TypeFloat && actual == TypeInt" leniency.
type Type struct {
	Allowed []PrimitiveKind
	Coerce  bool
}

func (k PrimitiveKind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindInteger:
		return "integer"
	case KindFloat:
		return "float"
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindDatetime:
		return "datetime"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "any"
	}
}

func kindOf(v value.Value) PrimitiveKind {
	switch v.Kind() {
	case value.KindString:
		return KindString
	case value.KindInt:
		return KindInteger
	case value.KindFloat:
		return KindFloat
	case value.KindBool:
		return KindBoolean
	case value.KindList:
		return KindList
	case value.KindMap:
		return KindMap
	default:
		return KindAny
	}
}

func (t *Type) Validate(v value.Value) []Violation {
	actual := kindOf(v)
	for _, k := range t.Allowed {
		if k == KindAny || k == actual {
			return nil
		}
		if t.Coerce && k == KindFloat && actual == KindInteger {
			return nil
		}
	}
	var names []string
	for _, k := range t.Allowed {
		names = append(names, k.String())
	}
	return coded("data.type", "type not allowed", actual.String(), fmt.Sprintf("one of %v", names))
}
