// Package constraints implements the per-slot validation rules of the
// schema engine: pattern, range, type, permissible-value, and the boolean
// combinators that compose them. It is adapted from the node-walking
// validators of pkg/valuevalidator and pkg/keyvalidator, generalized to
// operate on value.Value instead of *yaml.Node so the same constraint code
// validates both YAML- and JSON-sourced instance data.
package constraints

import "github.com/linkschema-go/linkschema/pkg/value"

// Violation is one constraint failure. It carries no path; the caller
// attaches the field path when it reports the violation. Code is the
// dotted issue code the violation maps to in a report (data.pattern,
// data.range, data.enum, ...); an empty Code is reported under the generic
// data.constraint.
type Violation struct {
	Message  string
	Got      string
	Expected string
	Code     string
}

// Constraint validates a single Value and reports zero or more violations.
type Constraint interface {
	Validate(v value.Value) []Violation
}

// Func adapts a plain function into a Constraint.
type Func func(v value.Value) []Violation

func (f Func) Validate(v value.Value) []Violation { return f(v) }

func one(msg, got, expected string) []Violation {
	return []Violation{{Message: msg, Got: got, Expected: expected}}
}

func coded(code, msg, got, expected string) []Violation {
	return []Violation{{Message: msg, Got: got, Expected: expected, Code: code}}
}
