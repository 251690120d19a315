package linkschema

import (
	"gopkg.in/yaml.v3"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// ValidateTyped is the typed consumer path of the service contract (spec
// §6.2's validate_typed): validate instance against className, and on a
// valid report decode the instance into T. An invalid report is returned
// alongside a ValidationFailedError so callers can inspect the issues;
// fatal engine errors pass through unchanged.
func ValidateTyped[T any](e *Engine, instance value.Value, className string, opts *Options) (T, *Report, error) {
	var out T
	report, err := e.ValidateAsClass(instance, className, opts)
	if err != nil {
		return out, nil, err
	}
	if !report.Valid {
		return out, report, &ValidationFailedError{Report: report}
	}

	// Decode through the same yaml codec that ingests instances, so field
	// mapping follows the struct's yaml tags.
	raw, err := yaml.Marshal(instance.ToGo())
	if err != nil {
		return out, report, err
	}
	if err := yaml.Unmarshal(raw, &out); err != nil {
		return out, report, err
	}
	return out, report, nil
}

// ValidationFailedError signals that a typed validation found issues; the
// report carries them.
type ValidationFailedError struct {
	Report *Report
}

func (e *ValidationFailedError) Error() string {
	return "validation failed: " + e.Report.Summary()
}

// ParseInstance ingests instance text (YAML or JSON) into a value.Value
// using the same node walker as schema parsing, so instance documents get
// identical number/ordering semantics (spec §3.2).
func ParseInstance(text string) (value.Value, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return value.Null(), WrapParseError(err, "")
	}
	if len(root.Content) == 0 {
		return value.Null(), nil
	}
	return nodeToValue(root.Content[0]), nil
}
