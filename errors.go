package linkschema

import (
	"fmt"

	"github.com/pkg/errors"
)

// ParseError is a fatal schema/instance text parse failure (spec §4.3,
// §7 "Parse error").
type ParseError struct {
	Message  string
	Location string // e.g. "line 4, column 9"
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Location != "" {
		return fmt.Sprintf("parse error at %s: %s", e.Location, e.Message)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error { return e.Cause }

// WrapParseError wraps cause with a stack-annotated ParseError, following
// the teacher's practice (inherited from gatekeeper) of keeping a cause
// chain on fatal construction errors via github.com/pkg/errors.
func WrapParseError(cause error, location string) error {
	return &ParseError{Message: cause.Error(), Location: location, Cause: errors.WithStack(cause)}
}

// SchemaValidationError is a fatal schema-construction error: an unknown
// ancestor, an inheritance cycle, an empty schema name, an unknown class
// name, or validation nested past the depth limit (spec §3.4, §7 "Schema
// validation error"). Slot ranges are not checked for definedness.
type SchemaValidationError struct {
	Reason string
	Path   string // e.g. "Class.Person.is_a"
	Cause  error
}

func (e *SchemaValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("schema validation error at %s: %s", e.Path, e.Reason)
	}
	return fmt.Sprintf("schema validation error: %s", e.Reason)
}

func (e *SchemaValidationError) Unwrap() error { return e.Cause }

// ImportError is a fatal import-resolution failure: not found, I/O
// failure, parse failure, or a cycle (spec §4.4, §7 "Import error").
type ImportError struct {
	ImportPath string
	Reason     string
	Cause      error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import error for %q: %s", e.ImportPath, e.Reason)
}

func (e *ImportError) Unwrap() error { return e.Cause }

func wrapf(err error, format string, args ...any) error {
	return errors.Wrapf(err, format, args...)
}
