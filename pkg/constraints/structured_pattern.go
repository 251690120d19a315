package constraints

import (
	"fmt"
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// StructuredPattern builds a regular expression out of named syntax
// fragments (e.g. "{id_pattern}-{version}") with optional case-insensitive
// folding, generalizing pkg/valuevalidator's plain RegexValidator to the
// composed "structured_pattern" constraint of slot definitions.
type StructuredPattern struct {
	re          *regexp.Regexp
	source      string
	ignoreCase  bool
	caseFolder  cases.Caser
}

// NewStructuredPattern expands a pattern template against a set of named
// interpolations (syntax fragments reused across several slots) and
// compiles the result. When ignoreCase is true, the pattern is compiled
// with the (?i) flag and the subject value is case-folded through
// golang.org/x/text/cases (Unicode folding rather than a byte-wise
// ToLower) before matching; the pattern text itself is not folded.
func NewStructuredPattern(template string, interpolations map[string]string, ignoreCase bool) (*StructuredPattern, error) {
	expanded := template
	for name, frag := range interpolations {
		expanded = strings.ReplaceAll(expanded, "{"+name+"}", frag)
	}
	re, err := regexp.Compile(expanded)
	if err != nil {
		return nil, err
	}
	return &StructuredPattern{
		re:         re,
		source:     expanded,
		ignoreCase: ignoreCase,
		caseFolder: cases.Fold(cases.Compact),
	}, nil
}

func (sp *StructuredPattern) Validate(v value.Value) []Violation {
	s, ok := v.AsString()
	if !ok {
		return coded("data.pattern", "structured pattern constraint requires a string value", v.Kind().String(), "string")
	}
	subject := s
	pattern := sp.re
	if sp.ignoreCase {
		folded := sp.caseFolder.String(s)
		subject = folded
		if re2, err := regexp.Compile("(?i)" + sp.source); err == nil {
			pattern = re2
		}
	}
	if pattern.MatchString(subject) {
		return nil
	}
	return coded("data.pattern", fmt.Sprintf("value does not match structured pattern %s", sp.source), s, sp.source)
}
