package constraints

import (
	"fmt"
	"regexp"
	"sync"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// Pattern requires a string value to match a regular expression, grounded
// on pkg/valuevalidator's RegexValidator.
type Pattern struct {
	Re      *regexp.Regexp
	Message string
}

// compiled caches regexes by pattern string so each distinct pattern in a
// schema compiles once however many values it validates. Compilation is
// pure, so sharing is observationally invisible; misses compile outside
// the write lock. The cache is bounded: patterns past the cap still work,
// they just compile per use.
var compiled = struct {
	sync.RWMutex
	m map[string]*regexp.Regexp
}{m: map[string]*regexp.Regexp{}}

const compiledCap = 1024

// NewPattern compiles expr (or reuses a prior compilation) and returns a
// Pattern constraint.
func NewPattern(expr string) (*Pattern, error) {
	compiled.RLock()
	re, ok := compiled.m[expr]
	compiled.RUnlock()
	if ok {
		return &Pattern{Re: re}, nil
	}
	re, err := regexp.Compile(expr)
	if err != nil {
		return nil, err
	}
	compiled.Lock()
	if len(compiled.m) < compiledCap {
		compiled.m[expr] = re
	}
	compiled.Unlock()
	return &Pattern{Re: re}, nil
}

func (p *Pattern) Validate(v value.Value) []Violation {
	s, ok := v.AsString()
	if !ok {
		return coded("data.pattern", "pattern constraint requires a string value", v.Kind().String(), "string")
	}
	if p.Re.MatchString(s) {
		return nil
	}
	msg := p.Message
	if msg == "" {
		msg = fmt.Sprintf("value does not match pattern %s", p.Re.String())
	}
	return coded("data.pattern", msg, s, p.Re.String())
}
