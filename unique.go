package linkschema

import (
	"strings"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// uniqueTracker is scoped to one validate_collection call (spec §3.5,
// §4.12): it tracks identifier-slot values and UniqueKey tuples per
// class, reporting duplicates on second and later occurrences.
type uniqueTracker struct {
	// identifiers[className][slotName] -> seen stable values
	identifiers map[string]map[string]map[string]bool
	// keys[className][keyName] -> seen stable tuples
	keys map[string]map[string]map[string]bool
}

func newUniqueTracker() *uniqueTracker {
	return &uniqueTracker{
		identifiers: map[string]map[string]map[string]bool{},
		keys:        map[string]map[string]map[string]bool{},
	}
}

// CheckIdentifier records className.slotName's value for the instance at
// path and reports a duplicate Issue if seen before.
func (t *uniqueTracker) CheckIdentifier(className, slotName string, v value.Value, path string) *Issue {
	if v.IsNull() {
		return nil // missing identifier is a required-field error, not a uniqueness error
	}
	byClass, ok := t.identifiers[className]
	if !ok {
		byClass = map[string]map[string]bool{}
		t.identifiers[className] = byClass
	}
	seen, ok := byClass[slotName]
	if !ok {
		seen = map[string]bool{}
		byClass[slotName] = seen
	}
	key := value.Stable(v)
	if seen[key] {
		return &Issue{
			Severity:      Error,
			Message:       "duplicate identifier value",
			Path:          path,
			ValidatorName: "UniqueKey",
			Code:          "unique.identifier",
		}
	}
	seen[key] = true
	return nil
}

// CheckCompositeKey records the tuple of values for a UniqueKey and
// reports a duplicate Issue if an identical, fully-present tuple was
// seen before. A tuple with any missing member is never compared against
// others (spec §4.12: "Missing values in a key tuple make the tuple
// non-comparable").
func (t *uniqueTracker) CheckCompositeKey(className, keyName string, tuple []value.Value, path string) *Issue {
	for _, v := range tuple {
		if v.IsNull() {
			return nil
		}
	}
	byClass, ok := t.keys[className]
	if !ok {
		byClass = map[string]map[string]bool{}
		t.keys[className] = byClass
	}
	seen, ok := byClass[keyName]
	if !ok {
		seen = map[string]bool{}
		byClass[keyName] = seen
	}
	parts := make([]string, len(tuple))
	for i, v := range tuple {
		parts[i] = value.Stable(v)
	}
	key := strings.Join(parts, "\x1f")
	if seen[key] {
		return &Issue{
			Severity:      Error,
			Message:       "duplicate value for unique key " + keyName,
			Path:          path,
			ValidatorName: "UniqueKey",
			Code:          "unique.composite",
		}
	}
	seen[key] = true
	return nil
}
