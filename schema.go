// Package linkschema implements a LinkML-style schema engine: parsing
// YAML/JSON schema definitions, resolving imports and inheritance,
// validating instance data against the resolved schema, and evaluating a
// small embedded expression language for computed and conditional
// constraints. It is grounded on the node-walking validator architecture
// of yakwilikk/go-yamlvalidator, generalized from a fixed Kubernetes
// field-schema shape to a full class/slot/type/enum schema model.
package linkschema

import "github.com/linkschema-go/linkschema/pkg/value"

// Annotations is a mapping from key to a recursively value.Value-shaped
// annotation, reusing the same tagged-union carrier as instance data
// (spec §3.1's "Annotations").
type Annotations struct {
	m *OrderedMap[value.Value]
}

// NewAnnotations returns an empty Annotations map.
func NewAnnotations() *Annotations { return &Annotations{m: NewOrderedMap[value.Value]()} }

func (a *Annotations) Set(key string, v value.Value) {
	if a.m == nil {
		a.m = NewOrderedMap[value.Value]()
	}
	a.m.Set(key, v)
}

func (a *Annotations) Get(key string) (value.Value, bool) {
	if a == nil || a.m == nil {
		return value.Null(), false
	}
	return a.m.Get(key)
}

func (a *Annotations) Keys() []string {
	if a == nil || a.m == nil {
		return nil
	}
	return a.m.Keys()
}

// MergeAnnotations implements "annotations::merge(base, override) ->
// merged" from spec §4.2: per-key override wins, base keys not present in
// override are kept in their original relative order followed by any new
// override-only keys.
func MergeAnnotations(base, override *Annotations) *Annotations {
	out := NewAnnotations()
	if base != nil {
		base.m.Each(func(k string, v value.Value) { out.Set(k, v) })
	}
	if override != nil {
		override.m.Each(func(k string, v value.Value) { out.Set(k, v) })
	}
	return out
}

// PrimitiveTag names a Type's base representation (spec §3.1).
type PrimitiveTag string

const (
	TagString      PrimitiveTag = "string"
	TagInteger     PrimitiveTag = "integer"
	TagFloat       PrimitiveTag = "float"
	TagDouble      PrimitiveTag = "double"
	TagBoolean     PrimitiveTag = "boolean"
	TagDate        PrimitiveTag = "date"
	TagDatetime    PrimitiveTag = "datetime"
	TagTime        PrimitiveTag = "time"
	TagURI         PrimitiveTag = "uri"
	TagURIorCURIE  PrimitiveTag = "uriorcurie"
	TagCURIE       PrimitiveTag = "curie"
	TagNCName      PrimitiveTag = "ncname"
	TagNodeIdent   PrimitiveTag = "nodeidentifier"
)

// Type is a named scalar refinement (spec §3.1).
type Type struct {
	Name         string
	Base         PrimitiveTag
	URI          string
	Pattern      string
	MinimumValue *Bound
	MaximumValue *Bound
}

// PermissibleValue is one member of an Enum (spec §3.1).
type PermissibleValue struct {
	Text        string
	Description string
	Meaning     string // IRI, optional
}

// Enum enumerates a closed set of permissible string values, preserving
// declaration order and treating membership as case-sensitive.
type Enum struct {
	Name              string
	PermissibleValues *OrderedMap[PermissibleValue]
}

// NewEnum returns an empty Enum named name.
func NewEnum(name string) *Enum {
	return &Enum{Name: name, PermissibleValues: NewOrderedMap[PermissibleValue]()}
}

// Subset groups schema elements under a named tag (spec §3.1).
type Subset struct {
	Name        string
	Description string
}

// Bound is a typed range endpoint (spec §4.9): numeric for number-typed
// slots, text for lexicographic comparison when the range slot is
// declared string-typed. Exactly one of the fields is set.
type Bound struct {
	Number *float64
	Text   *string
}

// NumberBound returns a numeric range endpoint.
func NumberBound(f float64) *Bound { return &Bound{Number: &f} }

// TextBound returns a lexicographic range endpoint.
func TextBound(s string) *Bound { return &Bound{Text: &s} }

// SlotExpression is a structural constraint reusable both as a slot's own
// shape and as a leaf of a boolean combinator or rule condition (spec
// §3.1, GLOSSARY "Slot expression").
type SlotExpression struct {
	Range              string
	Pattern             string
	StructuredPattern   *StructuredPatternSpec
	MinimumValue        *Bound
	MaximumValue        *Bound
	MinimumCardinality  *int
	MaximumCardinality  *int
	PermissibleValues   []string
	EqualsString        *string
	EqualsStringIn      []string
	EqualsNumber        *float64
	Required            *bool
	AnyOf               []SlotExpression
	AllOf               []SlotExpression
	ExactlyOneOf        []SlotExpression
	NoneOf              []SlotExpression
}

// StructuredPatternSpec is a pattern built from named interpolations with
// optional normalized case-folding (spec §4.9).
type StructuredPatternSpec struct {
	Syntax         string // pattern template with {name} interpolations
	Interpolations map[string]string
	Normalized     bool // syntax=normalized: case-fold before matching
}

// DefaultExpr is an ifabsent default: either a literal value or an
// expression text evaluated through the expression engine (spec §3.1).
type DefaultExpr struct {
	Literal    *value.Value
	Expression string
}

// Slot describes one field definition (spec §3.1).
type Slot struct {
	Name        string
	Description string

	Range SlotExpression // range/pattern/cardinality/etc. folded into one shape

	RangeName string // the declared range type/class/enum name, for resolution

	Required            bool
	Identifier          bool
	Multivalued         bool
	Inlined             bool
	InlinedAsList       bool
	Deprecated          string
	IfAbsent            *DefaultExpr

	Examples    []string
	Aliases     []string
	SeeAlso     []string
	Notes       []string
	Comments    []string
	Todos       []string
	Rank        *int

	Annotations *Annotations
}

// SlotOverride is the subset of Slot fields a class's slot_usage may
// override. Which of its fields replace the base definition is decided by
// the class's recorded slot_usage field set, not by zero values (spec
// §4.2 merge_slot_override; see MergeSlotOverride).
type SlotOverride = Slot

// Rule is a declarative if-then(-else) constraint on a class (spec §3.1).
type Rule struct {
	Description    string
	Priority       *int
	Preconditions  *Conditions
	Postconditions *Conditions
	ElseConditions *Conditions
	Deactivated    bool
}

// ConditionKind discriminates the disjoint Conditions union (spec §3.1).
type ConditionKind int

const (
	CondSlot ConditionKind = iota
	CondExpression
	CondComposite
)

// CompositeOp names the boolean combinator of a composite Conditions node.
type CompositeOp int

const (
	CompAllOf CompositeOp = iota
	CompAnyOf
	CompExactlyOneOf
	CompNoneOf
)

// Conditions is a disjoint union: slot_conditions, expression_conditions,
// or composite_conditions (spec §3.1).
type Conditions struct {
	Kind ConditionKind

	SlotConditions map[string]SlotExpression

	ExpressionConditions []string

	CompositeOp    CompositeOp
	CompositeParts []Conditions
}

// UniqueKey is an ordered list of slot names whose value tuple must be
// unique within a validated collection (spec §3.1).
type UniqueKey struct {
	Name  string
	Slots []string
}

// ConditionalRequirement is an if_required entry (spec §3.1).
type ConditionalRequirement struct {
	Label        string
	IfField      string
	Condition    SlotExpression
	ThenRequired []string
}

// Class describes one instantiable entity type (spec §3.1).
type Class struct {
	Name        string
	Description string
	IsA         string
	Mixins      []string
	Abstract    bool
	TreeRoot    bool

	Slots      []string
	SlotUsage  map[string]SlotOverride
	// SlotUsageFields records which override fields were explicitly present
	// in the parsed slot_usage document for the same key in SlotUsage, so
	// MergeSlotOverride (spec §4.2) can distinguish an explicit zero value
	// from "not specified". Populated by Parse; nil for programmatically
	// built classes, which fall back to AllFields() (every field treated
	// as explicitly set).
	SlotUsageFields map[string]fieldSet
	Attributes      *OrderedMap[Slot]

	Rules       []Rule
	UniqueKeys  *OrderedMap[UniqueKey]
	IfRequired  *OrderedMap[ConditionalRequirement]

	Annotations *Annotations
}

// NewClass returns an empty, well-formed Class named name (spec §4.2
// "constructors produce well-formed defaults").
func NewClass(name string) *Class {
	return &Class{
		Name:       name,
		SlotUsage:  map[string]SlotOverride{},
		Attributes: NewOrderedMap[Slot](),
		UniqueKeys: NewOrderedMap[UniqueKey](),
		IfRequired: NewOrderedMap[ConditionalRequirement](),
	}
}

// Settings carries recognized configuration options (spec §3.1).
type Settings struct {
	ValidationStrict               bool
	ValidationFailFast              bool
	ValidationRuleStrategy          ExecutionStrategy
	ValidationCheckPermissibles     bool
	ValidationAllowAdditionalProps  bool
	ValidationMaxErrors             int
	ValidationMaxDepth              int
	ImportsSearchPaths              []string
	ImportsBaseURL                  string
	PerformanceCacheSize            int
	PerformanceExpressionCacheEnabled bool
}

// DefaultSettings returns the documented defaults (spec §3.1, §4.13).
func DefaultSettings() Settings {
	return Settings{
		ValidationMaxErrors: 100,
		ValidationMaxDepth:  64,
		PerformanceCacheSize: 1000,
		PerformanceExpressionCacheEnabled: true,
	}
}

// Schema is the root of the in-memory model (spec §3.1).
type Schema struct {
	ID            string
	Name          string
	Version       string
	Prefixes      *OrderedMap[string]
	DefaultPrefix string
	Imports       []string

	Classes *OrderedMap[*Class]
	Slots   *OrderedMap[*Slot]
	Types   *OrderedMap[*Type]
	Enums   *OrderedMap[*Enum]
	Subsets *OrderedMap[*Subset]

	Settings    Settings
	Annotations *Annotations
}

// NewSchema returns an empty schema with well-formed defaults (spec
// §4.2). An empty Name is permitted transiently; ValidateForUse rejects
// it before emission or validation.
func NewSchema() *Schema {
	return &Schema{
		Prefixes: NewOrderedMap[string](),
		Classes:  NewOrderedMap[*Class](),
		Slots:    NewOrderedMap[*Slot](),
		Types:    NewOrderedMap[*Type](),
		Enums:    NewOrderedMap[*Enum](),
		Subsets:  NewOrderedMap[*Subset](),
		Settings: DefaultSettings(),
	}
}

// ValidateForUse enforces the construction invariant that name must be
// non-empty before the schema is used for emission or validation (spec
// §4.2).
func (s *Schema) ValidateForUse() error {
	if s.Name == "" {
		return &SchemaValidationError{Reason: "schema name must not be empty"}
	}
	return nil
}

func (s *Schema) ClassByName(name string) (*Class, bool) { return s.Classes.Get(name) }
func (s *Schema) SlotByName(name string) (*Slot, bool)    { return s.Slots.Get(name) }
func (s *Schema) TypeByName(name string) (*Type, bool)    { return s.Types.Get(name) }
func (s *Schema) EnumByName(name string) (*Enum, bool)    { return s.Enums.Get(name) }
