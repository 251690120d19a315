package linkschema

// Handle is a read-only, shared-ownership view over a Schema, grounded on
// the original implementation's schema_arc.rs pattern (spec §3.5, §9
// "Shared-ownership schema handle + make-mutable-on-write"): many
// validators and callers can hold the same Handle cheaply, and mutation
// is only sanctioned on an owned *Schema obtained from Clone. Handle
// itself exposes no mutating methods, but Schema returns the underlying
// *Schema, so leaving a shared view unmodified is a convention callers
// follow, not something the type system enforces.
type Handle struct {
	schema *Schema
}

// NewHandle wraps schema in a read-only Handle.
func NewHandle(schema *Schema) Handle {
	return Handle{schema: schema}
}

// Schema returns the underlying *Schema for read-only use. Callers must
// not mutate the returned value; use Clone to obtain an owned copy first.
func (h Handle) Schema() *Schema { return h.schema }

// Clone copies the held schema into a new *Schema, the only sanctioned
// escape hatch back to mutation. The top-level collections, each class,
// slot, type, enum and subset entry, and each enum's permissible values
// are new values, so adding, removing or replacing entries leaves the
// original untouched. Fields nested inside an entry (a class's slot list,
// slot_usage, attributes, rules, unique keys and annotations, a slot's
// range expression) and the schema's annotations still share storage with
// the original.
func (h Handle) Clone() *Schema {
	if h.schema == nil {
		return nil
	}
	s := *h.schema
	s.Prefixes = h.schema.Prefixes.Clone()
	s.Classes = cloneClassMap(h.schema.Classes)
	s.Slots = cloneSlotMap(h.schema.Slots)
	s.Types = cloneTypeMap(h.schema.Types)
	s.Enums = cloneEnumMap(h.schema.Enums)
	s.Subsets = cloneSubsetMap(h.schema.Subsets)
	s.Imports = append([]string(nil), h.schema.Imports...)
	return &s
}

func cloneClassMap(m *OrderedMap[*Class]) *OrderedMap[*Class] {
	out := NewOrderedMap[*Class]()
	m.Each(func(k string, c *Class) {
		cc := *c
		out.Set(k, &cc)
	})
	return out
}

func cloneSlotMap(m *OrderedMap[*Slot]) *OrderedMap[*Slot] {
	out := NewOrderedMap[*Slot]()
	m.Each(func(k string, s *Slot) {
		ss := *s
		out.Set(k, &ss)
	})
	return out
}

func cloneTypeMap(m *OrderedMap[*Type]) *OrderedMap[*Type] {
	out := NewOrderedMap[*Type]()
	m.Each(func(k string, t *Type) {
		tt := *t
		out.Set(k, &tt)
	})
	return out
}

func cloneEnumMap(m *OrderedMap[*Enum]) *OrderedMap[*Enum] {
	out := NewOrderedMap[*Enum]()
	m.Each(func(k string, e *Enum) {
		ee := *e
		ee.PermissibleValues = e.PermissibleValues.Clone()
		out.Set(k, &ee)
	})
	return out
}

func cloneSubsetMap(m *OrderedMap[*Subset]) *OrderedMap[*Subset] {
	out := NewOrderedMap[*Subset]()
	m.Each(func(k string, s *Subset) {
		ss := *s
		out.Set(k, &ss)
	})
	return out
}
