package linkschema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dominikbraun/graph"
)

// Resolver computes class inheritance (spec §4.5): effective slot lists,
// effective slot definitions after slot_usage overrides along the
// ancestry, and effective rule lists. It caches per-class results since
// §3.5 requires effective-slot tables to be "created lazily on first use
// per class and cached on the validator." The caches are guarded by a
// single-writer/multi-reader lock; misses compute outside the write
// section (spec §5).
type Resolver struct {
	schema *Schema

	mu            sync.RWMutex
	ancestryCache map[string][]string // className -> base-first ancestor chain, excluding self
	slotsCache    map[string][]string // className -> effective slot list
	defCache      map[string]Slot     // className + "\x00" + slotName -> effective definition
}

// NewResolver builds a Resolver bound to schema. It validates the
// is_a/mixins ancestry graph for cycles up front (spec §3.4, §4.5),
// grounded on gatekeeper's use of dominikbraun/graph for DAG validation
// in pkg/expansion/db.go.
func NewResolver(schema *Schema) (*Resolver, error) {
	r := &Resolver{
		schema:        schema,
		ancestryCache: map[string][]string{},
		slotsCache:    map[string][]string{},
		defCache:      map[string]Slot{},
	}
	if err := r.checkAcyclic(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Resolver) checkAcyclic() error {
	g := graph.New(func(s string) string { return s }, graph.Directed())
	for _, name := range r.schema.Classes.Keys() {
		_ = g.AddVertex(name)
	}

	addEdge := func(from, to string) error {
		if to == "" {
			return nil
		}
		if _, err := g.Vertex(to); err != nil {
			return &SchemaValidationError{
				Reason: fmt.Sprintf("class %q references unknown ancestor %q", from, to),
				Path:   "Class." + from,
			}
		}
		creates, err := graph.CreatesCycle(g, from, to)
		if err != nil {
			return err
		}
		if creates {
			return &SchemaValidationError{
				Reason: fmt.Sprintf("inheritance cycle detected involving %q and %q", from, to),
				Path:   "Class." + from,
			}
		}
		return g.AddEdge(from, to)
	}

	for _, name := range r.schema.Classes.Keys() {
		c, _ := r.schema.Classes.Get(name)
		if c.IsA != "" {
			if err := addEdge(name, c.IsA); err != nil {
				return err
			}
		}
		for _, m := range c.Mixins {
			if err := addEdge(name, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// rawMRO computes a deterministic preorder ancestor list starting with
// className itself: visit the class, then recurse left-to-right,
// depth-first over its mixins, then over its parent (spec §4.5's
// "left-to-right over mixins, depth-first, then parent"), deduplicating
// by first occurrence.
func (r *Resolver) rawMRO(className string) ([]string, error) {
	var order []string
	seen := map[string]bool{}

	var visit func(name string) error
	visit = func(name string) error {
		if seen[name] {
			return nil
		}
		seen[name] = true
		order = append(order, name)
		c, ok := r.schema.Classes.Get(name)
		if !ok {
			return nil // unknown ancestor already reported by checkAcyclic
		}
		for _, m := range c.Mixins {
			if err := visit(m); err != nil {
				return err
			}
		}
		if c.IsA != "" {
			if err := visit(c.IsA); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(className); err != nil {
		return nil, err
	}
	return order, nil
}

// AncestorsBaseFirst returns className's ancestors (excluding itself)
// ordered most-base-first, most-derived-last, per spec §4.5's
// slot_usage-application order.
func (r *Resolver) AncestorsBaseFirst(className string) ([]string, error) {
	r.mu.RLock()
	cached, ok := r.ancestryCache[className]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}
	mro, err := r.rawMRO(className)
	if err != nil {
		return nil, err
	}
	if len(mro) == 0 || mro[0] != className {
		return nil, &SchemaValidationError{Reason: "class not found", Path: "Class." + className}
	}
	ancestors := mro[1:]
	baseFirst := make([]string, len(ancestors))
	for i, a := range ancestors {
		baseFirst[len(ancestors)-1-i] = a
	}
	r.mu.Lock()
	r.ancestryCache[className] = baseFirst
	r.mu.Unlock()
	return baseFirst, nil
}

func dedupAppend(list []string, seen map[string]bool, items []string) []string {
	for _, it := range items {
		if !seen[it] {
			seen[it] = true
			list = append(list, it)
		}
	}
	return list
}

// EffectiveSlots computes the ordered effective slot list for className
// (spec §4.5): ancestors' declared slots in base-first order,
// deduplicated, then the class's own local slot additions appended.
func (r *Resolver) EffectiveSlots(className string) ([]string, error) {
	r.mu.RLock()
	cached, ok := r.slotsCache[className]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}
	ancestors, err := r.AncestorsBaseFirst(className)
	if err != nil {
		return nil, err
	}
	class, ok := r.schema.Classes.Get(className)
	if !ok {
		return nil, &SchemaValidationError{Reason: "class not found", Path: "Class." + className}
	}

	var out []string
	seen := map[string]bool{}
	for _, anc := range ancestors {
		ac, ok := r.schema.Classes.Get(anc)
		if !ok {
			continue
		}
		out = dedupAppend(out, seen, ac.Slots)
		out = dedupAppend(out, seen, sortedKeys(ac.SlotUsage))
	}
	out = dedupAppend(out, seen, class.Slots)
	// slot_usage can introduce a slot the class never lists explicitly;
	// such slots are still effective. Sorted so the appended tail does not
	// depend on Go map iteration order.
	out = dedupAppend(out, seen, sortedKeys(class.SlotUsage))

	r.mu.Lock()
	r.slotsCache[className] = out
	r.mu.Unlock()
	return out, nil
}

// EffectiveSlotDefinition computes the effective Slot for name under
// className (spec §4.5): start from the globally declared slot (or a
// class-local attribute, or a zero Slot if neither exists), then apply
// each ancestor's slot_usage[name] in base-first order, then the class's
// own slot_usage[name].
func (r *Resolver) EffectiveSlotDefinition(className, slotName string) (Slot, error) {
	cacheKey := className + "\x00" + slotName
	r.mu.RLock()
	cached, ok := r.defCache[cacheKey]
	r.mu.RUnlock()
	if ok {
		return cached, nil
	}

	class, ok := r.schema.Classes.Get(className)
	if !ok {
		return Slot{}, &SchemaValidationError{Reason: "class not found", Path: "Class." + className}
	}

	base := Slot{Name: slotName}
	if global, ok := r.schema.Slots.Get(slotName); ok {
		base = *global
	}
	if attr, ok := class.Attributes.Get(slotName); ok {
		base = attr
	}

	ancestors, err := r.AncestorsBaseFirst(className)
	if err != nil {
		return Slot{}, err
	}
	for _, anc := range ancestors {
		ac, ok := r.schema.Classes.Get(anc)
		if !ok {
			continue
		}
		if override, ok := ac.SlotUsage[slotName]; ok {
			base = MergeSlotOverride(base, override, fieldsFor(ac, slotName))
		}
	}
	if override, ok := class.SlotUsage[slotName]; ok {
		base = MergeSlotOverride(base, override, fieldsFor(class, slotName))
	}

	// Identifier slots imply required=true regardless of the source
	// schema's explicit setting (spec §3.4, §8.1 "Required + identifier").
	if base.Identifier {
		base.Required = true
	}

	r.mu.Lock()
	r.defCache[cacheKey] = base
	r.mu.Unlock()
	return base, nil
}

// fieldsFor looks up the parsed field-presence set for class.SlotUsage[slotName],
// falling back to AllFields() when the class was built programmatically
// (e.g. by tests) rather than parsed from a document that tracks presence.
func fieldsFor(class *Class, slotName string) fieldSet {
	if class.SlotUsageFields != nil {
		if fs, ok := class.SlotUsageFields[slotName]; ok {
			return fs
		}
	}
	return AllFields()
}

// EffectiveRules computes className's compiled rule list (spec §4.5,
// §4.10): rules collected from each ancestor (base-first) then local
// rules, stable-sorted by priority descending (nil priority sorts as 0),
// preserving declaration order among equal priorities.
func (r *Resolver) EffectiveRules(className string) ([]Rule, error) {
	ancestors, err := r.AncestorsBaseFirst(className)
	if err != nil {
		return nil, err
	}
	class, ok := r.schema.Classes.Get(className)
	if !ok {
		return nil, &SchemaValidationError{Reason: "class not found", Path: "Class." + className}
	}

	var all []Rule
	for _, anc := range ancestors {
		ac, ok := r.schema.Classes.Get(anc)
		if !ok {
			continue
		}
		all = append(all, ac.Rules...)
	}
	all = append(all, class.Rules...)

	sort.SliceStable(all, func(i, j int) bool {
		return rulePriority(all[i]) > rulePriority(all[j])
	})
	return all, nil
}
