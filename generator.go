package linkschema

import "fmt"

// Target names a generator's output formalism (spec §6.2). The core only
// defines the tag and the Generator contract; concrete emitters (SQL DDL,
// GraphQL, TypeQL, JSON Schema, RDF/OWL, prefix maps, Excel, Markdown,
// Mermaid, ...) are external collaborators per spec §1's "Deliberately
// out of scope: Concrete target-language emitters beyond their abstract
// contract in §6."
type Target string

const (
	TargetTypeQL     Target = "typeql"
	TargetSQL        Target = "sql"
	TargetGraphQL    Target = "graphql"
	TargetJSONSchema Target = "jsonschema"
	TargetRDFOWL     Target = "rdfowl"
	TargetPrefixMap  Target = "prefixmap"
	TargetExcel      Target = "excel"
	TargetMarkdown   Target = "markdown"
	TargetMermaid    Target = "mermaid"
)

// GeneratorOptions carries target-specific typed options (e.g. a SQL
// dialect name, a GraphQL schema-extension flag); the core passes it
// through to the registered Generator unexamined.
type GeneratorOptions map[string]any

// Artifact is one emitted output unit: a logical name (path, table name,
// sheet name) plus its bytes (spec §6.2).
type Artifact struct {
	Name string
	Data []byte
}

// Generator is the narrow contract an external emitter satisfies (spec §9
// "Open polymorphism of generators/validators": "registry of capability
// implementations keyed by string tag; implementations satisfy a narrow
// trait; registration is explicit at startup, not by reflection"). The
// core never implements one; it only enumerates and dispatches to them.
type Generator interface {
	Generate(schema *Schema, opts GeneratorOptions) ([]Artifact, error)
}

// GeneratorRegistry holds Generator implementations keyed by Target.
type GeneratorRegistry struct {
	byTarget map[Target]Generator
}

// NewGeneratorRegistry returns an empty registry.
func NewGeneratorRegistry() *GeneratorRegistry {
	return &GeneratorRegistry{byTarget: map[Target]Generator{}}
}

// Register installs gen under target. A later call for the same target
// replaces the previous registration; there is no reflection-based
// auto-discovery (spec §9).
func (r *GeneratorRegistry) Register(target Target, gen Generator) {
	r.byTarget[target] = gen
}

// Targets lists the currently registered target tags, in no particular
// order (callers that need a stable listing should sort it).
func (r *GeneratorRegistry) Targets() []Target {
	out := make([]Target, 0, len(r.byTarget))
	for t := range r.byTarget {
		out = append(out, t)
	}
	return out
}

// Generate dispatches to the Generator registered for target (spec
// §6.2's `generate`), erroring if none is registered rather than
// silently producing nothing.
func (r *GeneratorRegistry) Generate(schema *Schema, target Target, opts GeneratorOptions) ([]Artifact, error) {
	gen, ok := r.byTarget[target]
	if !ok {
		return nil, fmt.Errorf("no generator registered for target %q", target)
	}
	return gen.Generate(schema, opts)
}
