package linkschema

import (
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linkschema-go/linkschema/pkg/value"
)

// Emit serializes schema into canonical YAML (spec §6.1), preserving the
// document order of every ordered collection in the model so that
// parse -> Emit -> parse yields a structurally equal schema modulo
// default filling. Emission is node-building, the mirror image of
// Parse's node walking: the schema is lowered into a *yaml.Node tree and
// marshaled in one step, so ordering never passes through an unordered
// Go map.
func Emit(schema *Schema) (string, error) {
	if err := schema.ValidateForUse(); err != nil {
		return "", err
	}

	doc := mapNode()
	addScalar(doc, "id", schema.ID)
	addScalar(doc, "name", schema.Name)
	addScalar(doc, "version", schema.Version)
	addScalar(doc, "default_prefix", schema.DefaultPrefix)

	if schema.Prefixes.Len() > 0 {
		prefixes := mapNode()
		schema.Prefixes.Each(func(k, v string) { addPair(prefixes, k, strNode(v)) })
		addPair(doc, "prefixes", prefixes)
	}
	if len(schema.Imports) > 0 {
		addPair(doc, "imports", stringSeq(schema.Imports))
	}
	if schema.Classes.Len() > 0 {
		classes := mapNode()
		schema.Classes.Each(func(name string, c *Class) { addPair(classes, name, classNode(c)) })
		addPair(doc, "classes", classes)
	}
	if schema.Slots.Len() > 0 {
		slots := mapNode()
		schema.Slots.Each(func(name string, s *Slot) { addPair(slots, name, slotNode(*s)) })
		addPair(doc, "slots", slots)
	}
	if schema.Types.Len() > 0 {
		types := mapNode()
		schema.Types.Each(func(name string, t *Type) { addPair(types, name, typeNode(t)) })
		addPair(doc, "types", types)
	}
	if schema.Enums.Len() > 0 {
		enums := mapNode()
		schema.Enums.Each(func(name string, e *Enum) { addPair(enums, name, enumNode(e)) })
		addPair(doc, "enums", enums)
	}
	if schema.Subsets.Len() > 0 {
		subsets := mapNode()
		schema.Subsets.Each(func(name string, s *Subset) {
			body := mapNode()
			addScalar(body, "description", s.Description)
			addPair(subsets, name, orNull(body))
		})
		addPair(doc, "subsets", subsets)
	}
	if settings := settingsNode(schema.Settings); settings != nil {
		addPair(doc, "settings", settings)
	}
	addAnnotations(doc, schema.Annotations)

	out, err := yaml.Marshal(doc)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

func classNode(c *Class) *yaml.Node {
	n := mapNode()
	addScalar(n, "description", c.Description)
	addScalar(n, "is_a", c.IsA)
	if len(c.Mixins) > 0 {
		addPair(n, "mixins", stringSeq(c.Mixins))
	}
	if c.Abstract {
		addPair(n, "abstract", boolNode(true))
	}
	if c.TreeRoot {
		addPair(n, "tree_root", boolNode(true))
	}

	// Attribute names were appended to Slots at parse time; the slots list
	// emits only the externally-referenced names so attributes round-trip
	// through their own key.
	var slotRefs []string
	for _, s := range c.Slots {
		if !c.Attributes.Has(s) {
			slotRefs = append(slotRefs, s)
		}
	}
	if len(slotRefs) > 0 {
		addPair(n, "slots", stringSeq(slotRefs))
	}

	if len(c.SlotUsage) > 0 {
		usage := mapNode()
		for _, name := range sortedKeys(c.SlotUsage) {
			// parsed classes carry a field-presence set so explicit zero
			// values survive; programmatic classes fall back to emitting
			// populated fields only
			if c.SlotUsageFields != nil {
				addPair(usage, name, slotUsageNode(c.SlotUsage[name], fieldsFor(c, name)))
			} else {
				addPair(usage, name, slotNode(c.SlotUsage[name]))
			}
		}
		addPair(n, "slot_usage", usage)
	}
	if c.Attributes.Len() > 0 {
		attrs := mapNode()
		c.Attributes.Each(func(name string, s Slot) { addPair(attrs, name, slotNode(s)) })
		addPair(n, "attributes", attrs)
	}
	if len(c.Rules) > 0 {
		rules := seqNode()
		for _, rule := range c.Rules {
			rules.Content = append(rules.Content, ruleNode(rule))
		}
		addPair(n, "rules", rules)
	}
	if c.UniqueKeys.Len() > 0 {
		uks := mapNode()
		c.UniqueKeys.Each(func(name string, uk UniqueKey) {
			body := mapNode()
			addPair(body, "unique_key_slots", stringSeq(uk.Slots))
			addPair(uks, name, body)
		})
		addPair(n, "unique_keys", uks)
	}
	if c.IfRequired.Len() > 0 {
		reqs := mapNode()
		c.IfRequired.Each(func(label string, cr ConditionalRequirement) {
			body := mapNode()
			addScalar(body, "if_field", cr.IfField)
			if cond := slotExprNode(cr.Condition); cond != nil {
				addPair(body, "condition", cond)
			}
			if len(cr.ThenRequired) > 0 {
				addPair(body, "then_required", stringSeq(cr.ThenRequired))
			}
			addPair(reqs, label, body)
		})
		addPair(n, "if_required", reqs)
	}
	addAnnotations(n, c.Annotations)
	return n
}

// slotNode emits every populated field of a slot definition, used for
// global slots and class attributes where the parser does not retain a
// field-presence set.
func slotNode(s Slot) *yaml.Node {
	n := mapNode()
	addScalar(n, "description", s.Description)
	if s.RangeName != "" {
		addScalar(n, "range", s.RangeName)
	} else {
		addScalar(n, "range", s.Range.Range)
	}
	if s.Required {
		addPair(n, "required", boolNode(true))
	}
	if s.Identifier {
		addPair(n, "identifier", boolNode(true))
	}
	if s.Multivalued {
		addPair(n, "multivalued", boolNode(true))
	}
	if s.Inlined {
		addPair(n, "inlined", boolNode(true))
	}
	if s.InlinedAsList {
		addPair(n, "inlined_as_list", boolNode(true))
	}
	addScalar(n, "deprecated", s.Deprecated)
	addSlotExprFields(n, s.Range, false, false)
	if s.IfAbsent != nil {
		addPair(n, "ifabsent", defaultExprNode(*s.IfAbsent))
	}
	if len(s.Examples) > 0 {
		addPair(n, "examples", stringSeq(s.Examples))
	}
	if len(s.Aliases) > 0 {
		addPair(n, "aliases", stringSeq(s.Aliases))
	}
	if len(s.SeeAlso) > 0 {
		addPair(n, "see_also", stringSeq(s.SeeAlso))
	}
	if len(s.Notes) > 0 {
		addPair(n, "notes", stringSeq(s.Notes))
	}
	if len(s.Comments) > 0 {
		addPair(n, "comments", stringSeq(s.Comments))
	}
	if len(s.Todos) > 0 {
		addPair(n, "todos", stringSeq(s.Todos))
	}
	if s.Rank != nil {
		addPair(n, "rank", intNode(*s.Rank))
	}
	addAnnotations(n, s.Annotations)
	return n
}

// slotUsageNode emits only the override fields that were explicitly
// present in the source document, so an explicit `required: false`
// survives the round trip instead of being dropped as a zero value.
func slotUsageNode(s Slot, fields fieldSet) *yaml.Node {
	n := mapNode()
	if fields.has("description") {
		addPair(n, "description", strNode(s.Description))
	}
	if fields.has("range") {
		addPair(n, "range", strNode(s.RangeName))
	}
	if fields.has("required") {
		addPair(n, "required", boolNode(s.Required))
	}
	if fields.has("identifier") {
		addPair(n, "identifier", boolNode(s.Identifier))
	}
	if fields.has("multivalued") {
		addPair(n, "multivalued", boolNode(s.Multivalued))
	}
	if fields.has("inlined") {
		addPair(n, "inlined", boolNode(s.Inlined))
	}
	if fields.has("inlined_as_list") {
		addPair(n, "inlined_as_list", boolNode(s.InlinedAsList))
	}
	if fields.has("deprecated") {
		addPair(n, "deprecated", strNode(s.Deprecated))
	}
	if fields.has("pattern") {
		addPair(n, "pattern", strNode(s.Range.Pattern))
	}
	if fields.has("structured_pattern") && s.Range.StructuredPattern != nil {
		addPair(n, "structured_pattern", structuredPatternNode(s.Range.StructuredPattern))
	}
	if fields.has("minimum_value") && s.Range.MinimumValue != nil {
		addPair(n, "minimum_value", boundNode(s.Range.MinimumValue))
	}
	if fields.has("maximum_value") && s.Range.MaximumValue != nil {
		addPair(n, "maximum_value", boundNode(s.Range.MaximumValue))
	}
	if fields.has("permissible_values") {
		addPair(n, "permissible_values", stringSeq(s.Range.PermissibleValues))
	}
	if fields.has("any_of") {
		addPair(n, "any_of", slotExprSeq(s.Range.AnyOf))
	}
	if fields.has("all_of") {
		addPair(n, "all_of", slotExprSeq(s.Range.AllOf))
	}
	if fields.has("exactly_one_of") {
		addPair(n, "exactly_one_of", slotExprSeq(s.Range.ExactlyOneOf))
	}
	if fields.has("none_of") {
		addPair(n, "none_of", slotExprSeq(s.Range.NoneOf))
	}
	if fields.has("equals_string") && s.Range.EqualsString != nil {
		addPair(n, "equals_string", strNode(*s.Range.EqualsString))
	}
	if fields.has("equals_string_in") {
		addPair(n, "equals_string_in", stringSeq(s.Range.EqualsStringIn))
	}
	if fields.has("equals_number") && s.Range.EqualsNumber != nil {
		addPair(n, "equals_number", floatNode(*s.Range.EqualsNumber))
	}
	if fields.has("ifabsent") && s.IfAbsent != nil {
		addPair(n, "ifabsent", defaultExprNode(*s.IfAbsent))
	}
	return n
}

// addSlotExprFields emits the constraint fields of a SlotExpression into
// n. includeRange/includeRequired also emit the range and required keys,
// used when the expression stands alone (combinator leaves, rule
// conditions) rather than inside a slot body that already emitted them.
func addSlotExprFields(n *yaml.Node, se SlotExpression, includeRange, includeRequired bool) {
	if includeRange {
		addScalar(n, "range", se.Range)
	}
	if includeRequired && se.Required != nil {
		addPair(n, "required", boolNode(*se.Required))
	}
	addScalar(n, "pattern", se.Pattern)
	if se.StructuredPattern != nil {
		addPair(n, "structured_pattern", structuredPatternNode(se.StructuredPattern))
	}
	if se.MinimumValue != nil {
		addPair(n, "minimum_value", boundNode(se.MinimumValue))
	}
	if se.MaximumValue != nil {
		addPair(n, "maximum_value", boundNode(se.MaximumValue))
	}
	if se.MinimumCardinality != nil {
		addPair(n, "minimum_cardinality", intNode(*se.MinimumCardinality))
	}
	if se.MaximumCardinality != nil {
		addPair(n, "maximum_cardinality", intNode(*se.MaximumCardinality))
	}
	if len(se.PermissibleValues) > 0 {
		addPair(n, "permissible_values", stringSeq(se.PermissibleValues))
	}
	if len(se.AnyOf) > 0 {
		addPair(n, "any_of", slotExprSeq(se.AnyOf))
	}
	if len(se.AllOf) > 0 {
		addPair(n, "all_of", slotExprSeq(se.AllOf))
	}
	if len(se.ExactlyOneOf) > 0 {
		addPair(n, "exactly_one_of", slotExprSeq(se.ExactlyOneOf))
	}
	if len(se.NoneOf) > 0 {
		addPair(n, "none_of", slotExprSeq(se.NoneOf))
	}
	if se.EqualsString != nil {
		addPair(n, "equals_string", strNode(*se.EqualsString))
	}
	if len(se.EqualsStringIn) > 0 {
		addPair(n, "equals_string_in", stringSeq(se.EqualsStringIn))
	}
	if se.EqualsNumber != nil {
		addPair(n, "equals_number", floatNode(*se.EqualsNumber))
	}
}

// slotExprNode renders a standalone SlotExpression (rule condition,
// combinator leaf). Returns nil for an empty expression.
func slotExprNode(se SlotExpression) *yaml.Node {
	n := mapNode()
	addSlotExprFields(n, se, true, true)
	if len(n.Content) == 0 {
		return nil
	}
	return n
}

func slotExprSeq(exprs []SlotExpression) *yaml.Node {
	seq := seqNode()
	for _, se := range exprs {
		node := slotExprNode(se)
		if node == nil {
			node = mapNode()
		}
		seq.Content = append(seq.Content, node)
	}
	return seq
}

func structuredPatternNode(sp *StructuredPatternSpec) *yaml.Node {
	n := mapNode()
	addScalar(n, "syntax", sp.Syntax)
	if sp.Normalized {
		addPair(n, "normalized", boolNode(true))
	}
	if len(sp.Interpolations) > 0 {
		interp := mapNode()
		for _, k := range sortedKeys(sp.Interpolations) {
			addPair(interp, k, strNode(sp.Interpolations[k]))
		}
		addPair(n, "interpolations", interp)
	}
	return n
}

func defaultExprNode(def DefaultExpr) *yaml.Node {
	if def.Literal != nil {
		return valueToNode(*def.Literal)
	}
	n := mapNode()
	addScalar(n, "expression", def.Expression)
	return n
}

func ruleNode(rule Rule) *yaml.Node {
	n := mapNode()
	addScalar(n, "description", rule.Description)
	if rule.Priority != nil {
		addPair(n, "priority", intNode(*rule.Priority))
	}
	if rule.Deactivated {
		addPair(n, "deactivated", boolNode(true))
	}
	if rule.Preconditions != nil {
		addPair(n, "preconditions", conditionsNode(*rule.Preconditions))
	}
	if rule.Postconditions != nil {
		addPair(n, "postconditions", conditionsNode(*rule.Postconditions))
	}
	if rule.ElseConditions != nil {
		addPair(n, "else_conditions", conditionsNode(*rule.ElseConditions))
	}
	return n
}

func conditionsNode(cond Conditions) *yaml.Node {
	n := mapNode()
	switch cond.Kind {
	case CondSlot:
		sc := mapNode()
		for _, name := range sortedKeys(cond.SlotConditions) {
			node := slotExprNode(cond.SlotConditions[name])
			if node == nil {
				node = mapNode()
			}
			addPair(sc, name, node)
		}
		addPair(n, "slot_conditions", sc)
	case CondExpression:
		addPair(n, "expression_conditions", stringSeq(cond.ExpressionConditions))
	case CondComposite:
		seq := seqNode()
		for _, part := range cond.CompositeParts {
			seq.Content = append(seq.Content, conditionsNode(part))
		}
		key := "all_of"
		switch cond.CompositeOp {
		case CompAnyOf:
			key = "any_of"
		case CompExactlyOneOf:
			key = "exactly_one_of"
		case CompNoneOf:
			key = "none_of"
		}
		addPair(n, key, seq)
	}
	return n
}

func typeNode(t *Type) *yaml.Node {
	n := mapNode()
	addScalar(n, "base", string(t.Base))
	addScalar(n, "uri", t.URI)
	addScalar(n, "pattern", t.Pattern)
	if t.MinimumValue != nil {
		addPair(n, "minimum_value", boundNode(t.MinimumValue))
	}
	if t.MaximumValue != nil {
		addPair(n, "maximum_value", boundNode(t.MaximumValue))
	}
	return n
}

// boundNode emits a typed range endpoint with the scalar shape the parser
// keys the bound type off: numeric lexeme for numeric bounds, plain
// string for lexicographic bounds.
func boundNode(b *Bound) *yaml.Node {
	if b.Text != nil {
		return strNode(*b.Text)
	}
	return floatNode(*b.Number)
}

func enumNode(e *Enum) *yaml.Node {
	n := mapNode()
	pvs := mapNode()
	e.PermissibleValues.Each(func(text string, pv PermissibleValue) {
		body := mapNode()
		addScalar(body, "description", pv.Description)
		addScalar(body, "meaning", pv.Meaning)
		addPair(pvs, text, orNull(body))
	})
	addPair(n, "permissible_values", pvs)
	return n
}

// settingsNode emits only settings that differ from the documented
// defaults; a schema running entirely on defaults emits no settings key.
func settingsNode(s Settings) *yaml.Node {
	def := DefaultSettings()
	n := mapNode()
	if s.ValidationStrict != def.ValidationStrict {
		addPair(n, "validation.strict", boolNode(s.ValidationStrict))
	}
	if s.ValidationFailFast != def.ValidationFailFast {
		addPair(n, "validation.fail_fast", boolNode(s.ValidationFailFast))
	}
	if s.ValidationRuleStrategy != def.ValidationRuleStrategy {
		addPair(n, "validation.rule_strategy", strNode(s.ValidationRuleStrategy.String()))
	}
	if s.ValidationCheckPermissibles != def.ValidationCheckPermissibles {
		addPair(n, "validation.check_permissibles", boolNode(s.ValidationCheckPermissibles))
	}
	if s.ValidationAllowAdditionalProps != def.ValidationAllowAdditionalProps {
		addPair(n, "validation.allow_additional_properties", boolNode(s.ValidationAllowAdditionalProps))
	}
	if s.ValidationMaxErrors != def.ValidationMaxErrors {
		addPair(n, "validation.max_errors", intNode(s.ValidationMaxErrors))
	}
	if s.ValidationMaxDepth != def.ValidationMaxDepth {
		addPair(n, "validation.max_depth", intNode(s.ValidationMaxDepth))
	}
	if len(s.ImportsSearchPaths) > 0 {
		addPair(n, "imports.search_paths", stringSeq(s.ImportsSearchPaths))
	}
	if s.ImportsBaseURL != "" {
		addPair(n, "imports.base_url", strNode(s.ImportsBaseURL))
	}
	if s.PerformanceCacheSize != def.PerformanceCacheSize {
		addPair(n, "performance.cache_size", intNode(s.PerformanceCacheSize))
	}
	if s.PerformanceExpressionCacheEnabled != def.PerformanceExpressionCacheEnabled {
		addPair(n, "performance.expression_cache_enabled", boolNode(s.PerformanceExpressionCacheEnabled))
	}
	if len(n.Content) == 0 {
		return nil
	}
	return n
}

func addAnnotations(n *yaml.Node, a *Annotations) {
	for _, key := range a.Keys() {
		v, _ := a.Get(key)
		addPair(n, key, valueToNode(v))
	}
}

// valueToNode lowers a value.Value back into a yaml.Node, the inverse of
// nodeToValue.
func valueToNode(v value.Value) *yaml.Node {
	switch v.Kind() {
	case value.KindNull:
		return nullNode()
	case value.KindBool:
		b, _ := v.AsBool()
		return boolNode(b)
	case value.KindInt:
		i, _ := v.AsInt()
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.FormatInt(i, 10)}
	case value.KindFloat:
		f, _ := v.AsFloat()
		return floatNode(f)
	case value.KindString:
		s, _ := v.AsString()
		return strNode(s)
	case value.KindList:
		seq := seqNode()
		items, _ := v.AsList()
		for _, item := range items {
			seq.Content = append(seq.Content, valueToNode(item))
		}
		return seq
	case value.KindMap:
		m := mapNode()
		for _, k := range v.Keys() {
			fv, _ := v.Field(k)
			addPair(m, k, valueToNode(fv))
		}
		return m
	default:
		return nullNode()
	}
}

func mapNode() *yaml.Node  { return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"} }
func seqNode() *yaml.Node  { return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"} }
func nullNode() *yaml.Node { return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"} }

func strNode(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func boolNode(b bool) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(b)}
}

func intNode(i int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(i)}
}

// floatNode keeps the lexeme float-shaped so the value resolves back to
// !!float without an explicit tag in the emitted document.
func floatNode(f float64) *yaml.Node {
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!float", Value: s}
}

func stringSeq(items []string) *yaml.Node {
	seq := seqNode()
	for _, item := range items {
		seq.Content = append(seq.Content, strNode(item))
	}
	return seq
}

func addPair(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, strNode(key), v)
}

// addScalar adds a string pair only when the value is non-empty, the
// emission-side mirror of the parser treating absent keys as zero values.
func addScalar(m *yaml.Node, key, val string) {
	if val == "" {
		return
	}
	addPair(m, key, strNode(val))
}

// orNull collapses an empty mapping to a null scalar so entries like a
// bare enum permissible value emit as `RED:` rather than `RED: {}`.
func orNull(body *yaml.Node) *yaml.Node {
	if len(body.Content) == 0 {
		return nullNode()
	}
	return body
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
