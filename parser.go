package linkschema

import (
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/linkschema-go/linkschema/pkg/intern"
	"github.com/linkschema-go/linkschema/pkg/value"
)

// Format names the schema/instance text encoding (spec §4.3). FormatAuto
// dispatches by extension when one is known to the caller, else by the
// first non-whitespace byte of the text.
type Format int

const (
	FormatAuto Format = iota
	FormatYAML
	FormatJSON
)

// DetectFormat implements spec §4.3's "auto" dispatch: by extension when
// hint is FormatAuto and a path is available, else by sniffing the first
// non-whitespace byte ('{'/'[' -> JSON, otherwise YAML). JSON is a strict
// subset of YAML 1.2, so both are parsed by the same yaml.v3 node walker in
// Parse, which does not call DetectFormat.
func DetectFormat(hint Format, path, text string) Format {
	if hint != FormatAuto {
		return hint
	}
	lower := strings.ToLower(path)
	switch {
	case strings.HasSuffix(lower, ".json"):
		return FormatJSON
	case strings.HasSuffix(lower, ".yaml"), strings.HasSuffix(lower, ".yml"):
		return FormatYAML
	}
	for _, r := range text {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		if r == '{' || r == '[' {
			return FormatJSON
		}
		return FormatYAML
	}
	return FormatYAML
}

// ParseOptions configures one Parse call (spec §4.3).
type ParseOptions struct {
	Format Format
	Path   string // used only for extension-based format detection
	Strict bool   // unknown top-level keys without a namespace prefix become errors, not warnings
}

// intern a schema identifier through the process-wide pool (spec §4.1),
// falling back to an unshared string on overflow rather than failing the
// parse.
func internName(s string) string {
	return intern.Global().InternOrFallback(s).String()
}

// Parse ingests text (YAML or JSON; one decoder reads both, so opts.Format
// is not consulted) into a Schema (spec
// §4.3). Parsing is node-walking (gopkg.in/yaml.v3's *yaml.Node), the same
// technique the teacher repo uses to validate Kubernetes-shaped YAML,
// generalized here to build a typed schema model instead of reporting
// ValidationErrors against a fixed shape. Document order is preserved by
// construction since map nodes are walked key-by-key in Content order.
// Non-fatal problems (unknown top-level keys outside strict mode) are
// returned as warning Issues alongside the Schema; fatal structural
// problems abort with a *ParseError.
func Parse(text string, opts ParseOptions) (*Schema, []Issue, error) {
	var root yaml.Node
	if err := yaml.Unmarshal([]byte(text), &root); err != nil {
		return nil, nil, WrapParseError(err, "")
	}
	if len(root.Content) == 0 {
		return NewSchema(), nil, nil
	}
	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, nil, &ParseError{Message: "schema document must be a mapping", Location: nodeLoc(doc)}
	}

	p := &schemaParser{strict: opts.Strict}
	schema := NewSchema()
	if err := p.parseSchema(doc, schema); err != nil {
		return nil, p.issues, err
	}
	return schema, p.issues, nil
}

type schemaParser struct {
	strict bool
	issues []Issue
}

func (p *schemaParser) warnUnknown(path string, node *yaml.Node, key string) {
	sev := Warning
	if p.strict {
		sev = Error
	}
	p.issues = append(p.issues, Issue{
		Severity: sev,
		Message:  "unknown key: " + key,
		Path:     path,
		Code:     "schema.unknown_key",
		Context:  map[string]any{"location": nodeLoc(node)},
	})
}

func nodeLoc(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	return "line " + strconv.Itoa(n.Line) + ", column " + strconv.Itoa(n.Column)
}

// eachPair walks a mapping node's key/value pairs in document order.
func eachPair(m *yaml.Node, fn func(keyNode, valNode *yaml.Node, key string)) {
	if m == nil || m.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		fn(m.Content[i], m.Content[i+1], m.Content[i].Value)
	}
}

func (p *schemaParser) parseSchema(doc *yaml.Node, schema *Schema) error {
	var err error
	eachPair(doc, func(k, v *yaml.Node, key string) {
		if err != nil {
			return
		}
		switch key {
		case "id":
			schema.ID = v.Value
		case "name":
			schema.Name = internName(v.Value)
		case "version":
			schema.Version = v.Value
		case "default_prefix":
			schema.DefaultPrefix = v.Value
		case "prefixes":
			eachPair(v, func(_, pv *yaml.Node, pk string) { schema.Prefixes.Set(pk, pv.Value) })
		case "imports":
			schema.Imports = stringList(v)
		case "classes":
			eachPair(v, func(_, cv *yaml.Node, cname string) {
				c, e := p.parseClass(internName(cname), cv)
				if e != nil {
					err = e
					return
				}
				schema.Classes.Set(c.Name, c)
			})
		case "slots":
			eachPair(v, func(_, sv *yaml.Node, sname string) {
				s, fields, e := p.parseSlot(internName(sname), sv)
				_ = fields
				if e != nil {
					err = e
					return
				}
				schema.Slots.Set(s.Name, &s)
			})
		case "types":
			eachPair(v, func(_, tv *yaml.Node, tname string) {
				t := p.parseType(internName(tname), tv)
				schema.Types.Set(t.Name, t)
			})
		case "enums":
			eachPair(v, func(_, ev *yaml.Node, ename string) {
				schema.Enums.Set(internName(ename), p.parseEnum(internName(ename), ev))
			})
		case "subsets":
			eachPair(v, func(_, sv *yaml.Node, sname string) {
				desc := ""
				eachPair(sv, func(_, dv *yaml.Node, dk string) {
					if dk == "description" {
						desc = dv.Value
					}
				})
				schema.Subsets.Set(sname, &Subset{Name: sname, Description: desc})
			})
		case "settings":
			schema.Settings = p.parseSettings(v, schema.Settings)
		default:
			if strings.Contains(key, ":") {
				if schema.Annotations == nil {
					schema.Annotations = NewAnnotations()
				}
				schema.Annotations.Set(key, nodeToValue(v))
			} else {
				p.warnUnknown(key, k, key)
			}
		}
	})
	return err
}

func stringList(n *yaml.Node) []string {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		out = append(out, item.Value)
	}
	return out
}

func (p *schemaParser) parseSettings(n *yaml.Node, base Settings) Settings {
	s := base
	eachPair(n, func(_, v *yaml.Node, key string) {
		switch key {
		case "validation.strict":
			s.ValidationStrict = boolOf(v)
		case "validation.fail_fast":
			s.ValidationFailFast = boolOf(v)
		case "validation.rule_strategy":
			s.ValidationRuleStrategy = ruleStrategyFromName(v.Value)
		case "validation.check_permissibles":
			s.ValidationCheckPermissibles = boolOf(v)
		case "validation.allow_additional_properties":
			s.ValidationAllowAdditionalProps = boolOf(v)
		case "validation.max_errors":
			s.ValidationMaxErrors = intOf(v)
		case "validation.max_depth":
			s.ValidationMaxDepth = intOf(v)
		case "imports.search_paths":
			s.ImportsSearchPaths = stringList(v)
		case "imports.base_url":
			s.ImportsBaseURL = v.Value
		case "performance.cache_size":
			s.PerformanceCacheSize = intOf(v)
		case "performance.expression_cache_enabled":
			s.PerformanceExpressionCacheEnabled = boolOf(v)
		}
	})
	return s
}

func boolOf(n *yaml.Node) bool {
	b, _ := strconv.ParseBool(n.Value)
	return b
}

func intOf(n *yaml.Node) int {
	i, _ := strconv.Atoi(n.Value)
	return i
}

// parseBound reads a minimum_value/maximum_value endpoint as a typed
// Bound: numeric scalars become numeric bounds, anything else becomes a
// text bound compared lexicographically (spec §4.9's string-typed range
// slots). A non-numeric bound is never silently coerced to 0.
func parseBound(n *yaml.Node) *Bound {
	switch n.Tag {
	case "!!int", "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil && !isNaNOrInf(f) {
			return NumberBound(f)
		}
	}
	return TextBound(n.Value)
}

func (p *schemaParser) parseType(name string, n *yaml.Node) *Type {
	t := &Type{Name: name}
	eachPair(n, func(_, v *yaml.Node, key string) {
		switch key {
		case "base", "typeof":
			t.Base = PrimitiveTag(v.Value)
		case "uri":
			t.URI = v.Value
		case "pattern":
			t.Pattern = v.Value
		case "minimum_value":
			t.MinimumValue = parseBound(v)
		case "maximum_value":
			t.MaximumValue = parseBound(v)
		}
	})
	return t
}

func (p *schemaParser) parseEnum(name string, n *yaml.Node) *Enum {
	e := NewEnum(name)
	eachPair(n, func(_, v *yaml.Node, key string) {
		if key != "permissible_values" {
			return
		}
		eachPair(v, func(_, pvn *yaml.Node, text string) {
			pv := PermissibleValue{Text: text}
			eachPair(pvn, func(_, fv *yaml.Node, fk string) {
				switch fk {
				case "description":
					pv.Description = fv.Value
				case "meaning":
					pv.Meaning = fv.Value
				}
			})
			e.PermissibleValues.Set(text, pv)
		})
	})
	return e
}

// parseSlot parses one slot/attribute/slot_usage body. The returned
// fieldSet names which of the recognized override fields were explicitly
// present in n, used by slot_usage application (spec §4.2) to distinguish
// an explicit zero value from "not specified".
func (p *schemaParser) parseSlot(name string, n *yaml.Node) (Slot, fieldSet, error) {
	s := Slot{Name: name}
	var present []string
	mark := func(f string) { present = append(present, f) }

	var err error
	eachPair(n, func(_, v *yaml.Node, key string) {
		if err != nil {
			return
		}
		switch key {
		case "description":
			s.Description = v.Value
			mark("description")
		case "range":
			s.Range.Range = v.Value
			s.RangeName = internName(v.Value)
			mark("range")
		case "required":
			b := boolOf(v)
			s.Required = b
			// mirrored into the SlotExpression so rule slot_conditions and
			// combinator leaves parsed through this same body keep their
			// required constraint
			s.Range.Required = &b
			mark("required")
		case "identifier":
			s.Identifier = boolOf(v)
			mark("identifier")
		case "multivalued":
			s.Multivalued = boolOf(v)
			mark("multivalued")
		case "inlined":
			s.Inlined = boolOf(v)
			mark("inlined")
		case "inlined_as_list":
			s.InlinedAsList = boolOf(v)
			mark("inlined_as_list")
		case "deprecated":
			s.Deprecated = v.Value
			mark("deprecated")
		case "pattern":
			s.Range.Pattern = v.Value
			mark("pattern")
		case "structured_pattern":
			s.Range.StructuredPattern = p.parseStructuredPattern(v)
			mark("structured_pattern")
		case "minimum_value":
			s.Range.MinimumValue = parseBound(v)
			mark("minimum_value")
		case "maximum_value":
			s.Range.MaximumValue = parseBound(v)
			mark("maximum_value")
		case "minimum_cardinality":
			i := intOf(v)
			s.Range.MinimumCardinality = &i
		case "maximum_cardinality":
			i := intOf(v)
			s.Range.MaximumCardinality = &i
		case "permissible_values":
			s.Range.PermissibleValues = stringList(v)
			mark("permissible_values")
		case "any_of":
			s.Range.AnyOf, err = p.parseSlotExpressionList(v)
			mark("any_of")
		case "all_of":
			s.Range.AllOf, err = p.parseSlotExpressionList(v)
			mark("all_of")
		case "exactly_one_of":
			s.Range.ExactlyOneOf, err = p.parseSlotExpressionList(v)
			mark("exactly_one_of")
		case "none_of":
			s.Range.NoneOf, err = p.parseSlotExpressionList(v)
			mark("none_of")
		case "equals_string":
			str := v.Value
			s.Range.EqualsString = &str
			mark("equals_string")
		case "equals_string_in":
			s.Range.EqualsStringIn = stringList(v)
			mark("equals_string_in")
		case "equals_number":
			// NaN/Inf literals are rejected rather than silently coerced
			if f, perr := strconv.ParseFloat(v.Value, 64); perr == nil && !isNaNOrInf(f) {
				s.Range.EqualsNumber = &f
			}
			mark("equals_number")
		case "ifabsent":
			s.IfAbsent = parseDefaultExpr(v)
			mark("ifabsent")
		case "examples":
			s.Examples = stringList(v)
		case "aliases":
			s.Aliases = stringList(v)
		case "see_also":
			s.SeeAlso = stringList(v)
		case "notes":
			s.Notes = stringList(v)
		case "comments":
			s.Comments = stringList(v)
		case "todos":
			s.Todos = stringList(v)
		case "rank":
			i := intOf(v)
			s.Rank = &i
		default:
			if strings.Contains(key, ":") {
				if s.Annotations == nil {
					s.Annotations = NewAnnotations()
				}
				s.Annotations.Set(key, nodeToValue(v))
			}
		}
	})
	if err != nil {
		return Slot{}, nil, err
	}
	return s, newFieldSet(present...), nil
}

func parseDefaultExpr(n *yaml.Node) *DefaultExpr {
	switch n.Kind {
	case yaml.MappingNode:
		var expr string
		eachPair(n, func(_, v *yaml.Node, key string) {
			if key == "expression" {
				expr = v.Value
			}
		})
		if expr != "" {
			return &DefaultExpr{Expression: expr}
		}
		return nil
	default:
		v := nodeToValue(n)
		return &DefaultExpr{Literal: &v}
	}
}

func (p *schemaParser) parseStructuredPattern(n *yaml.Node) *StructuredPatternSpec {
	sp := &StructuredPatternSpec{Interpolations: map[string]string{}}
	eachPair(n, func(_, v *yaml.Node, key string) {
		switch key {
		case "syntax":
			sp.Syntax = v.Value
		case "interpolated":
			sp.Normalized = false
		case "syntax_normalized", "normalized":
			sp.Normalized = boolOf(v)
		case "interpolations":
			eachPair(v, func(_, iv *yaml.Node, ik string) { sp.Interpolations[ik] = iv.Value })
		}
	})
	return sp
}

func (p *schemaParser) parseSlotExpressionList(n *yaml.Node) ([]SlotExpression, error) {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, nil
	}
	out := make([]SlotExpression, 0, len(n.Content))
	for _, item := range n.Content {
		slot, _, err := p.parseSlot("", item)
		if err != nil {
			return nil, err
		}
		out = append(out, slot.Range)
	}
	return out, nil
}

func (p *schemaParser) parseClass(name string, n *yaml.Node) (*Class, error) {
	c := NewClass(name)
	var err error
	eachPair(n, func(_, v *yaml.Node, key string) {
		if err != nil {
			return
		}
		switch key {
		case "description":
			c.Description = v.Value
		case "is_a":
			c.IsA = internName(v.Value)
		case "mixins":
			for _, m := range stringList(v) {
				c.Mixins = append(c.Mixins, internName(m))
			}
		case "abstract":
			c.Abstract = boolOf(v)
		case "tree_root":
			c.TreeRoot = boolOf(v)
		case "slots":
			for _, sn := range stringList(v) {
				c.Slots = append(c.Slots, internName(sn))
			}
		case "slot_usage":
			eachPair(v, func(_, sv *yaml.Node, sname string) {
				if err != nil {
					return
				}
				slot, fields, e := p.parseSlot(internName(sname), sv)
				if e != nil {
					err = e
					return
				}
				c.SlotUsage[slot.Name] = slot
				if c.SlotUsageFields == nil {
					c.SlotUsageFields = map[string]fieldSet{}
				}
				c.SlotUsageFields[slot.Name] = fields
			})
		case "attributes":
			eachPair(v, func(_, av *yaml.Node, aname string) {
				if err != nil {
					return
				}
				slot, _, e := p.parseSlot(internName(aname), av)
				if e != nil {
					err = e
					return
				}
				c.Attributes.Set(slot.Name, slot)
				c.Slots = append(c.Slots, slot.Name)
			})
		case "rules":
			rules, e := p.parseRules(v)
			if e != nil {
				err = e
				return
			}
			c.Rules = rules
		case "unique_keys":
			eachPair(v, func(_, uv *yaml.Node, ukName string) {
				uk := UniqueKey{Name: ukName}
				eachPair(uv, func(_, sv *yaml.Node, field string) {
					if field == "unique_key_slots" || field == "slots" {
						uk.Slots = stringList(sv)
					}
				})
				c.UniqueKeys.Set(ukName, uk)
			})
		case "if_required":
			eachPair(v, func(_, rv *yaml.Node, label string) {
				cr := ConditionalRequirement{Label: label}
				eachPair(rv, func(_, fv *yaml.Node, fk string) {
					switch fk {
					case "if_field":
						cr.IfField = fv.Value
					case "then_required":
						cr.ThenRequired = stringList(fv)
					case "condition":
						slot, _, e := p.parseSlot("", fv)
						if e != nil {
							err = e
							return
						}
						cr.Condition = slot.Range
					}
				})
				c.IfRequired.Set(label, cr)
			})
		default:
			if strings.Contains(key, ":") {
				if c.Annotations == nil {
					c.Annotations = NewAnnotations()
				}
				c.Annotations.Set(key, nodeToValue(v))
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (p *schemaParser) parseRules(n *yaml.Node) ([]Rule, error) {
	if n == nil || n.Kind != yaml.SequenceNode {
		return nil, nil
	}
	out := make([]Rule, 0, len(n.Content))
	for _, rn := range n.Content {
		var rule Rule
		var err error
		eachPair(rn, func(_, v *yaml.Node, key string) {
			if err != nil {
				return
			}
			switch key {
			case "description":
				rule.Description = v.Value
			case "priority":
				i := intOf(v)
				rule.Priority = &i
			case "deactivated":
				rule.Deactivated = boolOf(v)
			case "preconditions":
				rule.Preconditions, err = p.parseConditions(v)
			case "postconditions":
				rule.Postconditions, err = p.parseConditions(v)
			case "else_conditions":
				rule.ElseConditions, err = p.parseConditions(v)
			}
		})
		if err != nil {
			return nil, err
		}
		out = append(out, rule)
	}
	return out, nil
}

func (p *schemaParser) parseConditions(n *yaml.Node) (*Conditions, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, nil
	}
	cond := &Conditions{Kind: CondSlot, SlotConditions: map[string]SlotExpression{}}
	var err error
	eachPair(n, func(_, v *yaml.Node, key string) {
		if err != nil {
			return
		}
		switch key {
		case "slot_conditions":
			cond.Kind = CondSlot
			eachPair(v, func(_, sv *yaml.Node, sname string) {
				if err != nil {
					return
				}
				slot, _, e := p.parseSlot("", sv)
				if e != nil {
					err = e
					return
				}
				cond.SlotConditions[sname] = slot.Range
			})
		case "expression_conditions":
			cond.Kind = CondExpression
			cond.ExpressionConditions = stringList(v)
		case "all_of", "any_of", "exactly_one_of", "none_of":
			cond.Kind = CondComposite
			switch key {
			case "all_of":
				cond.CompositeOp = CompAllOf
			case "any_of":
				cond.CompositeOp = CompAnyOf
			case "exactly_one_of":
				cond.CompositeOp = CompExactlyOneOf
			case "none_of":
				cond.CompositeOp = CompNoneOf
			}
			for _, item := range v.Content {
				sub, e := p.parseConditions(item)
				if e != nil {
					err = e
					return
				}
				if sub != nil {
					cond.CompositeParts = append(cond.CompositeParts, *sub)
				}
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return cond, nil
}

// nodeToValue converts a scalar/sequence/mapping yaml.Node into a
// value.Value, preserving JSON-number semantics (int vs float distinguished
// by the presence of a decimal point or exponent, matching §4.3's "Numbers
// preserve JSON-number semantics"). NaN/Inf textual forms are rejected into
// a string rather than silently coerced, per §4.3.
func nodeToValue(n *yaml.Node) value.Value {
	if n == nil {
		return value.Null()
	}
	switch n.Kind {
	case yaml.ScalarNode:
		return scalarToValue(n)
	case yaml.SequenceNode:
		items := make([]value.Value, 0, len(n.Content))
		for _, item := range n.Content {
			items = append(items, nodeToValue(item))
		}
		return value.List(items)
	case yaml.MappingNode:
		b := value.NewMap()
		eachPair(n, func(_, v *yaml.Node, key string) { b.Set(key, nodeToValue(v)) })
		return b.Build()
	case yaml.AliasNode:
		return nodeToValue(n.Alias)
	default:
		return value.Null()
	}
}

func scalarToValue(n *yaml.Node) value.Value {
	switch n.Tag {
	case "!!null":
		return value.Null()
	case "!!bool":
		b, _ := strconv.ParseBool(n.Value)
		return value.Bool(b)
	case "!!int":
		i, err := strconv.ParseInt(n.Value, 0, 64)
		if err != nil {
			return value.String(n.Value)
		}
		return value.Int(i)
	case "!!float":
		f, err := strconv.ParseFloat(n.Value, 64)
		if err != nil || isNaNOrInf(f) {
			return value.String(n.Value)
		}
		return value.Float(f)
	default:
		return value.String(n.Value)
	}
}

func isNaNOrInf(f float64) bool {
	return math.IsNaN(f) || math.IsInf(f, 0)
}
