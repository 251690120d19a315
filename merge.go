package linkschema

// MergeSlotOverride implements spec §4.2's merge_slot_override: scalar
// fields on override replace the base field when set; list-valued
// metadata (aliases, see_also, examples, notes, comments, todos)
// concatenate base then override; rank takes the override's value when
// set. "Set" is decided by overrideSet alone, for every field type, not
// by zero values: slot_usage parsing marks the fields present in the
// override document, and for classes built without that record the
// caller passes AllFields(), under which every field of override
// replaces the base field, zero values included.
func MergeSlotOverride(base Slot, override Slot, overrideSet fieldSet) Slot {
	out := base

	if overrideSet.has("description") {
		out.Description = override.Description
	}
	if overrideSet.has("range") {
		out.Range = override.Range
		out.RangeName = override.RangeName
	}
	if overrideSet.has("pattern") {
		out.Range.Pattern = override.Range.Pattern
	}
	if overrideSet.has("required") {
		out.Required = override.Required
		out.Range.Required = override.Range.Required
	}
	if overrideSet.has("identifier") {
		out.Identifier = override.Identifier
	}
	if overrideSet.has("multivalued") {
		out.Multivalued = override.Multivalued
	}
	if overrideSet.has("inlined") {
		out.Inlined = override.Inlined
	}
	if overrideSet.has("inlined_as_list") {
		out.InlinedAsList = override.InlinedAsList
	}
	if overrideSet.has("deprecated") {
		out.Deprecated = override.Deprecated
	}
	if overrideSet.has("ifabsent") {
		out.IfAbsent = override.IfAbsent
	}
	if overrideSet.has("minimum_value") {
		out.Range.MinimumValue = override.Range.MinimumValue
	}
	if overrideSet.has("maximum_value") {
		out.Range.MaximumValue = override.Range.MaximumValue
	}
	if overrideSet.has("permissible_values") {
		out.Range.PermissibleValues = override.Range.PermissibleValues
	}
	if overrideSet.has("any_of") {
		out.Range.AnyOf = override.Range.AnyOf
	}
	if overrideSet.has("all_of") {
		out.Range.AllOf = override.Range.AllOf
	}
	if overrideSet.has("exactly_one_of") {
		out.Range.ExactlyOneOf = override.Range.ExactlyOneOf
	}
	if overrideSet.has("none_of") {
		out.Range.NoneOf = override.Range.NoneOf
	}
	if overrideSet.has("equals_string") {
		out.Range.EqualsString = override.Range.EqualsString
	}
	if overrideSet.has("equals_string_in") {
		out.Range.EqualsStringIn = override.Range.EqualsStringIn
	}
	if overrideSet.has("equals_number") {
		out.Range.EqualsNumber = override.Range.EqualsNumber
	}
	if overrideSet.has("structured_pattern") {
		out.Range.StructuredPattern = override.Range.StructuredPattern
	}

	// list-valued metadata concatenates regardless of which fields were
	// explicitly set, matching the teacher's additive annotation merge.
	out.Aliases = append(append([]string(nil), base.Aliases...), override.Aliases...)
	out.SeeAlso = append(append([]string(nil), base.SeeAlso...), override.SeeAlso...)
	out.Examples = append(append([]string(nil), base.Examples...), override.Examples...)
	out.Notes = append(append([]string(nil), base.Notes...), override.Notes...)
	out.Comments = append(append([]string(nil), base.Comments...), override.Comments...)
	out.Todos = append(append([]string(nil), base.Todos...), override.Todos...)

	if override.Rank != nil {
		out.Rank = override.Rank
	}

	out.Annotations = MergeAnnotations(base.Annotations, override.Annotations)

	return out
}

// fieldSet tracks which override fields were explicitly present in the
// source document, so an override's zero value (e.g. required=false)
// is distinguishable from "not specified".
type fieldSet map[string]bool

func newFieldSet(fields ...string) fieldSet {
	fs := make(fieldSet, len(fields))
	for _, f := range fields {
		fs[f] = true
	}
	return fs
}

func (fs fieldSet) has(field string) bool { return fs[field] }

// AllFields is a fieldSet that marks every known slot_usage field as set;
// used when an override Slot was built programmatically (e.g. in tests)
// rather than parsed from a document that tracks field presence.
func AllFields() fieldSet {
	return newFieldSet(
		"description", "range", "pattern", "required", "identifier",
		"multivalued", "inlined", "inlined_as_list", "deprecated", "ifabsent",
		"minimum_value", "maximum_value", "permissible_values", "any_of",
		"all_of", "exactly_one_of", "none_of", "equals_string",
		"equals_string_in", "equals_number", "structured_pattern",
	)
}
