package linkschema

// ValidatorSet names the constraint checks an effective slot definition
// requires, used for Stats.ValidatorsExecuted bookkeeping and for tests
// that assert on which checks a given slot shape triggers (spec §4.8:
// "the minimal set of validators implied by the slot's declared
// constraints, never a fixed fixed list run against every slot").
type ValidatorSet struct {
	Required         bool
	Multivalued      bool
	Type             bool
	PermissibleValue bool
	Pattern          bool
	StructuredPat    bool
	Range            bool
	EqualsString     bool
	EqualsStringIn   bool
	Combinator       bool
	Cardinality      bool
}

// Count returns how many distinct validators the set names, fed into
// Stats.ValidatorsExecuted.
func (s ValidatorSet) Count() int {
	n := 0
	for _, b := range []bool{
		s.Required, s.Multivalued, s.Type, s.PermissibleValue, s.Pattern,
		s.StructuredPat, s.Range, s.EqualsString, s.EqualsStringIn, s.Combinator, s.Cardinality,
	} {
		if b {
			n++
		}
	}
	return n
}

// SelectValidators inspects an effective Slot (and, when its range names
// an Enum, that enum) and reports which validators apply, per spec §4.8's
// per-shape selection table: a slot triggers exactly the validators implied
// by the constraints it declares.
func SelectValidators(slot Slot, rangeIsEnum bool) ValidatorSet {
	se := slot.Range
	return ValidatorSet{
		Required:         slot.Required,
		Multivalued:      slot.Multivalued,
		Type:             slot.RangeName != "" || se.Range != "",
		PermissibleValue: rangeIsEnum || len(se.PermissibleValues) > 0,
		Pattern:          se.Pattern != "",
		StructuredPat:    se.StructuredPattern != nil,
		Range:            se.MinimumValue != nil || se.MaximumValue != nil,
		EqualsString:     se.EqualsString != nil,
		EqualsStringIn:   len(se.EqualsStringIn) > 0,
		Combinator:       len(se.AnyOf) > 0 || len(se.AllOf) > 0 || len(se.ExactlyOneOf) > 0 || len(se.NoneOf) > 0,
		Cardinality:      slot.Multivalued && (se.MinimumCardinality != nil || se.MaximumCardinality != nil),
	}
}
