package linkschema

import (
	"fmt"
	"time"

	"github.com/linkschema-go/linkschema/pkg/constraints"
	"github.com/linkschema-go/linkschema/pkg/expr"
	"github.com/linkschema-go/linkschema/pkg/value"
)

// Options is the caller-facing per-call override set for ValidateAsClass
// and ValidateCollection (spec §4.13): any field left nil inherits from the
// schema's Settings; a non-nil field overrides it for this call only.
type Options struct {
	Strict          *bool
	FailFast        *bool
	MaxErrors       *int
	AllowAdditional *bool
	MaxDepth        *int
	RuleStrategy    *ExecutionStrategy
}

// ValidationOptions is the resolved, concrete configuration threaded
// through one validation call after merging Options with schema Settings.
type ValidationOptions struct {
	Strict          bool
	FailFast        bool
	MaxErrors       int
	AllowAdditional bool
	MaxDepth        int
	RuleStrategy    ExecutionStrategy
}

func (o ValidationOptions) effectiveMaxDepth() int {
	if o.MaxDepth > 0 {
		return o.MaxDepth
	}
	return 64
}

func resolveOptions(opts *Options, s Settings) ValidationOptions {
	vo := ValidationOptions{
		Strict:          s.ValidationStrict,
		FailFast:        s.ValidationFailFast,
		MaxErrors:       s.ValidationMaxErrors,
		AllowAdditional: s.ValidationAllowAdditionalProps,
		MaxDepth:        s.ValidationMaxDepth,
		RuleStrategy:    s.ValidationRuleStrategy,
	}
	if opts == nil {
		return vo
	}
	if opts.Strict != nil {
		vo.Strict = *opts.Strict
	}
	if opts.FailFast != nil {
		vo.FailFast = *opts.FailFast
	}
	if opts.MaxErrors != nil {
		vo.MaxErrors = *opts.MaxErrors
	}
	if opts.AllowAdditional != nil {
		vo.AllowAdditional = *opts.AllowAdditional
	}
	if opts.MaxDepth != nil {
		vo.MaxDepth = *opts.MaxDepth
	}
	if opts.RuleStrategy != nil {
		vo.RuleStrategy = *opts.RuleStrategy
	}
	return vo
}

// Engine binds a resolved Schema to the machinery needed to validate
// instances against it: inheritance resolution (C5), expression evaluation
// with its LRU cache (pkg/expr), and a Clock capability for now()/today().
// One Engine is built per schema and reused across many validation calls.
type Engine struct {
	schema   *Schema
	resolver *Resolver
	registry *expr.Registry
	cache    *expr.Cache
	clock    Clock
}

// NewEngine builds an Engine for schema. clock may be nil, in which case
// now()/today() fail with an evaluation error rather than silently using
// wall-clock time (spec §4.15: the system clock is opt-in via SystemClock()).
func NewEngine(schema *Schema, clock Clock) (*Engine, error) {
	resolver, err := NewResolver(schema)
	if err != nil {
		return nil, err
	}
	cacheSize := schema.Settings.PerformanceCacheSize
	if !schema.Settings.PerformanceExpressionCacheEnabled {
		cacheSize = 0
	}
	return &Engine{
		schema:   schema,
		resolver: resolver,
		registry: expr.StandardRegistry(),
		cache:    expr.NewCache(cacheSize),
		clock:    clock,
	}, nil
}

func (e *Engine) exprOptions() expr.Options {
	var c expr.Clock
	if e.clock != nil {
		c = e.clock
	}
	return expr.Options{Registry: e.registry, Clock: c, Limits: expr.DefaultLimits()}
}

func (e *Engine) evalExpr(src string, vars expr.Context) (value.Value, error) {
	ex, err := expr.Parse(src)
	if err != nil {
		return value.Null(), err
	}
	return e.cache.EvalCached(ex, vars, e.exprOptions())
}

// ValidateAsClass validates one instance against className (spec §4.13,
// the "validate_as_class" operation).
func (e *Engine) ValidateAsClass(instance value.Value, className string, opts *Options) (*Report, error) {
	started := time.Now()
	vo := resolveOptions(opts, e.schema.Settings)
	ctx := newValidationContext(vo, e.schema.ID, className)
	ctx.unique = newUniqueTracker()
	ctx.report.Stats.TotalValidated = 1

	if err := e.validateInstance(ctx, className, instance, className); err != nil {
		return nil, err
	}
	ctx.report.SortIssues()
	e.finishStats(ctx.report, started)
	return ctx.report, nil
}

// ValidateCollection validates each instance against className, threading
// one uniqueTracker across the whole collection so identifier and
// UniqueKey duplicates are caught across instances (spec §4.12, §4.13).
func (e *Engine) ValidateCollection(instances []value.Value, className string, opts *Options) (*Report, error) {
	started := time.Now()
	vo := resolveOptions(opts, e.schema.Settings)
	ctx := newValidationContext(vo, e.schema.ID, className)
	ctx.unique = newUniqueTracker()
	ctx.report.Stats.TotalValidated = len(instances)

	for i, inst := range instances {
		if ctx.Stopped() {
			break
		}
		path := fmt.Sprintf("%s[%d]", className, i)
		if err := e.validateInstance(ctx, className, inst, path); err != nil {
			return nil, err
		}
	}
	ctx.report.SortIssues()
	e.finishStats(ctx.report, started)
	return ctx.report, nil
}

// finishStats fills the timing and cache fields of a finished report. The
// wall clock here is bookkeeping, not semantics: spec §8.1's deterministic
// reports property holds modulo timing stats.
func (e *Engine) finishStats(r *Report, started time.Time) {
	r.Stats.DurationMS = float64(time.Since(started).Microseconds()) / 1000.0
	r.Stats.CacheHitRate = e.cache.HitRate()
}

// validateInstance is the recursive core: resolve effective slots for
// className, check for unrecognized keys, validate each declared slot's
// value (descending into nested class-ranged objects), then apply
// class-level rules, conditional requirements, and unique keys.
func (e *Engine) validateInstance(ctx *ValidationContext, className string, instance value.Value, path string) error {
	if ctx.Stopped() {
		return nil
	}
	if err := ctx.enterNested(); err != nil {
		ctx.AddIssue(Issue{Severity: Error, Message: err.Error(), Path: path, Code: "schema.max_depth"})
		return nil
	}
	defer ctx.exitNested()

	class, ok := e.schema.Classes.Get(className)
	if !ok {
		ctx.AddIssue(Issue{Severity: Error, Message: "unknown class: " + className, Path: path, Code: "schema.unknown_class"})
		return nil
	}
	if instance.Kind() != value.KindMap {
		ctx.AddIssue(Issue{Severity: Error, Message: "instance is not a map", Path: path, Code: "data.type"})
		return nil
	}

	slotNames, err := e.resolver.EffectiveSlots(className)
	if err != nil {
		return err
	}

	declared := map[string]bool{}
	for _, name := range slotNames {
		declared[name] = true
	}
	for _, key := range instance.Keys() {
		if declared[key] || ctx.opts.AllowAdditional {
			continue
		}
		// unknown slots warn by default; strict upgrades to an error but
		// never drops the issue (spec §8.1 monotone strictness)
		sev := Warning
		if ctx.opts.Strict {
			sev = Error
		}
		ctx.AddIssue(Issue{
			Severity: sev, Message: "unrecognized field: " + key,
			Path: path + "." + key, Code: "data.unknown_field",
		})
		if ctx.Stopped() {
			return nil
		}
	}

	for _, slotName := range slotNames {
		if ctx.Stopped() {
			return nil
		}
		slot, err := e.resolver.EffectiveSlotDefinition(className, slotName)
		if err != nil {
			return err
		}
		_, rangeIsEnum := e.schema.Enums.Get(slot.RangeName)
		ctx.report.Stats.ValidatorsExecuted += SelectValidators(slot, rangeIsEnum).Count()
		fieldPath := path + "." + slotName
		raw, present := instance.Field(slotName)
		if !present || raw.IsNull() {
			if slot.IfAbsent != nil {
				v, err := e.resolveDefault(*slot.IfAbsent, instance)
				if err != nil {
					ctx.AddIssue(Issue{Severity: Error, Message: "ifabsent expression failed: " + err.Error(), Path: fieldPath, Code: "expression.error"})
					continue
				}
				raw = v
				present = true
			}
		}
		if err := e.validateSlotValue(ctx, class, slot, raw, present, fieldPath); err != nil {
			return err
		}
	}

	if ctx.Stopped() {
		return nil
	}

	rules, err := e.resolver.EffectiveRules(className)
	if err != nil {
		return err
	}
	ruleIssues, err := ApplyRulesWithStrategy(rules, instance, path, e.exprOptions(), RuleExecution{
		Strategy: ctx.opts.RuleStrategy,
		FailFast: ctx.opts.FailFast,
	})
	if err != nil {
		return err
	}
	for _, issue := range ruleIssues {
		ctx.AddIssue(issue)
		if ctx.Stopped() {
			return nil
		}
	}

	var condReqs []ConditionalRequirement
	for _, name := range class.IfRequired.Keys() {
		req, _ := class.IfRequired.Get(name)
		condReqs = append(condReqs, req)
	}
	for _, issue := range ApplyConditionalRequirements(condReqs, instance, path) {
		ctx.AddIssue(issue)
		if ctx.Stopped() {
			return nil
		}
	}

	for _, keyName := range class.UniqueKeys.Keys() {
		uk, _ := class.UniqueKeys.Get(keyName)
		tuple := make([]value.Value, len(uk.Slots))
		for i, slotName := range uk.Slots {
			v, _ := instance.Field(slotName)
			tuple[i] = v
		}
		if issue := ctx.unique.CheckCompositeKey(className, keyName, tuple, path); issue != nil {
			ctx.AddIssue(*issue)
			if ctx.Stopped() {
				return nil
			}
		}
	}

	return nil
}

func (e *Engine) resolveDefault(def DefaultExpr, instance value.Value) (value.Value, error) {
	if def.Literal != nil {
		return *def.Literal, nil
	}
	return e.evalExpr(def.Expression, exprContextFromInstance(instance))
}

// validateSlotValue runs every validator SelectValidators identifies for
// slot against raw, handling multivalued fan-out and class-ranged descent.
func (e *Engine) validateSlotValue(ctx *ValidationContext, class *Class, slot Slot, raw value.Value, present bool, path string) error {
	if slot.Required && (!present || raw.IsNull()) {
		ctx.AddIssue(Issue{Severity: Error, Message: "required field is missing", Path: path, ValidatorName: "Required", Code: "data.required"})
		return nil
	}
	if !present || raw.IsNull() {
		return nil // optional and absent: nothing further to check
	}

	if slot.Identifier {
		if issue := ctx.unique.CheckIdentifier(class.Name, slot.Name, raw, path); issue != nil {
			ctx.AddIssue(*issue)
			if ctx.Stopped() {
				return nil
			}
		}
	}

	if slot.Multivalued {
		items, ok := raw.AsList()
		if !ok {
			ctx.AddIssue(Issue{Severity: Error, Message: "multivalued field requires a list", Path: path, ValidatorName: "Type", Code: "data.type"})
			return nil
		}
		se := slot.Range
		if se.MinimumCardinality != nil && len(items) < *se.MinimumCardinality {
			ctx.AddIssue(Issue{Severity: Error, Message: "too few elements", Path: path, ValidatorName: "Cardinality", Code: "data.cardinality"})
		}
		if se.MaximumCardinality != nil && len(items) > *se.MaximumCardinality {
			ctx.AddIssue(Issue{Severity: Error, Message: "too many elements", Path: path, ValidatorName: "Cardinality", Code: "data.cardinality"})
		}
		elemSlot := slot
		elemSlot.Range.MinimumCardinality, elemSlot.Range.MaximumCardinality = nil, nil
		for i, item := range items {
			if ctx.Stopped() {
				return nil
			}
			if err := e.validateScalarSlotValue(ctx, class, elemSlot, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	}

	return e.validateScalarSlotValue(ctx, class, slot, raw, path)
}

func (e *Engine) validateScalarSlotValue(ctx *ValidationContext, class *Class, slot Slot, v value.Value, path string) error {
	if nestedClass, ok := e.schema.Classes.Get(slot.RangeName); ok {
		_ = nestedClass
		return e.validateInstance(ctx, slot.RangeName, v, path)
	}

	if enum, ok := e.schema.Enums.Get(slot.RangeName); ok {
		allowed := make([]string, 0, enum.PermissibleValues.Len())
		for _, pv := range enum.PermissibleValues.Keys() {
			allowed = append(allowed, pv)
		}
		pv := &constraints.PermissibleValue{Allowed: allowed}
		for _, viol := range pv.Validate(v) {
			ctx.AddIssue(Issue{Severity: Error, Message: viol.Message, Path: path, ValidatorName: "PermissibleValue", Code: "data.enum"})
			if ctx.Stopped() {
				return nil
			}
		}
	}

	if t, ok := e.schema.Types.Get(slot.RangeName); ok {
		if t.Pattern != "" {
			p, err := constraints.NewPattern(t.Pattern)
			if err == nil {
				for _, viol := range p.Validate(v) {
					ctx.AddIssue(Issue{Severity: Error, Message: viol.Message, Path: path, ValidatorName: "Pattern", Code: "data.pattern"})
				}
			}
		}
		if t.MinimumValue != nil || t.MaximumValue != nil {
			r := rangeConstraint(t.MinimumValue, t.MaximumValue)
			for _, viol := range r.Validate(v) {
				ctx.AddIssue(Issue{Severity: Error, Message: viol.Message, Path: path, ValidatorName: "Range", Code: "data.range"})
			}
		}
		if kind, ok := tagToKind(t.Base); ok {
			tc := &constraints.Type{Allowed: []constraints.PrimitiveKind{kind}, Coerce: true}
			for _, viol := range tc.Validate(v) {
				ctx.AddIssue(Issue{Severity: Error, Message: viol.Message, Path: path, ValidatorName: "Type", Code: "data.type"})
			}
		}
		if ctx.Stopped() {
			return nil
		}
	}

	for _, viol := range EvaluateSlotExpression(slot.Range, v) {
		ctx.AddIssue(Issue{Severity: Error, Message: viol.Message, Path: path, ValidatorName: "SlotExpression", Code: violationCode(viol)})
		if ctx.Stopped() {
			return nil
		}
	}
	return nil
}

// violationCode maps a constraint violation to its dotted issue code,
// defaulting to the generic data.constraint when the constraint did not
// declare one (spec §6.4's data.* namespace).
func violationCode(viol constraints.Violation) string {
	if viol.Code != "" {
		return viol.Code
	}
	return "data.constraint"
}

func tagToKind(tag PrimitiveTag) (constraints.PrimitiveKind, bool) {
	switch tag {
	case TagString, TagURI, TagURIorCURIE, TagCURIE, TagNCName, TagNodeIdent, TagDate, TagDatetime, TagTime:
		return constraints.KindString, true
	case TagInteger:
		return constraints.KindInteger, true
	case TagFloat, TagDouble:
		return constraints.KindFloat, true
	case TagBoolean:
		return constraints.KindBoolean, true
	default:
		return constraints.KindAny, false
	}
}
