package linkschema

// ValidationContext carries the per-call configuration and accumulated
// issue state threaded through one validate_as_class/validate_collection
// invocation, grounded on the teacher's ErrorCollector/ValidationContext
// split between configuration and accumulated state.
type ValidationContext struct {
	opts ValidationOptions

	report  *Report
	stopped bool
	depth   int

	unique *uniqueTracker
}

func newValidationContext(opts ValidationOptions, schemaID, targetClass string) *ValidationContext {
	return &ValidationContext{
		opts:   opts,
		report: NewReport(schemaID, targetClass),
	}
}

// AddIssue records issue unless the context has already stopped. Stopping
// engages once an Error issue is added under fail_fast, matching the
// teacher's StopOnFirst semantics generalized from "first error ever" to
// "first error, if fail_fast is set"; it also engages when max_errors is
// positive and that many Error issues are already recorded, in which case
// the incoming issue, of any severity, is dropped.
func (ctx *ValidationContext) AddIssue(issue Issue) {
	if ctx.stopped {
		return
	}
	if ctx.opts.MaxErrors > 0 && ctx.report.Stats.ErrorCount >= ctx.opts.MaxErrors {
		ctx.stopped = true
		return
	}
	ctx.report.AddIssue(issue)
	if ctx.opts.FailFast && issue.Severity == Error {
		ctx.stopped = true
	}
}

// Stopped reports whether the context has stopped accepting new issues.
func (ctx *ValidationContext) Stopped() bool { return ctx.stopped }

func (ctx *ValidationContext) enterNested() error {
	ctx.depth++
	maxDepth := ctx.opts.effectiveMaxDepth()
	if ctx.depth > maxDepth {
		return &SchemaValidationError{Reason: "maximum nested validation depth exceeded"}
	}
	return nil
}

func (ctx *ValidationContext) exitNested() { ctx.depth-- }
