package linkschema

import "github.com/linkschema-go/linkschema/pkg/value"

// ApplyConditionalRequirements evaluates className's if_required entries
// against instance (spec §4.11): when condition holds against the current
// value of if_field, every slot named in then_required must be present and
// non-null, or an Issue is reported.
func ApplyConditionalRequirements(reqs []ConditionalRequirement, instance value.Value, path string) []Issue {
	var issues []Issue
	for _, req := range reqs {
		fieldVal, _ := instance.Field(req.IfField)
		if !Satisfies(req.Condition, fieldVal) {
			continue
		}
		for _, slotName := range req.ThenRequired {
			v, ok := instance.Field(slotName)
			if !ok || v.IsNull() {
				issues = append(issues, Issue{
					Severity:      Error,
					Message:       "conditionally required field is missing: " + slotName,
					Path:          path + "." + slotName,
					ValidatorName: "ConditionalRequirement",
					Code:          "data.conditional_required",
					Context:       map[string]any{"label": req.Label, "if_field": req.IfField},
				})
			}
		}
	}
	return issues
}
