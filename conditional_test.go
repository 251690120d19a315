package linkschema

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/linkschema-go/linkschema/pkg/value"
)

func TestApplyConditionalRequirements(t *testing.T) {
	reqs := []ConditionalRequirement{
		{
			Label:        "us_state_required",
			IfField:      "country",
			Condition:    SlotExpression{EqualsString: sp("USA")},
			ThenRequired: []string{"state"},
		},
	}

	usa := value.NewMap().Set("country", value.String("USA")).Build()
	issues := ApplyConditionalRequirements(reqs, usa, "Order")
	assert.Len(t, issues, 1)
	assert.Equal(t, "data.conditional_required", issues[0].Code)

	usaWithState := value.NewMap().Set("country", value.String("USA")).Set("state", value.String("CA")).Build()
	assert.Empty(t, ApplyConditionalRequirements(reqs, usaWithState, "Order"))

	other := value.NewMap().Set("country", value.String("FR")).Build()
	assert.Empty(t, ApplyConditionalRequirements(reqs, other, "Order"))
}
