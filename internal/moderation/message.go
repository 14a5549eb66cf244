package moderation

import (
	"fmt"

	"diabeater-console/pkg/models"
)

// DefaultDeciderName is used when no display name can be resolved.
const DefaultDeciderName = "Admin"

// DecisionMessage composes the author-facing text for a verdict. The
// rejection reason is embedded verbatim.
func DecisionMessage(planName, decider string, verdict models.MealPlanStatus, reason string) string {
	if decider == "" {
		decider = DefaultDeciderName
	}
	if verdict == models.StatusRejected {
		return fmt.Sprintf("Your meal plan \"%s\" has been rejected by %s. Reason: %s", planName, decider, reason)
	}
	return fmt.Sprintf("Your meal plan \"%s\" has been approved by %s.", planName, decider)
}
