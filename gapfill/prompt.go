package gapfill

import (
	"fmt"
	"strings"

	"mealplanner"
)

const SystemPrompt = `You are a sports nutritionist creating meals for a weekly meal plan.

GOAL:
The user's meal library has nothing that covers some nutritional needs. Create new, realistic meals that cover them.

RULES:
- Every meal MUST carry the need it covers as one of its tags, spelled exactly as given.
- slot_type MUST be one of: Breakfast, Lunch, Snack, Dinner, LunchOrDinner.
- Never use an ingredient or style named in the excluded tags.
- Include every required tag on every meal.
- Do not repeat any existing meal name.
- Quantities are per serving. Nutrition values are numbers without units.

Return the meals by calling the submit_meals tool, or, if tools are unavailable, as ONLY a JSON object of the form {"meals": [...]} with no text before or after it.`

// UserPrompt renders the concrete request for one gap-fill call.
func UserPrompt(req mealplanner.GapFillRequest) string {
	perNeed := req.PerNeed
	if perNeed < 1 {
		perNeed = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Create %d meal(s) for each of these needs: %s.\n", perNeed, strings.Join(req.Needs, ", "))
	if len(req.Profile.RequiredTags) > 0 {
		fmt.Fprintf(&b, "Required tags: %s.\n", strings.Join(req.Profile.RequiredTags, ", "))
	}
	if len(req.Profile.ExcludeTags) > 0 {
		fmt.Fprintf(&b, "Excluded tags: %s.\n", strings.Join(req.Profile.ExcludeTags, ", "))
	}
	if len(req.Profile.PreferredTags) > 0 {
		fmt.Fprintf(&b, "Also favor: %s.\n", strings.Join(req.Profile.PreferredTags, ", "))
	}
	if len(req.ExistingNames) > 0 {
		fmt.Fprintf(&b, "Existing meals: %s.\n", strings.Join(req.ExistingNames, "; "))
	}
	b.WriteString("Spread the meals across slot types.")
	return b.String()
}
