package planner

import (
	"fmt"
	"strings"

	"mealplanner/scheduler"
)

var slotInitial = map[scheduler.SlotPosition]string{
	scheduler.SlotBreakfast: "B",
	scheduler.SlotLunch:     "L",
	scheduler.SlotSnack:     "S",
	scheduler.SlotDinner:    "D",
}

// Summarize renders res as plain text suitable for chat, one line per day.
//
//	Weekly meal plan (seed 42)
//	26 of 28 meals planned (6 of 7 breakfasts); 92.3% with images
//	Monday: B Overnight Oats | L Lentil Soup | S Apple | D Salmon Bowl
//	...
func Summarize(res Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly meal plan (seed %d)\n", res.Plan.Seed)
	b.WriteString(res.Report.Summary())
	b.WriteByte('\n')

	for _, d := range res.Plan.Days {
		cells := make([]string, 0, scheduler.SlotsPerDay)
		for i, m := range d.Meals {
			slot := scheduler.SlotPositions[i]
			name := "-"
			if m != nil {
				name = m.Candidate.Name
				if name == "" {
					name = m.CandidateID
				}
				if m.Candidate.Generated() {
					name += " (AI)"
				}
			}
			cells = append(cells, slotInitial[slot]+" "+name)
		}
		fmt.Fprintf(&b, "%s: %s\n", d.Day, strings.Join(cells, " | "))
	}

	if len(res.Gaps) > 0 {
		fmt.Fprintf(&b, "Needs missing from the meal library: %s\n", strings.Join(res.Gaps, ", "))
	}
	for _, w := range res.Plan.Warnings {
		if w.Kind == scheduler.GapFillerUnavailable {
			fmt.Fprintf(&b, "Note: %s\n", w.Message)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
