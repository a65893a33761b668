package mock

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"mealplanner"
	"mealplanner/scheduler"
)

// rotation spreads synthesized meals across slot types.
var rotation = []scheduler.SlotType{
	scheduler.SlotTypeBreakfast,
	scheduler.SlotTypeLunchOrDinner,
	scheduler.SlotTypeSnack,
}

// Filler is a deterministic offline gap filler. It only serves local runs
// and tests; every meal is a template stamped with the need it covers.
type Filler struct {
	// Delay simulates model latency. The call still honors ctx.
	Delay time.Duration
}

var _ mealplanner.GapFiller = (*Filler)(nil)

func NewFiller() *Filler {
	return &Filler{}
}

func (f *Filler) FillGaps(ctx context.Context, req mealplanner.GapFillRequest) ([]scheduler.MealCandidate, error) {
	slog.Info("GAP_FILLER: Mock invoked", "needs", req.Needs, "per_need", req.PerNeed)

	if f.Delay > 0 {
		select {
		case <-time.After(f.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	perNeed := max(req.PerNeed, 1)
	existing := make(map[string]bool, len(req.ExistingNames))
	for _, n := range req.ExistingNames {
		existing[strings.ToLower(n)] = true
	}

	var out []scheduler.MealCandidate
	for _, need := range req.Needs {
		for i := 0; i < perNeed; i++ {
			st := rotation[i%len(rotation)]
			name := fmt.Sprintf("%s %s Bowl", need, slotLabel(st))
			if i >= len(rotation) {
				name = fmt.Sprintf("%s #%d", name, i/len(rotation)+1)
			}
			if existing[strings.ToLower(name)] {
				continue
			}
			out = append(out, scheduler.MealCandidate{
				Name:        name,
				Description: fmt.Sprintf("A simple %s built around %s.", strings.ToLower(slotLabel(st)), need),
				SlotType:    st,
				Tags:        append([]string{need}, req.Profile.RequiredTags...),
				Origin:      scheduler.OriginGenerated,
				Nutrition:   scheduler.Nutrition{Calories: 450, ProteinG: 30, CarbsG: 45, FatG: 15, FiberG: 8},
				Ingredients: []scheduler.Ingredient{
					{Name: "brown rice", Qty: 150, Unit: "g"},
					{Name: "mixed greens", Qty: 60, Unit: "g"},
				},
				Instructions: []string{"Cook the base.", "Top and serve."},
			})
		}
	}

	slog.Info("GAP_FILLER: Mock returning meals", "meals_count", len(out))
	return out, nil
}

func slotLabel(st scheduler.SlotType) string {
	if st == scheduler.SlotTypeLunchOrDinner {
		return "Main"
	}
	return string(st)
}
