package mealplanner

import (
	"context"
	"net/http"

	"mealplanner/scheduler"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Notifier delivers a rendered plan summary somewhere a person will read it.
type Notifier interface {
	PostMessage(ctx context.Context, channel string, message string) error
}

// GapFillRequest asks a generative source for meals covering needs the pool
// cannot satisfy.
type GapFillRequest struct {
	Needs         []string               `json:"needs"`
	Profile       scheduler.NeedsProfile `json:"profile"`
	PerNeed       int                    `json:"per_need"`
	ExistingNames []string               `json:"existing_names,omitempty"`
}

// GapFiller synthesizes candidates for uncovered needs. Implementations must
// honor ctx cancellation; the planner bounds every call with a deadline.
type GapFiller interface {
	FillGaps(ctx context.Context, req GapFillRequest) ([]scheduler.MealCandidate, error)
}

// GapFillerFunc adapts a plain function to GapFiller.
type GapFillerFunc func(ctx context.Context, req GapFillRequest) ([]scheduler.MealCandidate, error)

func (f GapFillerFunc) FillGaps(ctx context.Context, req GapFillRequest) ([]scheduler.MealCandidate, error) {
	return f(ctx, req)
}
