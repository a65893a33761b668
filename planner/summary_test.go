package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"mealplanner"
	"mealplanner/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	filler, _ := fillWith(omegaSnacks, nil)
	res, err := New(Options{GapFiller: filler}).Plan(context.Background(), Request{
		Pool:          weekPool(1),
		CriticalNeeds: []string{"Omega-3"},
		Seed:          seedOf(42),
	})
	require.NoError(t, err)

	lines := strings.Split(Summarize(res), "\n")
	require.Len(t, lines, 10)

	assert.Equal(t, "Weekly meal plan (seed 42)", lines[0])
	assert.Equal(t, res.Report.Summary(), lines[1])
	for i, day := range scheduler.Weekdays {
		assert.True(t, strings.HasPrefix(lines[2+i], string(day)+": B "), lines[2+i])
		assert.Equal(t, 3, strings.Count(lines[2+i], " | "))
	}
	assert.Equal(t, "Needs missing from the meal library: Omega-3", lines[9])

	body := strings.Join(lines[2:9], "\n")
	assert.Equal(t, 3, strings.Count(body, " (AI)"))
	assert.Equal(t, 3, strings.Count(body, "S -"))
}

func TestSummarize_GapFillerNote(t *testing.T) {
	filler := mealplanner.GapFillerFunc(func(ctx context.Context, req mealplanner.GapFillRequest) ([]scheduler.MealCandidate, error) {
		return nil, errors.New("boom")
	})
	res, err := New(Options{GapFiller: filler}).Plan(context.Background(), Request{
		Pool:          weekPool(7),
		CriticalNeeds: []string{"Omega-3"},
		Seed:          seedOf(1),
	})
	require.NoError(t, err)

	out := Summarize(res)
	assert.True(t, strings.HasSuffix(out, "Note: gap filler failed: boom"), out)
	assert.NotContains(t, out, "(AI)")
	assert.NotContains(t, out, " -")
}
