package pool_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"mealplanner/pool"
	"mealplanner/pool/storage"
	"mealplanner/scheduler"

	should "github.com/stretchr/testify/assert"
	must "github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantIDs []string
		wantErr string
	}{
		{
			name:    "bare array",
			doc:     `[{"id": "a", "slot_type": "Breakfast"}, {"id": "b", "slot_type": "Dinner"}]`,
			wantIDs: []string{"a", "b"},
		},
		{
			name:    "wrapped under candidates",
			doc:     `{"candidates": [{"id": "a", "slot_type": "Snack"}]}`,
			wantIDs: []string{"a"},
		},
		{
			name:    "wrapped under meals",
			doc:     `{"meals": [{"id": "a", "slot_type": "lunch"}]}`,
			wantIDs: []string{"a"},
		},
		{
			name: "bad records skipped and duplicates keep first",
			doc: `[
				{"id": "a", "name": "first", "slot_type": "Breakfast"},
				{"name": "no id", "slot_type": "Breakfast"},
				{"id": "b", "slot_type": "Brunch"},
				{"id": "a", "name": "second", "slot_type": "Dinner"},
				{"id": "c", "slot_type": "main"}
			]`,
			wantIDs: []string{"a", "c"},
		},
		{
			name:    "empty array",
			doc:     `[]`,
			wantIDs: []string{},
		},
		{
			name:    "object without records",
			doc:     `{"recipes": []}`,
			wantErr: "candidate pool has none of",
		},
		{
			name:    "not json",
			doc:     `<html>`,
			wantErr: "failed to parse candidate pool",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pool.Load(context.Background(), storage.NewTestState([]byte(tt.doc)))
			if tt.wantErr != "" {
				must.Error(t, err)
				should.Contains(t, err.Error(), tt.wantErr)
				return
			}
			must.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, c := range got {
				ids = append(ids, c.ID)
				should.Equal(t, scheduler.OriginPool, c.Origin)
			}
			should.Equal(t, tt.wantIDs, ids)
		})
	}

	t.Run("duplicate keeps first record", func(t *testing.T) {
		got, err := pool.Decode([]byte(`[{"id": "a", "name": "first", "slot_type": "Breakfast"}, {"id": "a", "name": "second", "slot_type": "Breakfast"}]`))
		must.NoError(t, err)
		must.Len(t, got, 1)
		should.Equal(t, "first", got[0].Name)
	})

	t.Run("state error", func(t *testing.T) {
		_, err := pool.Load(context.Background(), storage.NewTestStateWithError(storage.ErrNotFound))
		must.Error(t, err)
		should.True(t, errors.Is(err, storage.ErrNotFound))
	})
}

func TestLoadedPoolSchedules(t *testing.T) {
	doc := `[`
	for i, st := range []string{"breakfast", "lunch", "snack", "dinner"} {
		for n := 0; n < 7; n++ {
			if i+n > 0 {
				doc += ","
			}
			doc += fmt.Sprintf(`{"id": "%s-%d", "meal_type": "%s", "image_url": "x.jpg"}`, st, n, st)
		}
	}
	doc += `]`

	candidates, err := pool.Decode([]byte(doc))
	must.NoError(t, err)
	must.Len(t, candidates, 28)

	profile := scheduler.BuildNeedsProfile(scheduler.DefaultHealthSummary())
	plan, err := scheduler.Assign(scheduler.ScorePool(candidates, profile), profile, 1)
	must.NoError(t, err)

	report := scheduler.Validate(plan, profile)
	should.Equal(t, 28, report.FilledCells)
	should.Equal(t, 100.0, report.MediaCoveragePercentage)
}

func TestDecodeGenerated(t *testing.T) {
	got, err := pool.DecodeGenerated([]byte(`{"meals": [
		{"name": "Miso Salmon", "slot_type": "Dinner", "tags": ["Omega-3"]},
		{"name": "Bad", "slot_type": "Elevenses"},
		{"id": "keep-me", "name": "Chia Pudding", "slot_type": "Breakfast", "origin": "pool"}
	]}`))
	must.NoError(t, err)
	must.Len(t, got, 2)

	should.Empty(t, got[0].ID)
	should.Equal(t, "keep-me", got[1].ID)
	for _, c := range got {
		should.True(t, c.Generated())
	}
}

func TestLoadSummary(t *testing.T) {
	tests := []struct {
		name     string
		state    storage.State
		expected scheduler.HealthSummary
		wantErr  bool
	}{
		{
			name:     "missing document uses default",
			state:    storage.NewTestStateWithError(fmt.Errorf("%w: summary.json", storage.ErrNotFound)),
			expected: scheduler.DefaultHealthSummary(),
		},
		{
			name:  "averages only are derived",
			state: storage.NewTestState([]byte(`{"recovery_pct": 30, "strain": "17", "sleep_hours": 5.5, "hrv": 28, "resting_hr": 68, "calories": 3100}`)),
			expected: scheduler.DeriveSummary(scheduler.Averages{
				RecoveryPct: 30, Strain: 17, SleepHours: 5.5, HRV: 28, RestingHR: 68, Calories: 3100,
			}),
		},
		{
			name:  "missing metrics fall back to defaults",
			state: storage.NewTestState([]byte(`{"averages": {"recovery": 85}}`)),
			expected: scheduler.DeriveSummary(scheduler.Averages{
				RecoveryPct: 85,
				Strain:      scheduler.DefaultAverages.Strain,
				SleepHours:  scheduler.DefaultAverages.SleepHours,
				HRV:         scheduler.DefaultAverages.HRV,
				RestingHR:   scheduler.DefaultAverages.RestingHR,
				Calories:    scheduler.DefaultAverages.Calories,
			}),
		},
		{
			name: "categorical summary kept as given",
			state: storage.NewTestState([]byte(`{
				"recovery_status": "Poor", "fatigue_level": "high", "sleep_quality": "fair",
				"metabolic_demand": "low", "protein_emphasis": "high", "carb_timing": "evening",
				"anti_inflammatory": true, "hydration_focus": "true"
			}`)),
			expected: scheduler.HealthSummary{
				RecoveryStatus:   scheduler.LevelPoor,
				FatigueLevel:     scheduler.LevelHigh,
				SleepQuality:     scheduler.LevelFair,
				MetabolicDemand:  scheduler.LevelLow,
				ProteinEmphasis:  scheduler.ProteinHigh,
				CarbTiming:       scheduler.CarbsEvening,
				AntiInflammatory: true,
				HydrationFocus:   true,
				Averages:         scheduler.DefaultAverages,
			},
		},
		{
			name:    "other load errors surface",
			state:   storage.NewTestStateWithError(errors.New("throttled")),
			wantErr: true,
		},
		{
			name:    "malformed document",
			state:   storage.NewTestState([]byte(`[1, 2]`)),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := pool.LoadSummary(context.Background(), tt.state)
			if tt.wantErr {
				should.Error(t, err)
				return
			}
			must.NoError(t, err)
			should.Equal(t, tt.expected, got)
		})
	}
}
