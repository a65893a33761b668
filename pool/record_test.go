package pool

import (
	"encoding/json"
	"testing"

	"mealplanner/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlotType(t *testing.T) {
	tests := []struct {
		in   string
		want scheduler.SlotType
		ok   bool
	}{
		{in: "Breakfast", want: scheduler.SlotTypeBreakfast, ok: true},
		{in: "LUNCH", want: scheduler.SlotTypeLunch, ok: true},
		{in: "snacks", want: scheduler.SlotTypeSnack, ok: true},
		{in: " dinner ", want: scheduler.SlotTypeDinner, ok: true},
		{in: "lunch_or_dinner", want: scheduler.SlotTypeLunchOrDinner, ok: true},
		{in: "Lunch/Dinner", want: scheduler.SlotTypeLunchOrDinner, ok: true},
		{in: "LunchOrDinner", want: scheduler.SlotTypeLunchOrDinner, ok: true},
		{in: "main", want: scheduler.SlotTypeLunchOrDinner, ok: true},
		{in: "brunch"},
		{in: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseSlotType(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func record(t *testing.T, doc string) rawRecord {
	t.Helper()
	var r rawRecord
	require.NoError(t, json.Unmarshal([]byte(doc), &r))
	return r
}

func TestRawRecord_ToCandidate(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		expected scheduler.MealCandidate
	}{
		{
			name: "canonical record",
			doc: `{
				"id": "salmon-bowl", "name": "Salmon Bowl", "description": "Seared salmon",
				"slot_type": "Dinner", "tags": ["Omega-3", "High-Protein"], "has_media": true,
				"nutrition": {"calories": 620, "protein_g": 42, "carbs_g": 55, "fat_g": 22, "fiber_g": 8},
				"ingredients": [{"name": "salmon", "qty": 200, "unit": "g"}],
				"instructions": ["Sear salmon", "Serve"]
			}`,
			expected: scheduler.MealCandidate{
				ID: "salmon-bowl", Name: "Salmon Bowl", Description: "Seared salmon",
				SlotType: scheduler.SlotTypeDinner, Tags: []string{"Omega-3", "High-Protein"},
				HasMedia: true, Origin: scheduler.OriginPool,
				Nutrition:    scheduler.Nutrition{Calories: 620, ProteinG: 42, CarbsG: 55, FatG: 22, FiberG: 8},
				Ingredients:  []scheduler.Ingredient{{Name: "salmon", Qty: 200, Unit: "g"}},
				Instructions: []string{"Sear salmon", "Serve"},
			},
		},
		{
			name: "loose record",
			doc: `{
				"meal_id": 17, "title": "Oats", "meal_type": "breakfast",
				"tags": "Fiber, Sleep-Support ,", "image_url": "https://cdn.example.com/oats.jpg",
				"calories": "350 kcal", "protein": "12g",
				"ingredients": "rolled oats\nmilk\nhoney",
				"instructions": "Soak overnight.\nTop with honey."
			}`,
			expected: scheduler.MealCandidate{
				ID: "17", Name: "Oats", SlotType: scheduler.SlotTypeBreakfast,
				Tags: []string{"Fiber", "Sleep-Support"}, HasMedia: true, Origin: scheduler.OriginPool,
				Nutrition:    scheduler.Nutrition{Calories: 350, ProteinG: 12},
				Ingredients:  []scheduler.Ingredient{{Name: "rolled oats"}, {Name: "milk"}, {Name: "honey"}},
				Instructions: []string{"Soak overnight.", "Top with honey."},
			},
		},
		{
			name: "ingredient map and string flags",
			doc: `{
				"id": "wrap", "name": "Turkey Wrap", "category": "Lunch/Dinner", "hasMedia": "false",
				"ingredients": {"turkey": "100 g", "tortilla": 1, "mustard": "to taste"}
			}`,
			expected: scheduler.MealCandidate{
				ID: "wrap", Name: "Turkey Wrap", SlotType: scheduler.SlotTypeLunchOrDinner, Origin: scheduler.OriginPool,
				Ingredients: []scheduler.Ingredient{
					{Name: "mustard"},
					{Name: "tortilla", Qty: 1},
					{Name: "turkey", Qty: 100, Unit: "g"},
				},
			},
		},
		{
			name: "mixed ingredient array and semicolons",
			doc: `{
				"id": "soup", "slot_type": "lunch", "ingredients": ["lentils", {"ingredient": "stock", "quantity": "1/2", "units": "l"}, {"qty": 3}],
				"nutrition": {"kcal": 410.5}
			}`,
			expected: scheduler.MealCandidate{
				ID: "soup", SlotType: scheduler.SlotTypeLunch, Origin: scheduler.OriginPool,
				Nutrition:   scheduler.Nutrition{Calories: 410.5},
				Ingredients: []scheduler.Ingredient{{Name: "lentils"}, {Name: "stock", Qty: 0.5, Unit: "l"}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := record(t, tt.doc).toCandidate(true)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestRawRecord_ToCandidateErrors(t *testing.T) {
	_, err := record(t, `{"name": "Mystery", "slot_type": "Dinner"}`).toCandidate(true)
	assert.ErrorContains(t, err, "has no id")

	_, err = record(t, `{"id": "x", "slot_type": "Brunch"}`).toCandidate(true)
	assert.ErrorContains(t, err, `unrecognized slot type "Brunch"`)

	c, err := record(t, `{"name": "Generated", "slot_type": "Snack"}`).toCandidate(false)
	require.NoError(t, err)
	assert.Empty(t, c.ID)
}

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"a", "b, c"}, splitList("a; b, c"))
	assert.Equal(t, []string{"a; b", "c"}, splitList("a; b\nc"))
	assert.Equal(t, []string{"a", "b"}, splitList("a, ,b"))
	assert.Nil(t, splitList(""))
}

func TestParseNumber(t *testing.T) {
	tests := map[string]float64{
		"450":      450,
		"450 kcal": 450,
		"12.5g":    12.5,
		"1/4 cup":  0.25,
		"-3":       -3,
		"a pinch":  0,
		"":         0,
	}
	for in, want := range tests {
		assert.Equal(t, want, parseNumber(in), in)
	}
}
