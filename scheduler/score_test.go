package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMealCandidate_Matches(t *testing.T) {
	c := MealCandidate{
		ID:          "salmon-bowl",
		Name:        "Omega-3 Salmon Bowl",
		Description: "Seared salmon over quinoa with greens",
		Tags:        []string{"protein", "Anti-Inflammatory Foods"},
	}

	tests := []struct {
		need string
		want bool
	}{
		{need: "High-Protein", want: true},      // keyword contains tag
		{need: "anti-inflammatory", want: true}, // tag contains keyword
		{need: "OMEGA-3", want: true},           // name
		{need: "quinoa", want: true},            // description
		{need: "Sleep-Support", want: false},
		{need: "", want: false},
		{need: "   ", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.need, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Matches(tt.need))
		})
	}
}

func TestScore(t *testing.T) {
	profile := NeedsProfile{
		PreferredTags: []string{"Recovery", "High-Protein", "Omega-3"},
		ExcludeTags:   []string{"Fried", "Spicy"},
	}

	tests := []struct {
		name      string
		candidate MealCandidate
		expected  int
	}{
		{
			name:      "no matches keeps base score",
			candidate: MealCandidate{ID: "plain", Name: "Plain Rice"},
			expected:  BaseScore,
		},
		{
			name:      "two preferred matches",
			candidate: MealCandidate{ID: "a", Name: "Salmon", Tags: []string{"recovery", "omega-3"}},
			expected:  BaseScore + 2*PreferredBonus,
		},
		{
			name:      "excluded match subtracts",
			candidate: MealCandidate{ID: "b", Name: "Fried Chicken", Tags: []string{"protein"}},
			expected:  BaseScore + PreferredBonus - ExcludePenalty,
		},
		{
			name:      "multiple exclusions",
			candidate: MealCandidate{ID: "c", Name: "Spicy Fried Wings"},
			expected:  BaseScore - 2*ExcludePenalty,
		},
		{
			name:      "required tags do not score",
			candidate: MealCandidate{ID: "d", Name: "Vegan Bowl", Tags: []string{"Vegan"}},
			expected:  BaseScore,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := profile
			p.RequiredTags = []string{"Vegan"}
			assert.Equal(t, tt.expected, Score(tt.candidate, p))
			assert.Equal(t, Score(tt.candidate, p), Score(tt.candidate, p))
		})
	}
}

func TestScorePool(t *testing.T) {
	pool := []MealCandidate{
		{ID: "1", Tags: []string{"Recovery"}},
		{ID: "2"},
	}
	got := ScorePool(pool, NeedsProfile{PreferredTags: []string{"Recovery"}})

	assert.Equal(t, []ScoredCandidate{
		{Candidate: pool[0], Score: BaseScore + PreferredBonus},
		{Candidate: pool[1], Score: BaseScore},
	}, got)
}

func TestFindGaps(t *testing.T) {
	pool := ScorePool([]MealCandidate{
		{ID: "1", Name: "Turkey Chili", Tags: []string{"High-Protein"}},
		{ID: "2", Name: "Chamomile Oats", Description: "magnesium-rich oats"},
	}, NeedsProfile{})

	tests := []struct {
		name     string
		needs    []string
		expected []string
	}{
		{name: "no needs", needs: nil, expected: nil},
		{name: "all covered", needs: []string{"protein", "Magnesium-Rich"}, expected: nil},
		{name: "thin coverage is not a gap", needs: []string{"High-Protein"}, expected: nil},
		{name: "missing needs keep order", needs: []string{"Omega-3", "High-Protein", "Recovery"}, expected: []string{"Omega-3", "Recovery"}},
		{name: "duplicates collapse", needs: []string{"Recovery", "recovery"}, expected: []string{"Recovery"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FindGaps(pool, tt.needs))
		})
	}

	t.Run("empty pool makes every need a gap", func(t *testing.T) {
		assert.Equal(t, []string{"Recovery"}, FindGaps(nil, []string{"Recovery"}))
	})
}

func TestCriticalNeeds(t *testing.T) {
	p := NeedsProfile{
		RequiredTags: []string{"Vegetarian"},
		CriticalTags: []string{"Recovery", "vegetarian", ""},
	}
	assert.Equal(t, []string{"Vegetarian", "Recovery"}, CriticalNeeds(p))
}
