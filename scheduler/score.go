package scheduler

// Scoring weights. Required tags are a hard filter in the assigner and do not
// contribute to the score.
const (
	BaseScore      = 10
	PreferredBonus = 15
	ExcludePenalty = 30
)

// ScoredCandidate pairs a candidate with its affinity score for one profile.
type ScoredCandidate struct {
	Candidate MealCandidate `json:"candidate"`
	Score     int           `json:"score"`
}

// Score ranks a candidate against a profile. It is pure: the same inputs
// always produce the same score.
func Score(c MealCandidate, p NeedsProfile) int {
	score := BaseScore
	for _, tag := range p.PreferredTags {
		if c.Matches(tag) {
			score += PreferredBonus
		}
	}
	for _, tag := range p.ExcludeTags {
		if c.Matches(tag) {
			score -= ExcludePenalty
		}
	}
	return score
}

// ScorePool scores every candidate, preserving pool order.
func ScorePool(pool []MealCandidate, p NeedsProfile) []ScoredCandidate {
	out := make([]ScoredCandidate, len(pool))
	for i, c := range pool {
		out[i] = ScoredCandidate{Candidate: c, Score: Score(c, p)}
	}
	return out
}

// matchedTags returns the tags from needs that c satisfies.
func matchedTags(c MealCandidate, needs []string) []string {
	var out []string
	for _, n := range needs {
		if c.Matches(n) {
			out = append(out, n)
		}
	}
	return out
}

func matchesAll(c MealCandidate, needs []string) bool {
	for _, n := range needs {
		if !c.Matches(n) {
			return false
		}
	}
	return true
}

func matchesAny(c MealCandidate, needs []string) bool {
	for _, n := range needs {
		if c.Matches(n) {
			return true
		}
	}
	return false
}
