package scheduler

// CriticalNeeds returns the needs a gap analysis should check for a profile:
// required tags first, then critical tags, de-duplicated case-insensitively.
func CriticalNeeds(p NeedsProfile) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{p.RequiredTags, p.CriticalTags} {
		for _, t := range list {
			k := normalizeTag(t)
			if k == "" || seen[k] {
				continue
			}
			seen[k] = true
			out = append(out, t)
		}
	}
	return out
}

// FindGaps returns the needs that no candidate in the pool satisfies, in the
// order given. A need with even one matching candidate is not a gap, which
// keeps the external gap-filler from being called for thin-but-present
// coverage.
func FindGaps(pool []ScoredCandidate, needs []string) []string {
	var gaps []string
	seen := make(map[string]bool)
	for _, need := range needs {
		k := normalizeTag(need)
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		if !anyMatches(pool, need) {
			gaps = append(gaps, need)
		}
	}
	return gaps
}

func anyMatches(pool []ScoredCandidate, need string) bool {
	for _, sc := range pool {
		if sc.Candidate.Matches(need) {
			return true
		}
	}
	return false
}
