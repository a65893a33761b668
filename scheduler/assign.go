package scheduler

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

// seedStream is the fixed second word of the PCG state; the caller's seed
// supplies the first.
const seedStream = 0x9e3779b97f4a7c15

// NewSeed derives a seed from a timestamp.
func NewSeed(now time.Time) int64 {
	return now.UnixNano()
}

// RegenerateSeed derives a timestamp seed that is guaranteed to differ from
// prev, for "regenerate" requests against the same pool.
func RegenerateSeed(prev int64, now time.Time) int64 {
	s := NewSeed(now)
	if s == prev {
		s++
	}
	return s
}

// filter is one eligibility predicate of a tier.
type filter func(a *assigner, c ScoredCandidate) bool

// tier is one step of the per-cell relaxation cascade.
type tier struct {
	level   Tier
	types   func(SlotPosition) []SlotType
	filters []filter
	note    string
}

func exactType(p SlotPosition) []SlotType { return []SlotType{SlotType(p)} }

func wildcardType(p SlotPosition) []SlotType {
	if p.takesWildcard() {
		return []SlotType{SlotTypeLunchOrDinner}
	}
	return nil
}

func compatibleTypes(p SlotPosition) []SlotType {
	return append(exactType(p), wildcardType(p)...)
}

func unusedThisWeek(a *assigner, c ScoredCandidate) bool {
	return !a.usedWeek[c.Candidate.ID]
}

// unusedToday is implied by unusedThisWeek but checked on its own so the
// same-day rule holds even if week uniqueness is ever relaxed.
func unusedToday(a *assigner, c ScoredCandidate) bool {
	return !a.usedToday[c.Candidate.ID]
}

func underCap(a *assigner, c ScoredCandidate) bool {
	return a.typeCount[c.Candidate.SlotType] < a.profile.capFor(c.Candidate.SlotType)
}

func hasRequired(a *assigner, c ScoredCandidate) bool {
	return matchesAll(c.Candidate, a.profile.RequiredTags)
}

func notExcluded(a *assigner, c ScoredCandidate) bool {
	return !matchesAny(c.Candidate, a.profile.ExcludeTags)
}

var (
	strictFilters  = []filter{unusedThisWeek, unusedToday, underCap, hasRequired, notExcluded}
	relaxedFilters = []filter{unusedThisWeek, unusedToday, underCap, hasRequired}
	anyFilters     = []filter{unusedThisWeek, unusedToday, underCap}
)

// tiers is the ordered fallback cascade. A cell takes the best candidate of
// the first tier that yields any; when all fail the cell stays empty.
var tiers = []tier{
	{level: TierExact, types: exactType, filters: strictFilters, note: "exact slot match"},
	{level: TierWildcard, types: wildcardType, filters: strictFilters, note: "lunch/dinner wildcard"},
	{level: TierRelaxed, types: exactType, filters: relaxedFilters, note: "exclusions relaxed"},
	{level: TierRelaxed, types: wildcardType, filters: relaxedFilters, note: "exclusions relaxed, lunch/dinner wildcard"},
	{level: TierAnyUnused, types: compatibleTypes, filters: anyFilters, note: "any unused compatible meal, tag filters ignored"},
}

// assigner owns all mutable state of one Assign call.
type assigner struct {
	profile   NeedsProfile
	pool      []ScoredCandidate
	rank      []int
	usedWeek  map[string]bool
	usedToday map[string]bool
	typeCount map[SlotType]int
}

// Assign fills a 7x4 grid from the scored pool. Days run Monday to Sunday and
// slots Breakfast, Lunch, Snack, Dinner. Within a tier candidates with media
// rank first, then by score, then by a permutation drawn from seed, so the
// same inputs and seed always give the same plan.
//
// A cell no tier can fill is left empty with an UnfillableSlot warning; a
// meal is never repeated within the week. Assign fails only for a malformed
// profile or pool, or with *EmptyPoolError when a slot position has no
// compatible candidate at all.
func Assign(pool []ScoredCandidate, profile NeedsProfile, seed int64) (WeeklyPlan, error) {
	if err := profile.Validate(); err != nil {
		return WeeklyPlan{}, err
	}
	if err := checkUnique(pool); err != nil {
		return WeeklyPlan{}, err
	}
	if err := checkCoverage(pool); err != nil {
		return WeeklyPlan{}, err
	}

	rng := rand.New(rand.NewPCG(uint64(seed), seedStream))
	a := &assigner{
		profile:   profile,
		pool:      pool,
		rank:      rng.Perm(len(pool)),
		usedWeek:  make(map[string]bool, len(pool)),
		typeCount: make(map[SlotType]int),
	}

	plan := newWeeklyPlan(seed)
	for d, day := range Weekdays {
		a.usedToday = make(map[string]bool, SlotsPerDay)
		for s, slot := range SlotPositions {
			m, ok := a.fill(day, slot)
			if !ok {
				plan.Warnings = append(plan.Warnings, Warning{
					Kind:    UnfillableSlot,
					Day:     day,
					Slot:    slot,
					Message: a.unfillableReason(slot),
				})
				continue
			}
			plan.Days[d].Meals[s] = m
		}
	}
	return plan, nil
}

func (a *assigner) fill(day Weekday, slot SlotPosition) (*MealAssignment, bool) {
	for _, t := range tiers {
		types := t.types(slot)
		if len(types) == 0 {
			continue
		}
		best := a.best(types, t.filters)
		if best < 0 {
			continue
		}
		sc := a.pool[best]
		a.use(sc.Candidate)
		return &MealAssignment{
			Day:         day,
			Slot:        slot,
			CandidateID: sc.Candidate.ID,
			Rationale:   a.rationale(t, sc),
			Tier:        t.level,
			Score:       sc.Score,
			Candidate:   sc.Candidate,
		}, true
	}
	return nil, false
}

// best returns the pool index of the top-ranked eligible candidate, or -1.
func (a *assigner) best(types []SlotType, filters []filter) int {
	best := -1
	for i, sc := range a.pool {
		if !typeIn(sc.Candidate.SlotType, types) || !a.eligible(sc, filters) {
			continue
		}
		if best < 0 || a.ranksAbove(i, best) {
			best = i
		}
	}
	return best
}

func (a *assigner) eligible(sc ScoredCandidate, filters []filter) bool {
	for _, f := range filters {
		if !f(a, sc) {
			return false
		}
	}
	return true
}

// ranksAbove orders media-bearing candidates first, then higher scores, then
// the seeded permutation.
func (a *assigner) ranksAbove(i, j int) bool {
	ci, cj := a.pool[i], a.pool[j]
	if ci.Candidate.HasMedia != cj.Candidate.HasMedia {
		return ci.Candidate.HasMedia
	}
	if ci.Score != cj.Score {
		return ci.Score > cj.Score
	}
	return a.rank[i] < a.rank[j]
}

func (a *assigner) use(c MealCandidate) {
	a.usedWeek[c.ID] = true
	a.usedToday[c.ID] = true
	a.typeCount[c.SlotType]++
}

func (a *assigner) rationale(t tier, sc ScoredCandidate) string {
	parts := []string{fmt.Sprintf("%s (score %d)", t.note, sc.Score)}
	if m := matchedTags(sc.Candidate, a.profile.PreferredTags); len(m) > 0 {
		parts = append(parts, "supports "+strings.Join(m, ", "))
	}
	if t.level == TierRelaxed {
		if m := matchedTags(sc.Candidate, a.profile.ExcludeTags); len(m) > 0 {
			parts = append(parts, "despite "+strings.Join(m, ", "))
		}
	}
	if sc.Candidate.HasMedia {
		parts = append(parts, "has image")
	}
	if sc.Candidate.Generated() {
		parts = append(parts, "AI-generated")
	}
	return strings.Join(parts, "; ")
}

func (a *assigner) unfillableReason(slot SlotPosition) string {
	types := compatibleTypes(slot)
	var total, unused int
	for _, sc := range a.pool {
		if !typeIn(sc.Candidate.SlotType, types) {
			continue
		}
		total++
		if !a.usedWeek[sc.Candidate.ID] {
			unused++
		}
	}
	if unused == 0 {
		return fmt.Sprintf("all %d compatible candidates already used this week", total)
	}
	return fmt.Sprintf("%d unused compatible candidates blocked by per-type caps", unused)
}

func typeIn(st SlotType, types []SlotType) bool {
	for _, t := range types {
		if st == t {
			return true
		}
	}
	return false
}

func checkUnique(pool []ScoredCandidate) error {
	seen := make(map[string]bool, len(pool))
	for _, sc := range pool {
		id := sc.Candidate.ID
		if seen[id] {
			return fmt.Errorf("%w: %q", ErrDuplicateCandidate, id)
		}
		seen[id] = true
	}
	return nil
}

func checkCoverage(pool []ScoredCandidate) error {
	var missing []SlotPosition
	for _, slot := range SlotPositions {
		types := compatibleTypes(slot)
		found := false
		for _, sc := range pool {
			if typeIn(sc.Candidate.SlotType, types) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, slot)
		}
	}
	if len(missing) > 0 {
		return &EmptyPoolError{Positions: missing}
	}
	return nil
}
