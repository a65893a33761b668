package scheduler

import "strings"

// SlotType is the meal-time category a candidate can be scheduled into.
type SlotType string

const (
	SlotTypeBreakfast     SlotType = "Breakfast"
	SlotTypeLunch         SlotType = "Lunch"
	SlotTypeSnack         SlotType = "Snack"
	SlotTypeDinner        SlotType = "Dinner"
	SlotTypeLunchOrDinner SlotType = "LunchOrDinner"
)

// SlotTypes lists every valid slot type.
var SlotTypes = []SlotType{SlotTypeBreakfast, SlotTypeLunch, SlotTypeSnack, SlotTypeDinner, SlotTypeLunchOrDinner}

// Valid reports whether st is one of the known slot types.
func (st SlotType) Valid() bool {
	for _, s := range SlotTypes {
		if st == s {
			return true
		}
	}
	return false
}

// SlotPosition is one of the four meal positions of a day.
type SlotPosition string

const (
	SlotBreakfast SlotPosition = "Breakfast"
	SlotLunch     SlotPosition = "Lunch"
	SlotSnack     SlotPosition = "Snack"
	SlotDinner    SlotPosition = "Dinner"
)

// SlotPositions is the per-day fill order. Breakfast and Snack come before
// Dinner so the wildcard pool is drawn down as late as possible.
var SlotPositions = [SlotsPerDay]SlotPosition{SlotBreakfast, SlotLunch, SlotSnack, SlotDinner}

// Accepts reports whether a candidate of type st may occupy position p.
func (p SlotPosition) Accepts(st SlotType) bool {
	if SlotType(p) == st {
		return true
	}
	return st == SlotTypeLunchOrDinner && p.takesWildcard()
}

func (p SlotPosition) takesWildcard() bool {
	return p == SlotLunch || p == SlotDinner
}

// Weekday names a day of the planning week, Monday first.
type Weekday string

const (
	Monday    Weekday = "Monday"
	Tuesday   Weekday = "Tuesday"
	Wednesday Weekday = "Wednesday"
	Thursday  Weekday = "Thursday"
	Friday    Weekday = "Friday"
	Saturday  Weekday = "Saturday"
	Sunday    Weekday = "Sunday"
)

const (
	DaysPerWeek  = 7
	SlotsPerDay  = 4
	CellsPerWeek = DaysPerWeek * SlotsPerDay
)

// Weekdays is the planning week in iteration order.
var Weekdays = [DaysPerWeek]Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

// Origin records where a candidate came from.
type Origin string

const (
	OriginPool      Origin = "pool"
	OriginGenerated Origin = "generated"
)

// Nutrition is carried through the scheduler untouched.
type Nutrition struct {
	Calories float64 `json:"calories,omitempty"`
	ProteinG float64 `json:"protein_g,omitempty"`
	CarbsG   float64 `json:"carbs_g,omitempty"`
	FatG     float64 `json:"fat_g,omitempty"`
	FiberG   float64 `json:"fiber_g,omitempty"`
}

// Ingredient is one normalized ingredient line.
type Ingredient struct {
	Name string  `json:"name"`
	Qty  float64 `json:"qty,omitempty"`
	Unit string  `json:"unit,omitempty"`
}

// MealCandidate is a schedulable meal. ID is the only uniqueness key.
type MealCandidate struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description,omitempty"`
	SlotType     SlotType     `json:"slot_type"`
	Tags         []string     `json:"tags,omitempty"`
	HasMedia     bool         `json:"has_media"`
	Origin       Origin       `json:"origin,omitempty"`
	Nutrition    Nutrition    `json:"nutrition"`
	Ingredients  []Ingredient `json:"ingredients,omitempty"`
	Instructions []string     `json:"instructions,omitempty"`
}

// Generated reports whether the candidate was synthesized by a gap-filler.
func (c MealCandidate) Generated() bool {
	return c.Origin == OriginGenerated
}

// Matches reports whether the candidate satisfies a need keyword. Matching is
// case-insensitive and substring-tolerant in both directions against tags, and
// one-directional (name contains keyword) against name and description, so
// "High-Protein" matches a "protein" tag and "Omega-3 Rich" matches "Omega-3".
func (c MealCandidate) Matches(need string) bool {
	kw := normalizeTag(need)
	if kw == "" {
		return false
	}
	for _, tag := range c.Tags {
		t := normalizeTag(tag)
		if t == "" {
			continue
		}
		if strings.Contains(t, kw) || strings.Contains(kw, t) {
			return true
		}
	}
	if strings.Contains(normalizeTag(c.Name), kw) {
		return true
	}
	return strings.Contains(normalizeTag(c.Description), kw)
}

func normalizeTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
