package scheduler

import (
	"encoding/json"
	"fmt"
)

// Tier is the fallback step that produced an assignment.
type Tier int

const (
	TierExact Tier = iota + 1
	TierWildcard
	TierRelaxed
	TierAnyUnused
	TierUnfilled
)

var tierNames = map[Tier]string{
	TierExact:     "exact",
	TierWildcard:  "wildcard",
	TierRelaxed:   "relaxed",
	TierAnyUnused: "any-unused",
	TierUnfilled:  "unfilled",
}

func (t Tier) String() string {
	if s, ok := tierNames[t]; ok {
		return s
	}
	return fmt.Sprintf("tier(%d)", int(t))
}

func (t Tier) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Tier) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	for k, v := range tierNames {
		if v == s {
			*t = k
			return nil
		}
	}
	return fmt.Errorf("unknown tier %q", s)
}

// MealAssignment is one filled cell of the weekly grid.
type MealAssignment struct {
	Day         Weekday       `json:"day"`
	Slot        SlotPosition  `json:"slot"`
	CandidateID string        `json:"candidate_id"`
	Rationale   string        `json:"rationale"`
	Tier        Tier          `json:"tier"`
	Score       int           `json:"score"`
	Candidate   MealCandidate `json:"candidate"`
}

// DayPlan holds the four slot positions of one day in SlotPositions order.
// A nil entry is a cell that could not be filled.
type DayPlan struct {
	Day   Weekday                      `json:"day"`
	Meals [SlotsPerDay]*MealAssignment `json:"meals"`
}

// WeeklyPlan is a 7-day by 4-slot assignment grid plus the seed that produced
// it and any per-cell warnings.
type WeeklyPlan struct {
	Seed     int64                `json:"seed"`
	Days     [DaysPerWeek]DayPlan `json:"days"`
	Warnings []Warning            `json:"warnings,omitempty"`
}

func newWeeklyPlan(seed int64) WeeklyPlan {
	p := WeeklyPlan{Seed: seed}
	for i, d := range Weekdays {
		p.Days[i].Day = d
	}
	return p
}

// Assignments returns the filled cells in grid order.
func (p WeeklyPlan) Assignments() []MealAssignment {
	out := make([]MealAssignment, 0, CellsPerWeek)
	for _, d := range p.Days {
		for _, m := range d.Meals {
			if m != nil {
				out = append(out, *m)
			}
		}
	}
	return out
}

// Cell returns the assignment at (day, slot), or nil when empty.
func (p WeeklyPlan) Cell(day Weekday, slot SlotPosition) *MealAssignment {
	for _, d := range p.Days {
		if d.Day != day {
			continue
		}
		for i, s := range SlotPositions {
			if s == slot {
				return d.Meals[i]
			}
		}
	}
	return nil
}
