package scheduler

import (
	"fmt"
	"sort"
	"strings"
)

// SlotStats counts filled cells for one slot position.
type SlotStats struct {
	Slot   SlotPosition `json:"slot"`
	Filled int          `json:"filled"`
	Total  int          `json:"total"`
}

// ValidationReport summarizes coverage of a WeeklyPlan.
type ValidationReport struct {
	FilledCells             int         `json:"filled_cells"`
	UnfilledCells           int         `json:"unfilled_cells"`
	MediaCells              int         `json:"media_cells"`
	GeneratedCells          int         `json:"generated_cells"`
	MediaCoveragePercentage float64     `json:"media_coverage_percentage"`
	MediaCoverageTarget     float64     `json:"media_coverage_target"`
	MeetsMediaTarget        bool        `json:"meets_media_target"`
	DuplicateIDs            []string    `json:"duplicate_ids,omitempty"`
	Slots                   []SlotStats `json:"slots"`
	Passed                  bool        `json:"passed"`
}

// Validate computes coverage statistics for plan against the profile's
// thresholds. Duplicate ids indicate an assigner bug, never a normal outcome.
func Validate(plan WeeklyPlan, profile NeedsProfile) ValidationReport {
	r := ValidationReport{MediaCoverageTarget: profile.MediaCoverageTarget}

	counts := make(map[string]int)
	for s, slot := range SlotPositions {
		stats := SlotStats{Slot: slot, Total: DaysPerWeek}
		for _, d := range plan.Days {
			m := d.Meals[s]
			if m == nil {
				r.UnfilledCells++
				continue
			}
			stats.Filled++
			r.FilledCells++
			counts[m.CandidateID]++
			if m.Candidate.HasMedia {
				r.MediaCells++
			}
			if m.Candidate.Generated() {
				r.GeneratedCells++
			}
		}
		r.Slots = append(r.Slots, stats)
	}

	for id, n := range counts {
		if n > 1 {
			r.DuplicateIDs = append(r.DuplicateIDs, id)
		}
	}
	sort.Strings(r.DuplicateIDs)

	if r.FilledCells > 0 {
		r.MediaCoveragePercentage = float64(r.MediaCells) / float64(r.FilledCells) * 100
	}
	r.MeetsMediaTarget = r.MediaCoveragePercentage >= profile.MediaCoverageTarget*100
	r.Passed = r.MeetsMediaTarget && len(r.DuplicateIDs) == 0
	return r
}

// Summary renders the report as one line, e.g.
// "26 of 28 meals planned (6 of 7 breakfasts); 92.3% with images; 2 AI-generated".
func (r ValidationReport) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d meals planned", r.FilledCells, r.FilledCells+r.UnfilledCells)

	var short []string
	for _, s := range r.Slots {
		if s.Filled < s.Total {
			short = append(short, fmt.Sprintf("%d of %d %s", s.Filled, s.Total, pluralSlot(s.Slot)))
		}
	}
	if len(short) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(short, ", "))
	}

	fmt.Fprintf(&b, "; %.1f%% with images", r.MediaCoveragePercentage)
	if !r.MeetsMediaTarget {
		fmt.Fprintf(&b, " (target %.0f%%)", r.MediaCoverageTarget*100)
	}
	if r.GeneratedCells > 0 {
		fmt.Fprintf(&b, "; %d AI-generated", r.GeneratedCells)
	}
	return b.String()
}

func pluralSlot(s SlotPosition) string {
	if s == SlotLunch {
		return "lunches"
	}
	return strings.ToLower(string(s)) + "s"
}
