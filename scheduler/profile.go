package scheduler

import (
	"fmt"
	"sort"
)

type Level string

const (
	LevelPoor      Level = "poor"
	LevelFair      Level = "fair"
	LevelGood      Level = "good"
	LevelExcellent Level = "excellent"
	LevelLow       Level = "low"
	LevelModerate  Level = "moderate"
	LevelHigh      Level = "high"
)

type ProteinEmphasis string

const (
	ProteinStandard ProteinEmphasis = "standard"
	ProteinElevated ProteinEmphasis = "elevated"
	ProteinHigh     ProteinEmphasis = "high"
)

type CarbTiming string

const (
	CarbsStandard    CarbTiming = "standard"
	CarbsPreWorkout  CarbTiming = "pre-workout"
	CarbsPostWorkout CarbTiming = "post-workout"
	CarbsEvening     CarbTiming = "evening"
)

// Averages are the numeric physiological averages behind a HealthSummary.
// They only feed DeriveSummary; scoring never reads them.
type Averages struct {
	RecoveryPct float64 `json:"recovery_pct"`
	Strain      float64 `json:"strain"`
	SleepHours  float64 `json:"sleep_hours"`
	HRV         float64 `json:"hrv"`
	RestingHR   float64 `json:"resting_hr"`
	Calories    float64 `json:"calories"`
}

// HealthSummary is the structured output of the external health analyzer.
type HealthSummary struct {
	RecoveryStatus   Level           `json:"recovery_status"`
	FatigueLevel     Level           `json:"fatigue_level"`
	SleepQuality     Level           `json:"sleep_quality"`
	MetabolicDemand  Level           `json:"metabolic_demand"`
	ProteinEmphasis  ProteinEmphasis `json:"protein_emphasis"`
	CarbTiming       CarbTiming      `json:"carb_timing"`
	AntiInflammatory bool            `json:"anti_inflammatory"`
	HydrationFocus   bool            `json:"hydration_focus"`
	Averages         Averages        `json:"averages"`
}

// DefaultAverages are used when no physiological data is available.
var DefaultAverages = Averages{
	RecoveryPct: 65,
	Strain:      12,
	SleepHours:  7.5,
	HRV:         45,
	RestingHR:   60,
	Calories:    2200,
}

// DefaultHealthSummary is the "no data available" summary derived from
// DefaultAverages: recovery good, fatigue moderate, sleep good, demand
// moderate, elevated protein, standard carb timing, no flags.
func DefaultHealthSummary() HealthSummary {
	return DeriveSummary(DefaultAverages)
}

// DeriveSummary maps numeric averages onto the categorical summary fields.
func DeriveSummary(a Averages) HealthSummary {
	s := HealthSummary{Averages: a}

	switch {
	case a.RecoveryPct >= 80:
		s.RecoveryStatus = LevelExcellent
	case a.RecoveryPct >= 60:
		s.RecoveryStatus = LevelGood
	case a.RecoveryPct >= 40:
		s.RecoveryStatus = LevelFair
	default:
		s.RecoveryStatus = LevelPoor
	}

	switch {
	case a.SleepHours >= 8:
		s.SleepQuality = LevelExcellent
	case a.SleepHours >= 7:
		s.SleepQuality = LevelGood
	case a.SleepHours >= 6:
		s.SleepQuality = LevelFair
	default:
		s.SleepQuality = LevelPoor
	}

	switch {
	case a.Strain >= 14:
		s.MetabolicDemand = LevelHigh
	case a.Strain >= 10:
		s.MetabolicDemand = LevelModerate
	default:
		s.MetabolicDemand = LevelLow
	}

	switch {
	case a.RecoveryPct < 40 || a.Strain >= 16:
		s.FatigueLevel = LevelHigh
	case a.RecoveryPct >= 75 && a.Strain < 10:
		s.FatigueLevel = LevelLow
	default:
		s.FatigueLevel = LevelModerate
	}

	switch {
	case a.Strain >= 14 || a.RecoveryPct < 40:
		s.ProteinEmphasis = ProteinHigh
	case a.Strain >= 10:
		s.ProteinEmphasis = ProteinElevated
	default:
		s.ProteinEmphasis = ProteinStandard
	}

	switch {
	case a.Strain >= 14:
		s.CarbTiming = CarbsPostWorkout
	case a.SleepHours < 6.5:
		s.CarbTiming = CarbsEvening
	default:
		s.CarbTiming = CarbsStandard
	}

	s.AntiInflammatory = a.RecoveryPct < 50 || s.FatigueLevel == LevelHigh
	s.HydrationFocus = a.Strain >= 14 || a.HRV < 35

	return s
}

// DefaultMediaCoverageTarget is the minimum share of filled cells that should
// hold a candidate with a media asset.
const DefaultMediaCoverageTarget = 0.75

// DefaultMaxPerSlotType caps how many cells candidates of each type may fill.
// Wildcards serve two positions, so their cap covers both.
func DefaultMaxPerSlotType() map[SlotType]int {
	return map[SlotType]int{
		SlotTypeBreakfast:     DaysPerWeek,
		SlotTypeLunch:         DaysPerWeek,
		SlotTypeSnack:         DaysPerWeek,
		SlotTypeDinner:        DaysPerWeek,
		SlotTypeLunchOrDinner: 2 * DaysPerWeek,
	}
}

// NeedsProfile is the tag-based selection criteria for one planning request.
type NeedsProfile struct {
	RequiredTags        []string         `json:"required_tags,omitempty"`
	PreferredTags       []string         `json:"preferred_tags,omitempty"`
	ExcludeTags         []string         `json:"exclude_tags,omitempty"`
	CriticalTags        []string         `json:"critical_tags,omitempty"`
	MaxPerSlotType      map[SlotType]int `json:"max_per_slot_type"`
	MediaCoverageTarget float64          `json:"media_coverage_target"`
}

// Validate rejects profiles that can only come from a programming error.
func (p NeedsProfile) Validate() error {
	if p.MediaCoverageTarget < 0 || p.MediaCoverageTarget > 1 {
		return fmt.Errorf("%w: media coverage target %v outside [0,1]", ErrInvalidProfile, p.MediaCoverageTarget)
	}
	for st, n := range p.MaxPerSlotType {
		if !st.Valid() {
			return fmt.Errorf("%w: unknown slot type %q in caps", ErrInvalidProfile, st)
		}
		if n < 0 {
			return fmt.Errorf("%w: negative cap %d for %s", ErrInvalidProfile, n, st)
		}
	}
	return nil
}

// capFor returns the cap for st, defaulting when the caller left it unset.
func (p NeedsProfile) capFor(st SlotType) int {
	if n, ok := p.MaxPerSlotType[st]; ok {
		return n
	}
	return DefaultMaxPerSlotType()[st]
}

type rule struct {
	prefer   []string
	exclude  []string
	critical []string
}

var (
	recoveryRules = map[Level]rule{
		LevelPoor: {
			prefer:   []string{"Recovery", "Anti-Inflammatory", "Easy-Digest"},
			exclude:  []string{"Fried", "Heavy"},
			critical: []string{"Recovery"},
		},
		LevelFair:      {prefer: []string{"Recovery", "Balanced"}},
		LevelGood:      {prefer: []string{"Balanced"}},
		LevelExcellent: {prefer: []string{"Performance", "High-Energy"}},
	}

	fatigueRules = map[Level]rule{
		LevelHigh: {
			prefer:  []string{"Energy-Boosting", "Iron-Rich", "Complex-Carbs"},
			exclude: []string{"High-Sugar"},
		},
		LevelModerate: {prefer: []string{"Complex-Carbs"}},
	}

	sleepRules = map[Level]rule{
		LevelPoor: {
			prefer:  []string{"Magnesium-Rich", "Sleep-Support"},
			exclude: []string{"Caffeine", "Spicy"},
		},
		LevelFair: {prefer: []string{"Sleep-Support"}},
	}

	demandRules = map[Level]rule{
		LevelHigh:     {prefer: []string{"High-Protein", "High-Calorie", "Complex-Carbs"}},
		LevelModerate: {prefer: []string{"High-Protein"}},
		LevelLow: {
			prefer:  []string{"Light", "Low-Calorie"},
			exclude: []string{"High-Calorie"},
		},
	}

	proteinRules = map[ProteinEmphasis]rule{
		ProteinHigh:     {prefer: []string{"High-Protein"}, critical: []string{"High-Protein"}},
		ProteinElevated: {prefer: []string{"High-Protein"}},
	}

	carbRules = map[CarbTiming]rule{
		CarbsPostWorkout: {prefer: []string{"Post-Workout"}},
		CarbsPreWorkout:  {prefer: []string{"Pre-Workout"}},
		CarbsEvening:     {prefer: []string{"Complex-Carbs"}},
	}

	antiInflammatoryRule = rule{
		prefer:   []string{"Anti-Inflammatory", "Omega-3"},
		exclude:  []string{"Processed"},
		critical: []string{"Anti-Inflammatory"},
	}

	hydrationRule = rule{
		prefer:  []string{"Hydrating"},
		exclude: []string{"High-Sodium"},
	}
)

// BuildNeedsProfile turns a health summary into selection criteria. Rules are
// additive; a tag both preferred and excluded ends up excluded only.
func BuildNeedsProfile(s HealthSummary) NeedsProfile {
	var prefer, exclude, critical tagSet

	apply := func(r rule) {
		prefer.add(r.prefer...)
		exclude.add(r.exclude...)
		critical.add(r.critical...)
	}

	apply(recoveryRules[s.RecoveryStatus])
	apply(fatigueRules[s.FatigueLevel])
	apply(sleepRules[s.SleepQuality])
	apply(demandRules[s.MetabolicDemand])
	apply(proteinRules[s.ProteinEmphasis])
	apply(carbRules[s.CarbTiming])
	if s.AntiInflammatory {
		apply(antiInflammatoryRule)
	}
	if s.HydrationFocus {
		apply(hydrationRule)
	}

	prefer.remove(exclude)
	critical.remove(exclude)

	return NeedsProfile{
		PreferredTags:       prefer.sorted(),
		ExcludeTags:         exclude.sorted(),
		CriticalTags:        critical.sorted(),
		MaxPerSlotType:      DefaultMaxPerSlotType(),
		MediaCoverageTarget: DefaultMediaCoverageTarget,
	}
}

// tagSet keeps the first spelling of each tag, keyed case-insensitively.
type tagSet struct {
	byKey map[string]string
}

func (ts *tagSet) add(tags ...string) {
	if ts.byKey == nil {
		ts.byKey = make(map[string]string)
	}
	for _, t := range tags {
		k := normalizeTag(t)
		if k == "" {
			continue
		}
		if _, ok := ts.byKey[k]; !ok {
			ts.byKey[k] = t
		}
	}
}

func (ts *tagSet) remove(other tagSet) {
	for k := range other.byKey {
		delete(ts.byKey, k)
	}
}

func (ts tagSet) sorted() []string {
	if len(ts.byKey) == 0 {
		return nil
	}
	out := make([]string, 0, len(ts.byKey))
	for _, t := range ts.byKey {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
