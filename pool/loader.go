package pool

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"mealplanner/pool/storage"
	"mealplanner/scheduler"
)

// Load reads and coerces the candidate pool stored in state.
func Load(ctx context.Context, state storage.State) ([]scheduler.MealCandidate, error) {
	data, err := state.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load candidate pool: %w", err)
	}
	candidates, err := Decode(data)
	if err != nil {
		return nil, err
	}
	slog.Info("POOL: Candidate pool loaded", "candidates_count", len(candidates))
	return candidates, nil
}

// Decode parses a pool document: a bare array of records or an object
// holding one under "candidates", "meals" or "items". Records without an id
// or with an unknown slot type are skipped; a repeated id keeps its first
// occurrence.
func Decode(data []byte) ([]scheduler.MealCandidate, error) {
	return decode(data, true)
}

// DecodeGenerated parses records produced by a gap filler. Ids are optional
// and every candidate is marked generated.
func DecodeGenerated(data []byte) ([]scheduler.MealCandidate, error) {
	return decode(data, false)
}

func decode(data []byte, requireID bool) ([]scheduler.MealCandidate, error) {
	records, err := unwrapRecords(data)
	if err != nil {
		return nil, err
	}

	out := make([]scheduler.MealCandidate, 0, len(records))
	seen := make(map[string]bool, len(records))
	for i, r := range records {
		c, err := r.toCandidate(requireID)
		if err != nil {
			slog.Warn("POOL: Skipping record", "index", i, "error", err)
			continue
		}
		if !requireID {
			c.Origin = scheduler.OriginGenerated
			out = append(out, c)
			continue
		}
		if seen[c.ID] {
			slog.Warn("POOL: Skipping duplicate id", "index", i, "id", c.ID)
			continue
		}
		seen[c.ID] = true
		out = append(out, c)
	}
	return out, nil
}

var recordKeys = []string{"candidates", "meals", "items"}

func unwrapRecords(data []byte) ([]rawRecord, error) {
	var records []rawRecord
	if err := json.Unmarshal(data, &records); err == nil {
		return records, nil
	}

	var doc rawRecord
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse candidate pool: %w", err)
	}
	raw := doc.first(recordKeys...)
	if raw == nil {
		return nil, fmt.Errorf("candidate pool has none of %v", recordKeys)
	}
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("failed to parse candidate records: %w", err)
	}
	return records, nil
}

// LoadSummary reads a health summary from state. A missing document yields
// the default summary. The document may carry the categorical fields or only
// the numeric averages, in which case the categories are derived.
func LoadSummary(ctx context.Context, state storage.State) (scheduler.HealthSummary, error) {
	data, err := state.Load(ctx)
	if errors.Is(err, storage.ErrNotFound) {
		slog.Info("POOL: No health summary found, using default")
		return scheduler.DefaultHealthSummary(), nil
	}
	if err != nil {
		return scheduler.HealthSummary{}, fmt.Errorf("failed to load health summary: %w", err)
	}
	return DecodeSummary(data)
}

func DecodeSummary(data []byte) (scheduler.HealthSummary, error) {
	var doc rawRecord
	if err := json.Unmarshal(data, &doc); err != nil {
		return scheduler.HealthSummary{}, fmt.Errorf("failed to parse health summary: %w", err)
	}

	src := doc
	if raw := doc.first("averages"); raw != nil {
		var nested rawRecord
		if err := json.Unmarshal(raw, &nested); err == nil {
			src = nested
		}
	}
	def := scheduler.DefaultAverages
	avg := scheduler.Averages{
		RecoveryPct: numberOr(src.first("recovery_pct", "recovery", "avg_recovery"), def.RecoveryPct),
		Strain:      numberOr(src.first("strain", "avg_strain"), def.Strain),
		SleepHours:  numberOr(src.first("sleep_hours", "sleep", "avg_sleep_hours"), def.SleepHours),
		HRV:         numberOr(src.first("hrv", "avg_hrv"), def.HRV),
		RestingHR:   numberOr(src.first("resting_hr", "rhr", "avg_resting_hr"), def.RestingHR),
		Calories:    numberOr(src.first("calories", "avg_calories"), def.Calories),
	}

	if doc.first("recovery_status") == nil {
		return scheduler.DeriveSummary(avg), nil
	}

	s := scheduler.HealthSummary{
		RecoveryStatus:   scheduler.Level(lower(doc.first("recovery_status"))),
		FatigueLevel:     scheduler.Level(lower(doc.first("fatigue_level"))),
		SleepQuality:     scheduler.Level(lower(doc.first("sleep_quality"))),
		MetabolicDemand:  scheduler.Level(lower(doc.first("metabolic_demand"))),
		ProteinEmphasis:  scheduler.ProteinEmphasis(lower(doc.first("protein_emphasis"))),
		CarbTiming:       scheduler.CarbTiming(lower(doc.first("carb_timing"))),
		AntiInflammatory: decodeBool(doc.first("anti_inflammatory")),
		HydrationFocus:   decodeBool(doc.first("hydration_focus")),
		Averages:         avg,
	}
	return s, nil
}

// numberOr falls back to def for a missing metric.
func numberOr(raw json.RawMessage, def float64) float64 {
	if raw == nil {
		return def
	}
	return decodeNumber(raw)
}

func lower(raw json.RawMessage) string {
	return strings.ToLower(decodeString(raw))
}
