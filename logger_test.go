package mealplanner

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"mealplanner/scheduler"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePlanLog() PlanLog {
	return PlanLog{
		Timestamp:     time.Date(2026, 10, 12, 8, 0, 0, 0, time.UTC),
		UserID:        "user-1",
		Seed:          42,
		PoolSize:      30,
		PreferredTags: []string{"High-Protein"},
		Gaps:          []string{"Omega-3"},
		Cells: []CellLog{{
			Day:         scheduler.Monday,
			Slot:        scheduler.SlotBreakfast,
			CandidateID: "oats",
			Tier:        scheduler.TierExact,
			Score:       25,
			Rationale:   "exact slot match (score 25)",
		}},
		Warnings: []scheduler.Warning{{Kind: scheduler.GapFillerUnavailable, Message: "timeout"}},
	}
}

func TestFilePlanLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewFilePlanLogger(&buf)

	require.NoError(t, logger.LogPlan(samplePlanLog()))
	require.NoError(t, logger.LogPlan(PlanLog{UserID: "user-2", Error: "empty pool"}))
	assert.Zero(t, buf.Len(), "nothing written before Flush")

	require.NoError(t, logger.Flush())

	var doc struct {
		Session struct {
			Plans []PlanLog `json:"plans"`
		} `json:"planning_session"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))
	require.Len(t, doc.Session.Plans, 2)
	assert.Equal(t, samplePlanLog(), doc.Session.Plans[0])
	assert.Equal(t, "empty pool", doc.Session.Plans[1].Error)
	assert.Contains(t, buf.String(), `"tier": "exact"`)

	t.Run("buffer cleared after flush", func(t *testing.T) {
		buf.Reset()
		require.NoError(t, logger.Flush())
		assert.NotContains(t, buf.String(), "user-1")
	})

	t.Run("nil writer", func(t *testing.T) {
		assert.NoError(t, NewFilePlanLogger(nil).Flush())
	})

	t.Run("write error", func(t *testing.T) {
		l := NewFilePlanLogger(failingWriter{})
		require.NoError(t, l.LogPlan(samplePlanLog()))
		err := l.Flush()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to write plan log")
	})
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestStdoutPlanLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := &StdoutPlanLogger{out: &buf}

	require.NoError(t, logger.LogPlan(samplePlanLog()))
	require.NoError(t, logger.LogPlan(PlanLog{UserID: "user-2"}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)

	var got PlanLog
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &got))
	assert.Equal(t, samplePlanLog(), got)
}

func TestNoOpPlanLogger(t *testing.T) {
	assert.NoError(t, NewNoOpPlanLogger().LogPlan(samplePlanLog()))
}

func TestNewPlanLogFilePath(t *testing.T) {
	tests := []struct {
		userID string
		suffix string
	}{
		{userID: "local", suffix: ".local.json"},
		{userID: "Jane.Doe@example.com", suffix: ".jane_doe_example_com.json"},
		{userID: "", suffix: ".anonymous.json"},
	}

	for _, tt := range tests {
		t.Run(tt.userID, func(t *testing.T) {
			path := NewPlanLogFilePath(tt.userID)
			assert.Regexp(t, regexp.MustCompile(`^\./logs/\d+\.`), path)
			assert.True(t, strings.HasSuffix(path, tt.suffix), path)
		})
	}
}

func TestCellsFromPlan(t *testing.T) {
	pool := []scheduler.MealCandidate{
		{ID: "b", SlotType: scheduler.SlotTypeBreakfast},
		{ID: "l", SlotType: scheduler.SlotTypeLunch},
		{ID: "s", SlotType: scheduler.SlotTypeSnack},
		{ID: "d", SlotType: scheduler.SlotTypeDinner},
	}
	profile := scheduler.NeedsProfile{MaxPerSlotType: scheduler.DefaultMaxPerSlotType()}
	plan, err := scheduler.Assign(scheduler.ScorePool(pool, profile), profile, 1)
	require.NoError(t, err)

	cells := CellsFromPlan(plan)
	require.Len(t, cells, 4)
	assert.Equal(t, "b", cells[0].CandidateID)
	assert.Equal(t, scheduler.SlotDinner, cells[3].Slot)
	for _, c := range cells {
		assert.Equal(t, scheduler.Monday, c.Day)
	}
}

func TestDump(t *testing.T) {
	var buf bytes.Buffer
	Dump(&buf, map[string]int{"b": 2, "a": 1})

	out := buf.String()
	assert.Contains(t, out, "logger_test.go:")
	assert.Less(t, strings.Index(out, `"a"`), strings.Index(out, `"b"`))
}

func TestPlannerConfig_CriticalNeedsOverride(t *testing.T) {
	assert.Nil(t, PlannerConfig{}.CriticalNeedsOverride())
	assert.Equal(t, []string{"Recovery", "Omega-3"}, PlannerConfig{CriticalNeeds: " Recovery, ,Omega-3 "}.CriticalNeedsOverride())
}
