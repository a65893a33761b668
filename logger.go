package mealplanner

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"time"

	"mealplanner/scheduler"
)

// PlanLogger records one entry per planning request.
type PlanLogger interface {
	LogPlan(entry PlanLog) error
}

var unsafeFileChars = regexp.MustCompile(`[^a-z0-9_-]+`)

// NewPlanLogFilePath returns a file path keyed by time and a cleaned up user
// id so logs for one user are easy to pick out.
func NewPlanLogFilePath(userID string) string {
	name := unsafeFileChars.ReplaceAllString(strings.ToLower(userID), "_")
	if name == "" {
		name = "anonymous"
	}
	return fmt.Sprintf("./logs/%d.%s.json", time.Now().Unix(), name)
}

// PlanLog captures the inputs, decisions and outcome of a single plan.
type PlanLog struct {
	Timestamp           time.Time                   `json:"timestamp"`
	UserID              string                      `json:"user_id,omitempty"`
	Seed                int64                       `json:"seed"`
	PoolSize            int                         `json:"pool_size"`
	PreferredTags       []string                    `json:"preferred_tags,omitempty"`
	ExcludeTags         []string                    `json:"exclude_tags,omitempty"`
	RequiredTags        []string                    `json:"required_tags,omitempty"`
	Gaps                []string                    `json:"gaps,omitempty"`
	GeneratedCandidates int                         `json:"generated_candidates"`
	Cells               []CellLog                   `json:"cells,omitempty"`
	Warnings            []scheduler.Warning         `json:"warnings,omitempty"`
	Report              *scheduler.ValidationReport `json:"report,omitempty"`
	Error               string                      `json:"error,omitempty"`
}

// CellLog is the decision taken for one filled cell.
type CellLog struct {
	Day         scheduler.Weekday      `json:"day"`
	Slot        scheduler.SlotPosition `json:"slot"`
	CandidateID string                 `json:"candidate_id"`
	Tier        scheduler.Tier         `json:"tier"`
	Score       int                    `json:"score"`
	Rationale   string                 `json:"rationale"`
}

// CellsFromPlan flattens the filled cells of plan in day and slot order.
func CellsFromPlan(plan scheduler.WeeklyPlan) []CellLog {
	assignments := plan.Assignments()
	cells := make([]CellLog, 0, len(assignments))
	for _, m := range assignments {
		cells = append(cells, CellLog{
			Day:         m.Day,
			Slot:        m.Slot,
			CandidateID: m.CandidateID,
			Tier:        m.Tier,
			Score:       m.Score,
			Rationale:   m.Rationale,
		})
	}
	return cells
}

// FilePlanLogger accumulates plans and writes them in one document on Flush.
type FilePlanLogger struct {
	plans  []PlanLog
	writer io.Writer
}

// NewFilePlanLogger creates a new file-based plan logger
func NewFilePlanLogger(writer io.Writer) *FilePlanLogger {
	return &FilePlanLogger{
		plans:  make([]PlanLog, 0),
		writer: writer,
	}
}

// LogPlan buffers the entry; nothing is written until Flush.
func (l *FilePlanLogger) LogPlan(entry PlanLog) error {
	l.plans = append(l.plans, entry)
	return nil
}

// Flush writes all buffered plans to the writer and clears the buffer.
func (l *FilePlanLogger) Flush() error {
	if l.writer == nil {
		return nil
	}

	data, err := json.MarshalIndent(map[string]any{
		"planning_session": map[string]any{
			"timestamp": time.Now(),
			"plans":     l.plans,
		},
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal plan log: %w", err)
	}

	if _, err := l.writer.Write(data); err != nil {
		return fmt.Errorf("failed to write plan log: %w", err)
	}

	l.plans = l.plans[:0]
	return nil
}

// NoOpPlanLogger discards all entries.
type NoOpPlanLogger struct{}

func NewNoOpPlanLogger() *NoOpPlanLogger {
	return &NoOpPlanLogger{}
}

func (nop *NoOpPlanLogger) LogPlan(entry PlanLog) error {
	return nil
}

// StdoutPlanLogger writes each plan as a JSON line (for Lambda/CloudWatch).
type StdoutPlanLogger struct {
	out io.Writer
}

func NewStdoutPlanLogger() *StdoutPlanLogger {
	return &StdoutPlanLogger{out: os.Stdout}
}

func (l *StdoutPlanLogger) LogPlan(entry PlanLog) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(l.out, string(data))
	return err
}
