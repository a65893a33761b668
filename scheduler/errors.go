package scheduler

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidProfile is returned for a malformed NeedsProfile.
	ErrInvalidProfile = errors.New("invalid needs profile")

	// ErrDuplicateCandidate is returned when a pool snapshot repeats an id.
	ErrDuplicateCandidate = errors.New("duplicate candidate id in pool")
)

// EmptyPoolError means at least one slot position has no compatible
// candidate anywhere in the pool. It is not retriable without a broader pool.
type EmptyPoolError struct {
	Positions []SlotPosition
}

func (e *EmptyPoolError) Error() string {
	names := make([]string, len(e.Positions))
	for i, p := range e.Positions {
		names[i] = string(p)
	}
	return fmt.Sprintf("empty candidate pool for slot positions: %s", strings.Join(names, ", "))
}

// WarningKind classifies a non-fatal planning condition.
type WarningKind string

const (
	// UnfillableSlot means every fallback tier was exhausted for a cell.
	UnfillableSlot WarningKind = "unfillable_slot"
	// GapFillerUnavailable means the generative gap-filler failed or timed out.
	GapFillerUnavailable WarningKind = "gap_filler_unavailable"
)

// Warning is a structured, non-fatal condition surfaced alongside a plan.
type Warning struct {
	Kind    WarningKind  `json:"kind"`
	Day     Weekday      `json:"day,omitempty"`
	Slot    SlotPosition `json:"slot,omitempty"`
	Message string       `json:"message"`
}

func (w Warning) String() string {
	if w.Day != "" {
		return fmt.Sprintf("%s %s %s: %s", w.Kind, w.Day, w.Slot, w.Message)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
