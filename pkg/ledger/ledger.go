// Package ledger holds the ordered steps of one plan and owns the only operation
// that mutates them: shifting the schedule when the cook is running behind.
package ledger

import (
	"fmt"
	"math"

	"github.com/korjavin/fridgeflow/pkg/models"
)

const (
	// DefaultPendingDelay is added to the start of every step that has not started yet
	DefaultPendingDelay = 120.0
	// DefaultActiveExtension is added to the duration of the running step
	DefaultActiveExtension = 60.0
)

// InvalidPlanError reports a malformed plan or step
type InvalidPlanError struct {
	// Index is the offending step, or -1 when the plan itself is invalid
	Index  int
	Reason string
}

func (e *InvalidPlanError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("invalid plan: %s", e.Reason)
	}
	return fmt.Sprintf("invalid plan: step %d: %s", e.Index, e.Reason)
}

// Validate checks every step of a plan
func Validate(steps []models.Step) error {
	for i, step := range steps {
		switch {
		case step.Label == "":
			return &InvalidPlanError{Index: i, Reason: "missing label"}
		case !finite(step.StartOffsetSec) || !finite(step.DurationSec):
			return &InvalidPlanError{Index: i, Reason: "offset and duration must be finite numbers"}
		case step.StartOffsetSec < 0:
			return &InvalidPlanError{Index: i, Reason: fmt.Sprintf("negative start offset %g", step.StartOffsetSec)}
		case step.DurationSec <= 0:
			return &InvalidPlanError{Index: i, Reason: fmt.Sprintf("duration must be positive, got %g", step.DurationSec)}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Shift describes what a ShiftForDelay call changed
type Shift struct {
	Elapsed  float64
	Delayed  []int
	Extended []int
}

// Changed reports whether any step was touched
func (s Shift) Changed() bool {
	return len(s.Delayed) > 0 || len(s.Extended) > 0
}

// Ledger is the mutable step sequence of one plan. It shares storage with the
// slice it was built from, so shifts are visible on the plan.
type Ledger struct {
	steps []models.Step
}

// New wraps the given steps
func New(steps []models.Step) *Ledger {
	return &Ledger{steps: steps}
}

// Len returns the number of steps
func (l *Ledger) Len() int {
	return len(l.steps)
}

// Step returns a copy of step i
func (l *Ledger) Step(i int) models.Step {
	return l.steps[i]
}

// Bounds returns the half-open window [start, end) of step i
func (l *Ledger) Bounds(i int) (start, end float64) {
	s := l.steps[i]
	return s.StartOffsetSec, s.EndOffsetSec()
}

// ShiftForDelay pushes every step that starts after elapsed back by pendingDelay
// and extends the step running at elapsed by activeExtension. When several steps
// overlap at elapsed only the first of them is extended. Both tests read the
// offsets as they were before the call.
func (l *Ledger) ShiftForDelay(elapsed, pendingDelay, activeExtension float64) Shift {
	shift := Shift{Elapsed: elapsed}
	for i := range l.steps {
		start, end := l.Bounds(i)
		future := start > elapsed
		running := start <= elapsed && elapsed < end

		if future {
			l.steps[i].StartOffsetSec += pendingDelay
			shift.Delayed = append(shift.Delayed, i)
		}
		if running && len(shift.Extended) == 0 {
			l.steps[i].DurationSec += activeExtension
			shift.Extended = append(shift.Extended, i)
		}
	}
	return shift
}
