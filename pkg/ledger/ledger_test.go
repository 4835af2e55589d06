package ledger

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/korjavin/fridgeflow/pkg/models"
)

func scenarioSteps() []models.Step {
	return []models.Step{
		{Label: "prep", StartOffsetSec: 0, DurationSec: 120},
		{Label: "boil", StartOffsetSec: 120, DurationSec: 300},
		{Label: "plate", StartOffsetSec: 420, DurationSec: 60},
	}
}

func TestShiftForDelay_Scenario(t *testing.T) {
	steps := scenarioSteps()
	l := New(steps)

	shift := l.ShiftForDelay(150, DefaultPendingDelay, DefaultActiveExtension)

	want := []models.Step{
		{Label: "prep", StartOffsetSec: 0, DurationSec: 120},
		{Label: "boil", StartOffsetSec: 120, DurationSec: 360},
		{Label: "plate", StartOffsetSec: 540, DurationSec: 60},
	}
	if !reflect.DeepEqual(steps, want) {
		t.Errorf("steps after shift = %+v, want %+v", steps, want)
	}
	if !reflect.DeepEqual(shift.Delayed, []int{2}) {
		t.Errorf("Delayed = %v, want [2]", shift.Delayed)
	}
	if !reflect.DeepEqual(shift.Extended, []int{1}) {
		t.Errorf("Extended = %v, want [1]", shift.Extended)
	}
}

func TestShiftForDelay_StartBoundaryIsNotFuture(t *testing.T) {
	steps := scenarioSteps()
	l := New(steps)

	// boil starts exactly at 120: it is running, not future
	shift := l.ShiftForDelay(120, 120, 60)

	if steps[1].StartOffsetSec != 120 {
		t.Errorf("boil start = %g, want 120", steps[1].StartOffsetSec)
	}
	if steps[1].DurationSec != 360 {
		t.Errorf("boil duration = %g, want 360", steps[1].DurationSec)
	}
	// prep ended exactly at 120 and must not be extended
	if steps[0].DurationSec != 120 {
		t.Errorf("prep duration = %g, want 120", steps[0].DurationSec)
	}
	if !reflect.DeepEqual(shift.Extended, []int{1}) {
		t.Errorf("Extended = %v, want [1]", shift.Extended)
	}
}

func TestShiftForDelay_BeforeFirstStep(t *testing.T) {
	steps := []models.Step{
		{Label: "soak", StartOffsetSec: 30, DurationSec: 10},
		{Label: "cook", StartOffsetSec: 60, DurationSec: 10},
	}
	l := New(steps)

	shift := l.ShiftForDelay(5, 120, 60)

	if steps[0].StartOffsetSec != 150 || steps[1].StartOffsetSec != 180 {
		t.Errorf("unexpected offsets: %+v", steps)
	}
	if len(shift.Extended) != 0 {
		t.Errorf("nothing is running, Extended = %v", shift.Extended)
	}
}

func TestShiftForDelay_OverlappingStepsExtendOnlyTheFirst(t *testing.T) {
	steps := []models.Step{
		{Label: "preheat", StartOffsetSec: 0, DurationSec: 120},
		{Label: "prep", StartOffsetSec: 0, DurationSec: 240},
		{Label: "cook", StartOffsetSec: 120, DurationSec: 300},
	}
	l := New(steps)

	shift := l.ShiftForDelay(30, 120, 60)

	if !reflect.DeepEqual(shift.Extended, []int{0}) {
		t.Errorf("Extended = %v, want [0]", shift.Extended)
	}
	if steps[0].DurationSec != 180 || steps[1].DurationSec != 240 {
		t.Errorf("durations = %g/%g, want 180/240", steps[0].DurationSec, steps[1].DurationSec)
	}
	if steps[2].StartOffsetSec != 240 {
		t.Errorf("cook start = %g, want 240", steps[2].StartOffsetSec)
	}
}

func TestShiftForDelay_AfterLastStepIsNoop(t *testing.T) {
	steps := scenarioSteps()
	l := New(steps)

	shift := l.ShiftForDelay(1000, 120, 60)

	if shift.Changed() {
		t.Errorf("expected no change, got %+v", shift)
	}
	if !reflect.DeepEqual(steps, scenarioSteps()) {
		t.Errorf("steps mutated: %+v", steps)
	}
}

func TestShiftForDelay_Repeated(t *testing.T) {
	steps := scenarioSteps()
	l := New(steps)

	l.ShiftForDelay(150, 120, 60)
	l.ShiftForDelay(150, 120, 60)

	if steps[2].StartOffsetSec != 660 {
		t.Errorf("plate start = %g, want 660", steps[2].StartOffsetSec)
	}
	if steps[1].DurationSec != 420 {
		t.Errorf("boil duration = %g, want 420", steps[1].DurationSec)
	}
}

func TestShiftForDelay_EmptyLedger(t *testing.T) {
	l := New(nil)
	if shift := l.ShiftForDelay(0, 120, 60); shift.Changed() {
		t.Errorf("expected no change on empty ledger, got %+v", shift)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		steps     []models.Step
		wantIndex int
	}{
		{"valid", scenarioSteps(), -2},
		{"empty", nil, -2},
		{"missing label", []models.Step{{StartOffsetSec: 0, DurationSec: 1}}, 0},
		{"negative offset", []models.Step{{Label: "a", DurationSec: 1}, {Label: "b", StartOffsetSec: -1, DurationSec: 1}}, 1},
		{"zero duration", []models.Step{{Label: "a"}}, 0},
		{"negative duration", []models.Step{{Label: "a", DurationSec: -5}}, 0},
		{"nan", []models.Step{{Label: "a", StartOffsetSec: math.NaN(), DurationSec: 1}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.steps)
			if tt.wantIndex == -2 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var invalid *InvalidPlanError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected InvalidPlanError, got %v", err)
			}
			if invalid.Index != tt.wantIndex {
				t.Errorf("Index = %d, want %d", invalid.Index, tt.wantIndex)
			}
		})
	}
}
