package timeline

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/korjavin/fridgeflow/pkg/ledger"
	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
)

var t0 = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func at(sec float64) time.Time {
	return t0.Add(time.Duration(sec * float64(time.Second)))
}

func newTestScheduler() *Scheduler {
	return New(
		WithClock(func() time.Time { return t0 }),
		WithLogger(logger.NewWithWriter(io.Discard, "", logger.LevelError)),
	)
}

func scenarioPlan() *models.Plan {
	return &models.Plan{
		Dish: "Weeknight Pasta",
		Steps: []models.Step{
			{Label: "prep", StartOffsetSec: 0, DurationSec: 120},
			{Label: "boil", StartOffsetSec: 120, DurationSec: 300},
			{Label: "plate", StartOffsetSec: 420, DurationSec: 60},
		},
	}
}

func assertStatuses(t *testing.T, got []StepStatus, want []StepStatus) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("got %d statuses, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i].Index != i {
			t.Errorf("status %d has index %d", i, got[i].Index)
		}
		if got[i].Status != want[i].Status || got[i].RemainingSec != want[i].RemainingSec {
			t.Errorf("status %d = %s(%g), want %s(%g)", i, got[i].Status, got[i].RemainingSec, want[i].Status, want[i].RemainingSec)
		}
	}
}

func TestScheduler_StartClassifiesZeroOffsetAsActive(t *testing.T) {
	s := newTestScheduler()
	plan := &models.Plan{Steps: []models.Step{
		{Label: "heat", StartOffsetSec: 0, DurationSec: 120},
		{Label: "prep", StartOffsetSec: 0, DurationSec: 240},
		{Label: "cook", StartOffsetSec: 120, DurationSec: 300},
	}}
	if err := s.Start(plan); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got, err := s.Evaluate(t0)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertStatuses(t, got, []StepStatus{
		{Status: StatusActive, RemainingSec: 120},
		{Status: StatusActive, RemainingSec: 240},
		{Status: StatusPending, RemainingSec: 120},
	})
}

func TestScheduler_WindowBoundaries(t *testing.T) {
	s := newTestScheduler()
	plan := &models.Plan{Steps: []models.Step{{Label: "sear", StartOffsetSec: 10, DurationSec: 5}}}
	if err := s.Start(plan); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tests := []struct {
		elapsed float64
		want    Status
	}{
		{9.999, StatusPending},
		{10, StatusActive},
		{14.5, StatusActive},
		{15, StatusDone},
		{100, StatusDone},
	}
	for _, tt := range tests {
		got, err := s.Evaluate(at(tt.elapsed))
		if err != nil {
			t.Fatalf("Evaluate: %v", err)
		}
		if got[0].Status != tt.want {
			t.Errorf("elapsed %g: status %s, want %s", tt.elapsed, got[0].Status, tt.want)
		}
		if tt.want == StatusDone && got[0].RemainingSec != 0 {
			t.Errorf("elapsed %g: done step has remaining %g", tt.elapsed, got[0].RemainingSec)
		}
	}
}

func TestScheduler_Scenario(t *testing.T) {
	s := newTestScheduler()
	plan := scenarioPlan()
	if err := s.Start(plan); err != nil {
		t.Fatalf("Start: %v", err)
	}

	before, err := s.Evaluate(at(150))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertStatuses(t, before, []StepStatus{
		{Status: StatusDone},
		{Status: StatusActive, RemainingSec: 270},
		{Status: StatusPending, RemainingSec: 270},
	})

	shift, err := s.SignalBehind(at(150))
	if err != nil {
		t.Fatalf("SignalBehind: %v", err)
	}
	if shift.Elapsed != 150 {
		t.Errorf("shift elapsed = %g, want 150", shift.Elapsed)
	}
	if plan.Steps[2].StartOffsetSec != 540 {
		t.Errorf("plate start = %g, want 540", plan.Steps[2].StartOffsetSec)
	}
	if plan.Steps[1].DurationSec != 360 {
		t.Errorf("boil duration = %g, want 360", plan.Steps[1].DurationSec)
	}

	after, err := s.Evaluate(at(150))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	assertStatuses(t, after, []StepStatus{
		{Status: StatusDone},
		{Status: StatusActive, RemainingSec: 330},
		{Status: StatusPending, RemainingSec: 390},
	})
}

func TestScheduler_RebasePreservesClassification(t *testing.T) {
	for _, e := range []float64{0, 60, 119.5, 120, 300, 419, 420, 470, 600} {
		s := newTestScheduler()
		if err := s.Start(scenarioPlan()); err != nil {
			t.Fatalf("Start: %v", err)
		}
		before, _ := s.Evaluate(at(e))
		if _, err := s.SignalBehind(at(e)); err != nil {
			t.Fatalf("SignalBehind: %v", err)
		}
		after, _ := s.Evaluate(at(e))
		for i := range before {
			if before[i].Status != after[i].Status {
				t.Errorf("elapsed %g step %d: %s before rebase, %s after", e, i, before[i].Status, after[i].Status)
			}
		}
	}
}

func TestScheduler_ElapsedContinuesAfterRebase(t *testing.T) {
	s := newTestScheduler()
	if err := s.Start(scenarioPlan()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, err := s.SignalBehind(at(150)); err != nil {
		t.Fatalf("SignalBehind: %v", err)
	}

	elapsed, err := s.Elapsed(at(200))
	if err != nil {
		t.Fatalf("Elapsed: %v", err)
	}
	if elapsed != 200 {
		t.Errorf("elapsed = %g, want 200", elapsed)
	}

	// boil now ends at 480
	got, _ := s.Evaluate(at(480))
	if got[1].Status != StatusDone {
		t.Errorf("boil at 480 = %s, want DONE", got[1].Status)
	}
	got, _ = s.Evaluate(at(479))
	if got[1].Status != StatusActive {
		t.Errorf("boil at 479 = %s, want ACTIVE", got[1].Status)
	}
}

func TestScheduler_RepeatedBehindStacks(t *testing.T) {
	s := newTestScheduler()
	plan := scenarioPlan()
	if err := s.Start(plan); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.SignalBehind(at(150))
	s.SignalBehind(at(150))

	if plan.Steps[2].StartOffsetSec != 660 {
		t.Errorf("plate start = %g, want 660", plan.Steps[2].StartOffsetSec)
	}
	if plan.Steps[1].DurationSec != 420 {
		t.Errorf("boil duration = %g, want 420", plan.Steps[1].DurationSec)
	}
	if s.TotalDelay() != 240 {
		t.Errorf("TotalDelay = %g, want 240", s.TotalDelay())
	}
}

func TestScheduler_NotStarted(t *testing.T) {
	s := newTestScheduler()

	if _, err := s.Evaluate(t0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Evaluate before Start: got %v, want ErrNotStarted", err)
	}
	if _, err := s.SignalBehind(t0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("SignalBehind before Start: got %v, want ErrNotStarted", err)
	}
	if _, err := s.Elapsed(t0); !errors.Is(err, ErrNotStarted) {
		t.Errorf("Elapsed before Start: got %v, want ErrNotStarted", err)
	}
}

func TestScheduler_ResetThenRestart(t *testing.T) {
	now := t0
	s := New(
		WithClock(func() time.Time { return now }),
		WithLogger(logger.NewWithWriter(io.Discard, "", logger.LevelError)),
	)
	plan := scenarioPlan()
	if err := s.Start(plan); err != nil {
		t.Fatalf("Start: %v", err)
	}
	s.SignalBehind(at(150))
	s.Reset()

	if s.Running() {
		t.Fatal("scheduler still running after Reset")
	}
	if _, err := s.Evaluate(at(160)); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("Evaluate after Reset: got %v, want ErrNotStarted", err)
	}
	// Reset keeps the shifted offsets
	if plan.Steps[2].StartOffsetSec != 540 {
		t.Errorf("plate start = %g, want 540", plan.Steps[2].StartOffsetSec)
	}

	now = at(1000)
	if err := s.Start(plan); err != nil {
		t.Fatalf("restart: %v", err)
	}
	elapsed, _ := s.Elapsed(now)
	if elapsed != 0 {
		t.Errorf("elapsed after restart = %g, want 0", elapsed)
	}
}

func TestScheduler_StartWhileRunningRestarts(t *testing.T) {
	now := t0
	s := New(
		WithClock(func() time.Time { return now }),
		WithLogger(logger.NewWithWriter(io.Discard, "", logger.LevelError)),
	)
	if err := s.Start(scenarioPlan()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	now = at(300)
	if err := s.Start(s.Plan()); err != nil {
		t.Fatalf("second Start: %v", err)
	}
	got, _ := s.Evaluate(now)
	if got[0].Status != StatusActive {
		t.Errorf("prep after restart = %s, want ACTIVE", got[0].Status)
	}
}

func TestScheduler_StartRejectsInvalidPlans(t *testing.T) {
	s := newTestScheduler()

	var invalid *ledger.InvalidPlanError
	if err := s.Start(nil); !errors.As(err, &invalid) {
		t.Errorf("Start(nil): got %v, want InvalidPlanError", err)
	}

	bad := &models.Plan{Steps: []models.Step{{Label: "x", StartOffsetSec: 0, DurationSec: -1}}}
	if err := s.Start(bad); !errors.As(err, &invalid) {
		t.Errorf("Start(bad): got %v, want InvalidPlanError", err)
	}
	if s.Running() {
		t.Error("scheduler running after a rejected Start")
	}
}

func TestScheduler_EmptyPlan(t *testing.T) {
	s := newTestScheduler()
	if err := s.Start(&models.Plan{Dish: "nothing"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	got, err := s.Evaluate(at(10))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %d statuses for empty plan", len(got))
	}
	shift, err := s.SignalBehind(at(10))
	if err != nil || shift.Changed() {
		t.Errorf("SignalBehind on empty plan = %+v, %v", shift, err)
	}
}

func TestScheduler_CustomDelay(t *testing.T) {
	s := New(
		WithClock(func() time.Time { return t0 }),
		WithDelay(300, 90),
		WithLogger(logger.NewWithWriter(io.Discard, "", logger.LevelError)),
	)
	plan := scenarioPlan()
	s.Start(plan)
	s.SignalBehind(at(150))

	if plan.Steps[2].StartOffsetSec != 720 || plan.Steps[1].DurationSec != 390 {
		t.Errorf("unexpected steps after custom shift: %+v", plan.Steps)
	}
}

func TestSummarize(t *testing.T) {
	s := newTestScheduler()
	s.Start(scenarioPlan())

	got, _ := s.Evaluate(at(150))
	sum := Summarize(got)
	if sum.Done != 1 || sum.Pending != 1 || len(sum.Active) != 1 || sum.Active[0] != 1 {
		t.Errorf("unexpected summary %+v", sum)
	}
	if sum.NextPending != 2 {
		t.Errorf("NextPending = %d, want 2", sum.NextPending)
	}
	if sum.Finished() {
		t.Error("plan reported finished at 150s")
	}

	got, _ = s.Evaluate(at(480))
	if !Summarize(got).Finished() {
		t.Error("plan not finished at 480s")
	}
}
