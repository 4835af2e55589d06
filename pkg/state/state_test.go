package state

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/timeline"
)

var t0 = time.Date(2025, 3, 1, 18, 0, 0, 0, time.UTC)

func newTestManager() *Manager {
	return New(
		timeline.WithClock(func() time.Time { return t0 }),
		timeline.WithLogger(logger.NewWithWriter(io.Discard, "", logger.LevelError)),
	)
}

func testPlan() *models.Plan {
	return &models.Plan{
		Dish: "Pasta",
		Steps: []models.Step{
			{Label: "prep", StartOffsetSec: 0, DurationSec: 120},
			{Label: "boil", StartOffsetSec: 120, DurationSec: 300},
		},
	}
}

func TestManager_GetReturnsSameSession(t *testing.T) {
	m := newTestManager()
	if m.Get(1) != m.Get(1) {
		t.Fatal("Get returned different sessions for the same chat")
	}
	if m.Get(1) == m.Get(2) {
		t.Fatal("chats share a session")
	}
}

func TestSession_StartWithoutPlan(t *testing.T) {
	m := newTestManager()
	if err := m.Get(1).Start(); !errors.Is(err, ErrNoPlan) {
		t.Errorf("got %v, want ErrNoPlan", err)
	}
	if _, err := m.Get(1).SignalBehind(t0); !errors.Is(err, timeline.ErrNotStarted) {
		t.Errorf("got %v, want ErrNotStarted", err)
	}
}

func TestSession_TickAnnouncesEachStepOnce(t *testing.T) {
	m := newTestManager()
	s := m.Get(1)
	s.SetPlan(testPlan())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	res, err := s.Tick(t0)
	if err != nil || res.Finished {
		t.Fatalf("Tick = %+v, %v", res, err)
	}
	if len(res.Started) != 1 || res.Started[0].Index != 0 {
		t.Errorf("first tick started %+v, want prep", res.Started)
	}

	res, _ = s.Tick(t0.Add(time.Second))
	if len(res.Started) != 0 {
		t.Errorf("prep announced twice: %+v", res.Started)
	}

	res, _ = s.Tick(t0.Add(121 * time.Second))
	if len(res.Started) != 1 || res.Started[0].Index != 1 {
		t.Errorf("tick at 121s started %+v, want boil", res.Started)
	}

	res, err = s.Tick(t0.Add(420 * time.Second))
	if err != nil || !res.Finished {
		t.Fatalf("expected finished at 420s, got %+v, %v", res, err)
	}
	if res.Plan == nil || res.Plan.Dish != "Pasta" {
		t.Errorf("finished tick plan = %+v", res.Plan)
	}
	if s.Running() {
		t.Error("finished session still running")
	}
}

func TestSession_TickPlanSurvivesSetPlan(t *testing.T) {
	m := newTestManager()
	s := m.Get(1)
	s.SetPlan(&models.Plan{Dish: "Stir Fry", Steps: []models.Step{
		{Label: "rice", StartOffsetSec: 0, DurationSec: 600},
		{Label: "chop", StartOffsetSec: 0, DurationSec: 120},
		{Label: "wok", StartOffsetSec: 20, DurationSec: 300},
	}})
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	res, err := s.Tick(t0.Add(25 * time.Second))
	if err != nil {
		t.Fatalf("Tick: %v", err)
	}
	s.SetPlan(&models.Plan{Dish: "Toast", Steps: []models.Step{{Label: "toast", DurationSec: 60}}})

	if len(res.Started) != 3 || res.Started[2].Index != 2 {
		t.Fatalf("started = %+v, want all three steps", res.Started)
	}
	for _, st := range res.Started {
		if st.Index >= len(res.Plan.Steps) || res.Plan.Steps[st.Index].Label != st.Label {
			t.Errorf("step %d does not match the ticked plan %+v", st.Index, res.Plan)
		}
	}
	if res.Plan.Dish != "Stir Fry" {
		t.Errorf("tick plan dish = %q, want Stir Fry", res.Plan.Dish)
	}
}

func TestSession_SetPlanStopsTracking(t *testing.T) {
	m := newTestManager()
	s := m.Get(1)
	s.SetPlan(testPlan())
	s.Start()

	s.SetPlan(testPlan())
	if s.Running() {
		t.Error("session running after a new plan was set")
	}
}

func TestManager_Running(t *testing.T) {
	m := newTestManager()
	for _, id := range []int64{3, 1, 2} {
		s := m.Get(id)
		s.SetPlan(testPlan())
		if id != 2 {
			s.Start()
		}
	}

	running := m.Running()
	if len(running) != 2 || running[0].ChatID != 1 || running[1].ChatID != 3 {
		t.Errorf("unexpected running sessions: %d", len(running))
	}
	if n := m.Expire(time.Hour); n != 0 {
		t.Errorf("expired %d fresh sessions", n)
	}
}
