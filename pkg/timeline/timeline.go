package timeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/korjavin/fridgeflow/pkg/ledger"
	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
)

// ErrNotStarted is returned when the timeline is used before Start or after Reset
var ErrNotStarted = errors.New("timeline not started: generate and start a plan first")

// Status is the run state of a step
type Status string

const (
	StatusPending Status = "PENDING"
	StatusActive  Status = "ACTIVE"
	StatusDone    Status = "DONE"
)

// StepStatus is the evaluated state of one step. RemainingSec is the time until the
// step starts when pending, the time left in its window when active, and 0 when done.
type StepStatus struct {
	Index        int     `json:"index"`
	Label        string  `json:"label"`
	Status       Status  `json:"status"`
	RemainingSec float64 `json:"remaining_sec"`
}

// Scheduler owns the time reference of one tracking session
type Scheduler struct {
	plan   *models.Plan
	ledger *ledger.Ledger

	running bool
	// reference is the instant that corresponds to elapsed == base
	reference time.Time
	base      float64

	totalDelay      float64
	pendingDelay    float64
	activeExtension float64

	now    func() time.Time
	logger *logger.Logger
}

// Option configures a Scheduler
type Option func(*Scheduler)

// WithClock replaces time.Now as the source of the reference instant on Start
func WithClock(now func() time.Time) Option {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithDelay sets the amounts applied by SignalBehind
func WithDelay(pendingDelay, activeExtension float64) Option {
	return func(s *Scheduler) {
		s.pendingDelay = pendingDelay
		s.activeExtension = activeExtension
	}
}

// WithLogger sets the logger
func WithLogger(l *logger.Logger) Option {
	return func(s *Scheduler) {
		s.logger = l
	}
}

// New creates an idle scheduler
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		pendingDelay:    ledger.DefaultPendingDelay,
		activeExtension: ledger.DefaultActiveExtension,
		now:             time.Now,
		logger:          logger.New("timeline"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins tracking plan with elapsed time 0 at the current instant. Starting a
// running scheduler restarts tracking. The plan is validated here so that malformed
// steps never surface in the middle of a tick.
func (s *Scheduler) Start(plan *models.Plan) error {
	if plan == nil {
		return &ledger.InvalidPlanError{Index: -1, Reason: "no plan"}
	}
	if err := ledger.Validate(plan.Steps); err != nil {
		return fmt.Errorf("cannot start timeline: %w", err)
	}

	if s.running {
		s.logger.Info("Restarting timeline for %q", plan.Dish)
	} else {
		s.logger.Info("Starting timeline for %q with %d steps", plan.Dish, len(plan.Steps))
	}

	s.plan = plan
	s.ledger = ledger.New(plan.Steps)
	s.reference = s.now()
	s.base = 0
	s.totalDelay = 0
	s.running = true
	return nil
}

// Running reports whether the scheduler is tracking a plan
func (s *Scheduler) Running() bool {
	return s.running
}

// Plan returns the plan being tracked, or the last tracked plan after Reset
func (s *Scheduler) Plan() *models.Plan {
	return s.plan
}

// TotalDelay returns the sum of pending delays applied since Start
func (s *Scheduler) TotalDelay() float64 {
	return s.totalDelay
}

// Elapsed returns the seconds elapsed on the timeline at now
func (s *Scheduler) Elapsed(now time.Time) (float64, error) {
	if !s.running {
		return 0, ErrNotStarted
	}
	return s.elapsed(now), nil
}

func (s *Scheduler) elapsed(now time.Time) float64 {
	return s.base + now.Sub(s.reference).Seconds()
}

// Evaluate classifies every step at now. The result is index-aligned with the
// plan's steps and depends only on the plan, the reference instant and now.
func (s *Scheduler) Evaluate(now time.Time) ([]StepStatus, error) {
	if !s.running {
		return nil, ErrNotStarted
	}

	elapsed := s.elapsed(now)
	statuses := make([]StepStatus, s.ledger.Len())
	for i := range statuses {
		start, end := s.ledger.Bounds(i)
		st := StepStatus{Index: i, Label: s.ledger.Step(i).Label}
		switch {
		case elapsed < start:
			st.Status = StatusPending
			st.RemainingSec = start - elapsed
		case elapsed < end:
			st.Status = StatusActive
			st.RemainingSec = end - elapsed
		default:
			st.Status = StatusDone
		}
		statuses[i] = st
	}
	return statuses, nil
}

// SignalBehind shifts the not yet started steps later and extends the running one,
// then rebases the reference instant to now. Every call applies a full shift, so
// pressing it twice delays the plan twice.
func (s *Scheduler) SignalBehind(now time.Time) (ledger.Shift, error) {
	if !s.running {
		return ledger.Shift{}, ErrNotStarted
	}

	elapsed := s.elapsed(now)
	shift := s.ledger.ShiftForDelay(elapsed, s.pendingDelay, s.activeExtension)
	if len(shift.Delayed) > 0 {
		s.totalDelay += s.pendingDelay
	}

	// The shifted offsets already carry the delay. Rebasing keeps elapsed continuous
	// at this instant so the delay is not counted a second time.
	s.reference = now
	s.base = elapsed

	s.logger.Info("Behind at %.0fs: delayed %d steps, extended %d", elapsed, len(shift.Delayed), len(shift.Extended))
	return shift, nil
}

// Reset stops tracking. Offsets changed by SignalBehind stay changed.
func (s *Scheduler) Reset() {
	if s.running {
		s.logger.Info("Timeline reset")
	}
	s.running = false
	s.reference = time.Time{}
	s.base = 0
}
