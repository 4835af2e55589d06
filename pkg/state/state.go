package state

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/korjavin/fridgeflow/pkg/ledger"
	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/timeline"
)

// ErrNoPlan is returned when tracking is requested before a plan exists
var ErrNoPlan = errors.New("no plan to track")

// Session is the tracking session of one chat: its current plan and timeline.
// The timeline scheduler is not safe for concurrent use, so every access goes
// through the session lock.
type Session struct {
	ChatID int64

	mu        sync.Mutex
	plan      *models.Plan
	scheduler *timeline.Scheduler
	// announced holds the step indices already reported as started
	announced map[int]bool
	updatedAt time.Time
}

// Plan returns the session's current plan
func (s *Session) Plan() *models.Plan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.plan
}

// SetPlan replaces the plan and stops any running timeline
func (s *Session) SetPlan(plan *models.Plan) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Reset()
	s.plan = plan
	s.announced = make(map[int]bool)
	s.updatedAt = time.Now()
}

// Start starts (or restarts) tracking the current plan
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.plan == nil {
		return ErrNoPlan
	}
	if err := s.scheduler.Start(s.plan); err != nil {
		return err
	}
	s.announced = make(map[int]bool)
	s.updatedAt = time.Now()
	return nil
}

// Evaluate classifies the plan's steps at now and returns the elapsed seconds
func (s *Session) Evaluate(now time.Time) ([]timeline.StepStatus, float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.evaluate(now)
}

func (s *Session) evaluate(now time.Time) ([]timeline.StepStatus, float64, error) {
	statuses, err := s.scheduler.Evaluate(now)
	if err != nil {
		return nil, 0, err
	}
	elapsed, err := s.scheduler.Elapsed(now)
	return statuses, elapsed, err
}

// TickResult is what one tick observed. Plan is a copy taken under the session
// lock, so the step indices in Started always refer to it even if the chat sets
// a new plan right after the tick.
type TickResult struct {
	Plan     *models.Plan
	Started  []timeline.StepStatus
	Finished bool
}

// Tick evaluates the session and reports the steps that became active since the
// previous tick, plus whether the whole plan is done. A finished session stops
// tracking.
func (s *Session) Tick(now time.Time) (TickResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	statuses, _, err := s.evaluate(now)
	if err != nil {
		return TickResult{}, err
	}

	result := TickResult{Plan: s.scheduler.Plan().Clone()}
	for _, st := range statuses {
		if st.Status == timeline.StatusActive && !s.announced[st.Index] {
			s.announced[st.Index] = true
			result.Started = append(result.Started, st)
		}
	}
	if timeline.Summarize(statuses).Finished() {
		s.scheduler.Reset()
		result.Finished = true
	}
	return result, nil
}

// SignalBehind applies the running-behind shift at now
func (s *Session) SignalBehind(now time.Time) (ledger.Shift, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updatedAt = time.Now()
	return s.scheduler.SignalBehind(now)
}

// TotalDelay returns the pending delay added by running-behind presses since the
// last start
func (s *Session) TotalDelay() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.TotalDelay()
}

// Reset stops tracking, keeping the plan
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scheduler.Reset()
	s.updatedAt = time.Now()
}

// Running reports whether the session's timeline is running
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduler.Running()
}

// Manager manages chat sessions
type Manager struct {
	sessions map[int64]*Session
	mu       sync.RWMutex
	options  []timeline.Option
	logger   *logger.Logger
}

// New creates a new session manager. The options configure every session's scheduler.
func New(opts ...timeline.Option) *Manager {
	return &Manager{
		sessions: make(map[int64]*Session),
		options:  opts,
		logger:   logger.New("sessions"),
	}
}

// Get returns the session of a chat, creating an empty one if needed
func (m *Manager) Get(chatID int64) *Session {
	m.mu.RLock()
	session, ok := m.sessions[chatID]
	m.mu.RUnlock()
	if ok {
		return session
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[chatID]; ok {
		return session
	}
	session = &Session{
		ChatID:    chatID,
		scheduler: timeline.New(m.options...),
		announced: make(map[int]bool),
		updatedAt: time.Now(),
	}
	m.sessions[chatID] = session
	return session
}

// Running returns the sessions whose timeline is running, ordered by chat ID
func (m *Manager) Running() []*Session {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		all = append(all, session)
	}
	m.mu.RUnlock()

	running := all[:0]
	for _, session := range all {
		if session.Running() {
			running = append(running, session)
		}
	}
	sort.Slice(running, func(i, j int) bool { return running[i].ChatID < running[j].ChatID })
	return running
}

// Expire drops idle sessions untouched for longer than maxIdle
func (m *Manager) Expire(maxIdle time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	expired := 0
	for chatID, session := range m.sessions {
		session.mu.Lock()
		idle := !session.scheduler.Running() && time.Since(session.updatedAt) > maxIdle
		session.mu.Unlock()
		if idle {
			delete(m.sessions, chatID)
			expired++
		}
	}
	if expired > 0 {
		m.logger.Debug("Expired %d idle sessions", expired)
	}
	return expired
}
