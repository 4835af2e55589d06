package scheduler

import (
	"context"
	"time"

	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/messages"
	"github.com/korjavin/fridgeflow/pkg/state"
)

const sessionMaxIdle = 12 * time.Hour

// Notifier delivers text to a chat
type Notifier interface {
	Notify(chatID int64, text string) error
}

// Service ticks running timelines
type Service struct {
	sessions       *state.Manager
	notifier       Notifier
	messageService *messages.Service
	interval       time.Duration
	now            func() time.Time
	onFinish       func(chatID int64, dish string)
	logger         *logger.Logger
	stopChan       chan struct{}
}

// New creates a new scheduler service
func New(sessions *state.Manager, notifier Notifier, messageService *messages.Service, interval time.Duration) *Service {
	return &Service{
		sessions:       sessions,
		notifier:       notifier,
		messageService: messageService,
		interval:       interval,
		now:            time.Now,
		logger:         logger.New("scheduler"),
		stopChan:       make(chan struct{}),
	}
}

// OnFinish registers fn to run after a timeline finishes. Call it before Start.
func (s *Service) OnFinish(fn func(chatID int64, dish string)) {
	s.onFinish = fn
}

// Start starts the tick loop and the idle session sweeper
func (s *Service) Start(ctx context.Context) {
	s.logger.Info("Starting timeline scheduler with tick interval %v", s.interval)

	go s.runTicker(ctx)
	go s.runSessionSweeper(ctx)
}

// Stop stops the scheduler
func (s *Service) Stop() {
	s.logger.Info("Stopping timeline scheduler")
	close(s.stopChan)
}

func (s *Service) runTicker(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Tick(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Service) runSessionSweeper(ctx context.Context) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := s.sessions.Expire(sessionMaxIdle); n > 0 {
				s.logger.Info("Dropped %d idle sessions", n)
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Tick evaluates every running session once. Ticks are synchronous, so they
// never overlap.
func (s *Service) Tick(ctx context.Context) {
	now := s.now()
	for _, session := range s.sessions.Running() {
		res, err := session.Tick(now)
		if err != nil {
			// Reset by the user between listing and ticking
			s.logger.Debug("Skipping chat %d: %v", session.ChatID, err)
			continue
		}

		for _, st := range res.Started {
			s.notify(session.ChatID, messages.RenderStepStarted(res.Plan, st))
		}
		if res.Finished {
			s.logger.Info("Timeline finished for chat %d", session.ChatID)
			s.notify(session.ChatID, s.messageService.GenerateDoneMessage(ctx, res.Plan.Dish))
			if s.onFinish != nil {
				s.onFinish(session.ChatID, res.Plan.Dish)
			}
		}
	}
}

func (s *Service) notify(chatID int64, text string) {
	if err := s.notifier.Notify(chatID, text); err != nil {
		s.logger.Error("Failed to notify chat %d: %v", chatID, err)
	}
}
