package messages

import (
	"context"

	"github.com/korjavin/fridgeflow/pkg/logger"
)

// ChatGenerator writes free-form chat messages
type ChatGenerator interface {
	GenerateChatMessage(ctx context.Context, intent string, contextData map[string]interface{}) (string, error)
}

// Service provides message generation functionality
type Service struct {
	generator ChatGenerator
	logger    *logger.Logger
}

// New creates a new message service. generator may be nil, then the static
// messages are used.
func New(generator ChatGenerator) *Service {
	return &Service{
		generator: generator,
		logger:    logger.New("messages"),
	}
}

const helpText = `Commands:
/plan [minutes] <ingredients> — quick plan from your ingredients
/llmplan [minutes] <ingredients> — ask the AI chef for a plan
/go — start (or restart) the timeline
/behind — running behind? shift the rest of the plan
/status — where am I?
/reset — stop tracking
/retrack — load your last plan again, as generated
/history — your recent plans
/stats — your cooking statistics`

func (s *Service) generate(ctx context.Context, intent string, data map[string]interface{}, fallback string) string {
	if s.generator == nil {
		return fallback
	}
	msg, err := s.generator.GenerateChatMessage(ctx, intent, data)
	if err != nil || msg == "" {
		s.logger.Debug("Using static %s message: %v", intent, err)
		return fallback
	}
	return msg
}

// GenerateWelcomeMessage generates a welcome message followed by the command list
func (s *Service) GenerateWelcomeMessage(ctx context.Context) string {
	greeting := s.generate(ctx, "welcome", map[string]interface{}{
		"purpose": "Turn what is in the fridge into a timed cooking plan and keep the cook on schedule",
	}, "👋 Welcome to FridgeFlow! Tell me what's in your fridge and I'll plan and time your dinner.")
	return greeting + "\n\n" + helpText
}

// GenerateDoneMessage generates the message sent when every step is done
func (s *Service) GenerateDoneMessage(ctx context.Context, dish string) string {
	return s.generate(ctx, "meal_ready", map[string]interface{}{
		"dish": dish,
	}, "🍽 "+dish+" is ready. Enjoy your meal!")
}

// GenerateErrorMessage generates an error message
func (s *Service) GenerateErrorMessage(ctx context.Context, action string) string {
	return s.generate(ctx, "error", map[string]interface{}{
		"context": action,
	}, "😢 Sorry, I couldn't "+action+". Please try again.")
}

// NotStartedMessage is sent when a timeline command arrives before /go
func NotStartedMessage() string {
	return "⏸ The timeline isn't running. Generate a plan with /plan, then start it with /go."
}

// NoPlanMessage is sent when /go arrives before any plan exists
func NoPlanMessage() string {
	return "🤷 Generate a plan first: /plan eggs, spinach, tortillas"
}
