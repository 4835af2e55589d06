package planner

import (
	"context"
	"errors"
	"fmt"

	"github.com/korjavin/fridgeflow/pkg/ledger"
	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/openai"
)

const (
	// DefaultTimeLimitMin is used when a request names no time limit
	DefaultTimeLimitMin = 30
	minTimeLimitMin     = 15
	maxTimeLimitMin     = 90
)

// ErrNoIngredients is returned when the request lists no ingredients
var ErrNoIngredients = errors.New("no ingredients given")

// PlanGenerator produces plans with a language model
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, ingredients []string, timeLimitMin int) (*models.Plan, error)
}

// Service turns plan requests into plans
type Service struct {
	llm    PlanGenerator
	logger *logger.Logger
}

// New creates a new planner. llm may be nil, in which case LLM mode reports
// openai.ErrNotConfigured.
func New(llm PlanGenerator) *Service {
	return &Service{
		llm:    llm,
		logger: logger.New("planner"),
	}
}

// Generate builds a plan for req. Any mode other than llm gets a heuristic plan,
// and the time limit is clamped to 15..90 minutes. The returned plan always
// passes ledger.Validate.
func (s *Service) Generate(ctx context.Context, req models.PlanRequest) (*models.Plan, error) {
	req.TimeLimitMin = clampLimit(req.TimeLimitMin)
	if req.Mode == models.ModeLLM {
		return s.generateLLM(ctx, req)
	}
	return Heuristic(req.Ingredients, req.TimeLimitMin), nil
}

func clampLimit(minutes int) int {
	return max(minTimeLimitMin, min(maxTimeLimitMin, minutes))
}

func (s *Service) generateLLM(ctx context.Context, req models.PlanRequest) (*models.Plan, error) {
	if s.llm == nil {
		return nil, openai.ErrNotConfigured
	}

	ingredients := ParseIngredients(req.Ingredients)
	if len(ingredients) == 0 {
		return nil, ErrNoIngredients
	}

	plan, err := s.llm.GeneratePlan(ctx, ingredients, req.TimeLimitMin)
	if err != nil {
		return nil, err
	}
	if err := ledger.Validate(plan.Steps); err != nil {
		return nil, fmt.Errorf("model returned an unusable plan: %w", err)
	}
	if plan.Substitutions == nil {
		plan.Substitutions = []string{}
	}
	return plan, nil
}

// GenerateWithFallback behaves like Generate but answers an LLM failure with a
// heuristic plan marked as a fallback. The LLM error is returned alongside it.
func (s *Service) GenerateWithFallback(ctx context.Context, req models.PlanRequest) (*models.Plan, error) {
	plan, err := s.Generate(ctx, req)
	if err == nil || req.Mode != models.ModeLLM || errors.Is(err, ErrNoIngredients) {
		return plan, err
	}

	s.logger.Warn("LLM plan failed, falling back to heuristic: %v", err)
	fallback := Heuristic(req.Ingredients, req.TimeLimitMin)
	fallback.Provenance = models.ProvenanceFallback
	return fallback, err
}

// Heuristic builds a plan from fixed time blocks scaled to the time limit,
// which is clamped to 15..90 minutes
func Heuristic(ingredientsText string, timeLimitMin int) *models.Plan {
	ingredients := ParseIngredients(ingredientsText)

	total := clampLimit(timeLimitMin) * 60

	heat := max(120, total*10/100)
	prep := max(240, total*30/100)
	cook1 := max(300, total*35/100)
	cook2 := max(180, total*20/100)
	finish := max(120, total-(heat+prep+cook1+cook2))

	steps := []models.Step{
		{Label: "Preheat pan / oven / boil water", StartOffsetSec: 0, DurationSec: float64(heat)},
		{Label: "Wash & prep (chop veg, whisk eggs, measure)", StartOffsetSec: 0, DurationSec: float64(prep)},
		{Label: "Start main cook (protein in pan / pasta water / sauté base)", StartOffsetSec: float64(heat), DurationSec: float64(cook1)},
		{Label: "Parallel task (warm starch / toss salad / set table)", StartOffsetSec: float64(heat + 120), DurationSec: float64(cook2)},
		{Label: "Finish & assemble (taste, season, garnish)", StartOffsetSec: float64(heat + cook1), DurationSec: float64(finish)},
		{Label: "Serve", StartOffsetSec: float64(max(0, total-60)), DurationSec: 60},
	}

	return &models.Plan{
		Dish:          GuessDish(ingredients),
		Steps:         steps,
		Substitutions: Substitutions(ingredients),
		Provenance:    models.ProvenanceHeuristic,
	}
}
