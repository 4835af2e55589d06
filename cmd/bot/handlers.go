package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/korjavin/fridgeflow/pkg/config"
	"github.com/korjavin/fridgeflow/pkg/history"
	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/messages"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/openai"
	"github.com/korjavin/fridgeflow/pkg/planner"
	"github.com/korjavin/fridgeflow/pkg/state"
	"github.com/korjavin/fridgeflow/pkg/stats"
	"github.com/korjavin/fridgeflow/pkg/timeline"
)

const (
	historyLimit = 5
	planUsage    = "Tell me what you have, e.g. /plan 25 eggs, spinach, tortillas"
)

// IngredientExtractor lists the ingredients visible in a photo
type IngredientExtractor interface {
	ExtractIngredientsFromPhoto(ctx context.Context, photoURL string) ([]string, error)
}

// handlers implements the chat commands. Each action returns the reply text so
// commands and inline buttons can share it.
type handlers struct {
	cfg            *config.Config
	planner        *planner.Service
	history        *history.Service
	stats          *stats.Service
	sessions       *state.Manager
	messageService *messages.Service
	extractor      IngredientExtractor
	now            func() time.Time
	logger         *logger.Logger
}

func newHandlers(cfg *config.Config, plannerService *planner.Service, historyService *history.Service, statsService *stats.Service, sessions *state.Manager, messageService *messages.Service, extractor IngredientExtractor) *handlers {
	return &handlers{
		cfg:            cfg,
		planner:        plannerService,
		history:        historyService,
		stats:          statsService,
		sessions:       sessions,
		messageService: messageService,
		extractor:      extractor,
		now:            time.Now,
		logger:         logger.New("handlers"),
	}
}

// plan generates a plan from "[minutes] <ingredients>" and makes it the chat's
// current plan
func (h *handlers) plan(ctx context.Context, chatID int64, minutes int, ingredients string, mode models.Mode) string {
	if ingredients == "" {
		return planUsage
	}
	if minutes <= 0 {
		minutes = h.cfg.DefaultTimeLimitMin
	}

	req := models.PlanRequest{Ingredients: ingredients, TimeLimitMin: minutes, Mode: mode}
	plan, err := h.planner.GenerateWithFallback(ctx, req)
	if plan == nil {
		if errors.Is(err, planner.ErrNoIngredients) {
			return planUsage
		}
		h.logger.Error("Failed to generate plan for chat %d: %v", chatID, err)
		return h.messageService.GenerateErrorMessage(ctx, "put a plan together")
	}

	if _, saveErr := h.history.Save(chatID, req, plan); saveErr != nil {
		h.logger.Error("Failed to save plan for chat %d: %v", chatID, saveErr)
	}
	h.record(h.stats.RecordPlan(chatID, plan))
	h.sessions.Get(chatID).SetPlan(plan)

	text := messages.RenderPlan(plan) + "\n\nPress Start (or /go) when you begin cooking."
	if err != nil {
		text = fmt.Sprintf("⚠️ The AI chef is unavailable (%v), so here is a quick plan instead.\n\n", err) + text
	}
	return text
}

// photoPlan plans from the ingredients spotted in a fridge photo. extra is any
// ingredient text from the caption.
func (h *handlers) photoPlan(ctx context.Context, chatID int64, photoURL string, minutes int, extra string) string {
	spotted, err := h.extractor.ExtractIngredientsFromPhoto(ctx, photoURL)
	if err != nil {
		if errors.Is(err, openai.ErrNotConfigured) {
			return "📷 Reading photos needs an AI chef, and none is configured. Send me your ingredients as text instead."
		}
		h.logger.Error("Failed to read photo for chat %d: %v", chatID, err)
		return h.messageService.GenerateErrorMessage(ctx, "read your photo")
	}
	if len(spotted) == 0 {
		return "🤔 I couldn't spot any ingredients in that photo. Try listing them instead."
	}

	ingredients := strings.Join(spotted, ", ")
	if extra != "" {
		ingredients += ", " + extra
	}
	return fmt.Sprintf("📷 I spotted: %s\n\n", ingredients) + h.plan(ctx, chatID, minutes, ingredients, models.ModeHeuristic)
}

// start starts or restarts the chat's timeline
func (h *handlers) start(chatID int64) string {
	session := h.sessions.Get(chatID)
	if err := session.Start(); err != nil {
		if errors.Is(err, state.ErrNoPlan) {
			return messages.NoPlanMessage()
		}
		h.logger.Error("Failed to start timeline for chat %d: %v", chatID, err)
		return fmt.Sprintf("😢 This plan can't be tracked: %v", err)
	}
	h.record(h.stats.RecordStart(chatID))
	return "🔥 Timeline started! I'll tell you when each step begins.\n\n" + h.status(chatID)
}

// behind shifts the rest of the running plan
func (h *handlers) behind(chatID int64) string {
	session := h.sessions.Get(chatID)
	now := h.now()
	shift, err := session.SignalBehind(now)
	if err != nil {
		return h.timelineError(chatID, err)
	}
	if shift.Changed() {
		var added float64
		if len(shift.Delayed) > 0 {
			added = h.cfg.BehindDelaySec
		}
		h.record(h.stats.RecordBehind(chatID, added))
	}
	text := messages.RenderShift(session.Plan(), shift, h.cfg.BehindDelaySec, h.cfg.BehindExtensionSec)
	return text + "\n\n" + h.statusAt(session, now)
}

// status renders the live countdown of the chat's timeline
func (h *handlers) status(chatID int64) string {
	return h.statusAt(h.sessions.Get(chatID), h.now())
}

func (h *handlers) statusAt(session *state.Session, now time.Time) string {
	statuses, elapsed, err := session.Evaluate(now)
	if err != nil {
		return h.timelineError(session.ChatID, err)
	}
	text := messages.RenderStatus(session.Plan(), statuses, elapsed)
	if delay := session.TotalDelay(); delay > 0 {
		text += fmt.Sprintf("\n\n🐢 %s behind the original plan", messages.FormatSeconds(delay))
	}
	return text
}

// reset stops tracking and keeps the plan
func (h *handlers) reset(chatID int64) string {
	h.sessions.Get(chatID).Reset()
	return "⏹ Tracking stopped. /go starts the plan again from the beginning."
}

// retrack reloads the most recent stored plan with its original offsets
func (h *handlers) retrack(chatID int64) string {
	record, err := h.history.Latest(chatID)
	if err != nil {
		if errors.Is(err, history.ErrNoPlans) {
			return messages.NoPlanMessage()
		}
		h.logger.Error("Failed to load latest plan for chat %d: %v", chatID, err)
		return "😢 Sorry, I couldn't load your last plan. Please try again."
	}
	h.sessions.Get(chatID).SetPlan(record.Plan.Clone())
	return "🔁 Loaded your last plan.\n\n" + messages.RenderPlan(&record.Plan)
}

// recent lists the chat's stored plans
func (h *handlers) recent(chatID int64) string {
	records, err := h.history.List(chatID, historyLimit)
	if err != nil {
		h.logger.Error("Failed to list plans for chat %d: %v", chatID, err)
		return "😢 Sorry, I couldn't load your plans. Please try again."
	}
	return messages.RenderHistory(records)
}

// kitchenStats renders the chat's cooking statistics
func (h *handlers) kitchenStats(chatID int64) string {
	st, err := h.stats.GetStatistics(chatID)
	if err != nil {
		h.logger.Error("Failed to load statistics for chat %d: %v", chatID, err)
		return "😢 Sorry, I couldn't load your statistics. Please try again."
	}
	return messages.RenderStats(st)
}

// finished records a timeline that ran to completion
func (h *handlers) finished(chatID int64, dish string) {
	h.record(h.stats.RecordFinish(chatID, dish))
}

// record logs a failed statistics update. Statistics never fail a command.
func (h *handlers) record(err error) {
	if err != nil {
		h.logger.Warn("Failed to update statistics: %v", err)
	}
}

func (h *handlers) timelineError(chatID int64, err error) string {
	if errors.Is(err, timeline.ErrNotStarted) {
		return messages.NotStartedMessage()
	}
	h.logger.Error("Timeline error for chat %d: %v", chatID, err)
	return fmt.Sprintf("😢 %v", err)
}
