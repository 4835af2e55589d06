package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/fridgeflow/pkg/api"
	"github.com/korjavin/fridgeflow/pkg/config"
	"github.com/korjavin/fridgeflow/pkg/history"
	"github.com/korjavin/fridgeflow/pkg/logger"
	"github.com/korjavin/fridgeflow/pkg/messages"
	"github.com/korjavin/fridgeflow/pkg/models"
	"github.com/korjavin/fridgeflow/pkg/openai"
	"github.com/korjavin/fridgeflow/pkg/planner"
	"github.com/korjavin/fridgeflow/pkg/scheduler"
	"github.com/korjavin/fridgeflow/pkg/state"
	"github.com/korjavin/fridgeflow/pkg/stats"
	"github.com/korjavin/fridgeflow/pkg/storage"
	"github.com/korjavin/fridgeflow/pkg/telegram"
	"github.com/korjavin/fridgeflow/pkg/timeline"
)

func main() {
	// Initialize logger
	log := logger.Global
	log.Info("Starting FridgeFlow bot...")

	// Load configuration
	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("Failed to load configuration: %v", err)
		os.Exit(1)
	}
	logger.Global.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Initialize storage
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		log.Error("Failed to initialize storage: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// Start BadgerDB garbage collection
	store.StartGCRoutine(ctx, 10*time.Minute)

	// Initialize OpenAI client
	openaiClient := openai.New(cfg.OpenAIAPIKey, cfg.OpenAIAPIBase, cfg.OpenAIModel)
	if !openaiClient.Configured() {
		log.Warn("OPENAI_API_KEY not set, /llmplan will fall back to heuristic plans")
	}

	// Initialize services
	plannerService := planner.New(openaiClient)
	historyService := history.New(store)
	statsService := stats.New(store)
	messageService := messages.New(openaiClient)
	sessions := state.New(timeline.WithDelay(cfg.BehindDelaySec, cfg.BehindExtensionSec))
	h := newHandlers(cfg, plannerService, historyService, statsService, sessions, messageService, openaiClient)

	// Initialize Telegram bot
	bot, err := telegram.New(cfg.BotToken)
	if err != nil {
		log.Error("Failed to initialize Telegram bot: %v", err)
		os.Exit(1)
	}

	var wg sync.WaitGroup

	// Start the timeline scheduler
	timelineScheduler := scheduler.New(sessions, bot, messageService, cfg.TickInterval)
	timelineScheduler.OnFinish(h.finished)
	timelineScheduler.Start(ctx)
	defer timelineScheduler.Stop()

	// Start the HTTP API
	if cfg.HTTPAddr != "" {
		server := api.New(cfg.HTTPAddr, plannerService)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := server.ListenAndServe(ctx); err != nil {
				log.Error("HTTP API stopped: %v", err)
			}
		}()
	}

	reply := func(chatID int64, text string) {
		if _, err := bot.SendMessageWithKeyboard(chatID, text, telegram.TimelineKeyboard()); err != nil {
			log.Error("Failed to send message to chat %d: %v", chatID, err)
		}
	}
	planCommand := func(mode models.Mode) telegram.CommandHandler {
		return func(message *tgbotapi.Message) {
			minutes, ingredients := telegram.ParsePlanArgs(message.CommandArguments())
			reply(message.Chat.ID, h.plan(ctx, message.Chat.ID, minutes, ingredients, mode))
		}
	}

	// Setup command handlers
	commandHandlers := map[string]telegram.CommandHandler{
		"start": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID, messageService.GenerateWelcomeMessage(ctx))
		},
		"help": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID, messageService.GenerateWelcomeMessage(ctx))
		},
		"plan":    planCommand(models.ModeHeuristic),
		"llmplan": planCommand(models.ModeLLM),
		"go": func(message *tgbotapi.Message) {
			reply(message.Chat.ID, h.start(message.Chat.ID))
		},
		"behind": func(message *tgbotapi.Message) {
			reply(message.Chat.ID, h.behind(message.Chat.ID))
		},
		"status": func(message *tgbotapi.Message) {
			reply(message.Chat.ID, h.status(message.Chat.ID))
		},
		"reset": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID, h.reset(message.Chat.ID))
		},
		"retrack": func(message *tgbotapi.Message) {
			reply(message.Chat.ID, h.retrack(message.Chat.ID))
		},
		"history": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID, h.recent(message.Chat.ID))
		},
		"stats": func(message *tgbotapi.Message) {
			bot.SendMessage(message.Chat.ID, h.kitchenStats(message.Chat.ID))
		},
	}

	// Setup callback handlers for the timeline buttons
	callback := func(action func(chatID int64) string, answer string) telegram.CallbackHandler {
		return func(cb *tgbotapi.CallbackQuery) {
			if cb.Message == nil {
				return
			}
			bot.AnswerCallbackQuery(cb.ID, answer)
			reply(cb.Message.Chat.ID, action(cb.Message.Chat.ID))
		}
	}
	callbackHandlers := map[string]telegram.CallbackHandler{
		telegram.CallbackGo:     callback(h.start, "Let's cook!"),
		telegram.CallbackBehind: callback(h.behind, "No rush"),
		telegram.CallbackReset:  callback(h.reset, "Stopped"),
		// Status refreshes the pressed message in place
		telegram.CallbackStatus: func(cb *tgbotapi.CallbackQuery) {
			if cb.Message == nil {
				return
			}
			bot.AnswerCallbackQuery(cb.ID, "")
			chatID := cb.Message.Chat.ID
			text := h.status(chatID)
			if _, err := bot.EditMessageWithKeyboard(chatID, cb.Message.MessageID, text, telegram.TimelineKeyboard()); err != nil {
				log.Debug("Could not edit status message in chat %d: %v", chatID, err)
				reply(chatID, text)
			}
		},
	}

	// Photos are read for ingredients and plain text is treated as an ingredient list
	defaultHandler := func(update tgbotapi.Update) {
		message := update.Message
		if message == nil || message.IsCommand() {
			return
		}
		chatID := message.Chat.ID

		if len(message.Photo) > 0 {
			photoURL, err := bot.PhotoURL(message.Photo)
			if err != nil {
				log.Error("Failed to fetch photo in chat %d: %v", chatID, err)
				bot.SendMessage(chatID, messageService.GenerateErrorMessage(ctx, "read your photo"))
				return
			}
			minutes, extra := telegram.ParseTextArgs(message.Caption)
			reply(chatID, h.photoPlan(ctx, chatID, photoURL, minutes, extra))
			return
		}

		if message.Text == "" {
			return
		}
		minutes, ingredients := telegram.ParseTextArgs(message.Text)
		reply(chatID, h.plan(ctx, chatID, minutes, ingredients, models.ModeHeuristic))
	}

	// Start the bot
	log.Info("Bot is now running. Press CTRL-C to exit.")
	if err := bot.Start(ctx, commandHandlers, callbackHandlers, defaultHandler); err != nil {
		log.Error("Error running bot: %v", err)
	}

	log.Info("Shutting down...")
	stop()
	wg.Wait()
}
