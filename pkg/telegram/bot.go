package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/korjavin/fridgeflow/pkg/logger"
)

// Callback data of the timeline buttons
const (
	CallbackGo     = "tl:go"
	CallbackBehind = "tl:behind"
	CallbackStatus = "tl:status"
	CallbackReset  = "tl:reset"
)

// Bot represents a Telegram bot instance
type Bot struct {
	api    *tgbotapi.BotAPI
	logger *logger.Logger
}

// HandlerFunc is a function that handles a Telegram update
type HandlerFunc func(update tgbotapi.Update)

// CommandHandler is a function that handles a Telegram command
type CommandHandler func(message *tgbotapi.Message)

// CallbackHandler is a function that handles a Telegram callback query
type CallbackHandler func(callback *tgbotapi.CallbackQuery)

// New creates a new Telegram bot instance
func New(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	bot := &Bot{
		api:    api,
		logger: logger.New("telegram"),
	}

	bot.logger.Info("Telegram bot created: @%s", api.Self.UserName)
	return bot, nil
}

// Start listens for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context, commandHandlers map[string]CommandHandler, callbackHandlers map[string]CallbackHandler, defaultHandler HandlerFunc) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	defer b.api.StopReceivingUpdates()

	for {
		select {
		case <-ctx.Done():
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			b.dispatch(update, commandHandlers, callbackHandlers, defaultHandler)
		}
	}
}

func (b *Bot) dispatch(update tgbotapi.Update, commandHandlers map[string]CommandHandler, callbackHandlers map[string]CallbackHandler, defaultHandler HandlerFunc) {
	var chatID int64
	if update.Message != nil {
		chatID = update.Message.Chat.ID
	} else if update.CallbackQuery != nil && update.CallbackQuery.Message != nil {
		chatID = update.CallbackQuery.Message.Chat.ID
	}
	log := b.logger
	if chatID != 0 {
		log = b.logger.With(fmt.Sprintf("chat %d", chatID))
	}

	if update.Message != nil && update.Message.IsCommand() {
		command := update.Message.Command()
		if handler, ok := commandHandlers[command]; ok {
			log.Info("Handling command: %s from user %s", command, userName(update.Message.From))
			handler(update.Message)
			return
		}
	}

	if update.CallbackQuery != nil {
		data := update.CallbackQuery.Data
		for prefix, handler := range callbackHandlers {
			if strings.HasPrefix(data, prefix) {
				log.Info("Handling callback: %s from user %s", data, userName(update.CallbackQuery.From))
				handler(update.CallbackQuery)
				return
			}
		}
		return
	}

	if defaultHandler != nil {
		defaultHandler(update)
	}
}

func userName(u *tgbotapi.User) string {
	if u == nil {
		return "unknown"
	}
	return u.UserName
}

// TimelineKeyboard returns the inline buttons shown under plans and status messages
func TimelineKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("▶️ Start", CallbackGo),
			tgbotapi.NewInlineKeyboardButtonData("🐢 I'm behind", CallbackBehind),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏱ Status", CallbackStatus),
			tgbotapi.NewInlineKeyboardButtonData("⏹ Reset", CallbackReset),
		),
	)
}

// SendMessage sends a text message to a chat
func (b *Bot) SendMessage(chatID int64, text string) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	return b.api.Send(msg)
}

// SendMessageWithKeyboard sends a text message with an inline keyboard
func (b *Bot) SendMessageWithKeyboard(chatID int64, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = keyboard
	return b.api.Send(msg)
}

// Notify sends text to a chat and only reports the error
func (b *Bot) Notify(chatID int64, text string) error {
	_, err := b.SendMessage(chatID, text)
	return err
}

// PhotoURL returns a download URL for the largest size of a photo
func (b *Bot) PhotoURL(photos []tgbotapi.PhotoSize) (string, error) {
	if len(photos) == 0 {
		return "", fmt.Errorf("message has no photo")
	}
	url, err := b.api.GetFileDirectURL(photos[len(photos)-1].FileID)
	if err != nil {
		return "", fmt.Errorf("failed to get photo URL: %w", err)
	}
	return url, nil
}

// AnswerCallbackQuery answers a callback query
func (b *Bot) AnswerCallbackQuery(callbackID string, text string) error {
	callback := tgbotapi.NewCallback(callbackID, text)
	_, err := b.api.Request(callback)
	return err
}

// EditMessageWithKeyboard edits a message's text and keeps an inline keyboard on it
func (b *Bot) EditMessageWithKeyboard(chatID int64, messageID int, text string, keyboard tgbotapi.InlineKeyboardMarkup) (tgbotapi.Message, error) {
	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, messageID, text, keyboard)
	return b.api.Send(edit)
}
