// Package telegram adapts the Telegram Bot API to the engine: inbound
// updates are classified into commands at this boundary, and outbound
// notifications are rendered into localized Telegram messages.
package telegram

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"strangerchat/backend/internal/engine"
	"strangerchat/backend/internal/hub"
	"strangerchat/backend/internal/localization"
	"strangerchat/backend/internal/storage"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotService receives Telegram updates and routes them into the engine.
type BotService struct {
	BotAPI    *tgbotapi.BotAPI
	Engine    *engine.Engine
	Hub       *hub.Hub
	Storage   storage.Storage
	Localizer *localization.Localizer
}

// NewBotService authorizes against the Bot API and wires the adapter.
func NewBotService(token string, eng *engine.Engine, h *hub.Hub, s storage.Storage) (*BotService, error) {
	// The client timeout must sit above the 60s long-poll window so
	// GetUpdates survives, while a hung Send still gets cut off.
	httpClient := &http.Client{Timeout: 90 * time.Second}
	bot, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, httpClient)
	if err != nil {
		return nil, err
	}
	bot.Debug = false
	log.Printf("✅ Authorized on account %s", bot.Self.UserName)

	localizer, err := localization.NewLocalizer()
	if err != nil {
		return nil, fmt.Errorf("failed to create localizer: %w", err)
	}

	return &BotService{
		BotAPI:    bot,
		Engine:    eng,
		Hub:       h,
		Storage:   s,
		Localizer: localizer,
	}, nil
}

// Run is the long-polling loop. Updates are handled synchronously so one
// user's commands and messages keep their arrival order.
func (s *BotService) Run() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := s.BotAPI.GetUpdatesChan(u)

	for update := range updates {
		s.ProcessUpdate(&update)
	}
}

// ProcessUpdate handles one update. The webhook handler calls this with
// decoded request bodies; Run calls it from the polling loop.
func (s *BotService) ProcessUpdate(update *tgbotapi.Update) {
	switch {
	case update.Message != nil:
		s.handleMessage(update.Message)
	case update.CallbackQuery != nil:
		s.handleCallbackQuery(update.CallbackQuery)
	}
}

// handleMessage registers the user on first contact, resolves the raw text
// into a command, and hands it to the engine.
func (s *BotService) handleMessage(msg *tgbotapi.Message) {
	ctx := context.Background()

	c := s.getOrCreateClient(ctx, msg.Chat.ID)
	if c == nil {
		return
	}

	if msg.IsCommand() && msg.Command() == "language" {
		s.sendLanguageKeyboard(msg.Chat.ID, c.Language())
		return
	}

	// Only text survives anonymization for now; media is dropped silently.
	if msg.Text == "" {
		return
	}

	cmd := engine.ParseText(c.UserID(), msg.Text)
	if err := s.Engine.Handle(ctx, cmd); err != nil {
		log.Printf("command from %s failed: %v", c.UserID(), err)
	}
}

// getOrCreateClient upserts the user row and keeps one hub client per
// Telegram chat. Telegram is connectionless, so clients stay registered for
// the life of the process.
func (s *BotService) getOrCreateClient(ctx context.Context, chatID int64) *Client {
	user, err := s.Storage.SaveUserIfNotExists(ctx, chatID)
	if err != nil {
		log.Printf("ERROR: failed to get/create user for chat %d: %v", chatID, err)
		return nil
	}

	if existing, ok := s.Hub.Get(user.ID); ok {
		if c, ok := existing.(*Client); ok {
			return c
		}
		log.Printf("ERROR: client for %s is not a telegram client", user.ID)
	}

	c := NewClient(user.ID, chatID, user.Language, s.BotAPI, s.Localizer)
	s.Hub.Register(c)
	return c
}

// sendLanguageKeyboard offers the language choices as an inline keyboard.
func (s *BotService) sendLanguageKeyboard(chatID int64, lang string) {
	msg := tgbotapi.NewMessage(chatID, s.Localizer.GetString(lang, "choose_language"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("English", "set_lang_en"),
			tgbotapi.NewInlineKeyboardButtonData("Русский", "set_lang_ru"),
			tgbotapi.NewInlineKeyboardButtonData("Українська", "set_lang_ua"),
		),
	)
	if _, err := s.BotAPI.Send(msg); err != nil {
		log.Printf("failed to send language keyboard: %v", err)
	}
}

func (s *BotService) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Acknowledge to stop the client-side loading spinner.
	if _, err := s.BotAPI.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
		log.Printf("failed to answer callback query: %v", err)
	}
	if query.Message == nil || !strings.HasPrefix(query.Data, "set_lang_") {
		return
	}

	ctx := context.Background()
	chatID := query.Message.Chat.ID
	lang := strings.TrimPrefix(query.Data, "set_lang_")

	c := s.getOrCreateClient(ctx, chatID)
	if c == nil {
		return
	}
	if err := s.Storage.UpdateUserLanguage(ctx, c.UserID(), lang); err != nil {
		log.Printf("failed to update language for %s: %v", c.UserID(), err)
		return
	}
	c.SetLanguage(lang)

	confirm := tgbotapi.NewMessage(chatID, s.Localizer.GetString(lang, "language_changed"))
	if _, err := s.BotAPI.Send(confirm); err != nil {
		log.Printf("failed to confirm language change: %v", err)
	}
}

// SetWebhook registers the webhook endpoint with Telegram and drops the
// polling offset. Used when WEBHOOK_URL is configured.
func (s *BotService) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url + "/webhook")
	if err != nil {
		return err
	}
	if _, err := s.BotAPI.Request(wh); err != nil {
		return err
	}
	log.Printf("webhook set to %s/webhook", url)
	return nil
}
