package telegram

import (
	"context"
	"sync"

	"strangerchat/backend/internal/localization"
	"strangerchat/backend/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Client implements hub.Client for one Telegram chat. Notifications are
// rendered through the localizer in the user's language; relayed messages
// are forwarded verbatim.
type Client struct {
	userID string
	chatID int64
	bot    *tgbotapi.BotAPI
	loc    *localization.Localizer

	mu   sync.RWMutex
	lang string
}

// NewClient builds a delivery endpoint for one chat.
func NewClient(userID string, chatID int64, lang string, bot *tgbotapi.BotAPI, loc *localization.Localizer) *Client {
	if lang == "" {
		lang = "en"
	}
	return &Client{
		userID: userID,
		chatID: chatID,
		bot:    bot,
		loc:    loc,
		lang:   lang,
	}
}

func (c *Client) UserID() string { return c.userID }

// Language returns the catalog code notifications are rendered in.
func (c *Client) Language() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lang
}

// SetLanguage switches the catalog used for subsequent notifications.
func (c *Client) SetLanguage(lang string) {
	c.mu.Lock()
	c.lang = lang
	c.mu.Unlock()
}

// Deliver renders one notification into a Telegram API call.
func (c *Client) Deliver(ctx context.Context, n models.Notification) error {
	lang := c.Language()

	switch n.Kind {
	case models.KindTyping:
		_, err := c.bot.Request(tgbotapi.NewChatAction(c.chatID, tgbotapi.ChatTyping))
		return err
	case models.KindMessage:
		_, err := c.bot.Send(tgbotapi.NewMessage(c.chatID, n.Data))
		return err
	case models.KindConnected:
		text := c.loc.GetStringf(lang, "connected", n.Data)
		_, err := c.bot.Send(tgbotapi.NewMessage(c.chatID, text))
		return err
	default:
		text := c.loc.GetString(lang, string(n.Kind))
		_, err := c.bot.Send(tgbotapi.NewMessage(c.chatID, text))
		return err
	}
}

// Close is a no-op: Telegram chats hold no connection on our side.
func (c *Client) Close() {}
