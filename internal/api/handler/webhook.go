package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Health answers liveness probes.
func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, "Bot is running!")
}

// TelegramWebhook decodes an update pushed by Telegram and feeds it through
// the same path the polling loop uses.
func (h *Handler) TelegramWebhook(c *gin.Context) {
	if h.Bot == nil {
		c.AbortWithStatus(http.StatusServiceUnavailable)
		return
	}

	var update tgbotapi.Update
	if err := json.NewDecoder(c.Request.Body).Decode(&update); err != nil {
		log.Printf("failed to decode webhook update: %v", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed update"})
		return
	}

	h.Bot.ProcessUpdate(&update)
	c.String(http.StatusOK, "ok")
}
