// Package handler is the gin HTTP surface: health, anonymous identity
// minting, the WebSocket transport, and the Telegram webhook endpoint.
package handler

import (
	"strangerchat/backend/internal/engine"
	"strangerchat/backend/internal/hub"
	"strangerchat/backend/internal/telegram"
)

// Handler carries the dependencies of the HTTP surface.
type Handler struct {
	Hub       *hub.Hub
	Engine    *engine.Engine
	Bot       *telegram.BotService
	JWTSecret []byte
}

func NewHandler(h *hub.Hub, eng *engine.Engine, bot *telegram.BotService, jwtSecret []byte) *Handler {
	return &Handler{
		Hub:       h,
		Engine:    eng,
		Bot:       bot,
		JWTSecret: jwtSecret,
	}
}
