package hub

import (
	"context"

	"strangerchat/backend/internal/models"
)

// Client is one delivery endpoint for a participant, whatever the transport
// underneath (Telegram chat, WebSocket connection). The hub manages all
// client types uniformly through this interface.
type Client interface {
	// UserID returns the opaque identity this client delivers to.
	UserID() string
	// Deliver hands one notification to the participant. Implementations
	// translate the kind into transport-level output.
	Deliver(ctx context.Context, n models.Notification) error
	// Close releases the underlying connection, if any.
	Close()
}
