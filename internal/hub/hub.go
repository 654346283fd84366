// Package hub keeps the registry of connected clients and routes outbound
// notifications to whichever transport currently serves an identity.
package hub

import (
	"context"
	"fmt"
	"log"
	"sync"

	"strangerchat/backend/internal/models"
)

// Hub routes notifications to registered clients. It implements the engine's
// Notifier contract.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Client
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{clients: make(map[string]Client)}
}

// Register adds or replaces the client serving an identity. A replaced
// client is closed; this happens when a user reconnects.
func (h *Hub) Register(c Client) {
	h.mu.Lock()
	old, ok := h.clients[c.UserID()]
	h.clients[c.UserID()] = c
	h.mu.Unlock()

	if ok && old != c {
		old.Close()
	}
	log.Printf("client registered: %s", c.UserID())
}

// Unregister removes a client, but only if it is still the one serving the
// identity; a stale connection must not evict its replacement.
func (h *Hub) Unregister(c Client) {
	h.mu.Lock()
	current, ok := h.clients[c.UserID()]
	if ok && current == c {
		delete(h.clients, c.UserID())
	}
	h.mu.Unlock()

	if ok && current == c {
		c.Close()
		log.Printf("client unregistered: %s", c.UserID())
	}
}

// Get returns the client currently serving an identity.
func (h *Hub) Get(userID string) (Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[userID]
	return c, ok
}

// Notify delivers one notification to one identity. Delivery failure is
// reported to the caller and never mutates session state: a temporarily
// unreachable participant is still whatever the registry says they are.
func (h *Hub) Notify(ctx context.Context, userID string, n models.Notification) error {
	c, ok := h.Get(userID)
	if !ok {
		return fmt.Errorf("hub: no client registered for %s", userID)
	}
	return c.Deliver(ctx, n)
}
