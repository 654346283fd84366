package hub

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"strangerchat/backend/internal/engine"
	"strangerchat/backend/internal/models"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// CommandHandler is the inbound side of the engine as the WebSocket client
// sees it.
type CommandHandler interface {
	Handle(ctx context.Context, cmd engine.Command) error
}

// wsFrame is the single inbound frame shape: a line of text, classified the
// same way Telegram text is.
type wsFrame struct {
	Text string `json:"text"`
}

// WSClient serves one WebSocket connection. Outbound notifications are
// queued on send and written by the write pump; inbound frames are parsed
// into commands and handled synchronously to preserve per-sender order.
type WSClient struct {
	userID string
	conn   *websocket.Conn
	hub    *Hub
	engine CommandHandler

	send chan models.Notification

	mu     sync.Mutex
	closed bool
}

// NewWSClient wraps an upgraded connection.
func NewWSClient(userID string, conn *websocket.Conn, h *Hub, eng CommandHandler) *WSClient {
	return &WSClient{
		userID: userID,
		conn:   conn,
		hub:    h,
		engine: eng,
		send:   make(chan models.Notification, 64),
	}
}

func (c *WSClient) UserID() string { return c.userID }

// Run starts the read and write pumps.
func (c *WSClient) Run() {
	go c.writePump()
	go c.readPump()
}

// Deliver queues one notification for the write pump. A client that cannot
// keep up is reported as undeliverable rather than blocking the engine.
func (c *WSClient) Deliver(ctx context.Context, n models.Notification) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return errors.New("hub: websocket client closed")
	}
	select {
	case c.send <- n:
		return nil
	default:
		return errors.New("hub: websocket client send buffer full")
	}
}

// Close shuts the connection down once; safe to call from either pump or
// from the hub when the client is replaced.
func (c *WSClient) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	c.conn.Close()
}

func (c *WSClient) readPump() {
	defer func() {
		c.hub.Unregister(c)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("websocket read error for %s: %v", c.userID, err)
			}
			return
		}

		var frame wsFrame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("dropping malformed frame from %s: %v", c.userID, err)
			continue
		}
		if frame.Text == "" {
			continue
		}

		cmd := engine.ParseText(c.userID, frame.Text)
		if err := c.engine.Handle(context.Background(), cmd); err != nil {
			log.Printf("command from %s failed: %v", c.userID, err)
		}
	}
}

func (c *WSClient) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case n, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(n); err != nil {
				log.Printf("websocket write error for %s: %v", c.userID, err)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
