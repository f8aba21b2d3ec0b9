package hub

import (
	"encoding/json"
	"log"
	"time"

	"livecart/internal/store"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

// Client is one live websocket connection known to the hub. It exists
// from connect to disconnect and is never persisted; a reconnecting
// browser gets a fresh Client and a fresh snapshot.
type Client struct {
	conn     *websocket.Conn
	send     chan []byte
	hub      *Hub
	username string
	addr     string
	closed   bool
}

// NewClient wraps an upgraded connection. conn may be nil in tests, in
// which case the hub skips starting the pumps.
func NewClient(conn *websocket.Conn, h *Hub, username, addr string, sendBuffer int) *Client {
	if sendBuffer <= 0 {
		sendBuffer = 256
	}
	return &Client{
		conn:     conn,
		send:     make(chan []byte, sendBuffer),
		hub:      h,
		username: username,
		addr:     addr,
	}
}

// Frames returns the channel of outbound frames queued for this client.
func (c *Client) Frames() <-chan []byte {
	return c.send
}

// Username returns the session username this connection authenticated as.
func (c *Client) Username() string {
	return c.username
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure) {
				log.Printf("hub: read error from %s: %v", c.addr, err)
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch decodes one inbound frame and routes it to the hub. Unknown
// events and malformed payloads are dropped with a log line; they never
// take the connection down.
func (c *Client) dispatch(raw []byte) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("hub: invalid frame from %s: %v", c.addr, err)
		return
	}

	switch env.Event {
	case EventUpdateProducts:
		var entry store.CatalogEntry
		if err := json.Unmarshal(env.Data, &entry); err != nil {
			log.Printf("hub: invalid catalog entry from %s: %v", c.addr, err)
			return
		}
		c.hub.SubmitCatalogUpdate(c, entry)

	case EventUpdateChat:
		var payload ChatPayload
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			log.Printf("hub: invalid chat payload from %s: %v", c.addr, err)
			return
		}
		if payload.Author == "" {
			payload.Author = c.username
		}
		c.hub.SubmitChatMessage(c, payload)

	default:
		log.Printf("hub: unknown event %q from %s", env.Event, c.addr)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				log.Printf("hub: write error to %s: %v", c.addr, err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
