package wsapi

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/radbot/gateway/internal/eventbus"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/store"
)

const writeWait = 10 * time.Second

// Client drives one WebSocket connection for one session: it subscribes to
// the session's event stream and relays frames out, and reads incoming
// chat/heartbeat/history/sync requests in.
type Client struct {
	id        string
	sessionID string
	conn      *websocket.Conn
	server    *Server
	send      chan ServerMessage

	closeOnce sync.Once
}

func newClient(conn *websocket.Conn, sessionID string, s *Server) *Client {
	return &Client{
		id:        store.GenNewID(),
		sessionID: sessionID,
		conn:      conn,
		server:    s,
		send:      make(chan ServerMessage, 32),
	}
}

// Run subscribes to the session's events and blocks reading client frames
// until the connection closes or ctx is done.
func (c *Client) Run(ctx context.Context) {
	events, unsub := c.server.hub.Subscribe(c.sessionID, c.id)
	defer unsub()

	done := make(chan struct{})
	defer close(done)
	go c.writePump(events, done)

	c.readLoop(ctx)
}

func (c *Client) writePump(events <-chan session.Event, done <-chan struct{}) {
	for {
		select {
		case e, ok := <-events:
			if !ok {
				// The hub dropped this subscriber (its buffer filled).
				// Close the connection so readLoop unblocks too.
				c.Close()
				return
			}
			c.write(ServerMessage{Type: "events", Content: []session.Event{e}})
		case msg := <-c.send:
			c.write(msg)
		case <-done:
			return
		}
	}
}

// write enforces the frame size ceiling before handing the frame to
// gorilla/websocket; per-field truncation already applied by the hub keeps
// individual events well under this, so a drop here only fires for an
// unusually large batch (e.g. a big history/sync response).
func (c *Client) write(msg ServerMessage) {
	if data, err := json.Marshal(msg); err == nil && len(data) > eventbus.FrameSizeCeiling {
		c.server.log().Warn("wsapi: dropping oversize frame", "session_id", c.sessionID, "bytes", len(data))
		return
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteJSON(msg); err != nil {
		c.Close()
	}
}

func (c *Client) readLoop(ctx context.Context) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var cm ClientMessage
		if err := json.Unmarshal(data, &cm); err != nil {
			c.trySend(ServerMessage{Type: "status", Content: StatusError("bad_message")})
			continue
		}
		c.handle(ctx, cm)
	}
}

// trySend queues msg for the write pump without ever blocking the read
// loop; if the buffer is full the frame is dropped, same policy as the
// hub's treatment of a subscriber that stops keeping up.
func (c *Client) trySend(msg ServerMessage) {
	select {
	case c.send <- msg:
	default:
	}
}

func (c *Client) handle(ctx context.Context, cm ClientMessage) {
	switch cm.Type {
	case "heartbeat":
		c.trySend(ServerMessage{Type: "heartbeat"})
	case "message":
		c.handleTurn(ctx, cm.Message)
	case "history_request":
		c.handleHistory(cm.Limit)
	case "sync_request":
		c.handleSync(cm.LastMessageID)
	default:
		c.trySend(ServerMessage{Type: "status", Content: StatusError("unknown_type: " + cm.Type)})
	}
}

func (c *Client) handleTurn(ctx context.Context, text string) {
	c.trySend(ServerMessage{Type: "status", Content: StatusThinking})
	if _, err := c.server.runner.RunTurn(ctx, c.sessionID, text); err != nil {
		c.trySend(ServerMessage{Type: "status", Content: StatusError(err.Error())})
		return
	}
	c.trySend(ServerMessage{Type: "status", Content: StatusReady})
}

func (c *Client) handleHistory(limit int) {
	s, ok := c.server.sessions.Get(c.sessionID)
	if !ok {
		c.trySend(ServerMessage{Type: "status", Content: StatusError("unknown_session")})
		return
	}
	c.trySend(ServerMessage{Type: "history", Messages: s.Tail(limit)})
}

func (c *Client) handleSync(lastID string) {
	s, ok := c.server.sessions.Get(c.sessionID)
	if !ok {
		c.trySend(ServerMessage{Type: "status", Content: StatusError("unknown_session")})
		return
	}
	c.trySend(ServerMessage{Type: "sync_response", Messages: s.EventsSince(lastID)})
}

// Close closes the underlying connection; safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		c.conn.Close()
	})
}
