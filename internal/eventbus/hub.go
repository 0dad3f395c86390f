// Package eventbus fans out a session's event log to its live WebSocket
// subscribers, in append order, with per-subscriber size truncation and
// silent removal of subscribers that stop keeping up.
package eventbus

import (
	"fmt"
	"sync"

	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/telemetry"
)

const (
	// FrameSizeCeiling is the largest WebSocket frame a wsapi.Client sends;
	// the client drops larger frames. The Hub itself only truncates text.
	FrameSizeCeiling = 1 << 20 // ~1 MiB

	textTruncateAt = 100 * 1024 // ~100 KiB
)

type subscriber struct {
	id string
	ch chan session.Event
}

// Hub multiplexes session events to WebSocket subscribers. One Hub serves
// every session in the process; subscribers are scoped by session id so an
// event from one session never reaches a subscriber of another.
type Hub struct {
	mu   sync.Mutex
	subs map[string][]*subscriber
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[string][]*subscriber)}
}

// Subscribe registers subscriberID for sessionID's event stream and returns
// a receive channel plus an unsubscribe func. The channel is buffered so a
// slow reader doesn't block Publish; a subscriber whose buffer fills is
// treated as dead and removed.
func (h *Hub) Subscribe(sessionID, subscriberID string) (<-chan session.Event, func()) {
	sub := &subscriber{id: subscriberID, ch: make(chan session.Event, 64)}

	h.mu.Lock()
	h.subs[sessionID] = append(h.subs[sessionID], sub)
	h.mu.Unlock()
	telemetry.WSSubscriberConnected()

	return sub.ch, func() { h.remove(sessionID, sub) }
}

func (h *Hub) remove(sessionID string, sub *subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	list := h.subs[sessionID]
	for i, s := range list {
		if s == sub {
			h.subs[sessionID] = append(list[:i:i], list[i+1:]...)
			close(sub.ch)
			telemetry.WSSubscriberGone()
			break
		}
	}
	if len(h.subs[sessionID]) == 0 {
		delete(h.subs, sessionID)
	}
}

// Publish delivers e to every current subscriber of e.SessionID, in
// subscription order, handing each its own truncated copy. e itself is
// never mutated: the stored event stays byte-identical to what the Runner
// appended, only what a subscriber receives is shortened.
func (h *Hub) Publish(e session.Event) {
	h.mu.Lock()
	subs := append([]*subscriber(nil), h.subs[e.SessionID]...)
	h.mu.Unlock()

	for _, sub := range subs {
		select {
		case sub.ch <- Truncate(e):
		default:
			h.remove(e.SessionID, sub)
		}
	}
}

// Subscribers reports how many live subscribers a session currently has.
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

// Truncate returns a copy of e with any text payload over textTruncateAt
// shortened and suffixed with the size marker. Both Text (model/user
// message bodies) and a string Result (large tool output, e.g. scenario 6's
// 200 KiB tool response) are subject to truncation.
func Truncate(e session.Event) session.Event {
	out := e
	out.Text = truncateString(e.Text)
	if s, ok := e.Result.(string); ok {
		out.Result = truncateString(s)
	}
	return out
}

func truncateString(s string) string {
	if len(s) <= textTruncateAt {
		return s
	}
	return s[:textTruncateAt] + fmt.Sprintf("[Message truncated due to size constraints. Original length: %d characters]", len(s))
}
