// Package wsapi implements the /ws/{session_id} WebSocket surface: each
// connection subscribes to its session's event stream via the eventbus Hub
// and exchanges chat/heartbeat/history/sync frames with the client.
package wsapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/radbot/gateway/internal/eventbus"
	"github.com/radbot/gateway/internal/runner"
	"github.com/radbot/gateway/internal/session"
)

// TurnRunner is the subset of *runner.Runner a Server needs. Declared
// locally so tests can supply a fake without constructing a real Runner.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID, userText string) (*runner.TurnResult, error)
}

// Server upgrades and drives WebSocket connections for live sessions.
type Server struct {
	hub      *eventbus.Hub
	sessions *session.Manager
	runner   TurnRunner
	upgrader websocket.Upgrader
	Log      *slog.Logger
}

// NewServer builds a Server. allowedOrigins mirrors the gateway's CORS
// whitelist; an empty list allows all origins (dev mode / non-browser
// clients).
func NewServer(hub *eventbus.Hub, sessions *session.Manager, r TurnRunner, allowedOrigins []string) *Server {
	s := &Server{hub: hub, sessions: sessions, runner: r}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin(allowedOrigins),
	}
	return s
}

func (s *Server) checkOrigin(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		if len(allowed) == 0 {
			return true
		}
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, a := range allowed {
			if origin == a || a == "*" {
				return true
			}
		}
		s.log().Warn("wsapi: origin rejected", "origin", origin)
		return false
	}
}

func (s *Server) log() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}

// HandleWebSocket upgrades the request and drives the connection for
// sessionID until it closes. The caller (the chi router in internal/httpapi)
// extracts sessionID from the URL path.
func (s *Server) HandleWebSocket(w http.ResponseWriter, r *http.Request, sessionID string) {
	if _, ok := s.sessions.Get(sessionID); !ok {
		http.Error(w, "unknown session", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log().Error("wsapi: upgrade failed", "error", err)
		return
	}

	c := newClient(conn, sessionID, s)
	defer c.Close()
	c.Run(r.Context())
}
