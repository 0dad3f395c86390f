package wsapi

import "github.com/radbot/gateway/internal/session"

// ClientMessage is a client->server WebSocket frame.
type ClientMessage struct {
	Type          string `json:"type"`
	Message       string `json:"message,omitempty"`
	Limit         int    `json:"limit,omitempty"`
	LastMessageID string `json:"lastMessageId,omitempty"`
}

// ServerMessage is a server->client WebSocket frame.
type ServerMessage struct {
	Type     string          `json:"type"`
	Content  interface{}     `json:"content,omitempty"`
	Messages []session.Event `json:"messages,omitempty"`
}

// Status values carried in a "status" frame's Content.
const (
	StatusReady    = "ready"
	StatusThinking = "thinking"
	StatusReset    = "reset"
)

// StatusError formats a status value for a failed turn.
func StatusError(detail string) string { return "error: " + detail }
