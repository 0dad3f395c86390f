// Package session implements the per-session conversation log: an
// append-only, totally ordered sequence of Events plus small key/value
// state, durably mirrored to a SessionStore and held in memory for the
// lifetime of the process.
package session

import (
	"time"

	"github.com/radbot/gateway/internal/store"
)

// EventKind tags the variant carried by an Event.
type EventKind string

const (
	KindUserMessage   EventKind = "user_message"
	KindModelResponse EventKind = "model_response"
	KindToolCall      EventKind = "tool_call"
	KindToolResponse  EventKind = "tool_response"
	KindAgentTransfer EventKind = "agent_transfer"
	KindSystem        EventKind = "system"
)

// System event kinds (Event.SystemKind).
const (
	SystemReset = "reset"
	SystemError = "error"
	SystemInfo  = "info"
)

// Tool error codes surfaced via ToolResponse.Error.
const (
	ToolErrorUnknown         = "Unknown"
	ToolErrorDisabled        = "Disabled"
	ToolErrorTimeout         = "Timeout"
	ToolErrorPermissionDenied = "PermissionDenied"
	ToolErrorBadArgs         = "BadArgs"
	ToolErrorTransferDenied  = "TransferDenied"
)

func toolErrorUpstream(detail string) string { return "Upstream: " + detail }

// ToolErrorUpstream formats an upstream tool failure detail into the
// canonical ToolResponse.Error string.
func ToolErrorUpstream(detail string) string { return toolErrorUpstream(detail) }

// Event is a single entry in a session's ordered log. Only the fields
// relevant to Kind are populated; this mirrors the tagged-variant shape
// from the wire protocol as a flat struct, which keeps JSON encoding and
// storage simple at the cost of a few always-empty fields per variant.
type Event struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
	Kind      EventKind `json:"kind"`

	// UserMessage
	Text string `json:"text,omitempty"`

	// ModelResponse
	AuthorAgent string `json:"author_agent,omitempty"`
	IsFinal     bool   `json:"is_final,omitempty"`
	Thought     bool   `json:"thought,omitempty"`

	// ToolCall / ToolResponse
	ToolName string         `json:"tool_name,omitempty"`
	CallID   string         `json:"call_id,omitempty"` // correlates a ToolResponse to its ToolCall and to the provider's tool_call_id
	Args     map[string]any `json:"args,omitempty"`
	Result   any            `json:"result,omitempty"`
	Error    string         `json:"error,omitempty"`

	// AgentTransfer
	FromAgent string `json:"from_agent,omitempty"`
	ToAgent   string `json:"to_agent,omitempty"`

	// System
	SystemKind string `json:"system_kind,omitempty"`
}

// newEvent stamps the common envelope fields.
func newEvent(sessionID string, kind EventKind) Event {
	return Event{
		ID:        store.GenNewID(),
		SessionID: sessionID,
		Timestamp: time.Now(),
		Kind:      kind,
	}
}

// NewUserMessage builds a UserMessage event.
func NewUserMessage(sessionID, text string) Event {
	e := newEvent(sessionID, KindUserMessage)
	e.Text = text
	return e
}

// NewModelResponse builds a ModelResponse event.
func NewModelResponse(sessionID, author, text string, isFinal, thought bool) Event {
	e := newEvent(sessionID, KindModelResponse)
	e.AuthorAgent = author
	e.Text = text
	e.IsFinal = isFinal
	e.Thought = thought
	return e
}

// NewToolCall builds a ToolCall event. callID is the provider-assigned tool
// call id (not a fresh session id) so the matching ToolResponse and the
// provider-facing message can both reference it.
func NewToolCall(sessionID, author, toolName, callID string, args map[string]any) Event {
	e := newEvent(sessionID, KindToolCall)
	e.AuthorAgent = author
	e.ToolName = toolName
	e.CallID = callID
	e.Args = args
	return e
}

// NewToolResponse builds a ToolResponse event. Exactly one of result/errMsg
// should be set.
func NewToolResponse(sessionID, toolName, callID string, result any, errMsg string) Event {
	e := newEvent(sessionID, KindToolResponse)
	e.ToolName = toolName
	e.CallID = callID
	e.Result = result
	e.Error = errMsg
	return e
}

// NewAgentTransfer builds an AgentTransfer event.
func NewAgentTransfer(sessionID, from, to string) Event {
	e := newEvent(sessionID, KindAgentTransfer)
	e.FromAgent = from
	e.ToAgent = to
	return e
}

// NewSystem builds a System event.
func NewSystem(sessionID, kind, text string) Event {
	e := newEvent(sessionID, KindSystem)
	e.SystemKind = kind
	e.Text = text
	return e
}

// Redacted returns a copy of events with thought=true ModelResponse parts
// removed, per the redaction rule applied before sending history to the LLM
// or to external clients.
func Redacted(events []Event) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if e.Kind == KindModelResponse && e.Thought {
			continue
		}
		out = append(out, e)
	}
	return out
}
