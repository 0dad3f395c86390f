package store

import (
	"context"

	"github.com/google/uuid"
)

// Context keys for request-scoped identity propagation. Unexported type
// avoids collisions with values set by other packages.
type ctxKey int

const (
	ctxKeyAgentID ctxKey = iota
	ctxKeyUserID
	ctxKeyAgentType
	ctxKeySenderID
)

// WithAgentID attaches the active agent's UUID to ctx.
func WithAgentID(ctx context.Context, agentID uuid.UUID) context.Context {
	return context.WithValue(ctx, ctxKeyAgentID, agentID)
}

// AgentIDFromContext returns the agent UUID stored on ctx, if any.
func AgentIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	v, ok := ctx.Value(ctxKeyAgentID).(uuid.UUID)
	return v, ok
}

// WithUserID attaches the external user id (e.g. the session owner) to ctx.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ctxKeyUserID, userID)
}

// UserIDFromContext returns the user id stored on ctx, or "" if unset.
func UserIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyUserID).(string)
	return v
}

// WithAgentType attaches the agent's type/name (e.g. "beto", "scout") to ctx.
func WithAgentType(ctx context.Context, agentType string) context.Context {
	return context.WithValue(ctx, ctxKeyAgentType, agentType)
}

// AgentTypeFromContext returns the agent type stored on ctx, or "" if unset.
func AgentTypeFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeyAgentType).(string)
	return v
}

// WithSenderID attaches the original message sender id (channel-specific) to ctx.
// Carried through transfers and subagent spawns so tools can attribute actions
// to the human who triggered the turn even after several hops.
func WithSenderID(ctx context.Context, senderID string) context.Context {
	return context.WithValue(ctx, ctxKeySenderID, senderID)
}

// SenderIDFromContext returns the sender id stored on ctx, or "" if unset.
func SenderIDFromContext(ctx context.Context) string {
	v, _ := ctx.Value(ctxKeySenderID).(string)
	return v
}

// GenNewID returns a fresh random UUID as a string, used for event ids,
// trace ids and synthesized session ids.
func GenNewID() string {
	return uuid.NewString()
}
