package session

import (
	"sync"
	"time"
)

// RootAgent is the default current_agent for a freshly created session.
const RootAgent = "beto"

// Session holds one conversation's ordered event log and small state bag.
// Exclusively owned by Manager: events are added only through
// Manager.Append, and callers read the log and state through the methods
// below, each of which takes the per-session mutex itself.
type Session struct {
	ID         string
	UserID     string
	CreatedAt  time.Time
	LastActive time.Time

	mu           sync.Mutex
	events       []Event
	currentAgent string
	state        map[string]string
}

func newSession(id, userID string) *Session {
	now := time.Now()
	return &Session{
		ID:           id,
		UserID:       userID,
		CreatedAt:    now,
		LastActive:   now,
		currentAgent: RootAgent,
		state:        make(map[string]string),
	}
}

// CurrentAgent returns the session's active agent name.
func (s *Session) CurrentAgent() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentAgent
}

// setCurrentAgentLocked advances the active agent on a successful transfer.
// Must be called with s.mu held by the caller's append path.
func (s *Session) setCurrentAgentLocked(agent string) {
	s.currentAgent = agent
}

// SetCurrentAgent seeds the starting agent for a brand-new session.
// Used only by synthesized-session creation (scheduler/reminder/webhook
// invocations that target a specific agent directly); an in-progress
// conversation changes agent exclusively through a successful
// transfer_to_agent, never this method, so it never produces an
// AgentTransfer event.
func (s *Session) SetCurrentAgent(agent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currentAgent = agent
}

// Events returns a copy of the full event log in append order.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// EventsSince returns events appended after the event with id lastID
// (exclusive). If lastID is empty or not found, all events are returned.
func (s *Session) EventsSince(lastID string) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if lastID == "" {
		out := make([]Event, len(s.events))
		copy(out, s.events)
		return out
	}
	for i, e := range s.events {
		if e.ID == lastID {
			out := make([]Event, len(s.events)-i-1)
			copy(out, s.events[i+1:])
			return out
		}
	}
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}

// Tail returns the last n events (or fewer if the log is shorter).
func (s *Session) Tail(n int) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n <= 0 || n >= len(s.events) {
		out := make([]Event, len(s.events))
		copy(out, s.events)
		return out
	}
	start := len(s.events) - n
	out := make([]Event, n)
	copy(out, s.events[start:])
	return out
}

// SetState sets a key in the session's small state bag (used for axel's
// result:<task_id> slots and similar scratch values).
func (s *Session) SetState(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state[key] = value
}

// GetState reads a key from the state bag.
func (s *Session) GetState(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state[key]
	return v, ok
}

// StateSnapshot returns a copy of the full state map.
func (s *Session) StateSnapshot() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.state))
	for k, v := range s.state {
		out[k] = v
	}
	return out
}
