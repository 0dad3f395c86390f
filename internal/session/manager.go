package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/radbot/gateway/internal/store"
)

// Publisher forwards appended events to live subscribers (the WS fanout
// hub). Declared here rather than imported from eventbus so session stays
// free of a dependency on its consumers.
type Publisher interface {
	Publish(Event)
}

// Manager is the single source of truth for conversation ordering.
// Session lookup/creation is guarded by a read-write lock; ordering within
// a session is guarded by that session's own mutex, so turns on different
// sessions never contend on the global lock for longer than a map lookup.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	backing  store.SessionStore
	pub      Publisher
	log      *slog.Logger
}

// SetPublisher wires a fanout target. Every event Append stores is handed
// to pub afterward, so a client calling history_request on reconnect always
// sees what the backing store already has (Design Notes: store-before-fanout).
func (m *Manager) SetPublisher(pub Publisher) {
	m.pub = pub
}

// NewManager constructs a Manager backed by the given durable store.
// backing may be nil, in which case sessions live only in memory.
func NewManager(backing store.SessionStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		backing:  backing,
		log:      log,
	}
}

// Create starts a brand new session for userID.
func (m *Manager) Create(userID string) *Session {
	id := store.GenNewID()
	s := newSession(id, userID)

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()

	if m.backing != nil {
		if err := m.backing.SaveSession(toRecord(s)); err != nil {
			m.log.Warn("session persist failed", "session_id", id, "error", err)
		}
	}
	return s
}

// Get returns an existing session, rehydrating from the backing store on
// first access after a process restart if necessary.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		return s, true
	}
	return m.rehydrate(id)
}

// GetOrCreate returns an existing session or creates one for userID with
// the given id, used by synthesized sessions (cron/reminder/webhook) that
// want a deterministic id.
func (m *Manager) GetOrCreate(id, userID string) *Session {
	if s, ok := m.Get(id); ok {
		return s
	}
	s := newSession(id, userID)
	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	if m.backing != nil {
		if err := m.backing.SaveSession(toRecord(s)); err != nil {
			m.log.Warn("session persist failed", "session_id", id, "error", err)
		}
	}
	return s
}

// GetOrCreateTargeting is GetOrCreate for a synthesized invocation
// (scheduler/reminder/webhook) that must start a brand-new session on a
// specific agent rather than the default root. If the session already
// exists, its current agent is left untouched — only first creation seeds it.
func (m *Manager) GetOrCreateTargeting(id, userID, agentName string) *Session {
	if s, ok := m.Get(id); ok {
		return s
	}
	s := m.GetOrCreate(id, userID)
	if agentName != "" {
		s.SetCurrentAgent(agentName)
	}
	return s
}

func (m *Manager) rehydrate(id string) (*Session, bool) {
	if m.backing == nil {
		return nil, false
	}
	rec, found, err := m.backing.LoadSession(id)
	if err != nil {
		m.log.Warn("session load failed", "session_id", id, "error", err)
		return nil, false
	}
	if !found {
		return nil, false
	}
	s := newSession(rec.ID, rec.UserID)
	s.CreatedAt = rec.CreatedAt
	s.LastActive = rec.LastActive
	s.currentAgent = rec.CurrentAgent
	if s.currentAgent == "" {
		s.currentAgent = RootAgent
	}
	for k, v := range rec.State {
		s.state[k] = v
	}

	eventRecs, err := m.backing.LoadEvents(id)
	if err != nil {
		m.log.Warn("event load failed", "session_id", id, "error", err)
	}
	for _, er := range eventRecs {
		var e Event
		if err := json.Unmarshal(er.Payload, &e); err != nil {
			continue
		}
		s.events = append(s.events, e)
	}

	m.mu.Lock()
	m.sessions[id] = s
	m.mu.Unlock()
	return s, true
}

// Append adds an event to the session's log, advancing current_agent on a
// successful AgentTransfer, and mirrors it to the backing store. This is
// the only writer of session ordering; callers never mutate Session.events
// directly.
func (m *Manager) Append(id string, e Event) (Event, error) {
	s, ok := m.Get(id)
	if !ok {
		return Event{}, fmt.Errorf("session: unknown session %q", id)
	}

	s.mu.Lock()
	s.events = append(s.events, e)
	s.LastActive = e.Timestamp
	if e.Kind == KindAgentTransfer {
		s.setCurrentAgentLocked(e.ToAgent)
	}
	s.mu.Unlock()

	if m.backing != nil {
		payload, err := json.Marshal(e)
		if err != nil {
			return e, nil
		}
		rec := store.EventRecord{
			ID:        e.ID,
			SessionID: id,
			Kind:      string(e.Kind),
			Timestamp: e.Timestamp,
			Payload:   payload,
		}
		if err := m.backing.AppendEvent(rec); err != nil {
			m.log.Warn("event persist failed", "session_id", id, "error", err)
		}
	}
	if m.pub != nil {
		m.pub.Publish(e)
	}
	return e, nil
}

// Reset clears a session's events and state, returning it to root agent.
// Per R1, the resulting observable state does not depend on prior history.
func (m *Manager) Reset(id string) error {
	s, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("session: unknown session %q", id)
	}
	s.mu.Lock()
	s.events = nil
	s.state = make(map[string]string)
	s.currentAgent = RootAgent
	s.mu.Unlock()

	if m.backing != nil {
		if err := m.backing.SaveSession(toRecord(s)); err != nil {
			m.log.Warn("session persist failed", "session_id", id, "error", err)
		}
	}
	return nil
}

// Delete removes a session from memory and the backing store.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	if m.backing != nil {
		return m.backing.DeleteSession(id)
	}
	return nil
}

// List returns lightweight summaries of all known sessions, preferring the
// live in-memory view over the backing store's list.
func (m *Manager) List() []store.SessionSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]store.SessionSummary, 0, len(m.sessions))
	for _, s := range m.sessions {
		s.mu.Lock()
		out = append(out, store.SessionSummary{
			ID:         s.ID,
			UserID:     s.UserID,
			EventCount: len(s.events),
			CreatedAt:  s.CreatedAt,
			LastActive: s.LastActive,
		})
		s.mu.Unlock()
	}
	return out
}

// Persist flushes the session's identity/state record (not its events,
// which are appended incrementally) to the backing store. Append and
// SetState do not call it; without an explicit call the row is written
// only by Create, GetOrCreate and Reset.
func (m *Manager) Persist(id string) error {
	if m.backing == nil {
		return nil
	}
	s, ok := m.Get(id)
	if !ok {
		return fmt.Errorf("session: unknown session %q", id)
	}
	return m.backing.SaveSession(toRecord(s))
}

func toRecord(s *Session) store.SessionRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := make(map[string]string, len(s.state))
	for k, v := range s.state {
		state[k] = v
	}
	return store.SessionRecord{
		ID:           s.ID,
		UserID:       s.UserID,
		CurrentAgent: s.currentAgent,
		State:        state,
		CreatedAt:    s.CreatedAt,
		LastActive:   s.LastActive,
	}
}
