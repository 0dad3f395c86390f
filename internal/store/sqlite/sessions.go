package sqlite

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/radbot/gateway/internal/store"
)

// SessionStore implements store.SessionStore over sqlite. Same shape as
// internal/store/pg's PGSessionStore, adapted to ?-style placeholders;
// upserts use sqlite's ON CONFLICT(id) DO UPDATE form.
type SessionStore struct {
	db *sql.DB
}

func NewSessionStore(db *sql.DB) *SessionStore {
	return &SessionStore{db: db}
}

func (s *SessionStore) SaveSession(rec store.SessionRecord) error {
	stateJSON, err := json.Marshal(rec.State)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO sessions (id, user_id, current_agent, state, created_at, last_active)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			user_id = excluded.user_id,
			current_agent = excluded.current_agent,
			state = excluded.state,
			last_active = excluded.last_active`,
		rec.ID, rec.UserID, rec.CurrentAgent, stateJSON, rec.CreatedAt, rec.LastActive,
	)
	return err
}

func (s *SessionStore) LoadSession(id string) (store.SessionRecord, bool, error) {
	var rec store.SessionRecord
	var stateJSON []byte
	err := s.db.QueryRow(
		`SELECT id, user_id, current_agent, state, created_at, last_active FROM sessions WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.UserID, &rec.CurrentAgent, &stateJSON, &rec.CreatedAt, &rec.LastActive)
	if err == sql.ErrNoRows {
		return store.SessionRecord{}, false, nil
	}
	if err != nil {
		return store.SessionRecord{}, false, err
	}
	rec.State = make(map[string]string)
	json.Unmarshal(stateJSON, &rec.State)
	return rec, true, nil
}

func (s *SessionStore) AppendEvent(rec store.EventRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO session_events (id, session_id, kind, timestamp, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO NOTHING`,
		rec.ID, rec.SessionID, rec.Kind, rec.Timestamp, rec.Payload,
	)
	return err
}

func (s *SessionStore) LoadEvents(sessionID string) ([]store.EventRecord, error) {
	rows, err := s.db.Query(
		`SELECT id, session_id, kind, timestamp, payload FROM session_events
		 WHERE session_id = ? ORDER BY timestamp ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.EventRecord
	for rows.Next() {
		var rec store.EventRecord
		if err := rows.Scan(&rec.ID, &rec.SessionID, &rec.Kind, &rec.Timestamp, &rec.Payload); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *SessionStore) DeleteSession(id string) error {
	if _, err := s.db.Exec(`DELETE FROM session_events WHERE session_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SessionStore) ListSessions() ([]store.SessionSummary, error) {
	rows, err := s.db.Query(`
		SELECT s.id, s.user_id, s.created_at, s.last_active,
		       (SELECT COUNT(*) FROM session_events e WHERE e.session_id = s.id)
		FROM sessions s ORDER BY s.last_active DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.SessionSummary
	for rows.Next() {
		var sum store.SessionSummary
		var createdAt, lastActive time.Time
		if err := rows.Scan(&sum.ID, &sum.UserID, &createdAt, &lastActive, &sum.EventCount); err != nil {
			continue
		}
		sum.CreatedAt = createdAt
		sum.LastActive = lastActive
		out = append(out, sum)
	}
	return out, nil
}
