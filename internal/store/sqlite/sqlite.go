// Package sqlite implements every durable store interface in internal/store
// over an embedded modernc.org/sqlite database, used in standalone (non
// -Postgres) deployments so the Scheduler/Reminder Queue/Webhook Dispatcher
// keep their durability guarantees (at-most-one-in-flight scheduled task
// fires in particular) even without a Postgres instance to talk to. Schema
// is created in-process on open
// (CREATE TABLE IF NOT EXISTS) rather than through golang-migrate, since a
// single-file embedded database has no separate deployment step to migrate
// ahead of — the schema travels with the binary.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/radbot/gateway/internal/store"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL,
	current_agent TEXT NOT NULL,
	state         TEXT NOT NULL DEFAULT '{}',
	created_at    DATETIME NOT NULL,
	last_active   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS session_events (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	kind       TEXT NOT NULL,
	timestamp  DATETIME NOT NULL,
	payload    BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_events_session ON session_events(session_id, timestamp);

CREATE TABLE IF NOT EXISTS scheduled_tasks (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	cron_expression TEXT NOT NULL,
	prompt          TEXT NOT NULL,
	target_agent    TEXT NOT NULL,
	enabled         INTEGER NOT NULL DEFAULT 1,
	in_flight       INTEGER NOT NULL DEFAULT 0,
	notify_topic    TEXT,
	notify_title    TEXT,
	last_run        DATETIME,
	next_run        DATETIME,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS reminders (
	id           TEXT PRIMARY KEY,
	fire_at      DATETIME NOT NULL,
	prompt       TEXT NOT NULL,
	target_agent TEXT NOT NULL,
	delivered    INTEGER NOT NULL DEFAULT 0,
	notify_topic TEXT,
	notify_title TEXT,
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS webhook_definitions (
	id              TEXT PRIMARY KEY,
	slug            TEXT NOT NULL UNIQUE,
	target_agent    TEXT NOT NULL,
	prompt_template TEXT NOT NULL,
	secret          TEXT,
	fire_and_forget INTEGER NOT NULL DEFAULT 0,
	created_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS credentials (
	name            TEXT PRIMARY KEY,
	encrypted_value TEXT NOT NULL,
	salt            TEXT NOT NULL,
	type            TEXT NOT NULL,
	description     TEXT,
	created_at      DATETIME NOT NULL,
	updated_at      DATETIME NOT NULL
);
`

// OpenDB opens (creating if absent) a sqlite database at path and applies
// the embedded schema. path's parent directory is created if missing.
func OpenDB(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("sqlite: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single embedded file + WAL readers/writers: cap to one open
	// connection so concurrent writers never hit SQLITE_BUSY under load.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA journal_mode=WAL;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable WAL: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys=ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: apply schema: %w", err)
	}
	return db, nil
}

// NewStores opens path and returns every store.Stores backend wired against
// it, giving a standalone deployment the same durability guarantees (the
// at-most-one-in-flight scheduled task fire in particular) a managed/
// Postgres deployment gets.
func NewStores(path string) (*store.Stores, error) {
	db, err := OpenDB(path)
	if err != nil {
		return nil, err
	}
	return &store.Stores{
		DB:        db,
		Sessions:  NewSessionStore(db),
		Scheduler: NewScheduledTaskStore(db),
		Reminders: NewReminderStore(db),
		Webhooks:  NewWebhookDefinitionStore(db),
	}, nil
}
