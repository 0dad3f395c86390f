package store

import "database/sql"

// Stores is the top-level container for the storage backends the
// orchestration engine actually depends on. A standalone deployment wires
// an embedded sqlite database (internal/store/sqlite); a managed deployment
// wires Postgres (internal/store/pg). Both tiers implement every store
// interface, so Scheduler/Reminders/Webhooks keep their durability
// guarantees regardless of deployment mode. DB is the shared handle behind
// every field above, kept here so a caller can build a credential.Store
// against the same connection rather than opening a second one. MCP server
// definitions are config-only (config.ToolsConfig.McpServers) in every
// deployment mode — there is no separate MCP store.
type Stores struct {
	DB        *sql.DB
	Sessions  SessionStore
	Scheduler ScheduledTaskStore
	Reminders ReminderStore
	Webhooks  WebhookDefinitionStore
}

// StoreConfig configures construction of a Postgres-backed Stores.
type StoreConfig struct {
	PostgresDSN       string
	EncryptionKey     string
	SessionStorageDir string
}
