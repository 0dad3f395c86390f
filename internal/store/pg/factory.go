package pg

import (
	"fmt"

	"github.com/radbot/gateway/internal/store"
)

// NewPGStores creates the Postgres-backed stores for a managed deployment.
func NewPGStores(cfg store.StoreConfig) (*store.Stores, error) {
	db, err := OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	return &store.Stores{
		DB:        db,
		Sessions:  NewPGSessionStore(db),
		Scheduler: NewPGScheduledTaskStore(db),
		Reminders: NewPGReminderStore(db),
		Webhooks:  NewPGWebhookDefinitionStore(db),
	}, nil
}
