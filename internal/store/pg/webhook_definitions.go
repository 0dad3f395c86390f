package pg

import (
	"database/sql"

	"github.com/radbot/gateway/internal/store"
)

// PGWebhookDefinitionStore implements store.WebhookDefinitionStore backed
// by Postgres.
type PGWebhookDefinitionStore struct {
	db *sql.DB
}

func NewPGWebhookDefinitionStore(db *sql.DB) *PGWebhookDefinitionStore {
	return &PGWebhookDefinitionStore{db: db}
}

func (s *PGWebhookDefinitionStore) GetWebhookDefinitionBySlug(slug string) (store.WebhookDefinitionRecord, bool, error) {
	var rec store.WebhookDefinitionRecord
	err := s.db.QueryRow(`
		SELECT id, slug, target_agent, prompt_template, secret, fire_and_forget, created_at
		FROM webhook_definitions WHERE slug = $1`, slug,
	).Scan(&rec.ID, &rec.Slug, &rec.TargetAgent, &rec.PromptTemplate, &rec.Secret, &rec.FireAndForget, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return store.WebhookDefinitionRecord{}, false, nil
	}
	if err != nil {
		return store.WebhookDefinitionRecord{}, false, err
	}
	return rec, true, nil
}

func (s *PGWebhookDefinitionStore) ListWebhookDefinitions() ([]store.WebhookDefinitionRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, slug, target_agent, prompt_template, secret, fire_and_forget, created_at
		FROM webhook_definitions ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.WebhookDefinitionRecord
	for rows.Next() {
		var rec store.WebhookDefinitionRecord
		if err := rows.Scan(&rec.ID, &rec.Slug, &rec.TargetAgent, &rec.PromptTemplate,
			&rec.Secret, &rec.FireAndForget, &rec.CreatedAt); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *PGWebhookDefinitionStore) SaveWebhookDefinition(rec store.WebhookDefinitionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO webhook_definitions (id, slug, target_agent, prompt_template, secret, fire_and_forget, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			slug = EXCLUDED.slug,
			target_agent = EXCLUDED.target_agent,
			prompt_template = EXCLUDED.prompt_template,
			secret = EXCLUDED.secret,
			fire_and_forget = EXCLUDED.fire_and_forget`,
		rec.ID, rec.Slug, rec.TargetAgent, rec.PromptTemplate, rec.Secret, rec.FireAndForget, rec.CreatedAt,
	)
	return err
}

func (s *PGWebhookDefinitionStore) DeleteWebhookDefinition(id string) error {
	_, err := s.db.Exec(`DELETE FROM webhook_definitions WHERE id = $1`, id)
	return err
}
