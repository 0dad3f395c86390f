package sqlite

import (
	"database/sql"

	"github.com/radbot/gateway/internal/store"
)

// WebhookDefinitionStore implements store.WebhookDefinitionStore over sqlite.
type WebhookDefinitionStore struct {
	db *sql.DB
}

func NewWebhookDefinitionStore(db *sql.DB) *WebhookDefinitionStore {
	return &WebhookDefinitionStore{db: db}
}

func (s *WebhookDefinitionStore) GetWebhookDefinitionBySlug(slug string) (store.WebhookDefinitionRecord, bool, error) {
	var rec store.WebhookDefinitionRecord
	var secret sql.NullString
	err := s.db.QueryRow(`
		SELECT id, slug, target_agent, prompt_template, secret, fire_and_forget, created_at
		FROM webhook_definitions WHERE slug = ?`, slug,
	).Scan(&rec.ID, &rec.Slug, &rec.TargetAgent, &rec.PromptTemplate, &secret, &rec.FireAndForget, &rec.CreatedAt)
	if err == sql.ErrNoRows {
		return store.WebhookDefinitionRecord{}, false, nil
	}
	if err != nil {
		return store.WebhookDefinitionRecord{}, false, err
	}
	rec.Secret = secret.String
	return rec, true, nil
}

func (s *WebhookDefinitionStore) ListWebhookDefinitions() ([]store.WebhookDefinitionRecord, error) {
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
		var secret sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Slug, &rec.TargetAgent, &rec.PromptTemplate,
			&secret, &rec.FireAndForget, &rec.CreatedAt); err != nil {
			continue
		}
		rec.Secret = secret.String
		out = append(out, rec)
	}
	return out, nil
}

func (s *WebhookDefinitionStore) SaveWebhookDefinition(rec store.WebhookDefinitionRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO webhook_definitions (id, slug, target_agent, prompt_template, secret, fire_and_forget, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			slug = excluded.slug,
			target_agent = excluded.target_agent,
			prompt_template = excluded.prompt_template,
			secret = excluded.secret,
			fire_and_forget = excluded.fire_and_forget`,
		rec.ID, rec.Slug, rec.TargetAgent, rec.PromptTemplate, rec.Secret, rec.FireAndForget, rec.CreatedAt,
	)
	return err
}

func (s *WebhookDefinitionStore) DeleteWebhookDefinition(id string) error {
	_, err := s.db.Exec(`DELETE FROM webhook_definitions WHERE id = ?`, id)
	return err
}
