package pg

import (
	"database/sql"

	"github.com/radbot/gateway/internal/store"
)

// PGReminderStore implements store.ReminderStore backed by Postgres.
type PGReminderStore struct {
	db *sql.DB
}

func NewPGReminderStore(db *sql.DB) *PGReminderStore {
	return &PGReminderStore{db: db}
}

func (s *PGReminderStore) ListPendingReminders() ([]store.ReminderRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, fire_at, prompt, target_agent, delivered, notify_topic, notify_title, created_at
		FROM reminders WHERE delivered = false ORDER BY fire_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ReminderRecord
	for rows.Next() {
		var rec store.ReminderRecord
		if err := rows.Scan(&rec.ID, &rec.FireAt, &rec.Prompt, &rec.TargetAgent,
			&rec.Delivered, &rec.NotifyTopic, &rec.NotifyTitle, &rec.CreatedAt); err != nil {
			continue
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *PGReminderStore) SaveReminder(rec store.ReminderRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, fire_at, prompt, target_agent, delivered, notify_topic, notify_title, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			fire_at = EXCLUDED.fire_at,
			prompt = EXCLUDED.prompt,
			target_agent = EXCLUDED.target_agent,
			notify_topic = EXCLUDED.notify_topic,
			notify_title = EXCLUDED.notify_title`,
		rec.ID, rec.FireAt, rec.Prompt, rec.TargetAgent, rec.Delivered,
		rec.NotifyTopic, rec.NotifyTitle, rec.CreatedAt,
	)
	return err
}

func (s *PGReminderStore) DeleteReminder(id string) error {
	_, err := s.db.Exec(`DELETE FROM reminders WHERE id = $1`, id)
	return err
}

func (s *PGReminderStore) MarkDelivered(id string) error {
	_, err := s.db.Exec(`UPDATE reminders SET delivered = true WHERE id = $1`, id)
	return err
}
