package sqlite

import (
	"database/sql"

	"github.com/radbot/gateway/internal/store"
)

// ReminderStore implements store.ReminderStore over sqlite.
type ReminderStore struct {
	db *sql.DB
}

func NewReminderStore(db *sql.DB) *ReminderStore {
	return &ReminderStore{db: db}
}

func (s *ReminderStore) ListPendingReminders() ([]store.ReminderRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, fire_at, prompt, target_agent, delivered, notify_topic, notify_title, created_at
		FROM reminders WHERE delivered = 0 ORDER BY fire_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ReminderRecord
	for rows.Next() {
		var rec store.ReminderRecord
		var notifyTopic, notifyTitle sql.NullString
		if err := rows.Scan(&rec.ID, &rec.FireAt, &rec.Prompt, &rec.TargetAgent,
			&rec.Delivered, &notifyTopic, &notifyTitle, &rec.CreatedAt); err != nil {
			continue
		}
		rec.NotifyTopic = notifyTopic.String
		rec.NotifyTitle = notifyTitle.String
		out = append(out, rec)
	}
	return out, nil
}

func (s *ReminderStore) SaveReminder(rec store.ReminderRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO reminders (id, fire_at, prompt, target_agent, delivered, notify_topic, notify_title, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			fire_at = excluded.fire_at,
			prompt = excluded.prompt,
			target_agent = excluded.target_agent,
			notify_topic = excluded.notify_topic,
			notify_title = excluded.notify_title`,
		rec.ID, rec.FireAt, rec.Prompt, rec.TargetAgent, rec.Delivered,
		rec.NotifyTopic, rec.NotifyTitle, rec.CreatedAt,
	)
	return err
}

func (s *ReminderStore) DeleteReminder(id string) error {
	_, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	return err
}

func (s *ReminderStore) MarkDelivered(id string) error {
	_, err := s.db.Exec(`UPDATE reminders SET delivered = 1 WHERE id = ?`, id)
	return err
}
