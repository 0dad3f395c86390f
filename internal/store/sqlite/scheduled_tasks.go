package sqlite

import (
	"database/sql"
	"time"

	"github.com/radbot/gateway/internal/store"
)

// ScheduledTaskStore implements store.ScheduledTaskStore over sqlite.
// TryMarkInFlight enforces at-most-one-in-flight the same way the Postgres
// tier does: the UPDATE only matches a row currently reading in_flight=0,
// so SetMaxOpenConns(1) on the shared *sql.DB plus this conditional write
// is enough to serialize two overlapping fires of the same task id within
// one process.
type ScheduledTaskStore struct {
	db *sql.DB
}

func NewScheduledTaskStore(db *sql.DB) *ScheduledTaskStore {
	return &ScheduledTaskStore{db: db}
}

func (s *ScheduledTaskStore) ListScheduledTasks() ([]store.ScheduledTaskRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, name, cron_expression, prompt, target_agent, enabled, in_flight,
		       notify_topic, notify_title, last_run, next_run, created_at
		FROM scheduled_tasks ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []store.ScheduledTaskRecord
	for rows.Next() {
		var rec store.ScheduledTaskRecord
		var lastRun, nextRun sql.NullTime
		var notifyTopic, notifyTitle sql.NullString
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.CronExpression, &rec.Prompt,
			&rec.TargetAgent, &rec.Enabled, &rec.InFlight, &notifyTopic,
			&notifyTitle, &lastRun, &nextRun, &rec.CreatedAt); err != nil {
			continue
		}
		rec.NotifyTopic = notifyTopic.String
		rec.NotifyTitle = notifyTitle.String
		if lastRun.Valid {
			rec.LastRun = &lastRun.Time
		}
		if nextRun.Valid {
			rec.NextRun = &nextRun.Time
		}
		out = append(out, rec)
	}
	return out, nil
}

func (s *ScheduledTaskStore) SaveScheduledTask(rec store.ScheduledTaskRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO scheduled_tasks (id, name, cron_expression, prompt, target_agent,
			enabled, in_flight, notify_topic, notify_title, last_run, next_run, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			cron_expression = excluded.cron_expression,
			prompt = excluded.prompt,
			target_agent = excluded.target_agent,
			enabled = excluded.enabled,
			notify_topic = excluded.notify_topic,
			notify_title = excluded.notify_title,
			next_run = excluded.next_run`,
		rec.ID, rec.Name, rec.CronExpression, rec.Prompt, rec.TargetAgent,
		rec.Enabled, rec.InFlight, rec.NotifyTopic, rec.NotifyTitle,
		rec.LastRun, rec.NextRun, rec.CreatedAt,
	)
	return err
}

func (s *ScheduledTaskStore) DeleteScheduledTask(id string) error {
	_, err := s.db.Exec(`DELETE FROM scheduled_tasks WHERE id = ?`, id)
	return err
}

func (s *ScheduledTaskStore) TryMarkInFlight(id string) (bool, error) {
	res, err := s.db.Exec(`UPDATE scheduled_tasks SET in_flight = 1 WHERE id = ? AND in_flight = 0`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *ScheduledTaskStore) FinishRun(id string, lastRun, nextRun time.Time) error {
	_, err := s.db.Exec(`
		UPDATE scheduled_tasks SET in_flight = 0, last_run = ?, next_run = ? WHERE id = ?`,
		lastRun, nextRun, id,
	)
	return err
}
