package pg

import (
	"database/sql"
	"time"

	"github.com/radbot/gateway/internal/store"
)

// PGScheduledTaskStore implements store.ScheduledTaskStore backed by
// Postgres. TryMarkInFlight is the single statement enforcing
// at-most-one-in-flight: the UPDATE's WHERE clause only matches a row that
// currently reads in_flight=false, so two concurrent scan loops racing the
// same row can never both win.
type PGScheduledTaskStore struct {
	db *sql.DB
}

func NewPGScheduledTaskStore(db *sql.DB) *PGScheduledTaskStore {
	return &PGScheduledTaskStore{db: db}
}

func (s *PGScheduledTaskStore) ListScheduledTasks() ([]store.ScheduledTaskRecord, error) {
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
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.CronExpression, &rec.Prompt,
			&rec.TargetAgent, &rec.Enabled, &rec.InFlight, &rec.NotifyTopic,
			&rec.NotifyTitle, &lastRun, &nextRun, &rec.CreatedAt); err != nil {
			continue
		}
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

func (s *PGScheduledTaskStore) SaveScheduledTask(rec store.ScheduledTaskRecord) error {
	_, err := s.db.Exec(`
		INSERT INTO scheduled_tasks (id, name, cron_expression, prompt, target_agent,
			enabled, in_flight, notify_topic, notify_title, last_run, next_run, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			cron_expression = EXCLUDED.cron_expression,
			prompt = EXCLUDED.prompt,
			target_agent = EXCLUDED.target_agent,
			enabled = EXCLUDED.enabled,
			notify_topic = EXCLUDED.notify_topic,
			notify_title = EXCLUDED.notify_title,
			next_run = EXCLUDED.next_run`,
		rec.ID, rec.Name, rec.CronExpression, rec.Prompt, rec.TargetAgent,
		rec.Enabled, rec.InFlight, rec.NotifyTopic, rec.NotifyTitle,
		rec.LastRun, rec.NextRun, rec.CreatedAt,
	)
	return err
}

func (s *PGScheduledTaskStore) DeleteScheduledTask(id string) error {
	_, err := s.db.Exec(`DELETE FROM scheduled_tasks WHERE id = $1`, id)
	return err
}

func (s *PGScheduledTaskStore) TryMarkInFlight(id string) (bool, error) {
	res, err := s.db.Exec(`UPDATE scheduled_tasks SET in_flight = true WHERE id = $1 AND in_flight = false`, id)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (s *PGScheduledTaskStore) FinishRun(id string, lastRun, nextRun time.Time) error {
	_, err := s.db.Exec(`
		UPDATE scheduled_tasks SET in_flight = false, last_run = $2, next_run = $3 WHERE id = $1`,
		id, lastRun, nextRun,
	)
	return err
}
