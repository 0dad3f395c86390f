package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/adhocore/gronx"

	"github.com/radbot/gateway/internal/invoker"
	"github.com/radbot/gateway/internal/notify"
	"github.com/radbot/gateway/internal/store"
	"github.com/radbot/gateway/internal/telemetry"
)

// Scheduler owns the single scanning loop over the durable task table. Hot
// reload is implemented by re-listing the backing store every scanInterval
// rather than diffing; at this cadence and table size the full relist is
// cheap and avoids a second notification path for row changes.
type Scheduler struct {
	Store   store.ScheduledTaskStore
	Invoker *invoker.Invoker
	Notify  *notify.Sink
	Log     *slog.Logger

	mu    sync.Mutex
	tasks map[string]*Task
}

// New constructs a Scheduler. Call Run to start its scan loop.
func New(st store.ScheduledTaskStore, inv *invoker.Invoker, sink *notify.Sink, log *slog.Logger) *Scheduler {
	if log == nil {
		log = slog.Default()
	}
	return &Scheduler{Store: st, Invoker: inv, Notify: sink, Log: log, tasks: make(map[string]*Task)}
}

// Run blocks the calling goroutine, scanning for due tasks until ctx is
// cancelled. A failing task's fire never blocks another task's: each fire
// runs on its own goroutine so a slow agent turn can't stall the scan.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()

	s.reload()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reload()
			s.fireDue(ctx)
		}
	}
}

// reload re-lists the backing store and recomputes NextRun for any task
// whose NextRun hasn't been computed yet (new or just-enabled rows).
func (s *Scheduler) reload() {
	recs, err := s.Store.ListScheduledTasks()
	if err != nil {
		s.Log.Warn("scheduler: list failed", "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(recs))
	for _, rec := range recs {
		seen[rec.ID] = true
		if !rec.Enabled {
			delete(s.tasks, rec.ID)
			continue
		}
		existing, known := s.tasks[rec.ID]
		if known && existing.CronExpression == rec.CronExpression {
			existing.Name = rec.Name
			existing.Prompt = rec.Prompt
			existing.TargetAgent = rec.TargetAgent
			existing.NotifyTopic = rec.NotifyTopic
			existing.NotifyTitle = rec.NotifyTitle
			existing.LastRun = rec.LastRun
			continue
		}

		next, err := nextFireAfter(rec.CronExpression, time.Now())
		if err != nil {
			s.Log.Warn("scheduler: bad cron expression", "task_id", rec.ID, "expr", rec.CronExpression, "error", err)
			continue
		}
		s.tasks[rec.ID] = &Task{
			ID: rec.ID, Name: rec.Name, CronExpression: rec.CronExpression,
			Prompt: rec.Prompt, TargetAgent: rec.TargetAgent, Enabled: rec.Enabled,
			NotifyTopic: rec.NotifyTopic, NotifyTitle: rec.NotifyTitle,
			LastRun: rec.LastRun, NextRun: next,
		}
	}
	for id := range s.tasks {
		if !seen[id] {
			delete(s.tasks, id)
		}
	}
}

func nextFireAfter(expr string, after time.Time) (time.Time, error) {
	return gronx.NextTickAfter(expr, after, false)
}

func (s *Scheduler) fireDue(ctx context.Context) {
	now := time.Now()
	s.mu.Lock()
	var due []*Task
	for _, t := range s.tasks {
		if !t.NextRun.After(now) {
			due = append(due, t)
		}
	}
	s.mu.Unlock()

	for _, t := range due {
		go s.fire(ctx, t)
	}
}

// fire implements one scan-loop tick for a single due task: claim it
// at-most-once, run a synthesized turn, notify, then reschedule.
func (s *Scheduler) fire(ctx context.Context, t *Task) {
	marked, err := s.Store.TryMarkInFlight(t.ID)
	if err != nil {
		s.Log.Warn("scheduler: mark in-flight failed", "task_id", t.ID, "error", err)
		return
	}
	if !marked {
		telemetry.ObserveSchedulerFire("skipped")
		return
	}

	sessionID := fmt.Sprintf("sched:%s", t.ID)
	text, runErr := s.Invoker.Run(ctx, sessionID, t.TargetAgent, t.Prompt)
	if runErr != nil {
		telemetry.ObserveSchedulerFire("error")
	} else {
		telemetry.ObserveSchedulerFire("ok")
	}

	if s.Notify != nil && t.NotifyTopic != "" {
		title := t.NotifyTitle
		if title == "" {
			title = t.Name
		}
		if notifyErr := s.Notify.PublishResult(ctx, t.NotifyTopic, title, text, runErr); notifyErr != nil {
			s.Log.Warn("scheduler: notify failed", "task_id", t.ID, "error", notifyErr)
		}
	}
	if runErr != nil {
		s.Log.Warn("scheduler: task fire failed", "task_id", t.ID, "error", runErr)
	}

	now := time.Now()
	next, err := nextFireAfter(t.CronExpression, now)
	if err != nil {
		s.Log.Warn("scheduler: recompute next_run failed", "task_id", t.ID, "error", err)
		next = now.Add(scanInterval)
	}
	if err := s.Store.FinishRun(t.ID, now, next); err != nil {
		s.Log.Warn("scheduler: finish run failed", "task_id", t.ID, "error", err)
	}

	s.mu.Lock()
	if cur, ok := s.tasks[t.ID]; ok {
		cur.LastRun = &now
		cur.NextRun = next
	}
	s.mu.Unlock()
}
