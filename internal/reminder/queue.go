package reminder

import (
	"container/heap"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/radbot/gateway/internal/invoker"
	"github.com/radbot/gateway/internal/notify"
	"github.com/radbot/gateway/internal/store"
)

// Queue owns the min-heap and the scan loop that delivers reminders once
// their FireAt has passed. Hot-loaded additions (Add) push
// directly onto the heap rather than waiting for a reload pass, since a
// reminder has no cron expression to re-evaluate.
type Queue struct {
	Store   store.ReminderStore
	Invoker *invoker.Invoker
	Notify  *notify.Sink
	Log     *slog.Logger

	mu   sync.Mutex
	heap reminderHeap
}

// New constructs a Queue, seeding its heap from every undelivered reminder
// in the backing store.
func New(st store.ReminderStore, inv *invoker.Invoker, sink *notify.Sink, log *slog.Logger) (*Queue, error) {
	if log == nil {
		log = slog.Default()
	}
	q := &Queue{Store: st, Invoker: inv, Notify: sink, Log: log}
	recs, err := st.ListPendingReminders()
	if err != nil {
		return nil, fmt.Errorf("reminder: initial load: %w", err)
	}
	for _, rec := range recs {
		heap.Push(&q.heap, &Reminder{
			ID: rec.ID, FireAt: rec.FireAt, Prompt: rec.Prompt,
			TargetAgent: rec.TargetAgent, NotifyTopic: rec.NotifyTopic, NotifyTitle: rec.NotifyTitle,
		})
	}
	return q, nil
}

// Add pushes a newly created reminder onto the heap without waiting for
// the next scan tick.
func (q *Queue) Add(r *Reminder) {
	q.mu.Lock()
	defer q.mu.Unlock()
	heap.Push(&q.heap, r)
}

// Run blocks the calling goroutine, delivering reminders as they come due
// until ctx is cancelled.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(scanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.deliverDue(ctx)
		}
	}
}

func (q *Queue) deliverDue(ctx context.Context) {
	now := time.Now()
	var due []*Reminder
	q.mu.Lock()
	for q.heap.Len() > 0 && !q.heap[0].FireAt.After(now) {
		due = append(due, heap.Pop(&q.heap).(*Reminder))
	}
	q.mu.Unlock()

	for _, r := range due {
		go q.deliver(ctx, r)
	}
}

// deliver runs one reminder's synthesized turn, notifies, then marks the
// row delivered. One-shot: there is no reschedule step.
func (q *Queue) deliver(ctx context.Context, r *Reminder) {
	sessionID := fmt.Sprintf("reminder:%s", r.ID)
	text, runErr := q.Invoker.Run(ctx, sessionID, r.TargetAgent, r.Prompt)

	if q.Notify != nil && r.NotifyTopic != "" {
		title := r.NotifyTitle
		if title == "" {
			title = "reminder"
		}
		if notifyErr := q.Notify.PublishResult(ctx, r.NotifyTopic, title, text, runErr); notifyErr != nil {
			q.Log.Warn("reminder: notify failed", "reminder_id", r.ID, "error", notifyErr)
		}
	}
	if runErr != nil {
		q.Log.Warn("reminder: fire failed", "reminder_id", r.ID, "error", runErr)
	}
	if err := q.Store.MarkDelivered(r.ID); err != nil {
		q.Log.Warn("reminder: mark delivered failed", "reminder_id", r.ID, "error", err)
	}
}
