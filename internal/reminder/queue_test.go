package reminder

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/radbot/gateway/internal/invoker"
	"github.com/radbot/gateway/internal/runner"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/store"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
}

func (f *fakeRunner) RunTurn(ctx context.Context, sessionID, userText string) (*runner.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, userText)
	return &runner.TurnResult{Content: "ok: " + userText}, nil
}

type memStore struct {
	mu        sync.Mutex
	pending   map[string]store.ReminderRecord
	delivered map[string]bool
}

func newMemStore() *memStore {
	return &memStore{pending: make(map[string]store.ReminderRecord), delivered: make(map[string]bool)}
}

func (m *memStore) ListPendingReminders() ([]store.ReminderRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.ReminderRecord, 0, len(m.pending))
	for _, r := range m.pending {
		out = append(out, r)
	}
	return out, nil
}

func (m *memStore) SaveReminder(rec store.ReminderRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending[rec.ID] = rec
	return nil
}

func (m *memStore) DeleteReminder(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
	return nil
}

func (m *memStore) MarkDelivered(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, id)
	m.delivered[id] = true
	return nil
}

func TestQueue_DeliversDueReminderAndMarksDelivered(t *testing.T) {
	st := newMemStore()
	sm := session.NewManager(nil, slog.Default())
	fr := &fakeRunner{}
	inv := &invoker.Invoker{Sessions: sm, Runner: fr}

	q, err := New(st, inv, nil, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q.Add(&Reminder{ID: "r1", FireAt: time.Now().Add(-time.Minute), Prompt: "take the cake out", TargetAgent: "beto"})

	q.deliverDue(context.Background())
	time.Sleep(20 * time.Millisecond) // let the delivery goroutine finish

	fr.mu.Lock()
	defer fr.mu.Unlock()
	if len(fr.calls) != 1 || fr.calls[0] != "take the cake out" {
		t.Fatalf("unexpected calls: %v", fr.calls)
	}
	if !st.delivered["r1"] {
		t.Error("expected reminder marked delivered")
	}
}

func TestQueue_DoesNotDeliverReminderBeforeItsFireAt(t *testing.T) {
	st := newMemStore()
	sm := session.NewManager(nil, slog.Default())
	fr := &fakeRunner{}
	inv := &invoker.Invoker{Sessions: sm, Runner: fr}

	q, err := New(st, inv, nil, slog.Default())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	q.Add(&Reminder{ID: "future", FireAt: time.Now().Add(time.Hour), Prompt: "later", TargetAgent: "beto"})

	q.deliverDue(context.Background())
	time.Sleep(10 * time.Millisecond)

	fr.mu.Lock()
	defer fr.mu.Unlock()
	if len(fr.calls) != 0 {
		t.Errorf("expected no delivery yet, got calls: %v", fr.calls)
	}
}
