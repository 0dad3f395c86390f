package scheduler

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/radbot/gateway/internal/invoker"
	"github.com/radbot/gateway/internal/notify"
	"github.com/radbot/gateway/internal/runner"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/store"
)

type fakeRunner struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeRunner) RunTurn(ctx context.Context, sessionID, userText string) (*runner.TurnResult, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return &runner.TurnResult{Content: "fired: " + userText}, nil
}

// memStore is a minimal in-memory store.ScheduledTaskStore for exercising
// the scan loop without a database.
type memStore struct {
	mu    sync.Mutex
	tasks map[string]store.ScheduledTaskRecord
}

func newMemStore() *memStore { return &memStore{tasks: make(map[string]store.ScheduledTaskRecord)} }

func (m *memStore) ListScheduledTasks() ([]store.ScheduledTaskRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]store.ScheduledTaskRecord, 0, len(m.tasks))
	for _, t := range m.tasks {
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) SaveScheduledTask(rec store.ScheduledTaskRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks[rec.ID] = rec
	return nil
}

func (m *memStore) DeleteScheduledTask(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

func (m *memStore) TryMarkInFlight(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.InFlight {
		return false, nil
	}
	t.InFlight = true
	m.tasks[id] = t
	return true, nil
}

func (m *memStore) FinishRun(id string, lastRun, nextRun time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok {
		return nil
	}
	t.InFlight = false
	t.LastRun = &lastRun
	t.NextRun = &nextRun
	m.tasks[id] = t
	return nil
}

func TestScheduler_FireDueTaskInvokesAgentAndNotifies(t *testing.T) {
	var gotTitle, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTitle = r.Header.Get("Title")
		buf := make([]byte, 1024)
		n, _ := r.Body.Read(buf)
		gotBody = string(buf[:n])
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := newMemStore()
	st.tasks["t1"] = store.ScheduledTaskRecord{
		ID: "t1", Name: "daily digest", CronExpression: "* * * * *",
		Prompt: "summarize today", TargetAgent: "beto", Enabled: true,
		NotifyTopic: "digests", CreatedAt: time.Now(),
	}

	sm := session.NewManager(nil, slog.Default())
	fr := &fakeRunner{}
	inv := &invoker.Invoker{Sessions: sm, Runner: fr}
	sink := notify.NewSink(srv.URL)

	sched := New(st, inv, sink, slog.Default())
	sched.reload()

	// Force the task due now regardless of cron alignment so the test is
	// deterministic without waiting on real wall-clock minute boundaries.
	sched.mu.Lock()
	sched.tasks["t1"].NextRun = time.Now().Add(-time.Second)
	sched.mu.Unlock()

	sched.fire(context.Background(), sched.tasks["t1"])

	if fr.calls != 1 {
		t.Fatalf("expected 1 invocation, got %d", fr.calls)
	}
	if gotTitle != "RadBot: daily digest" {
		t.Errorf("notify title = %q", gotTitle)
	}
	if gotBody != "fired: summarize today" {
		t.Errorf("notify body = %q", gotBody)
	}

	recs, _ := st.ListScheduledTasks()
	if recs[0].InFlight {
		t.Error("expected in_flight cleared after fire")
	}
	if recs[0].LastRun == nil {
		t.Error("expected last_run set after fire")
	}
}

func TestScheduler_SkipsTaskAlreadyInFlight(t *testing.T) {
	st := newMemStore()
	st.tasks["t1"] = store.ScheduledTaskRecord{ID: "t1", Enabled: true, InFlight: true, CronExpression: "* * * * *"}

	sm := session.NewManager(nil, slog.Default())
	fr := &fakeRunner{}
	inv := &invoker.Invoker{Sessions: sm, Runner: fr}

	sched := New(st, inv, nil, slog.Default())
	sched.fire(context.Background(), &Task{ID: "t1", CronExpression: "* * * * *", NextRun: time.Now().Add(-time.Second)})

	if fr.calls != 0 {
		t.Errorf("expected fire to be skipped for an in-flight task, got %d calls", fr.calls)
	}
}
