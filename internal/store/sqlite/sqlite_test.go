package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/radbot/gateway/internal/store"
)

func newTestStores(t *testing.T) *store.Stores {
	t.Helper()
	dir := t.TempDir()
	st, err := NewStores(filepath.Join(dir, "gateway.db"))
	if err != nil {
		t.Fatalf("NewStores: %v", err)
	}
	t.Cleanup(func() { st.DB.Close() })
	return st
}

func TestSessionStore_SaveLoadRoundTrip(t *testing.T) {
	st := newTestStores(t)
	now := time.Now().Truncate(time.Second)

	rec := store.SessionRecord{
		ID: "sess-1", UserID: "u1", CurrentAgent: "beto",
		State: map[string]string{"topic": "billing"},
		CreatedAt: now, LastActive: now,
	}
	if err := st.Sessions.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	got, ok, err := st.Sessions.LoadSession("sess-1")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if !ok {
		t.Fatal("expected session to be found")
	}
	if got.CurrentAgent != "beto" || got.State["topic"] != "billing" {
		t.Errorf("unexpected round trip: %+v", got)
	}

	if _, ok, err := st.Sessions.LoadSession("missing"); err != nil || ok {
		t.Errorf("expected miss for unknown id, got ok=%v err=%v", ok, err)
	}
}

func TestSessionStore_AppendAndListEvents(t *testing.T) {
	st := newTestStores(t)
	now := time.Now()
	rec := store.SessionRecord{ID: "sess-1", UserID: "u1", CurrentAgent: "beto", CreatedAt: now, LastActive: now}
	if err := st.Sessions.SaveSession(rec); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}

	for i, kind := range []string{"user_message", "assistant_message"} {
		ev := store.EventRecord{
			ID: "ev-" + kind, SessionID: "sess-1", Kind: kind,
			Timestamp: now.Add(time.Duration(i) * time.Second), Payload: []byte(`{}`),
		}
		if err := st.Sessions.AppendEvent(ev); err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
	}

	events, err := st.Sessions.LoadEvents("sess-1")
	if err != nil {
		t.Fatalf("LoadEvents: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Kind != "user_message" || events[1].Kind != "assistant_message" {
		t.Errorf("events out of order: %+v", events)
	}
}

func TestSessionStore_DeleteSessionCascadesEvents(t *testing.T) {
	st := newTestStores(t)
	now := time.Now()
	st.Sessions.SaveSession(store.SessionRecord{ID: "sess-1", UserID: "u1", CurrentAgent: "beto", CreatedAt: now, LastActive: now})
	st.Sessions.AppendEvent(store.EventRecord{ID: "ev-1", SessionID: "sess-1", Kind: "user_message", Timestamp: now, Payload: []byte(`{}`)})

	if err := st.Sessions.DeleteSession("sess-1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, ok, _ := st.Sessions.LoadSession("sess-1"); ok {
		t.Error("expected session gone after delete")
	}
	events, _ := st.Sessions.LoadEvents("sess-1")
	if len(events) != 0 {
		t.Errorf("expected events gone after delete, got %d", len(events))
	}
}

func TestScheduledTaskStore_TryMarkInFlightIsExclusive(t *testing.T) {
	st := newTestStores(t)
	rec := store.ScheduledTaskRecord{
		ID: "t1", Name: "digest", CronExpression: "* * * * *",
		Prompt: "summarize", TargetAgent: "beto", Enabled: true, CreatedAt: time.Now(),
	}
	if err := st.Scheduler.SaveScheduledTask(rec); err != nil {
		t.Fatalf("SaveScheduledTask: %v", err)
	}

	ok, err := st.Scheduler.TryMarkInFlight("t1")
	if err != nil || !ok {
		t.Fatalf("expected first claim to succeed, ok=%v err=%v", ok, err)
	}

	ok, err = st.Scheduler.TryMarkInFlight("t1")
	if err != nil {
		t.Fatalf("TryMarkInFlight: %v", err)
	}
	if ok {
		t.Error("expected second concurrent claim to fail while in flight")
	}

	now := time.Now()
	if err := st.Scheduler.FinishRun("t1", now, now.Add(time.Minute)); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	ok, err = st.Scheduler.TryMarkInFlight("t1")
	if err != nil || !ok {
		t.Fatalf("expected claim to succeed again after FinishRun, ok=%v err=%v", ok, err)
	}
}

func TestWebhookDefinitionStore_LookupBySlug(t *testing.T) {
	st := newTestStores(t)
	def := store.WebhookDefinitionRecord{
		ID: "wh1", Slug: "deploy-done", TargetAgent: "beto",
		PromptTemplate: "deployment {{.status}}", Secret: "shh", CreatedAt: time.Now(),
	}
	if err := st.Webhooks.SaveWebhookDefinition(def); err != nil {
		t.Fatalf("SaveWebhookDefinition: %v", err)
	}

	got, ok, err := st.Webhooks.GetWebhookDefinitionBySlug("deploy-done")
	if err != nil {
		t.Fatalf("GetWebhookDefinitionBySlug: %v", err)
	}
	if !ok || got.TargetAgent != "beto" {
		t.Errorf("unexpected lookup result: ok=%v rec=%+v", ok, got)
	}

	if _, ok, err := st.Webhooks.GetWebhookDefinitionBySlug("missing"); err != nil || ok {
		t.Errorf("expected miss for unknown slug, got ok=%v err=%v", ok, err)
	}
}

func TestReminderStore_ListPendingExcludesDelivered(t *testing.T) {
	st := newTestStores(t)
	now := time.Now()
	st.Reminders.SaveReminder(store.ReminderRecord{ID: "r1", FireAt: now, Prompt: "ping", TargetAgent: "beto", CreatedAt: now})
	st.Reminders.SaveReminder(store.ReminderRecord{ID: "r2", FireAt: now, Prompt: "pong", TargetAgent: "beto", CreatedAt: now})

	if err := st.Reminders.MarkDelivered("r1"); err != nil {
		t.Fatalf("MarkDelivered: %v", err)
	}

	pending, err := st.Reminders.ListPendingReminders()
	if err != nil {
		t.Fatalf("ListPendingReminders: %v", err)
	}
	if len(pending) != 1 || pending[0].ID != "r2" {
		t.Errorf("expected only r2 pending, got %+v", pending)
	}
}
