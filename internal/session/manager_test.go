package session

import "testing"

type recordingPublisher struct {
	events []Event
}

func (p *recordingPublisher) Publish(e Event) {
	p.events = append(p.events, e)
}

func TestManager_CreateStartsOnRootAgent(t *testing.T) {
	m := NewManager(nil, nil)
	s := m.Create("u1")
	if got := s.CurrentAgent(); got != RootAgent {
		t.Errorf("current agent = %q, want %q", got, RootAgent)
	}
	if len(s.Events()) != 0 {
		t.Errorf("expected a fresh session to have no events")
	}
}

func TestManager_AppendAdvancesCurrentAgentOnTransfer(t *testing.T) {
	m := NewManager(nil, nil)
	s := m.Create("u1")

	if _, err := m.Append(s.ID, NewAgentTransfer(s.ID, RootAgent, "scout")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if got := s.CurrentAgent(); got != "scout" {
		t.Errorf("current agent = %q, want scout", got)
	}
}

func TestManager_AppendForwardsToPublisherAfterStoring(t *testing.T) {
	m := NewManager(nil, nil)
	pub := &recordingPublisher{}
	m.SetPublisher(pub)
	s := m.Create("u1")

	e := NewUserMessage(s.ID, "hello")
	if _, err := m.Append(s.ID, e); err != nil {
		t.Fatalf("append: %v", err)
	}

	if len(pub.events) != 1 || pub.events[0].Text != "hello" {
		t.Fatalf("publisher did not receive the appended event: %+v", pub.events)
	}
	if got := s.Events(); len(got) != 1 || got[0].Text != "hello" {
		t.Fatalf("session log missing the event: %+v", got)
	}
}

func TestManager_ResetReturnsToRootAgentRegardlessOfHistory(t *testing.T) {
	m := NewManager(nil, nil)
	s := m.Create("u1")
	if _, err := m.Append(s.ID, NewAgentTransfer(s.ID, RootAgent, "scout")); err != nil {
		t.Fatalf("append: %v", err)
	}
	if _, err := m.Append(s.ID, NewUserMessage(s.ID, "some context")); err != nil {
		t.Fatalf("append: %v", err)
	}

	if err := m.Reset(s.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if got := s.CurrentAgent(); got != RootAgent {
		t.Errorf("current agent after reset = %q, want %q", got, RootAgent)
	}
	if len(s.Events()) != 0 {
		t.Errorf("expected events to be cleared after reset")
	}
}

func TestSession_EventsSinceExcludesUpToAndIncludingGivenID(t *testing.T) {
	m := NewManager(nil, nil)
	s := m.Create("u1")
	e1, _ := m.Append(s.ID, NewUserMessage(s.ID, "one"))
	_, _ = m.Append(s.ID, NewUserMessage(s.ID, "two"))
	_, _ = m.Append(s.ID, NewUserMessage(s.ID, "three"))

	rest := s.EventsSince(e1.ID)
	if len(rest) != 2 || rest[0].Text != "two" || rest[1].Text != "three" {
		t.Fatalf("unexpected tail: %+v", rest)
	}
}

func TestSession_TailReturnsLastNEvents(t *testing.T) {
	m := NewManager(nil, nil)
	s := m.Create("u1")
	for _, text := range []string{"one", "two", "three"} {
		if _, err := m.Append(s.ID, NewUserMessage(s.ID, text)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	tail := s.Tail(2)
	if len(tail) != 2 || tail[0].Text != "two" || tail[1].Text != "three" {
		t.Fatalf("unexpected tail: %+v", tail)
	}
}
