package eventbus

import (
	"strings"
	"testing"

	"github.com/radbot/gateway/internal/session"
)

func TestHub_PublishReachesSubscribersInOrder(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe("s1", "c1")
	defer unsub()

	e1 := session.NewUserMessage("s1", "hello")
	e2 := session.NewModelResponse("s1", "beto", "hi there", true, false)
	h.Publish(e1)
	h.Publish(e2)

	got1 := <-ch
	got2 := <-ch
	if got1.ID != e1.ID || got2.ID != e2.ID {
		t.Fatalf("events arrived out of order: %q then %q", got1.ID, got2.ID)
	}
}

func TestHub_PublishScopedToSession(t *testing.T) {
	h := NewHub()
	chA, unsubA := h.Subscribe("a", "c1")
	defer unsubA()
	chB, unsubB := h.Subscribe("b", "c2")
	defer unsubB()

	h.Publish(session.NewUserMessage("a", "for a"))

	select {
	case e := <-chA:
		if e.Text != "for a" {
			t.Errorf("text = %q", e.Text)
		}
	default:
		t.Fatal("subscriber a got nothing")
	}

	select {
	case e := <-chB:
		t.Fatalf("subscriber b should not have received %+v", e)
	default:
	}
}

func TestHub_UnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub()
	ch, unsub := h.Subscribe("s1", "c1")
	unsub()

	h.Publish(session.NewUserMessage("s1", "after unsub"))

	if _, ok := <-ch; ok {
		t.Fatal("expected channel to be closed after unsubscribe")
	}
}

func TestTruncate_LeavesShortTextUntouched(t *testing.T) {
	e := session.NewUserMessage("s1", "short")
	out := Truncate(e)
	if out.Text != "short" {
		t.Errorf("text = %q", out.Text)
	}
}

func TestTruncate_MarksOversizeResultWithoutMutatingOriginal(t *testing.T) {
	big := strings.Repeat("x", 200*1024)
	e := session.NewToolResponse("s1", "search", "call-1", big, "")

	out := Truncate(e)

	gotResult, ok := out.Result.(string)
	if !ok {
		t.Fatalf("Result is not a string: %T", out.Result)
	}
	if !strings.Contains(gotResult, "[Message truncated due to size constraints. Original length: 204800 characters]") {
		t.Errorf("missing truncation marker: %q", gotResult[len(gotResult)-120:])
	}
	if origResult, _ := e.Result.(string); len(origResult) != 200*1024 {
		t.Errorf("original event was mutated: len=%d", len(origResult))
	}
}

func TestHub_FullSubscriberIsDroppedSilently(t *testing.T) {
	h := NewHub()
	ch, _ := h.Subscribe("s1", "c1")

	for i := 0; i < 100; i++ {
		h.Publish(session.NewUserMessage("s1", "fill"))
	}

	if got := h.Subscribers("s1"); got != 0 {
		t.Errorf("expected the overwhelmed subscriber to be dropped, got %d remaining", got)
	}

	for range ch {
	}
}
