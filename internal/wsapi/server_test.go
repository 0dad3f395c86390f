package wsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/radbot/gateway/internal/eventbus"
	"github.com/radbot/gateway/internal/runner"
	"github.com/radbot/gateway/internal/session"
)

// fakeRunner appends a canned ModelResponse to the session in place of
// actually calling an LLM, so tests can assert on the WS frames a real turn
// would produce without wiring a provider.
type fakeRunner struct {
	sessions *session.Manager
	reply    string
}

func (f *fakeRunner) RunTurn(ctx context.Context, sessionID, userText string) (*runner.TurnResult, error) {
	if _, err := f.sessions.Append(sessionID, session.NewUserMessage(sessionID, userText)); err != nil {
		return nil, err
	}
	e, err := f.sessions.Append(sessionID, session.NewModelResponse(sessionID, "beto", f.reply, true, false))
	if err != nil {
		return nil, err
	}
	return &runner.TurnResult{SessionID: sessionID, Content: e.Text}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *session.Manager) {
	t.Helper()
	hub := eventbus.NewHub()
	sm := session.NewManager(nil, nil)
	sm.SetPublisher(hub)
	s := sm.Create("u1")

	fr := &fakeRunner{sessions: sm, reply: "It is 14:00 in Tokyo."}
	srv := NewServer(hub, sm, fr, nil)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		srv.HandleWebSocket(w, r, s.ID)
	})
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return ts, sm
}

func dial(t *testing.T, ts *httptest.Server) *gorillaws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := gorillaws.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	// Give the server-side handler a moment to reach hub.Subscribe before
	// the test starts publishing; the handshake itself is synchronous but
	// the goroutine that runs Client.Run is scheduled independently.
	time.Sleep(50 * time.Millisecond)
	return conn
}

func readUntilType(t *testing.T, conn *gorillaws.Conn, typ string) ServerMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for i := 0; i < 10; i++ {
		var sm ServerMessage
		if err := conn.ReadJSON(&sm); err != nil {
			t.Fatalf("read: %v", err)
		}
		if sm.Type == typ {
			return sm
		}
	}
	t.Fatalf("did not see a %q frame within 10 reads", typ)
	return ServerMessage{}
}

func TestWS_ChatTurnProducesThinkingEventsThenReady(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	if err := conn.WriteJSON(ClientMessage{Type: "message", Message: "what time is it in Tokyo?"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	thinking := readUntilType(t, conn, "status")
	if thinking.Content != StatusThinking {
		t.Errorf("first status = %v, want thinking", thinking.Content)
	}

	ready := readUntilType(t, conn, "status")
	if ready.Content != StatusReady {
		t.Errorf("final status = %v, want ready", ready.Content)
	}
}

func TestWS_HeartbeatIsEchoed(t *testing.T) {
	ts, _ := newTestServer(t)
	conn := dial(t, ts)

	if err := conn.WriteJSON(ClientMessage{Type: "heartbeat"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	hb := readUntilType(t, conn, "heartbeat")
	if hb.Type != "heartbeat" {
		t.Errorf("type = %q", hb.Type)
	}
}

func TestWS_HistoryRequestReturnsRecentEvents(t *testing.T) {
	ts, sm := newTestServer(t)
	conn := dial(t, ts)

	sessions := sm.List()
	if len(sessions) != 1 {
		t.Fatalf("expected exactly one session, got %d", len(sessions))
	}
	sessionID := sessions[0].ID
	if _, err := sm.Append(sessionID, session.NewUserMessage(sessionID, "earlier turn")); err != nil {
		t.Fatalf("seed event: %v", err)
	}

	if err := conn.WriteJSON(ClientMessage{Type: "history_request", Limit: 5}); err != nil {
		t.Fatalf("write: %v", err)
	}
	hist := readUntilType(t, conn, "history")
	if len(hist.Messages) == 0 {
		t.Fatal("expected at least one historical event")
	}
}

func TestWS_OversizeToolResultIsTruncatedInFrame(t *testing.T) {
	ts, sm := newTestServer(t)
	conn := dial(t, ts)

	sessions := sm.List()
	sessionID := sessions[0].ID
	big := strings.Repeat("y", 200*1024)
	if _, err := sm.Append(sessionID, session.NewToolResponse(sessionID, "search", "call-1", big, "")); err != nil {
		t.Fatalf("append: %v", err)
	}

	ev := readUntilType(t, conn, "events")
	payload, ok := ev.Content.([]interface{})
	if !ok || len(payload) == 0 {
		t.Fatalf("unexpected events content: %#v", ev.Content)
	}
	m, ok := payload[0].(map[string]interface{})
	if !ok {
		t.Fatalf("event is not an object: %#v", payload[0])
	}
	result, _ := m["result"].(string)
	if !strings.Contains(result, "[Message truncated due to size constraints. Original length: 204800 characters]") {
		t.Errorf("expected truncation marker in WS frame, got length %d", len(result))
	}
}
