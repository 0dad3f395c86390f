package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/radbot/gateway/internal/invoker"
	"github.com/radbot/gateway/internal/runner"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/store"
)

type fakeRunner struct {
	mu   sync.Mutex
	last string
}

func (f *fakeRunner) RunTurn(ctx context.Context, sessionID, userText string) (*runner.TurnResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.last = userText
	return &runner.TurnResult{Content: "handled: " + userText}, nil
}

type memStore struct {
	defs map[string]store.WebhookDefinitionRecord
}

func (m *memStore) GetWebhookDefinitionBySlug(slug string) (store.WebhookDefinitionRecord, bool, error) {
	for _, d := range m.defs {
		if d.Slug == slug {
			return d, true, nil
		}
	}
	return store.WebhookDefinitionRecord{}, false, nil
}
func (m *memStore) ListWebhookDefinitions() ([]store.WebhookDefinitionRecord, error) {
	out := make([]store.WebhookDefinitionRecord, 0, len(m.defs))
	for _, d := range m.defs {
		out = append(out, d)
	}
	return out, nil
}
func (m *memStore) SaveWebhookDefinition(rec store.WebhookDefinitionRecord) error {
	m.defs[rec.ID] = rec
	return nil
}
func (m *memStore) DeleteWebhookDefinition(id string) error {
	delete(m.defs, id)
	return nil
}

func newTestDispatcher(def store.WebhookDefinitionRecord) (*Dispatcher, *fakeRunner) {
	st := &memStore{defs: map[string]store.WebhookDefinitionRecord{def.ID: def}}
	sm := session.NewManager(nil, slog.Default())
	fr := &fakeRunner{}
	inv := &invoker.Invoker{Sessions: sm, Runner: fr}
	return New(st, inv, slog.Default()), fr
}

func TestDispatcher_TemplatesBodyAndRunsTurn(t *testing.T) {
	d, fr := newTestDispatcher(store.WebhookDefinitionRecord{
		ID: "wh1", Slug: "deploy", TargetAgent: "beto",
		PromptTemplate: "deploy requested by {actor.name} for {repo}",
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/deploy", strings.NewReader(`{"actor":{"name":"ana"},"repo":"gateway"}`))
	rw := httptest.NewRecorder()
	d.Handle(rw, req, "deploy")

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	if fr.last != "deploy requested by ana for gateway" {
		t.Errorf("prompt = %q", fr.last)
	}
	if !strings.Contains(rw.Body.String(), "handled: deploy requested by ana for gateway") {
		t.Errorf("response body = %q", rw.Body.String())
	}
}

func TestDispatcher_RejectsBadSignature(t *testing.T) {
	d, fr := newTestDispatcher(store.WebhookDefinitionRecord{
		ID: "wh1", Slug: "secure", TargetAgent: "beto",
		PromptTemplate: "{msg}", Secret: "topsecret",
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/secure", strings.NewReader(`{"msg":"hi"}`))
	req.Header.Set("X-Signature", "sha256=deadbeef")
	rw := httptest.NewRecorder()
	d.Handle(rw, req, "secure")

	if rw.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rw.Code)
	}
	if fr.last != "" {
		t.Error("expected no invocation on signature mismatch")
	}
}

func TestDispatcher_AcceptsValidSignature(t *testing.T) {
	secret := "topsecret"
	body := `{"msg":"hi"}`
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(body))
	sig := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	d, fr := newTestDispatcher(store.WebhookDefinitionRecord{
		ID: "wh1", Slug: "secure", TargetAgent: "beto",
		PromptTemplate: "{msg}", Secret: secret,
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/secure", strings.NewReader(body))
	req.Header.Set("X-Signature", sig)
	rw := httptest.NewRecorder()
	d.Handle(rw, req, "secure")

	if rw.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rw.Code)
	}
	if fr.last != "hi" {
		t.Errorf("prompt = %q", fr.last)
	}
}

func TestDispatcher_FireAndForgetReturns202Immediately(t *testing.T) {
	d, fr := newTestDispatcher(store.WebhookDefinitionRecord{
		ID: "wh1", Slug: "async", TargetAgent: "beto",
		PromptTemplate: "{msg}", FireAndForget: true,
	})

	req := httptest.NewRequest(http.MethodPost, "/webhooks/async", strings.NewReader(`{"msg":"go"}`))
	rw := httptest.NewRecorder()
	d.Handle(rw, req, "async")

	if rw.Code != http.StatusAccepted {
		t.Fatalf("status = %d, want 202", rw.Code)
	}

	deadline := time.Now().Add(200 * time.Millisecond)
	for fr.last == "" && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fr.last != "go" {
		t.Errorf("expected background invocation to complete, last = %q", fr.last)
	}
}

func TestDispatcher_UnknownSlugReturns404(t *testing.T) {
	d, _ := newTestDispatcher(store.WebhookDefinitionRecord{ID: "wh1", Slug: "known"})
	req := httptest.NewRequest(http.MethodPost, "/webhooks/nope", strings.NewReader(`{}`))
	rw := httptest.NewRecorder()
	d.Handle(rw, req, "nope")
	if rw.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rw.Code)
	}
}
