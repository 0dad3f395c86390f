package runner

import (
	"context"
	"log/slog"
	"testing"

	"github.com/radbot/gateway/internal/agents"
	"github.com/radbot/gateway/internal/providers"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/tools"
	"github.com/radbot/gateway/internal/toolregistry"
	"github.com/radbot/gateway/internal/transfer"
)

// scriptedProvider returns one canned response per call, in order, so a
// test can script an exact multi-turn tool-call sequence.
type scriptedProvider struct {
	responses []*providers.ChatResponse
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	resp := p.responses[p.calls]
	p.calls++
	return resp, nil
}

func (p *scriptedProvider) ChatStream(ctx context.Context, req providers.ChatRequest, onChunk func(providers.StreamChunk)) (*providers.ChatResponse, error) {
	return p.Chat(ctx, req)
}

func (p *scriptedProvider) DefaultModel() string { return "test-model" }
func (p *scriptedProvider) Name() string         { return "scripted" }

func newTestRunner(t *testing.T, provider *scriptedProvider) (*Runner, *agents.Registry, *toolregistry.Registry, *session.Manager) {
	t.Helper()
	ar := agents.NewRegistry()
	if err := ar.Register(agents.Agent{Name: agents.RootAgentName, Instruction: "You are beto."}); err != nil {
		t.Fatalf("register root: %v", err)
	}
	if err := ar.Register(agents.Agent{Name: "scout", Instruction: "You are scout, a research specialist."}); err != nil {
		t.Fatalf("register scout: %v", err)
	}

	tr := toolregistry.NewRegistry()
	if err := tr.Register(agents.RootAgentName, transfer.ToolHandle()); err != nil {
		t.Fatalf("register transfer tool for root: %v", err)
	}
	if err := tr.Register("scout", transfer.ToolHandle()); err != nil {
		t.Fatalf("register transfer tool for scout: %v", err)
	}

	sm := session.NewManager(nil, slog.Default())
	tc := transfer.NewController(ar, sm)

	r := &Runner{
		Sessions: sm,
		Agents:   ar,
		Tools:    tr,
		Transfer: tc,
		Provider: provider,
	}
	return r, ar, tr, sm
}

func TestRunTurn_PlainResponseIsFinal(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.ChatResponse{
		{Content: "It is 14:00 in Tokyo.", FinishReason: "stop"},
	}}
	r, _, _, sm := newTestRunner(t, provider)
	s := sm.Create("u1")

	res, err := r.RunTurn(context.Background(), s.ID, "what time is it in Tokyo?")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Content != "It is 14:00 in Tokyo." {
		t.Errorf("content = %q", res.Content)
	}

	events := s.Events()
	if len(events) != 2 || events[0].Kind != session.KindUserMessage || events[1].Kind != session.KindModelResponse {
		t.Fatalf("unexpected event sequence: %+v", events)
	}
}

func TestRunTurn_TransferSwitchesAgentWithoutResendingUserMessage(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.ChatResponse{
		{
			Content:      "",
			FinishReason: "tool_calls",
			ToolCalls: []providers.ToolCall{
				{ID: "call-1", Name: agents.TransferToolName, Arguments: map[string]any{"agent_name": "scout"}},
			},
		},
		{Content: "B-trees favor point lookups; LSM-trees favor write throughput.", FinishReason: "stop"},
	}}
	r, _, _, sm := newTestRunner(t, provider)
	s := sm.Create("u1")

	res, err := r.RunTurn(context.Background(), s.ID, "research: compare B-trees and LSM-trees")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Content == "" {
		t.Fatalf("expected a final response from scout")
	}
	if got := s.CurrentAgent(); got != "scout" {
		t.Errorf("current agent = %q, want scout", got)
	}

	var sawTransfer, sawTransferResult, sawScoutResponse bool
	for _, e := range s.Events() {
		if e.Kind == session.KindAgentTransfer && e.FromAgent == agents.RootAgentName && e.ToAgent == "scout" {
			sawTransfer = true
		}
		if e.Kind == session.KindToolResponse && e.ToolName == agents.TransferToolName && e.CallID == "call-1" && e.Error == "" {
			sawTransferResult = true
		}
		if e.Kind == session.KindModelResponse && e.AuthorAgent == "scout" && e.IsFinal {
			sawScoutResponse = true
		}
	}
	if !sawTransfer {
		t.Error("expected an AgentTransfer{from=beto,to=scout} event")
	}
	if !sawTransferResult {
		t.Error("expected the transfer_to_agent call to carry a paired ToolResponse")
	}
	if !sawScoutResponse {
		t.Error("expected a final ModelResponse authored by scout")
	}
	if provider.calls != 2 {
		t.Errorf("expected exactly 2 LLM calls (beto's transfer, scout's reply), got %d", provider.calls)
	}
}

func TestRunTurn_DeniedTransferKeepsCurrentAgent(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.ChatResponse{
		{
			Content:      "",
			FinishReason: "tool_calls",
			ToolCalls: []providers.ToolCall{
				{ID: "call-1", Name: agents.TransferToolName, Arguments: map[string]any{"agent_name": "axel"}},
			},
		},
		{Content: "Never mind, here is the answer directly.", FinishReason: "stop"},
	}}
	r, _, _, sm := newTestRunner(t, provider)
	s := sm.Create("u1")

	res, err := r.RunTurn(context.Background(), s.ID, "hello")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Content != "Never mind, here is the answer directly." {
		t.Errorf("content = %q", res.Content)
	}
	if got := s.CurrentAgent(); got != agents.RootAgentName {
		t.Errorf("current agent changed on a denied transfer: got %q", got)
	}

	var sawDenied bool
	for _, e := range s.Events() {
		if e.Kind == session.KindToolResponse && e.Error == session.ToolErrorTransferDenied {
			sawDenied = true
		}
	}
	if !sawDenied {
		t.Error("expected a TransferDenied ToolResponse")
	}
}

func TestRunTurn_ToolCallLoopThenFinal(t *testing.T) {
	provider := &scriptedProvider{responses: []*providers.ChatResponse{
		{
			Content:      "",
			FinishReason: "tool_calls",
			ToolCalls: []providers.ToolCall{
				{ID: "call-1", Name: "get_current_time", Arguments: map[string]any{"tz": "Asia/Tokyo"}},
			},
		},
		{Content: "It is 14:00 in Tokyo.", FinishReason: "stop"},
	}}
	r, _, tr, sm := newTestRunner(t, provider)
	if err := tr.Register(agents.RootAgentName, toolregistry.ToolHandle{
		Name: "get_current_time",
		Invoke: func(args map[string]any, tc toolregistry.ToolContext) (*tools.Result, error) {
			return tools.NewResult("2026-07-31T14:00:00+09:00"), nil
		},
	}); err != nil {
		t.Fatalf("register get_current_time: %v", err)
	}
	s := sm.Create("u1")

	res, err := r.RunTurn(context.Background(), s.ID, "what time is it in Tokyo?")
	if err != nil {
		t.Fatalf("RunTurn: %v", err)
	}
	if res.Content != "It is 14:00 in Tokyo." {
		t.Errorf("content = %q", res.Content)
	}

	var sawCall, sawResponse bool
	for _, e := range s.Events() {
		if e.Kind == session.KindToolCall && e.ToolName == "get_current_time" {
			sawCall = true
		}
		if e.Kind == session.KindToolResponse && e.ToolName == "get_current_time" {
			sawResponse = true
		}
	}
	if !sawCall || !sawResponse {
		t.Error("expected a ToolCall/ToolResponse pair for get_current_time")
	}
}
