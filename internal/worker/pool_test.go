package worker

import (
	"context"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/radbot/gateway/internal/providers"
	"github.com/radbot/gateway/internal/session"
)

// instantProvider answers every Chat call immediately with a final
// response derived from the task specification, optionally sleeping first
// to exercise the per-task deadline.
type instantProvider struct {
	delay time.Duration
}

func (p *instantProvider) Chat(ctx context.Context, req providers.ChatRequest) (*providers.ChatResponse, error) {
	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	spec := req.Messages[len(req.Messages)-1].Content
	return &providers.ChatResponse{Content: "done: " + spec, FinishReason: "stop"}, nil
}

func (p *instantProvider) ChatStream(ctx context.Context, req providers.ChatRequest, onChunk func(providers.StreamChunk)) (*providers.ChatResponse, error) {
	return p.Chat(ctx, req)
}
func (p *instantProvider) DefaultModel() string { return "test-model" }
func (p *instantProvider) Name() string         { return "instant" }

func TestPool_RunReportsProgressInStrictOrder(t *testing.T) {
	sm := session.NewManager(nil, slog.Default())
	s := sm.Create("u1")

	pool := &Pool{Provider: &instantProvider{}, Sessions: sm}
	tasks := []TaskInstruction{
		{TaskID: "t1", TaskType: TaskCodeImplementation, Specification: "implement the parser"},
		{TaskID: "t2", TaskType: TaskTesting, Specification: "test the parser"},
		{TaskID: "t3", TaskType: TaskDocumentation, Specification: "document the parser"},
	}

	results, err := pool.Run(context.Background(), s.ID, tasks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, r := range results {
		if r.Status != StatusCompleted {
			t.Errorf("task %s status = %s, want Completed", r.TaskID, r.Status)
		}
	}

	var progress []string
	for _, e := range s.Events() {
		if e.Kind == session.KindSystem && strings.HasPrefix(e.Text, "Progress: ") {
			progress = append(progress, e.Text)
		}
	}
	want := []string{"Progress: 1/3 tasks completed", "Progress: 2/3 tasks completed", "Progress: 3/3 tasks completed"}
	if len(progress) != len(want) {
		t.Fatalf("progress events = %v, want %v", progress, want)
	}
	for i := range want {
		if progress[i] != want[i] {
			t.Errorf("progress[%d] = %q, want %q", i, progress[i], want[i])
		}
	}

	for _, task := range tasks {
		if v, ok := s.GetState("result:" + task.TaskID); !ok || v == "" {
			t.Errorf("expected result state for %s, got %q (ok=%v)", task.TaskID, v, ok)
		}
	}
}

func TestPool_RunOneTimesOutUnderDeadline(t *testing.T) {
	sm := session.NewManager(nil, slog.Default())
	s := sm.Create("u1")

	pool := &Pool{Provider: &instantProvider{delay: 50 * time.Millisecond}, Sessions: sm, TaskDeadline: 5 * time.Millisecond}
	tasks := []TaskInstruction{{TaskID: "slow", TaskType: TaskCodeImplementation, Specification: "takes too long"}}

	results, err := pool.Run(context.Background(), s.ID, tasks)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if results[0].Status != StatusFailed || results[0].ErrorMessage != "execution timeout" {
		t.Fatalf("unexpected result: %+v", results[0])
	}
}

func TestAggregate_IncludesFailureSectionWithOriginalInstruction(t *testing.T) {
	tasks := []TaskInstruction{
		{TaskID: "t1", TaskType: TaskCodeImplementation, Specification: "implement the cache"},
	}
	results := []TaskResult{
		{TaskID: "t1", TaskType: TaskCodeImplementation, Status: StatusFailed, ErrorMessage: "execution timeout"},
	}

	out := Aggregate(tasks, results)
	if !strings.Contains(out, "## Failures") {
		t.Errorf("missing failures section:\n%s", out)
	}
	if !strings.Contains(out, "implement the cache") {
		t.Errorf("missing original instruction text:\n%s", out)
	}
}
