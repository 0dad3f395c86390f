package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/radbot/gateway/internal/providers"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/telemetry"
	"github.com/radbot/gateway/internal/toolregistry"
)

const maxWorkerIterations = 20

// Pool runs an axel decomposition to completion: each TaskInstruction
// becomes an independent child-agent turn against a private tool set
// (no cross-worker tool sharing, no spawn-of-spawn), with a hard per-task
// deadline and no interaction with the parent session until it finishes.
type Pool struct {
	Provider providers.Provider
	Tools    []toolregistry.ToolHandle
	Sessions *session.Manager

	MaxWorkers   int
	TaskDeadline time.Duration
}

func (p *Pool) maxWorkers() int {
	if p.MaxWorkers > 0 {
		return p.MaxWorkers
	}
	return MaxWorkers
}

func (p *Pool) deadline() time.Duration {
	if p.TaskDeadline > 0 {
		return p.TaskDeadline
	}
	return TaskDeadline
}

// Run executes tasks (already capped to MaxWorkers, e.g. via Decompose) in
// parallel, reports "Progress: k/N tasks completed" to parentSessionID as
// each worker finishes — in strict completion order, never interleaved —
// stores each result under session state key result:<task_id>, and returns
// after every worker has returned (the aggregator's join barrier).
func (p *Pool) Run(ctx context.Context, parentSessionID string, tasks []TaskInstruction) ([]TaskResult, error) {
	s, ok := p.Sessions.Get(parentSessionID)
	if !ok {
		return nil, fmt.Errorf("worker: unknown session %q", parentSessionID)
	}

	n := len(tasks)
	results := make([]TaskResult, n)

	var mu sync.Mutex
	var wg sync.WaitGroup
	completed := 0

	for i, task := range tasks {
		wg.Add(1)
		go func(i int, task TaskInstruction) {
			defer wg.Done()
			res := p.runOne(ctx, task)
			telemetry.ObserveWorkerTask(string(res.TaskType), string(res.Status))

			// Holding mu across both the counter bump and the session
			// append keeps completion order and reported order identical:
			// whichever goroutine wins the lock next gets the next k and
			// is the next Progress event appended, full stop.
			mu.Lock()
			defer mu.Unlock()
			results[i] = res
			completed++
			k := completed

			s.SetState("result:"+task.TaskID, res.Summary)
			if _, err := p.Sessions.Append(parentSessionID, session.NewSystem(parentSessionID, session.SystemInfo, fmt.Sprintf("Progress: %d/%d tasks completed", k, n))); err != nil {
				// Progress reporting is best-effort; Aggregate's summary
				// remains the authoritative record of what happened.
				_ = err
			}
		}(i, task)
	}
	wg.Wait()

	return results, nil
}

// RunSpec decomposes specText, executes the kept tasks to completion, and
// returns the aggregated Markdown summary. dropped holds any tasks the
// MAX_WORKERS cutoff discarded, for callers that want to surface them.
func (p *Pool) RunSpec(ctx context.Context, parentSessionID, specText string) (summary string, dropped []TaskInstruction, err error) {
	kept, dropped, err := Decompose(ctx, p.Provider, specText, p.maxWorkers())
	if err != nil {
		return "", nil, err
	}
	results, err := p.Run(ctx, parentSessionID, kept)
	if err != nil {
		return "", dropped, err
	}
	return Aggregate(kept, results), dropped, nil
}

// runOne drives one worker's model->tool->model loop against a private
// toolregistry.Registry keyed by the task id, so no worker can see or
// invoke another's tools.
func (p *Pool) runOne(ctx context.Context, task TaskInstruction) TaskResult {
	ctx, span := telemetry.StartSpan(ctx, "worker.runOne")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.deadline())
	defer cancel()

	tr := toolregistry.NewRegistry()
	for _, h := range p.Tools {
		_ = tr.Register(task.TaskID, h)
	}

	messages := []providers.Message{
		{Role: "system", Content: workerSystemPrompt(task)},
		{Role: "user", Content: task.Specification},
	}

	var finalContent string
	for iter := 0; iter < maxWorkerIterations; iter++ {
		if ctx.Err() != nil {
			return timeoutResult(task)
		}

		resp, err := p.Provider.Chat(ctx, providers.ChatRequest{
			Messages: messages,
			Tools:    toolDefinitions(tr.ToolsFor(task.TaskID)),
		})
		if err != nil {
			if ctx.Err() != nil {
				return timeoutResult(task)
			}
			return TaskResult{TaskID: task.TaskID, TaskType: task.TaskType, Status: StatusFailed, ErrorMessage: err.Error()}
		}

		if len(resp.ToolCalls) == 0 {
			finalContent = resp.Content
			break
		}

		messages = append(messages, providers.Message{Role: "assistant", Content: resp.Content, ToolCalls: resp.ToolCalls})
		for _, tc := range resp.ToolCalls {
			result, ierr := tr.Invoke(task.TaskID, tc.Name, tc.Arguments, toolregistry.ToolContext{
				Ctx:       ctx,
				AgentName: task.TaskID,
				SessionID: task.TaskID,
			})
			text := ""
			if ierr != nil {
				text = ierr.Error()
			} else {
				text = result.ForLLM
			}
			messages = append(messages, providers.Message{Role: "tool", Content: text, ToolCallID: tc.ID})
		}
	}

	if ctx.Err() != nil {
		return timeoutResult(task)
	}
	if finalContent == "" {
		return TaskResult{
			TaskID: task.TaskID, TaskType: task.TaskType, Status: StatusPartial,
			Summary: "no final response produced", ErrorMessage: "max iterations reached without a final response",
		}
	}
	return TaskResult{
		TaskID: task.TaskID, TaskType: task.TaskType, Status: StatusCompleted,
		Summary: summarize(finalContent), Details: finalContent,
	}
}

func timeoutResult(task TaskInstruction) TaskResult {
	return TaskResult{TaskID: task.TaskID, TaskType: task.TaskType, Status: StatusFailed, ErrorMessage: "execution timeout"}
}

func summarize(content string) string {
	const maxLen = 200
	if len(content) <= maxLen {
		return content
	}
	return content[:maxLen] + "..."
}

func workerSystemPrompt(task TaskInstruction) string {
	return fmt.Sprintf(`# Worker Context

You are one axel worker handling a single %s task. Your entire purpose is
this task; you do not see the other workers' tasks or results.

## Rules
1. Stay on this task only.
2. Your final response IS the deliverable for the aggregator — write the
   actual output (code, tests, docs), not a description of it.
3. Never ask for clarification; work with what you have.
4. You may be terminated once you produce a final response. That is fine.`, task.TaskType)
}

func toolDefinitions(handles []toolregistry.ToolHandle) []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(handles))
	for _, h := range handles {
		defs = append(defs, providers.ToolDefinition{
			Type: "function",
			Function: providers.ToolFunctionSchema{
				Name:        h.Name,
				Description: h.Description,
				Parameters:  schemaToMap(h.InputSchema),
			},
		})
	}
	return defs
}
