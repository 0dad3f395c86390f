package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/radbot/gateway/internal/providers"
	"github.com/radbot/gateway/internal/store"
)

var decomposeSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"tasks": {
			"type": "array",
			"items": {
				"type": "object",
				"properties": {
					"task_type": {"type": "string", "enum": ["CodeImplementation", "Testing", "Documentation"]},
					"specification": {"type": "string"}
				},
				"required": ["task_type", "specification"]
			}
		}
	},
	"required": ["tasks"]
}`)

const decomposePrompt = `You are axel's decomposer. Split the specification below into independent
tasks, one per task_type that the specification actually calls for
(CodeImplementation, Testing, Documentation). Do not invent a task_type the
specification has no work for. Respond by calling emit_tasks exactly once.`

// Decompose asks the provider to split specText into TaskInstructions, then
// applies Prioritize to enforce the MAX_WORKERS cap deterministically. It
// returns the kept tasks and the dropped tail (nil when nothing was cut).
func Decompose(ctx context.Context, p providers.Provider, specText string, maxWorkers int) ([]TaskInstruction, []TaskInstruction, error) {
	req := providers.ChatRequest{
		Messages: []providers.Message{
			{Role: "system", Content: decomposePrompt},
			{Role: "user", Content: specText},
		},
		Tools: []providers.ToolDefinition{{
			Type: "function",
			Function: providers.ToolFunctionSchema{
				Name:        "emit_tasks",
				Description: "Emit the decomposed task list.",
				Parameters:  schemaToMap(decomposeSchema),
			},
		}},
	}

	resp, err := p.Chat(ctx, req)
	if err != nil {
		return nil, nil, fmt.Errorf("worker: decompose call failed: %w", err)
	}

	var tasks []TaskInstruction
	for _, tc := range resp.ToolCalls {
		if tc.Name != "emit_tasks" {
			continue
		}
		rawTasks, _ := tc.Arguments["tasks"].([]interface{})
		for _, rt := range rawTasks {
			m, ok := rt.(map[string]interface{})
			if !ok {
				continue
			}
			tType, _ := m["task_type"].(string)
			spec, _ := m["specification"].(string)
			if tType == "" || spec == "" {
				continue
			}
			tasks = append(tasks, TaskInstruction{
				TaskID:        store.GenNewID(),
				TaskType:      TaskType(tType),
				Specification: spec,
			})
		}
	}

	max := maxWorkers
	if max <= 0 {
		max = MaxWorkers
	}
	kept, dropped := Prioritize(tasks, max)
	return kept, dropped, nil
}

// Prioritize sorts tasks by TaskType priority (Implementation > Testing >
// Documentation, stable within a type) and truncates to max, returning the
// dropped tail in the same order (deterministic by priority).
func Prioritize(tasks []TaskInstruction, max int) (kept, dropped []TaskInstruction) {
	sorted := make([]TaskInstruction, len(tasks))
	copy(sorted, tasks)
	sort.SliceStable(sorted, func(i, j int) bool {
		return priorityRank[sorted[i].TaskType] < priorityRank[sorted[j].TaskType]
	})
	if len(sorted) <= max {
		return sorted, nil
	}
	return sorted[:max], sorted[max:]
}

func schemaToMap(raw json.RawMessage) map[string]any {
	var m map[string]any
	_ = json.Unmarshal(raw, &m)
	return m
}
