package builtins

import (
	"encoding/json"
	"fmt"

	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/tools"
	"github.com/radbot/gateway/internal/toolregistry"
)

// memoryKey namespaces remember/recall entries by the calling agent within
// a session's state bag: each agent keeps its own notes, and none collide
// with axel's result:<task_id> slots or other internal uses of the same
// map.
func memoryKey(agent, key string) string {
	return "mem:" + agent + ":" + key
}

// MemoryTools returns the remember/recall pair, backed directly by the
// session's existing state bag rather than a separate persistent store:
// scratch facts live only as long as the session does.
func MemoryTools(mgr *session.Manager) []toolregistry.ToolHandle {
	return []toolregistry.ToolHandle{rememberTool(mgr), recallTool(mgr)}
}

func rememberTool(mgr *session.Manager) toolregistry.ToolHandle {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"key": {"type": "string"},
			"value": {"type": "string"}
		},
		"required": ["key", "value"]
	}`)

	return toolregistry.ToolHandle{
		Name:        "remember",
		Description: "Stores a short note under a key for later recall within this conversation.",
		InputSchema: schema,
		Source:      toolregistry.Source{Kind: "memory"},
		Invoke: func(args map[string]any, tc toolregistry.ToolContext) (*tools.Result, error) {
			key, _ := args["key"].(string)
			value, _ := args["value"].(string)
			if key == "" {
				return tools.ErrorResult("remember requires a non-empty key"), nil
			}
			sess, ok := mgr.Get(tc.SessionID)
			if !ok {
				return tools.ErrorResult("session not found"), nil
			}
			sess.SetState(memoryKey(tc.AgentName, key), value)
			return tools.SilentResult(fmt.Sprintf("remembered %q", key)), nil
		},
	}
}

func recallTool(mgr *session.Manager) toolregistry.ToolHandle {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"key": {"type": "string"}
		},
		"required": ["key"]
	}`)

	return toolregistry.ToolHandle{
		Name:        "recall",
		Description: "Retrieves a note previously stored with remember, by key.",
		InputSchema: schema,
		Source:      toolregistry.Source{Kind: "memory"},
		Invoke: func(args map[string]any, tc toolregistry.ToolContext) (*tools.Result, error) {
			key, _ := args["key"].(string)
			if key == "" {
				return tools.ErrorResult("recall requires a non-empty key"), nil
			}
			sess, ok := mgr.Get(tc.SessionID)
			if !ok {
				return tools.ErrorResult("session not found"), nil
			}
			value, found := sess.GetState(memoryKey(tc.AgentName, key))
			if !found {
				return tools.NewResult(fmt.Sprintf("no memory stored for %q", key)), nil
			}
			return tools.NewResult(value), nil
		},
	}
}
