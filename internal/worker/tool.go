package worker

import (
	"encoding/json"
	"fmt"

	"github.com/radbot/gateway/internal/tools"
	"github.com/radbot/gateway/internal/toolregistry"
)

var executeSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"specification": {"type": "string", "description": "The work to decompose and execute in parallel."}
	},
	"required": ["specification"]
}`)

// ExecuteSpecificationTool returns the execute_specification ToolHandle
// registered on axel: it decomposes the caller's specification, runs the
// kept tasks to completion against pool's own tool set, and returns the
// aggregated Markdown summary as the tool's result.
//
// Modeled on a "spawn synchronous, return result as tool content" subagent
// shape, generalized from one ad-hoc subagent call to a fixed
// decompose-then-join pipeline.
func ExecuteSpecificationTool(pool *Pool) toolregistry.ToolHandle {
	return toolregistry.ToolHandle{
		Name:        "execute_specification",
		Description: "Decomposes a specification into parallel implementation/testing/documentation tasks, runs them to completion, and returns an aggregated report.",
		InputSchema: executeSchema,
		Source:      toolregistry.Source{Kind: "builtin"},
		Invoke: func(args map[string]any, tc toolregistry.ToolContext) (*tools.Result, error) {
			spec, _ := args["specification"].(string)
			if spec == "" {
				return tools.ErrorResult("execute_specification requires a non-empty specification"), nil
			}

			summary, dropped, err := pool.RunSpec(tc.Ctx, tc.SessionID, spec)
			if err != nil {
				return tools.ErrorResult(fmt.Sprintf("axel execution failed: %v", err)), nil
			}
			if len(dropped) > 0 {
				summary += fmt.Sprintf("\n\n_(%d task(s) dropped: MAX_WORKERS cap reached)_\n", len(dropped))
			}
			return tools.NewResult(summary), nil
		},
	}
}
