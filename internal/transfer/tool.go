package transfer

import (
	"encoding/json"

	"github.com/radbot/gateway/internal/agents"
	"github.com/radbot/gateway/internal/tools"
	"github.com/radbot/gateway/internal/toolregistry"
)

var transferSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"agent_name": {"type": "string"}
	},
	"required": ["agent_name"]
}`)

// ToolHandle returns the transfer_to_agent ToolHandle every agent in the
// graph carries: auto-injected, never part of an agent's explicit tool
// list. Whoever builds the agent tree registers this alongside an agent's
// other tools.
//
// The Runner recognizes calls to agents.TransferToolName by name and routes
// them to Controller.Transfer before they ever reach the Tool Registry's
// Invoke path, so the Invoke function below is not exercised in normal
// operation — it exists so the handle is well-formed for schema validation
// and so it can be unit tested like any other tool.
func ToolHandle() toolregistry.ToolHandle {
	return toolregistry.ToolHandle{
		Name:        agents.TransferToolName,
		Description: "Transfer the conversation to another agent by name, returning control to that agent.",
		InputSchema: transferSchema,
		Source:      toolregistry.Source{Kind: "builtin"},
		Invoke: func(args map[string]any, tc toolregistry.ToolContext) (*tools.Result, error) {
			return tools.NewResult("transfer handled by the runner"), nil
		},
	}
}
