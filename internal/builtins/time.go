// Package builtins implements the small set of tools shipped with the
// gateway: wall-clock lookup and the per-session remember/recall pair. An
// agent gets them when its config names them, or when it lists no tools. transfer_to_agent is injected separately by
// internal/agents since it is graph-aware rather than a plain builtin.
package builtins

import (
	"encoding/json"
	"time"

	"github.com/radbot/gateway/internal/tools"
	"github.com/radbot/gateway/internal/toolregistry"
)

// CurrentTimeTool returns the get_current_time handle. It takes an optional
// IANA timezone name and defaults to UTC when omitted or unrecognized.
func CurrentTimeTool() toolregistry.ToolHandle {
	schema := json.RawMessage(`{
		"type": "object",
		"properties": {
			"timezone": {"type": "string", "description": "IANA timezone name, e.g. America/New_York. Defaults to UTC."}
		}
	}`)

	return toolregistry.ToolHandle{
		Name:        "get_current_time",
		Description: "Returns the current date and time, optionally in a given IANA timezone.",
		InputSchema: schema,
		Source:      toolregistry.Source{Kind: "builtin"},
		Invoke: func(args map[string]any, tc toolregistry.ToolContext) (*tools.Result, error) {
			loc := time.UTC
			if tz, ok := args["timezone"].(string); ok && tz != "" {
				if l, err := time.LoadLocation(tz); err == nil {
					loc = l
				}
			}
			now := time.Now().In(loc)
			return tools.NewResult(now.Format(time.RFC3339)), nil
		},
	}
}
