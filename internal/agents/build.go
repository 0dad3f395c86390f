package agents

import (
	"fmt"
	"log/slog"

	"github.com/radbot/gateway/internal/config"
	"github.com/radbot/gateway/internal/toolregistry"
)

// BuildFromConfig constructs the agent graph and registers each agent's
// tools into the tool registry. It must run after config.Load returns and
// before internal/mcp.Manager.Start, so MCP-discovered tools attach to an
// already-complete agent set rather than racing its construction.
//
// transferHandle (internal/transfer.ToolHandle(), passed in rather than
// constructed here since that package imports internal/agents for
// RootAgentName/TransferToolName) is registered on every agent, implicit,
// never part of an agent's explicit tool list. The shipped built-ins are
// registered on an agent only when its explicit tool list names them, or
// all of them when that list is empty (see registerTools).
func BuildFromConfig(cfg *config.Config, tr *toolregistry.Registry, transferHandle toolregistry.ToolHandle, builtins []toolregistry.ToolHandle) (*Registry, error) {
	specs := cfg.Agents.List
	if _, ok := specs[RootAgentName]; !ok {
		return nil, fmt.Errorf("agents: no %q agent defined in config", RootAgentName)
	}

	reg := NewRegistry()
	byName := make(map[string]config.AgentSpec, len(specs))
	for name, s := range specs {
		byName[name] = s
	}

	// Registration order matters: Register rejects an AllowedTransfers
	// target that isn't registered yet (except the always-exempt root), so
	// agents are registered in waves, each wave picking names whose
	// non-root targets are already present.
	pending := make(map[string]config.AgentSpec, len(byName))
	for name, s := range byName {
		pending[name] = s
	}

	// The root agent has no forward-reference problem: Register seeds its
	// AllowedTransfers with every agent registered after it automatically.
	if root, ok := pending[RootAgentName]; ok {
		if err := registerOne(reg, cfg, RootAgentName, root); err != nil {
			return nil, err
		}
		delete(pending, RootAgentName)
	}

	for len(pending) > 0 {
		progressed := false
		for name, s := range pending {
			if transfersSatisfied(reg, s) {
				if err := registerOne(reg, cfg, name, s); err != nil {
					return nil, err
				}
				delete(pending, name)
				progressed = true
			}
		}
		if !progressed {
			names := make([]string, 0, len(pending))
			for name := range pending {
				names = append(names, name)
			}
			return nil, fmt.Errorf("agents: unresolved allowed_transfers among %v (targets never registered)", names)
		}
	}

	for name, s := range byName {
		registerTools(tr, name, s, transferHandle, builtins)
	}

	return reg, nil
}

func transfersSatisfied(reg *Registry, s config.AgentSpec) bool {
	for _, target := range s.AllowedTransfers {
		if target == RootAgentName {
			continue
		}
		if _, ok := reg.Get(target); !ok {
			return false
		}
	}
	return true
}

func registerOne(reg *Registry, cfg *config.Config, name string, s config.AgentSpec) error {
	allowed := make(map[string]bool, len(s.AllowedTransfers))
	for _, t := range s.AllowedTransfers {
		allowed[t] = true
	}
	return reg.Register(Agent{
		Name:             name,
		Instruction:      s.Instruction,
		ToolNames:        append([]string(nil), s.Tools...),
		AllowedTransfers: allowed,
		ModelID:          cfg.ResolveModel(name),
	})
}

// registerTools attaches transfer_to_agent, the shipped built-ins, and the
// agent's explicit tool names (matched against the built-in set; any name
// that isn't a recognized built-in is left for a later provider — MCP
// server discovery or a future domain tool — to register under the same
// agent name) into the tool registry.
func registerTools(tr *toolregistry.Registry, agentName string, s config.AgentSpec, transferHandle toolregistry.ToolHandle, builtins []toolregistry.ToolHandle) {
	if err := tr.Register(agentName, transferHandle); err != nil {
		slog.Warn("agents.build.transfer_register_failed", "agent", agentName, "error", err)
	}

	builtinByName := make(map[string]toolregistry.ToolHandle, len(builtins))
	for _, h := range builtins {
		builtinByName[h.Name] = h
	}

	wanted := s.Tools
	if len(wanted) == 0 {
		// No explicit tool list: ship every built-in by default so a
		// bare-minimum agent config still gets get_current_time/remember/recall.
		for _, h := range builtins {
			wanted = append(wanted, h.Name)
		}
	}

	for _, name := range wanted {
		h, ok := builtinByName[name]
		if !ok {
			continue
		}
		if err := tr.Register(agentName, h); err != nil {
			slog.Warn("agents.build.tool_register_failed", "agent", agentName, "tool", name, "error", err)
		}
	}
}
