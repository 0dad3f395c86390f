// Package toolregistry implements the uniform tool abstraction shared by
// every agent: a per-agent, ordered list of ToolHandles sourced from
// built-in registrations, MCP server discovery, and (eventually) other
// dynamic providers, with hot add/remove and MCP-server pruning.
package toolregistry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/radbot/gateway/internal/telemetry"
	"github.com/radbot/gateway/internal/tools"
)

// Source tags where a ToolHandle originated, used to prune every tool from
// a given MCP server in one pass without touching built-ins.
type Source struct {
	Kind     string // "builtin", "mcp", "memory"
	ServerID string // MCP server id; empty for builtins/memory
}

// ToolContext carries the request-scoped values a tool's Invoke needs:
// cancellation, the calling agent/session identity, and an optional async
// callback. Args are validated against the handle's compiled JSON Schema
// before Invoke ever sees them.
type ToolContext struct {
	Ctx        context.Context
	AgentName  string
	SessionID  string
	AsyncEmit  tools.AsyncCallback
}

// InvokeFunc is the callable body of a ToolHandle.
type InvokeFunc func(args map[string]any, tc ToolContext) (*tools.Result, error)

// ToolHandle is the uniform description of a callable exposed to an agent.
type ToolHandle struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Invoke      InvokeFunc

	Source Source

	compiled *jsonschema.Schema
}

// ToolError enumerates the invoke-time failure modes a tool call can hit.
type ToolError struct {
	Code   string // Unknown, Disabled, Timeout, PermissionDenied, Upstream, BadArgs
	Detail string
}

func (e *ToolError) Error() string {
	if e.Detail == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Detail)
}

func errUnknown(name string) error   { return &ToolError{Code: "Unknown", Detail: name} }
func errDisabled(name string) error  { return &ToolError{Code: "Disabled", Detail: name} }
func errDuplicate(name string) error { return &ToolError{Code: "Duplicate", Detail: name} }

// errBadArgs is returned when supplied args fail schema validation.
func errBadArgs(detail string) error { return &ToolError{Code: "BadArgs", Detail: detail} }

type agentTools struct {
	order   []string // registration order, preserved for stable listing
	byName  map[string]*ToolHandle
	// disabled tracks tool names pruned from an MCP server disable, kept
	// around (rather than deleted) so subsequent calls can report Disabled
	// instead of Unknown.
	disabled map[string]bool
}

func newAgentTools() *agentTools {
	return &agentTools{
		byName:   make(map[string]*ToolHandle),
		disabled: make(map[string]bool),
	}
}

// Registry is the read-mostly store of every agent's tool list. Registration
// and pruning take a brief write-lock window; lookups and invocation take a
// read lock (invoke itself runs outside the lock once the handle is copied
// out, so a slow tool never blocks registration).
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*agentTools
}

func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*agentTools)}
}

// Register adds a tool to an agent's list. Fails with Duplicate if the name
// already exists for that agent.
func (r *Registry) Register(agentName string, h ToolHandle) error {
	if len(h.InputSchema) > 0 {
		compiled, err := compileSchema(h.InputSchema)
		if err != nil {
			return fmt.Errorf("toolregistry: compile schema for %q: %w", h.Name, err)
		}
		h.compiled = compiled
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	at, ok := r.agents[agentName]
	if !ok {
		at = newAgentTools()
		r.agents[agentName] = at
	}
	if _, exists := at.byName[h.Name]; exists {
		return errDuplicate(h.Name)
	}
	cp := h
	at.byName[h.Name] = &cp
	at.order = append(at.order, h.Name)
	delete(at.disabled, h.Name)
	return nil
}

// Unregister removes a tool from an agent's list. Idempotent.
func (r *Registry) Unregister(agentName, toolName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	at, ok := r.agents[agentName]
	if !ok {
		return
	}
	if _, exists := at.byName[toolName]; !exists {
		return
	}
	delete(at.byName, toolName)
	for i, n := range at.order {
		if n == toolName {
			at.order = append(at.order[:i], at.order[i+1:]...)
			break
		}
	}
}

// ToolsFor returns the ordered list of tools visible to an agent.
func (r *Registry) ToolsFor(agentName string) []ToolHandle {
	r.mu.RLock()
	defer r.mu.RUnlock()

	at, ok := r.agents[agentName]
	if !ok {
		return nil
	}
	out := make([]ToolHandle, 0, len(at.order))
	for _, name := range at.order {
		if h, ok := at.byName[name]; ok {
			out = append(out, *h)
		}
	}
	return out
}

// Invoke validates args against the tool's schema and calls it. Errors are
// always returned as *ToolError so the Runner can convert them into a
// ToolResponse event rather than failing the turn.
func (r *Registry) Invoke(agentName, toolName string, args map[string]any, tc ToolContext) (*tools.Result, error) {
	start := time.Now()
	res, err := r.invoke(agentName, toolName, args, tc)
	status := "ok"
	var te *ToolError
	if errors.As(err, &te) {
		status = te.Code
	} else if err != nil {
		status = "Upstream"
	}
	telemetry.ObserveToolInvocation(toolName, status, time.Since(start).Seconds())
	return res, err
}

func (r *Registry) invoke(agentName, toolName string, args map[string]any, tc ToolContext) (*tools.Result, error) {
	r.mu.RLock()
	at, ok := r.agents[agentName]
	if !ok {
		r.mu.RUnlock()
		return nil, errUnknown(toolName)
	}
	h, exists := at.byName[toolName]
	disabled := at.disabled[toolName]
	r.mu.RUnlock()

	if disabled {
		return nil, errDisabled(toolName)
	}
	if !exists {
		return nil, errUnknown(toolName)
	}

	if h.compiled != nil {
		if err := validateArgs(h.compiled, args); err != nil {
			return nil, errBadArgs(err.Error())
		}
	}

	res, err := h.Invoke(args, tc)
	if err != nil {
		var te *ToolError
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, &ToolError{Code: "Upstream", Detail: err.Error()}
	}
	return res, nil
}

// PruneServer removes every tool sourced from the given MCP server, across
// every agent, in one write-lock pass. Idempotent; in-flight invocations
// already past the read-lock snapshot in Invoke complete normally, and the
// next invocation of a pruned tool observes Disabled.
func (r *Registry) PruneServer(serverID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, at := range r.agents {
		var kept []string
		for _, name := range at.order {
			h := at.byName[name]
			if h.Source.Kind == "mcp" && h.Source.ServerID == serverID {
				delete(at.byName, name)
				at.disabled[name] = true
				continue
			}
			kept = append(kept, name)
		}
		at.order = kept
	}
}

func compileSchema(raw json.RawMessage) (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("schema.json", bytesReader(raw)); err != nil {
		return nil, err
	}
	return c.Compile("schema.json")
}

func validateArgs(schema *jsonschema.Schema, args map[string]any) error {
	// jsonschema validates against any decoded JSON value (map[string]any
	// included); normalize through json round-trip so numeric types match
	// what would have arrived over the wire.
	raw, err := json.Marshal(args)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	return schema.Validate(v)
}
