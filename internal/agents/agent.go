// Package agents implements the Agent Registry & Graph: named agents, their
// instruction text, their allowed-transfer set, and introspection over the
// resulting graph.
package agents

import (
	"fmt"
	"sync"
)

// TransferToolName is auto-injected on every agent that participates in the
// transfer graph; it is never listed among an agent's explicit tools.
const TransferToolName = "transfer_to_agent"

// RootAgentName is the hub all specialists can return control to.
const RootAgentName = "beto"

// ReturnClause is appended to every non-root agent's instruction at
// registration time. The Runner does not enforce it; it is a contract the
// model is instructed to honor.
const ReturnClause = "\n\nWhen you have completed your task, produce your text response, then call transfer_to_agent(agent_name='" + RootAgentName + "') to return control."

// Agent is a node in the transfer graph. Specialization is entirely data:
// instruction text and tool set, not a distinct Go type per agent.
type Agent struct {
	Name             string
	Instruction      string
	ToolNames        []string // explicit tools, ordered; transfer_to_agent is implicit
	AllowedTransfers map[string]bool
	ModelID          string
}

// Registry holds every registered agent and enforces the graph invariants.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]*Agent)}
}

// Register validates that every allowed-transfer target must already exist
// (or be the agent itself being added as root), and leaves duplicate-tool-name
// checking to the tool registry's own Duplicate check, before adding
// the agent to the graph.
func (r *Registry) Register(a Agent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a.Name == "" {
		return fmt.Errorf("agents: agent name is required")
	}
	if _, exists := r.agents[a.Name]; exists {
		return fmt.Errorf("agents: %q already registered", a.Name)
	}

	if a.AllowedTransfers == nil {
		a.AllowedTransfers = make(map[string]bool)
	}
	for target := range a.AllowedTransfers {
		if target == a.Name {
			continue
		}
		if _, ok := r.agents[target]; !ok && target != RootAgentName {
			return fmt.Errorf("agents: allowed_transfers target %q is not a registered agent", target)
		}
	}

	if a.Name != RootAgentName {
		a.Instruction += ReturnClause
		a.AllowedTransfers[RootAgentName] = true
	}

	cp := a
	r.agents[a.Name] = &cp

	// The root agent's allowed_transfers always includes every other agent.
	if root, ok := r.agents[RootAgentName]; ok {
		for name := range r.agents {
			if name != RootAgentName {
				root.AllowedTransfers[name] = true
			}
		}
	}
	return nil
}

// Get returns the named agent, or nil if not registered.
func (r *Registry) Get(name string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.agents[name]
	return a, ok
}

// Find performs a BFS over the graph starting from root, with cycle
// detection by identity (visited set keyed by agent name), returning the
// named agent if reachable. Used by the transfer tool to confirm a target
// actually belongs to the graph rather than being an orphaned registration.
func (r *Registry) Find(name string) (*Agent, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	root, ok := r.agents[RootAgentName]
	if !ok {
		return nil, false
	}
	visited := map[string]bool{root.Name: true}
	queue := []*Agent{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.Name == name {
			return cur, true
		}
		for target := range cur.AllowedTransfers {
			if visited[target] {
				continue
			}
			visited[target] = true
			if next, ok := r.agents[target]; ok {
				queue = append(queue, next)
			}
		}
	}
	return nil, false
}

// AgentSummary is the introspection shape for the admin surface's tree view.
type AgentSummary struct {
	Name             string   `json:"name"`
	ModelID          string   `json:"model_id"`
	Tools            []string `json:"tools"`
	AllowedTransfers []string `json:"allowed_transfers"`
}

// Tree returns every registered agent as a flat, JSON-friendly summary list.
func (r *Registry) Tree() []AgentSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]AgentSummary, 0, len(r.agents))
	for _, a := range r.agents {
		transfers := make([]string, 0, len(a.AllowedTransfers))
		for t := range a.AllowedTransfers {
			transfers = append(transfers, t)
		}
		out = append(out, AgentSummary{
			Name:             a.Name,
			ModelID:          a.ModelID,
			Tools:            append([]string(nil), a.ToolNames...),
			AllowedTransfers: transfers,
		})
	}
	return out
}

// Unregister removes an agent, used by R2's register→unregister→register
// round-trip and by hot config reload.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.agents, name)
	if root, ok := r.agents[RootAgentName]; ok {
		delete(root.AllowedTransfers, name)
	}
}
