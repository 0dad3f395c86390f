// Package mcp implements the MCP half of the Tool Registry's hot lifecycle:
// connecting to externally configured MCP servers, discovering
// their tools, bridging each into a toolregistry.ToolHandle tagged with a
// Source so it can be pruned in one pass, and reconnecting with backoff
// when a server's health check starts failing.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"

	"github.com/radbot/gateway/internal/agents"
	"github.com/radbot/gateway/internal/config"
	"github.com/radbot/gateway/internal/toolregistry"
)

const (
	healthCheckInterval  = 30 * time.Second
	initialBackoff       = 2 * time.Second
	maxBackoff           = 60 * time.Second
	maxReconnectAttempts = 10
)

// ServerStatus reports the connection status of an MCP server, surfaced
// through the admin HTTP surface.
type ServerStatus struct {
	Name      string `json:"name"`
	Transport string `json:"transport"`
	Connected bool   `json:"connected"`
	ToolCount int    `json:"tool_count"`
	Error     string `json:"error,omitempty"`
}

// serverState tracks one MCP server connection and the agents its tools
// were registered against, so Stop/reconnect can unregister precisely.
type serverState struct {
	name       string
	transport  string
	client     *mcpclient.Client
	connected  atomic.Bool
	toolNames  []string
	agentNames []string
	timeoutSec int
	cancel     context.CancelFunc

	mu             sync.Mutex
	reconnAttempts int
	lastErr        string
}

// Manager owns every MCP server connection configured in
// config.ToolsConfig.McpServers and registers discovered tools onto the
// given toolregistry.Registry under the agent names each server config
// names (config.MCPServerConfig.Agents), defaulting to the root agent.
type Manager struct {
	mu       sync.RWMutex
	servers  map[string]*serverState
	registry *toolregistry.Registry
}

// NewManager creates a Manager bound to registry. Tools discovered from
// MCP servers are registered there and pruned from there on disconnect,
// exactly like any other ToolHandle source.
func NewManager(registry *toolregistry.Registry) *Manager {
	return &Manager{
		servers:  make(map[string]*serverState),
		registry: registry,
	}
}

// Start connects every enabled server in cfgs. Connection failures are
// logged and skipped rather than fatal — a misconfigured MCP server
// should not prevent the gateway from serving the rest of the agent
// graph.
func (m *Manager) Start(ctx context.Context, cfgs map[string]*config.MCPServerConfig) error {
	if len(cfgs) == 0 {
		return nil
	}

	var errs []string
	for name, cfg := range cfgs {
		if !cfg.IsEnabled() {
			slog.Info("mcp.server.disabled", "server", name)
			continue
		}

		targets := cfg.Agents
		if len(targets) == 0 {
			targets = []string{agents.RootAgentName}
		}

		if err := m.connectServer(ctx, name, cfg, targets); err != nil {
			slog.Warn("mcp.server.connect_failed", "server", name, "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("some MCP servers failed to connect: %s", joinErrors(errs))
	}
	return nil
}

// Reconcile brings the live server set in line with cfgs: servers removed
// from cfgs or now disabled are disconnected (pruning their tools from the
// registry), and servers newly present or re-enabled are connected. Called after a
// config hot-reload; Start itself is only the initial, additive boot pass.
func (m *Manager) Reconcile(ctx context.Context, cfgs map[string]*config.MCPServerConfig) {
	m.mu.RLock()
	current := make([]string, 0, len(m.servers))
	for name := range m.servers {
		current = append(current, name)
	}
	m.mu.RUnlock()

	for _, name := range current {
		cfg, ok := cfgs[name]
		if !ok || !cfg.IsEnabled() {
			m.disconnectServer(name)
		}
	}

	for name, cfg := range cfgs {
		if !cfg.IsEnabled() {
			continue
		}
		m.mu.RLock()
		_, connected := m.servers[name]
		m.mu.RUnlock()
		if connected {
			continue
		}
		targets := cfg.Agents
		if len(targets) == 0 {
			targets = []string{agents.RootAgentName}
		}
		if err := m.connectServer(ctx, name, cfg, targets); err != nil {
			slog.Warn("mcp.server.reconnect_failed", "server", name, "error", err)
		}
	}
}

// Stop shuts down every MCP server connection and prunes their tools from
// the registry.
func (m *Manager) Stop() {
	m.mu.Lock()
	names := make([]string, 0, len(m.servers))
	for name := range m.servers {
		names = append(names, name)
	}
	m.mu.Unlock()

	for _, name := range names {
		m.disconnectServer(name)
	}
}

// disconnectServer cancels the health loop, closes the transport, and
// prunes the server's tools from every agent that had them.
func (m *Manager) disconnectServer(name string) {
	m.mu.Lock()
	ss, ok := m.servers[name]
	if ok {
		delete(m.servers, name)
	}
	m.mu.Unlock()
	if !ok {
		return
	}

	if ss.cancel != nil {
		ss.cancel()
	}
	if ss.client != nil {
		if err := ss.client.Close(); err != nil {
			slog.Debug("mcp.server.close_error", "server", name, "error", err)
		}
	}
	m.registry.PruneServer(name)
	slog.Info("mcp.server.disconnected", "server", name, "tools", len(ss.toolNames))
}

// ServerStatus returns the status of every known MCP server.
func (m *Manager) ServerStatus() []ServerStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make([]ServerStatus, 0, len(m.servers))
	for _, ss := range m.servers {
		ss.mu.Lock()
		lastErr := ss.lastErr
		ss.mu.Unlock()
		statuses = append(statuses, ServerStatus{
			Name:      ss.name,
			Transport: ss.transport,
			Connected: ss.connected.Load(),
			ToolCount: len(ss.toolNames),
			Error:     lastErr,
		})
	}
	return statuses
}
