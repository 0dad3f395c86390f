package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcpgo "github.com/mark3labs/mcp-go/mcp"

	"github.com/radbot/gateway/internal/config"
	"github.com/radbot/gateway/internal/tools"
	"github.com/radbot/gateway/internal/toolregistry"
)

// connectServer creates a client, performs the MCP handshake, discovers
// tools, and registers a bridging ToolHandle for each onto every agent in
// targets.
func (m *Manager) connectServer(ctx context.Context, name string, cfg *config.MCPServerConfig, targets []string) error {
	client, err := createClient(cfg.Transport, cfg.Command, cfg.Args, cfg.Env, cfg.URL, cfg.Headers)
	if err != nil {
		return fmt.Errorf("create client: %w", err)
	}

	if cfg.Transport != "stdio" {
		if err := client.Start(ctx); err != nil {
			_ = client.Close()
			return fmt.Errorf("start transport: %w", err)
		}
	}

	initReq := mcpgo.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcpgo.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcpgo.Implementation{
		Name:    "radbot-gateway",
		Version: "1.0.0",
	}
	if _, err := client.Initialize(ctx, initReq); err != nil {
		_ = client.Close()
		return fmt.Errorf("initialize: %w", err)
	}

	toolsResult, err := client.ListTools(ctx, mcpgo.ListToolsRequest{})
	if err != nil {
		_ = client.Close()
		return fmt.Errorf("list tools: %w", err)
	}

	timeoutSec := cfg.TimeoutSec
	if timeoutSec <= 0 {
		timeoutSec = 60
	}

	ss := &serverState{
		name:       name,
		transport:  cfg.Transport,
		client:     client,
		timeoutSec: timeoutSec,
		agentNames: targets,
	}
	ss.connected.Store(true)

	var registeredNames []string
	for _, mcpTool := range toolsResult.Tools {
		handle := m.buildToolHandle(name, mcpTool, client, cfg.ToolPrefix, timeoutSec)
		for _, agentName := range targets {
			if err := m.registry.Register(agentName, handle); err != nil {
				slog.Warn("mcp.tool.register_failed", "server", name, "tool", handle.Name, "agent", agentName, "error", err)
				continue
			}
		}
		registeredNames = append(registeredNames, handle.Name)
	}
	ss.toolNames = registeredNames

	hctx, hcancel := context.WithCancel(context.Background())
	ss.cancel = hcancel
	go m.healthLoop(hctx, ss)

	m.mu.Lock()
	m.servers[name] = ss
	m.mu.Unlock()

	slog.Info("mcp.server.connected", "server", name, "transport", cfg.Transport, "tools", len(registeredNames))
	return nil
}

// buildToolHandle bridges a single MCP tool into a toolregistry.ToolHandle.
// Name collisions across servers are avoided with toolPrefix (config) rather
// than a hash, since server names are operator-chosen and stable.
func (m *Manager) buildToolHandle(serverName string, mcpTool mcpgo.Tool, client *mcpclient.Client, toolPrefix string, timeoutSec int) toolregistry.ToolHandle {
	name := mcpTool.Name
	if toolPrefix != "" {
		name = toolPrefix + mcpTool.Name
	}

	schema := json.RawMessage(`{"type":"object"}`)
	if raw, err := json.Marshal(mcpTool.InputSchema); err == nil && len(raw) > 0 {
		schema = raw
	}

	return toolregistry.ToolHandle{
		Name:        name,
		Description: fmt.Sprintf("MCP tool %s.%s: %s", serverName, mcpTool.Name, mcpTool.Description),
		InputSchema: schema,
		Source:      toolregistry.Source{Kind: "mcp", ServerID: serverName},
		Invoke: func(args map[string]any, tc toolregistry.ToolContext) (*tools.Result, error) {
			callCtx, cancel := context.WithTimeout(tc.Ctx, time.Duration(timeoutSec)*time.Second)
			defer cancel()

			req := mcpgo.CallToolRequest{}
			req.Params.Name = mcpTool.Name
			req.Params.Arguments = args

			res, err := client.CallTool(callCtx, req)
			if err != nil {
				return nil, fmt.Errorf("mcp call %s.%s: %w", serverName, mcpTool.Name, err)
			}

			text := formatCallResult(res)
			if res != nil && res.IsError {
				err := fmt.Errorf("mcp tool %s.%s reported an error", serverName, mcpTool.Name)
				return tools.ErrorResult(text).WithError(err), nil
			}
			return tools.NewResult(text), nil
		},
	}
}

// formatCallResult flattens MCP content blocks into a single string for the
// LLM. Non-text content (images, embedded resources) is rendered as a JSON
// fallback rather than dropped.
func formatCallResult(res *mcpgo.CallToolResult) string {
	if res == nil || len(res.Content) == 0 {
		return ""
	}

	var b strings.Builder
	allText := true
	for _, c := range res.Content {
		tc, ok := mcpgo.AsTextContent(c)
		if !ok {
			allText = false
			break
		}
		if b.Len() > 0 {
			b.WriteString("\n")
		}
		b.WriteString(tc.Text)
	}
	if allText {
		return b.String()
	}

	raw, err := json.Marshal(res.Content)
	if err != nil {
		return ""
	}
	return string(raw)
}

// createClient builds the transport-appropriate MCP client.
func createClient(transportType, command string, args []string, env map[string]string, url string, headers map[string]string) (*mcpclient.Client, error) {
	switch transportType {
	case "stdio":
		return mcpclient.NewStdioMCPClient(command, mapToEnvSlice(env), args...)

	case "sse":
		var opts []transport.ClientOption
		if len(headers) > 0 {
			opts = append(opts, mcpclient.WithHeaders(headers))
		}
		return mcpclient.NewSSEMCPClient(url, opts...)

	case "streamable-http":
		var opts []transport.StreamableHTTPCOption
		if len(headers) > 0 {
			opts = append(opts, transport.WithHTTPHeaders(headers))
		}
		return mcpclient.NewStreamableHttpClient(url, opts...)

	default:
		return nil, fmt.Errorf("unsupported transport: %q", transportType)
	}
}

// healthLoop periodically pings the server and triggers reconnection with
// backoff when the ping fails for a reason other than the server simply not
// implementing ping.
func (m *Manager) healthLoop(ctx context.Context, ss *serverState) {
	ticker := time.NewTicker(healthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := ss.client.Ping(ctx); err != nil {
				if strings.Contains(strings.ToLower(err.Error()), "method not found") {
					ss.connected.Store(true)
					ss.mu.Lock()
					ss.reconnAttempts = 0
					ss.lastErr = ""
					ss.mu.Unlock()
					continue
				}
				ss.connected.Store(false)
				ss.mu.Lock()
				ss.lastErr = err.Error()
				ss.mu.Unlock()
				slog.Warn("mcp.server.health_failed", "server", ss.name, "error", err)
				m.tryReconnect(ctx, ss)
			} else {
				ss.connected.Store(true)
				ss.mu.Lock()
				ss.reconnAttempts = 0
				ss.lastErr = ""
				ss.mu.Unlock()
			}
		}
	}
}

// tryReconnect backs off exponentially (2s, 4s, 8s, ... capped at 60s) and
// gives up after maxReconnectAttempts, leaving the server marked down until
// a later health-check ping succeeds. A config reload does not reconnect a
// server that is still configured.
func (m *Manager) tryReconnect(ctx context.Context, ss *serverState) {
	ss.mu.Lock()
	if ss.reconnAttempts >= maxReconnectAttempts {
		ss.lastErr = fmt.Sprintf("max reconnect attempts (%d) reached", maxReconnectAttempts)
		ss.mu.Unlock()
		slog.Error("mcp.server.reconnect_exhausted", "server", ss.name)
		return
	}
	ss.reconnAttempts++
	attempt := ss.reconnAttempts
	ss.mu.Unlock()

	backoff := initialBackoff * time.Duration(1<<(attempt-1))
	if backoff > maxBackoff {
		backoff = maxBackoff
	}

	slog.Info("mcp.server.reconnecting", "server", ss.name, "attempt", attempt, "backoff", backoff)

	select {
	case <-ctx.Done():
		return
	case <-time.After(backoff):
	}

	if err := ss.client.Ping(ctx); err == nil {
		ss.connected.Store(true)
		ss.mu.Lock()
		ss.reconnAttempts = 0
		ss.lastErr = ""
		ss.mu.Unlock()
		slog.Info("mcp.server.reconnected", "server", ss.name)
	}
}
