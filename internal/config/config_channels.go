package config

// ProvidersConfig carries per-provider credentials for the LLM providers
// this gateway actually implements (internal/providers). Additional
// provider names can still route through APIKeys in Config for providers
// that only need a bare key, but Anthropic/OpenAI get dedicated structs
// since they also carry an API base override.
type ProvidersConfig struct {
	Anthropic ProviderConfig `json:"anthropic"`
	OpenAI    ProviderConfig `json:"openai"`
}

type ProviderConfig struct {
	APIKey  string `json:"api_key"`
	APIBase string `json:"api_base,omitempty"`
}

// HasAnyProvider returns true if at least one provider has an API key
// configured, used at boot to fail fast with a clear error instead of
// failing on the first chat turn.
func (c *Config) HasAnyProvider() bool {
	return c.Providers.Anthropic.APIKey != "" || c.Providers.OpenAI.APIKey != ""
}

// GatewayConfig controls the HTTP/WS API surface.
type GatewayConfig struct {
	Host            string   `json:"host"`
	Port            int      `json:"port"`
	AllowedOrigins  []string `json:"allowed_origins,omitempty"` // WebSocket CORS whitelist (empty = allow all)
	MaxMessageChars int      `json:"max_message_chars,omitempty"`
	RateLimitRPM    int      `json:"rate_limit_rpm,omitempty"`
}

// ToolsConfig controls external MCP server connections.
type ToolsConfig struct {
	McpServers map[string]*MCPServerConfig `json:"mcp_servers,omitempty"`
}

// MCPServerConfig configures a single external MCP server connection.
type MCPServerConfig struct {
	Transport  string            `json:"transport"`             // "stdio", "sse", "streamable-http"
	Command    string            `json:"command,omitempty"`     // stdio: command to spawn
	Args       []string          `json:"args,omitempty"`        // stdio: command arguments
	Env        map[string]string `json:"env,omitempty"`         // stdio: extra environment variables
	URL        string            `json:"url,omitempty"`         // sse/http: server URL
	Headers    map[string]string `json:"headers,omitempty"`     // sse/http: extra HTTP headers
	Enabled    *bool             `json:"enabled,omitempty"`      // default true
	ToolPrefix string            `json:"tool_prefix,omitempty"`  // prefix for tool names (avoids collisions)
	TimeoutSec int               `json:"timeout_sec,omitempty"`  // per-tool-call timeout in seconds (default 60)
	Agents     []string          `json:"agents,omitempty"`       // agent names this server's tools attach to (empty = root agent only)
}

// IsEnabled returns whether this MCP server is enabled (default true).
func (c *MCPServerConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// SessionsConfig controls session persistence.
type SessionsConfig struct {
	Storage string `json:"storage"` // directory for the standalone/file-backed tier
}
