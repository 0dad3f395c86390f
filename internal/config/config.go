package config

import (
	"encoding/json"
	"fmt"
	"sync"
)

// FlexibleStringSlice accepts both ["str"] and [123] in JSON.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}
	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

// DefaultAgentID is returned by ResolveDefaultAgentID when no agent in
// Agents.List is marked default.
const DefaultAgentID = "beto"

// Config is the root configuration for the gateway. It is guarded by mu so
// a hot-reload (fsnotify-triggered Load followed by ReplaceFrom) never races
// a concurrent read from the runner or HTTP handlers.
type Config struct {
	Agent           AgentConfig               `json:"agent"`
	Agents          AgentsConfig              `json:"agents"`
	Cache           CacheConfig               `json:"cache,omitempty"`
	Logging         LoggingConfig             `json:"logging,omitempty"`
	Integrations    map[string]Integration    `json:"integrations,omitempty"`
	Providers       ProvidersConfig           `json:"providers,omitempty"`
	APIKeys         map[string]string         `json:"api_keys,omitempty"`
	Gateway         GatewayConfig             `json:"gateway"`
	Tools           ToolsConfig               `json:"tools"`
	Sessions        SessionsConfig            `json:"sessions"`
	Database        DatabaseConfig            `json:"database,omitempty"`
	CredentialKey   string                    `json:"-"` // from env RADBOT_CREDENTIAL_KEY only
	AdminToken      string                    `json:"-"` // from env RADBOT_ADMIN_TOKEN only
	ClaudeTemplates map[string]string         `json:"claude_templates,omitempty"`
	Telemetry       TelemetryConfig           `json:"telemetry,omitempty"`
	mu              sync.RWMutex
}

// AgentConfig is the top-level "agent" section: model selection shared by
// every agent unless overridden per-agent in Agents.List.
type AgentConfig struct {
	MainModel      string            `json:"main_model"`
	SubModel       string            `json:"sub_model,omitempty"`
	ModelOverrides map[string]string `json:"model_overrides,omitempty"` // agent name -> model id
	Vertex         VertexConfig      `json:"vertex,omitempty"`
}

// VertexConfig configures routing Anthropic calls through Google Vertex AI
// instead of the direct Anthropic API.
type VertexConfig struct {
	Enabled  bool   `json:"enabled,omitempty"`
	Project  string `json:"project,omitempty"`
	Location string `json:"location,omitempty"`
}

// CacheConfig controls the on-disk response/tool cache.
type CacheConfig struct {
	Dir        string `json:"dir,omitempty"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

// LoggingConfig controls the slog handler built at startup.
type LoggingConfig struct {
	Level  string `json:"level,omitempty"`  // "debug", "info" (default), "warn", "error"
	Format string `json:"format,omitempty"` // "text" (default) or "json"
}

// Integration is a generic enable/config blob for a narrow external
// collaborator (ntfy notification sink, a calendar/mail/home-control
// backend, etc). The gateway core never interprets Config's contents; each
// collaborator's own client parses the keys it expects.
type Integration struct {
	Enabled bool              `json:"enabled"`
	Config  map[string]string `json:"config,omitempty"`
}

// DatabaseConfig configures Postgres for managed mode.
// PostgresDSN is NEVER read from the config file (secret) — only from env
// RADBOT_POSTGRES_DSN.
type DatabaseConfig struct {
	PostgresDSN string `json:"-"`
	Mode        string `json:"mode,omitempty"` // "standalone" (default) or "managed"
}

// IsManagedMode returns true if the gateway is running in managed
// (Postgres-backed) mode rather than the embedded-SQLite standalone mode.
func (c *Config) IsManagedMode() bool {
	return c.Database.Mode == "managed" && c.Database.PostgresDSN != ""
}

// TelemetryConfig configures OpenTelemetry export for traces and spans.
type TelemetryConfig struct {
	Enabled     bool              `json:"enabled,omitempty"`
	Endpoint    string            `json:"endpoint,omitempty"`
	Protocol    string            `json:"protocol,omitempty"` // "grpc" (default) or "http"
	Insecure    bool              `json:"insecure,omitempty"`
	ServiceName string            `json:"service_name,omitempty"`
	Headers     map[string]string `json:"headers,omitempty"`
}

// AgentsConfig is the "agents.list" section: the agent graph definitions
// consumed by internal/agents.BuildFromConfig.
type AgentsConfig struct {
	List map[string]AgentSpec `json:"list,omitempty"`
}

// AgentSpec is one node's configuration: instruction text, explicit tool
// names, and the set of agents it may transfer to. The root agent ("beto")
// need not list every other agent — the registry adds the rest per the
// hub-and-spoke rule at registration time.
type AgentSpec struct {
	DisplayName      string   `json:"display_name,omitempty"`
	Instruction      string   `json:"instruction"`
	Tools            []string `json:"tools,omitempty"`
	AllowedTransfers []string `json:"allowed_transfers,omitempty"`
	Model            string   `json:"model,omitempty"` // overrides Agent.MainModel/ModelOverrides
	Default          bool     `json:"default,omitempty"`
}

// Snapshot returns a value copy of c's data fields (no mutex, safe to
// marshal or hand to a caller outside the lock). Used by the admin
// config-view endpoint; secrets tagged json:"-" (CredentialKey,
// AdminToken, Database.PostgresDSN) never appear in the copy's JSON
// encoding.
func (c *Config) Snapshot() Config {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Config{
		Agent:           c.Agent,
		Agents:          c.Agents,
		Cache:           c.Cache,
		Logging:         c.Logging,
		Integrations:    c.Integrations,
		Providers:       c.Providers,
		APIKeys:         c.APIKeys,
		Gateway:         c.Gateway,
		Tools:           c.Tools,
		Sessions:        c.Sessions,
		Database:        c.Database,
		ClaudeTemplates: c.ClaudeTemplates,
		Telemetry:       c.Telemetry,
	}
}

// ReplaceFrom copies all data fields from src into c, preserving c's mutex.
// Used for hot-reload: Load a fresh Config, then ReplaceFrom it into the
// live one so existing holders of *Config keep seeing fresh data.
func (c *Config) ReplaceFrom(src *Config) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Agent = src.Agent
	c.Agents = src.Agents
	c.Cache = src.Cache
	c.Logging = src.Logging
	c.Integrations = src.Integrations
	c.Providers = src.Providers
	c.APIKeys = src.APIKeys
	c.Gateway = src.Gateway
	c.Tools = src.Tools
	c.Sessions = src.Sessions
	c.Database = src.Database
	c.CredentialKey = src.CredentialKey
	c.AdminToken = src.AdminToken
	c.ClaudeTemplates = src.ClaudeTemplates
	c.Telemetry = src.Telemetry
}
