package config

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults. The agent graph is
// seeded with a minimal hub-and-spoke set (root "beto" plus the
// research/execution specialists) so the gateway boots and serves
// a usable chat turn with no config file present at all (see Load's own
// doc comment).
func Default() *Config {
	return &Config{
		Agent: AgentConfig{
			MainModel: "claude-sonnet-4-5-20250929",
			SubModel:  "claude-sonnet-4-5-20250929",
		},
		Agents: DefaultAgents(),
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Gateway: GatewayConfig{
			Host:            "0.0.0.0",
			Port:            18790,
			MaxMessageChars: 32000,
			RateLimitRPM:    20,
		},
		Sessions: SessionsConfig{
			Storage: "~/.radbot/sessions",
		},
	}
}

// DefaultAgents returns the minimal agent graph: "beto" (root coordinator),
// "scout" (research), and "axel" (parallel execution), each with
// beto as their only mandatory return target. Deployments that
// need domain specialists (calendar, mail, home-control, todo) declare
// them in their own config file's agents.list section; this default only
// guarantees the gateway's own core loop has somewhere to delegate.
func DefaultAgents() AgentsConfig {
	return AgentsConfig{
		List: map[string]AgentSpec{
			DefaultAgentID: {
				DisplayName: "Beto",
				Instruction: "You are beto, the root coordinator of a multi-agent assistant. " +
					"Handle general requests yourself. Delegate research questions to scout " +
					"(transfer_to_agent(agent_name=\"scout\")) and multi-part implementation " +
					"work to axel (transfer_to_agent(agent_name=\"axel\")).",
				AllowedTransfers: []string{"scout", "axel"},
				Default:          true,
			},
			"scout": {
				DisplayName: "Scout",
				Instruction: "You are scout, the research specialist. Investigate the question " +
					"you were transferred with using your tools, answer thoroughly, then call " +
					"transfer_to_agent(agent_name=\"beto\") to return control.",
				AllowedTransfers: []string{DefaultAgentID},
			},
			"axel": {
				DisplayName: "Axel",
				Instruction: "You are axel, the parallel execution specialist. Call " +
					"execute_specification with the work you were transferred, report the " +
					"resulting summary, then call transfer_to_agent(agent_name=\"beto\") to " +
					"return control.",
				Tools:            []string{"execute_specification"},
				AllowedTransfers: []string{DefaultAgentID},
			},
		},
	}
}

// Load reads config from a JSON5 file at path, then overlays environment
// variables. path missing is not an error: a default, env-overridden
// config is returned, so the gateway works with zero config file present.
// Env var RADBOT_ENV=<name> is consulted by the caller to pick
// config.<name>.json5 before calling Load; Load itself only reads path.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config. Env vars take
// precedence over file values, and are the only source for the Postgres
// DSN, the credential encryption key and the admin bearer token, so those
// never round-trip through Save. Provider API keys can also come from the
// file's providers section and are written back by Save.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("RADBOT_ANTHROPIC_API_KEY", &c.Providers.Anthropic.APIKey)
	envStr("RADBOT_ANTHROPIC_BASE_URL", &c.Providers.Anthropic.APIBase)
	envStr("RADBOT_OPENAI_API_KEY", &c.Providers.OpenAI.APIKey)
	envStr("RADBOT_OPENAI_BASE_URL", &c.Providers.OpenAI.APIBase)

	envStr("RADBOT_MAIN_MODEL", &c.Agent.MainModel)
	envStr("RADBOT_SUB_MODEL", &c.Agent.SubModel)

	envStr("RADBOT_HOST", &c.Gateway.Host)
	if v := os.Getenv("RADBOT_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Gateway.Port = port
		}
	}
	if v := os.Getenv("RADBOT_ALLOWED_ORIGINS"); v != "" {
		c.Gateway.AllowedOrigins = strings.Split(v, ",")
	}

	envStr("RADBOT_SESSIONS_STORAGE", &c.Sessions.Storage)

	envStr("RADBOT_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("RADBOT_MODE", &c.Database.Mode)

	envStr("RADBOT_CREDENTIAL_KEY", &c.CredentialKey)
	envStr("RADBOT_ADMIN_TOKEN", &c.AdminToken)

	envStr("RADBOT_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("RADBOT_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("RADBOT_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	if v := os.Getenv("RADBOT_TELEMETRY_ENABLED"); v != "" {
		c.Telemetry.Enabled = v == "true" || v == "1"
	}
	if v := os.Getenv("RADBOT_TELEMETRY_INSECURE"); v != "" {
		c.Telemetry.Insecure = v == "true" || v == "1"
	}

	if c.APIKeys == nil {
		c.APIKeys = map[string]string{}
	}
	const envPrefix = "RADBOT_APIKEY_"
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, envPrefix) {
			continue
		}
		parts := strings.SplitN(kv[len(envPrefix):], "=", 2)
		if len(parts) == 2 && parts[0] != "" {
			c.APIKeys[strings.ToLower(parts[0])] = parts[1]
		}
	}
}

// Save writes the config to a JSON file. Secrets held only via env (see
// applyEnvOverrides) are tagged json:"-" and never round-trip here.
func Save(path string, cfg *Config) error {
	cfg.mu.RLock()
	defer cfg.mu.RUnlock()

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// Hash returns a SHA-256 hash of the config, used to detect whether a
// fsnotify-triggered reload actually changed anything worth acting on.
func (c *Config) Hash() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	data, _ := json.Marshal(c)
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:8])
}

// WorkspacePath returns the expanded session storage path.
func (c *Config) WorkspacePath() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return ExpandHome(c.Sessions.Storage)
}

// ResolveModel returns the effective model id for the named agent: its
// own AgentSpec.Model if set, else Agent.ModelOverrides[name], else
// Agent.MainModel.
func (c *Config) ResolveModel(agentName string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if spec, ok := c.Agents.List[agentName]; ok && spec.Model != "" {
		return spec.Model
	}
	if m, ok := c.Agent.ModelOverrides[agentName]; ok && m != "" {
		return m
	}
	return c.Agent.MainModel
}

// ResolveDefaultAgentID returns the name of the agent marked default in
// Agents.List, or DefaultAgentID ("beto") if none is.
func (c *Config) ResolveDefaultAgentID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for name, spec := range c.Agents.List {
		if spec.Default {
			return name
		}
	}
	return DefaultAgentID
}

// ResolveDisplayName returns the display name for an agent, falling back
// to the agent's own name if none is configured.
func (c *Config) ResolveDisplayName(agentName string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if spec, ok := c.Agents.List[agentName]; ok && spec.DisplayName != "" {
		return spec.DisplayName
	}
	return agentName
}

// ApplyEnvOverrides re-applies environment variable overrides onto the
// config. Call this after ReplaceFrom-ing in a freshly loaded config that
// skipped Load's own env pass (e.g. constructed in a test).
func (c *Config) ApplyEnvOverrides() {
	c.applyEnvOverrides()
}

// ExpandHome replaces a leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
