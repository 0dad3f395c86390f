package cmd

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/radbot/gateway/internal/config"
)

func TestNewLogger_VerboseFlagForcesDebugLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	log := newLogger(cfg, true)
	if !log.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected --verbose to force debug-level logging regardless of config")
	}
}

func TestNewLogger_RespectsConfiguredLevel(t *testing.T) {
	cfg := config.Default()
	cfg.Logging.Level = "warn"
	log := newLogger(cfg, false)
	if log.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug logs disabled when configured level is warn")
	}
}

func TestDeploymentMode(t *testing.T) {
	cfg := config.Default()
	if deploymentMode(cfg) != "standalone" {
		t.Errorf("expected standalone mode with no Postgres DSN, got %q", deploymentMode(cfg))
	}

	cfg.Database.PostgresDSN = "postgres://localhost/gateway"
	cfg.Database.Mode = "managed"
	if deploymentMode(cfg) != "managed" {
		t.Errorf("expected managed mode once a Postgres DSN and mode are set, got %q", deploymentMode(cfg))
	}
}

func TestBuildProvider_ErrorsWithNoAPIKeys(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Anthropic.APIKey = ""
	cfg.Providers.OpenAI.APIKey = ""
	if _, err := buildProvider(cfg); err == nil {
		t.Error("expected an error when neither provider has an API key")
	}
}

func TestBuildProvider_PrefersAnthropicOverOpenAI(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Anthropic.APIKey = "anthropic-key"
	cfg.Providers.OpenAI.APIKey = "openai-key"
	p, err := buildProvider(cfg)
	if err != nil {
		t.Fatalf("buildProvider: %v", err)
	}
	if p == nil {
		t.Fatal("expected a non-nil provider")
	}
}

func TestBuildNotifySink_NilWhenIntegrationMissing(t *testing.T) {
	cfg := config.Default()
	if sink := buildNotifySink(cfg); sink != nil {
		t.Error("expected nil sink when ntfy integration is absent")
	}
}

func TestBuildNotifySink_NilWhenDisabled(t *testing.T) {
	cfg := config.Default()
	cfg.Integrations = map[string]config.Integration{"ntfy": {Enabled: false}}
	if sink := buildNotifySink(cfg); sink != nil {
		t.Error("expected nil sink when ntfy integration is disabled")
	}
}

func TestBuildNotifySink_DefaultsServerWhenEnabled(t *testing.T) {
	cfg := config.Default()
	cfg.Integrations = map[string]config.Integration{"ntfy": {Enabled: true}}
	sink := buildNotifySink(cfg)
	if sink == nil {
		t.Fatal("expected a non-nil sink when ntfy is enabled")
	}
	if sink.Server != "https://ntfy.sh" {
		t.Errorf("expected default ntfy.sh server, got %q", sink.Server)
	}
}

func TestResolveConfigPath_PrefersFlagOverEnv(t *testing.T) {
	os.Setenv("RADBOT_CONFIG", "/env/config.json5")
	defer os.Unsetenv("RADBOT_CONFIG")

	cfgFile = "/flag/config.json5"
	defer func() { cfgFile = "" }()

	if got := resolveConfigPath(); got != "/flag/config.json5" {
		t.Errorf("resolveConfigPath = %q, want flag value", got)
	}
}

func TestResolveConfigPath_FallsBackToDefault(t *testing.T) {
	cfgFile = ""
	os.Unsetenv("RADBOT_CONFIG")
	os.Unsetenv("RADBOT_ENV")

	if got := resolveConfigPath(); got != "config.json5" {
		t.Errorf("resolveConfigPath = %q, want config.json5", got)
	}
}
