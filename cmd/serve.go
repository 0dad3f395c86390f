package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/radbot/gateway/internal/agents"
	"github.com/radbot/gateway/internal/builtins"
	"github.com/radbot/gateway/internal/config"
	"github.com/radbot/gateway/internal/credential"
	"github.com/radbot/gateway/internal/eventbus"
	"github.com/radbot/gateway/internal/httpapi"
	"github.com/radbot/gateway/internal/invoker"
	"github.com/radbot/gateway/internal/mcp"
	"github.com/radbot/gateway/internal/notify"
	"github.com/radbot/gateway/internal/providers"
	"github.com/radbot/gateway/internal/reminder"
	"github.com/radbot/gateway/internal/runner"
	"github.com/radbot/gateway/internal/scheduler"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/store"
	"github.com/radbot/gateway/internal/store/pg"
	"github.com/radbot/gateway/internal/store/sqlite"
	"github.com/radbot/gateway/internal/telemetry"
	"github.com/radbot/gateway/internal/toolregistry"
	"github.com/radbot/gateway/internal/transfer"
	"github.com/radbot/gateway/internal/webhook"
	"github.com/radbot/gateway/internal/worker"
	"github.com/radbot/gateway/internal/wsapi"
)

// serve starts the gateway's HTTP/WebSocket server along with every
// background invocation source (scheduler, reminder queue, webhook
// dispatcher) and the MCP server pool, then blocks until SIGINT/SIGTERM.
// Wiring order is config, logging, stores, agent graph, runner, background
// subsystems, then the HTTP listener last so a misconfigured agent graph
// fails fast before anything starts accepting connections.
func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the gateway server (default action)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe()
		},
	}
}

func runServe() error {
	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := newLogger(cfg, verbose)
	slog.SetDefault(log)

	if !cfg.HasAnyProvider() {
		return fmt.Errorf("no LLM provider API key configured: set RADBOT_ANTHROPIC_API_KEY or RADBOT_OPENAI_API_KEY")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Init(ctx, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTelemetry(shutdownCtx); err != nil {
			log.Warn("telemetry shutdown failed", "error", err)
		}
	}()

	stores, credStore, err := openStores(cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.DB.Close()

	hub := eventbus.NewHub()
	sessions := session.NewManager(stores.Sessions, log)
	sessions.SetPublisher(hub)

	provider, err := buildProvider(cfg)
	if err != nil {
		return fmt.Errorf("build provider: %w", err)
	}

	toolRegistry := toolregistry.NewRegistry()
	transferHandle := transfer.ToolHandle()

	pool := &worker.Pool{Provider: provider, Sessions: sessions}
	builtinTools := []toolregistry.ToolHandle{
		builtins.CurrentTimeTool(),
		worker.ExecuteSpecificationTool(pool),
	}
	builtinTools = append(builtinTools, builtins.MemoryTools(sessions)...)

	agentRegistry, err := agents.BuildFromConfig(cfg, toolRegistry, transferHandle, builtinTools)
	if err != nil {
		return fmt.Errorf("build agent graph: %w", err)
	}
	// A worker gets the same tools axel itself carries, minus
	// execute_specification (no spawn-of-spawn) and transfer_to_agent
	// (a worker's result is returned to its caller, it never hands off).
	for _, h := range toolRegistry.ToolsFor("axel") {
		if h.Name == "execute_specification" || h.Name == agents.TransferToolName {
			continue
		}
		pool.Tools = append(pool.Tools, h)
	}

	transferController := transfer.NewController(agentRegistry, sessions)

	run := &runner.Runner{
		Sessions: sessions,
		Agents:   agentRegistry,
		Tools:    toolRegistry,
		Transfer: transferController,
		Provider: provider,
		Log:      log,
	}

	mcpManager := mcp.NewManager(toolRegistry)
	if err := mcpManager.Start(ctx, cfg.Tools.McpServers); err != nil {
		log.Warn("mcp.start_errors", "error", err)
	}
	defer mcpManager.Stop()

	if _, err := os.Stat(cfgPath); err == nil {
		watchStop := make(chan struct{})
		go func() {
			<-ctx.Done()
			close(watchStop)
		}()
		go func() {
			if err := config.Watch(cfgPath, cfg, watchStop, log); err != nil {
				log.Warn("config.watch_exited", "error", err)
			}
		}()
		go func() {
			lastHash := cfg.Hash()
			ticker := time.NewTicker(2 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-watchStop:
					return
				case <-ticker.C:
					h := cfg.Hash()
					if h != lastHash {
						lastHash = h
						mcpManager.Reconcile(ctx, cfg.Tools.McpServers)
					}
				}
			}
		}()
	}

	inv := &invoker.Invoker{Sessions: sessions, Runner: run}
	notifySink := buildNotifySink(cfg)

	sched := scheduler.New(stores.Scheduler, inv, notifySink, log)
	go sched.Run(ctx)

	reminders, err := reminder.New(stores.Reminders, inv, notifySink, log)
	if err != nil {
		return fmt.Errorf("build reminder queue: %w", err)
	}
	go reminders.Run(ctx)

	webhookDisp := webhook.New(stores.Webhooks, inv, log)

	wsServer := wsapi.NewServer(hub, sessions, run, cfg.Gateway.AllowedOrigins)
	wsServer.Log = log

	router := httpapi.NewRouter(&httpapi.Deps{
		Config:      cfg,
		Sessions:    sessions,
		Agents:      agentRegistry,
		Tools:       toolRegistry,
		Runner:      run,
		WS:          wsServer,
		MCP:         mcpManager,
		Scheduler:   stores.Scheduler,
		Reminders:   stores.Reminders,
		Webhooks:    stores.Webhooks,
		WebhookDisp: webhookDisp,
		Credentials: credStore,
		Log:         log,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Gateway.Host, cfg.Gateway.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("gateway.listening", "addr", addr, "mode", deploymentMode(cfg))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			return
		}
		serveErr <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info("gateway.shutting_down")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("gateway.shutdown_error", "error", err)
	}
	return nil
}

func newLogger(cfg *config.Config, verboseFlag bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verboseFlag {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	return slog.New(handler)
}

func deploymentMode(cfg *config.Config) string {
	if cfg.IsManagedMode() {
		return "managed"
	}
	return "standalone"
}

// openStores picks the Postgres tier for managed deployments and the
// embedded sqlite tier otherwise, then builds the matching credential.Store
// over the same *sql.DB handle (store.Stores.DB).
func openStores(cfg *config.Config) (*store.Stores, credential.Store, error) {
	if cfg.IsManagedMode() {
		stores, err := pg.NewPGStores(store.StoreConfig{PostgresDSN: cfg.Database.PostgresDSN})
		if err != nil {
			return nil, nil, err
		}
		return stores, credential.NewPGStore(stores.DB, cfg.CredentialKey), nil
	}

	dbPath := filepath.Join(cfg.WorkspacePath(), "gateway.db")
	stores, err := sqlite.NewStores(dbPath)
	if err != nil {
		return nil, nil, err
	}
	return stores, credential.NewSQLiteStore(stores.DB, cfg.CredentialKey), nil
}

// buildProvider picks Anthropic if configured, falling back to OpenAI —
// both are wired into every agent's model resolution via cfg.ResolveModel,
// so only one default chat Provider is needed at the Runner/Pool level.
func buildProvider(cfg *config.Config) (providers.Provider, error) {
	if cfg.Providers.Anthropic.APIKey != "" {
		opts := []providers.AnthropicOption{providers.WithAnthropicModel(cfg.Agent.MainModel)}
		if cfg.Providers.Anthropic.APIBase != "" {
			opts = append(opts, providers.WithAnthropicBaseURL(cfg.Providers.Anthropic.APIBase))
		}
		return providers.NewAnthropicProvider(cfg.Providers.Anthropic.APIKey, opts...), nil
	}
	if cfg.Providers.OpenAI.APIKey != "" {
		return providers.NewOpenAIProvider("openai", cfg.Providers.OpenAI.APIKey, cfg.Providers.OpenAI.APIBase, cfg.Agent.MainModel), nil
	}
	return nil, fmt.Errorf("no provider configured: set RADBOT_ANTHROPIC_API_KEY or RADBOT_OPENAI_API_KEY")
}

// buildNotifySink returns a notify.Sink for the "ntfy" integration if
// enabled, or nil — the Scheduler and Reminder Queue both treat a nil sink
// as "no notification configured" and skip publishing.
func buildNotifySink(cfg *config.Config) *notify.Sink {
	integ, ok := cfg.Integrations["ntfy"]
	if !ok || !integ.Enabled {
		return nil
	}
	server := integ.Config["server"]
	if server == "" {
		server = "https://ntfy.sh"
	}
	return notify.NewSink(server)
}
