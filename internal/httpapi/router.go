// Package httpapi implements the gateway's REST surface: chat,
// session CRUD, scheduler/reminder/webhook management, tool/agent
// introspection, the admin surface, and the TTS/STT stubs. The WebSocket
// endpoint itself is served by internal/wsapi; this package only extracts
// the session id and hands the request off.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/radbot/gateway/internal/agents"
	"github.com/radbot/gateway/internal/config"
	"github.com/radbot/gateway/internal/credential"
	"github.com/radbot/gateway/internal/mcp"
	"github.com/radbot/gateway/internal/runner"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/store"
	"github.com/radbot/gateway/internal/toolregistry"
	"github.com/radbot/gateway/internal/webhook"
	"github.com/radbot/gateway/internal/wsapi"
)

// Deps is every collaborator the router needs. Leaving one of Scheduler,
// Reminders, Webhooks, WebhookDisp or Credentials nil makes its routes
// respond 501, rather than the router needing a second construction path.
type Deps struct {
	Config      *config.Config
	Sessions    *session.Manager
	Agents      *agents.Registry
	Tools       *toolregistry.Registry
	Runner      *runner.Runner
	WS          *wsapi.Server
	MCP         *mcp.Manager
	Scheduler   store.ScheduledTaskStore
	Reminders   store.ReminderStore
	Webhooks    store.WebhookDefinitionStore
	WebhookDisp *webhook.Dispatcher
	Credentials credential.Store
	Log         *slog.Logger
}

func (d *Deps) logger() *slog.Logger {
	if d.Log != nil {
		return d.Log
	}
	return slog.Default()
}

// NewRouter builds the full chi router.
func NewRouter(d *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	h := &handlers{d: d}

	r.Handle("/metrics", promhttp.Handler())

	var limited []func(http.Handler) http.Handler
	if rpm := d.Config.Gateway.RateLimitRPM; rpm > 0 {
		limited = append(limited, newIPLimiter(rpm).middleware)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(limited...)
		r.Post("/chat", h.postChat)

		r.Get("/sessions", h.listSessions)
		r.Post("/sessions", h.createSession)
		r.Delete("/sessions/{id}", h.deleteSession)
		r.Get("/sessions/{id}/reset", h.resetSession)
		r.Get("/sessions/{id}/events", h.sessionEvents)

		r.Get("/tasks", h.todoStub)
		r.Post("/tasks", h.todoStub)
		r.Put("/tasks/{id}", h.todoStub)
		r.Delete("/tasks/{id}", h.todoStub)

		r.Get("/scheduler/tasks", h.listScheduledTasks)
		r.Post("/scheduler/tasks", h.createScheduledTask)
		r.Put("/scheduler/tasks/{id}", h.updateScheduledTask)
		r.Delete("/scheduler/tasks/{id}", h.deleteScheduledTask)

		r.Get("/webhooks/definitions", h.listWebhookDefinitions)
		r.Post("/webhooks/definitions", h.createWebhookDefinition)
		r.Delete("/webhooks/definitions/{id}", h.deleteWebhookDefinition)

		r.Get("/tools", h.listTools)
		r.Get("/agent-info", h.agentInfo)

		r.Post("/tts/synthesize", h.ttsSynthesize)
		r.Post("/stt/transcribe", h.sttTranscribe)
	})

	r.With(limited...).Post("/webhooks/{slug}", h.dispatchWebhook)

	r.Get("/ws/{session_id}", h.ws)

	r.Route("/admin", func(r chi.Router) {
		r.Use(h.requireAdminToken)
		r.Get("/config", h.adminConfigView)
		r.Get("/credentials", h.listCredentials)
		r.Put("/credentials/{name}", h.putCredential)
		r.Delete("/credentials/{name}", h.deleteCredential)
		r.Get("/mcp/servers", h.adminMCPStatus)
	})

	return r
}

type handlers struct {
	d *Deps
}
