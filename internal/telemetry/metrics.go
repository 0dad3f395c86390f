package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus instrumentation for the orchestration hot paths. Everything
// registers against the default registry, which the HTTP surface exposes
// at /metrics via promhttp.
var (
	turnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radbot_turns_total",
			Help: "Completed runner turns by ending agent and status",
		},
		[]string{"agent", "status"},
	)

	turnDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radbot_turn_duration_seconds",
			Help:    "Wall-clock duration of one runner turn",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"agent"},
	)

	toolInvocations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radbot_tool_invocations_total",
			Help: "Tool registry invocations by tool name and status",
		},
		[]string{"tool_name", "status"},
	)

	toolDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "radbot_tool_invocation_duration_seconds",
			Help:    "Duration of tool invocations",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
		[]string{"tool_name"},
	)

	transfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radbot_transfers_total",
			Help: "transfer_to_agent attempts by outcome",
		},
		[]string{"status"},
	)

	workerTasks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radbot_worker_tasks_total",
			Help: "Axel worker task completions by task type and status",
		},
		[]string{"task_type", "status"},
	)

	schedulerFires = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radbot_scheduler_fires_total",
			Help: "Scheduled task fires by status",
		},
		[]string{"status"},
	)

	wsSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "radbot_ws_subscribers",
			Help: "Currently connected WebSocket subscribers across all sessions",
		},
	)
)

// ObserveTurn records one finished runner turn. status is "ok", "error", or
// "timeout"; agent is whichever agent was current when the turn ended.
func ObserveTurn(agent, status string, seconds float64) {
	turnsTotal.WithLabelValues(agent, status).Inc()
	turnDuration.WithLabelValues(agent).Observe(seconds)
}

// ObserveToolInvocation records one registry dispatch. status is "ok" or the
// ToolError code (Unknown, Disabled, BadArgs, Upstream, ...).
func ObserveToolInvocation(toolName, status string, seconds float64) {
	toolInvocations.WithLabelValues(toolName, status).Inc()
	toolDuration.WithLabelValues(toolName).Observe(seconds)
}

// ObserveTransfer records a transfer attempt; status is "allowed" or "denied".
func ObserveTransfer(status string) {
	transfersTotal.WithLabelValues(status).Inc()
}

// ObserveWorkerTask records one axel worker's final TaskResult.
func ObserveWorkerTask(taskType, status string) {
	workerTasks.WithLabelValues(taskType, status).Inc()
}

// ObserveSchedulerFire records one scheduled-task fire; status is "ok",
// "error", or "skipped" (lost the at-most-one-in-flight claim).
func ObserveSchedulerFire(status string) {
	schedulerFires.WithLabelValues(status).Inc()
}

// WSSubscriberConnected / WSSubscriberGone track the live subscriber gauge.
func WSSubscriberConnected() { wsSubscribers.Inc() }
func WSSubscriberGone()      { wsSubscribers.Dec() }
