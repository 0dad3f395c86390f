// Package runner drives one turn of a conversation: it resolves the
// session's current agent, calls the LLM with that agent's instruction and
// tools, dispatches any tool calls (including transfer_to_agent) through to
// completion, and returns the final assistant text.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/radbot/gateway/internal/agents"
	"github.com/radbot/gateway/internal/providers"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/telemetry"
	"github.com/radbot/gateway/internal/toolregistry"
	"github.com/radbot/gateway/internal/transfer"
)

const (
	// DefaultTurnTimeout is the per-turn wall-clock limit.
	DefaultTurnTimeout = 120 * time.Second
	// defaultMaxIterations bounds the model→tool→model loop so a
	// misbehaving agent can't spin forever inside one turn's deadline.
	defaultMaxIterations = 40

	turnTimeoutText = "turn_timeout"
)

// Runner ties the Session Manager, Agent Registry, Tool Registry, and
// Transfer Controller together into the one-turn loop described by the
// spec's Runner component.
type Runner struct {
	Sessions *session.Manager
	Agents   *agents.Registry
	Tools    *toolregistry.Registry
	Transfer *transfer.Controller
	Provider providers.Provider

	TurnTimeout   time.Duration
	MaxIterations int

	Log *slog.Logger
}

// TurnResult is what the caller (HTTP handler, scheduler, webhook
// dispatcher) gets back from a completed turn.
type TurnResult struct {
	SessionID string
	Content   string
	Events    []session.Event
}

func (r *Runner) timeout() time.Duration {
	if r.TurnTimeout > 0 {
		return r.TurnTimeout
	}
	return DefaultTurnTimeout
}

func (r *Runner) maxIterations() int {
	if r.MaxIterations > 0 {
		return r.MaxIterations
	}
	return defaultMaxIterations
}

func (r *Runner) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// RunTurn executes one turn for sessionID against user input U: append
// UserMessage(U), resolve current_agent, invoke the LLM, and loop through
// any tool calls (including transfers) until the model produces a final
// response or a transfer succeeds and the new agent in turn produces one.
func (r *Runner) RunTurn(ctx context.Context, sessionID, userText string) (*TurnResult, error) {
	ctx, span := telemetry.StartSpan(ctx, "runner.RunTurn")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, r.timeout())
	defer cancel()

	s, ok := r.Sessions.Get(sessionID)
	if !ok {
		return nil, fmt.Errorf("runner: unknown session %q", sessionID)
	}

	preTurnCount := len(s.Events())
	start := time.Now()

	if _, err := r.Sessions.Append(sessionID, session.NewUserMessage(sessionID, userText)); err != nil {
		return nil, fmt.Errorf("runner: append user message: %w", err)
	}

	finalText, err := r.loop(ctx, s, "")
	if err != nil {
		status := "error"
		if ctx.Err() != nil {
			r.appendTimeout(sessionID)
			status = "timeout"
		}
		telemetry.ObserveTurn(s.CurrentAgent(), status, time.Since(start).Seconds())
		return nil, err
	}
	telemetry.ObserveTurn(s.CurrentAgent(), "ok", time.Since(start).Seconds())

	events := s.Tail(len(s.Events()) - preTurnCount)
	return &TurnResult{SessionID: sessionID, Content: finalText, Events: events}, nil
}

// loop is the outer agent-switching loop: it runs the inner per-agent
// model→tool→model cycle for whichever agent is current, and on a
// successful transfer re-enters with the new current agent and the
// neutral init text standing in for the user's message (never U itself).
func (r *Runner) loop(ctx context.Context, s *session.Session, promptOverride string) (string, error) {
	iterations := 0
	for {
		agentName := s.CurrentAgent()
		agent, ok := r.Agents.Get(agentName)
		if !ok {
			return "", fmt.Errorf("runner: current agent %q is not registered", agentName)
		}

		for {
			iterations++
			if iterations > r.maxIterations() {
				return "", fmt.Errorf("runner: exceeded %d iterations without a final response", r.maxIterations())
			}
			if err := ctx.Err(); err != nil {
				return "", err
			}

			text, toolCalls, err := r.invoke(ctx, s, agent, promptOverride)
			promptOverride = ""
			if err != nil {
				return "", err
			}

			isFinal := len(toolCalls) == 0
			modelEvt, err := r.Sessions.Append(s.ID, session.NewModelResponse(s.ID, agent.Name, text, isFinal, false))
			if err != nil {
				return "", err
			}
			if isFinal {
				return modelEvt.Text, nil
			}

			transferredTo := ""
			for _, tc := range toolCalls {
				if _, err := r.Sessions.Append(s.ID, session.NewToolCall(s.ID, agent.Name, tc.Name, tc.ID, tc.Arguments)); err != nil {
					return "", err
				}

				if tc.Name == agents.TransferToolName {
					target, _ := tc.Arguments["agent_name"].(string)
					res, terr := r.Transfer.Transfer(s.ID, agent.Name, target, tc.ID)
					if terr != nil {
						return "", terr
					}
					if res.Allowed {
						transferredTo = target
						break
					}
					// Denial already recorded its own ToolResponse event
					// (current_agent is untouched); keep this agent's
					// tool loop going so it can react.
					continue
				}

				result, ierr := r.Tools.Invoke(agent.Name, tc.Name, tc.Arguments, toolregistry.ToolContext{
					Ctx:       ctx,
					AgentName: agent.Name,
					SessionID: s.ID,
				})
				if ierr != nil {
					if _, err := r.Sessions.Append(s.ID, session.NewToolResponse(s.ID, tc.Name, tc.ID, nil, toolErrorText(ierr))); err != nil {
						return "", err
					}
					continue
				}
				if _, err := r.Sessions.Append(s.ID, session.NewToolResponse(s.ID, tc.Name, tc.ID, result.ForLLM, "")); err != nil {
					return "", err
				}
			}

			if transferredTo != "" {
				// A successful transfer_to_agent ends this agent's tool
				// loop; the outer loop continues with the new current_agent
				// and a neutral prompt, never a re-send of the user's
				// original message.
				promptOverride = transfer.NeutralInit
				break
			}
		}
	}
}

func (r *Runner) invoke(ctx context.Context, s *session.Session, agent *agents.Agent, promptOverride string) (string, []providers.ToolCall, error) {
	history := session.Redacted(s.Events())
	messages := buildMessages(agent.Instruction, history, promptOverride)

	req := providers.ChatRequest{
		Messages: messages,
		Tools:    toolDefinitions(r.Tools.ToolsFor(agent.Name)),
		Model:    agent.ModelID,
	}
	if req.Model == "" {
		req.Model = r.Provider.DefaultModel()
	}

	resp, err := r.Provider.Chat(ctx, req)
	if err != nil {
		return "", nil, fmt.Errorf("runner: LLM call failed for agent %q: %w", agent.Name, err)
	}
	return resp.Content, resp.ToolCalls, nil
}

func toolDefinitions(handles []toolregistry.ToolHandle) []providers.ToolDefinition {
	defs := make([]providers.ToolDefinition, 0, len(handles))
	for _, h := range handles {
		var params map[string]any
		if len(h.InputSchema) > 0 {
			_ = json.Unmarshal(h.InputSchema, &params)
		}
		defs = append(defs, providers.ToolDefinition{
			Type: "function",
			Function: providers.ToolFunctionSchema{
				Name:        h.Name,
				Description: h.Description,
				Parameters:  params,
			},
		})
	}
	return defs
}

func toolErrorText(err error) string {
	if te, ok := err.(*toolregistry.ToolError); ok {
		if te.Detail == "" {
			return te.Code
		}
		return te.Code + ": " + te.Detail
	}
	return err.Error()
}

func (r *Runner) appendTimeout(sessionID string) {
	if _, err := r.Sessions.Append(sessionID, session.NewSystem(sessionID, session.SystemError, turnTimeoutText)); err != nil {
		r.logger().Warn("runner: failed to record turn_timeout", "session_id", sessionID, "error", err)
	}
}
