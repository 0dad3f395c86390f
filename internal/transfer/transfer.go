// Package transfer implements the control-flow half of transfer_to_agent:
// validating that a hop is permitted by the agent graph, recording the
// outcome as a session event, and enforcing context isolation for the
// agent on the receiving end.
package transfer

import (
	"fmt"

	"github.com/radbot/gateway/internal/agents"
	"github.com/radbot/gateway/internal/session"
	"github.com/radbot/gateway/internal/telemetry"
)

// NeutralInit is the fixed, non-prompting text the Runner feeds to a target
// agent as its first turn input after a successful transfer, instead of
// replaying the user's message. This is what makes the hop context-isolating:
// the target's first authored event is never a direct reply to the user's
// message, because the target was never asked to reply to it in the first
// place. Only
// the neutral-init path is implemented; there is no fixed-greeting fallback.
const NeutralInit = "Agent transfer received. Review the conversation history for context, then continue."

// Result is the outcome of a transfer attempt.
type Result struct {
	Event       session.Event
	Allowed     bool
	NeutralInit string
}

// Controller validates and executes transfer_to_agent calls against the
// agent graph, recording every attempt (allowed or denied) in the session
// log.
type Controller struct {
	agents   *agents.Registry
	sessions *session.Manager
}

func NewController(ar *agents.Registry, sm *session.Manager) *Controller {
	return &Controller{agents: ar, sessions: sm}
}

// Transfer validates that from may hand off to target within sessionID's
// conversation, then records the outcome. callID is the provider-assigned
// tool call id of the transfer_to_agent invocation, threaded through so the
// resulting ToolResponse correlates back to it.
//
// Denial never changes current_agent: it appends a ToolResponse
// carrying TransferDenied and returns Allowed=false. Success appends a
// ToolResponse acknowledging the hop — every provider requires a tool
// result paired with the tool call when the history is replayed on later
// turns — followed by the AgentTransfer event, which the session Manager
// uses to advance current_agent, and returns the neutral init text the
// Runner must use as the target's first turn input.
func (c *Controller) Transfer(sessionID, from, target, callID string) (Result, error) {
	fromAgent, ok := c.agents.Get(from)
	if !ok {
		return Result{}, fmt.Errorf("transfer: unknown source agent %q", from)
	}

	_, reachable := c.agents.Find(target)
	if !reachable || !fromAgent.AllowedTransfers[target] {
		e := session.NewToolResponse(sessionID, agents.TransferToolName, callID, nil, session.ToolErrorTransferDenied)
		e.AuthorAgent = from
		appended, err := c.sessions.Append(sessionID, e)
		if err != nil {
			return Result{}, err
		}
		telemetry.ObserveTransfer("denied")
		return Result{Event: appended, Allowed: false}, nil
	}

	ack := session.NewToolResponse(sessionID, agents.TransferToolName, callID, fmt.Sprintf("Transferred to %s.", target), "")
	ack.AuthorAgent = from
	if _, err := c.sessions.Append(sessionID, ack); err != nil {
		return Result{}, err
	}

	e := session.NewAgentTransfer(sessionID, from, target)
	appended, err := c.sessions.Append(sessionID, e)
	if err != nil {
		return Result{}, err
	}
	telemetry.ObserveTransfer("allowed")
	return Result{Event: appended, Allowed: true, NeutralInit: NeutralInit}, nil
}
