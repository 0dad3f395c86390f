// Package invoker implements the synthesized-session turn shared by the
// Scheduler, Reminder Queue, and Webhook Dispatcher: get-or-create a
// system-owned session targeting a specific agent, inject a prompt as a
// UserMessage, run one turn, and return the assistant's final text.
package invoker

import (
	"context"

	"github.com/radbot/gateway/internal/runner"
	"github.com/radbot/gateway/internal/session"
)

// SystemUserID owns every synthesized session (cron fire, reminder fire,
// webhook dispatch) — none of them belong to an interactive human user.
const SystemUserID = "system"

// TurnRunner is the subset of *runner.Runner a synthesized invocation needs.
type TurnRunner interface {
	RunTurn(ctx context.Context, sessionID, userText string) (*runner.TurnResult, error)
}

// Invoker drives one synthesized turn on a deterministically-keyed session.
type Invoker struct {
	Sessions *session.Manager
	Runner   TurnRunner
}

// Run gets or creates sessionID (seeding its current agent to targetAgent
// only on first creation) and runs one turn with prompt as the user's
// message, returning the assistant's final text.
func (inv *Invoker) Run(ctx context.Context, sessionID, targetAgent, prompt string) (string, error) {
	inv.Sessions.GetOrCreateTargeting(sessionID, SystemUserID, targetAgent)

	res, err := inv.Runner.RunTurn(ctx, sessionID, prompt)
	if err != nil {
		return "", err
	}
	return res.Content, nil
}
