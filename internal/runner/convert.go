package runner

import (
	"fmt"

	"github.com/radbot/gateway/internal/providers"
	"github.com/radbot/gateway/internal/session"
)

// buildMessages assembles the provider-facing message list for one LLM call:
// a system message carrying the agent's instruction, the redacted event
// history translated into user/assistant/tool turns, and — on the first
// invocation of a freshly transferred-to agent — the neutral init text in
// place of a second copy of the user's message. AgentTransfer and System
// events are bookkeeping only; they are never surfaced to the model.
func buildMessages(instruction string, events []session.Event, promptOverride string) []providers.Message {
	msgs := make([]providers.Message, 0, len(events)+2)
	msgs = append(msgs, providers.Message{Role: "system", Content: instruction})

	i := 0
	for i < len(events) {
		e := events[i]
		switch e.Kind {
		case session.KindUserMessage:
			msgs = append(msgs, providers.Message{Role: "user", Content: e.Text})
			i++

		case session.KindModelResponse:
			am := providers.Message{Role: "assistant", Content: e.Text}
			i++
			for i < len(events) && events[i].Kind == session.KindToolCall {
				tc := events[i]
				am.ToolCalls = append(am.ToolCalls, providers.ToolCall{
					ID:        tc.CallID,
					Name:      tc.ToolName,
					Arguments: tc.Args,
				})
				i++
			}
			msgs = append(msgs, am)
			for i < len(events) && events[i].Kind == session.KindToolResponse {
				tr := events[i]
				msgs = append(msgs, providers.Message{
					Role:       "tool",
					Content:    toolResultText(tr),
					ToolCallID: tr.CallID,
				})
				i++
			}

		default:
			// AgentTransfer, System: control-flow/diagnostic only.
			i++
		}
	}

	if promptOverride != "" {
		msgs = append(msgs, providers.Message{Role: "user", Content: promptOverride})
	}
	return msgs
}

func toolResultText(tr session.Event) string {
	if tr.Error != "" {
		return tr.Error
	}
	if s, ok := tr.Result.(string); ok {
		return s
	}
	return fmt.Sprint(tr.Result)
}
