package notify

import "context"

// titlePrefix marks every notification that originates from a background
// fire (scheduled task or reminder) rather than a live chat turn.
const titlePrefix = "RadBot"

// PublishResult sends a success notification carrying the assistant's final
// text, or an error notification if runErr is non-nil. Topic and title
// suffix are supplied by the caller (the scheduled task or reminder's own
// configured topic/title).
func (s *Sink) PublishResult(ctx context.Context, topic, titleSuffix, text string, runErr error) error {
	msg := Message{Topic: topic, Priority: PriorityDefault}
	if runErr != nil {
		msg.Title = titlePrefix + ": " + titleSuffix + " failed"
		msg.Body = runErr.Error()
		msg.Priority = PriorityHigh
		msg.Tags = "warning"
		return s.Publish(ctx, msg)
	}
	msg.Title = titlePrefix + ": " + titleSuffix
	msg.Body = text
	return s.Publish(ctx, msg)
}
