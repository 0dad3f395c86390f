// Package notify implements the outbound notification sink shared by the
// Scheduler and Reminder Queue: a single ntfy-style HTTP publish per event,
// with no retry (a missed notification is not worth re-firing a task for).
package notify

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Priority mirrors ntfy's five-level scale.
type Priority string

const (
	PriorityMin     Priority = "min"
	PriorityLow     Priority = "low"
	PriorityDefault Priority = "default"
	PriorityHigh    Priority = "high"
	PriorityMax     Priority = "max"
)

const (
	bodyTruncateAt = 2000
	requestTimeout = 10 * time.Second
)

// Message is one outbound notification.
type Message struct {
	Topic    string
	Title    string
	Body     string
	Priority Priority
	Tags     string
	Click    string
}

// Sink publishes Messages to an ntfy-compatible server.
type Sink struct {
	Server string
	Client *http.Client
}

// NewSink builds a Sink targeting server (e.g. "https://ntfy.sh").
func NewSink(server string) *Sink {
	return &Sink{Server: server, Client: &http.Client{Timeout: requestTimeout}}
}

func (s *Sink) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return &http.Client{Timeout: requestTimeout}
}

// Publish POSTs msg's body to {server}/{topic} with ntfy's header set. A
// delivery failure is returned to the caller, never retried here — the
// caller's own fire loop decides what to do next (the Scheduler and
// Reminder Queue both just log it).
func (s *Sink) Publish(ctx context.Context, msg Message) error {
	if msg.Topic == "" {
		return fmt.Errorf("notify: message has no topic")
	}
	body := msg.Body
	if len(body) > bodyTruncateAt {
		body = body[:bodyTruncateAt]
	}

	url := fmt.Sprintf("%s/%s", s.Server, msg.Topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(body))
	if err != nil {
		return fmt.Errorf("notify: build request to %q: %w", url, err)
	}
	if msg.Title != "" {
		req.Header.Set("Title", msg.Title)
	}
	if msg.Priority != "" {
		req.Header.Set("Priority", string(msg.Priority))
	}
	if msg.Tags != "" {
		req.Header.Set("Tags", msg.Tags)
	}
	if msg.Click != "" {
		req.Header.Set("Click", msg.Click)
	}

	resp, err := s.client().Do(req)
	if err != nil {
		return fmt.Errorf("notify: request to %q failed: %w", url, err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode >= 300 {
		return fmt.Errorf("notify: upstream returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}
