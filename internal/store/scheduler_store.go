package store

import "time"

// ScheduledTaskRecord is the durable form of a cron-driven background task.
// NotifyTopic/NotifyTitle feed the notification sink on fire; either may be
// empty, in which case the scheduler skips the notify step silently.
type ScheduledTaskRecord struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	CronExpression string     `json:"cron_expression"`
	Prompt         string     `json:"prompt"`
	TargetAgent    string     `json:"target_agent"`
	Enabled        bool       `json:"enabled"`
	InFlight       bool       `json:"in_flight"`
	NotifyTopic    string     `json:"notify_topic,omitempty"`
	NotifyTitle    string     `json:"notify_title,omitempty"`
	LastRun        *time.Time `json:"last_run,omitempty"`
	NextRun        *time.Time `json:"next_run,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

// ScheduledTaskStore is the durable tier behind the Scheduler's scan loop.
type ScheduledTaskStore interface {
	ListScheduledTasks() ([]ScheduledTaskRecord, error)
	SaveScheduledTask(rec ScheduledTaskRecord) error
	DeleteScheduledTask(id string) error
	// TryMarkInFlight is the at-most-one-in-flight compare-and-swap: it
	// flips in_flight to true only if the row currently reads false,
	// reporting whether it won the race via marked.
	TryMarkInFlight(id string) (marked bool, err error)
	// FinishRun clears in_flight and records the outcome of a fire.
	FinishRun(id string, lastRun time.Time, nextRun time.Time) error
}

// ReminderRecord is the durable form of a one-shot fire-at-timestamp task.
type ReminderRecord struct {
	ID          string    `json:"id"`
	FireAt      time.Time `json:"fire_at"`
	Prompt      string    `json:"prompt"`
	TargetAgent string    `json:"target_agent"`
	Delivered   bool      `json:"delivered"`
	NotifyTopic string    `json:"notify_topic,omitempty"`
	NotifyTitle string    `json:"notify_title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// ReminderStore is the durable tier behind the Reminder Queue's heap.
type ReminderStore interface {
	ListPendingReminders() ([]ReminderRecord, error)
	SaveReminder(rec ReminderRecord) error
	DeleteReminder(id string) error
	MarkDelivered(id string) error
}

// WebhookDefinitionRecord is the durable form of an inbound webhook mapping.
type WebhookDefinitionRecord struct {
	ID             string    `json:"id"`
	Slug           string    `json:"slug"`
	TargetAgent    string    `json:"target_agent"`
	PromptTemplate string    `json:"prompt_template"`
	Secret         string    `json:"secret,omitempty"`
	FireAndForget  bool      `json:"fire_and_forget"`
	CreatedAt      time.Time `json:"created_at"`
}

// WebhookDefinitionStore is the durable tier behind the Webhook Dispatcher.
type WebhookDefinitionStore interface {
	GetWebhookDefinitionBySlug(slug string) (WebhookDefinitionRecord, bool, error)
	ListWebhookDefinitions() ([]WebhookDefinitionRecord, error)
	SaveWebhookDefinition(rec WebhookDefinitionRecord) error
	DeleteWebhookDefinition(id string) error
}
