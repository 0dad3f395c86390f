// Package scheduler implements a durable cron engine: a single scanning
// loop over a table of ScheduledTasks, firing each by injecting a prompt
// into a synthesized session and pushing the result to a notification sink.
package scheduler

import "time"

// scanInterval is the scanning loop's sleep granularity, kept at or under
// one second so a due task fires close to its scheduled time.
const scanInterval = 1 * time.Second

// Task is the in-memory mirror of a store.ScheduledTaskRecord, carrying the
// precomputed NextRun the scan loop compares against the clock.
type Task struct {
	ID             string
	Name           string
	CronExpression string
	Prompt         string
	TargetAgent    string
	Enabled        bool
	NotifyTopic    string
	NotifyTitle    string
	LastRun        *time.Time
	NextRun        time.Time
}
