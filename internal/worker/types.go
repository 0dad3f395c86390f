// Package worker implements axel, the decompose-and-parallelize pool that
// turns one specification into a set of child-agent tasks, runs them
// concurrently against their own tool sets, and joins on an aggregated
// Markdown summary.
package worker

import "time"

// MaxWorkers is the default cap on concurrently running tasks.
const MaxWorkers = 3

// TaskDeadline is the default per-task wall-clock limit.
const TaskDeadline = 15 * time.Minute

// TaskType enumerates the kinds of work axel decomposes a specification
// into.
type TaskType string

const (
	TaskCodeImplementation TaskType = "CodeImplementation"
	TaskTesting            TaskType = "Testing"
	TaskDocumentation      TaskType = "Documentation"
)

// priorityRank orders TaskType for the MAX_WORKERS cutoff: Implementation
// before Testing before Documentation.
var priorityRank = map[TaskType]int{
	TaskCodeImplementation: 0,
	TaskTesting:            1,
	TaskDocumentation:      2,
}

// TaskInstruction is one unit of decomposed work, owned by exactly one
// worker from creation to completion.
type TaskInstruction struct {
	TaskID        string
	TaskType      TaskType
	Specification string
	Context       map[string]string
	Dependencies  []string
}

// TaskStatus is a worker's terminal outcome for a TaskInstruction.
type TaskStatus string

const (
	StatusCompleted TaskStatus = "Completed"
	StatusFailed    TaskStatus = "Failed"
	StatusPartial   TaskStatus = "Partial"
)

// TaskResult is what a worker hands back to the aggregator.
type TaskResult struct {
	TaskID       string
	TaskType     TaskType
	Status       TaskStatus
	Summary      string
	Details      string
	Artifacts    map[string]string
	ErrorMessage string
}
