package worker

import (
	"fmt"
	"strings"
)

var taskTypeOrder = []TaskType{TaskCodeImplementation, TaskTesting, TaskDocumentation}

// Aggregate collects TaskResults into the single Markdown summary the
// parent session sees: a heading and completion count per task_type, and a
// dedicated failure report section that enumerates failed/partial tasks
// alongside their original instruction text. tasks and results must be
// index-aligned, as Pool.Run returns them.
func Aggregate(tasks []TaskInstruction, results []TaskResult) string {
	specOf := make(map[string]string, len(tasks))
	for _, t := range tasks {
		specOf[t.TaskID] = t.Specification
	}

	byType := make(map[TaskType][]TaskResult)
	for _, r := range results {
		byType[r.TaskType] = append(byType[r.TaskType], r)
	}

	var b strings.Builder
	b.WriteString("# axel Results\n\n")

	var failures []TaskResult
	for _, t := range taskTypeOrder {
		rs, ok := byType[t]
		if !ok {
			continue
		}
		completed := 0
		for _, r := range rs {
			if r.Status == StatusCompleted {
				completed++
			}
			if r.Status == StatusFailed || r.Status == StatusPartial {
				failures = append(failures, r)
			}
		}
		fmt.Fprintf(&b, "## %s (%d/%d completed)\n\n", t, completed, len(rs))
		for _, r := range rs {
			fmt.Fprintf(&b, "- [%s] %s\n", r.Status, oneLine(r.Summary))
		}
		b.WriteString("\n")
	}

	if len(failures) > 0 {
		b.WriteString("## Failures\n\n")
		for _, r := range failures {
			fmt.Fprintf(&b, "- **%s** (%s): %s\n  - instruction: %s\n", r.TaskID, r.TaskType, r.ErrorMessage, oneLine(specOf[r.TaskID]))
		}
	}

	return b.String()
}

func oneLine(s string) string {
	if s == "" {
		return "(no summary)"
	}
	return strings.ReplaceAll(s, "\n", " ")
}
