// Package reminder implements the one-shot fire-at-timestamp queue: a
// container/heap min-heap keyed by FireAt, sharing the Scheduler's
// synthesized-invocation and notification wiring.
package reminder

import "time"

// scanInterval mirrors the Scheduler's scan granularity; a reminder can be
// delivered up to this long after its FireAt.
const scanInterval = 1 * time.Second

// Reminder is the in-memory mirror of a store.ReminderRecord.
type Reminder struct {
	ID          string
	FireAt      time.Time
	Prompt      string
	TargetAgent string
	NotifyTopic string
	NotifyTitle string
}

// reminderHeap is a container/heap.Interface over *Reminder ordered by
// FireAt, giving O(log n) insert and next-to-fire lookup.
type reminderHeap []*Reminder

func (h reminderHeap) Len() int            { return len(h) }
func (h reminderHeap) Less(i, j int) bool  { return h[i].FireAt.Before(h[j].FireAt) }
func (h reminderHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *reminderHeap) Push(x interface{}) { *h = append(*h, x.(*Reminder)) }
func (h *reminderHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
