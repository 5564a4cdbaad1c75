package models

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a document status change is not
// allowed by the processing state machine.
var ErrInvalidTransition = errors.New("invalid status transition")

// Status is the processing state of a document.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusEmbedding  Status = "embedding"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// transitions is the full table of allowed document status changes. The only
// backward edge is the explicit reprocess reset to pending, and that edge is
// absent from processing so a running ingestion can never be reset underneath.
var transitions = map[Status][]Status{
	// An enqueue failure fails a document before its run ever starts.
	StatusPending:    {StatusProcessing, StatusFailed},
	StatusProcessing: {StatusEmbedding, StatusFailed},
	StatusEmbedding:  {StatusCompleted, StatusFailed},
	StatusCompleted:  {StatusPending},
	// A failed document re-enters processing when the run is retried.
	StatusFailed: {StatusPending, StatusProcessing},
}

// Transition validates a status change against the state machine.
func Transition(from, to Status) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

// CanReprocess reports whether a document may be reset to pending. A running
// ingestion owns the document, so the reset is rejected while processing.
func (s Status) CanReprocess() bool {
	return s != StatusProcessing
}

// TaskStatus is the lifecycle state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskDone       TaskStatus = "done"
)

// ValidTaskStatus reports whether s names a known task status.
func ValidTaskStatus(s string) bool {
	switch TaskStatus(s) {
	case TaskTodo, TaskInProgress, TaskDone:
		return true
	}
	return false
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// ParsePriority coerces any unknown value to medium. The agent passes
// model-supplied strings here, so this must never fail.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(s)
	}
	return PriorityMedium
}

// Weight orders priorities for task listings, highest first.
func (p Priority) Weight() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	default:
		return 1
	}
}
