// Package todo holds the list and task records shared by the repository,
// the query store and the view selectors, together with the input types that
// are validated before any repository call.
package todo

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// TimeLayout is the ISO-8601 layout used for every timestamp. All values are UTC
// with millisecond precision so lexical and chronological order agree.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t with TimeLayout.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Status is the progress state of a task.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
)

// Statuses lists every valid status in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted:
		return true
	default:
		return false
	}
}

// ParseStatus converts a raw value into a Status.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("todo: unknown status %q", raw)
	}
	return s, nil
}

// Priority is the optional urgency of a task. The empty value means unset.
type Priority string

const (
	PriorityNone   Priority = ""
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Priorities lists every settable priority.
var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// Valid reports whether p is unset or one of the known priorities.
func (p Priority) Valid() bool {
	switch p {
	case PriorityNone, PriorityLow, PriorityMedium, PriorityHigh:
		return true
	default:
		return false
	}
}

// ParsePriority converts a raw value into a Priority. The empty string is PriorityNone.
func ParsePriority(raw string) (Priority, error) {
	p := Priority(raw)
	if !p.Valid() {
		return "", fmt.Errorf("todo: unknown priority %q", raw)
	}
	return p, nil
}

// List is a named collection of tasks.
type List struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Task belongs to exactly one list. IsCompleted and Status always agree:
// IsCompleted is true exactly when Status is StatusCompleted.
type Task struct {
	ID          int64    `json:"id"`
	ListID      int64    `json:"list_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Status      Status   `json:"status"`
	Priority    Priority `json:"priority,omitempty"`
	IsCompleted bool     `json:"is_completed"`
	DueDate     string   `json:"due_date,omitempty"`
	CreatedAt   string   `json:"created_at,omitempty"`
	UpdatedAt   string   `json:"updated_at,omitempty"`
}

// WithCompletion returns a copy of t marked complete or incomplete.
// Completing sets StatusCompleted; un-completing a completed task moves it back
// to StatusNotStarted, while an in-progress task keeps its status.
func (t Task) WithCompletion(completed bool, now time.Time) Task {
	t.IsCompleted = completed
	t.Status = StatusForCompletion(completed, t.Status)
	t.UpdatedAt = FormatTime(now)
	return t
}

// WithStatus returns a copy of t moved to status, keeping IsCompleted consistent.
func (t Task) WithStatus(status Status, now time.Time) Task {
	t.Status = status
	t.IsCompleted = status == StatusCompleted
	t.UpdatedAt = FormatTime(now)
	return t
}

// Consistent reports whether the completion flag agrees with the status.
func (t Task) Consistent() bool {
	return t.IsCompleted == (t.Status == StatusCompleted)
}

// StatusForCompletion derives the status that matches a completion flag,
// preserving current when it is already compatible.
func StatusForCompletion(completed bool, current Status) Status {
	if completed {
		return StatusCompleted
	}
	if current == StatusInProgress {
		return current
	}
	return StatusNotStarted
}

// WriteResult is what the repository reports for a write.
type WriteResult struct {
	RowsAffected int64
	LastInsertID int64
}

// placeholderBase keeps optimistic ids far above anything an autoincrement
// column reaches on a single device.
const placeholderBase = 1_000_000_000

// PlaceholderID returns a random id for an optimistic record. It is replaced by
// the persisted row once the slot is refetched.
func PlaceholderID() int64 {
	return placeholderBase + rand.Int64N(placeholderBase)
}

// IsPlaceholderID reports whether id was produced by PlaceholderID.
func IsPlaceholderID(id int64) bool {
	return id >= placeholderBase
}
