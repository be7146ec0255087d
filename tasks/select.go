package tasks

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-todo-cache/todo"
)

// Tab is the task screen's view mode.
type Tab string

const (
	TabAll       Tab = "all"
	TabUpcoming  Tab = "upcoming"
	TabCompleted Tab = "completed"
)

// Tabs lists every Tab in display order.
var Tabs = []Tab{TabAll, TabUpcoming, TabCompleted}

// ParseTab converts raw into a Tab. Empty input selects TabAll.
func ParseTab(raw string) (Tab, error) {
	if raw == "" {
		return TabAll, nil
	}
	t := Tab(strings.ToLower(raw))
	if !slices.Contains(Tabs, t) {
		return "", fmt.Errorf("unknown tab %q", raw)
	}
	return t, nil
}

// Filter is the task screen's filter state. Zero values disable a filter.
type Filter struct {
	Search   string
	Tab      Tab
	Priority todo.Priority
	Status   todo.Status
}

// Result is the set of tasks to render.
type Result struct {
	DisplayTasks []todo.Task
	// CompletedCount counts completed tasks in DisplayTasks.
	CompletedCount int
}

// Select reduces tasks to what the screen shows. Filters apply in order:
// name search, priority, status, then tab. The upcoming tab keeps incomplete
// tasks due after now, soonest first; the completed tab keeps completed tasks,
// most recently updated first. Sorts are stable and tasks is not modified.
func Select(tasks []todo.Task, f Filter, now time.Time) Result {
	out := make([]todo.Task, 0, len(tasks))
	search := strings.ToLower(f.Search)
	for _, t := range tasks {
		if search != "" && !strings.Contains(strings.ToLower(t.Name), search) {
			continue
		}
		if f.Priority != todo.PriorityNone && t.Priority != f.Priority {
			continue
		}
		if f.Status != "" && t.Status != f.Status {
			continue
		}
		out = append(out, t)
	}

	switch f.Tab {
	case TabUpcoming:
		nowISO := todo.FormatTime(now)
		out = slices.DeleteFunc(out, func(t todo.Task) bool {
			return t.DueDate == "" || t.DueDate <= nowISO || t.IsCompleted
		})
		slices.SortStableFunc(out, func(a, b todo.Task) int {
			return strings.Compare(a.DueDate, b.DueDate)
		})
	case TabCompleted:
		out = slices.DeleteFunc(out, func(t todo.Task) bool { return !t.IsCompleted })
		slices.SortStableFunc(out, func(a, b todo.Task) int {
			return strings.Compare(b.UpdatedAt, a.UpdatedAt)
		})
	}

	completed := 0
	for _, t := range out {
		if t.IsCompleted {
			completed++
		}
	}
	return Result{DisplayTasks: out, CompletedCount: completed}
}
