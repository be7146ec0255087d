package cmd

import (
	"fmt"
	"io"

	"github.com/goliatone/go-todo-cache/tasks"
	"github.com/goliatone/go-todo-cache/todo"
)

func renderLists(w io.Writer, lists []todo.List) {
	if len(lists) == 0 {
		fmt.Fprintln(w, "no lists")
		return
	}
	for _, l := range lists {
		fmt.Fprintf(w, "%4d  %s\n", l.ID, l.Name)
	}
}

func renderTasks(w io.Writer, tab tasks.Tab, r tasks.Result) {
	if tab == "" {
		tab = tasks.TabAll
	}
	fmt.Fprintf(w, "%s: %d shown, %d completed\n", tab, len(r.DisplayTasks), r.CompletedCount)
	for _, t := range r.DisplayTasks {
		check := " "
		if t.IsCompleted {
			check = "x"
		}
		priority := string(t.Priority)
		if priority == "" {
			priority = "-"
		}
		fmt.Fprintf(w, "[%s] %4d  %-11s  %-6s  %s", check, t.ID, t.Status, priority, t.Name)
		if t.DueDate != "" {
			fmt.Fprintf(w, "  (due %s)", t.DueDate)
		}
		fmt.Fprintln(w)
	}
}
