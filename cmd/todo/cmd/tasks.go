package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-todo-cache/tasks"
	"github.com/goliatone/go-todo-cache/todo"
	"github.com/spf13/cobra"
)

func newTasksCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "Show and edit the tasks of a list",
	}
	cmd.AddCommand(
		newTasksLsCmd(a),
		newTasksAddCmd(a),
		newTasksEditCmd(a),
		newTaskActionCmd(a, "rm", "Delete a task", func(ctx context.Context, board *tasks.Data, t todo.Task) (string, error) {
			_, err := board.Delete(ctx, t.ID)
			return fmt.Sprintf("deleted task %d", t.ID), err
		}),
		newTaskActionCmd(a, "toggle", "Flip the completion of a task", func(ctx context.Context, board *tasks.Data, t todo.Task) (string, error) {
			_, err := board.Toggle(ctx, t)
			if t.IsCompleted {
				return fmt.Sprintf("task %d is not completed", t.ID), err
			}
			return fmt.Sprintf("task %d completed", t.ID), err
		}),
		newTasksStatusCmd(a),
	)
	return cmd
}

func newTasksLsCmd(a *app) *cobra.Command {
	var search, tab, priority, status string
	cmd := &cobra.Command{
		Use:   "ls <list-id>",
		Short: "Show the tasks of a list",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := parseID(args[0], "list")
			if err != nil {
				return err
			}
			f, err := parseFilter(search, tab, priority, status)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			board := a.container.Tasks().Open(ctx, listID, f)
			defer board.Close()
			if err := board.Wait(ctx); err != nil {
				return err
			}
			renderTasks(a.stdout, f.Tab, board.View())
			return nil
		},
	}
	cmd.Flags().StringVar(&search, "search", "", "only show tasks whose name contains this text")
	cmd.Flags().StringVar(&tab, "tab", string(tasks.TabAll), "all, upcoming or completed")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&status, "status", "", "not_started, in_progress or completed")
	return cmd
}

func newTasksAddCmd(a *app) *cobra.Command {
	var draft tasks.Draft
	var priority string
	cmd := &cobra.Command{
		Use:   "add <list-id> <name>",
		Short: "Add a task to a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := parseID(args[0], "list")
			if err != nil {
				return err
			}
			if draft.Priority, err = todo.ParsePriority(priority); err != nil {
				return err
			}
			draft.Name = strings.Join(args[1:], " ")

			ctx := cmd.Context()
			board := a.container.Tasks().Open(ctx, listID, tasks.Filter{})
			defer board.Close()
			res, err := board.Create(ctx, draft)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "created task %d %q\n", res.LastInsertID, strings.TrimSpace(draft.Name))
			return nil
		},
	}
	cmd.Flags().StringVar(&draft.Description, "description", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high")
	cmd.Flags().StringVar(&draft.DueDate, "due", "", "due date, YYYY-MM-DD or RFC 3339")
	return cmd
}

func newTasksEditCmd(a *app) *cobra.Command {
	var name, description, priority, due, status string
	cmd := &cobra.Command{
		Use:   "edit <list-id> <task-id>",
		Short: "Change the fields of a task given as flags",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := parseID(args[0], "list")
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "task")
			if err != nil {
				return err
			}

			in := todo.TaskUpdate{ID: id}
			flags := cmd.Flags()
			if flags.Changed("name") {
				in.Name = &name
			}
			if flags.Changed("description") {
				in.Description = &description
			}
			if flags.Changed("due") {
				in.DueDate = &due
			}
			if flags.Changed("priority") {
				p, err := todo.ParsePriority(priority)
				if err != nil {
					return err
				}
				in.Priority = &p
			}
			if flags.Changed("status") {
				s, err := todo.ParseStatus(status)
				if err != nil {
					return err
				}
				in.Status = &s
			}

			ctx := cmd.Context()
			board := a.container.Tasks().Open(ctx, listID, tasks.Filter{})
			defer board.Close()
			if _, err := board.Edit(ctx, in); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "updated task %d\n", id)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&priority, "priority", "", "low, medium or high; empty clears it")
	cmd.Flags().StringVar(&due, "due", "", "new due date; empty clears it")
	cmd.Flags().StringVar(&status, "status", "", "not_started, in_progress or completed")
	return cmd
}

func newTasksStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status <list-id> <task-id> <status>",
		Short: "Set the status of a task",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := parseID(args[0], "list")
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "task")
			if err != nil {
				return err
			}
			status, err := todo.ParseStatus(args[2])
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			board := a.container.Tasks().Open(ctx, listID, tasks.Filter{})
			defer board.Close()
			if _, err := board.SetStatus(ctx, id, status); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "task %d is %s\n", id, status)
			return nil
		},
	}
}

type taskAction func(ctx context.Context, board *tasks.Data, t todo.Task) (string, error)

// newTaskActionCmd builds a command that loads one task and runs action on it.
func newTaskActionCmd(a *app, use, short string, action taskAction) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <list-id> <task-id>",
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			listID, err := parseID(args[0], "list")
			if err != nil {
				return err
			}
			id, err := parseID(args[1], "task")
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			board := a.container.Tasks().Open(ctx, listID, tasks.Filter{})
			defer board.Close()
			if err := board.Wait(ctx); err != nil {
				return err
			}
			t, ok := findTask(board.View().DisplayTasks, id)
			if !ok {
				return fmt.Errorf("task %d not found in list %d", id, listID)
			}

			msg, err := action(ctx, board, t)
			if err != nil {
				return err
			}
			fmt.Fprintln(a.stdout, msg)
			return nil
		},
	}
}

func parseFilter(search, tab, priority, status string) (tasks.Filter, error) {
	f := tasks.Filter{Search: search}
	var err error
	if f.Tab, err = tasks.ParseTab(tab); err != nil {
		return f, err
	}
	if f.Priority, err = todo.ParsePriority(priority); err != nil {
		return f, err
	}
	if status != "" {
		if f.Status, err = todo.ParseStatus(status); err != nil {
			return f, err
		}
	}
	return f, nil
}

func findTask(all []todo.Task, id int64) (todo.Task, bool) {
	for _, t := range all {
		if t.ID == id {
			return t, true
		}
	}
	return todo.Task{}, false
}
