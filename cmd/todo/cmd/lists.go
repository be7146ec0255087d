package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newListsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lists",
		Short: "Show and edit lists",
	}

	var search string
	ls := &cobra.Command{
		Use:   "ls",
		Short: "Show lists and the most recent ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			screen := a.container.Lists().Open(ctx, search, a.cfg.Lists.RecentLimit)
			defer screen.Close()
			if err := screen.Wait(ctx); err != nil {
				return err
			}
			renderLists(a.stdout, screen.Lists())
			if strings.TrimSpace(search) == "" {
				fmt.Fprintln(a.stdout)
				fmt.Fprintln(a.stdout, "Recent:")
				renderLists(a.stdout, screen.RecentLists())
			}
			return nil
		},
	}
	ls.Flags().StringVar(&search, "search", "", "only show lists whose name contains this text")

	var limit int
	recent := &cobra.Command{
		Use:   "recent",
		Short: "Show the newest lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if limit <= 0 {
				limit = a.cfg.Lists.RecentLimit
			}
			binding := a.container.Lists().BindRecent(ctx, limit)
			defer binding.Close()
			if err := binding.Wait(ctx); err != nil {
				return err
			}
			renderLists(a.stdout, binding.Data())
			return nil
		},
	}
	recent.Flags().IntVar(&limit, "limit", 0, "number of lists to show (default from config)")

	add := &cobra.Command{
		Use:   "add [name]",
		Short: "Create a list, named \"New List N\" when no name is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.addList(cmd.Context(), strings.Join(args, " "))
		},
	}

	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a list",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "list")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			screen := a.container.Lists().Open(ctx, "", a.cfg.Lists.RecentLimit)
			defer screen.Close()
			if _, err := screen.Rename(ctx, id, strings.Join(args[1:], " ")); err != nil {
				return err
			}
			fmt.Fprintf(a.stdout, "renamed list %d\n", id)
			return nil
		},
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a list and its tasks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0], "list")
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			screen := a.container.Lists().Open(ctx, "", a.cfg.Lists.RecentLimit)
			defer screen.Close()
			res, err := screen.Delete(ctx, id)
			if err != nil {
				return err
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("list %d not found", id)
			}
			fmt.Fprintf(a.stdout, "deleted list %d\n", id)
			return nil
		},
	}

	cmd.AddCommand(ls, recent, add, rename, rm)
	return cmd
}

// addList creates a list. An empty name takes the default name from the
// counter, which only advances once the list is stored.
func (a *app) addList(ctx context.Context, name string) error {
	counter := a.container.Counter()
	useDefault := strings.TrimSpace(name) == ""
	if useDefault {
		waitCtx, cancel := context.WithTimeout(ctx, hydrateTimeout)
		defer cancel()
		select {
		case <-counter.Ready():
		case <-waitCtx.Done():
			return fmt.Errorf("list counter not loaded: %w", waitCtx.Err())
		}
		var err error
		if name, err = counter.DefaultListName(); err != nil {
			return err
		}
	}

	screen := a.container.Lists().Open(ctx, "", a.cfg.Lists.RecentLimit)
	defer screen.Close()
	res, err := screen.Create(ctx, name)
	if err != nil {
		return err
	}
	if useDefault {
		if _, err := counter.Bump(ctx); err != nil {
			return err
		}
	}
	fmt.Fprintf(a.stdout, "created list %d %q\n", res.LastInsertID, strings.TrimSpace(name))
	return nil
}
