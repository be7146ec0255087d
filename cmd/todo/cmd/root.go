// Package cmd implements the todo command line.
package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/goliatone/go-todo-cache/internal/config"
	"github.com/goliatone/go-todo-cache/mutation"
	"github.com/goliatone/go-todo-cache/pkg/di"
	"github.com/spf13/cobra"
)

// hydrateTimeout bounds the wait for the persisted counter.
const hydrateTimeout = 5 * time.Second

// app is the state shared by every subcommand for one invocation.
type app struct {
	configPath string
	cfg        config.Config
	logger     *slog.Logger
	logCloser  io.Closer
	container  *di.Container
	stdout     io.Writer
	stderr     io.Writer
}

// Execute runs the CLI with args and returns the process exit code.
func Execute(args []string, stdout, stderr io.Writer) int {
	root, a := newRootCmd(stdout, stderr)
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.Execute()
	if cerr := a.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintln(stderr, "Error:", err)
		return 1
	}
	return 0
}

// newRootCmd builds the command tree writing to stdout and stderr. The
// returned app must be closed once the command has run.
func newRootCmd(stdout, stderr io.Writer) (*cobra.Command, *app) {
	a := &app{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "todo",
		Short:         "Manage to-do lists from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.open(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(newListsCmd(a), newTasksCmd(a))
	return root, a
}

func (a *app) open(ctx context.Context) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	logger, closer, err := cfg.Log.NewLogger()
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	a.logger, a.logCloser = logger, closer

	c, err := di.Open(ctx, di.Options{
		DatabasePath: cfg.Database.Path,
		StateDir:     cfg.State.Dir,
		Cache:        cfg.Cache,
		LogQueries:   cfg.Database.LogQueries,
	},
		di.WithLogger(logger),
		di.WithNotifier(a.notifier()),
		di.WithSerializePerKey(cfg.Mutations.SerializePerKey),
	)
	if err != nil {
		return err
	}
	a.container = c
	return nil
}

func (a *app) close() error {
	var err error
	if a.container != nil {
		err = a.container.Close()
		a.container = nil
	}
	if a.logCloser != nil {
		if cerr := a.logCloser.Close(); err == nil {
			err = cerr
		}
		a.logCloser = nil
	}
	return err
}

// notifier prints failed and un-completed mutations to stderr and logs every
// outcome.
func (a *app) notifier() mutation.Notifier {
	return mutation.NotifierFunc(func(ctx context.Context, e mutation.Event) {
		a.logger.InfoContext(ctx, "mutation settled",
			"mutation", e.Mutation,
			"id", e.ID.String(),
			"level", e.Level.String(),
			"error", e.Err,
		)
		switch e.Level {
		case mutation.LevelError:
			fmt.Fprintf(a.stderr, "%s failed: %v\n", e.Mutation, e.Err)
		case mutation.LevelWarning:
			fmt.Fprintf(a.stderr, "%s: marked as not completed\n", e.Mutation)
		}
	})
}

func parseID(raw, what string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s id %q", what, raw)
	}
	return id, nil
}
