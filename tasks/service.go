package tasks

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/goliatone/go-todo-cache/keys"
	"github.com/goliatone/go-todo-cache/mutation"
	"github.com/goliatone/go-todo-cache/query"
	"github.com/goliatone/go-todo-cache/repository"
	"github.com/goliatone/go-todo-cache/todo"
)

// ListStaleTime is how long a list's tasks count as fresh.
const ListStaleTime = 10 * time.Second

// Draft is the user-editable part of a new task.
type Draft struct {
	Name        string
	Description string
	Priority    todo.Priority
	DueDate     string
}

// Service reads and mutates the tasks of a list through the query store.
type Service struct {
	repo   repository.TaskRepository
	store  *query.Store
	exec   *mutation.Executor
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for optimistic timestamps and the
// upcoming tab.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService creates a task service writing through exec.
func NewService(repo repository.TaskRepository, exec *mutation.Executor, opts ...Option) *Service {
	s := &Service{
		repo:   repo,
		store:  exec.Store(),
		exec:   exec,
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BindList binds the tasks of listID. Bindings for an invalid id stay idle.
func (s *Service) BindList(ctx context.Context, listID int64) *query.Binding[[]todo.Task] {
	return query.Bind(ctx, s.store, keys.TasksByList(listID), func(ctx context.Context) ([]todo.Task, error) {
		return s.repo.GetByListID(ctx, listID)
	}, query.WithStaleTime(ListStaleTime), query.WithEnabled(listID > 0))
}

// Create adds a task to listID. New tasks start not started.
func (s *Service) Create(ctx context.Context, listID int64, d Draft) (todo.WriteResult, error) {
	in := (&todo.TaskCreate{
		ListID:      listID,
		Name:        d.Name,
		Description: d.Description,
		Priority:    d.Priority,
		DueDate:     d.DueDate,
		Status:      todo.StatusNotStarted,
	}).Normalize()
	var res todo.WriteResult

	err := mutation.Run(ctx, s.exec, mutation.Mutation[[]todo.Task]{
		Name:     "tasks.create",
		Key:      keys.TasksByList(listID),
		Validate: in.Validate,
		Apply: func(prev []todo.Task) []todo.Task {
			now := todo.FormatTime(s.now())
			return append(slices.Clone(prev), todo.Task{
				ID:          todo.PlaceholderID(),
				ListID:      in.ListID,
				Name:        in.Name,
				Description: in.Description,
				Status:      in.Status,
				Priority:    in.Priority,
				IsCompleted: in.IsCompleted,
				DueDate:     in.DueDate,
				CreatedAt:   now,
				UpdatedAt:   now,
			})
		},
		Write: func(ctx context.Context) (err error) {
			res, err = s.repo.Create(ctx, *in)
			return err
		},
		SuccessLevel: mutation.LevelSuccess,
	})
	return res, err
}

// Edit applies a partial update to a task of listID. Setting either Status or
// IsCompleted updates both.
func (s *Service) Edit(ctx context.Context, listID int64, in todo.TaskUpdate) (todo.WriteResult, error) {
	return s.update(ctx, "tasks.edit", listID, *in.Normalize(), s.repo.Update, mutation.LevelSuccess)
}

// SetStatus moves a task of listID to status.
func (s *Service) SetStatus(ctx context.Context, listID, id int64, status todo.Status) (todo.WriteResult, error) {
	in := (&todo.TaskUpdate{ID: id, Status: &status}).Normalize()
	return s.update(ctx, "tasks.setStatus", listID, *in, s.repo.Update, mutation.LevelSuccess)
}

// Toggle flips the completion of t.
func (s *Service) Toggle(ctx context.Context, t todo.Task) (todo.WriteResult, error) {
	return s.SetCompletion(ctx, t.ListID, t.ID, !t.IsCompleted)
}

// SetCompletion marks a task of listID complete or incomplete. Completing
// reports success, un-completing reports a warning.
func (s *Service) SetCompletion(ctx context.Context, listID, id int64, completed bool) (todo.WriteResult, error) {
	// left unnormalized so the optimistic copy derives the status from the
	// task's current one, the same way the repository toggle does
	in := todo.TaskUpdate{ID: id, IsCompleted: &completed}
	level := mutation.LevelSuccess
	if !completed {
		level = mutation.LevelWarning
	}
	write := func(ctx context.Context, _ todo.TaskUpdate) (todo.WriteResult, error) {
		return s.repo.Toggle(ctx, todo.TaskToggle{ID: id, IsCompleted: completed})
	}
	return s.update(ctx, "tasks.toggle", listID, in, write, level)
}

// Delete removes a task of listID.
func (s *Service) Delete(ctx context.Context, listID, id int64) (todo.WriteResult, error) {
	var res todo.WriteResult

	err := mutation.Run(ctx, s.exec, mutation.Mutation[[]todo.Task]{
		Name: "tasks.delete",
		Key:  keys.TasksByList(listID),
		Validate: func() error {
			if err := (todo.ByListID{ListID: listID}).Validate(); err != nil {
				return err
			}
			return todo.ByID{ID: id}.Validate()
		},
		Apply: func(prev []todo.Task) []todo.Task {
			return slices.DeleteFunc(slices.Clone(prev), func(t todo.Task) bool { return t.ID == id })
		},
		Write: func(ctx context.Context) (err error) {
			res, err = s.repo.Delete(ctx, id)
			return err
		},
		SuccessLevel: mutation.LevelSuccess,
	})
	return res, err
}

type updateFunc func(ctx context.Context, in todo.TaskUpdate) (todo.WriteResult, error)

func (s *Service) update(ctx context.Context, name string, listID int64, in todo.TaskUpdate, write updateFunc, level mutation.Level) (todo.WriteResult, error) {
	var res todo.WriteResult

	err := mutation.Run(ctx, s.exec, mutation.Mutation[[]todo.Task]{
		Name: name,
		Key:  keys.TasksByList(listID),
		Validate: func() error {
			if err := (todo.ByListID{ListID: listID}).Validate(); err != nil {
				return err
			}
			return in.Validate()
		},
		Apply: func(prev []todo.Task) []todo.Task {
			now := s.now()
			next := make([]todo.Task, len(prev))
			for i, t := range prev {
				if t.ID == in.ID {
					t = in.Apply(t, now)
				}
				next[i] = t
			}
			return next
		},
		Write: func(ctx context.Context) (err error) {
			res, err = write(ctx, in)
			return err
		},
		SuccessLevel: level,
	})
	return res, err
}
