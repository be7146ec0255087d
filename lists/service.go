package lists

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/goliatone/go-todo-cache/cache"
	"github.com/goliatone/go-todo-cache/keys"
	"github.com/goliatone/go-todo-cache/mutation"
	"github.com/goliatone/go-todo-cache/query"
	"github.com/goliatone/go-todo-cache/repository"
	"github.com/goliatone/go-todo-cache/todo"
)

const (
	AllStaleTime    = 10 * time.Second
	SearchStaleTime = 5 * time.Second
	RecentStaleTime = 30 * time.Second

	// DefaultRecentLimit is how many lists the recent strip shows.
	DefaultRecentLimit = 3
)

// Service reads and mutates lists through the query store.
type Service struct {
	repo   repository.ListRepository
	store  *query.Store
	exec   *mutation.Executor
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for optimistic timestamps.
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

// NewService creates a list service writing through exec.
func NewService(repo repository.ListRepository, exec *mutation.Executor, opts ...Option) *Service {
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

// AllQuery returns the binding parameters for the list screen. A search term
// that is empty after trimming selects the full collection.
func (s *Service) AllQuery(search string) (key cache.Key, fetch query.FetchFunc[[]todo.List], staleTime time.Duration) {
	term := strings.TrimSpace(search)
	if term == "" {
		return keys.Lists(), s.repo.GetAll, AllStaleTime
	}
	return keys.ListSearch(term), func(ctx context.Context) ([]todo.List, error) {
		return s.repo.Search(ctx, term)
	}, SearchStaleTime
}

// BindAll binds the full collection, or the search results for search.
func (s *Service) BindAll(ctx context.Context, search string) *query.Binding[[]todo.List] {
	key, fetch, stale := s.AllQuery(search)
	return query.Bind(ctx, s.store, key, fetch, query.WithStaleTime(stale))
}

// BindRecent binds the limit newest lists.
func (s *Service) BindRecent(ctx context.Context, limit int) *query.Binding[[]todo.List] {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}
	return query.Bind(ctx, s.store, keys.ListRecent(limit), func(ctx context.Context) ([]todo.List, error) {
		return s.repo.Recent(ctx, limit)
	}, query.WithStaleTime(RecentStaleTime))
}

// GetByID reads a single list. A missing list is reported as nil without error.
func (s *Service) GetByID(ctx context.Context, id int64) (*todo.List, error) {
	if err := (todo.ByID{ID: id}).Validate(); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Create adds a list named name. The list shows up in the ["lists"] slot with a
// placeholder id until the slot is refetched.
func (s *Service) Create(ctx context.Context, name string) (todo.WriteResult, error) {
	in := (&todo.ListCreate{Name: name}).Normalize()
	var res todo.WriteResult

	err := mutation.Run(ctx, s.exec, mutation.Mutation[[]todo.List]{
		Name:     "lists.create",
		Key:      keys.Lists(),
		Validate: in.Validate,
		Apply: func(prev []todo.List) []todo.List {
			now := todo.FormatTime(s.now())
			next := slices.Clone(prev)
			return append(next, todo.List{
				ID:        todo.PlaceholderID(),
				Name:      in.Name,
				CreatedAt: now,
				UpdatedAt: now,
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

// Rename changes the name of list id.
func (s *Service) Rename(ctx context.Context, id int64, name string) (todo.WriteResult, error) {
	in := (&todo.ListUpdate{ID: id, Name: name}).Normalize()
	var res todo.WriteResult

	err := mutation.Run(ctx, s.exec, mutation.Mutation[[]todo.List]{
		Name:     "lists.rename",
		Key:      keys.Lists(),
		Validate: in.Validate,
		Apply: func(prev []todo.List) []todo.List {
			now := todo.FormatTime(s.now())
			next := make([]todo.List, len(prev))
			for i, l := range prev {
				if l.ID == id {
					l.Name = in.Name
					l.UpdatedAt = now
				}
				next[i] = l
			}
			return next
		},
		Write: func(ctx context.Context) (err error) {
			res, err = s.repo.Update(ctx, *in)
			return err
		},
		SuccessLevel: mutation.LevelSuccess,
	})
	return res, err
}

// Delete removes list id. Once the write succeeds the list's task slots are
// evicted, since the store cascades the delete to its tasks.
func (s *Service) Delete(ctx context.Context, id int64) (todo.WriteResult, error) {
	var res todo.WriteResult

	err := mutation.Run(ctx, s.exec, mutation.Mutation[[]todo.List]{
		Name:     "lists.delete",
		Key:      keys.Lists(),
		Validate: todo.ByID{ID: id}.Validate,
		Apply: func(prev []todo.List) []todo.List {
			return slices.DeleteFunc(slices.Clone(prev), func(l todo.List) bool { return l.ID == id })
		},
		Write: func(ctx context.Context) (err error) {
			res, err = s.repo.Delete(ctx, id)
			return err
		},
		OnSuccess: func(context.Context) {
			n := s.store.Remove(keys.TasksByList(id))
			s.logger.Debug("evicted task slots of deleted list", "list_id", id, "slots", n)
		},
		SuccessLevel: mutation.LevelSuccess,
	})
	return res, err
}
