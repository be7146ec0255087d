package di

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/goliatone/go-todo-cache/cache"
	"github.com/goliatone/go-todo-cache/internal/sqlstore"
	"github.com/goliatone/go-todo-cache/lists"
	"github.com/goliatone/go-todo-cache/mutation"
	"github.com/goliatone/go-todo-cache/query"
	"github.com/goliatone/go-todo-cache/repository"
	"github.com/goliatone/go-todo-cache/repositorycache"
	"github.com/goliatone/go-todo-cache/tasks"
	"github.com/goliatone/go-todo-cache/uistate"
	"github.com/uptrace/bun"
)

// Container wires the cache layers, the repositories and the list and task
// services into one graph. Every component is a singleton for the lifetime of
// the container.
type Container struct {
	cacheService  cache.CacheService
	keySerializer cache.KeySerializer
	config        cache.Config

	store    *query.Store
	executor *mutation.Executor

	listRepo *repositorycache.CachedLists
	taskRepo *repositorycache.CachedTasks

	lists   *lists.Service
	tasks   *tasks.Service
	counter *uistate.Counter

	db *bun.DB
}

type settings struct {
	logger          *slog.Logger
	now             func() time.Time
	notifier        mutation.Notifier
	serializePerKey bool
}

// Option customizes a Container.
type Option func(*settings)

// WithLogger sets the logger handed to every component.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source of the query store and services.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithNotifier receives mutation outcomes. The default logs them.
func WithNotifier(n mutation.Notifier) Option {
	return func(s *settings) {
		s.notifier = n
	}
}

// WithSerializePerKey makes mutations on the same key run one at a time.
func WithSerializePerKey(enabled bool) Option {
	return func(s *settings) {
		s.serializePerKey = enabled
	}
}

// NewContainer builds a container around the given base repositories and
// counter persistence. Reads from the repositories are cached with a sturdyc
// backed cache service built from config.
func NewContainer(
	config cache.Config,
	listRepo repository.ListRepository,
	taskRepo repository.TaskRepository,
	state uistate.Persister,
	opts ...Option,
) (*Container, error) {
	s := settings{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(&s)
	}

	cacheService, err := cache.NewCacheService(config)
	if err != nil {
		return nil, err
	}
	keySerializer := cache.NewDefaultKeySerializer()

	store := query.NewStore(
		query.WithClock(s.now),
		query.WithLogger(s.logger),
		query.WithKeySerializer(keySerializer),
	)

	execOpts := []mutation.Option{
		mutation.WithLogger(s.logger),
		mutation.WithSerializePerKey(s.serializePerKey),
	}
	if s.notifier != nil {
		execOpts = append(execOpts, mutation.WithNotifier(s.notifier))
	}
	executor := mutation.NewExecutor(store, execOpts...)

	cachedLists := repositorycache.NewLists(listRepo, cacheService, keySerializer, repositorycache.WithLogger(s.logger))
	cachedTasks := repositorycache.NewTasks(taskRepo, cacheService, keySerializer, repositorycache.WithLogger(s.logger))

	return &Container{
		cacheService:  cacheService,
		keySerializer: keySerializer,
		config:        config,
		store:         store,
		executor:      executor,
		listRepo:      cachedLists,
		taskRepo:      cachedTasks,
		lists:         lists.NewService(cachedLists, executor, lists.WithClock(s.now), lists.WithLogger(s.logger)),
		tasks:         tasks.NewService(cachedTasks, executor, tasks.WithClock(s.now), tasks.WithLogger(s.logger)),
		counter:       uistate.NewCounter(state, uistate.WithLogger(s.logger)),
	}, nil
}

// Options configures Open.
type Options struct {
	// DatabasePath is the SQLite file. Its directory is created if missing.
	DatabasePath string
	// StateDir holds the persisted UI state.
	StateDir   string
	Cache      cache.Config
	LogQueries bool
}

// Open opens the SQLite store described by o and builds a container on top of
// it. The counter starts hydrating in the background. Close releases the
// database.
func Open(ctx context.Context, o Options, opts ...Option) (*Container, error) {
	s := settings{logger: slog.New(slog.NewTextHandler(io.Discard, nil)), now: time.Now}
	for _, opt := range opts {
		opt(&s)
	}

	if err := os.MkdirAll(filepath.Dir(o.DatabasePath), 0o755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}
	db, err := sqlstore.Open(ctx, sqlstore.FileDSN(o.DatabasePath), sqlstore.Options{
		Logger:     s.logger,
		LogQueries: o.LogQueries,
	})
	if err != nil {
		return nil, err
	}

	c, err := NewContainer(
		o.Cache,
		sqlstore.NewListStore(db, s.now),
		sqlstore.NewTaskStore(db, s.now),
		uistate.NewFileStoreInDir(o.StateDir),
		opts...,
	)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.db = db
	c.counter.HydrateAsync(ctx)
	return c, nil
}

// NewContainerWithDefaults builds a container on the default cache
// configuration with the counter kept in memory.
func NewContainerWithDefaults(listRepo repository.ListRepository, taskRepo repository.TaskRepository, opts ...Option) (*Container, error) {
	return NewContainer(cache.DefaultConfig(), listRepo, taskRepo, &uistate.MemoryStore{}, opts...)
}

// CacheService returns the repository read cache.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the serializer shared by the read cache and the query store.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Config returns the cache configuration used by this container.
func (c *Container) Config() cache.Config {
	return c.config
}

func (c *Container) Store() *query.Store {
	return c.store
}

func (c *Container) Executor() *mutation.Executor {
	return c.executor
}

// ListRepository returns the cached list repository the services use.
func (c *Container) ListRepository() *repositorycache.CachedLists {
	return c.listRepo
}

// TaskRepository returns the cached task repository the services use.
func (c *Container) TaskRepository() *repositorycache.CachedTasks {
	return c.taskRepo
}

func (c *Container) Lists() *lists.Service {
	return c.lists
}

func (c *Container) Tasks() *tasks.Service {
	return c.tasks
}

func (c *Container) Counter() *uistate.Counter {
	return c.counter
}

// Close releases the database opened by Open. It is a no-op otherwise.
func (c *Container) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}
