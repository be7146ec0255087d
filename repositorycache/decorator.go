package repositorycache

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/goliatone/go-todo-cache/cache"
	"github.com/goliatone/go-todo-cache/keys"
	"github.com/goliatone/go-todo-cache/repository"
	"github.com/goliatone/go-todo-cache/todo"
)

// Interface assertions to ensure the decorators implement the repository contracts
var (
	_ repository.ListRepository = (*CachedLists)(nil)
	_ repository.TaskRepository = (*CachedTasks)(nil)
)

// Option configures a cached repository
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger used to report failed invalidations
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// decorator holds what both cached repositories share
type decorator struct {
	cache         cache.CacheService
	keySerializer cache.KeySerializer
	logger        *slog.Logger
}

// invalidateByPrefix removes all cached keys that start with the given prefix
func (d decorator) invalidateByPrefix(ctx context.Context, prefix string) {
	if err := d.cache.DeleteByPrefix(ctx, prefix); err != nil {
		d.logger.Warn("cache invalidation failed", "prefix", prefix, "error", err)
	}
}

func (d decorator) invalidateKey(ctx context.Context, key string) {
	if err := d.cache.Delete(ctx, key); err != nil {
		d.logger.Warn("cache invalidation failed", "key", key, "error", err)
	}
}

// CachedLists decorates a ListRepository with read-through caching
type CachedLists struct {
	decorator
	base repository.ListRepository
}

// NewLists creates a CachedLists that wraps base
func NewLists(base repository.ListRepository, cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedLists {
	o := buildOptions(opts)
	return &CachedLists{
		decorator: decorator{cache: cacheService, keySerializer: keySerializer, logger: o.logger},
		base:      base,
	}
}

// GetAll retrieves every list, with caching
func (c *CachedLists) GetAll(ctx context.Context) ([]todo.List, error) {
	key := c.keySerializer.SerializeKey(keys.ListsNamespace, "GetAll")
	return cache.GetOrFetch(ctx, c.cache, key, c.base.GetAll)
}

// GetByID retrieves a list by ID, with caching. Misses are cached too and
// reported as nil without error.
func (c *CachedLists) GetByID(ctx context.Context, id int64) (*todo.List, error) {
	key := c.keySerializer.SerializeKey(keys.ListsNamespace, "GetByID", id)
	list, err := cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) (*todo.List, error) {
		list, err := c.base.GetByID(ctx, id)
		if err == nil && list == nil {
			return nil, cache.ErrNotFound
		}
		return list, err
	})
	if errors.Is(err, cache.ErrNotFound) {
		return nil, nil
	}
	return list, err
}

// Search retrieves lists matching term, with caching
func (c *CachedLists) Search(ctx context.Context, term string) ([]todo.List, error) {
	key := c.keySerializer.SerializeKey(keys.ListsNamespace, "Search", term)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]todo.List, error) {
		return c.base.Search(ctx, term)
	})
}

// Recent retrieves the newest lists, with caching
func (c *CachedLists) Recent(ctx context.Context, limit int) ([]todo.List, error) {
	key := c.keySerializer.SerializeKey(keys.ListsNamespace, "Recent", limit)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]todo.List, error) {
		return c.base.Recent(ctx, limit)
	})
}

// Create passes through to the base repository and invalidates list reads
func (c *CachedLists) Create(ctx context.Context, in todo.ListCreate) (todo.WriteResult, error) {
	defer c.invalidateLists(ctx)
	return c.base.Create(ctx, in)
}

// Update passes through to the base repository and invalidates list reads
func (c *CachedLists) Update(ctx context.Context, in todo.ListUpdate) (todo.WriteResult, error) {
	defer c.invalidateLists(ctx)
	return c.base.Update(ctx, in)
}

// Delete passes through to the base repository and invalidates list reads
// together with the tasks of the deleted list
func (c *CachedLists) Delete(ctx context.Context, id int64) (todo.WriteResult, error) {
	defer func() {
		c.invalidateLists(ctx)
		c.invalidateKey(ctx, c.keySerializer.SerializeKey(keys.TasksNamespace, "GetByListID", id))
	}()
	return c.base.Delete(ctx, id)
}

// invalidateLists runs after every write attempt, successful or not, since a
// failed write may still have been applied
func (c *CachedLists) invalidateLists(ctx context.Context) {
	c.invalidateByPrefix(ctx, keys.ListsNamespace+cache.KeySeparator)
}

// CachedTasks decorates a TaskRepository with read-through caching
type CachedTasks struct {
	decorator
	base repository.TaskRepository
}

// NewTasks creates a CachedTasks that wraps base
func NewTasks(base repository.TaskRepository, cacheService cache.CacheService, keySerializer cache.KeySerializer, opts ...Option) *CachedTasks {
	o := buildOptions(opts)
	return &CachedTasks{
		decorator: decorator{cache: cacheService, keySerializer: keySerializer, logger: o.logger},
		base:      base,
	}
}

// GetByListID retrieves the tasks of a list, with caching
func (c *CachedTasks) GetByListID(ctx context.Context, listID int64) ([]todo.Task, error) {
	key := c.keySerializer.SerializeKey(keys.TasksNamespace, "GetByListID", listID)
	return cache.GetOrFetch(ctx, c.cache, key, func(ctx context.Context) ([]todo.Task, error) {
		return c.base.GetByListID(ctx, listID)
	})
}

// Create passes through to the base repository and invalidates the list's tasks
func (c *CachedTasks) Create(ctx context.Context, in todo.TaskCreate) (todo.WriteResult, error) {
	defer c.invalidateKey(ctx, c.keySerializer.SerializeKey(keys.TasksNamespace, "GetByListID", in.ListID))
	return c.base.Create(ctx, in)
}

// Update passes through to the base repository and invalidates task reads
func (c *CachedTasks) Update(ctx context.Context, in todo.TaskUpdate) (todo.WriteResult, error) {
	defer c.invalidateTasks(ctx)
	return c.base.Update(ctx, in)
}

// Delete passes through to the base repository and invalidates task reads
func (c *CachedTasks) Delete(ctx context.Context, id int64) (todo.WriteResult, error) {
	defer c.invalidateTasks(ctx)
	return c.base.Delete(ctx, id)
}

// Toggle passes through to the base repository and invalidates task reads
func (c *CachedTasks) Toggle(ctx context.Context, in todo.TaskToggle) (todo.WriteResult, error) {
	defer c.invalidateTasks(ctx)
	return c.base.Toggle(ctx, in)
}

// invalidateTasks drops every cached task read. Task writes only carry the
// task id, not the list it belongs to.
func (c *CachedTasks) invalidateTasks(ctx context.Context) {
	c.invalidateByPrefix(ctx, keys.TasksNamespace+cache.KeySeparator)
}
