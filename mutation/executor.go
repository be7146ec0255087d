package mutation

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/goliatone/go-todo-cache/cache"
	"github.com/goliatone/go-todo-cache/query"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Phase names the step a mutation failed in.
type Phase string

const (
	PhaseValidate Phase = "validate"
	PhaseWrite    Phase = "write"
)

// Error reports a failed mutation.
type Error struct {
	Mutation string
	Phase    Phase
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("mutation %s failed during %s: %v", e.Mutation, e.Phase, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Mutation describes one write against the repository and its effect on a
// cached slot of type T.
type Mutation[T any] struct {
	// Name identifies the mutation in logs and events.
	Name string
	// Key is the slot patched optimistically.
	Key cache.Key
	// Validate runs before anything else. A failure stops the mutation with no
	// cache write and no repository call.
	Validate func() error
	// Apply computes the optimistic value from the current one. It must not
	// modify prev in place.
	Apply func(prev T) T
	// Write performs the repository call.
	Write func(ctx context.Context) error
	// Invalidate lists extra prefixes to refetch once the mutation settles.
	Invalidate []cache.Key
	// OnSuccess runs after a successful write, before invalidation.
	OnSuccess func(ctx context.Context)
	// SuccessLevel is the feedback level reported on success.
	SuccessLevel Level
}

// Executor runs mutations against a Store.
type Executor struct {
	store     *query.Store
	notifier  Notifier
	logger    *slog.Logger
	serialize bool
	locks     *xsync.MapOf[string, *sync.Mutex]
}

// Option configures an Executor.
type Option func(*Executor)

// WithNotifier sets where settled mutations are reported.
func WithNotifier(n Notifier) Option {
	return func(e *Executor) {
		if n != nil {
			e.notifier = n
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithSerializePerKey makes mutations on the same key run one after another,
// so each snapshot includes the previous mutation's outcome. By default
// overlapping mutations on one key interleave and the last cache write wins.
func WithSerializePerKey(enabled bool) Option {
	return func(e *Executor) { e.serialize = enabled }
}

// NewExecutor creates an executor bound to store.
func NewExecutor(store *query.Store, opts ...Option) *Executor {
	e := &Executor{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		locks:  xsync.NewMapOf[string, *sync.Mutex](),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.notifier == nil {
		e.notifier = LogNotifier(e.logger)
	}
	return e
}

// Store returns the store mutations are applied to.
func (e *Executor) Store() *query.Store {
	return e.store
}

// Run executes m:
//
//  1. cancel fetches for m.Key, snapshot it and write the optimistic value;
//  2. call m.Write;
//  3. commit or roll back, notify, then invalidate m.Key and m.Invalidate.
//
// Step 3 runs exactly once, with a context that is not cancelled by ctx.
// Write errors are reported to the Notifier and returned as *Error.
func Run[T any](ctx context.Context, e *Executor, m Mutation[T]) error {
	id := uuid.New()
	log := e.logger.With("mutation", m.Name, "id", id.String(), "key", m.Key.String())

	if m.Validate != nil {
		if err := m.Validate(); err != nil {
			log.Debug("mutation rejected", "error", err)
			return &Error{Mutation: m.Name, Phase: PhaseValidate, Err: err}
		}
	}

	if e.serialize {
		unlock := e.lock(m.Key)
		defer unlock()
	}

	optimistic := Begin(e.store, m.Key, m.Apply)
	log.Debug("optimistic value applied", "existed", optimistic.Existed())

	err := write(ctx, m.Write)

	settleCtx := context.WithoutCancel(ctx)
	event := Event{ID: id, Mutation: m.Name, Key: m.Key, Level: m.SuccessLevel}
	if err != nil {
		optimistic.Rollback()
		event.Level, event.Err = LevelError, err
		log.Warn("write failed, optimistic value rolled back", "error", err)
	} else {
		optimistic.Commit()
		if m.OnSuccess != nil {
			m.OnSuccess(settleCtx)
		}
	}
	e.notifier.Notify(settleCtx, event)
	e.settle(settleCtx, log, m.Key, m.Invalidate)

	if err != nil {
		return &Error{Mutation: m.Name, Phase: PhaseWrite, Err: err}
	}
	return nil
}

func write(ctx context.Context, fn func(context.Context) error) (err error) {
	if fn == nil {
		return nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("write panicked: %v", r)
		}
	}()
	return fn(ctx)
}

func (e *Executor) settle(ctx context.Context, log *slog.Logger, key cache.Key, extra []cache.Key) {
	prefixes := append([]cache.Key{key}, extra...)
	for i, prefix := range prefixes {
		if coveredBy(prefix, prefixes[:i]) {
			continue
		}
		if err := e.store.Invalidate(ctx, prefix); err != nil {
			log.Warn("refetch after mutation failed", "prefix", prefix.String(), "error", err)
		}
	}
}

func coveredBy(key cache.Key, prefixes []cache.Key) bool {
	for _, p := range prefixes {
		if key.HasPrefix(p) {
			return true
		}
	}
	return false
}

func (e *Executor) lock(key cache.Key) func() {
	mu, _ := e.locks.LoadOrCompute(key.String(), func() *sync.Mutex { return &sync.Mutex{} })
	mu.Lock()
	return mu.Unlock
}
