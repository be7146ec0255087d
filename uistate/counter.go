// Package uistate holds the small piece of UI state that outlives the process:
// the counter behind default list names.
package uistate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// ErrNotHydrated is returned by counter operations that run before the
// persisted value was loaded.
var ErrNotHydrated = errors.New("uistate: counter not hydrated")

// ErrInvalidCounter is returned when setting a counter below 1.
var ErrInvalidCounter = errors.New("uistate: counter must be at least 1")

// DefaultListNameFormat renders a default list name from the counter.
const DefaultListNameFormat = "New List %d"

// State is the persisted UI state.
type State struct {
	NextListCounter int `msgpack:"next_list_counter" yaml:"next_list_counter"`
}

// InitialState is used when nothing was persisted yet.
func InitialState() State {
	return State{NextListCounter: 1}
}

// Persister loads and saves State. Load reports false when nothing was saved.
type Persister interface {
	Load(ctx context.Context) (State, bool, error)
	Save(ctx context.Context, s State) error
}

// Counter is the list name counter. It is unusable until Hydrate completes.
type Counter struct {
	store  Persister
	logger *slog.Logger

	mu       sync.Mutex
	state    State
	hydrated bool
	ready    chan struct{}
}

// CounterOption configures a Counter.
type CounterOption func(*Counter)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) CounterOption {
	return func(c *Counter) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewCounter creates an unhydrated counter backed by store.
func NewCounter(store Persister, opts ...CounterOption) *Counter {
	c := &Counter{
		store:  store,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		state:  InitialState(),
		ready:  make(chan struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Hydrate loads the persisted state. It is safe to call more than once; only
// the first successful call has an effect.
func (c *Counter) Hydrate(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.hydrated {
		return nil
	}

	state, ok, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("hydrate counter: %w", err)
	}
	if ok && state.NextListCounter >= 1 {
		c.state = state
	}
	c.hydrated = true
	close(c.ready)
	c.logger.Debug("counter hydrated", "next_list_counter", c.state.NextListCounter, "persisted", ok)
	return nil
}

// HydrateAsync runs Hydrate in the background. The channel receives its result.
func (c *Counter) HydrateAsync(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- c.Hydrate(ctx)
	}()
	return done
}

// Hydrated reports whether the persisted value was loaded.
func (c *Counter) Hydrated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hydrated
}

// Ready is closed once the counter is hydrated.
func (c *Counter) Ready() <-chan struct{} {
	return c.ready
}

// Next returns the current counter value.
func (c *Counter) Next() (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hydrated {
		return 0, ErrNotHydrated
	}
	return c.state.NextListCounter, nil
}

// DefaultListName renders the name the next list gets by default.
func (c *Counter) DefaultListName() (string, error) {
	n, err := c.Next()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(DefaultListNameFormat, n), nil
}

// Take returns the default list name and bumps the counter in one step.
func (c *Counter) Take(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hydrated {
		return "", ErrNotHydrated
	}
	name := fmt.Sprintf(DefaultListNameFormat, c.state.NextListCounter)
	if err := c.saveLocked(ctx, State{NextListCounter: c.state.NextListCounter + 1}); err != nil {
		return "", err
	}
	return name, nil
}

// Bump increments the counter and persists it, returning the new value.
func (c *Counter) Bump(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hydrated {
		return 0, ErrNotHydrated
	}
	next := State{NextListCounter: c.state.NextListCounter + 1}
	if err := c.saveLocked(ctx, next); err != nil {
		return 0, err
	}
	return next.NextListCounter, nil
}

// Set stores n as the counter value.
func (c *Counter) Set(ctx context.Context, n int) error {
	if n < 1 {
		return ErrInvalidCounter
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.hydrated {
		return ErrNotHydrated
	}
	return c.saveLocked(ctx, State{NextListCounter: n})
}

// Reset sets the counter back to 1.
func (c *Counter) Reset(ctx context.Context) error {
	return c.Set(ctx, InitialState().NextListCounter)
}

// saveLocked persists next and only then makes it current.
func (c *Counter) saveLocked(ctx context.Context, next State) error {
	if err := c.store.Save(ctx, next); err != nil {
		return fmt.Errorf("save counter: %w", err)
	}
	c.state = next
	return nil
}
