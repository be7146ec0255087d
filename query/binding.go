package query

import (
	"context"
	"sync"
	"time"

	"github.com/goliatone/go-todo-cache/cache"
)

// FetchFunc loads the value for a slot from the source of truth.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Options controls how a binding treats its slot.
type Options struct {
	// StaleTime is how long fetched data counts as fresh. Zero means always stale.
	StaleTime time.Duration
	// Enabled bindings fetch on bind, on staleness and on invalidation.
	// Disabled bindings only read what is already cached.
	Enabled bool
}

// Option mutates Options.
type Option func(*Options)

// WithStaleTime sets Options.StaleTime.
func WithStaleTime(d time.Duration) Option {
	return func(o *Options) { o.StaleTime = d }
}

// WithEnabled sets Options.Enabled.
func WithEnabled(enabled bool) Option {
	return func(o *Options) { o.Enabled = enabled }
}

// Result is what a binding currently exposes.
type Result[T any] struct {
	Data T
	// IsLoading is true while the first fetch runs and nothing can be shown.
	IsLoading bool
	// IsRefetching is true while a fetch runs and some data is shown.
	IsRefetching bool
	IsError      bool
	Err          error
	// IsPlaceholder is true when Data belongs to the previously bound key.
	IsPlaceholder bool
	UpdatedAt     time.Time
}

// Binding ties a key and fetch function to a Store slot.
type Binding[T any] struct {
	store *Store
	opts  Options

	mu             sync.Mutex
	key            cache.Key
	slot           *slot
	fetch          FetchFunc[T]
	placeholder    T
	hasPlaceholder bool
	closed         bool
}

// Bind attaches to key's slot. If the binding is enabled and the slot is stale,
// a background fetch starts; data already cached stays visible meanwhile.
func Bind[T any](ctx context.Context, s *Store, key cache.Key, fetch FetchFunc[T], opts ...Option) *Binding[T] {
	o := Options{Enabled: true}
	for _, opt := range opts {
		opt(&o)
	}

	b := &Binding[T]{store: s, opts: o}
	b.mu.Lock()
	b.attachLocked(ctx, key, fetch)
	b.mu.Unlock()
	return b
}

func erase[T any](fetch FetchFunc[T]) fetcher {
	return func(ctx context.Context) (any, error) {
		v, err := fetch(ctx)
		return v, err
	}
}

func (b *Binding[T]) attachLocked(ctx context.Context, key cache.Key, fetch FetchFunc[T]) {
	sl := b.store.slotFor(key)
	b.key = key
	b.slot = sl
	b.fetch = fetch

	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.observers++
	if !b.opts.Enabled {
		return
	}
	sl.active++
	sl.fetch = erase(fetch)
	if sl.stale(b.store.now(), b.opts.StaleTime) {
		b.store.beginLocked(ctx, sl, sl.fetch)
	}
}

func (b *Binding[T]) detachLocked() {
	sl := b.slot
	sl.mu.Lock()
	sl.observers--
	if b.opts.Enabled {
		sl.active--
	}
	sl.mu.Unlock()
}

// Key returns the key the binding is attached to.
func (b *Binding[T]) Key() cache.Key {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.key
}

// Result returns a snapshot of the bound slot.
func (b *Binding[T]) Result() Result[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	sl := b.slot
	sl.mu.Lock()
	data, hasData := sl.data, sl.hasData
	fetching := sl.inflight != nil
	err := sl.err
	updatedAt := sl.updatedAt
	sl.mu.Unlock()

	var r Result[T]
	switch {
	case hasData:
		r.Data, _ = data.(T)
		r.UpdatedAt = updatedAt
		if b.hasPlaceholder {
			var zero T
			b.placeholder, b.hasPlaceholder = zero, false
		}
	case b.hasPlaceholder:
		r.Data = b.placeholder
		r.IsPlaceholder = true
	}

	r.IsLoading = fetching && !hasData && !b.hasPlaceholder
	r.IsRefetching = fetching && !r.IsLoading
	r.IsError = err != nil
	r.Err = err
	return r
}

// Data is shorthand for Result().Data.
func (b *Binding[T]) Data() T {
	return b.Result().Data
}

// Refetch fetches regardless of staleness and waits for the result. It joins a
// fetch that is already running for the slot.
func (b *Binding[T]) Refetch(ctx context.Context) error {
	b.mu.Lock()
	sl, fetch := b.slot, b.fetch
	b.mu.Unlock()

	sl.mu.Lock()
	call := b.store.beginLocked(ctx, sl, erase(fetch))
	sl.mu.Unlock()
	return call.wait(ctx)
}

// Revalidate refetches only when the binding is enabled and its slot is stale.
func (b *Binding[T]) Revalidate(ctx context.Context) error {
	if !b.opts.Enabled {
		return nil
	}
	b.mu.Lock()
	sl, fetch := b.slot, b.fetch
	b.mu.Unlock()

	sl.mu.Lock()
	if !sl.stale(b.store.now(), b.opts.StaleTime) {
		sl.mu.Unlock()
		return nil
	}
	call := b.store.beginLocked(ctx, sl, erase(fetch))
	sl.mu.Unlock()
	return call.wait(ctx)
}

// Wait blocks until the fetch currently running for the slot, if any, settles.
func (b *Binding[T]) Wait(ctx context.Context) error {
	b.mu.Lock()
	sl := b.slot
	b.mu.Unlock()

	sl.mu.Lock()
	call := sl.inflight
	sl.mu.Unlock()
	if call == nil {
		return nil
	}
	return call.wait(ctx)
}

// Rebind moves the binding to another key. Whatever was displayed for the old
// key stays visible as placeholder data until the new slot has data. opts are
// applied on top of the binding's current options.
func (b *Binding[T]) Rebind(ctx context.Context, key cache.Key, fetch FetchFunc[T], opts ...Option) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	if key.Equal(b.key) && len(opts) == 0 {
		b.fetch = fetch
		return
	}

	sl := b.slot
	sl.mu.Lock()
	if sl.hasData {
		b.placeholder, _ = sl.data.(T)
		b.hasPlaceholder = true
	}
	sl.mu.Unlock()

	b.detachLocked()
	for _, opt := range opts {
		opt(&b.opts)
	}
	b.attachLocked(ctx, key, fetch)
}

// Close drops the binding's subscription. The slot keeps its data.
func (b *Binding[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	b.detachLocked()
}
