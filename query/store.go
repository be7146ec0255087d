package query

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/goliatone/go-todo-cache/cache"
	"github.com/puzpuzpuz/xsync/v3"
)

// ErrNoFetcher is returned when a slot is refetched before any binding registered
// a fetch function for it.
var ErrNoFetcher = errors.New("query: slot has no fetch function")

// Clock returns the current time. Tests inject a fixed or stepping clock.
type Clock func() time.Time

// Store maps cache keys to their last known result plus loading, error and
// staleness metadata. Each slot has its own lock; a write replaces the slot
// value in a single assignment.
type Store struct {
	slots  *xsync.MapOf[string, *slot]
	keys   cache.KeySerializer
	now    Clock
	logger *slog.Logger
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source.
func WithClock(clock Clock) StoreOption {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithKeySerializer overrides how keys map to slot ids.
func WithKeySerializer(serializer cache.KeySerializer) StoreOption {
	return func(s *Store) {
		if serializer != nil {
			s.keys = serializer
		}
	}
}

// NewStore creates an empty store.
func NewStore(opts ...StoreOption) *Store {
	s := &Store{
		slots:  xsync.NewMapOf[string, *slot](),
		keys:   cache.NewDefaultKeySerializer(),
		now:    time.Now,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type fetcher func(ctx context.Context) (any, error)

type slot struct {
	mu          sync.Mutex
	id          string
	key         cache.Key
	data        any
	hasData     bool
	updatedAt   time.Time
	invalidated bool
	err         error
	epoch       uint64
	inflight    *fetchCall
	fetch       fetcher
	observers   int
	active      int
}

func (sl *slot) setData(v any, now time.Time) {
	sl.data = v
	sl.hasData = true
	sl.updatedAt = now
	sl.invalidated = false
	sl.err = nil
}

func (sl *slot) stale(now time.Time, staleTime time.Duration) bool {
	return !sl.hasData || sl.invalidated || now.Sub(sl.updatedAt) >= staleTime
}

// fetchCall is one in-flight fetch shared by every caller that asks for the
// same slot while it runs.
type fetchCall struct {
	done  chan struct{}
	epoch uint64
	err   error
}

func (c *fetchCall) wait(ctx context.Context) error {
	select {
	case <-c.done:
		return c.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SlotState is a read-only view of a slot's metadata.
type SlotState struct {
	Key         cache.Key
	HasData     bool
	UpdatedAt   time.Time
	Invalidated bool
	Fetching    bool
	Err         error
	Observers   int
}

func (s *Store) slotFor(key cache.Key) *slot {
	id := key.Serialize(s.keys)
	sl, _ := s.slots.LoadOrCompute(id, func() *slot {
		return &slot{id: id, key: slices.Clone(key)}
	})
	return sl
}

func (s *Store) lookup(key cache.Key) (*slot, bool) {
	return s.slots.Load(key.Serialize(s.keys))
}

func (s *Store) matching(prefix cache.Key) []*slot {
	var out []*slot
	s.slots.Range(func(_ string, sl *slot) bool {
		if sl.key.HasPrefix(prefix) {
			out = append(out, sl)
		}
		return true
	})
	return out
}

// Get returns the cached value for key.
func (s *Store) Get(key cache.Key) (any, bool) {
	sl, ok := s.lookup(key)
	if !ok {
		return nil, false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return sl.data, sl.hasData
}

// Set replaces the cached value for key and marks it fresh.
func (s *Store) Set(key cache.Key, v any) {
	sl := s.slotFor(key)
	sl.mu.Lock()
	sl.setData(v, s.now())
	sl.mu.Unlock()
}

// Update reads the current value and writes fn's result under the slot lock,
// returning the value it replaced.
func (s *Store) Update(key cache.Key, fn func(prev any, ok bool) any) (prev any, ok bool) {
	sl := s.slotFor(key)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	prev, ok = sl.data, sl.hasData
	sl.setData(fn(prev, ok), s.now())
	return prev, ok
}

// Restore puts back a value captured by Update. When ok is false the slot is
// returned to its empty state.
func (s *Store) Restore(key cache.Key, v any, ok bool) {
	sl := s.slotFor(key)
	sl.mu.Lock()
	defer sl.mu.Unlock()
	if ok {
		sl.setData(v, s.now())
		return
	}
	sl.data = nil
	sl.hasData = false
	sl.updatedAt = time.Time{}
}

// Cancel detaches in-flight fetches for every slot under prefix. The underlying
// calls keep running but their results are discarded. It returns the number of
// fetches cancelled.
func (s *Store) Cancel(prefix cache.Key) int {
	n := 0
	for _, sl := range s.matching(prefix) {
		sl.mu.Lock()
		if sl.inflight != nil {
			sl.epoch++
			sl.inflight = nil
			n++
		}
		sl.mu.Unlock()
	}
	if n > 0 {
		s.logger.Debug("cancelled in-flight fetches", "prefix", prefix.String(), "count", n)
	}
	return n
}

// Invalidate marks every slot under prefix as stale. Slots watched by an enabled
// binding are refetched, replacing any fetch already running, and Invalidate
// waits for those refetches.
func (s *Store) Invalidate(ctx context.Context, prefix cache.Key) error {
	var calls []*fetchCall
	for _, sl := range s.matching(prefix) {
		sl.mu.Lock()
		sl.invalidated = true
		if sl.active > 0 && sl.fetch != nil {
			if sl.inflight != nil {
				sl.epoch++
				sl.inflight = nil
			}
			calls = append(calls, s.beginLocked(ctx, sl, sl.fetch))
		}
		sl.mu.Unlock()
	}

	s.logger.Debug("invalidated", "prefix", prefix.String(), "refetching", len(calls))

	var errs []error
	for _, call := range calls {
		if err := call.wait(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Remove evicts every slot under prefix. Slots still held by a binding are
// emptied instead of dropped so the binding keeps observing them.
func (s *Store) Remove(prefix cache.Key) int {
	n := 0
	for _, sl := range s.matching(prefix) {
		sl.mu.Lock()
		sl.epoch++
		sl.inflight = nil
		sl.data = nil
		sl.hasData = false
		sl.updatedAt = time.Time{}
		sl.invalidated = false
		sl.err = nil
		if sl.observers == 0 {
			s.slots.Delete(sl.id)
		}
		sl.mu.Unlock()
		n++
	}
	return n
}

// Refetch forces a fetch of key with the last registered fetch function and
// waits for it. Concurrent refetches of the same key share one call.
func (s *Store) Refetch(ctx context.Context, key cache.Key) error {
	sl, ok := s.lookup(key)
	if !ok {
		return ErrNoFetcher
	}
	sl.mu.Lock()
	if sl.fetch == nil {
		sl.mu.Unlock()
		return ErrNoFetcher
	}
	call := s.beginLocked(ctx, sl, sl.fetch)
	sl.mu.Unlock()
	return call.wait(ctx)
}

// State reports the metadata of key's slot.
func (s *Store) State(key cache.Key) SlotState {
	sl, ok := s.lookup(key)
	if !ok {
		return SlotState{Key: key}
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return SlotState{
		Key:         sl.key,
		HasData:     sl.hasData,
		UpdatedAt:   sl.updatedAt,
		Invalidated: sl.invalidated,
		Fetching:    sl.inflight != nil,
		Err:         sl.err,
		Observers:   sl.observers,
	}
}

// Len reports the number of slots.
func (s *Store) Len() int {
	return s.slots.Size()
}

// beginLocked starts a fetch for sl unless one is already running, in which
// case the running call is returned. sl.mu must be held.
func (s *Store) beginLocked(ctx context.Context, sl *slot, fn fetcher) *fetchCall {
	if sl.inflight != nil {
		return sl.inflight
	}
	call := &fetchCall{done: make(chan struct{}), epoch: sl.epoch}
	sl.inflight = call
	go s.run(context.WithoutCancel(ctx), sl, call, fn)
	return call
}

func (s *Store) run(ctx context.Context, sl *slot, call *fetchCall, fn fetcher) {
	defer close(call.done)

	s.logger.Debug("fetch started", "key", sl.id)
	data, err := fn(ctx)
	now := s.now()

	sl.mu.Lock()
	defer sl.mu.Unlock()
	if sl.inflight == call {
		sl.inflight = nil
	}

	switch {
	case call.epoch != sl.epoch:
		s.logger.Debug("fetch result discarded", "key", sl.id)
	case err != nil:
		sl.err = err
		call.err = err
		s.logger.Warn("fetch failed", "key", sl.id, "error", err)
	default:
		sl.setData(data, now)
		s.logger.Debug("fetch finished", "key", sl.id)
	}
}

// GetData is the typed form of Store.Get.
func GetData[T any](s *Store, key cache.Key) (T, bool) {
	v, ok := s.Get(key)
	if !ok {
		var zero T
		return zero, false
	}
	typed, _ := v.(T)
	return typed, true
}

// SetData is the typed form of Store.Set.
func SetData[T any](s *Store, key cache.Key, v T) {
	s.Set(key, v)
}

// UpdateData is the typed form of Store.Update. A missing or mistyped value is
// passed to fn as the zero value of T.
func UpdateData[T any](s *Store, key cache.Key, fn func(prev T) T) (prev T, ok bool) {
	raw, ok := s.Update(key, func(p any, _ bool) any {
		typed, _ := p.(T)
		return fn(typed)
	})
	typed, _ := raw.(T)
	return typed, ok
}
