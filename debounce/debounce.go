// Package debounce coalesces rapidly changing input, such as a search box,
// into the value that has been stable for a delay. It has no timers: callers
// pass the current time in.
package debounce

import (
	"sync"
	"time"
)

// DefaultDelay is the search input delay.
const DefaultDelay = 400 * time.Millisecond

// Settled reports whether an input last changed at last has been stable for
// delay at now.
func Settled(last, now time.Time, delay time.Duration) bool {
	return !now.Before(last.Add(delay))
}

// Value holds the latest input and the last settled one.
type Value[T comparable] struct {
	delay time.Duration

	mu      sync.Mutex
	pending T
	changed time.Time
	current T
}

// New creates a Value whose settled value starts at initial. A non-positive
// delay selects DefaultDelay.
func New[T comparable](initial T, delay time.Duration) *Value[T] {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Value[T]{delay: delay, pending: initial, current: initial}
}

// Push records v as the latest input at time at. Pushing the pending value
// again does not restart the delay.
func (v *Value[T]) Push(in T, at time.Time) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if in == v.pending && !v.changed.IsZero() {
		return
	}
	v.pending = in
	v.changed = at
}

// Current returns the settled value at time at.
func (v *Value[T]) Current(at time.Time) T {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.pending != v.current && Settled(v.changed, at, v.delay) {
		v.current = v.pending
	}
	return v.current
}

// Pending reports whether a pushed value has not settled yet at time at.
func (v *Value[T]) Pending(at time.Time) bool {
	return v.Current(at) != v.latest()
}

// Deadline returns when the pending value settles.
func (v *Value[T]) Deadline() time.Time {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.changed.Add(v.delay)
}

func (v *Value[T]) latest() T {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.pending
}
