package mutation

import (
	"github.com/goliatone/go-todo-cache/cache"
	"github.com/goliatone/go-todo-cache/query"
)

// Optimistic is the rollback context of one optimistic write: the slot it
// patched and the value it replaced.
type Optimistic[T any] struct {
	store    *query.Store
	key      cache.Key
	Previous T
	existed  bool
	settled  bool
}

// Begin cancels in-flight fetches for key, snapshots the slot and writes
// apply(snapshot) in one step. A nil apply leaves the value unchanged.
func Begin[T any](store *query.Store, key cache.Key, apply func(prev T) T) *Optimistic[T] {
	store.Cancel(key)
	if apply == nil {
		apply = func(prev T) T { return prev }
	}
	prev, existed := query.UpdateData(store, key, apply)
	return &Optimistic[T]{
		store:    store,
		key:      key,
		Previous: prev,
		existed:  existed,
	}
}

// Key returns the patched slot's key.
func (o *Optimistic[T]) Key() cache.Key {
	return o.key
}

// Existed reports whether the slot held data before the patch.
func (o *Optimistic[T]) Existed() bool {
	return o.existed
}

// Settled reports whether Commit or Rollback ran.
func (o *Optimistic[T]) Settled() bool {
	return o.settled
}

// Commit keeps the optimistic value. The slot is reconciled by invalidation.
func (o *Optimistic[T]) Commit() {
	o.settled = true
}

// Rollback restores the snapshot taken by Begin, including an empty slot.
// It is a no-op once the mutation has settled.
func (o *Optimistic[T]) Rollback() {
	if o.settled {
		return
	}
	o.settled = true
	o.store.Restore(o.key, o.Previous, o.existed)
}
