package lists

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/goliatone/go-todo-cache/debounce"
	"github.com/goliatone/go-todo-cache/query"
	"github.com/goliatone/go-todo-cache/todo"
)

// Data is everything the list screen renders: the lists matching the current
// search plus the recent strip.
type Data struct {
	svc    *Service
	all    *query.Binding[[]todo.List]
	recent *query.Binding[[]todo.List]

	typed *debounce.Value[string]
	bound string
}

// Open binds the list screen for search and recentLimit.
func (s *Service) Open(ctx context.Context, search string, recentLimit int) *Data {
	return &Data{
		svc:    s,
		all:    s.BindAll(ctx, search),
		recent: s.BindRecent(ctx, recentLimit),
		typed:  debounce.New(strings.TrimSpace(search), debounce.DefaultDelay),
		bound:  strings.TrimSpace(search),
	}
}

// SetSearch switches the main binding to another search term. The previous
// results stay visible until the new ones arrive.
func (d *Data) SetSearch(ctx context.Context, search string) {
	d.bound = strings.TrimSpace(search)
	key, fetch, stale := d.svc.AllQuery(search)
	d.all.Rebind(ctx, key, fetch, query.WithStaleTime(stale))
}

// TypeSearch records a keystroke in the search box at time at. Nothing is
// fetched until ApplySearch sees the term settle.
func (d *Data) TypeSearch(search string, at time.Time) {
	d.typed.Push(strings.TrimSpace(search), at)
}

// ApplySearch rebinds to the typed term once it has been stable for the
// debounce delay at time at. It reports whether a rebind happened.
func (d *Data) ApplySearch(ctx context.Context, at time.Time) bool {
	term := d.typed.Current(at)
	if term == d.bound {
		return false
	}
	d.SetSearch(ctx, term)
	return true
}

// Lists returns the lists shown in the main area.
func (d *Data) Lists() []todo.List {
	return nonNil(d.all.Data())
}

// RecentLists returns the lists shown in the recent strip.
func (d *Data) RecentLists() []todo.List {
	return nonNil(d.recent.Data())
}

func (d *Data) IsLoading() bool    { return d.all.Result().IsLoading }
func (d *Data) IsError() bool      { return d.all.Result().IsError }
func (d *Data) IsRefetching() bool { return d.all.Result().IsRefetching }

// Err returns the main binding's last fetch error.
func (d *Data) Err() error { return d.all.Result().Err }

// RefetchAll forces both bindings to reload.
func (d *Data) RefetchAll(ctx context.Context) error {
	return errors.Join(d.all.Refetch(ctx), d.recent.Refetch(ctx))
}

// Wait blocks until fetches started for both bindings settle.
func (d *Data) Wait(ctx context.Context) error {
	return errors.Join(d.all.Wait(ctx), d.recent.Wait(ctx))
}

func (d *Data) Create(ctx context.Context, name string) (todo.WriteResult, error) {
	return d.svc.Create(ctx, name)
}

func (d *Data) Rename(ctx context.Context, id int64, name string) (todo.WriteResult, error) {
	return d.svc.Rename(ctx, id, name)
}

func (d *Data) Delete(ctx context.Context, id int64) (todo.WriteResult, error) {
	return d.svc.Delete(ctx, id)
}

// Close releases both bindings.
func (d *Data) Close() {
	d.all.Close()
	d.recent.Close()
}

func nonNil(in []todo.List) []todo.List {
	if in == nil {
		return []todo.List{}
	}
	return in
}
