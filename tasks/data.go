package tasks

import (
	"context"
	"sync"

	"github.com/goliatone/go-todo-cache/query"
	"github.com/goliatone/go-todo-cache/todo"
)

// Data is the task screen: one list's tasks plus the filter the user picked.
type Data struct {
	svc    *Service
	listID int64
	tasks  *query.Binding[[]todo.Task]

	mu     sync.Mutex
	filter Filter
}

// Open binds the task screen for listID.
func (s *Service) Open(ctx context.Context, listID int64, f Filter) *Data {
	return &Data{
		svc:    s,
		listID: listID,
		tasks:  s.BindList(ctx, listID),
		filter: f,
	}
}

// ListID returns the list the screen shows.
func (d *Data) ListID() int64 { return d.listID }

// SetFilter replaces the filter state.
func (d *Data) SetFilter(f Filter) {
	d.mu.Lock()
	d.filter = f
	d.mu.Unlock()
}

// Filter returns the current filter state.
func (d *Data) Filter() Filter {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.filter
}

// View returns the tasks to render for the current filter.
func (d *Data) View() Result {
	return Select(d.tasks.Data(), d.Filter(), d.svc.now())
}

func (d *Data) IsLoading() bool    { return d.tasks.Result().IsLoading }
func (d *Data) IsError() bool      { return d.tasks.Result().IsError }
func (d *Data) IsRefetching() bool { return d.tasks.Result().IsRefetching }
func (d *Data) Err() error         { return d.tasks.Result().Err }

// RefetchAll forces the task list to reload.
func (d *Data) RefetchAll(ctx context.Context) error {
	return d.tasks.Refetch(ctx)
}

// Wait blocks until a running fetch settles.
func (d *Data) Wait(ctx context.Context) error {
	return d.tasks.Wait(ctx)
}

func (d *Data) Create(ctx context.Context, draft Draft) (todo.WriteResult, error) {
	return d.svc.Create(ctx, d.listID, draft)
}

func (d *Data) Edit(ctx context.Context, in todo.TaskUpdate) (todo.WriteResult, error) {
	return d.svc.Edit(ctx, d.listID, in)
}

func (d *Data) Delete(ctx context.Context, id int64) (todo.WriteResult, error) {
	return d.svc.Delete(ctx, d.listID, id)
}

func (d *Data) Toggle(ctx context.Context, t todo.Task) (todo.WriteResult, error) {
	return d.svc.SetCompletion(ctx, d.listID, t.ID, !t.IsCompleted)
}

func (d *Data) SetStatus(ctx context.Context, id int64, status todo.Status) (todo.WriteResult, error) {
	return d.svc.SetStatus(ctx, d.listID, id, status)
}

// Close releases the binding.
func (d *Data) Close() {
	d.tasks.Close()
}
