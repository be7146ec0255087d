// Package repository declares the data-access contract the cache layer talks to.
// Implementations validate their inputs and either return plain records or an error.
package repository

import (
	"context"

	"github.com/goliatone/go-todo-cache/todo"
)

// ListRepository reads and writes persisted lists.
type ListRepository interface {
	GetAll(ctx context.Context) ([]todo.List, error)
	// GetByID returns nil and no error when the list does not exist.
	GetByID(ctx context.Context, id int64) (*todo.List, error)
	Create(ctx context.Context, in todo.ListCreate) (todo.WriteResult, error)
	Update(ctx context.Context, in todo.ListUpdate) (todo.WriteResult, error)
	// Delete removes the list and, at the storage layer, its tasks.
	Delete(ctx context.Context, id int64) (todo.WriteResult, error)
	Search(ctx context.Context, term string) ([]todo.List, error)
	// Recent returns up to limit lists, newest first.
	Recent(ctx context.Context, limit int) ([]todo.List, error)
}

// TaskRepository reads and writes persisted tasks.
type TaskRepository interface {
	GetByListID(ctx context.Context, listID int64) ([]todo.Task, error)
	Create(ctx context.Context, in todo.TaskCreate) (todo.WriteResult, error)
	Update(ctx context.Context, in todo.TaskUpdate) (todo.WriteResult, error)
	Delete(ctx context.Context, id int64) (todo.WriteResult, error)
	Toggle(ctx context.Context, in todo.TaskToggle) (todo.WriteResult, error)
}
