package sqlstore

import (
	"github.com/goliatone/go-todo-cache/todo"
	"github.com/uptrace/bun"
)

type listRow struct {
	bun.BaseModel `bun:"table:lists,alias:l"`

	ID        int64  `bun:"id,pk,autoincrement"`
	Name      string `bun:"name,notnull"`
	CreatedAt string `bun:"created_at,notnull"`
	UpdatedAt string `bun:"updated_at,notnull"`
}

func (r listRow) toList() todo.List {
	return todo.List{
		ID:        r.ID,
		Name:      r.Name,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type taskRow struct {
	bun.BaseModel `bun:"table:tasks,alias:t"`

	ID          int64  `bun:"id,pk,autoincrement"`
	ListID      int64  `bun:"list_id,notnull"`
	Name        string `bun:"name,notnull"`
	Description string `bun:"description,nullzero"`
	Status      string `bun:"status,notnull"`
	Priority    string `bun:"priority,nullzero"`
	IsCompleted bool   `bun:"is_completed,notnull"`
	DueDate     string `bun:"due_date,nullzero"`
	CreatedAt   string `bun:"created_at,notnull"`
	UpdatedAt   string `bun:"updated_at,notnull"`
}

func (r taskRow) toTask() todo.Task {
	return todo.Task{
		ID:          r.ID,
		ListID:      r.ListID,
		Name:        r.Name,
		Description: r.Description,
		Status:      todo.Status(r.Status),
		Priority:    todo.Priority(r.Priority),
		IsCompleted: r.IsCompleted,
		DueDate:     r.DueDate,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func writeResult(rows int64, id int64) todo.WriteResult {
	return todo.WriteResult{RowsAffected: rows, LastInsertID: id}
}
