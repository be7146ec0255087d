package sqlstore

import (
	"context"
	"time"

	"github.com/goliatone/go-todo-cache/repository"
	"github.com/goliatone/go-todo-cache/todo"
	"github.com/uptrace/bun"
)

var _ repository.TaskRepository = (*TaskStore)(nil)

// TaskStore implements repository.TaskRepository.
type TaskStore struct {
	db  bun.IDB
	now func() time.Time
}

// NewTaskStore creates a TaskStore on db. A nil now uses time.Now.
func NewTaskStore(db bun.IDB, now func() time.Time) *TaskStore {
	if now == nil {
		now = time.Now
	}
	return &TaskStore{db: db, now: now}
}

func (s *TaskStore) GetByListID(ctx context.Context, listID int64) ([]todo.Task, error) {
	if err := (todo.ByListID{ListID: listID}).Validate(); err != nil {
		return nil, err
	}
	var rows []taskRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("list_id = ?", listID).
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]todo.Task, len(rows))
	for i, r := range rows {
		out[i] = r.toTask()
	}
	return out, nil
}

func (s *TaskStore) Create(ctx context.Context, in todo.TaskCreate) (todo.WriteResult, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return todo.WriteResult{}, err
	}
	now := todo.FormatTime(s.now())
	row := taskRow{
		ListID:      in.ListID,
		Name:        in.Name,
		Description: in.Description,
		Status:      string(in.Status),
		Priority:    string(in.Priority),
		IsCompleted: in.IsCompleted,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	res, err := s.db.NewInsert().Model(&row).Exec(ctx)
	if err != nil {
		return todo.WriteResult{}, err
	}
	return insertResult(res, row.ID)
}

// Update writes the non-nil fields of in. Status and completion are always
// written together.
func (s *TaskStore) Update(ctx context.Context, in todo.TaskUpdate) (todo.WriteResult, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return todo.WriteResult{}, err
	}

	q := s.db.NewUpdate().Model((*taskRow)(nil)).Where("id = ?", in.ID)
	if in.Name != nil {
		q = q.Set("name = ?", *in.Name)
	}
	if in.Description != nil {
		q = q.Set("description = ?", nullIfEmpty(*in.Description))
	}
	if in.Priority != nil {
		q = q.Set("priority = ?", nullIfEmpty(string(*in.Priority)))
	}
	if in.DueDate != nil {
		q = q.Set("due_date = ?", nullIfEmpty(*in.DueDate))
	}
	if in.Status != nil {
		q = q.Set("status = ?", string(*in.Status)).
			Set("is_completed = ?", *in.Status == todo.StatusCompleted)
	}
	q = q.Set("updated_at = ?", todo.FormatTime(s.now()))

	res, err := q.Exec(ctx)
	if err != nil {
		return todo.WriteResult{}, err
	}
	return affectedResult(res)
}

func (s *TaskStore) Delete(ctx context.Context, id int64) (todo.WriteResult, error) {
	if err := (todo.ByID{ID: id}).Validate(); err != nil {
		return todo.WriteResult{}, err
	}
	res, err := s.db.NewDelete().Model((*taskRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return todo.WriteResult{}, err
	}
	return affectedResult(res)
}

// Toggle sets the completion flag. Completing moves the task to completed;
// un-completing moves it to not started unless it is in progress.
func (s *TaskStore) Toggle(ctx context.Context, in todo.TaskToggle) (todo.WriteResult, error) {
	if err := in.Validate(); err != nil {
		return todo.WriteResult{}, err
	}
	res, err := s.db.NewUpdate().
		Model((*taskRow)(nil)).
		Set("is_completed = ?", in.IsCompleted).
		Set("status = CASE WHEN ? THEN ? WHEN status = ? THEN status ELSE ? END",
			in.IsCompleted, todo.StatusCompleted, todo.StatusInProgress, todo.StatusNotStarted).
		Set("updated_at = ?", todo.FormatTime(s.now())).
		Where("id = ?", in.ID).
		Exec(ctx)
	if err != nil {
		return todo.WriteResult{}, err
	}
	return affectedResult(res)
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
