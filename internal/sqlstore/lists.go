package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/goliatone/go-todo-cache/repository"
	"github.com/goliatone/go-todo-cache/todo"
	"github.com/uptrace/bun"
)

var _ repository.ListRepository = (*ListStore)(nil)

// ListStore implements repository.ListRepository.
type ListStore struct {
	db  bun.IDB
	now func() time.Time
}

// NewListStore creates a ListStore on db. A nil now uses time.Now.
func NewListStore(db bun.IDB, now func() time.Time) *ListStore {
	if now == nil {
		now = time.Now
	}
	return &ListStore{db: db, now: now}
}

func (s *ListStore) GetAll(ctx context.Context) ([]todo.List, error) {
	var rows []listRow
	if err := s.db.NewSelect().Model(&rows).Order("id ASC").Scan(ctx); err != nil {
		return nil, err
	}
	return toLists(rows), nil
}

func (s *ListStore) GetByID(ctx context.Context, id int64) (*todo.List, error) {
	if err := (todo.ByID{ID: id}).Validate(); err != nil {
		return nil, err
	}
	var row listRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	list := row.toList()
	return &list, nil
}

func (s *ListStore) Create(ctx context.Context, in todo.ListCreate) (todo.WriteResult, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return todo.WriteResult{}, err
	}
	now := todo.FormatTime(s.now())
	row := listRow{Name: in.Name, CreatedAt: now, UpdatedAt: now}
	res, err := s.db.NewInsert().Model(&row).Exec(ctx)
	if err != nil {
		return todo.WriteResult{}, err
	}
	return insertResult(res, row.ID)
}

func (s *ListStore) Update(ctx context.Context, in todo.ListUpdate) (todo.WriteResult, error) {
	in.Normalize()
	if err := in.Validate(); err != nil {
		return todo.WriteResult{}, err
	}
	res, err := s.db.NewUpdate().
		Model((*listRow)(nil)).
		Set("name = ?", in.Name).
		Set("updated_at = ?", todo.FormatTime(s.now())).
		Where("id = ?", in.ID).
		Exec(ctx)
	if err != nil {
		return todo.WriteResult{}, err
	}
	return affectedResult(res)
}

// Delete removes the list. Its tasks are removed by the foreign key cascade.
func (s *ListStore) Delete(ctx context.Context, id int64) (todo.WriteResult, error) {
	if err := (todo.ByID{ID: id}).Validate(); err != nil {
		return todo.WriteResult{}, err
	}
	res, err := s.db.NewDelete().Model((*listRow)(nil)).Where("id = ?", id).Exec(ctx)
	if err != nil {
		return todo.WriteResult{}, err
	}
	return affectedResult(res)
}

// Search matches term anywhere in the name. SQLite LIKE is case-insensitive
// for ASCII.
func (s *ListStore) Search(ctx context.Context, term string) ([]todo.List, error) {
	if err := (todo.Search{Term: term}).Validate(); err != nil {
		return nil, err
	}
	var rows []listRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("name LIKE ? ESCAPE '\\'", "%"+escapeLike(term)+"%").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toLists(rows), nil
}

func (s *ListStore) Recent(ctx context.Context, limit int) ([]todo.List, error) {
	if err := (todo.RecentLimit{Limit: limit}).Validate(); err != nil {
		return nil, err
	}
	var rows []listRow
	err := s.db.NewSelect().
		Model(&rows).
		Order("created_at DESC", "id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return toLists(rows), nil
}

func toLists(rows []listRow) []todo.List {
	out := make([]todo.List, len(rows))
	for i, r := range rows {
		out[i] = r.toList()
	}
	return out
}

func insertResult(res sql.Result, id int64) (todo.WriteResult, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return todo.WriteResult{}, err
	}
	if id == 0 {
		if id, err = res.LastInsertId(); err != nil {
			return todo.WriteResult{}, err
		}
	}
	return writeResult(rows, id), nil
}

func affectedResult(res sql.Result) (todo.WriteResult, error) {
	rows, err := res.RowsAffected()
	if err != nil {
		return todo.WriteResult{}, err
	}
	return writeResult(rows, 0), nil
}

func escapeLike(term string) string {
	var b []byte
	for i := 0; i < len(term); i++ {
		switch c := term[i]; c {
		case '%', '_', '\\':
			b = append(b, '\\', c)
		default:
			b = append(b, c)
		}
	}
	return string(b)
}
