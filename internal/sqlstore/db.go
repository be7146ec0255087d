// Package sqlstore persists lists and tasks in SQLite through bun.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
)

// DriverName is the database/sql driver registered by go-sqlite3.
const DriverName = "sqlite3"

// FileDSN returns a DSN for the database file at path with foreign keys on,
// which the task cascade relies on.
func FileDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}

// MemoryDSN returns a DSN for a named in-memory database.
func MemoryDSN(name string) string {
	return fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
}

// Options configures Open.
type Options struct {
	Logger *slog.Logger
	// LogQueries logs every statement at debug level.
	LogQueries bool
}

// Open connects to dsn and creates the schema if it is missing.
func Open(ctx context.Context, dsn string, opts Options) (*bun.DB, error) {
	sqldb, err := sql.Open(DriverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite allows one writer; a single connection also keeps in-memory
	// databases alive for the lifetime of the handle.
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	if opts.LogQueries {
		logger := opts.Logger
		if logger == nil {
			logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
		db.AddQueryHook(&queryLogger{logger: logger})
	}

	if err := Migrate(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// Migrate creates the lists and tasks tables.
func Migrate(ctx context.Context, db bun.IDB) error {
	if _, err := db.NewCreateTable().
		Model((*listRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create lists table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*taskRow)(nil)).
		IfNotExists().
		ForeignKey(`("list_id") REFERENCES "lists" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}

	if _, err := db.NewCreateIndex().
		Model((*taskRow)(nil)).
		Index("tasks_list_id_idx").
		Column("list_id").
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create tasks index: %w", err)
	}
	return nil
}

// queryLogger is a bun.QueryHook that logs statements.
type queryLogger struct {
	logger *slog.Logger
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	attrs := []any{"query", event.Query, "duration", time.Since(event.StartTime)}
	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.logger.WarnContext(ctx, "query failed", append(attrs, "error", event.Err)...)
		return
	}
	h.logger.DebugContext(ctx, "query", attrs...)
}
