package mutation

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-todo-cache/cache"
	"github.com/google/uuid"
)

// Level is the kind of user feedback a settled mutation asks for.
type Level int

const (
	LevelSuccess Level = iota
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// Event describes a settled mutation.
type Event struct {
	ID       uuid.UUID
	Mutation string
	Key      cache.Key
	Level    Level
	Err      error
}

// Notifier surfaces settled mutations to the user (toast, alert, haptics).
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, event Event)

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, event Event) {
	f(ctx, event)
}

type logNotifier struct {
	logger *slog.Logger
}

// LogNotifier reports events through logger.
func LogNotifier(logger *slog.Logger) Notifier {
	return logNotifier{logger: logger}
}

func (n logNotifier) Notify(ctx context.Context, event Event) {
	attrs := []any{"mutation", event.Mutation, "id", event.ID.String(), "level", event.Level.String()}
	if event.Err != nil {
		n.logger.ErrorContext(ctx, "mutation failed", append(attrs, "error", event.Err)...)
		return
	}
	n.logger.InfoContext(ctx, "mutation settled", attrs...)
}
