package query

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goliatone/go-todo-cache/cache"
)

// recordingHandler forwards log messages to a channel so tests can wait for
// background fetches to settle.
type recordingHandler struct {
	messages chan string
}

func newRecordingHandler() *recordingHandler {
	return &recordingHandler{messages: make(chan string, 64)}
}

func (h *recordingHandler) Enabled(context.Context, slog.Level) bool { return true }
func (h *recordingHandler) Handle(_ context.Context, r slog.Record) error {
	select {
	case h.messages <- r.Message:
	default:
	}
	return nil
}
func (h *recordingHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h *recordingHandler) WithGroup(string) slog.Handler      { return h }

func (h *recordingHandler) waitFor(t *testing.T, msg string) {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case m := <-h.messages:
			if m == msg {
				return
			}
		case <-timeout:
			t.Fatalf("timed out waiting for log message %q", msg)
		}
	}
}

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestStoreUpdateReturnsSnapshot(t *testing.T) {
	s := NewStore(WithClock(fixedClock(epoch)))
	key := cache.NewKey("lists")

	SetData(s, key, []string{"a"})
	prev, ok := UpdateData(s, key, func(prev []string) []string {
		return append(append([]string(nil), prev...), "b")
	})

	if !ok {
		t.Fatal("expected slot to report existing data")
	}
	if len(prev) != 1 || prev[0] != "a" {
		t.Fatalf("unexpected snapshot: %v", prev)
	}
	got, _ := GetData[[]string](s, key)
	if len(got) != 2 || got[1] != "b" {
		t.Fatalf("unexpected value after update: %v", got)
	}
}

func TestStoreRestore(t *testing.T) {
	tests := []struct {
		name    string
		seed    bool
		wantHas bool
	}{
		{name: "populated slot gets its value back", seed: true, wantHas: true},
		{name: "never populated slot is emptied", seed: false, wantHas: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore()
			key := cache.NewKey("lists")
			if tt.seed {
				SetData(s, key, 1)
			}

			prev, ok := UpdateData(s, key, func(prev int) int { return prev + 10 })
			s.Restore(key, prev, ok)

			got, has := GetData[int](s, key)
			if has != tt.wantHas {
				t.Fatalf("has data = %v, want %v", has, tt.wantHas)
			}
			if tt.wantHas && got != 1 {
				t.Fatalf("restored value = %d, want 1", got)
			}
		})
	}
}

func TestCancelDiscardsInflightResult(t *testing.T) {
	logs := newRecordingHandler()
	s := NewStore(WithLogger(slog.New(logs)))
	key := cache.NewKey("lists")

	release := make(chan struct{})
	b := Bind(context.Background(), s, key, func(context.Context) (string, error) {
		<-release
		return "server", nil
	})
	defer b.Close()

	if n := s.Cancel(cache.NewKey("lists")); n != 1 {
		t.Fatalf("expected one cancelled fetch, got %d", n)
	}
	SetData(s, key, "optimistic")
	close(release)
	logs.waitFor(t, "fetch result discarded")

	if got := b.Data(); got != "optimistic" {
		t.Fatalf("cancelled fetch overwrote the slot: %q", got)
	}
	if b.Result().IsRefetching {
		t.Fatal("binding should not report a fetch after cancel")
	}
}

func TestInvalidateRefetchesOnlyEnabledBindings(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var activeCalls, disabledCalls atomic.Int32
	active := Bind(ctx, s, cache.NewKey("lists", "search", "milk"), func(context.Context) (int, error) {
		return int(activeCalls.Add(1)), nil
	})
	defer active.Close()
	if err := active.Wait(ctx); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	disabled := Bind(ctx, s, cache.NewKey("lists", "recent", 5), func(context.Context) (int, error) {
		return int(disabledCalls.Add(1)), nil
	}, WithEnabled(false))
	defer disabled.Close()

	other := Bind(ctx, s, cache.NewKey("tasks", "byList", 1), func(context.Context) (int, error) {
		return 0, nil
	}, WithStaleTime(time.Hour))
	defer other.Close()
	if err := other.Wait(ctx); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	if err := s.Invalidate(ctx, cache.NewKey("lists")); err != nil {
		t.Fatalf("invalidate: %v", err)
	}

	if got := activeCalls.Load(); got != 2 {
		t.Fatalf("enabled binding fetched %d times, want 2", got)
	}
	if got := active.Data(); got != 2 {
		t.Fatalf("enabled binding shows %d, want refetched value 2", got)
	}
	if got := disabledCalls.Load(); got != 0 {
		t.Fatalf("disabled binding fetched %d times", got)
	}
	if !s.State(cache.NewKey("lists", "recent", 5)).Invalidated {
		t.Fatal("disabled slot should still be marked invalidated")
	}
	if s.State(cache.NewKey("tasks", "byList", 1)).Invalidated {
		t.Fatal("slot outside the prefix was invalidated")
	}
}

func TestInvalidateReturnsRefetchErrors(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	boom := errors.New("boom")

	var calls atomic.Int32
	b := Bind(ctx, s, cache.NewKey("lists"), func(context.Context) ([]string, error) {
		if calls.Add(1) > 1 {
			return nil, boom
		}
		return []string{"a"}, nil
	})
	defer b.Close()
	if err := b.Wait(ctx); err != nil {
		t.Fatalf("initial fetch: %v", err)
	}

	err := s.Invalidate(ctx, cache.NewKey("lists"))
	if !errors.Is(err, boom) {
		t.Fatalf("expected refetch error, got %v", err)
	}

	r := b.Result()
	if !r.IsError || !errors.Is(r.Err, boom) {
		t.Fatalf("binding should expose the error, got %+v", r)
	}
	if len(r.Data) != 1 || r.Data[0] != "a" {
		t.Fatalf("failed refetch should keep previous data, got %v", r.Data)
	}
}

func TestRemoveKeepsObservedSlots(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	SetData(s, cache.NewKey("tasks", "byList", 1), "one")
	SetData(s, cache.NewKey("tasks", "byList", 2), "two")

	b := Bind(ctx, s, cache.NewKey("tasks", "byList", 2), func(context.Context) (string, error) {
		return "two", nil
	}, WithEnabled(false))
	defer b.Close()

	if n := s.Remove(cache.NewKey("tasks", "byList", 1)); n != 1 {
		t.Fatalf("removed %d slots, want 1", n)
	}
	if s.Len() != 1 {
		t.Fatalf("expected unobserved slot to be dropped, %d slots left", s.Len())
	}

	s.Remove(cache.NewKey("tasks"))
	if s.Len() != 1 {
		t.Fatal("observed slot should be kept")
	}
	if _, ok := s.Get(cache.NewKey("tasks", "byList", 2)); ok {
		t.Fatal("observed slot should be emptied")
	}
}

func TestRefetchWithoutFetcher(t *testing.T) {
	s := NewStore()
	SetData(s, cache.NewKey("lists"), 1)

	if err := s.Refetch(context.Background(), cache.NewKey("lists")); !errors.Is(err, ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher, got %v", err)
	}
	if err := s.Refetch(context.Background(), cache.NewKey("missing")); !errors.Is(err, ErrNoFetcher) {
		t.Fatalf("expected ErrNoFetcher, got %v", err)
	}
}
