package uistate

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

type failingStore struct {
	loadErr error
	saveErr error
	saved   []State
}

func (f *failingStore) Load(context.Context) (State, bool, error) {
	return State{}, false, f.loadErr
}

func (f *failingStore) Save(_ context.Context, s State) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, s)
	return nil
}

func TestCounterRequiresHydration(t *testing.T) {
	c := NewCounter(&MemoryStore{})
	ctx := context.Background()

	if _, err := c.Next(); !errors.Is(err, ErrNotHydrated) {
		t.Fatalf("Next before hydration: %v", err)
	}
	if _, err := c.Bump(ctx); !errors.Is(err, ErrNotHydrated) {
		t.Fatalf("Bump before hydration: %v", err)
	}
	if err := c.Reset(ctx); !errors.Is(err, ErrNotHydrated) {
		t.Fatalf("Reset before hydration: %v", err)
	}
	if _, err := c.DefaultListName(); !errors.Is(err, ErrNotHydrated) {
		t.Fatalf("DefaultListName before hydration: %v", err)
	}

	select {
	case <-c.Ready():
		t.Fatal("ready closed before hydration")
	default:
	}

	if err := <-c.HydrateAsync(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	<-c.Ready()
	if !c.Hydrated() {
		t.Fatal("expected hydrated")
	}
	if n, err := c.Next(); err != nil || n != 1 {
		t.Fatalf("Next = %d, %v; want 1", n, err)
	}
}

func TestCounterOperations(t *testing.T) {
	ctx := context.Background()
	store := &MemoryStore{}
	c := NewCounter(store)
	if err := c.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	if n, _ := c.Bump(ctx); n != 2 {
		t.Fatalf("Bump = %d, want 2", n)
	}
	name, err := c.Take(ctx)
	if err != nil || name != "New List 2" {
		t.Fatalf("Take = %q, %v", name, err)
	}
	if name, _ := c.DefaultListName(); name != "New List 3" {
		t.Fatalf("DefaultListName = %q", name)
	}
	if err := c.Set(ctx, 10); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := c.Set(ctx, 0); !errors.Is(err, ErrInvalidCounter) {
		t.Fatalf("Set(0) = %v", err)
	}
	if n, _ := c.Next(); n != 10 {
		t.Fatalf("Next = %d, want 10", n)
	}
	if err := c.Reset(ctx); err != nil {
		t.Fatalf("reset: %v", err)
	}

	persisted, ok, _ := store.Load(ctx)
	if !ok || persisted.NextListCounter != 1 {
		t.Fatalf("persisted state = %+v, %v", persisted, ok)
	}
}

func TestCounterKeepsValueWhenSaveFails(t *testing.T) {
	ctx := context.Background()
	store := &failingStore{}
	c := NewCounter(store)
	if err := c.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}

	store.saveErr = errors.New("read-only")
	if _, err := c.Bump(ctx); !errors.Is(err, store.saveErr) {
		t.Fatalf("expected save error, got %v", err)
	}
	if n, _ := c.Next(); n != 1 {
		t.Fatalf("counter advanced despite failed save: %d", n)
	}
}

func TestCounterHydrateError(t *testing.T) {
	c := NewCounter(&failingStore{loadErr: errors.New("corrupt")})
	if err := c.Hydrate(context.Background()); err == nil {
		t.Fatal("expected hydrate error")
	}
	if c.Hydrated() {
		t.Fatal("counter should stay unhydrated")
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", DefaultFileName)

	first := NewCounter(NewFileStore(path))
	if err := first.Hydrate(ctx); err != nil {
		t.Fatalf("hydrate: %v", err)
	}
	if n, _ := first.Next(); n != 1 {
		t.Fatalf("fresh counter = %d, want 1", n)
	}
	for i := 0; i < 4; i++ {
		if _, err := first.Bump(ctx); err != nil {
			t.Fatalf("bump: %v", err)
		}
	}

	second := NewCounter(NewFileStore(path))
	if err := second.Hydrate(ctx); err != nil {
		t.Fatalf("rehydrate: %v", err)
	}
	if n, _ := second.Next(); n != 5 {
		t.Fatalf("restored counter = %d, want 5", n)
	}

	matches, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp"))
	if len(matches) != 0 {
		t.Fatalf("temp files left behind: %v", matches)
	}
}
