package cacheinfra

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

var errNoRecord = errors.New("no record")

func testConfig() Config {
	return Config{
		Capacity:           100,
		NumShards:          4,
		TTL:                time.Minute,
		EvictionPercentage: 10,
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.Capacity != 2000 || cfg.NumShards != 16 || cfg.TTL != 5*time.Minute {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if !cfg.MissingRecordStorage {
		t.Error("missing record storage should be on by default")
	}
	if cfg.EarlyRefresh != nil {
		t.Error("early refresh should be off by default")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "zero capacity", mutate: func(c *Config) { c.Capacity = 0 }, field: "Capacity"},
		{name: "zero shards", mutate: func(c *Config) { c.NumShards = 0 }, field: "NumShards"},
		{name: "zero ttl", mutate: func(c *Config) { c.TTL = 0 }, field: "TTL"},
		{name: "eviction below range", mutate: func(c *Config) { c.EvictionPercentage = 0 }, field: "EvictionPercentage"},
		{name: "eviction above range", mutate: func(c *Config) { c.EvictionPercentage = 101 }, field: "EvictionPercentage"},
		{
			name: "negative min refresh",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: -time.Second}
			},
			field: "EarlyRefresh.MinAsyncRefreshTime",
		},
		{
			name: "max below min refresh",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{MinAsyncRefreshTime: 2 * time.Second, MaxAsyncRefreshTime: time.Second}
			},
			field: "EarlyRefresh.MaxAsyncRefreshTime",
		},
		{
			name: "negative retry delay",
			mutate: func(c *Config) {
				c.EarlyRefresh = &EarlyRefreshConfig{RetryBaseDelay: -time.Millisecond}
			},
			field: "EarlyRefresh.RetryBaseDelay",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.field == "" {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}

			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("expected *ConfigError, got %v", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("expected field %q, got %q", tt.field, cfgErr.Field)
			}
		})
	}
}

func TestConfig_ToSturdycOptions(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want int
	}{
		{name: "no options", cfg: testConfig(), want: 0},
		{name: "defaults", cfg: DefaultConfig(), want: 1},
		{
			name: "everything",
			cfg: Config{
				EarlyRefresh: &EarlyRefreshConfig{
					MinAsyncRefreshTime: time.Second,
					MaxAsyncRefreshTime: 2 * time.Second,
					SyncRefreshTime:     5 * time.Second,
					RetryBaseDelay:      10 * time.Millisecond,
				},
				MissingRecordStorage: true,
				EvictionInterval:     time.Minute,
			},
			want: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(tt.cfg.ToSturdycOptions()); got != tt.want {
				t.Errorf("expected %d options, got %d", tt.want, got)
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{Field: "TTL", Message: "must be greater than 0"}
	if got := err.Error(); got != "config error in field TTL: must be greater than 0" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestNewSturdycService_InvalidConfig(t *testing.T) {
	if _, err := NewSturdycService(Config{}, errNoRecord); err == nil {
		t.Fatal("expected an error for an empty config")
	}
}

func TestSturdycService_GetOrFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("caches results", func(t *testing.T) {
		svc := newService(t, testConfig())
		var calls atomic.Int32
		fetch := func(context.Context) (any, error) {
			calls.Add(1)
			return []string{"Inbox"}, nil
		}

		for i := 0; i < 3; i++ {
			v, err := svc.GetOrFetch(ctx, "lists::GetAll", fetch)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if names, ok := v.([]string); !ok || names[0] != "Inbox" {
				t.Fatalf("unexpected value %#v", v)
			}
		}
		if calls.Load() != 1 {
			t.Errorf("expected one fetch, got %d", calls.Load())
		}
		if _, ok := svc.Get("lists::GetAll"); !ok {
			t.Error("expected the value to be cached")
		}
	})

	t.Run("nil fetch function", func(t *testing.T) {
		svc := newService(t, testConfig())
		var cfgErr *ConfigError
		if _, err := svc.GetOrFetch(ctx, "key", nil); !errors.As(err, &cfgErr) {
			t.Errorf("expected ConfigError, got %v", err)
		}
	})

	t.Run("errors are not cached", func(t *testing.T) {
		svc := newService(t, testConfig())
		boom := errors.New("database is locked")
		var calls atomic.Int32
		fetch := func(context.Context) (any, error) {
			calls.Add(1)
			return nil, boom
		}

		for i := 0; i < 2; i++ {
			if _, err := svc.GetOrFetch(ctx, "lists::GetAll", fetch); !errors.Is(err, boom) {
				t.Fatalf("expected %v, got %v", boom, err)
			}
		}
		if calls.Load() != 2 {
			t.Errorf("expected a fetch per call, got %d", calls.Load())
		}
	})

	missing := []struct {
		name      string
		storage   bool
		wantCalls int32
	}{
		{name: "missing records are remembered", storage: true, wantCalls: 1},
		{name: "missing records are refetched", storage: false, wantCalls: 2},
	}
	for _, tt := range missing {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			cfg.MissingRecordStorage = tt.storage
			svc := newService(t, cfg)

			var calls atomic.Int32
			fetch := func(context.Context) (any, error) {
				calls.Add(1)
				return nil, errNoRecord
			}
			for i := 0; i < 2; i++ {
				if _, err := svc.GetOrFetch(ctx, "lists::GetByID::9", fetch); !errors.Is(err, errNoRecord) {
					t.Fatalf("call %d: expected the not found sentinel, got %v", i, err)
				}
			}
			if calls.Load() != tt.wantCalls {
				t.Errorf("expected %d fetches, got %d", tt.wantCalls, calls.Load())
			}
		})
	}

	t.Run("concurrent callers share a fetch", func(t *testing.T) {
		svc := newService(t, testConfig())
		var calls atomic.Int32
		fetch := func(context.Context) (any, error) {
			calls.Add(1)
			time.Sleep(100 * time.Millisecond)
			return 1, nil
		}

		const callers = 10
		var wg sync.WaitGroup
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := svc.GetOrFetch(ctx, "tasks::GetByListID::1", fetch); err != nil {
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		wg.Wait()

		if calls.Load() >= callers {
			t.Errorf("expected concurrent fetches to be shared, got %d for %d callers", calls.Load(), callers)
		}
	})
}

func TestSturdycService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, testConfig())
	seed(t, svc, "lists::GetAll", "lists::GetByID::1")

	if err := svc.Delete(ctx, "lists::GetAll"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := svc.Get("lists::GetAll"); ok {
		t.Error("deleted key still cached")
	}
	if _, ok := svc.Get("lists::GetByID::1"); !ok {
		t.Error("other keys should stay cached")
	}
	if err := svc.Delete(ctx, "missing"); err != nil {
		t.Errorf("deleting a missing key should not fail: %v", err)
	}
}

func TestSturdycService_DeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, testConfig())
	seed(t, svc,
		"lists::GetAll",
		"lists::Search::milk",
		"listsArchive::GetAll",
		"tasks::GetByListID::7",
	)

	if err := svc.DeleteByPrefix(ctx, "lists::"); err != nil {
		t.Fatalf("delete by prefix: %v", err)
	}

	for key, want := range map[string]bool{
		"lists::GetAll":         false,
		"lists::Search::milk":   false,
		"listsArchive::GetAll":  true,
		"tasks::GetByListID::7": true,
	} {
		if _, ok := svc.Get(key); ok != want {
			t.Errorf("%s cached = %v, want %v", key, ok, want)
		}
	}
	if svc.Size() != 2 {
		t.Errorf("expected 2 entries left, got %d", svc.Size())
	}
}

func newService(t *testing.T, cfg Config) *SturdycService {
	t.Helper()
	svc, err := NewSturdycService(cfg, errNoRecord)
	if err != nil {
		t.Fatalf("NewSturdycService() failed: %v", err)
	}
	return svc
}

func seed(t *testing.T, svc *SturdycService, keys ...string) {
	t.Helper()
	for _, key := range keys {
		value := key
		if _, err := svc.GetOrFetch(context.Background(), key, func(context.Context) (any, error) {
			return value, nil
		}); err != nil {
			t.Fatalf("seed %s: %v", key, err)
		}
	}
}
