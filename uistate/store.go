package uistate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/vmihailenco/msgpack/v5"
)

// DefaultFileName is the state file created inside the state directory.
const DefaultFileName = "ui-store.msgpack"

const lockRetryDelay = 10 * time.Millisecond

// ErrLocked is returned when the state file lock could not be acquired.
var ErrLocked = errors.New("uistate: state file is locked")

type envelope struct {
	Name    string `msgpack:"name"`
	Version int    `msgpack:"version"`
	State   State  `msgpack:"state"`
}

const (
	envelopeName    = "ui-store"
	envelopeVersion = 0
)

// FileStore persists State as msgpack in a single file. Writes go to a temp
// file that is renamed over the target, under an advisory file lock shared
// with other processes.
type FileStore struct {
	path string
	lock *flock.Flock
}

// NewFileStore stores state at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
	}
}

// NewFileStoreInDir stores state in dir under DefaultFileName.
func NewFileStoreInDir(dir string) *FileStore {
	return NewFileStore(filepath.Join(dir, DefaultFileName))
}

// Path returns the state file location.
func (s *FileStore) Path() string {
	return s.path
}

// Load implements Persister.
func (s *FileStore) Load(ctx context.Context) (State, bool, error) {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return State{}, false, err
	}
	ok, err := s.lock.TryRLockContext(ctx, lockRetryDelay)
	if err != nil {
		return State{}, false, err
	}
	if !ok {
		return State{}, false, ErrLocked
	}
	defer s.lock.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, err
	}

	var env envelope
	if err := msgpack.Unmarshal(data, &env); err != nil {
		return State{}, false, fmt.Errorf("decode %s: %w", s.path, err)
	}
	if env.Name != envelopeName {
		return State{}, false, fmt.Errorf("decode %s: unexpected store %q", s.path, env.Name)
	}
	return env.State, true, nil
}

// Save implements Persister.
func (s *FileStore) Save(ctx context.Context, state State) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	ok, err := s.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return err
	}
	if !ok {
		return ErrLocked
	}
	defer s.lock.Unlock()

	data, err := msgpack.Marshal(envelope{Name: envelopeName, Version: envelopeVersion, State: state})
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}

// MemoryStore keeps State in memory. It backs counters that should not
// outlive the process.
type MemoryStore struct {
	mu    sync.Mutex
	state State
	saved bool
}

// Load implements Persister.
func (m *MemoryStore) Load(context.Context) (State, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.saved, nil
}

// Save implements Persister.
func (m *MemoryStore) Save(_ context.Context, s State) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state, m.saved = s, true
	return nil
}
