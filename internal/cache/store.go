package cache

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/yorozuya-cybersecurity/docaudit/internal/config"
)

// Store persists a single record. Load returns nil, nil when nothing is
// stored.
type Store interface {
	Load(ctx context.Context) (*Record, error)
	Save(ctx context.Context, rec *Record) error
	Clear(ctx context.Context) error
}

// Open returns the store selected by the configuration.
func Open(ctx context.Context, cfg config.Cache) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			var err error
			if dir, err = DefaultDir("docaudit"); err != nil {
				return nil, err
			}
		}
		return NewFileStore(dir)
	case "redis":
		return NewRedisStore(ctx, RedisOptions{Addr: cfg.RedisAddr, Key: cfg.RedisKey})
	case "memory":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// DefaultDir is $XDG_CACHE_HOME/app, else ~/.cache/app.
func DefaultDir(app string) (string, error) {
	base := os.Getenv("XDG_CACHE_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".cache")
	}
	return filepath.Join(base, app), nil
}

// FileStore keeps the record as a msgpack file. Safe for concurrent use.
type FileStore struct {
	mu  sync.RWMutex
	dir string
}

const snapshotFile = "snapshot.mp"

// NewFileStore creates dir if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path is the location of the snapshot file.
func (s *FileStore) Path() string {
	return filepath.Join(s.dir, snapshotFile)
}

func (s *FileStore) Load(_ context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.Path())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return Decode(data)
}

// Save writes to a temp file and renames it over the previous snapshot.
func (s *FileStore) Save(_ context.Context, rec *Record) (err error) {
	data, err := Encode(rec)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.CreateTemp(s.dir, "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = os.Remove(f.Name())
		}
	}()
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), s.Path())
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.Path()); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// MemoryStore keeps an encoded record in memory.
type MemoryStore struct {
	mu   sync.RWMutex
	data []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(_ context.Context) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.data == nil {
		return nil, nil
	}
	return Decode(s.data)
}

func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	data, err := Encode(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.data = nil
	s.mu.Unlock()
	return nil
}
