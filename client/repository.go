package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// StorageKey names the persisted session blob.
const StorageKey = "auth-storage"

// PersistedSession is the on-disk form of a Session.
type PersistedSession struct {
	IsLoggedIn  bool   `json:"isLoggedIn"`
	UserRole    Role   `json:"userRole,omitempty"`
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken,omitempty"`
}

// SessionRepository is the single place session state is read from and written to.
// Load returns nil, nil when nothing is stored.
type SessionRepository interface {
	Load(ctx context.Context) (*PersistedSession, error)
	Save(ctx context.Context, s PersistedSession) error
	Clear(ctx context.Context) error
}

// FileRepository keeps the session as <dir>/auth-storage.json.
type FileRepository struct {
	path string
}

func NewFileRepository(dir string) *FileRepository {
	return &FileRepository{path: filepath.Join(dir, StorageKey+".json")}
}

func (r *FileRepository) Path() string { return r.path }

func (r *FileRepository) Load(_ context.Context) (*PersistedSession, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session: %w", err)
	}

	// Older writers wrapped the blob as {"state": {...}, "version": 0}.
	var wrapped struct {
		State *PersistedSession `json:"state"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.State != nil {
		return wrapped.State, nil
	}

	var s PersistedSession
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &s, nil
}

func (r *FileRepository) Save(_ context.Context, s PersistedSession) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	if err := os.Rename(tmp, r.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}

func (r *FileRepository) Clear(_ context.Context) error {
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear session: %w", err)
	}
	return nil
}

// MemoryRepository keeps the session in process memory.
type MemoryRepository struct {
	mu    sync.Mutex
	saved *PersistedSession
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(_ context.Context) (*PersistedSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saved == nil {
		return nil, nil
	}
	s := *r.saved
	return &s, nil
}

func (r *MemoryRepository) Save(_ context.Context, s PersistedSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = &s
	return nil
}

func (r *MemoryRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.saved = nil
	return nil
}
