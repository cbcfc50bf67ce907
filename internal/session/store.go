package session

import (
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/nexus-erp/nexusctl/internal/errors"
	"gopkg.in/yaml.v3"
)

// TokenKey is the key the session token is persisted under.
const TokenKey = "nexus_admin_token"

const (
	// StoreDir is the directory, relative to home, holding the session file.
	StoreDir = ".config/nexusctl"
	// StoreFile is the session file name.
	StoreFile = "session.yaml"
)

// Store persists the session token between runs.
// Load returns an empty string when no token is stored.
type Store interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

// sessionFile is the on-disk layout of the session file.
type sessionFile struct {
	Token   string    `yaml:"nexus_admin_token"`
	SavedAt time.Time `yaml:"saved_at,omitempty"`
}

// FileStore keeps the token in a YAML file readable only by the owner.
type FileStore struct {
	path string
	now  func() time.Time
}

// NewFileStore creates a store at path. An empty path uses DefaultPath.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &FileStore{path: path, now: time.Now}, nil
}

// DefaultPath returns ~/.config/nexusctl/session.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine home directory",
			"Set HOME or set session.file in the config")
	}
	return filepath.Join(home, StoreDir, StoreFile), nil
}

// Path returns the file the store reads and writes.
func (s *FileStore) Path() string {
	return s.path
}

// Load reads the stored token. A missing file means logged out.
func (s *FileStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read session file",
			"Check permissions on "+s.path)
	}

	var f sessionFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Session file is corrupt",
			"Run 'nexusctl logout' and sign in again")
	}
	return f.Token, nil
}

// Save writes the token with mode 0600, creating the directory if needed.
func (s *FileStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to create session directory",
			"Check permissions on "+filepath.Dir(s.path))
	}

	data, err := yaml.Marshal(sessionFile{Token: token, SavedAt: s.now().UTC()})
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Failed to encode session", "")
	}

	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to write session file",
			"Check permissions on "+s.path)
	}
	return nil
}

// Clear removes the session file. Clearing an absent session is not an error.
func (s *FileStore) Clear() error {
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to remove session file",
			"Delete "+s.path+" manually")
	}
	return nil
}

// MemoryStore keeps the token in memory. Used by tests and by the headless
// watcher when a token is passed through the environment.
type MemoryStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryStore creates a store preloaded with token.
func NewMemoryStore(token string) *MemoryStore {
	return &MemoryStore{token: token}
}

func (s *MemoryStore) Load() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
