package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"taskdesk/internal/utils"
)

// Persisted keys.
const (
	KeyUsername   = "username"
	KeyIsLoggedIn = "isLoggedIn"
)

var sessionKeys = []string{KeyUsername, KeyIsLoggedIn}

// KeyValue is string key/value storage that survives process restarts.
// Get reports ok=false for an absent key.
type KeyValue interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
	Clear() error
}

// Store modes accepted by NewKeyValue.
const (
	ModeAuto    = "auto"
	ModeKeyring = "keyring"
	ModeFile    = "file"
)

// NewKeyValue picks a persistence backend. Auto mode probes the OS keyring
// and falls back to a file at path when it is unavailable.
func NewKeyValue(mode, path string) (KeyValue, error) {
	switch mode {
	case ModeKeyring:
		return NewKeyringStore(SystemKeyring()), nil
	case ModeFile:
		return NewFileStore(path), nil
	case ModeAuto, "":
		ks := NewKeyringStore(SystemKeyring())
		if _, _, err := ks.Get(KeyIsLoggedIn); err != nil {
			utils.Debugf("session: keyring unavailable (%v), using %s", err, path)
			return NewFileStore(path), nil
		}
		return ks, nil
	}
	return nil, fmt.Errorf("unknown session store %q", mode)
}

// KeyringStore keeps session keys as accounts under KeyringService.
type KeyringStore struct {
	keyring Keyring
}

// NewKeyringStore wraps a Keyring.
func NewKeyringStore(k Keyring) *KeyringStore {
	return &KeyringStore{keyring: k}
}

func (s *KeyringStore) Get(key string) (string, bool, error) {
	v, err := s.keyring.Get(KeyringService, key)
	if errors.Is(err, errKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (s *KeyringStore) Set(key, value string) error {
	return s.keyring.Set(KeyringService, key, value)
}

func (s *KeyringStore) Delete(key string) error {
	err := s.keyring.Delete(KeyringService, key)
	if errors.Is(err, errKeyNotFound) {
		return nil
	}
	return err
}

// Clear deletes every session key.
func (s *KeyringStore) Clear() error {
	for _, k := range sessionKeys {
		if err := s.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

// FileStore keeps session keys in a 0600 YAML file.
type FileStore struct {
	path string
	mu   sync.Mutex
}

// NewFileStore returns a store writing to path.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Path returns the backing file location.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("invalid session file %s: %w", s.path, err)
	}
	if values == nil {
		values = map[string]string{}
	}
	return values, nil
}

func (s *FileStore) save(values map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("failed to create session directory: %w", err)
	}
	data, err := yaml.Marshal(values)
	if err != nil {
		return err
	}
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	return nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (s *FileStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	values[key] = value
	return s.save(values)
}

func (s *FileStore) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return s.save(values)
}

// Clear removes the session file.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove session file: %w", err)
	}
	return nil
}

// MemoryStore is an in-process KeyValue.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

func (m *MemoryStore) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values = make(map[string]string)
	return nil
}
