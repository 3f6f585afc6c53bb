package session

import (
	"errors"
	"fmt"
	"sync"

	"github.com/zalando/go-keyring"
)

// KeyringService is the keyring service name session keys are stored under.
const KeyringService = "taskdesk-session"

// ErrKeyringNotAvailable is returned when the OS keyring cannot be used.
var ErrKeyringNotAvailable = errors.New("system keyring not available")

// errKeyNotFound is what Keyring implementations return for a missing account.
var errKeyNotFound = errors.New("key not found")

// Keyring is the interface for keyring operations
type Keyring interface {
	Set(service, account, value string) error
	Get(service, account string) (string, error)
	Delete(service, account string) error
}

// SystemKeyring returns the OS keyring backed by go-keyring.
func SystemKeyring() Keyring {
	return &systemKeyring{}
}

// systemKeyring is the real keyring implementation using the OS keyring
type systemKeyring struct{}

func (s *systemKeyring) Set(service, account, value string) error {
	return mapKeyringErr(keyring.Set(service, account, value))
}

func (s *systemKeyring) Get(service, account string) (string, error) {
	v, err := keyring.Get(service, account)
	return v, mapKeyringErr(err)
}

func (s *systemKeyring) Delete(service, account string) error {
	return mapKeyringErr(keyring.Delete(service, account))
}

func mapKeyringErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, keyring.ErrNotFound):
		return errKeyNotFound
	case errors.Is(err, keyring.ErrUnsupportedPlatform):
		return ErrKeyringNotAvailable
	}
	// dbus or keychain failures mean the keyring is unusable on this host
	return fmt.Errorf("%w: %v", ErrKeyringNotAvailable, err)
}

// MockKeyring is a test implementation of the Keyring interface
type MockKeyring struct {
	mu    sync.RWMutex
	store map[string]map[string]string // service -> account -> value
}

// NewMockKeyring creates a new mock keyring for testing
func NewMockKeyring() *MockKeyring {
	return &MockKeyring{
		store: make(map[string]map[string]string),
	}
}

// Set stores a value in the mock keyring
func (m *MockKeyring) Set(service, account, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.store[service] == nil {
		m.store[service] = make(map[string]string)
	}
	m.store[service][account] = value
	return nil
}

// Get retrieves a value from the mock keyring
func (m *MockKeyring) Get(service, account string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if accounts, ok := m.store[service]; ok {
		if v, ok := accounts[account]; ok {
			return v, nil
		}
	}
	return "", errKeyNotFound
}

// Delete removes a value from the mock keyring
func (m *MockKeyring) Delete(service, account string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if accounts, ok := m.store[service]; ok {
		if _, ok := accounts[account]; ok {
			delete(accounts, account)
			return nil
		}
	}
	return errKeyNotFound
}
