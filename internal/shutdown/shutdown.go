// Package shutdown provides graceful shutdown handling for the application.
// It manages signal handling, cleanup function registration, and coordinated shutdown.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"taskdesk/internal/utils"
)

// CleanupFunc is a function that performs cleanup on shutdown.
// It receives a context that will be cancelled when the shutdown times out.
type CleanupFunc func(ctx context.Context) error

type cleanupEntry struct {
	name string
	fn   CleanupFunc
}

// Manager handles graceful shutdown coordination.
type Manager struct {
	mu         sync.Mutex
	cleanups   []cleanupEntry
	shutdown   bool
	shutdownCh chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	once       sync.Once
	waitOnce   sync.Once
	waitDone   chan struct{}
	stopSignal func()
}

// NewManager creates a new shutdown manager.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cleanups:   make([]cleanupEntry, 0),
		shutdownCh: make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// ListenForSignals calls Shutdown on SIGINT or SIGTERM until Stop is called.
func (m *Manager) ListenForSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		select {
		case sig := <-sigCh:
			utils.Debugf("shutdown: received %s", sig)
			m.Shutdown()
		case <-done:
		}
	}()

	m.mu.Lock()
	m.stopSignal = func() {
		signal.Stop(sigCh)
		close(done)
	}
	m.mu.Unlock()
}

// Stop releases the signal handler installed by ListenForSignals.
func (m *Manager) Stop() {
	m.mu.Lock()
	stop := m.stopSignal
	m.stopSignal = nil
	m.mu.Unlock()
	if stop != nil {
		stop()
	}
}

// RegisterCleanup registers a cleanup function to be called during shutdown.
// Cleanup functions are called in LIFO order (last registered, first called).
func (m *Manager) RegisterCleanup(name string, fn CleanupFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleanups = append(m.cleanups, cleanupEntry{name: name, fn: fn})
}

// Shutdown initiates a graceful shutdown.
// Safe to call multiple times; only the first call has effect.
func (m *Manager) Shutdown() {
	m.once.Do(func() {
		m.mu.Lock()
		m.shutdown = true
		m.mu.Unlock()

		m.cancel()
		close(m.shutdownCh)
	})
}

// Done is closed once Shutdown has been called.
func (m *Manager) Done() <-chan struct{} {
	return m.shutdownCh
}

func (m *Manager) runCleanups(ctx context.Context) {
	m.mu.Lock()
	cleanups := make([]cleanupEntry, len(m.cleanups))
	copy(cleanups, m.cleanups)
	m.cleanups = nil
	m.mu.Unlock()

	for i := len(cleanups) - 1; i >= 0; i-- {
		if err := cleanups[i].fn(ctx); err != nil {
			utils.Warnf("shutdown: cleanup %s failed: %v", cleanups[i].name, err)
		}
	}
}

// Wait runs the registered cleanups once and waits for them to finish.
// Returns ctx.Err() if ctx expires first.
func (m *Manager) Wait(ctx context.Context) error {
	m.waitOnce.Do(func() {
		m.waitDone = make(chan struct{})
		go func() {
			m.runCleanups(ctx)
			close(m.waitDone)
		}()
	})

	select {
	case <-m.waitDone:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsShutdown returns true if shutdown has been initiated.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// Context returns a context that is cancelled when shutdown is initiated.
func (m *Manager) Context() context.Context {
	return m.ctx
}
