package scrape

import (
	"fmt"
	"log/slog"
	"sync"
)

type SessionFactory func() (Session, error)

// SessionManager owns the long-lived session reused across live-check cycles.
// It is created lazily and recreated after Discard.
type SessionManager struct {
	factory SessionFactory

	mu      sync.Mutex
	current Session
	created int
}

func NewSessionManager(factory SessionFactory) *SessionManager {
	return &SessionManager{factory: factory}
}

func (m *SessionManager) Acquire() (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return m.current, nil
	}

	s, err := m.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to start session: %w", err)
	}

	m.current = s
	m.created++
	slog.Debug("Scrape session started", "generation", m.created)

	return s, nil
}

// Discard tears the current session down so the next Acquire starts a fresh one.
func (m *SessionManager) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return
	}

	if err := m.current.Close(); err != nil {
		slog.Warn("Failed to close discarded session", "error", err)
	}
	m.current = nil
	slog.Info("Scrape session discarded", "generation", m.created)
}

func (m *SessionManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return nil
	}

	err := m.current.Close()
	m.current = nil
	if err != nil {
		return fmt.Errorf("failed to close session: %w", err)
	}
	return nil
}

// Generations returns how many sessions have been started so far.
func (m *SessionManager) Generations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.created
}
