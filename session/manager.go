package session

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks live sessions by id.
type Manager struct {
	sessions map[string]Session
	mu       sync.RWMutex
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[string]Session)}
}

// Create registers and returns a new session.
func (m *Manager) Create() Session {
	s := NewMemorySession()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	return s
}

// Get returns the session for id.
func (m *Manager) Get(id string) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Resolve returns the session for id, creating one when id is empty.
// A non-empty unknown id returns ErrSessionNotFound.
func (m *Manager) Resolve(id string) (Session, error) {
	if id == "" {
		return m.Create(), nil
	}
	return m.Get(id)
}

// Restore rebuilds a live session from a saved record. The record's id is
// reused when present, replacing any live session with that id.
func (m *Manager) Restore(rec Record) Session {
	id := rec.ID
	if id == "" {
		id = uuid.Must(uuid.NewV7()).String()
	}

	s := newMemorySession(id)
	s.Append(rec.turns()...)
	for _, d := range rec.drafts() {
		s.SetDraft(d)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[id] = s
	return s
}

// Delete removes the session for id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
