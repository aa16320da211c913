package session

import (
	"context"
	"slices"
	"sync"

	"github.com/wricardo/courtqueue/game/engine"
)

// MemoryStore keeps sessions in a map for the lifetime of the process
type MemoryStore struct {
	sessions map[string]*engine.Session
	mu       sync.RWMutex
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*engine.Session),
	}
}

// Get returns a copy of the area's session
func (m *MemoryStore) Get(ctx context.Context, areaID string) (*engine.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, exists := m.sessions[areaID]
	if !exists {
		return nil, notFound(areaID)
	}
	return s.Clone(), nil
}

// Put stores a copy of s, replacing any previous session for the area
func (m *MemoryStore) Put(ctx context.Context, areaID string, s *engine.Session) error {
	if err := checkPut(areaID, s); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions[areaID] = s.Clone()
	return nil
}

// List returns the known area ids in sorted order
func (m *MemoryStore) List(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

// Clear drops every session
func (m *MemoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessions = make(map[string]*engine.Session)
	return nil
}

// Count returns the number of stored sessions
func (m *MemoryStore) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close is a no-op
func (m *MemoryStore) Close() error {
	return nil
}
