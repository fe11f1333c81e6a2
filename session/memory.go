package session

import (
	"context"
	"sync"

	"github.com/hupe1980/wordmesh/core"
)

// InMemoryStore keeps session state in a process-local map. State is cloned
// on the way in and out, so callers can mutate what they hold without
// racing the store.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.SessionState
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// NewInMemoryStore creates an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.SessionState)}
}

// Get returns a deep copy of the session state, lazily creating an empty
// state for unknown ids.
func (s *InMemoryStore) Get(_ context.Context, sessionID string) (*core.SessionState, error) {
	s.mu.RLock()
	state, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if ok {
		return state.Clone(), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if state, ok := s.sessions[sessionID]; ok {
		return state.Clone(), nil
	}
	state = core.NewSessionState(sessionID)
	s.sessions[sessionID] = state
	return state.Clone(), nil
}

// Put stores a deep copy of the state under the session id.
func (s *InMemoryStore) Put(_ context.Context, sessionID string, state *core.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = state.Clone()
	return nil
}

// Delete removes a session. Deleting an unknown id is a no-op.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
