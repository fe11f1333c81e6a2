// Package artifact hosts the binary media generated for memory cards. The
// synthesis layer writes image and audio bytes here and hands out stable
// artifact:// URLs; the HTTP layer mirrors those URLs as routes that stream
// the bytes back out.
//
// Implementations must be safe for concurrent use; the image and audio
// branches of one turn write in parallel.
package artifact

import (
	"fmt"
	"strings"
	"sync"
)

// ErrNotFound is returned when no media exists for the session / id pair.
var ErrNotFound = fmt.Errorf("artifact not found")

// Media is one stored blob plus the content type it should be served with.
type Media struct {
	Data        []byte
	ContentType string
}

// Store persists generated media keyed by session and artifact id.
type Store interface {
	// Save stores (or overwrites) the media for the given session and id.
	Save(sessionID, artifactID string, media Media) error
	// Get returns the stored media or ErrNotFound.
	Get(sessionID, artifactID string) (Media, error)
	// List returns the artifact ids stored for the session.
	List(sessionID string) ([]string, error)
	// Delete removes the media if present or returns ErrNotFound.
	Delete(sessionID, artifactID string) error
}

// Scheme is the URL scheme under which stored media is addressed.
const Scheme = "artifact"

// URL builds the canonical address of a stored artifact.
func URL(sessionID, artifactID string) string {
	return fmt.Sprintf("%s://%s/%s", Scheme, sessionID, artifactID)
}

// ParseURL splits an artifact URL back into its session and artifact ids.
func ParseURL(u string) (sessionID, artifactID string, ok bool) {
	rest, found := strings.CutPrefix(u, Scheme+"://")
	if !found {
		return "", "", false
	}
	sessionID, artifactID, ok = strings.Cut(rest, "/")
	if sessionID == "" || artifactID == "" {
		return "", "", false
	}
	return sessionID, artifactID, ok
}

// InMemoryStore keeps all media in a nested map guarded by an RWMutex. Bytes
// are copied on save and retrieval to avoid accidental external mutation of
// internal buffers.
//
// Layout: sessionID -> artifactID -> media
//
// It enforces no retention limits or quotas; for deployments that must
// survive restarts, put a durable implementation behind the Store interface.
type InMemoryStore struct {
	mu    sync.RWMutex
	media map[string]map[string]Media
}

var _ Store = (*InMemoryStore)(nil)

// NewInMemoryStore returns an empty in-memory media store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{media: make(map[string]map[string]Media)}
}

// Save implements Store.
func (s *InMemoryStore) Save(sessionID, artifactID string, media Media) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.media[sessionID]; !exists {
		s.media[sessionID] = make(map[string]Media)
	}
	cp := make([]byte, len(media.Data))
	copy(cp, media.Data)
	s.media[sessionID][artifactID] = Media{Data: cp, ContentType: media.ContentType}
	return nil
}

// Get implements Store.
func (s *InMemoryStore) Get(sessionID, artifactID string) (Media, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.media[sessionID]
	if !ok {
		return Media{}, ErrNotFound
	}
	stored, ok := m[artifactID]
	if !ok {
		return Media{}, ErrNotFound
	}
	cp := make([]byte, len(stored.Data))
	copy(cp, stored.Data)
	return Media{Data: cp, ContentType: stored.ContentType}, nil
}

// List implements Store.
func (s *InMemoryStore) List(sessionID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.media[sessionID]
	if !ok {
		return []string{}, nil
	}
	ids := make([]string, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	return ids, nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(sessionID, artifactID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.media[sessionID]
	if !ok {
		return ErrNotFound
	}
	if _, ok := m[artifactID]; !ok {
		return ErrNotFound
	}
	delete(m, artifactID)
	return nil
}
