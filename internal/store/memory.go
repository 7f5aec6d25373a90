// internal/store/memory.go
//
// In-memory implementation of the session Store interface.
// Live game state is deliberately ephemeral: sessions exist only for the
// lifetime of the process and each player interacts with exactly one
// Session instance, so a mutex-guarded map is all the registry needs.
//
// Characteristics:
//   - Stores *game.Session objects keyed by session ID.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes
//     exclusive); per-guess serialization lives inside game.Session itself.
//   - ErrNotFound is returned for missing session IDs on Get/Delete.

package store

import (
	"context"
	"errors"
	"sync"

	"github.com/guessle/guessle/internal/game"
)

// ErrNotFound indicates the requested session ID is unknown.
var ErrNotFound = errors.New("session not found")

// Store defines the registry interface for live game sessions.
// Implementations may be backed by memory (this package) or anything else
// that can hand back the same *game.Session per ID.
type Store interface {
	// Save registers or updates a session.
	Save(ctx context.Context, s *game.Session) error

	// Get retrieves a session by ID, or ErrNotFound.
	Get(ctx context.Context, id string) (*game.Session, error)

	// Delete removes a session by ID, or ErrNotFound.
	Delete(ctx context.Context, id string) error
}

type memory struct {
	mu       sync.RWMutex
	sessions map[string]*game.Session
}

// NewMemoryStore constructs a new in-memory Store.
func NewMemoryStore() Store {
	return &memory{sessions: make(map[string]*game.Session)}
}

func (m *memory) Save(ctx context.Context, s *game.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID()] = s
	return nil
}

func (m *memory) Get(ctx context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if s, ok := m.sessions[id]; ok {
		return s, nil
	}
	return nil, ErrNotFound
}

func (m *memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}
