package store

import (
	"sync"

	"partybot/internal/game"

	"github.com/google/uuid"
)

// MemoryStore holds the one game session a deployment may run.
type MemoryStore struct {
	mu     sync.RWMutex
	active *game.Session
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Create builds and stores a new session under a fresh id. It fails with
// game.ErrAlreadyInProgress while a stored session has not ended; an ended
// session is replaced.
func (s *MemoryStore) Create(build func(id string) (*game.Session, error)) (*game.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active != nil && s.active.Status() != game.StatusEnded {
		return nil, game.ErrAlreadyInProgress
	}

	session, err := build(uuid.NewString())
	if err != nil {
		return nil, err
	}

	s.active = session
	return session, nil
}

// Active returns the stored session unless it has ended.
func (s *MemoryStore) Active() (*game.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.active == nil || s.active.Status() == game.StatusEnded {
		return nil, game.ErrNoActiveGame
	}
	return s.active, nil
}

// Current returns the stored session, ended or not.
func (s *MemoryStore) Current() (*game.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.active, s.active != nil
}

// Take removes and returns the stored session. Concurrent callers cannot
// both receive it.
func (s *MemoryStore) Take() (*game.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil {
		return nil, game.ErrNoActiveGame
	}
	session := s.active
	s.active = nil
	return session, nil
}

// Remove clears the slot if it still holds the session with id.
func (s *MemoryStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active == nil || s.active.ID != id {
		return false
	}
	s.active = nil
	return true
}
