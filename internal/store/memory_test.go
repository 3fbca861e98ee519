package store

import (
	"context"
	"errors"
	"sync"
	"testing"

	"partybot/internal/game"
)

func newSession(t *testing.T, id string) *game.Session {
	t.Helper()
	players := []game.Participant{
		game.NewParticipant("1", "alice", ""),
		game.NewParticipant("2", "bob", ""),
	}
	seq, err := game.NewTurnSequencer("games", players, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return game.NewTurnSession(id, "threeman", "games", seq)
}

func TestNewMemoryStore(t *testing.T) {
	store := NewMemoryStore()

	if store == nil {
		t.Fatal("NewMemoryStore returned nil")
	}

	if _, err := store.Active(); !errors.Is(err, game.ErrNoActiveGame) {
		t.Errorf("expected ErrNoActiveGame, got %v", err)
	}
}

func TestCreate(t *testing.T) {
	t.Run("assigns a fresh id", func(t *testing.T) {
		store := NewMemoryStore()

		session, err := store.Create(func(id string) (*game.Session, error) {
			return newSession(t, id), nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if session.ID == "" {
			t.Error("session id is empty")
		}

		current, ok := store.Current()
		if !ok || current != session {
			t.Error("stored session is not the same instance")
		}
	})

	t.Run("refuses a second session while the first is live", func(t *testing.T) {
		store := NewMemoryStore()

		first, err := store.Create(func(id string) (*game.Session, error) {
			return newSession(t, id), nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		built := false
		_, err = store.Create(func(id string) (*game.Session, error) {
			built = true
			return newSession(t, id), nil
		})
		if !errors.Is(err, game.ErrAlreadyInProgress) {
			t.Errorf("expected ErrAlreadyInProgress, got %v", err)
		}
		if built {
			t.Error("build should not run while a session is live")
		}

		current, _ := store.Current()
		if current != first {
			t.Error("first session was replaced")
		}
	})

	t.Run("replaces an ended session", func(t *testing.T) {
		store := NewMemoryStore()

		first, _ := store.Create(func(id string) (*game.Session, error) {
			return newSession(t, id), nil
		})
		first.End(context.Background())

		second, err := store.Create(func(id string) (*game.Session, error) {
			return newSession(t, id), nil
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if second.ID == first.ID {
			t.Error("expected a new session id")
		}
	})

	t.Run("build errors leave the slot empty", func(t *testing.T) {
		store := NewMemoryStore()

		_, err := store.Create(func(string) (*game.Session, error) {
			return nil, game.ErrUnknownGame
		})
		if !errors.Is(err, game.ErrUnknownGame) {
			t.Errorf("expected ErrUnknownGame, got %v", err)
		}
		if _, ok := store.Current(); ok {
			t.Error("slot should be empty")
		}
	})
}

func TestTake(t *testing.T) {
	store := NewMemoryStore()

	if _, err := store.Take(); !errors.Is(err, game.ErrNoActiveGame) {
		t.Errorf("expected ErrNoActiveGame, got %v", err)
	}

	created, _ := store.Create(func(id string) (*game.Session, error) {
		return newSession(t, id), nil
	})

	taken, err := store.Take()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if taken != created {
		t.Error("took a different session")
	}

	if _, err := store.Take(); !errors.Is(err, game.ErrNoActiveGame) {
		t.Errorf("expected ErrNoActiveGame after take, got %v", err)
	}
}

func TestRemove(t *testing.T) {
	store := NewMemoryStore()
	created, _ := store.Create(func(id string) (*game.Session, error) {
		return newSession(t, id), nil
	})

	if store.Remove("someone-else") {
		t.Error("removed with a foreign id")
	}
	if !store.Remove(created.ID) {
		t.Error("expected removal")
	}
	if _, ok := store.Current(); ok {
		t.Error("slot should be empty")
	}
}

func TestConcurrentCreate(t *testing.T) {
	store := NewMemoryStore()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := store.Create(func(id string) (*game.Session, error) {
				return newSession(t, id), nil
			})
			if err == nil {
				mu.Lock()
				created++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if created != 1 {
		t.Errorf("expected exactly one session, got %d", created)
	}
}
