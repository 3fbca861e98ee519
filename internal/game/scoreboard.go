package game

import (
	"fmt"
	"iter"
	"slices"
	"strings"
	"sync"
)

const (
	TitleCurrent = "Current Leaderboard:"
	TitleFinal   = "Final Leaderboard:"
)

// Entry is one leaderboard line.
type Entry struct {
	Participant Participant
	Score       int
}

// Scoreboard tracks a non-negative score per participant. Entries are created
// once and never removed.
type Scoreboard struct {
	mu     sync.RWMutex
	order  Roster
	scores map[string]int
}

// NewScoreboard creates a zero entry for every distinct participant.
func NewScoreboard(participants []Participant) (*Scoreboard, error) {
	roster, err := NewRoster(participants)
	if err != nil {
		return nil, err
	}

	scores := make(map[string]int, len(roster))
	for _, p := range roster {
		scores[p.ID] = 0
	}

	return &Scoreboard{
		order:  roster,
		scores: scores,
	}, nil
}

// Award adds amount points to p.
func (s *Scoreboard) Award(p Participant, amount int) error {
	if amount < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidAward, amount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scores[p.ID]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownParticipant, p)
	}
	s.scores[p.ID] += amount
	return nil
}

// Score returns p's current score.
func (s *Scoreboard) Score(p Participant) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	score, ok := s.scores[p.ID]
	return score, ok
}

// Participants returns the players in insertion order.
func (s *Scoreboard) Participants() Roster {
	return slices.Clone(s.order)
}

// Entries returns the leaderboard, highest score first. Equal scores keep
// insertion order.
func (s *Scoreboard) Entries() []Entry {
	s.mu.RLock()
	entries := make([]Entry, len(s.order))
	for i, p := range s.order {
		entries[i] = Entry{Participant: p, Score: s.scores[p.ID]}
	}
	s.mu.RUnlock()

	slices.SortStableFunc(entries, func(a, b Entry) int {
		return b.Score - a.Score
	})
	return entries
}

// Snapshot yields (participant, score) pairs. Each iteration takes a fresh
// copy, so the sequence can be ranged over again to observe newer scores.
// With descending false the insertion order is used.
func (s *Scoreboard) Snapshot(descending bool) iter.Seq2[Participant, int] {
	return func(yield func(Participant, int) bool) {
		var entries []Entry
		if descending {
			entries = s.Entries()
		} else {
			s.mu.RLock()
			entries = make([]Entry, len(s.order))
			for i, p := range s.order {
				entries[i] = Entry{Participant: p, Score: s.scores[p.ID]}
			}
			s.mu.RUnlock()
		}

		for _, e := range entries {
			if !yield(e.Participant, e.Score) {
				return
			}
		}
	}
}

// Render formats the current leaderboard under title.
func (s *Scoreboard) Render(title string) string {
	return RenderLeaderboard(title, s.Snapshot(true))
}

// RenderLeaderboard formats a snapshot as "handle: score" lines under title.
func RenderLeaderboard(title string, snapshot iter.Seq2[Participant, int]) string {
	var b strings.Builder
	b.WriteString(title)
	for p, score := range snapshot {
		fmt.Fprintf(&b, "\n%s: %d", p, score)
	}
	return b.String()
}
