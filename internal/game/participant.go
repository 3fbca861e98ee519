package game

import (
	"fmt"
	"strings"
)

// MinParticipants is the smallest roster any game accepts.
const MinParticipants = 2

// Participant represents a player in a session. Two participants are the
// same player when their IDs match.
type Participant struct {
	ID     string
	Name   string
	Handle string // how the player is addressed in messages, e.g. a mention
}

// NewParticipant creates a participant. The handle falls back to the name.
func NewParticipant(id, name, handle string) Participant {
	if handle == "" {
		handle = name
	}
	return Participant{
		ID:     id,
		Name:   name,
		Handle: handle,
	}
}

// String returns the handle used in announcements.
func (p Participant) String() string {
	if p.Handle != "" {
		return p.Handle
	}
	return p.Name
}

// Roster is the ordered, duplicate-free player list of a session. It is
// fixed once the session is created.
type Roster []Participant

// NewRoster drops repeated IDs, keeping first-seen order, and requires at
// least MinParticipants players.
func NewRoster(participants []Participant) (Roster, error) {
	seen := make(map[string]bool, len(participants))
	roster := make(Roster, 0, len(participants))
	for _, p := range participants {
		if p.ID == "" || seen[p.ID] {
			continue
		}
		seen[p.ID] = true
		roster = append(roster, p)
	}

	if len(roster) < MinParticipants {
		return nil, fmt.Errorf("%w: got %d", ErrInsufficientParticipants, len(roster))
	}
	return roster, nil
}

// IndexOf returns the position of the player with the given ID, or -1.
func (r Roster) IndexOf(id string) int {
	for i, p := range r {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// Contains reports whether p is part of the roster.
func (r Roster) Contains(p Participant) bool {
	return r.IndexOf(p.ID) >= 0
}

// Handles joins the players' handles for announcements.
func (r Roster) Handles() string {
	handles := make([]string, len(r))
	for i, p := range r {
		handles[i] = p.String()
	}
	return strings.Join(handles, ", ")
}
