package game

import (
	"context"
	"fmt"
	"sync"
)

// Kind is the shape of a game: turn-based dice or round-based guessing.
type Kind string

const (
	KindTurnBased  Kind = "turn"
	KindRoundBased Kind = "round"
)

// Status is a session's lifecycle position.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusActive     Status = "active"
	StatusEnded      Status = "ended"
)

// Session is one game instance. It owns exactly one engine: a TurnSequencer
// for turn-based games or a RoundCycle for round-based ones.
type Session struct {
	ID           string
	Game         string
	Channel      ChannelRef
	VoiceChannel ChannelRef

	mu     sync.Mutex
	ended  bool
	turns  *TurnSequencer
	rounds *RoundCycle
}

// NewTurnSession wraps a dice game.
func NewTurnSession(id, game string, channel ChannelRef, turns *TurnSequencer) *Session {
	return &Session{
		ID:      id,
		Game:    game,
		Channel: channel,
		turns:   turns,
	}
}

// NewRoundSession wraps a trivia or song game.
func NewRoundSession(id, game string, channel, voiceChannel ChannelRef, rounds *RoundCycle) *Session {
	return &Session{
		ID:           id,
		Game:         game,
		Channel:      channel,
		VoiceChannel: voiceChannel,
		rounds:       rounds,
	}
}

// Kind reports which engine the session owns.
func (s *Session) Kind() Kind {
	if s.turns != nil {
		return KindTurnBased
	}
	return KindRoundBased
}

// SupportsRolling reports whether roll requests apply to this session.
func (s *Session) SupportsRolling() bool {
	return s.Kind() == KindTurnBased
}

// Name returns the display name of the game.
func (s *Session) Name() string {
	if s.rounds != nil {
		return s.rounds.Name()
	}
	return "Threeman"
}

// Status derives the lifecycle position from the owned engine.
func (s *Session) Status() Status {
	s.mu.Lock()
	ended := s.ended
	s.mu.Unlock()
	if ended {
		return StatusEnded
	}

	if s.turns != nil {
		if s.turns.Started() {
			return StatusActive
		}
		return StatusNotStarted
	}

	switch s.rounds.State() {
	case RoundIdle:
		return StatusNotStarted
	case RoundComplete:
		return StatusEnded
	default:
		return StatusActive
	}
}

// Start starts the owned engine.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	ended := s.ended
	s.mu.Unlock()
	if ended {
		return ErrNoActiveGame
	}

	if s.turns != nil {
		return s.turns.Start(ctx)
	}
	return s.rounds.Start(ctx)
}

// End stops the owned engine. It is safe to call more than once.
func (s *Session) End(ctx context.Context) {
	s.mu.Lock()
	s.ended = true
	s.mu.Unlock()

	if s.turns != nil {
		s.turns.End(ctx)
		return
	}
	s.rounds.End(ctx)
}

// Roll forwards a roll request to the dice game.
func (s *Session) Roll(ctx context.Context, actor Participant) (RollOutcome, error) {
	if s.turns == nil {
		return RollOutcome{}, fmt.Errorf("%w: %s does not support rolling dice", ErrUnsupportedOperation, s.Name())
	}
	return s.turns.RequestRoll(ctx, actor)
}

// Answer forwards a chat guess to the round game.
func (s *Session) Answer(ctx context.Context, p Participant, text string) (bool, error) {
	if s.rounds == nil {
		return false, fmt.Errorf("%w: %s does not take answers", ErrUnsupportedOperation, s.Name())
	}
	return s.rounds.SubmitAnswer(ctx, p, text)
}

// Reveal gives up on the current round.
func (s *Session) Reveal(ctx context.Context) error {
	if s.rounds == nil {
		return fmt.Errorf("%w: %s has no questions to reveal", ErrUnsupportedOperation, s.Name())
	}
	return s.rounds.Reveal(ctx)
}

// Advance retries starting the next round after a failure.
func (s *Session) Advance(ctx context.Context) error {
	if s.rounds == nil {
		return fmt.Errorf("%w: %s has no rounds", ErrUnsupportedOperation, s.Name())
	}
	return s.rounds.BeginRound(ctx)
}

// Leaderboard renders the current standings of a round game.
func (s *Session) Leaderboard() (string, error) {
	if s.rounds == nil {
		return "", fmt.Errorf("%w: %s keeps no score", ErrUnsupportedOperation, s.Name())
	}
	return s.rounds.Scoreboard().Render(TitleCurrent), nil
}

// Scoreboard returns the round game's scores, or nil for dice games.
func (s *Session) Scoreboard() *Scoreboard {
	if s.rounds == nil {
		return nil
	}
	return s.rounds.Scoreboard()
}

// Turns returns the owned dice engine, or nil.
func (s *Session) Turns() *TurnSequencer {
	return s.turns
}

// Rounds returns the owned round engine, or nil.
func (s *Session) Rounds() *RoundCycle {
	return s.rounds
}

// Participants returns the session's players.
func (s *Session) Participants() Roster {
	if s.turns != nil {
		return s.turns.Participants()
	}
	return s.rounds.Participants()
}
