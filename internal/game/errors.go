package game

import "errors"

var (
	ErrInsufficientParticipants = errors.New("at least 2 distinct players are needed to start a game")
	ErrTooManyParticipants      = errors.New("too many players for one game")
	ErrAlreadyInProgress        = errors.New("a game is already in progress")
	ErrNoActiveGame             = errors.New("there is no game in progress")
	ErrWrongTurn                = errors.New("it's not your turn")
	ErrNotStarted               = errors.New("the game has not started yet")
	ErrAlreadyStarted           = errors.New("the game has already started")
	ErrUnknownTopic             = errors.New("unknown trivia topic")
	ErrUnknownGame              = errors.New("unknown game")
	ErrUnsupportedOperation     = errors.New("the current game does not support this operation")
	ErrMetadataUnavailable      = errors.New("song metadata is unavailable")
	ErrVoiceUnavailable         = errors.New("voice channel is unavailable")
	ErrUnknownParticipant       = errors.New("player is not part of this game")
	ErrInvalidAward             = errors.New("award amount must be positive")
	ErrNoActiveRound            = errors.New("no question is active")
	ErrRoundInProgress          = errors.New("a round is already in progress")
)
