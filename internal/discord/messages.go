package discord

import (
	"errors"
	"strings"

	"partybot/internal/game"
)

const (
	msgHello         = "Hello! I am SGB!"
	msgGameEnded     = "The current game has been ended."
	msgNoGame        = "No game is currently running."
	msgNoGameToEnd   = "There is no game in progress."
	msgNotReady      = "The bot is still starting up. Try again in a moment."
	msgUnknown       = "Unknown command."
	msgFallback      = "Something went wrong. Please try again."
	msgStartChannel  = "Please start the game in the games channel."
	msgRollChannel   = "Please roll the dice in the games channel."
	msgEndChannel    = "Please end the game in the games channel."
	msgGamesChannel  = "Please use the games channel."
	msgTooFewPlayers = "You need to select at least 2 players to start the game."
)

// UserMessage turns an error from the game layer into a reply for the user
// who caused it.
func UserMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrAlreadyInProgress):
		return "A game is already in progress. Please end it before starting a new one."
	case errors.Is(err, game.ErrInsufficientParticipants):
		return msgTooFewPlayers
	case errors.Is(err, game.ErrNoActiveGame):
		return msgNoGame
	case errors.Is(err, game.ErrNotStarted):
		return "The game has not started yet."
	case errors.Is(err, game.ErrNoActiveRound):
		return "Error: No question active."
	case errors.Is(err, game.ErrRoundInProgress):
		return "A round is already in progress. Use `/idk` to skip it."
	case errors.Is(err, game.ErrUnsupportedOperation):
		return sentence(detail(err, game.ErrUnsupportedOperation))
	case errors.Is(err, game.ErrTooManyParticipants),
		errors.Is(err, game.ErrUnknownTopic),
		errors.Is(err, game.ErrUnknownGame),
		errors.Is(err, game.ErrWrongTurn),
		errors.Is(err, game.ErrMetadataUnavailable),
		errors.Is(err, game.ErrVoiceUnavailable):
		return sentence(err.Error())
	}
	return msgFallback
}

// detail strips the sentinel's own text from a wrapped error.
func detail(err, sentinel error) string {
	msg := err.Error()
	if rest, ok := strings.CutPrefix(msg, sentinel.Error()+": "); ok {
		return rest
	}
	return msg
}

func sentence(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return msgFallback
	}
	s = strings.ToUpper(s[:1]) + s[1:]
	switch s[len(s)-1] {
	case '.', '!', '?':
		return s
	}
	return s + "."
}
