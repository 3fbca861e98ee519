package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"partybot/internal/config"
	"partybot/internal/game"
	"partybot/internal/store"

	"go.uber.org/zap"
)

// Game names accepted by StartGame.
const (
	GameThreeman = "threeman"
	GameTrivia   = "trivia"
	GameSong     = "song"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithVoice sets the voice capability used by the song game.
func WithVoice(v game.Voice) Option {
	return func(d *Dispatcher) {
		d.voice = v
	}
}

// WithPlaylist sets where the song game finds tracks.
func WithPlaylist(p game.PlaylistSource) Option {
	return func(d *Dispatcher) {
		d.playlist = p
	}
}

// WithResolver sets how the song game finds playable audio.
func WithResolver(r game.URLResolver) Option {
	return func(d *Dispatcher) {
		d.resolver = r
	}
}

// WithDice replaces the random dice of new dice games.
func WithDice(dice game.Dice) Option {
	return func(d *Dispatcher) {
		d.dice = dice
	}
}

// WithPacer replaces the configured delays between rounds.
func WithPacer(p game.Pacer) Option {
	return func(d *Dispatcher) {
		d.pacer = p
		d.boardPacer = p
	}
}

// StartRequest describes a game to start.
type StartRequest struct {
	Game         string
	Channel      game.ChannelRef
	VoiceChannel game.ChannelRef
	Participants []game.Participant
	Topic        string
}

// Dispatcher routes inbound events to the one active session.
type Dispatcher struct {
	store    *store.MemoryStore
	bank     *game.QuestionBank
	notifier game.Notifier
	settings config.GameSettings
	logger   *zap.Logger

	voice      game.Voice
	playlist   game.PlaylistSource
	resolver   game.URLResolver
	dice       game.Dice
	pacer      game.Pacer
	boardPacer game.Pacer
}

// New creates a dispatcher over s.
func New(s *store.MemoryStore, bank *game.QuestionBank, notifier game.Notifier, settings config.GameSettings, logger *zap.Logger, opts ...Option) *Dispatcher {
	d := &Dispatcher{
		store:      s,
		bank:       bank,
		notifier:   notifier,
		settings:   settings,
		logger:     logger,
		pacer:      game.DelayPacer(settings.RoundDelay),
		boardPacer: game.DelayPacer(settings.LeaderboardDelay),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = zap.NewNop()
	}
	return d
}

// Games lists the game names StartGame accepts.
func (d *Dispatcher) Games() []string {
	return []string{GameThreeman, GameTrivia, GameSong}
}

// Topics lists the trivia topics.
func (d *Dispatcher) Topics() []string {
	if d.bank == nil {
		return nil
	}
	return d.bank.Topics()
}

// StartGame creates and starts a session. It fails with
// game.ErrAlreadyInProgress while another session is live and leaves that
// session untouched. If the session started but its first round could not
// be prepared, the session stays active and is returned with the error.
func (d *Dispatcher) StartGame(ctx context.Context, req StartRequest) (*game.Session, error) {
	roster, err := game.NewRoster(req.Participants)
	if err != nil {
		return nil, err
	}
	if least := d.settings.MinPlayers; least > 0 && len(roster) < least {
		return nil, fmt.Errorf("%w: need %d", game.ErrInsufficientParticipants, least)
	}
	if most := d.settings.MaxPlayers; most > 0 && len(roster) > most {
		return nil, fmt.Errorf("%w: at most %d", game.ErrTooManyParticipants, most)
	}

	name := strings.ToLower(strings.TrimSpace(req.Game))
	session, err := d.store.Create(func(id string) (*game.Session, error) {
		return d.build(id, name, req, roster)
	})
	if err != nil {
		return nil, err
	}

	log := d.logger.With(zap.String("session", session.ID), zap.String("game", name))
	if err := session.Start(ctx); err != nil {
		if status := session.Status(); status == game.StatusNotStarted || status == game.StatusEnded {
			d.store.Remove(session.ID)
			log.Warn("game failed to start", zap.Error(err))
			return nil, err
		}
		log.Warn("game started without a first round", zap.Error(err))
		return session, err
	}

	log.Info("game started", zap.Int("players", len(roster)))
	return session, nil
}

func (d *Dispatcher) build(id, name string, req StartRequest, roster game.Roster) (*game.Session, error) {
	switch name {
	case GameThreeman:
		opts := []game.TurnOption{game.WithTurnSeed(d.settings.Seed)}
		if d.dice != nil {
			opts = append(opts, game.WithDice(d.dice))
		}
		seq, err := game.NewTurnSequencer(req.Channel, roster, d.notifier, opts...)
		if err != nil {
			return nil, err
		}
		return game.NewTurnSession(id, name, req.Channel, seq), nil

	case GameTrivia:
		if d.bank == nil {
			return nil, fmt.Errorf("%w: no questions loaded", game.ErrUnknownTopic)
		}
		topic := strings.TrimSpace(req.Topic)
		if topic == "" {
			topic = game.AllTopics
		}
		questions, err := d.bank.Topic(topic)
		if err != nil {
			return nil, err
		}
		cycle, err := game.NewRoundCycle(req.Channel, roster, game.NewTrivia(topic, questions), d.notifier, d.roundOptions()...)
		if err != nil {
			return nil, err
		}
		return game.NewRoundSession(id, name, req.Channel, "", cycle), nil

	case GameSong:
		if d.playlist == nil || d.resolver == nil {
			return nil, fmt.Errorf("%w: song lookups are not configured", game.ErrMetadataUnavailable)
		}
		if d.voice == nil || req.VoiceChannel == "" {
			return nil, fmt.Errorf("%w: pick a voice channel", game.ErrVoiceUnavailable)
		}
		quiz := game.NewSongQuiz(req.VoiceChannel, d.voice, d.playlist, d.resolver)
		cycle, err := game.NewRoundCycle(req.Channel, roster, quiz, d.notifier, d.roundOptions()...)
		if err != nil {
			return nil, err
		}
		return game.NewRoundSession(id, name, req.Channel, req.VoiceChannel, cycle), nil
	}

	return nil, fmt.Errorf("%w: %s. Available games are: %s", game.ErrUnknownGame, req.Game, strings.Join(d.Games(), ", "))
}

func (d *Dispatcher) roundOptions() []game.RoundOption {
	return []game.RoundOption{
		game.WithLeaderboardEvery(d.settings.LeaderboardEvery),
		game.WithPacer(d.pacer),
		game.WithLeaderboardPacer(d.boardPacer),
		game.WithRoundSeed(d.settings.Seed),
	}
}

// EndGame ends the live session and clears the slot.
func (d *Dispatcher) EndGame(ctx context.Context) error {
	session, err := d.store.Take()
	if err != nil {
		return err
	}
	if session.Status() == game.StatusEnded {
		return game.ErrNoActiveGame
	}

	session.End(ctx)
	d.logger.Info("game ended", zap.String("session", session.ID), zap.String("game", session.Game))
	return nil
}

// Active returns the live session.
func (d *Dispatcher) Active() (*game.Session, error) {
	return d.store.Active()
}

// OnChatMessage routes a chat message to a round-based session bound to
// channel. Anything else is ignored. A returned error means the next round
// could not be prepared; it has already been announced to the channel.
func (d *Dispatcher) OnChatMessage(ctx context.Context, p game.Participant, channel game.ChannelRef, text string) error {
	session, err := d.store.Active()
	if err != nil || session.Kind() != game.KindRoundBased || session.Channel != channel {
		return nil
	}
	if _, err := session.Answer(ctx, p, text); err != nil {
		d.reportRoundFailure(ctx, session, err)
		return err
	}
	return nil
}

// OnRollRequest routes a roll to the live dice game.
func (d *Dispatcher) OnRollRequest(ctx context.Context, p game.Participant) (game.RollOutcome, error) {
	session, err := d.store.Active()
	if err != nil {
		return game.RollOutcome{}, err
	}
	return session.Roll(ctx, p)
}

// Reveal gives up on the current question or song.
func (d *Dispatcher) Reveal(ctx context.Context) error {
	session, err := d.store.Active()
	if err != nil {
		return err
	}
	if err := session.Reveal(ctx); err != nil {
		if errors.Is(err, game.ErrMetadataUnavailable) {
			d.reportRoundFailure(ctx, session, err)
		}
		return err
	}
	return nil
}

// Advance retries a round that could not be prepared.
func (d *Dispatcher) Advance(ctx context.Context) error {
	session, err := d.store.Active()
	if err != nil {
		return err
	}
	return session.Advance(ctx)
}

// Leaderboard renders the live session's standings.
func (d *Dispatcher) Leaderboard() (string, error) {
	session, err := d.store.Active()
	if err != nil {
		return "", err
	}
	return session.Leaderboard()
}

// Shutdown ends whatever is running.
func (d *Dispatcher) Shutdown(ctx context.Context) {
	if err := d.EndGame(ctx); err != nil && !errors.Is(err, game.ErrNoActiveGame) {
		d.logger.Warn("failed to end game on shutdown", zap.Error(err))
	}
}

func (d *Dispatcher) reportRoundFailure(ctx context.Context, session *game.Session, err error) {
	d.logger.Warn("next round could not start", zap.String("session", session.ID), zap.Error(err))
	if d.notifier != nil {
		d.notifier.Notify(ctx, session.Channel, fmt.Sprintf("Couldn't start the next round: %v. Use `/next` to try again.", err))
	}
}
