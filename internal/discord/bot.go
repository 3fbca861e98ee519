package discord

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"partybot/internal/config"
	"partybot/internal/dispatch"
	"partybot/internal/game"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// Option configures a Bot.
type Option func(*Bot)

// WithSession injects a pre-configured session.
// If this option is not given, NewBot creates a new session from the token.
func WithSession(s *discordgo.Session) Option {
	return func(b *Bot) {
		if s != nil {
			b.session = s
		}
	}
}

// WithAudioSource replaces ffmpeg as the song decoder.
func WithAudioSource(source AudioSource) Option {
	return func(b *Bot) {
		b.audio = source
	}
}

// Bot connects Discord events to the dispatcher.
type Bot struct {
	session  session
	settings config.DiscordSettings
	logger   *zap.Logger
	audio    AudioSource
	notifier *Notifier
	voice    *Voice

	mu         sync.RWMutex
	dispatcher *dispatch.Dispatcher
	selfID     string
}

// NewBot creates a bot for the configured application.
func NewBot(settings config.DiscordSettings, logger *zap.Logger, opts ...Option) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Bot{
		settings: settings,
		logger:   logger,
		audio:    FFmpegSource(""),
	}
	for _, opt := range opts {
		opt(b)
	}

	if b.session == nil {
		if settings.Token == "" {
			return nil, ErrEmptyToken
		}

		s, err := discordgo.New("Bot " + settings.Token)
		if err != nil {
			return nil, fmt.Errorf("failed to create Discord session: %w", err)
		}
		s.Identify.Intents = discordgo.IntentsGuilds |
			discordgo.IntentsGuildMessages |
			discordgo.IntentsGuildVoiceStates |
			discordgo.IntentsMessageContent
		b.session = s
	}

	b.notifier = &Notifier{session: b.session, logger: logger}
	b.voice = NewVoice(b.session, b.audio, logger)
	return b, nil
}

// Notifier posts game announcements through the bot.
func (b *Bot) Notifier() *Notifier {
	return b.notifier
}

// Voice plays songs through the bot.
func (b *Bot) Voice() *Voice {
	return b.voice
}

// Run connects to Discord and routes events to d until ctx is canceled.
func (b *Bot) Run(ctx context.Context, d *dispatch.Dispatcher) error {
	b.mu.Lock()
	b.dispatcher = d
	b.mu.Unlock()

	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onMessageCreate)
	b.session.AddHandler(b.onInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord session: %w", err)
	}
	b.logger.Info("connected to Discord")

	// Block until the context is canceled.
	<-ctx.Done()

	b.voice.Disconnect(context.WithoutCancel(ctx))
	if err := b.session.Close(); err != nil {
		b.logger.Error("failed to close Discord session", zap.Error(err))
	}
	return nil
}

func (b *Bot) onReady(_ *discordgo.Session, r *discordgo.Ready) {
	b.ready(r)
}

func (b *Bot) onMessageCreate(_ *discordgo.Session, m *discordgo.MessageCreate) {
	b.handleMessage(context.Background(), m)
}

func (b *Bot) onInteractionCreate(_ *discordgo.Session, i *discordgo.InteractionCreate) {
	b.handleInteraction(context.Background(), i.Interaction)
}

// ready records the bot's identity and registers the slash commands.
func (b *Bot) ready(r *discordgo.Ready) {
	appID := b.settings.ApplicationID
	if r.User != nil {
		b.mu.Lock()
		b.selfID = r.User.ID
		b.mu.Unlock()
		b.logger.Info("logged in", zap.String("user", r.User.Username))
	}
	if appID == "" && r.Application != nil {
		appID = r.Application.ID
	}

	if err := b.registerCommands(appID); err != nil {
		b.logger.Error("failed to register slash commands", zap.Error(err))
	}
}

func (b *Bot) registerCommands(appID string) error {
	if appID == "" {
		return errors.New("application id is unknown")
	}

	d := b.currentDispatcher()
	var games, topics []string
	if d != nil {
		games, topics = d.Games(), d.Topics()
	}

	registered, err := b.session.ApplicationCommandBulkOverwrite(appID, b.settings.GuildID, Commands(games, topics))
	if err != nil {
		return err
	}
	b.logger.Info("slash commands synced", zap.Int("commands", len(registered)), zap.String("guild", b.settings.GuildID))
	return nil
}

func (b *Bot) currentDispatcher() *dispatch.Dispatcher {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.dispatcher
}

func (b *Bot) self() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.selfID
}

// handleMessage forwards chat messages as answers.
func (b *Bot) handleMessage(ctx context.Context, m *discordgo.MessageCreate) {
	if m.Author == nil {
		b.logger.Debug("skipping message", zap.Error(ErrNoAuthor))
		return
	}
	// Ignore messages from bots, including this one.
	if m.Author.Bot || m.Author.ID == b.self() {
		return
	}

	d := b.currentDispatcher()
	if d == nil {
		return
	}
	if err := d.OnChatMessage(ctx, participant(m.Author), game.ChannelRef(m.ChannelID), m.Content); err != nil {
		b.logger.Debug("answer left the game waiting", zap.Error(err))
	}
}

func (b *Bot) inGamesChannel(channelID string) bool {
	return b.settings.GamesChannelID == "" || b.settings.GamesChannelID == channelID
}

// handleInteraction runs one slash command.
func (b *Bot) handleInteraction(ctx context.Context, i *discordgo.Interaction) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	data := i.ApplicationCommandData()
	user := interactionUser(i)
	if user == nil {
		return
	}
	b.logger.Debug("command", zap.String("name", data.Name), zap.String("user", user.ID), zap.String("channel", i.ChannelID))

	if data.Name == cmdHello {
		b.reply(i, msgHello, true)
		return
	}

	d := b.currentDispatcher()
	if d == nil {
		b.reply(i, msgNotReady, true)
		return
	}
	if !b.inGamesChannel(i.ChannelID) {
		b.reply(i, channelNotice(data.Name), true)
		return
	}

	switch data.Name {
	case cmdStartGame, cmdStartTrivia:
		b.startGame(ctx, d, i, data)
	case cmdRoll:
		b.roll(ctx, d, i, user)
	case cmdReveal:
		b.deferReply(i)
		if err := d.Reveal(ctx); err != nil {
			b.followup(i, UserMessage(err))
			return
		}
		b.followup(i, "Answer revealed.")
	case cmdNext:
		b.deferReply(i)
		if err := d.Advance(ctx); err != nil {
			b.followup(i, UserMessage(err))
			return
		}
		b.followup(i, "Next round started.")
	case cmdLeaderboard:
		board, err := d.Leaderboard()
		if err != nil {
			b.reply(i, UserMessage(err), true)
			return
		}
		b.reply(i, board, false)
	case cmdEndGame:
		if err := d.EndGame(ctx); err != nil {
			if errors.Is(err, game.ErrNoActiveGame) {
				b.reply(i, msgNoGameToEnd, true)
				return
			}
			b.reply(i, UserMessage(err), true)
			return
		}
		b.reply(i, msgGameEnded, false)
	default:
		b.reply(i, msgUnknown, true)
	}
}

func channelNotice(command string) string {
	switch command {
	case cmdStartGame, cmdStartTrivia:
		return msgStartChannel
	case cmdRoll:
		return msgRollChannel
	case cmdEndGame:
		return msgEndChannel
	}
	return msgGamesChannel
}

func (b *Bot) startGame(ctx context.Context, d *dispatch.Dispatcher, i *discordgo.Interaction, data discordgo.ApplicationCommandInteractionData) {
	args := parseOptions(data)
	req := dispatch.StartRequest{
		Game:         args.values[optGame],
		Channel:      game.ChannelRef(i.ChannelID),
		VoiceChannel: args.channel,
		Participants: args.players,
		Topic:        args.values[optTopic],
	}
	if data.Name == cmdStartTrivia {
		req.Game = dispatch.GameTrivia
	}
	if req.VoiceChannel != "" {
		b.voice.Remember(req.VoiceChannel, i.GuildID)
	}

	// song lookups can take longer than an interaction may wait
	b.deferReply(i)

	session, err := d.StartGame(ctx, req)
	switch {
	case err == nil:
		b.followup(i, fmt.Sprintf("Game %s started with players: %s!", session.Name(), session.Participants().Handles()))
	case session != nil:
		b.followup(i, fmt.Sprintf("Game %s started, but the first round could not begin. %s Use `/next` to try again.", session.Name(), UserMessage(err)))
	case errors.Is(err, game.ErrAlreadyInProgress):
		if active, activeErr := d.Active(); activeErr == nil {
			b.followup(i, fmt.Sprintf("A game is already in progress: %s. Please end it before starting a new one.", active.Name()))
			return
		}
		b.followup(i, UserMessage(err))
	default:
		b.followup(i, UserMessage(err))
	}
}

func (b *Bot) roll(ctx context.Context, d *dispatch.Dispatcher, i *discordgo.Interaction, user *discordgo.User) {
	outcome, err := d.OnRollRequest(ctx, participant(user))
	if err != nil {
		if errors.Is(err, game.ErrWrongTurn) {
			if session, activeErr := d.Active(); activeErr == nil && session.Turns() != nil {
				if roller, ok := session.Turns().CurrentRoller(); ok {
					b.reply(i, fmt.Sprintf("It's not your turn, %s! Wait for %s to roll.", user.Mention(), roller), true)
					return
				}
			}
		}
		b.reply(i, UserMessage(err), true)
		return
	}

	if outcome.Skipped {
		b.reply(i, "You're the Threeman, so you sit this roll out.", true)
		return
	}
	b.reply(i, fmt.Sprintf("You rolled a %d and a %d.", outcome.Roll.Die1, outcome.Roll.Die2), true)
}

func (b *Bot) reply(i *discordgo.Interaction, content string, ephemeral bool) {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
	if err != nil {
		b.logger.Warn("failed to respond to interaction", zap.Error(err))
	}
}

// deferReply acknowledges a slow command privately; followup completes it.
func (b *Bot) deferReply(i *discordgo.Interaction) {
	err := b.session.InteractionRespond(i, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Flags: discordgo.MessageFlagsEphemeral},
	})
	if err != nil {
		b.logger.Warn("failed to defer interaction", zap.Error(err))
	}
}

func (b *Bot) followup(i *discordgo.Interaction, content string) {
	_, err := b.session.FollowupMessageCreate(i, true, &discordgo.WebhookParams{
		Content: content,
		Flags:   discordgo.MessageFlagsEphemeral,
	})
	if err != nil {
		b.logger.Warn("failed to send followup", zap.Error(err))
	}
}
