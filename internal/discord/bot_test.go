package discord

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"partybot/internal/config"
	"partybot/internal/dispatch"
	"partybot/internal/game"
	"partybot/internal/store"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// mockSession implements the session interface for testing.
type mockSession struct {
	addHandlerFunc         func(handler interface{}) func()
	openFunc               func() error
	closeFunc              func() error
	channelMessageSendFunc func(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error)
	bulkOverwriteFunc      func(appID string, guildID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error)
	voiceJoinFunc          func(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error)

	mu        sync.Mutex
	sent      []string
	responses []*discordgo.InteractionResponse
	followups []*discordgo.WebhookParams
}

func (m *mockSession) AddHandler(handler interface{}) func() {
	if m.addHandlerFunc != nil {
		return m.addHandlerFunc(handler)
	}
	return func() {}
}

func (m *mockSession) Open() error {
	if m.openFunc != nil {
		return m.openFunc()
	}
	return nil
}

func (m *mockSession) Close() error {
	if m.closeFunc != nil {
		return m.closeFunc()
	}
	return nil
}

func (m *mockSession) ChannelMessageSend(channelID string, content string, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if m.channelMessageSendFunc != nil {
		return m.channelMessageSendFunc(channelID, content, options...)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, content)
	return &discordgo.Message{}, nil
}

func (m *mockSession) InteractionRespond(_ *discordgo.Interaction, resp *discordgo.InteractionResponse, _ ...discordgo.RequestOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses = append(m.responses, resp)
	return nil
}

func (m *mockSession) FollowupMessageCreate(_ *discordgo.Interaction, _ bool, data *discordgo.WebhookParams, _ ...discordgo.RequestOption) (*discordgo.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.followups = append(m.followups, data)
	return &discordgo.Message{}, nil
}

func (m *mockSession) ApplicationCommandBulkOverwrite(appID string, guildID string, commands []*discordgo.ApplicationCommand, _ ...discordgo.RequestOption) ([]*discordgo.ApplicationCommand, error) {
	if m.bulkOverwriteFunc != nil {
		return m.bulkOverwriteFunc(appID, guildID, commands)
	}
	return commands, nil
}

func (m *mockSession) ChannelVoiceJoin(gID, cID string, mute, deaf bool) (*discordgo.VoiceConnection, error) {
	if m.voiceJoinFunc != nil {
		return m.voiceJoinFunc(gID, cID, mute, deaf)
	}
	return nil, errors.New("voice is not available in tests")
}

func (m *mockSession) lastResponse() *discordgo.InteractionResponse {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.responses) == 0 {
		return nil
	}
	return m.responses[len(m.responses)-1]
}

func (m *mockSession) lastFollowup() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.followups) == 0 {
		return ""
	}
	return m.followups[len(m.followups)-1].Content
}

func (m *mockSession) messages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

const botQuestions = `
topics:
  - name: cs
    questions:
      - question: What language is based on a snake?
        answer: Python
`

type fixedDice struct{ roll game.Roll }

func (d fixedDice) Roll() game.Roll { return d.roll }

var (
	alice = &discordgo.User{ID: "1", Username: "alice"}
	bob   = &discordgo.User{ID: "2", Username: "bob", GlobalName: "Bobby"}
)

func newTestBot(t *testing.T, settings config.DiscordSettings) (*Bot, *mockSession, *dispatch.Dispatcher) {
	t.Helper()
	mock := &mockSession{}
	logger := zaptest.NewLogger(t)

	b := &Bot{settings: settings, logger: logger, session: mock}
	b.notifier = &Notifier{session: mock, logger: logger}
	b.voice = NewVoice(mock, nil, logger)

	bank, err := game.ParseQuestions(strings.NewReader(botQuestions))
	require.NoError(t, err)
	gameSettings := config.DefaultConfig().Games
	d := dispatch.New(store.NewMemoryStore(), bank, b.notifier, gameSettings, logger,
		dispatch.WithPacer(game.DelayPacer(0)),
		dispatch.WithDice(fixedDice{roll: game.Roll{Die1: 2, Die2: 6}}),
	)
	b.dispatcher = d
	return b, mock, d
}

func command(channel string, user *discordgo.User, name string, options ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.Interaction {
	resolved := &discordgo.ApplicationCommandInteractionDataResolved{Users: map[string]*discordgo.User{
		alice.ID: alice,
		bob.ID:   bob,
	}}
	return &discordgo.Interaction{
		Type:      discordgo.InteractionApplicationCommand,
		ChannelID: channel,
		GuildID:   "guild",
		Member:    &discordgo.Member{User: user},
		Data: discordgo.ApplicationCommandInteractionData{
			Name:     name,
			Options:  options,
			Resolved: resolved,
		},
	}
}

func stringOpt(name, value string) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionString, Value: value}
}

func userOpt(name string, u *discordgo.User) *discordgo.ApplicationCommandInteractionDataOption {
	return &discordgo.ApplicationCommandInteractionDataOption{Name: name, Type: discordgo.ApplicationCommandOptionUser, Value: u.ID}
}

func TestNewBot(t *testing.T) {
	t.Run("with token", func(t *testing.T) {
		b, err := NewBot(config.DiscordSettings{Token: "test-token"}, nil)
		require.NoError(t, err)
		assert.NotNil(t, b.session)
		assert.NotNil(t, b.Notifier())
		assert.NotNil(t, b.Voice())
	})

	t.Run("without token and without session", func(t *testing.T) {
		_, err := NewBot(config.DiscordSettings{}, nil)
		assert.ErrorIs(t, err, ErrEmptyToken)
	})

	t.Run("with injected session", func(t *testing.T) {
		s := &discordgo.Session{}
		b, err := NewBot(config.DiscordSettings{}, nil, WithSession(s))
		require.NoError(t, err)
		assert.Same(t, s, b.session)
	})
}

func TestBot_Run(t *testing.T) {
	t.Run("open failure", func(t *testing.T) {
		b, mock, d := newTestBot(t, config.DiscordSettings{})
		mock.openFunc = func() error { return errors.New("connection refused") }

		err := b.Run(context.Background(), d)
		assert.ErrorContains(t, err, "failed to open Discord session")
	})

	t.Run("blocks until canceled", func(t *testing.T) {
		b, mock, d := newTestBot(t, config.DiscordSettings{})
		handlers := 0
		closed := false
		mock.addHandlerFunc = func(interface{}) func() {
			handlers++
			return func() {}
		}
		mock.closeFunc = func() error {
			closed = true
			return nil
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, b.Run(ctx, d))
		assert.Equal(t, 3, handlers)
		assert.True(t, closed)
	})
}

func TestBot_Ready(t *testing.T) {
	b, mock, _ := newTestBot(t, config.DiscordSettings{GuildID: "guild"})

	var gotApp, gotGuild string
	var gotCommands []*discordgo.ApplicationCommand
	mock.bulkOverwriteFunc = func(appID, guildID string, commands []*discordgo.ApplicationCommand) ([]*discordgo.ApplicationCommand, error) {
		gotApp, gotGuild, gotCommands = appID, guildID, commands
		return commands, nil
	}

	b.ready(&discordgo.Ready{
		User:        &discordgo.User{ID: "bot", Username: "sgb"},
		Application: &discordgo.Application{ID: "app"},
	})

	assert.Equal(t, "bot", b.self())
	assert.Equal(t, "app", gotApp)
	assert.Equal(t, "guild", gotGuild)
	assert.Len(t, gotCommands, 8)
}

func TestBot_HandleMessage(t *testing.T) {
	b, mock, d := newTestBot(t, config.DiscordSettings{})
	b.selfID = "bot"
	ctx := context.Background()

	session, err := d.StartGame(ctx, dispatch.StartRequest{
		Game:         dispatch.GameTrivia,
		Channel:      "games",
		Topic:        "cs",
		Participants: []game.Participant{participant(alice), participant(bob)},
	})
	require.NoError(t, err)

	b.handleMessage(ctx, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "games", Content: "python"}})
	b.handleMessage(ctx, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "games", Content: "python", Author: &discordgo.User{ID: "bot"}}})
	b.handleMessage(ctx, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "games", Content: "python", Author: &discordgo.User{ID: "9", Bot: true}}})
	score, _ := session.Scoreboard().Score(participant(alice))
	assert.Zero(t, score)

	b.handleMessage(ctx, &discordgo.MessageCreate{Message: &discordgo.Message{ChannelID: "games", Content: " PYTHON ", Author: alice}})
	score, _ = session.Scoreboard().Score(participant(alice))
	assert.Equal(t, 1, score)
	assert.Contains(t, mock.messages(), "<@1> answered correctly and earns a point!")
}

func TestBot_Commands(t *testing.T) {
	ctx := context.Background()

	t.Run("hello works anywhere", func(t *testing.T) {
		b, mock, _ := newTestBot(t, config.DiscordSettings{GamesChannelID: "games"})
		b.handleInteraction(ctx, command("elsewhere", alice, cmdHello))

		resp := mock.lastResponse()
		require.NotNil(t, resp)
		assert.Equal(t, msgHello, resp.Data.Content)
		assert.Equal(t, discordgo.MessageFlagsEphemeral, resp.Data.Flags)
	})

	t.Run("games channel only", func(t *testing.T) {
		b, mock, _ := newTestBot(t, config.DiscordSettings{GamesChannelID: "games"})
		b.handleInteraction(ctx, command("elsewhere", alice, cmdStartGame))
		assert.Equal(t, msgStartChannel, mock.lastResponse().Data.Content)

		b.handleInteraction(ctx, command("elsewhere", alice, cmdRoll))
		assert.Equal(t, msgRollChannel, mock.lastResponse().Data.Content)
	})

	t.Run("start, roll and end threeman", func(t *testing.T) {
		b, mock, d := newTestBot(t, config.DiscordSettings{GamesChannelID: "games"})

		b.handleInteraction(ctx, command("games", alice, cmdStartGame,
			stringOpt(optGame, "threeman"), userOpt("player1", alice), userOpt("player2", bob)))
		assert.Equal(t, discordgo.InteractionResponseDeferredChannelMessageWithSource, mock.lastResponse().Type)
		assert.Equal(t, "Game Threeman started with players: <@1>, <@2>!", mock.lastFollowup())
		assert.Contains(t, mock.messages(), "Starting a game of Threeman with players: <@1>, <@2>.")

		session, err := d.Active()
		require.NoError(t, err)
		roller, _ := session.Turns().CurrentRoller()
		waiting, rolling := bob, alice
		if roller.ID == bob.ID {
			waiting, rolling = alice, bob
		}

		b.handleInteraction(ctx, command("games", waiting, cmdRoll))
		assert.Equal(t, "It's not your turn, "+waiting.Mention()+"! Wait for "+rolling.Mention()+" to roll.", mock.lastResponse().Data.Content)

		b.handleInteraction(ctx, command("games", rolling, cmdRoll))
		assert.Equal(t, "You rolled a 2 and a 6.", mock.lastResponse().Data.Content)
		assert.Contains(t, mock.messages(), rolling.Mention()+" rolled a 2 and a 6 (Total: 8).")

		b.handleInteraction(ctx, command("games", alice, cmdStartTrivia,
			stringOpt(optTopic, "cs"), userOpt("player1", alice), userOpt("player2", bob)))
		assert.Equal(t, "A game is already in progress: Threeman. Please end it before starting a new one.", mock.lastFollowup())

		b.handleInteraction(ctx, command("games", alice, cmdEndGame))
		assert.Equal(t, msgGameEnded, mock.lastResponse().Data.Content)
		assert.Zero(t, mock.lastResponse().Data.Flags)

		b.handleInteraction(ctx, command("games", alice, cmdEndGame))
		assert.Equal(t, msgNoGameToEnd, mock.lastResponse().Data.Content)
	})

	t.Run("trivia leaderboard and reveal", func(t *testing.T) {
		b, mock, _ := newTestBot(t, config.DiscordSettings{})

		b.handleInteraction(ctx, command("games", alice, cmdLeaderboard))
		assert.Equal(t, msgNoGame, mock.lastResponse().Data.Content)

		b.handleInteraction(ctx, command("games", alice, cmdStartTrivia,
			stringOpt(optTopic, "cs"), userOpt("player1", alice), userOpt("player2", bob)))
		assert.Equal(t, "Game Trivia started with players: <@1>, <@2>!", mock.lastFollowup())

		b.handleInteraction(ctx, command("games", alice, cmdRoll))
		assert.Equal(t, "Trivia does not support rolling dice.", mock.lastResponse().Data.Content)

		b.handleInteraction(ctx, command("games", alice, cmdLeaderboard))
		assert.Equal(t, "Current Leaderboard:\n<@1>: 0\n<@2>: 0", mock.lastResponse().Data.Content)

		b.handleInteraction(ctx, command("games", alice, cmdReveal))
		assert.Equal(t, "Answer revealed.", mock.lastFollowup())
		assert.Contains(t, mock.messages(), "The correct answer was: Python")
		assert.Contains(t, mock.messages(), "All questions have been asked! The game is over.")
	})

	t.Run("unknown topic", func(t *testing.T) {
		b, mock, _ := newTestBot(t, config.DiscordSettings{})

		b.handleInteraction(ctx, command("games", alice, cmdStartTrivia,
			stringOpt(optTopic, "history"), userOpt("player1", alice), userOpt("player2", bob)))
		assert.Equal(t, "Unknown trivia topic: history. Available topics are: cs, all_topics.", mock.lastFollowup())
	})

	t.Run("one player", func(t *testing.T) {
		b, mock, _ := newTestBot(t, config.DiscordSettings{})

		b.handleInteraction(ctx, command("games", alice, cmdStartGame,
			stringOpt(optGame, "threeman"), userOpt("player1", alice), userOpt("player2", alice)))
		assert.Equal(t, msgTooFewPlayers, mock.lastFollowup())
	})
}

func TestParticipant(t *testing.T) {
	p := participant(bob)
	assert.Equal(t, "2", p.ID)
	assert.Equal(t, "Bobby", p.Name)
	assert.Equal(t, "<@2>", p.Handle)

	p = participant(alice)
	assert.Equal(t, "alice", p.Name)
}
