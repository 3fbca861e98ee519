package discord

import (
	"fmt"

	"partybot/internal/game"

	"github.com/bwmarrin/discordgo"
)

const (
	cmdStartGame   = "start_game"
	cmdStartTrivia = "start_trivia"
	cmdRoll        = "roll"
	cmdReveal      = "idk"
	cmdNext        = "next"
	cmdLeaderboard = "leaderboard"
	cmdEndGame     = "end_game"
	cmdHello       = "hellosgb"

	optGame         = "game"
	optTopic        = "topic"
	optVoiceChannel = "voice_channel"

	maxPlayerOptions = 10
	maxChoices       = 25
)

var playerDescriptions = [maxPlayerOptions]string{
	"First player (required)",
	"Second player (required)",
	"Third player (optional)",
	"Fourth player (optional)",
	"Fifth player (optional)",
	"Sixth player (optional)",
	"Seventh player (optional)",
	"Eighth player (optional)",
	"Ninth player (optional)",
	"Tenth player (optional)",
}

func playerOptions() []*discordgo.ApplicationCommandOption {
	opts := make([]*discordgo.ApplicationCommandOption, 0, maxPlayerOptions)
	for i := range maxPlayerOptions {
		opts = append(opts, &discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionUser,
			Name:        fmt.Sprintf("player%d", i+1),
			Description: playerDescriptions[i],
			Required:    i < game.MinParticipants,
		})
	}
	return opts
}

func choices(values []string) []*discordgo.ApplicationCommandOptionChoice {
	out := make([]*discordgo.ApplicationCommandOptionChoice, 0, len(values))
	for _, v := range values {
		if len(out) == maxChoices {
			break
		}
		out = append(out, &discordgo.ApplicationCommandOptionChoice{Name: v, Value: v})
	}
	return out
}

// Commands returns the slash commands the bot registers.
func Commands(games, topics []string) []*discordgo.ApplicationCommand {
	players := playerOptions()

	startGame := []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optGame,
		Description: "Name of the game to start",
		Required:    true,
		Choices:     choices(games),
	}}
	startGame = append(startGame, players...)
	startGame = append(startGame,
		&discordgo.ApplicationCommandOption{
			Type:        discordgo.ApplicationCommandOptionString,
			Name:        optTopic,
			Description: "Trivia topic (defaults to all_topics)",
			Choices:     choices(topics),
		},
		&discordgo.ApplicationCommandOption{
			Type:         discordgo.ApplicationCommandOptionChannel,
			Name:         optVoiceChannel,
			Description:  "Voice channel for Guess the Song",
			ChannelTypes: []discordgo.ChannelType{discordgo.ChannelTypeGuildVoice},
		},
	)

	startTrivia := []*discordgo.ApplicationCommandOption{{
		Type:        discordgo.ApplicationCommandOptionString,
		Name:        optTopic,
		Description: "The topic for the trivia game (e.g., cs, all_topics).",
		Required:    true,
		Choices:     choices(topics),
	}}
	startTrivia = append(startTrivia, players...)

	return []*discordgo.ApplicationCommand{
		{Name: cmdStartGame, Description: "Start a game with up to 10 players.", Options: startGame},
		{Name: cmdStartTrivia, Description: "Start a trivia game with a specific topic.", Options: startTrivia},
		{Name: cmdRoll, Description: "Roll the dice during the game."},
		{Name: cmdReveal, Description: "Give up on the current question and reveal the answer."},
		{Name: cmdNext, Description: "Retry starting the next round."},
		{Name: cmdLeaderboard, Description: "Show the current leaderboard."},
		{Name: cmdEndGame, Description: "End the current game."},
		{Name: cmdHello, Description: "Say hello to the bot."},
	}
}

// commandArgs are the parsed options of one slash command.
type commandArgs struct {
	values  map[string]string
	players []game.Participant
	channel game.ChannelRef
}

func parseOptions(data discordgo.ApplicationCommandInteractionData) commandArgs {
	args := commandArgs{values: make(map[string]string)}
	for _, opt := range data.Options {
		switch opt.Type {
		case discordgo.ApplicationCommandOptionString:
			args.values[opt.Name] = opt.StringValue()
		case discordgo.ApplicationCommandOptionUser:
			user := opt.UserValue(nil)
			if data.Resolved != nil {
				if resolved, ok := data.Resolved.Users[user.ID]; ok {
					user = resolved
				}
			}
			args.players = append(args.players, participant(user))
		case discordgo.ApplicationCommandOptionChannel:
			args.channel = game.ChannelRef(opt.ChannelValue(nil).ID)
		}
	}
	return args
}

// participant maps a Discord user to a player, mentioned by handle.
func participant(u *discordgo.User) game.Participant {
	name := u.GlobalName
	if name == "" {
		name = u.Username
	}
	if name == "" {
		name = u.ID
	}
	return game.NewParticipant(u.ID, name, u.Mention())
}

func interactionUser(i *discordgo.Interaction) *discordgo.User {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User
	}
	return i.User
}
