package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/spf13/viper"
)

// LoadConfig loads configuration using Viper
// Priority order: Environment variables > Config file > Defaults
func LoadConfig(configPath string) (*BotConfig, error) {
	v := viper.New()

	// Set config file details
	v.SetConfigName("bot")
	v.SetConfigType("yaml")

	// Add config paths
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/partybot")
	}

	// Enable environment variable binding
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Bind specific environment variables
	// These allow both DISCORD_TOKEN and DISCORD_APPLICATION_TOKEN to work
	bindEnv(v, "discord.token", "DISCORD_APPLICATION_TOKEN")
	bindEnv(v, "discord.applicationid", "DISCORD_APPLICATION_ID")
	bindEnv(v, "discord.guildid", "DISCORD_GUILD_ID")
	bindEnv(v, "discord.gameschannelid", "GAMES_CHANNEL_ID")
	bindEnv(v, "spotify.clientid", "SPOTIFY_CLIENT_ID")
	bindEnv(v, "spotify.clientsecret", "SPOTIFY_CLIENT_SECRET")
	bindEnv(v, "server.enabled", "HTTP_ENABLED")
	bindEnv(v, "server.port", "PORT")
	bindEnv(v, "server.host", "HOST")
	bindEnv(v, "server.loglevel", "LOG_LEVEL")
	bindEnv(v, "server.logformat", "LOG_FORMAT")
	bindEnv(v, "server.ratelimit", "RATE_LIMIT")
	bindEnv(v, "server.ratelimitburst", "RATE_LIMIT_BURST")
	bindEnv(v, "server.maxrequestsize", "MAX_REQUEST_SIZE")
	bindEnv(v, "server.publicurl", "PUBLIC_URL")

	setDefaults(v, DefaultConfig())

	// Try to read config file (it's optional)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			// Config file was found but another error occurred
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found; continue with env vars and defaults
	}

	cfg := &BotConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func bindEnv(v *viper.Viper, key string, envs ...string) {
	// BindEnv only fails without a key
	_ = v.BindEnv(append([]string{key, strings.ToUpper(strings.ReplaceAll(key, ".", "_"))}, envs...)...)
}

func setDefaults(v *viper.Viper, d *BotConfig) {
	v.SetDefault("discord.token", d.Discord.Token)
	v.SetDefault("discord.applicationid", d.Discord.ApplicationID)
	v.SetDefault("discord.guildid", d.Discord.GuildID)
	v.SetDefault("discord.gameschannelid", d.Discord.GamesChannelID)

	v.SetDefault("games.minplayers", d.Games.MinPlayers)
	v.SetDefault("games.maxplayers", d.Games.MaxPlayers)
	v.SetDefault("games.leaderboardevery", d.Games.LeaderboardEvery)
	v.SetDefault("games.rounddelay", d.Games.RoundDelay.String())
	v.SetDefault("games.leaderboarddelay", d.Games.LeaderboardDelay.String())
	v.SetDefault("games.questionsfile", d.Games.QuestionsFile)
	v.SetDefault("games.seed", d.Games.Seed)

	v.SetDefault("server.enabled", d.Server.Enabled)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.readtimeout", d.Server.ReadTimeout.String())
	v.SetDefault("server.writetimeout", d.Server.WriteTimeout.String()) // 0 for SSE support
	v.SetDefault("server.idletimeout", d.Server.IdleTimeout.String())
	v.SetDefault("server.shutdowntimeout", d.Server.ShutdownTimeout.String())
	v.SetDefault("server.ratelimit", d.Server.RateLimit)
	v.SetDefault("server.ratelimitburst", d.Server.RateLimitBurst)
	v.SetDefault("server.maxrequestsize", d.Server.MaxRequestSize)
	v.SetDefault("server.loglevel", d.Server.LogLevel)
	v.SetDefault("server.logformat", d.Server.LogFormat)
	v.SetDefault("server.publicurl", d.Server.PublicURL)

	v.SetDefault("spotify.clientid", d.Spotify.ClientID)
	v.SetDefault("spotify.clientsecret", d.Spotify.ClientSecret)
	v.SetDefault("spotify.playlistid", d.Spotify.PlaylistID)

	v.SetDefault("youtube.ytdlppath", d.YouTube.YTDLPPath)
	v.SetDefault("youtube.usecookies", d.YouTube.UseCookies)
	v.SetDefault("youtube.cookiettl", d.YouTube.CookieTTL.String())
	v.SetDefault("youtube.cookieurl", d.YouTube.CookieURL)
}
