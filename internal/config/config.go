package config

import (
	"fmt"
	"time"
)

// This file defines the configuration structures used by viper_config.go
// The actual loading is handled by viper in viper_config.go

// DefaultPlaylistID is the Spotify playlist the song game draws from.
const DefaultPlaylistID = "0R1oMVYDw6vfSaCrRjUvLJ"

// BotConfig represents the bot configuration
type BotConfig struct {
	Discord DiscordSettings `yaml:"discord"`
	Games   GameSettings    `yaml:"games"`
	Server  ServerSettings  `yaml:"server"`
	Spotify SpotifySettings `yaml:"spotify"`
	YouTube YouTubeSettings `yaml:"youtube"`
}

// DiscordSettings holds the bot credentials and where it may run games
type DiscordSettings struct {
	Token          string `yaml:"token" envconfig:"DISCORD_APPLICATION_TOKEN" required:"true"`
	ApplicationID  string `yaml:"applicationID" envconfig:"DISCORD_APPLICATION_ID"` // resolved from the session when empty
	GuildID        string `yaml:"guildID" envconfig:"DISCORD_GUILD_ID"`             // empty registers commands globally
	GamesChannelID string `yaml:"gamesChannelID" envconfig:"GAMES_CHANNEL_ID"`      // empty allows every channel
}

// GameSettings tune the game engine
type GameSettings struct {
	MinPlayers       int           `yaml:"minPlayers"`
	MaxPlayers       int           `yaml:"maxPlayers"`
	LeaderboardEvery int           `yaml:"leaderboardEvery"`
	RoundDelay       time.Duration `yaml:"roundDelay"`
	LeaderboardDelay time.Duration `yaml:"leaderboardDelay"`
	QuestionsFile    string        `yaml:"questionsFile"` // empty uses the embedded questions
	Seed             int64         `yaml:"seed"`          // 0 seeds from crypto/rand
}

// ServerSettings configure the spectator HTTP server
type ServerSettings struct {
	Enabled bool   `yaml:"enabled" envconfig:"HTTP_ENABLED" default:"true"`
	Port    string `yaml:"port" envconfig:"PORT" default:"8080"`
	Host    string `yaml:"host" envconfig:"HOST" default:"0.0.0.0"`

	ReadTimeout     time.Duration `yaml:"readTimeout" default:"15s"`
	WriteTimeout    time.Duration `yaml:"writeTimeout" default:"0s"` // 0 for SSE support
	IdleTimeout     time.Duration `yaml:"idleTimeout" default:"0s"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"30s"`

	// Rate limiting (using golang.org/x/time/rate)
	RateLimit      float64 `yaml:"rateLimit" envconfig:"RATE_LIMIT" default:"10"`            // requests per second
	RateLimitBurst int     `yaml:"rateLimitBurst" envconfig:"RATE_LIMIT_BURST" default:"20"` // burst size

	// Request limits
	MaxRequestSize int64 `yaml:"maxRequestSize" envconfig:"MAX_REQUEST_SIZE" default:"1048576"` // 1MB

	LogLevel  string `yaml:"logLevel" envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `yaml:"logFormat" envconfig:"LOG_FORMAT" default:"text"`

	PublicURL string `yaml:"publicURL" envconfig:"PUBLIC_URL"` // used in scoreboard links and the QR code
}

// SpotifySettings hold the client credentials for playlist lookups
type SpotifySettings struct {
	ClientID     string `yaml:"clientID" envconfig:"SPOTIFY_CLIENT_ID"`
	ClientSecret string `yaml:"clientSecret" envconfig:"SPOTIFY_CLIENT_SECRET"`
	PlaylistID   string `yaml:"playlistID"`
}

// Configured reports whether the song game can look up playlists.
func (s SpotifySettings) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != ""
}

// YouTubeSettings configure playable URL resolution
type YouTubeSettings struct {
	YTDLPPath  string        `yaml:"ytdlpPath"`
	UseCookies bool          `yaml:"useCookies"`
	CookieTTL  time.Duration `yaml:"cookieTTL"`
	CookieURL  string        `yaml:"cookieURL"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *BotConfig {
	return &BotConfig{
		Discord: DiscordSettings{
			Token: "", // Must be set via env
		},
		Games: GameSettings{
			MinPlayers:       2,
			MaxPlayers:       10,
			LeaderboardEvery: 5,
			RoundDelay:       5 * time.Second,
			LeaderboardDelay: 5 * time.Second,
		},
		Server: ServerSettings{
			Enabled:         true,
			Port:            "8080",
			Host:            "0.0.0.0",
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    0, // 0 for SSE support
			IdleTimeout:     0,
			ShutdownTimeout: 30 * time.Second,

			RateLimit:      10,
			RateLimitBurst: 20,

			MaxRequestSize: 1048576, // 1MB

			LogLevel:  "info",
			LogFormat: "text",
		},
		Spotify: SpotifySettings{
			PlaylistID: DefaultPlaylistID,
		},
		YouTube: YouTubeSettings{
			YTDLPPath:  "yt-dlp",
			UseCookies: true,
			CookieTTL:  6 * time.Hour,
			CookieURL:  "https://www.youtube.com",
		},
	}
}

// Validate checks if the configuration is valid
func (c *BotConfig) Validate() error {
	// Required fields
	if c.Discord.Token == "" {
		return fmt.Errorf("DISCORD_APPLICATION_TOKEN environment variable must be set")
	}

	if c.Games.MinPlayers < 2 {
		return fmt.Errorf("minPlayers must be at least 2")
	}
	if c.Games.MaxPlayers < c.Games.MinPlayers {
		return fmt.Errorf("maxPlayers cannot be less than minPlayers")
	}
	if c.Games.MaxPlayers > 10 {
		return fmt.Errorf("maxPlayers cannot exceed 10")
	}
	if c.Games.LeaderboardEvery < 0 {
		return fmt.Errorf("leaderboardEvery cannot be negative")
	}
	if c.Games.RoundDelay < 0 || c.Games.LeaderboardDelay < 0 {
		return fmt.Errorf("round delays cannot be negative")
	}

	if c.Server.Enabled && c.Server.Port == "" {
		return fmt.Errorf("PORT must be set when the HTTP server is enabled")
	}
	switch c.Server.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("logFormat must be text or json, got %q", c.Server.LogFormat)
	}

	if c.Spotify.Configured() && c.Spotify.PlaylistID == "" {
		c.Spotify.PlaylistID = DefaultPlaylistID
	}
	if c.YouTube.YTDLPPath == "" {
		c.YouTube.YTDLPPath = "yt-dlp"
	}

	return nil
}
