package metadata

import (
	"context"
	"errors"
	"fmt"

	"partybot/internal/config"
	"partybot/internal/game"

	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"go.uber.org/zap"
	"golang.org/x/oauth2/clientcredentials"
)

// pageSize is the largest page the playlist endpoint serves.
const pageSize = 100

// SpotifyPlaylist reads the song game's tracks from one Spotify playlist.
type SpotifyPlaylist struct {
	client     *spotify.Client
	playlistID spotify.ID
	logger     *zap.Logger
}

var _ game.PlaylistSource = (*SpotifyPlaylist)(nil)

// NewSpotifyPlaylist authenticates with the client credentials flow. The
// token is fetched on first use and refreshed as needed.
func NewSpotifyPlaylist(ctx context.Context, settings config.SpotifySettings, logger *zap.Logger, opts ...spotify.ClientOption) (*SpotifyPlaylist, error) {
	if !settings.Configured() {
		return nil, ErrNoCredentials
	}

	creds := &clientcredentials.Config{
		ClientID:     settings.ClientID,
		ClientSecret: settings.ClientSecret,
		TokenURL:     spotifyauth.TokenURL,
	}
	client := spotify.New(creds.Client(ctx), opts...)
	return newSpotifyPlaylist(client, settings.PlaylistID, logger), nil
}

func newSpotifyPlaylist(client *spotify.Client, playlistID string, logger *zap.Logger) *SpotifyPlaylist {
	if logger == nil {
		logger = zap.NewNop()
	}
	if playlistID == "" {
		playlistID = config.DefaultPlaylistID
	}
	return &SpotifyPlaylist{
		client:     client,
		playlistID: spotify.ID(playlistID),
		logger:     logger,
	}
}

// FetchPlaylist returns every track of the playlist, following pages.
func (s *SpotifyPlaylist) FetchPlaylist(ctx context.Context) ([]game.Track, error) {
	page, err := s.client.GetPlaylistItems(ctx, s.playlistID, spotify.Limit(pageSize))
	if err != nil {
		return nil, fmt.Errorf("failed to get playlist %s: %w", s.playlistID, err)
	}

	var tracks []game.Track
	for {
		tracks = append(tracks, tracksFromItems(page.Items)...)

		err := s.client.NextPage(ctx, page)
		if errors.Is(err, spotify.ErrNoMorePages) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to page playlist %s: %w", s.playlistID, err)
		}
	}

	s.logger.Info("playlist loaded", zap.String("playlist", string(s.playlistID)), zap.Int("tracks", len(tracks)))
	if len(tracks) == 0 {
		return nil, ErrEmptyPlaylist
	}
	return tracks, nil
}

// tracksFromItems keeps songs with a title, skipping podcast episodes.
func tracksFromItems(items []spotify.PlaylistItem) []game.Track {
	tracks := make([]game.Track, 0, len(items))
	for _, item := range items {
		full := item.Track.Track
		if full == nil || full.Name == "" {
			continue
		}
		artists := make([]string, 0, len(full.Artists))
		for _, a := range full.Artists {
			if a.Name != "" {
				artists = append(artists, a.Name)
			}
		}
		tracks = append(tracks, game.Track{Title: full.Name, Artists: artists})
	}
	return tracks
}
