package metadata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"partybot/internal/config"
	"partybot/internal/game"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zmb3/spotify/v2"
	"go.uber.org/zap/zaptest"
)

func playlistServer(t *testing.T, pages ...string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/playlists/party/tracks" {
			http.NotFound(w, r)
			return
		}
		page := 0
		fmt.Sscanf(r.URL.Query().Get("page"), "%d", &page)
		if page >= len(pages) {
			http.NotFound(w, r)
			return
		}
		next := "null"
		if page+1 < len(pages) {
			next = fmt.Sprintf("%q", fmt.Sprintf("%s/playlists/party/tracks?page=%d", srv.URL, page+1))
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"items": %s, "next": %s}`, pages[page], next)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testPlaylist(t *testing.T, srv *httptest.Server) *SpotifyPlaylist {
	client := spotify.New(srv.Client(), spotify.WithBaseURL(srv.URL+"/"))
	return newSpotifyPlaylist(client, "party", zaptest.NewLogger(t))
}

func TestSpotifyPlaylist_FetchPlaylist(t *testing.T) {
	t.Run("follows pages", func(t *testing.T) {
		srv := playlistServer(t,
			`[
				{"track": {"type": "track", "name": "Toxic", "artists": [{"name": "Britney Spears"}]}},
				{"track": {"type": "episode", "name": "A Podcast"}}
			]`,
			`[
				{"track": {"type": "track", "name": "Under Pressure", "artists": [{"name": "Queen"}, {"name": "David Bowie"}]}}
			]`,
		)

		tracks, err := testPlaylist(t, srv).FetchPlaylist(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []game.Track{
			{Title: "Toxic", Artists: []string{"Britney Spears"}},
			{Title: "Under Pressure", Artists: []string{"Queen", "David Bowie"}},
		}, tracks)
	})

	t.Run("empty playlist", func(t *testing.T) {
		srv := playlistServer(t, `[]`)

		_, err := testPlaylist(t, srv).FetchPlaylist(context.Background())
		assert.ErrorIs(t, err, ErrEmptyPlaylist)
	})

	t.Run("api failure", func(t *testing.T) {
		srv := playlistServer(t)

		_, err := testPlaylist(t, srv).FetchPlaylist(context.Background())
		assert.ErrorContains(t, err, "failed to get playlist party")
	})
}

func TestNewSpotifyPlaylist(t *testing.T) {
	_, err := NewSpotifyPlaylist(context.Background(), config.SpotifySettings{}, nil)
	assert.ErrorIs(t, err, ErrNoCredentials)

	p, err := NewSpotifyPlaylist(context.Background(), config.SpotifySettings{ClientID: "id", ClientSecret: "secret"}, nil)
	require.NoError(t, err)
	assert.Equal(t, spotify.ID(config.DefaultPlaylistID), p.playlistID)
}

func TestTracksFromItems(t *testing.T) {
	items := []spotify.PlaylistItem{
		{Track: spotify.PlaylistItemTrack{Track: &spotify.FullTrack{SimpleTrack: spotify.SimpleTrack{
			Name:    "Song",
			Artists: []spotify.SimpleArtist{{Name: "A"}, {Name: ""}},
		}}}},
		{Track: spotify.PlaylistItemTrack{}},
		{Track: spotify.PlaylistItemTrack{Track: &spotify.FullTrack{}}},
	}

	assert.Equal(t, []game.Track{{Title: "Song", Artists: []string{"A"}}}, tracksFromItems(items))
}
