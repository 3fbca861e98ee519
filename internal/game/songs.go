package game

import (
	"context"
	"fmt"
	"strings"
)

// Track is one playlist entry.
type Track struct {
	Title   string
	Artists []string
}

// Key identifies the track within a game.
func (t Track) Key() string {
	return t.Title + " - " + strings.Join(t.Artists, ", ")
}

// Credits renders "title by artist, artist".
func (t Track) Credits() string {
	if len(t.Artists) == 0 {
		return t.Title
	}
	return fmt.Sprintf("%s by %s", t.Title, strings.Join(t.Artists, ", "))
}

// SongQuiz is the guess-the-song round variant. Each round plays a track in
// the voice channel; the title and each artist score one point each, and the
// round resolves once the title and every artist have been named.
type SongQuiz struct {
	voiceChannel ChannelRef
	voice        Voice
	playlist     PlaylistSource
	resolver     URLResolver
}

// NewSongQuiz creates a song variant.
func NewSongQuiz(voiceChannel ChannelRef, voice Voice, playlist PlaylistSource, resolver URLResolver) *SongQuiz {
	return &SongQuiz{
		voiceChannel: voiceChannel,
		voice:        voice,
		playlist:     playlist,
		resolver:     resolver,
	}
}

func (s *SongQuiz) Name() string { return "Guess the Song" }

func (s *SongQuiz) Setup(ctx context.Context) ([]Item, error) {
	if s.voice == nil || !s.voice.Connect(ctx, s.voiceChannel) {
		return nil, ErrVoiceUnavailable
	}

	tracks, err := s.playlist.FetchPlaylist(ctx)
	if err != nil || len(tracks) == 0 {
		s.voice.Disconnect(ctx)
		if err == nil {
			return nil, fmt.Errorf("%w: playlist is empty", ErrMetadataUnavailable)
		}
		return nil, fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}

	items := make([]Item, len(tracks))
	for i, t := range tracks {
		items[i] = t
	}
	return items, nil
}

func (s *SongQuiz) Opening(roster Roster) []string {
	return []string{fmt.Sprintf("Guess the Song started! Players: %s", roster.Handles())}
}

func (s *SongQuiz) Prepare(ctx context.Context, item Item) error {
	track := item.(Track)
	url, err := s.resolver.ResolvePlayableURL(ctx, track.Title, track.Artists)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
	}
	if err := s.voice.Play(ctx, url); err != nil {
		return fmt.Errorf("%w: %w", ErrVoiceUnavailable, err)
	}
	return nil
}

func (s *SongQuiz) Prompt(int, Item) []string {
	return []string{"Song now playing! Guess the song!"}
}

func (s *SongQuiz) Open(item Item) Judge {
	track := item.(Track)
	remaining := make([]string, len(track.Artists))
	for i, a := range track.Artists {
		remaining[i] = NormalizeAnswer(a)
	}
	return &songJudge{
		track:     track,
		title:     NormalizeAnswer(track.Title),
		remaining: remaining,
	}
}

func (s *SongQuiz) Reveal(item Item) string {
	return fmt.Sprintf("The correct song was: %s", item.(Track).Credits())
}

func (s *SongQuiz) Conclude(ctx context.Context, _ Item) {
	s.voice.Stop(ctx)
}

func (s *SongQuiz) Between() string { return "Next song starting now!" }

func (s *SongQuiz) Exhausted() string { return "All songs have been played! The game is over." }

func (s *SongQuiz) Ended() string { return "Guess the Song has ended." }

func (s *SongQuiz) Shutdown(ctx context.Context) {
	if s.voice == nil {
		return
	}
	s.voice.Stop(ctx)
	s.voice.Disconnect(ctx)
}

type songJudge struct {
	track      Track
	title      string
	titleFound bool
	remaining  []string
}

func (j *songJudge) Judge(p Participant, guess string) Verdict {
	g := NormalizeAnswer(guess)
	var v Verdict

	if !j.titleFound && g == j.title {
		j.titleFound = true
		v.Points++
		v.Announcements = append(v.Announcements, fmt.Sprintf("%s guessed the song, %s!", p, j.track.Title))
	}

	for i, artist := range j.remaining {
		if artist != g {
			continue
		}
		j.remaining = append(j.remaining[:i], j.remaining[i+1:]...)
		v.Points++
		v.Announcements = append(v.Announcements, fmt.Sprintf("%s guessed an artist, %s!", p, strings.TrimSpace(guess)))
		break
	}

	if v.Points > 0 && j.titleFound && len(j.remaining) == 0 {
		v.Resolved = true
		v.Announcements = append(v.Announcements, fmt.Sprintf("All artists and the song have been guessed! Correct song: %s", j.track.Credits()))
	}
	return v
}
