package discord

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"

	"partybot/internal/game"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// voiceConn is the part of a voice connection the player needs.
type voiceConn interface {
	Speaking(speaking bool) error
	Disconnect() error
	Send(ctx context.Context, packet []byte) error
}

type connection struct {
	vc *discordgo.VoiceConnection
}

func (c connection) Speaking(speaking bool) error { return c.vc.Speaking(speaking) }
func (c connection) Disconnect() error            { return c.vc.Disconnect() }

func (c connection) Send(ctx context.Context, packet []byte) error {
	select {
	case c.vc.OpusSend <- packet:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// AudioSource opens url as an Ogg Opus stream.
type AudioSource func(ctx context.Context, url string) (io.ReadCloser, error)

// FFmpegSource transcodes url with the ffmpeg binary at path.
func FFmpegSource(path string) AudioSource {
	if path == "" {
		path = "ffmpeg"
	}
	return func(ctx context.Context, url string) (io.ReadCloser, error) {
		cmd := exec.CommandContext(ctx, path,
			"-reconnect", "1", "-reconnect_streamed", "1", "-reconnect_delay_max", "5",
			"-loglevel", "error",
			"-i", url,
			"-vn",
			"-c:a", "libopus", "-b:a", "96k", "-ar", "48000", "-ac", "2",
			"-frame_duration", "20", "-application", "audio",
			"-f", "ogg", "pipe:1",
		)
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return nil, fmt.Errorf("failed to open ffmpeg output: %w", err)
		}
		if err := cmd.Start(); err != nil {
			return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
		}
		return &commandStream{ReadCloser: stdout, cmd: cmd}, nil
	}
}

type commandStream struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (s *commandStream) Close() error {
	s.ReadCloser.Close()
	// killed on cancel, so the exit status says nothing useful
	_ = s.cmd.Wait()
	return nil
}

// Voice plays songs into one Discord voice channel at a time.
type Voice struct {
	join   func(guildID, channelID string) (voiceConn, error)
	source AudioSource
	logger *zap.Logger

	mu     sync.Mutex
	guilds map[game.ChannelRef]string
	conn   voiceConn
	cancel context.CancelFunc
	done   chan struct{}
}

var _ game.Voice = (*Voice)(nil)

// NewVoice creates a player that joins channels through s.
func NewVoice(s session, source AudioSource, logger *zap.Logger) *Voice {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Voice{
		join: func(guildID, channelID string) (voiceConn, error) {
			vc, err := s.ChannelVoiceJoin(guildID, channelID, false, true)
			if err != nil {
				return nil, err
			}
			return connection{vc: vc}, nil
		},
		source: source,
		logger: logger,
		guilds: make(map[game.ChannelRef]string),
	}
}

// Remember records which guild a voice channel belongs to.
func (v *Voice) Remember(channel game.ChannelRef, guildID string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.guilds[channel] = guildID
}

// Connect joins channel, leaving any previous one.
func (v *Voice) Connect(ctx context.Context, channel game.ChannelRef) bool {
	v.mu.Lock()
	guildID := v.guilds[channel]
	v.mu.Unlock()
	if guildID == "" {
		v.logger.Warn("voice channel outside a known guild", zap.String("channel", string(channel)))
		return false
	}

	conn, err := v.join(guildID, string(channel))
	if err != nil {
		v.logger.Warn("failed to join voice channel", zap.String("channel", string(channel)), zap.Error(err))
		return false
	}

	v.Disconnect(ctx)
	v.mu.Lock()
	v.conn = conn
	v.mu.Unlock()
	return true
}

// Disconnect stops playback and leaves the voice channel.
func (v *Voice) Disconnect(ctx context.Context) {
	v.Stop(ctx)

	v.mu.Lock()
	conn := v.conn
	v.conn = nil
	v.mu.Unlock()

	if conn == nil {
		return
	}
	if err := conn.Disconnect(); err != nil {
		v.logger.Warn("failed to leave voice channel", zap.Error(err))
	}
}

// Play replaces whatever is playing with url. It returns once playback has
// started.
func (v *Voice) Play(ctx context.Context, url string) error {
	v.Stop(ctx)

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.conn == nil {
		return ErrNotConnected
	}

	// playback outlives the request that started it
	playCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	stream, err := v.source(playCtx, url)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to start audio: %w", err)
	}

	done := make(chan struct{})
	v.cancel = cancel
	v.done = done
	go v.stream(playCtx, v.conn, stream, done)
	return nil
}

func (v *Voice) stream(ctx context.Context, conn voiceConn, stream io.ReadCloser, done chan struct{}) {
	defer close(done)
	defer stream.Close()

	if err := conn.Speaking(true); err != nil {
		v.logger.Debug("failed to set speaking", zap.Error(err))
	}
	defer conn.Speaking(false)

	err := readOggPackets(stream, func(packet []byte) error {
		if isOpusHeader(packet) {
			return nil
		}
		return conn.Send(ctx, packet)
	})
	if err != nil && ctx.Err() == nil {
		v.logger.Warn("playback stopped", zap.Error(err))
	}
}

// Stop ends playback and waits for it to wind down.
func (v *Voice) Stop(ctx context.Context) {
	v.mu.Lock()
	cancel, done := v.cancel, v.done
	v.cancel, v.done = nil, nil
	v.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	select {
	case <-done:
	case <-ctx.Done():
	}
}
