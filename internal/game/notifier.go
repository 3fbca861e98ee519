package game

import (
	"context"
	"fmt"
	"time"
)

// ChannelRef identifies a text or voice channel on the chat platform.
type ChannelRef string

// Notifier delivers announcements to a channel. Delivery failures are the
// transport's concern; the engine never inspects them.
type Notifier interface {
	Notify(ctx context.Context, channel ChannelRef, text string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, channel ChannelRef, text string)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, channel ChannelRef, text string) {
	f(ctx, channel, text)
}

// Notifiers fans every announcement out to each notifier in order.
type Notifiers []Notifier

// Notify forwards the announcement to every notifier.
func (ns Notifiers) Notify(ctx context.Context, channel ChannelRef, text string) {
	for _, n := range ns {
		n.Notify(ctx, channel, text)
	}
}

// Voice is the voice-channel capability used by the song game.
type Voice interface {
	Connect(ctx context.Context, channel ChannelRef) bool
	Disconnect(ctx context.Context)
	Play(ctx context.Context, url string) error
	Stop(ctx context.Context)
}

// PlaylistSource looks up the tracks a song game draws from.
type PlaylistSource interface {
	FetchPlaylist(ctx context.Context) ([]Track, error)
}

// URLResolver finds a playable stream for a track.
type URLResolver interface {
	ResolvePlayableURL(ctx context.Context, title string, artists []string) (string, error)
}

// Pacer is the scheduling hook between rounds. Correctness never depends on
// how long it waits.
type Pacer interface {
	Pause(ctx context.Context)
}

// DelayPacer pauses for a fixed duration or until the context is done.
type DelayPacer time.Duration

// Pause waits for the configured delay.
func (d DelayPacer) Pause(ctx context.Context) {
	if d <= 0 {
		return
	}
	timer := time.NewTimer(time.Duration(d))
	defer timer.Stop()

	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

// outbox collects announcements while an engine holds its lock so they can be
// sent, in order, once the lock is released.
type outbox struct {
	channel ChannelRef
	lines   []string
}

func (o *outbox) add(format string, args ...any) {
	o.lines = append(o.lines, fmt.Sprintf(format, args...))
}

func (o *outbox) addText(text string) {
	if text != "" {
		o.lines = append(o.lines, text)
	}
}

func (o *outbox) flush(ctx context.Context, n Notifier) {
	if n == nil {
		return
	}
	for _, line := range o.lines {
		n.Notify(ctx, o.channel, line)
	}
	o.lines = nil
}
