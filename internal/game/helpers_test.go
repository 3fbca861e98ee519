package game

import (
	"context"
	"errors"
	"strings"
	"sync"
)

type recordingNotifier struct {
	mu    sync.Mutex
	lines []string
}

func (n *recordingNotifier) Notify(_ context.Context, _ ChannelRef, text string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.lines = append(n.lines, text)
}

func (n *recordingNotifier) Lines() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.lines...)
}

func (n *recordingNotifier) Last() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.lines) == 0 {
		return ""
	}
	return n.lines[len(n.lines)-1]
}

func (n *recordingNotifier) Count(substr string) int {
	count := 0
	for _, line := range n.Lines() {
		if strings.Contains(line, substr) {
			count++
		}
	}
	return count
}

// scriptedDice returns the queued rolls in order, then repeats the last one.
type scriptedDice struct {
	mu    sync.Mutex
	rolls []Roll
	next  int
}

func newScriptedDice(rolls ...Roll) *scriptedDice {
	return &scriptedDice{rolls: rolls}
}

func (d *scriptedDice) Roll() Roll {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.next >= len(d.rolls) {
		return d.rolls[len(d.rolls)-1]
	}
	r := d.rolls[d.next]
	d.next++
	return r
}

type fakeVoice struct {
	mu          sync.Mutex
	connectOK   bool
	playErr     error
	connected   bool
	played      []string
	stops       int
	disconnects int
}

func (v *fakeVoice) Connect(context.Context, ChannelRef) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = v.connectOK
	return v.connectOK
}

func (v *fakeVoice) Disconnect(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.connected = false
	v.disconnects++
}

func (v *fakeVoice) Play(_ context.Context, url string) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.playErr != nil {
		return v.playErr
	}
	v.played = append(v.played, url)
	return nil
}

func (v *fakeVoice) Stop(context.Context) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stops++
}

type fakePlaylist struct {
	tracks []Track
	err    error
}

func (p fakePlaylist) FetchPlaylist(context.Context) ([]Track, error) {
	return p.tracks, p.err
}

type fakeResolver struct {
	mu    sync.Mutex
	fails int // number of calls that fail before succeeding
	calls int
}

var errLookup = errors.New("lookup failed")

func (r *fakeResolver) ResolvePlayableURL(_ context.Context, title string, _ []string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls <= r.fails {
		return "", errLookup
	}
	return "https://audio.example/" + strings.ReplaceAll(title, " ", "-"), nil
}

var (
	alice = NewParticipant("1", "alice", "@alice")
	bob   = NewParticipant("2", "bob", "@bob")
	carol = NewParticipant("3", "carol", "@carol")
	mal   = NewParticipant("99", "mallory", "@mallory")
)
