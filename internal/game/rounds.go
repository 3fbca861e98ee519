package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// DefaultLeaderboardEvery is how often, in completed rounds, the interim
// leaderboard is shown.
const DefaultLeaderboardEvery = 5

// RoundState is the RoundCycle lifecycle position.
type RoundState string

const (
	RoundIdle     RoundState = "idle"
	RoundPending  RoundState = "pending"
	RoundActive   RoundState = "active"
	RoundResolved RoundState = "resolved"
	RoundComplete RoundState = "complete"
)

// Item is one question or song. Keys identify items in the used set.
type Item interface {
	Key() string
}

// Verdict is a judge's decision on one guess.
type Verdict struct {
	Points        int
	Announcements []string
	Resolved      bool
}

// Judge scores guesses for the active round. It is only called with the
// cycle's lock held.
type Judge interface {
	Judge(p Participant, guess string) Verdict
}

// Variant supplies the item pool and the texts of one round-based game.
type Variant interface {
	Name() string
	// Setup runs once on start and returns the item pool.
	Setup(ctx context.Context) ([]Item, error)
	Opening(roster Roster) []string
	// Prepare runs before a chosen item goes live. A failure leaves the
	// round pending.
	Prepare(ctx context.Context, item Item) error
	Prompt(round int, item Item) []string
	Open(item Item) Judge
	Reveal(item Item) string
	// Conclude runs after a round resolves.
	Conclude(ctx context.Context, item Item)
	Between() string
	Exhausted() string
	Ended() string
	// Shutdown releases whatever Setup acquired. It may be called more than
	// once.
	Shutdown(ctx context.Context)
}

// RoundOption configures a RoundCycle.
type RoundOption func(*RoundCycle)

// WithPacer sets the pause taken between rounds.
func WithPacer(p Pacer) RoundOption {
	return func(c *RoundCycle) {
		c.pacer = p
	}
}

// WithLeaderboardPacer sets the extra pause taken after an interim
// leaderboard. It defaults to the round pacer.
func WithLeaderboardPacer(p Pacer) RoundOption {
	return func(c *RoundCycle) {
		c.boardPacer = p
	}
}

// WithLeaderboardEvery sets the interim leaderboard interval. Zero disables
// it.
func WithLeaderboardEvery(n int) RoundOption {
	return func(c *RoundCycle) {
		c.every = n
	}
}

// WithRoundSeed fixes the seed used to pick items.
func WithRoundSeed(seed int64) RoundOption {
	return func(c *RoundCycle) {
		c.rng = newLockedRand(seed)
	}
}

// RoundCycle is the ask, collect, resolve, advance engine shared by the
// trivia and song games.
type RoundCycle struct {
	mu         sync.Mutex
	channel    ChannelRef
	roster     Roster
	scores     *Scoreboard
	variant    Variant
	notifier   Notifier
	pacer      Pacer
	boardPacer Pacer
	every      int
	rng        *lockedRand

	state     RoundState
	preparing bool
	items     []Item
	used      map[string]bool
	round     int
	active    bool
	current   Item
	judge     Judge
}

// NewRoundCycle creates an idle cycle for the given players.
func NewRoundCycle(channel ChannelRef, participants []Participant, variant Variant, notifier Notifier, opts ...RoundOption) (*RoundCycle, error) {
	scores, err := NewScoreboard(participants)
	if err != nil {
		return nil, err
	}

	c := &RoundCycle{
		channel:  channel,
		roster:   scores.Participants(),
		scores:   scores,
		variant:  variant,
		notifier: notifier,
		every:    DefaultLeaderboardEvery,
		state:    RoundIdle,
		used:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.pacer == nil {
		c.pacer = DelayPacer(0)
	}
	if c.boardPacer == nil {
		c.boardPacer = c.pacer
	}
	if c.rng == nil {
		c.rng = newLockedRand(0)
	}
	return c, nil
}

// Start runs the variant setup, announces the game and begins the first
// round. A setup failure returns the cycle to idle.
func (c *RoundCycle) Start(ctx context.Context) error {
	c.mu.Lock()
	if c.state != RoundIdle {
		c.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(c.roster) < MinParticipants {
		c.mu.Unlock()
		return ErrInsufficientParticipants
	}
	c.state = RoundPending
	c.preparing = true
	c.mu.Unlock()

	items, err := c.variant.Setup(ctx)

	c.mu.Lock()
	c.preparing = false
	if c.state == RoundComplete {
		c.mu.Unlock()
		c.variant.Shutdown(ctx)
		return ErrNoActiveGame
	}
	if err != nil {
		c.state = RoundIdle
		c.mu.Unlock()
		return err
	}
	c.items = items
	out := outbox{channel: c.channel}
	for _, line := range c.variant.Opening(c.roster) {
		out.addText(line)
	}
	c.mu.Unlock()

	out.flush(ctx, c.notifier)
	return c.BeginRound(ctx)
}

// BeginRound picks an unused item at random and opens it. With no items
// left the cycle completes and the final leaderboard is shown.
func (c *RoundCycle) BeginRound(ctx context.Context) error {
	out := outbox{channel: c.channel}

	c.mu.Lock()
	switch {
	case c.state == RoundIdle:
		c.mu.Unlock()
		return ErrNotStarted
	case c.state == RoundComplete:
		c.mu.Unlock()
		return ErrNoActiveGame
	case c.state == RoundActive, c.preparing:
		c.mu.Unlock()
		return ErrRoundInProgress
	}

	pool := make([]Item, 0, len(c.items))
	for _, item := range c.items {
		if !c.used[item.Key()] {
			pool = append(pool, item)
		}
	}
	if len(pool) == 0 {
		c.state = RoundComplete
		out.addText(c.variant.Exhausted())
		out.addText(c.scores.Render(TitleFinal))
		c.mu.Unlock()

		out.flush(ctx, c.notifier)
		c.variant.Shutdown(ctx)
		return nil
	}

	item := pool[c.rng.Intn(len(pool))]
	c.state = RoundPending
	c.preparing = true
	c.mu.Unlock()

	err := c.variant.Prepare(ctx, item)

	c.mu.Lock()
	c.preparing = false
	if c.state == RoundComplete {
		c.mu.Unlock()
		if err == nil {
			c.variant.Shutdown(ctx)
		}
		return nil
	}
	if err != nil {
		c.mu.Unlock()
		if !errors.Is(err, ErrMetadataUnavailable) {
			err = fmt.Errorf("%w: %w", ErrMetadataUnavailable, err)
		}
		return err
	}

	c.used[item.Key()] = true
	c.round++
	c.current = item
	c.judge = c.variant.Open(item)
	c.active = true
	c.state = RoundActive
	for _, line := range c.variant.Prompt(c.round, item) {
		out.addText(line)
	}
	c.mu.Unlock()

	out.flush(ctx, c.notifier)
	return nil
}

// SubmitAnswer judges text from p against the active round. Guesses from
// outsiders, guesses while no round is active and wrong guesses change
// nothing and announce nothing. It reports whether p scored.
func (c *RoundCycle) SubmitAnswer(ctx context.Context, p Participant, text string) (bool, error) {
	out := outbox{channel: c.channel}

	c.mu.Lock()
	if !c.active || c.current == nil || !c.roster.Contains(p) {
		c.mu.Unlock()
		return false, nil
	}

	verdict := c.judge.Judge(p, text)
	scored := false
	if verdict.Points > 0 {
		if err := c.scores.Award(p, verdict.Points); err == nil {
			scored = true
		}
	}
	for _, line := range verdict.Announcements {
		out.addText(line)
	}

	var (
		item    Item
		interim bool
	)
	if verdict.Resolved {
		item, interim = c.resolveLocked(&out)
	}
	c.mu.Unlock()

	out.flush(ctx, c.notifier)
	if !verdict.Resolved {
		return scored, nil
	}
	return scored, c.advance(ctx, item, interim)
}

// Reveal gives up on the active round: the answer is shown, nobody scores
// and the next round begins.
func (c *RoundCycle) Reveal(ctx context.Context) error {
	out := outbox{channel: c.channel}

	c.mu.Lock()
	if !c.active || c.current == nil {
		c.mu.Unlock()
		return ErrNoActiveRound
	}
	out.addText(c.variant.Reveal(c.current))
	item, interim := c.resolveLocked(&out)
	c.mu.Unlock()

	out.flush(ctx, c.notifier)
	return c.advance(ctx, item, interim)
}

func (c *RoundCycle) resolveLocked(out *outbox) (Item, bool) {
	item := c.current
	c.active = false
	c.current = nil
	c.judge = nil
	c.state = RoundResolved

	interim := c.every > 0 && c.round%c.every == 0
	if interim {
		out.addText(c.scores.Render(TitleCurrent))
	}
	return item, interim
}

func (c *RoundCycle) advance(ctx context.Context, item Item, interim bool) error {
	c.variant.Conclude(ctx, item)

	c.pacer.Pause(ctx)
	if interim {
		c.boardPacer.Pause(ctx)
	}

	c.mu.Lock()
	if c.state != RoundResolved {
		c.mu.Unlock()
		return nil
	}
	between := c.variant.Between()
	c.mu.Unlock()

	if between != "" && c.notifier != nil {
		c.notifier.Notify(ctx, c.channel, between)
	}

	err := c.BeginRound(ctx)
	if errors.Is(err, ErrRoundInProgress) || errors.Is(err, ErrNoActiveGame) {
		return nil
	}
	return err
}

// End completes the cycle from any state and shows the final leaderboard.
// Calling it again does nothing.
func (c *RoundCycle) End(ctx context.Context) {
	out := outbox{channel: c.channel}

	c.mu.Lock()
	if c.state == RoundComplete {
		c.mu.Unlock()
		return
	}
	c.state = RoundComplete
	c.active = false
	c.current = nil
	c.judge = nil
	out.addText(c.variant.Ended())
	out.addText(c.scores.Render(TitleFinal))
	c.mu.Unlock()

	out.flush(ctx, c.notifier)
	c.variant.Shutdown(ctx)
}

// State returns the lifecycle position.
func (c *RoundCycle) State() RoundState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Active reports whether answers can currently score.
func (c *RoundCycle) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active
}

// Round returns how many rounds have begun.
func (c *RoundCycle) Round() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.round
}

// Used returns how many items have been asked.
func (c *RoundCycle) Used() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.used)
}

// Scoreboard returns the cycle's scores.
func (c *RoundCycle) Scoreboard() *Scoreboard {
	return c.scores
}

// Participants returns the players.
func (c *RoundCycle) Participants() Roster {
	return c.roster
}

// Name returns the variant's game name.
func (c *RoundCycle) Name() string {
	return c.variant.Name()
}
