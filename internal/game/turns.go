package game

import (
	"context"
	"fmt"
	"sync"
)

// TurnOption configures a TurnSequencer.
type TurnOption func(*TurnSequencer)

// WithDice replaces the random dice.
func WithDice(d Dice) TurnOption {
	return func(t *TurnSequencer) {
		t.dice = d
	}
}

// WithRules replaces the default rule table.
func WithRules(rules []Rule) TurnOption {
	return func(t *TurnSequencer) {
		t.rules = rules
	}
}

// WithTurnSeed fixes the seed used to pick the first roller.
func WithTurnSeed(seed int64) TurnOption {
	return func(t *TurnSequencer) {
		t.rng = newLockedRand(seed)
	}
}

// RollOutcome describes what one accepted roll request did.
type RollOutcome struct {
	Roller    Participant
	Roll      Roll
	Skipped   bool // the Threeman's turn was skipped, no dice rolled
	Granted   bool // the roller became the Threeman
	Cleared   bool // the roller rolled out of the Threeman role
	Effects   []Effect
	Next      Participant
	RollAgain bool
}

// TurnSequencer runs the Threeman dice game: a fixed circular turn order, a
// single role holder with a one-time skip, and the rule table.
type TurnSequencer struct {
	mu       sync.Mutex
	channel  ChannelRef
	roster   Roster
	notifier Notifier
	dice     Dice
	rules    []Rule
	rng      *lockedRand

	started       bool
	current       int
	holder        int // -1 when the role is open
	holderSkipped bool
}

// NewTurnSequencer creates a sequencer for the given players.
func NewTurnSequencer(channel ChannelRef, participants []Participant, notifier Notifier, opts ...TurnOption) (*TurnSequencer, error) {
	roster, err := NewRoster(participants)
	if err != nil {
		return nil, err
	}

	t := &TurnSequencer{
		channel:  channel,
		roster:   roster,
		notifier: notifier,
		holder:   -1,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.dice == nil {
		t.dice = NewRandomDice(0)
	}
	if t.rules == nil {
		t.rules = DefaultRules()
	}
	if t.rng == nil {
		t.rng = newLockedRand(0)
	}
	return t, nil
}

// Start picks the first roller at random.
func (t *TurnSequencer) Start(ctx context.Context) error {
	out := outbox{channel: t.channel}

	t.mu.Lock()
	if t.started {
		t.mu.Unlock()
		return ErrAlreadyStarted
	}
	if len(t.roster) < MinParticipants {
		t.mu.Unlock()
		return ErrInsufficientParticipants
	}
	t.current = t.rng.Intn(len(t.roster))
	t.holder = -1
	t.holderSkipped = false
	t.started = true

	out.add("Starting a game of Threeman with players: %s.", t.roster.Handles())
	out.add("%s is the first roller! Roll the dice with `/roll`. The threeman is open.", t.roster[t.current])
	t.mu.Unlock()

	out.flush(ctx, t.notifier)
	return nil
}

// RequestRoll resolves a roll for actor. Requests from anyone but the
// current roller fail with ErrWrongTurn and change nothing.
func (t *TurnSequencer) RequestRoll(ctx context.Context, actor Participant) (RollOutcome, error) {
	out := outbox{channel: t.channel}

	t.mu.Lock()
	outcome, err := t.rollLocked(actor, &out)
	t.mu.Unlock()

	if err != nil {
		return RollOutcome{}, err
	}
	out.flush(ctx, t.notifier)
	return outcome, nil
}

func (t *TurnSequencer) rollLocked(actor Participant, out *outbox) (RollOutcome, error) {
	if !t.started {
		return RollOutcome{}, ErrNotStarted
	}
	roller := t.roster[t.current]
	if actor.ID != roller.ID {
		return RollOutcome{}, fmt.Errorf("%w: waiting for %s", ErrWrongTurn, roller)
	}

	outcome := RollOutcome{Roller: roller}
	isHolder := t.holder == t.current

	if isHolder && !t.holderSkipped {
		t.holderSkipped = true
		out.add("%s is the Threeman and gets skipped this round. Passing to the next player.", roller)
		outcome.Skipped = true
		outcome.Next = t.advanceLocked()
		out.add("It's now %s's turn!", outcome.Next)
		return outcome, nil
	}

	roll := t.dice.Roll()
	outcome.Roll = roll
	out.add("%s rolled a %d and a %d (Total: %d).", roller, roll.Die1, roll.Die2, roll.Total())

	if t.holder < 0 && roll.Shows(3) {
		t.holder = t.current
		t.holderSkipped = false
		out.add("%s rolled a 3 and is now the Threeman! Drink up!", roller)
		outcome.Granted = true
		outcome.Next = t.advanceLocked()
		out.add("It's now %s's turn!", outcome.Next)
		return outcome, nil
	}

	if isHolder && roll.Shows(3) {
		t.holder = -1
		t.holderSkipped = false
		out.add("%s rolled a 3 and is no longer the Threeman! The position is now open.", roller)
		outcome.Cleared = true
		outcome.Next = t.advanceLocked()
		out.add("The Threeman position is open! %s, roll to claim it!", outcome.Next)
		return outcome, nil
	}

	outcome.Effects = Evaluate(t.rules, roll)
	for _, effect := range outcome.Effects {
		out.addText(t.describeLocked(effect, roll))
	}

	if len(outcome.Effects) == 0 {
		out.add("No rule matched. %s's turn ends.", roller)
		outcome.Next = t.advanceLocked()
		out.add("It's now %s's turn!", outcome.Next)
		return outcome, nil
	}

	outcome.RollAgain = true
	outcome.Next = roller
	out.add("%s, it's still your turn! Roll again with `/roll`.", roller)
	return outcome, nil
}

func (t *TurnSequencer) describeLocked(effect Effect, roll Roll) string {
	roller := t.roster[t.current]
	switch effect {
	case EffectThreemanDrinks:
		drinks := ThreemanDrinks(roll)
		if t.holder < 0 || drinks == 0 {
			return ""
		}
		return fmt.Sprintf("The Threeman (%s) drinks %d %s!", t.roster[t.holder], drinks, plural(drinks, "time", "times"))
	case EffectEveryoneDrinks:
		return "Everyone drinks!"
	case EffectLeftDrinks:
		return fmt.Sprintf("Total of 7! %s drinks.", t.roster[t.offsetLocked(-1)])
	case EffectRightDrinks:
		return fmt.Sprintf("Total of 11! %s drinks.", t.roster[t.offsetLocked(1)])
	}
	if text, ok := doublesGiveOut[effect]; ok {
		return fmt.Sprintf("%s %s", roller, text)
	}
	return ""
}

func (t *TurnSequencer) offsetLocked(delta int) int {
	n := len(t.roster)
	return ((t.current+delta)%n + n) % n
}

func (t *TurnSequencer) advanceLocked() Participant {
	t.current = t.offsetLocked(1)
	return t.roster[t.current]
}

// End stops the game. Only the first call announces anything.
func (t *TurnSequencer) End(ctx context.Context) {
	t.mu.Lock()
	wasStarted := t.started
	t.started = false
	t.holder = -1
	t.holderSkipped = false
	t.current = 0
	t.mu.Unlock()

	if wasStarted && t.notifier != nil {
		t.notifier.Notify(ctx, t.channel, "The game of Threeman has ended. Thanks for playing!")
	}
}

// Started reports whether rolls are being accepted.
func (t *TurnSequencer) Started() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

// CurrentRoller returns whose turn it is.
func (t *TurnSequencer) CurrentRoller() (Participant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return Participant{}, false
	}
	return t.roster[t.current], true
}

// CurrentIndex returns the roller's position in the turn order.
func (t *TurnSequencer) CurrentIndex() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.current
}

// Threeman returns the current role holder.
func (t *TurnSequencer) Threeman() (Participant, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.holder < 0 {
		return Participant{}, false
	}
	return t.roster[t.holder], true
}

// Participants returns the turn order.
func (t *TurnSequencer) Participants() Roster {
	return t.roster
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
